// Package scim models the subset of the SCIM 2.0 user schema the
// provisioning surface consumes, and extracts canonical subjects from it.
package scim

import (
	"strings"

	"github.com/SpruceVedant/SCIM-Provisioning/pkg/subject"
)

const (
	// EnterpriseUserURN is the SCIM enterprise user extension schema id.
	EnterpriseUserURN = "urn:ietf:params:scim:schemas:extension:enterprise:2.0:User"
	// ListResponseURN is the SCIM list response message schema id.
	ListResponseURN = "urn:ietf:params:scim:api:messages:2.0:ListResponse"
)

// Name is the SCIM core name complex attribute.
type Name struct {
	GivenName  string `json:"givenName,omitempty"`
	FamilyName string `json:"familyName,omitempty"`
}

// EnterpriseExtension carries the enterprise user extension attributes the
// bridge reads. Identity providers differ on whether they send department
// and division at the root or inside the extension, so both are modeled.
type EnterpriseExtension struct {
	Department   string `json:"department,omitempty"`
	Division     string `json:"division,omitempty"`
	EmployeeType string `json:"employeeType,omitempty"`
}

// User is an inbound SCIM user payload (core schema plus enterprise
// extension).
type User struct {
	Schemas      []string             `json:"schemas,omitempty"`
	ID           string               `json:"id,omitempty"`
	ExternalID   string               `json:"externalId,omitempty"`
	UserName     string               `json:"userName,omitempty"`
	DisplayName  string               `json:"displayName,omitempty"`
	Name         *Name                `json:"name,omitempty"`
	Title        string               `json:"title,omitempty"`
	Department   string               `json:"department,omitempty"`
	Division     string               `json:"division,omitempty"`
	EmployeeType string               `json:"employeeType,omitempty"`
	Mobile       string               `json:"mobile,omitempty"`
	Active       *bool                `json:"active,omitempty"`
	Enterprise   *EnterpriseExtension `json:"urn:ietf:params:scim:schemas:extension:enterprise:2.0:User,omitempty"`
}

// Subject extracts the canonical subject from the payload.
//
// Names come from name.givenName/familyName, falling back to a split of
// displayName. The email is userName. Department is read from the root, then
// the extension. Employee type tries employeeType and division at both
// levels before falling back to the job title.
func (u *User) Subject() subject.Canonical {
	first, last := u.names()
	return subject.Canonical{
		ExternalID:      u.ExternalID,
		FirstName:       first,
		LastName:        last,
		Email:           subject.NormalizeEmail(u.UserName),
		RawDepartment:   u.department(),
		RawEmployeeType: u.employeeType(),
		Mobile:          u.Mobile,
		Title:           u.Title,
	}
}

func (u *User) names() (string, string) {
	if u.Name != nil && (u.Name.GivenName != "" || u.Name.FamilyName != "") {
		return u.Name.GivenName, u.Name.FamilyName
	}
	parts := strings.Fields(u.DisplayName)
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return parts[0], ""
	default:
		return parts[0], strings.Join(parts[1:], " ")
	}
}

func (u *User) department() string {
	if u.Department != "" {
		return u.Department
	}
	if u.Enterprise != nil {
		return u.Enterprise.Department
	}
	return ""
}

func (u *User) employeeType() string {
	candidates := []string{u.EmployeeType, u.Division}
	if u.Enterprise != nil {
		candidates = append(candidates, u.Enterprise.EmployeeType, u.Enterprise.Division)
	}
	candidates = append(candidates, u.Title)
	for _, c := range candidates {
		if strings.TrimSpace(c) != "" {
			return c
		}
	}
	return ""
}

// ListResponse is the fixed SCIM list message the stub GET endpoint returns.
type ListResponse struct {
	Schemas      []string `json:"schemas"`
	TotalResults int      `json:"totalResults"`
	Resources    []User   `json:"Resources"`
}

// EmptyListResponse returns a list response with no resources. The bridge
// does not support SCIM query semantics; providers only probe this endpoint.
func EmptyListResponse() ListResponse {
	return ListResponse{
		Schemas:      []string{ListResponseURN},
		TotalResults: 0,
		Resources:    []User{},
	}
}
