package netsuite

// SubsidiaryRef references a subsidiary record by internal id.
type SubsidiaryRef struct {
	ID string `json:"id"`
}

// RoleRef is one line of the employee roles sublist.
type RoleRef struct {
	SelectedRole string `json:"selectedrole"`
}

// RoleList is the wire shape of the employee roles sublist.
type RoleList struct {
	Items []RoleRef `json:"items"`
}

// EmployeePayload is a partial employee record sent on create and update
// calls. Zero fields are omitted, so an update only touches the fields the
// caller set. Inactive is a pointer because the ERP's flag is inverted
// (isinactive=false means the record is enabled) and "unset" must be
// distinguishable from "explicitly false".
type EmployeePayload struct {
	FirstName  string         `json:"firstname,omitempty"`
	LastName   string         `json:"lastname,omitempty"`
	Email      string         `json:"email,omitempty"`
	Mobile     string         `json:"mobile,omitempty"`
	Title      string         `json:"title,omitempty"`
	Subsidiary *SubsidiaryRef `json:"subsidiary,omitempty"`
	GiveAccess bool           `json:"giveaccess,omitempty"`
	Password   string         `json:"password,omitempty"`
	Password2  string         `json:"password2,omitempty"`
	Inactive   *bool          `json:"isinactive,omitempty"`
	Roles      *RoleList      `json:"roles,omitempty"`
}

// Employee is the read shape of an ERP employee record. The engine only ever
// holds it as a read-only snapshot during one sync pass.
type Employee struct {
	ID         string         `json:"id"`
	Email      string         `json:"email"`
	FirstName  string         `json:"firstname"`
	LastName   string         `json:"lastname"`
	Title      string         `json:"title"`
	Subsidiary *SubsidiaryRef `json:"subsidiary,omitempty"`
	Inactive   bool           `json:"isinactive"`
	Roles      *RoleList      `json:"roles,omitempty"`
}

// SubsidiaryID returns the subsidiary internal id, or "" when unset.
func (e *Employee) SubsidiaryID() string {
	if e.Subsidiary == nil {
		return ""
	}
	return e.Subsidiary.ID
}

// RoleIDs returns the employee's role ids in sublist order.
func (e *Employee) RoleIDs() []string {
	if e.Roles == nil {
		return nil
	}
	ids := make([]string, 0, len(e.Roles.Items))
	for _, item := range e.Roles.Items {
		ids = append(ids, item.SelectedRole)
	}
	return ids
}

// NewRoleList builds a roles sublist from a list of role ids.
func NewRoleList(roleIDs []string) *RoleList {
	items := make([]RoleRef, 0, len(roleIDs))
	for _, id := range roleIDs {
		items = append(items, RoleRef{SelectedRole: id})
	}
	return &RoleList{Items: items}
}

// Bool returns a pointer to b, for the Inactive payload field.
func Bool(b bool) *bool {
	return &b
}
