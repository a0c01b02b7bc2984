package mapping

import (
	"github.com/SpruceVedant/SCIM-Provisioning/pkg/subject"
)

// Policy controls how the mapper treats raw values that are missing from the
// configured tables.
type Policy int

const (
	// PolicyStrict rejects unmapped values with a MappingError. Used by the
	// push-mode provisioning surface so that bad payloads never reach the ERP.
	PolicyStrict Policy = iota
	// PolicyDefaultFallback substitutes the configured default subsidiary and
	// role set for unmapped values. Used by the batch pull sync, which has to
	// tolerate partial directory data.
	PolicyDefaultFallback
)

// Attributes is the result of resolving a subject's raw directory attributes
// against the mapping tables.
type Attributes struct {
	SubsidiaryID string
	RoleIDs      []string
}

// Tables holds the tenant's static lookup tables. Keys are stored normalized
// (trimmed, lower-cased); values are ERP-native identifiers. Tables are
// loaded once per run and never mutated afterwards.
type Tables struct {
	DepartmentSubsidiary map[string]string   `json:"department_subsidiary"`
	EmployeeTypeRoles    map[string][]string `json:"employee_type_roles"`
	DefaultSubsidiaryID  string              `json:"default_subsidiary_id"`
	DefaultRoleIDs       []string            `json:"default_role_ids"`
}

// Mapper resolves raw department and employee-type strings into ERP
// identifiers. It holds its own normalized copy of the tables, so callers may
// discard or reuse the Tables value after construction.
type Mapper struct {
	departmentSubsidiary map[string]string
	employeeTypeRoles    map[string][]string
	defaultSubsidiaryID  string
	defaultRoleIDs       []string
}

// NewMapper creates a mapper over an immutable copy of the given tables.
func NewMapper(tables Tables) *Mapper {
	m := &Mapper{
		departmentSubsidiary: make(map[string]string, len(tables.DepartmentSubsidiary)),
		employeeTypeRoles:    make(map[string][]string, len(tables.EmployeeTypeRoles)),
		defaultSubsidiaryID:  tables.DefaultSubsidiaryID,
		defaultRoleIDs:       append([]string(nil), tables.DefaultRoleIDs...),
	}
	for dept, subsidiaryID := range tables.DepartmentSubsidiary {
		m.departmentSubsidiary[subject.NormalizeKey(dept)] = subsidiaryID
	}
	for empType, roleIDs := range tables.EmployeeTypeRoles {
		m.employeeTypeRoles[subject.NormalizeKey(empType)] = append([]string(nil), roleIDs...)
	}
	return m
}

// Map resolves rawDepartment and rawEmployeeType under the given policy.
// It is a pure function over the inputs and the tables.
func (m *Mapper) Map(rawDepartment, rawEmployeeType string, policy Policy) (Attributes, error) {
	subsidiaryID, ok := m.LookupSubsidiary(rawDepartment)
	if !ok {
		if policy == PolicyStrict {
			return Attributes{}, &MappingError{Kind: KindUnmappedDepartment, Value: subject.NormalizeKey(rawDepartment)}
		}
		subsidiaryID = m.defaultSubsidiaryID
	}

	roleIDs, ok := m.LookupRoles(rawEmployeeType)
	if !ok {
		if policy == PolicyStrict {
			return Attributes{}, &MappingError{Kind: KindUnmappedRole, Value: subject.NormalizeKey(rawEmployeeType)}
		}
		roleIDs = append([]string(nil), m.defaultRoleIDs...)
	}

	return Attributes{SubsidiaryID: subsidiaryID, RoleIDs: roleIDs}, nil
}

// LookupSubsidiary resolves a raw department without applying any policy.
func (m *Mapper) LookupSubsidiary(rawDepartment string) (string, bool) {
	subsidiaryID, ok := m.departmentSubsidiary[subject.NormalizeKey(rawDepartment)]
	return subsidiaryID, ok
}

// LookupRoles resolves a raw employee type without applying any policy.
// Callers that merge roles into an existing record use this directly, where
// an unmapped value simply contributes no new roles.
func (m *Mapper) LookupRoles(rawEmployeeType string) ([]string, bool) {
	roleIDs, ok := m.employeeTypeRoles[subject.NormalizeKey(rawEmployeeType)]
	if !ok {
		return nil, false
	}
	return append([]string(nil), roleIDs...), true
}
