package mapping

import "fmt"

// ErrorKind identifies which lookup failed.
type ErrorKind string

const (
	KindUnmappedDepartment ErrorKind = "UNMAPPED_DEPARTMENT"
	KindUnmappedRole       ErrorKind = "UNMAPPED_ROLE"
)

// MappingError is returned under PolicyStrict when a normalized raw value has
// no entry in the configured tables. Value carries the normalized input so
// callers can surface it verbatim.
type MappingError struct {
	Kind  ErrorKind
	Value string
}

func (e *MappingError) Error() string {
	switch e.Kind {
	case KindUnmappedDepartment:
		return fmt.Sprintf("department '%s' is not mapped to a subsidiary", e.Value)
	case KindUnmappedRole:
		return fmt.Sprintf("employee type '%s' is not mapped to roles", e.Value)
	default:
		return fmt.Sprintf("unmapped value '%s'", e.Value)
	}
}
