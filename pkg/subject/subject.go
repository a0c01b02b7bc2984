package subject

import "strings"

// Canonical is the engine-internal representation of a person record after
// field extraction from a provider payload. Email is the join key across
// both directories and is always compared through NormalizeEmail.
type Canonical struct {
	ExternalID      string
	FirstName       string
	LastName        string
	Email           string
	RawDepartment   string
	RawEmployeeType string
	Mobile          string
	Title           string
	HireDate        string
}

// NormalizeEmail trims and lower-cases an email address so that the same
// person coming from either directory compares equal.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizeKey canonicalizes free-text attribute values (department,
// employee type) before any mapping-table lookup.
func NormalizeKey(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}
