package mapping

import (
	"encoding/json"
	"fmt"
	"os"
)

// DefaultTables returns the built-in tenant tables. They match the tenant
// configuration the bridge ships with; deployments override them with a JSON
// file via LoadTables.
func DefaultTables() Tables {
	return Tables{
		DepartmentSubsidiary: map[string]string{
			"havas creative network": "1",
			"havas india":            "2",
			"havas life":             "3",
			"shobiz":                 "6",
			"think design":           "8",
			"parent company":         "1",
		},
		EmployeeTypeRoles: map[string][]string{
			"admin":           {"3"},
			"employee center": {"15"},
			"ceo":             {"8"},
			"sso role":        {"1137"},
		},
		DefaultSubsidiaryID: "1",
		DefaultRoleIDs:      []string{"15"},
	}
}

// LoadTables reads mapping tables from a JSON file. An empty path returns the
// built-in defaults.
func LoadTables(path string) (Tables, error) {
	if path == "" {
		return DefaultTables(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Tables{}, fmt.Errorf("failed to read mapping tables: %w", err)
	}

	var tables Tables
	if err := json.Unmarshal(data, &tables); err != nil {
		return Tables{}, fmt.Errorf("failed to parse mapping tables: %w", err)
	}

	if tables.DefaultSubsidiaryID == "" {
		tables.DefaultSubsidiaryID = DefaultTables().DefaultSubsidiaryID
	}
	if len(tables.DefaultRoleIDs) == 0 {
		tables.DefaultRoleIDs = DefaultTables().DefaultRoleIDs
	}
	return tables, nil
}
