package mapping

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapper_NormalizationEquivalence(t *testing.T) {
	mapper := NewMapper(DefaultTables())

	for _, raw := range []string{"Havas India", "havas india", " HAVAS INDIA "} {
		attrs, err := mapper.Map(raw, "Admin", PolicyStrict)
		require.NoError(t, err, "input %q", raw)
		assert.Equal(t, "2", attrs.SubsidiaryID)
		assert.Equal(t, []string{"3"}, attrs.RoleIDs)
	}
}

func TestMapper_StrictRejectsUnmapped(t *testing.T) {
	mapper := NewMapper(DefaultTables())

	_, err := mapper.Map("No Such Department", "Admin", PolicyStrict)
	var mappingErr *MappingError
	require.ErrorAs(t, err, &mappingErr)
	assert.Equal(t, KindUnmappedDepartment, mappingErr.Kind)
	assert.Equal(t, "no such department", mappingErr.Value)

	_, err = mapper.Map("Havas India", "Astronaut", PolicyStrict)
	require.ErrorAs(t, err, &mappingErr)
	assert.Equal(t, KindUnmappedRole, mappingErr.Kind)

	// Empty input is a distinguished unset value, still an error under strict
	_, err = mapper.Map("", "", PolicyStrict)
	require.ErrorAs(t, err, &mappingErr)
	assert.Equal(t, KindUnmappedDepartment, mappingErr.Kind)
	assert.Equal(t, "", mappingErr.Value)
}

func TestMapper_DefaultFallbackNeverErrors(t *testing.T) {
	mapper := NewMapper(DefaultTables())

	attrs, err := mapper.Map("No Such Department", "Astronaut", PolicyDefaultFallback)
	require.NoError(t, err)
	assert.Equal(t, "1", attrs.SubsidiaryID)
	assert.Equal(t, []string{"15"}, attrs.RoleIDs)

	attrs, err = mapper.Map("", "", PolicyDefaultFallback)
	require.NoError(t, err)
	assert.Equal(t, "1", attrs.SubsidiaryID)
	assert.Equal(t, []string{"15"}, attrs.RoleIDs)

	// Mapped values still resolve normally under fallback policy
	attrs, err = mapper.Map("Think Design", "CEO", PolicyDefaultFallback)
	require.NoError(t, err)
	assert.Equal(t, "8", attrs.SubsidiaryID)
	assert.Equal(t, []string{"8"}, attrs.RoleIDs)
}

func TestMapper_ThinkDesignAdminScenario(t *testing.T) {
	mapper := NewMapper(DefaultTables())

	attrs, err := mapper.Map("Think Design", "Admin", PolicyStrict)
	require.NoError(t, err)
	assert.Equal(t, "8", attrs.SubsidiaryID)
	assert.Equal(t, []string{"3"}, attrs.RoleIDs)
}

func TestMapper_ResultsAreCopies(t *testing.T) {
	tables := DefaultTables()
	mapper := NewMapper(tables)

	attrs, err := mapper.Map("Havas India", "Admin", PolicyStrict)
	require.NoError(t, err)
	attrs.RoleIDs[0] = "mutated"

	again, err := mapper.Map("Havas India", "Admin", PolicyStrict)
	require.NoError(t, err)
	assert.Equal(t, []string{"3"}, again.RoleIDs)

	// Mutating the source tables after construction must not affect lookups
	tables.DepartmentSubsidiary["havas india"] = "999"
	attrs, err = mapper.Map("Havas India", "Admin", PolicyStrict)
	require.NoError(t, err)
	assert.Equal(t, "2", attrs.SubsidiaryID)
}

func TestLoadTables(t *testing.T) {
	tables, err := LoadTables("")
	require.NoError(t, err)
	assert.Equal(t, DefaultTables(), tables)

	path := filepath.Join(t.TempDir(), "tables.json")
	content := `{
		"department_subsidiary": {"Engineering": "42"},
		"employee_type_roles": {"Contractor": ["7", "9"]}
	}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	tables, err = LoadTables(path)
	require.NoError(t, err)
	mapper := NewMapper(tables)

	attrs, err := mapper.Map(" engineering ", "CONTRACTOR", PolicyStrict)
	require.NoError(t, err)
	assert.Equal(t, "42", attrs.SubsidiaryID)
	assert.Equal(t, []string{"7", "9"}, attrs.RoleIDs)

	// Defaults are filled in when the file omits them
	assert.Equal(t, "1", tables.DefaultSubsidiaryID)
	assert.Equal(t, []string{"15"}, tables.DefaultRoleIDs)

	_, err = LoadTables(filepath.Join(t.TempDir(), "missing.json"))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}
