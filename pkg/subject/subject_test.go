package subject

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "a@x.com", NormalizeEmail("a@x.com"))
	assert.Equal(t, "a@x.com", NormalizeEmail(" A@X.COM "))
	assert.Equal(t, "", NormalizeEmail("   "))
}

func TestNormalizeKey(t *testing.T) {
	// The same raw value in any casing or padding must normalize identically
	assert.Equal(t, NormalizeKey("Havas India"), NormalizeKey("havas india"))
	assert.Equal(t, NormalizeKey("Havas India"), NormalizeKey(" HAVAS INDIA "))
	assert.Equal(t, "", NormalizeKey(""))
}
