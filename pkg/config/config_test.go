package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErpConfigValidate(t *testing.T) {
	cfg := ErpConfig{
		AccountID:      "TSTDRV123",
		ConsumerKey:    "ck",
		ConsumerSecret: "cs",
		TokenID:        "tid",
		TokenSecret:    "ts",
	}
	require.NoError(t, cfg.Validate())

	cfg.TokenSecret = ""
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NS_TOKEN_SECRET")
}

func TestErpConfigCredentials(t *testing.T) {
	cfg := ErpConfig{AccountID: "TSTDRV123", ConsumerKey: "ck", DefaultPassword: "pw"}
	creds := cfg.Credentials()
	assert.Equal(t, "TSTDRV123", creds.AccountID)
	assert.Equal(t, "ck", creds.ConsumerKey)
	assert.Equal(t, "pw", creds.DefaultPassword)
}
