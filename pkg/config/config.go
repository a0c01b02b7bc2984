// Package config holds the environment configuration for the bridge and the
// batch synchronizer.
package config

import (
	"fmt"

	"github.com/SpruceVedant/SCIM-Provisioning/pkg/directory"
	"github.com/SpruceVedant/SCIM-Provisioning/pkg/netsuite"
)

// ErpConfig configures token-based authentication against the ERP REST
// surface.
type ErpConfig struct {
	AccountID       string `env:"NS_ACCOUNT_ID"`
	ConsumerKey     string `env:"NS_CONSUMER_KEY"`
	ConsumerSecret  string `env:"NS_CONSUMER_SECRET"`
	TokenID         string `env:"NS_TOKEN_ID"`
	TokenSecret     string `env:"NS_TOKEN_SECRET"`
	BaseURL         string `env:"NS_BASE_URL"`
	DefaultPassword string `env:"NS_DEFAULT_PASSWORD"`
	PageSize        int    `env:"NS_PAGE_SIZE" env-default:"1000"`
}

// Credentials converts the config into signing credentials.
func (c ErpConfig) Credentials() netsuite.Credentials {
	return netsuite.Credentials{
		AccountID:       c.AccountID,
		ConsumerKey:     c.ConsumerKey,
		ConsumerSecret:  c.ConsumerSecret,
		TokenID:         c.TokenID,
		TokenSecret:     c.TokenSecret,
		DefaultPassword: c.DefaultPassword,
	}
}

// Validate checks that the fields the signer cannot work without are set.
func (c ErpConfig) Validate() error {
	missing := []string{}
	if c.AccountID == "" {
		missing = append(missing, "NS_ACCOUNT_ID")
	}
	if c.ConsumerKey == "" {
		missing = append(missing, "NS_CONSUMER_KEY")
	}
	if c.ConsumerSecret == "" {
		missing = append(missing, "NS_CONSUMER_SECRET")
	}
	if c.TokenID == "" {
		missing = append(missing, "NS_TOKEN_ID")
	}
	if c.TokenSecret == "" {
		missing = append(missing, "NS_TOKEN_SECRET")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required erp config: %v", missing)
	}
	return nil
}

// DirectoryConfig configures the client-credentials pull from the identity
// provider's directory API.
type DirectoryConfig struct {
	TokenURL     string `env:"DIR_TOKEN_URL"`
	ClientID     string `env:"DIR_CLIENT_ID"`
	ClientSecret string `env:"DIR_CLIENT_SECRET"`
	Scope        string `env:"DIR_SCOPE" env-default:"https://graph.microsoft.com/.default"`
	UsersURL     string `env:"DIR_USERS_URL"`
}

// ClientConfig converts the config into a directory client config.
func (c DirectoryConfig) ClientConfig() directory.Config {
	return directory.Config{
		TokenURL:     c.TokenURL,
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		Scope:        c.Scope,
		UsersURL:     c.UsersURL,
	}
}

// ScimConfig configures the inbound provisioning surface.
type ScimConfig struct {
	AuthToken  string `env:"SCIM_AUTH_TOKEN"`
	PathPrefix string `env:"SCIM_PATH_PREFIX"`
}

// RateLimitConfig tunes inbound request throttling.
type RateLimitConfig struct {
	Enabled         bool    `env:"RATE_LIMIT_ENABLED" env-default:"true"`
	GlobalPerMinute float64 `env:"RATE_LIMIT_GLOBAL_PER_MINUTE" env-default:"600"`
	PerIPPerMinute  float64 `env:"RATE_LIMIT_PER_IP_PER_MINUTE" env-default:"120"`
}

// SyncConfig tunes the batch synchronizer.
type SyncConfig struct {
	Workers  int    `env:"SYNC_WORKERS" env-default:"4"`
	Schedule string `env:"SYNC_SCHEDULE"`
}

// MappingConfig points at the tenant mapping tables. An empty path uses the
// built-in defaults.
type MappingConfig struct {
	TablesPath string `env:"MAPPING_TABLES_PATH"`
}
