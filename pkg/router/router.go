// Package router wires the provisioning surface onto an application router.
package router

import (
	"github.com/go-chi/chi/v5"

	"github.com/SpruceVedant/SCIM-Provisioning/pkg/ratelimit"
	scimapi "github.com/SpruceVedant/SCIM-Provisioning/pkg/scim/api"
)

// Config holds the handlers and settings needed to set up routes.
type Config struct {
	ProvisioningHandle *scimapi.ProvisioningHandler

	// Pre-shared key the identity provider authenticates with.
	AuthToken string

	// Prefix the SCIM routes are mounted under, e.g. "/scim/v2".
	// Empty mounts them at the root.
	Prefix string

	// Optional request throttling, applied before authentication.
	RateLimit *ratelimit.Middleware
}

// SetupRoutes mounts the SCIM provisioning endpoints behind pre-shared-key
// authentication.
func SetupRoutes(router chi.Router, cfg Config) {
	mount := func(r chi.Router) {
		if cfg.RateLimit != nil {
			r.Use(cfg.RateLimit.Handler)
		}
		r.Use(scimapi.RequireAPIKey(cfg.AuthToken))
		cfg.ProvisioningHandle.RegisterRoutes(r)
	}
	if cfg.Prefix != "" {
		router.Route(cfg.Prefix, mount)
		return
	}
	router.Group(mount)
}
