package main

import (
	"log/slog"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
	"github.com/tendant/chi-demo/app"

	"github.com/SpruceVedant/SCIM-Provisioning/pkg/config"
	"github.com/SpruceVedant/SCIM-Provisioning/pkg/mapping"
	"github.com/SpruceVedant/SCIM-Provisioning/pkg/netsuite"
	"github.com/SpruceVedant/SCIM-Provisioning/pkg/ratelimit"
	"github.com/SpruceVedant/SCIM-Provisioning/pkg/router"
	scimapi "github.com/SpruceVedant/SCIM-Provisioning/pkg/scim/api"
	"github.com/SpruceVedant/SCIM-Provisioning/pkg/sync"
)

type Config struct {
	AppConfig app.AppConfig
	Erp       config.ErpConfig
	Scim      config.ScimConfig
	Mapping   config.MappingConfig
	RateLimit config.RateLimitConfig
}

func main() {
	// Load .env file if present; real deployments set environment variables.
	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file found (using environment variables)")
	}

	cfg := Config{}
	cleanenv.ReadEnv(&cfg)

	if err := cfg.Erp.Validate(); err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}
	if cfg.Scim.AuthToken == "" {
		slog.Error("SCIM_AUTH_TOKEN is required")
		os.Exit(1)
	}

	tables, err := mapping.LoadTables(cfg.Mapping.TablesPath)
	if err != nil {
		slog.Error("Failed to load mapping tables", "path", cfg.Mapping.TablesPath, "error", err)
		os.Exit(1)
	}
	mapper := mapping.NewMapper(tables)

	var clientOpts []netsuite.ClientOption
	if cfg.Erp.BaseURL != "" {
		clientOpts = append(clientOpts, netsuite.WithBaseURL(cfg.Erp.BaseURL))
	}
	if cfg.Erp.PageSize > 0 {
		clientOpts = append(clientOpts, netsuite.WithPageSize(cfg.Erp.PageSize))
	}
	erp := netsuite.NewClient(cfg.Erp.Credentials(), clientOpts...)
	executor := sync.NewExecutor(erp)

	server := app.DefaultApp()
	app.RoutesHealthz(server.R)
	app.RoutesHealthzReady(server.R)

	var limiter *ratelimit.Middleware
	if cfg.RateLimit.Enabled {
		rlCfg := ratelimit.DefaultConfig()
		rlCfg.GlobalCapacity = int(cfg.RateLimit.GlobalPerMinute)
		rlCfg.GlobalRefillRate = cfg.RateLimit.GlobalPerMinute / 60.0
		rlCfg.PerIPCapacity = int(cfg.RateLimit.PerIPPerMinute)
		rlCfg.PerIPRefillRate = cfg.RateLimit.PerIPPerMinute / 60.0
		limiter = ratelimit.NewMiddleware(rlCfg)
	}

	router.SetupRoutes(server.R, router.Config{
		ProvisioningHandle: scimapi.NewProvisioningHandler(mapper, executor),
		AuthToken:          cfg.Scim.AuthToken,
		Prefix:             cfg.Scim.PathPrefix,
		RateLimit:          limiter,
	})

	server.Run()
}
