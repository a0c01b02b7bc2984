package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"github.com/SpruceVedant/SCIM-Provisioning/pkg/config"
	"github.com/SpruceVedant/SCIM-Provisioning/pkg/directory"
	"github.com/SpruceVedant/SCIM-Provisioning/pkg/mapping"
	"github.com/SpruceVedant/SCIM-Provisioning/pkg/netsuite"
	"github.com/SpruceVedant/SCIM-Provisioning/pkg/sync"
)

type Config struct {
	Erp       config.ErpConfig
	Directory config.DirectoryConfig
	Sync      config.SyncConfig
	Mapping   config.MappingConfig
}

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file found (using environment variables)")
	}

	cfg := Config{}
	cleanenv.ReadEnv(&cfg)

	if err := cfg.Erp.Validate(); err != nil {
		slog.Error("Invalid configuration", "error", err)
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

	dir := directory.NewClient(cfg.Directory.ClientConfig())
	executor := sync.NewExecutor(erp)
	service := sync.NewService(dir, erp, mapper, executor, sync.WithWorkers(cfg.Sync.Workers))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// One-shot mode when no schedule is configured.
	if cfg.Sync.Schedule == "" {
		if err := runOnce(ctx, service); err != nil {
			os.Exit(1)
		}
		return
	}

	c := cron.New()
	if _, err := c.AddFunc(cfg.Sync.Schedule, func() {
		if err := runOnce(ctx, service); err != nil {
			slog.Error("Scheduled sync run failed", "error", err)
		}
	}); err != nil {
		slog.Error("Invalid sync schedule", "schedule", cfg.Sync.Schedule, "error", err)
		os.Exit(1)
	}

	c.Start()
	slog.Info("Batch synchronizer started", "schedule", cfg.Sync.Schedule)

	<-ctx.Done()
	slog.Info("Shutting down")
	<-c.Stop().Done()
}

func runOnce(ctx context.Context, service *sync.Service) error {
	report, err := service.Run(ctx)
	if err != nil {
		slog.Error("Sync run failed", "error", err)
		return err
	}

	slog.Info("Sync run finished",
		"run_id", report.RunID,
		"total", report.Total,
		"created", report.Created,
		"updated", report.Updated,
		"skipped", report.Skipped,
		"failed", report.Failed,
		"duration", report.FinishedAt.Sub(report.StartedAt))

	for _, subErr := range report.Errors {
		slog.Warn("Subject failed", "email", subErr.Email, "error", subErr.Error)
	}
	return nil
}
