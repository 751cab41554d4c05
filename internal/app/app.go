package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/halverson/repackd/internal/catalogue"
	"github.com/halverson/repackd/internal/config"
	"github.com/halverson/repackd/internal/httpserver"
	"github.com/halverson/repackd/internal/httpserver/deps"
	"github.com/halverson/repackd/internal/index"
	"github.com/halverson/repackd/internal/logger"
	"github.com/halverson/repackd/internal/scheduler"
	"github.com/halverson/repackd/internal/sources"
	"github.com/halverson/repackd/internal/store/sqlite"
	"github.com/halverson/repackd/internal/version"
)

type App struct {
	cfg    *config.Config
	logger logger.Logger
	server *httpserver.Server
	store  *sqlite.Store
	index  *index.Index
	syncer *scheduler.Syncer
}

func New() (*App, error) {
	cfg := config.Load()

	var fileOpts *logger.FileOptions
	if cfg.LogFile != "" {
		fileOpts = &logger.FileOptions{
			Filename:   cfg.LogFile,
			MaxSizeMB:  cfg.LogMaxSizeMB,
			MaxBackups: cfg.LogMaxBackups,
			MaxAgeDays: cfg.LogMaxAgeDays,
			Compress:   cfg.LogCompress,
		}
	}
	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog, fileOpts)

	// Open storage early - fail fast if the database is unusable
	store, err := sqlite.New(cfg.DatabasePath, loggerClient)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	loggerClient.Infof("Database opened at %s", cfg.DatabasePath)

	// Initialize search index and its feeders
	idx := index.New()
	fetcher := sources.NewFetcher(cfg.FetchTimeout, cfg.FetchRate, cfg.FetchBurst, loggerClient)

	// Create manual sync trigger channel
	syncTrigger := make(chan struct{}, 1)

	syncer := scheduler.NewSyncer(
		store,
		fetcher,
		idx,
		loggerClient,
		cfg.SyncInterval,
		cfg.SyncWorkers,
		syncTrigger,
	)

	// Dependencies passed to routes (extend as needed).
	d := deps.Deps{
		Logger:      loggerClient,
		StartTime:   time.Now(),
		Version:     version.Version,
		Commit:      version.Commit,
		BuildDate:   version.BuildDate,
		GoVersion:   version.GoVersion,
		Store:       store,
		Index:       idx,
		Catalogue:   catalogue.New(idx, loggerClient),
		Syncer:      syncer,
		SyncTrigger: syncTrigger,
	}

	server := httpserver.New(cfg, loggerClient, d)

	return &App{
		cfg:    cfg,
		logger: loggerClient,
		server: server,
		store:  store,
		index:  idx,
		syncer: syncer,
	}, nil
}

func (a *App) Run() error {
	a.logger.Infof("🚀 Starting repackd v%s on %s", version.Version, a.cfg.ListenPort)
	a.logger.Infof("repackd %s (commit=%s, built=%s, go=%s)",
		version.Version, version.Commit, version.BuildDate, version.GoVersion)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Register seed sources before the first sync so their releases are
	// imported in the initial cycle.
	if a.cfg.SeedFile != "" {
		seed, err := sources.LoadSeedFile(a.cfg.SeedFile)
		if err != nil {
			return fmt.Errorf("failed to load seed file: %w", err)
		}
		if err := a.syncer.ImportSeed(ctx, seed); err != nil {
			return fmt.Errorf("failed to import seed sources: %w", err)
		}
	}

	// Start the syncer (warms the index from storage, then syncs periodically)
	if err := a.syncer.Start(ctx); err != nil {
		return fmt.Errorf("failed to start syncer: %w", err)
	}
	a.logger.Info("syncer started",
		logger.Duration("interval", a.cfg.SyncInterval),
		logger.Int("workers", a.cfg.SyncWorkers))

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case err := <-errCh:
		return err
	}

	// Stop the sync loop before closing storage
	a.syncer.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}

	if err := a.store.Close(); err != nil {
		a.logger.Warnf("failed to close database: %v", err)
	} else {
		a.logger.Info("✅ Database closed cleanly")
	}

	a.logger.Info("✅ repackd stopped cleanly")
	return nil
}
