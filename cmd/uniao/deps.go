package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/ersonp/uniao/internal/application/handlers"
	"github.com/ersonp/uniao/internal/domain/entities"
	"github.com/ersonp/uniao/internal/domain/ports"
	"github.com/ersonp/uniao/internal/domain/services"
	"github.com/ersonp/uniao/internal/infrastructure/config"
	"github.com/ersonp/uniao/internal/infrastructure/graphdb/neo4j"
	"github.com/ersonp/uniao/internal/infrastructure/logging"
	"github.com/ersonp/uniao/internal/infrastructure/metrics"
	"github.com/ersonp/uniao/internal/infrastructure/relationaldb/sqlite"
)

// Deps holds high-level dependencies for commands.
// Only handlers are exposed - services and repositories are internal.
type Deps struct {
	Config       *config.Config
	Session      entities.Session
	Members      *handlers.MemberHandler
	Assets       *handlers.AssetHandler
	Acquisitions *handlers.AcquisitionHandler
	Releases     *handlers.ReleaseHandler
	Ledger       *handlers.LedgerHandler
	Graph        *handlers.GraphHandler
	Settings     *handlers.SettingsHandler
}

// internalDeps holds all dependencies including low-level components.
// Used internally by helper functions.
type internalDeps struct {
	Deps
	store *sqlite.Repository
	sink  *neo4j.Sink
}

// withDeps loads config, opens the selected union and builds dependencies,
// then calls the provided function. It handles cleanup automatically.
func withDeps(ctx context.Context, fn func(*Deps) error) error {
	return withInternalDeps(ctx, func(d *internalDeps) error {
		return fn(&d.Deps)
	})
}

// withInternalDeps provides access to all dependencies including low-level components.
// Used by commands that need direct repository access.
func withInternalDeps(ctx context.Context, fn func(*internalDeps) error) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}

	cfg, err := config.Load(cwd)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	if globalUnion == "" {
		return errors.New("union is required (use --union flag or " + EnvUnion + ")")
	}
	profile := config.SanitizeProfileName(globalUnion)

	session, err := handlers.NewUnionsHandler(cwd, openSQLiteStore, logger).OpenSession(profile)
	if err != nil {
		return err
	}

	store, err := sqlite.NewRepository(cfg.SQLitePathForUnion(cwd, profile))
	if err != nil {
		return fmt.Errorf("creating sqlite repository: %w", err)
	}
	defer store.Close()

	if err := store.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("ensuring sqlite schema: %w", err)
	}

	var sink *neo4j.Sink
	if cfg.Neo4j.Enabled {
		client, err := neo4j.NewClient(ctx, cfg.Neo4j)
		if err != nil {
			return fmt.Errorf("connecting to neo4j: %w", err)
		}
		sink = neo4j.NewSink(client, logger)
		defer sink.Close(context.WithoutCancel(ctx))
	}

	workflowMetrics := metrics.NewWorkflowMetrics()
	if path := cfg.Metrics.TextfilePath; path != "" {
		defer func() {
			if werr := workflowMetrics.WriteToTextfile(path); werr != nil {
				logger.Warn("metrics textfile not written", zap.String("path", path), zap.Error(werr))
			}
		}()
	}

	var (
		graphSink ports.GraphSink
		counter   handlers.ProjectionCounter
	)
	if sink != nil {
		graphSink = sink
		counter = sink
	}

	registry := services.NewRegistryService(store, logger)
	releaseService := services.NewReleaseService(store, logger)
	graphService := services.NewGraphService(graphSink, logger)
	importService := services.NewImportService(registry, logger)

	deps := &internalDeps{
		Deps: Deps{
			Config:       cfg,
			Session:      session,
			Members:      handlers.NewMemberHandler(registry),
			Assets:       handlers.NewAssetHandler(registry),
			Acquisitions: handlers.NewAcquisitionHandler(registry, workflowMetrics, logger),
			Releases:     handlers.NewReleaseHandler(releaseService, registry),
			Ledger:       handlers.NewLedgerHandler(registry, importService),
			Graph:        handlers.NewGraphHandler(graphService, registry, counter),
			Settings:     handlers.NewSettingsHandler(registry),
		},
		store: store,
		sink:  sink,
	}

	return fn(deps)
}

// withUnionsHandler builds the profile handler, which works before any
// profile exists.
func withUnionsHandler(fn func(*handlers.UnionsHandler) error) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}

	logCfg := config.Default().Log
	if config.Exists(cwd) {
		cfg, err := config.Load(cwd)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		logCfg = cfg.Log
	}

	logger, err := logging.New(logCfg)
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	return fn(handlers.NewUnionsHandler(cwd, openSQLiteStore, logger))
}

// withAuditLog provides direct access to the audit log of the selected union.
func withAuditLog(ctx context.Context, fn func(*sqlite.Repository, entities.Session) error) error {
	return withInternalDeps(ctx, func(d *internalDeps) error {
		return fn(d.store, d.Session)
	})
}

func openSQLiteStore(path string) (ports.Store, error) {
	repo, err := sqlite.NewRepository(path)
	if err != nil {
		return nil, err
	}
	return repo, nil
}
