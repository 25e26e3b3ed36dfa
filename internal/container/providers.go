package container

import (
	"context"
	"fmt"

	"github.com/garyjia/invoxis/internal/application/dispatcher"
	"github.com/garyjia/invoxis/internal/application/port"
	"github.com/garyjia/invoxis/internal/application/service"
	"github.com/garyjia/invoxis/internal/infrastructure/persistence/repository"
	"github.com/garyjia/invoxis/internal/infrastructure/persistence/sqlite"
	"github.com/garyjia/invoxis/internal/infrastructure/render"
	"github.com/garyjia/invoxis/internal/infrastructure/storage"
	"github.com/garyjia/invoxis/internal/infrastructure/worker"
	"github.com/garyjia/invoxis/migrations"
	"github.com/garyjia/invoxis/pkg/database"
	"go.uber.org/zap"
)

// DatabaseBundle holds database-related components.
type DatabaseBundle struct {
	DB             *database.DB
	TransactionMgr *sqlite.DB
}

// RepositoryBundle groups all repositories for convenient access.
type RepositoryBundle struct {
	Profile port.ProfileStore
}

// RenderBundle holds the document renderers and the optional rasterizer.
type RenderBundle struct {
	Renderers  []port.DocumentRenderer
	Rasterizer port.Rasterizer
}

// ServiceBundle groups all application services.
type ServiceBundle struct {
	Profile service.ProfileService
	Draft   service.DraftService
	Export  service.ExportService
}

// ProvideDatabase opens the profile database and runs any pending migrations.
func ProvideDatabase(ctx context.Context, cfg *DatabaseConfig, logger *zap.Logger) (*DatabaseBundle, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	db, err := database.New(database.Config{
		Path:            cfg.Path,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	}, logger)
	if err != nil {
		return nil, err
	}

	migrator := database.NewMigrator(db, logger)
	if cfg.MigrationsDir != "" {
		err = migrator.RunMigrations(ctx, cfg.MigrationsDir)
	} else {
		err = migrator.RunMigrationsFS(ctx, migrations.FS)
	}
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &DatabaseBundle{
		DB:             db,
		TransactionMgr: sqlite.NewDB(db.DB, logger),
	}, nil
}

// ProvideRepositories creates all repositories from a database connection.
func ProvideRepositories(db *database.DB, logger *zap.Logger) (*RepositoryBundle, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	return &RepositoryBundle{
		Profile: repository.NewProfileRepository(db.DB, logger),
	}, nil
}

// ProvideStorage creates the file storage that keeps exported documents.
func ProvideStorage(cfg *ExportConfig, logger *zap.Logger) (port.FileStorage, error) {
	if cfg == nil {
		return nil, fmt.Errorf("export config is required")
	}
	if cfg.OutputDir == "" {
		return nil, fmt.Errorf("export output directory is required")
	}
	return storage.NewLocalFileStorage(cfg.OutputDir, logger), nil
}

// ProvideDispatcher creates the event dispatcher.
func ProvideDispatcher(logger *zap.Logger) (dispatcher.Dispatcher, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return dispatcher.NewDispatcher(
		dispatcher.WithLogger(&dispatcherLoggerAdapter{logger: logger}),
	), nil
}

// ProvideRenderers creates the PDF and spreadsheet renderers, plus the page
// rasterizer when previews are enabled.
func ProvideRenderers(cfg *ExportConfig, logger *zap.Logger) (*RenderBundle, error) {
	if cfg == nil {
		return nil, fmt.Errorf("export config is required")
	}

	page, err := render.LookupPage(cfg.PageFormat)
	if err != nil {
		return nil, err
	}

	var fetcher port.LogoFetcher
	if cfg.AllowCrossOrigin {
		fetcher = render.NewHTTPLogoFetcher(cfg.LogoFetchTimeout)
	}

	bundle := &RenderBundle{
		Renderers: []port.DocumentRenderer{
			render.NewPDFRenderer(render.PDFOptions{
				Page:             page,
				MarginMM:         cfg.MarginMM,
				AllowCrossOrigin: cfg.AllowCrossOrigin,
			}, fetcher, logger.Named("pdf")),
			render.NewSpreadsheetExporter(nil, logger.Named("xlsx")),
		},
	}
	if cfg.Preview {
		bundle.Rasterizer = render.NewFitzRasterizer(logger.Named("fitz"))
	}
	return bundle, nil
}

// ServiceDeps holds dependencies for creating services.
type ServiceDeps struct {
	Config     *Config
	Repos      *RepositoryBundle
	TxManager  port.TransactionManager
	Storage    port.FileStorage
	Dispatcher dispatcher.Dispatcher
	Render     *RenderBundle
	Logger     *zap.Logger
}

// ProvideServices creates all application services and registers their event handlers.
func ProvideServices(deps *ServiceDeps) (*ServiceBundle, error) {
	if deps == nil {
		return nil, fmt.Errorf("service dependencies are required")
	}
	if deps.Config == nil || deps.Repos == nil || deps.Render == nil {
		return nil, fmt.Errorf("config, repositories and renderers are required")
	}
	if deps.Dispatcher == nil {
		return nil, fmt.Errorf("dispatcher is required")
	}
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	svcLogger := &zapLoggerAdapter{logger: deps.Logger}
	cfg := deps.Config

	profiles := service.NewProfileService(service.ProfileConfig{
		MaxRecentRecipients: cfg.Profile.MaxRecentRecipients,
	}, deps.Repos.Profile, deps.TxManager, svcLogger)
	profiles.Subscribe(deps.Dispatcher)

	drafts := service.NewDraftService(service.DraftConfig{
		Defaults:       cfg.Invoice,
		DefaultProfile: cfg.Profile.DefaultProfile,
		EngineLogger:   deps.Logger.Named("engine"),
	}, profiles, deps.Dispatcher, deps.Storage, svcLogger)

	exports := service.NewExportService(service.ExportConfig{
		Scale:      cfg.Export.Scale,
		Preview:    cfg.Export.Preview,
		PreviewDPI: cfg.Export.PreviewDPI,
		Timeout:    cfg.Export.Timeout,
	}, drafts, deps.Render.Renderers, deps.Render.Rasterizer, deps.Storage, deps.Dispatcher, svcLogger)

	return &ServiceBundle{
		Profile: profiles,
		Draft:   drafts,
		Export:  exports,
	}, nil
}

// WorkerDeps holds dependencies for creating workers.
type WorkerDeps struct {
	Drafts    service.DraftService
	WorkerCfg *WorkerConfig
	Logger    *zap.Logger
}

// ProvideWorkers creates the worker manager with every background worker registered.
func ProvideWorkers(deps *WorkerDeps) (*worker.WorkerManager, error) {
	if deps == nil || deps.Drafts == nil || deps.WorkerCfg == nil {
		return nil, fmt.Errorf("drafts and worker config are required")
	}
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	manager := worker.NewWorkerManager(deps.Logger)
	manager.Register(worker.NewDraftJanitor(worker.DraftJanitorConfig{
		IdleTTL:       deps.WorkerCfg.DraftIdleTTL,
		SweepInterval: deps.WorkerCfg.DraftSweepInterval,
	}, deps.Drafts, deps.Logger.Named("janitor")))

	return manager, nil
}
