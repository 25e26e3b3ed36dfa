// Package container provides dependency injection and lifecycle management
// for the invoice service following Clean Architecture principles.
package container

import (
	"fmt"
	"time"

	"github.com/garyjia/invoxis/internal/application/engine"
	"github.com/garyjia/invoxis/internal/config"
	"github.com/garyjia/invoxis/internal/infrastructure/render"
	"github.com/garyjia/invoxis/pkg/utils"
)

// Config holds all configuration for the Container.
// It aggregates configurations for all subsystems.
type Config struct {
	// Database configuration
	Database DatabaseConfig

	// Invoice holds the defaults of new drafts
	Invoice engine.Defaults

	// Profile configuration
	Profile ProfileConfig

	// Export configuration
	Export ExportConfig

	// Worker configuration
	Worker WorkerConfig
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	// Path to SQLite database file, or ":memory:"
	Path string

	// MaxOpenConns is the maximum number of open connections
	MaxOpenConns int

	// MaxIdleConns is the maximum number of idle connections
	MaxIdleConns int

	// ConnMaxLifetime is the maximum connection lifetime
	ConnMaxLifetime time.Duration

	// MigrationsDir is the path to migration files. Empty uses the embedded set.
	MigrationsDir string
}

// ProfileConfig holds persistent profile settings.
type ProfileConfig struct {
	MaxRecentRecipients int
	DefaultProfile      string
}

// ExportConfig holds document rendering settings.
type ExportConfig struct {
	// OutputDir is the base directory for exported files
	OutputDir string

	// Scale is the capture scale factor
	Scale float64

	// AllowCrossOrigin lets the renderer fetch https logo URLs from public hosts
	AllowCrossOrigin bool

	// LogoFetchTimeout bounds each remote logo download
	LogoFetchTimeout time.Duration

	PageFormat string
	MarginMM   float64

	// Preview enables the PNG thumbnail of page 1
	Preview    bool
	PreviewDPI float64

	// Timeout bounds a single export
	Timeout time.Duration
}

// WorkerConfig holds background worker settings.
type WorkerConfig struct {
	// DraftIdleTTL is how long a draft may go untouched before eviction
	DraftIdleTTL time.Duration

	// DraftSweepInterval is how often idle drafts are looked for
	DraftSweepInterval time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path:            "data/invoxis.db",
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Invoice: engine.DefaultDefaults(),
		Profile: ProfileConfig{
			MaxRecentRecipients: 5,
			DefaultProfile:      "default",
		},
		Export: ExportConfig{
			OutputDir:        "exports",
			Scale:            2,
			LogoFetchTimeout: 10 * time.Second,
			PageFormat:       "A4",
			MarginMM:         10,
			Timeout:          30 * time.Second,
		},
		Worker: WorkerConfig{
			DraftIdleTTL:       2 * time.Hour,
			DraftSweepInterval: 5 * time.Minute,
		},
	}
}

// FromAppConfig maps the loaded application configuration onto the container configuration.
func FromAppConfig(cfg *config.Config) *Config {
	c := DefaultConfig()

	c.Database = DatabaseConfig{
		Path:            cfg.Database.Path,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		MigrationsDir:   cfg.Database.MigrationsDir,
	}

	c.Invoice = engine.Defaults{
		Country:  cfg.Invoice.DefaultCountry,
		Currency: cfg.Invoice.DefaultCurrency,
		TaxRate:  cfg.Invoice.DefaultTaxRate,
		DueDays:  cfg.Invoice.DueDays,
	}

	c.Profile = ProfileConfig{
		MaxRecentRecipients: cfg.Profile.MaxRecentRecipients,
		DefaultProfile:      cfg.Profile.DefaultProfile,
	}

	c.Export.OutputDir = cfg.Export.OutputDir
	c.Export.Scale = cfg.Export.Scale
	c.Export.AllowCrossOrigin = cfg.Export.AllowCrossOrigin
	c.Export.PageFormat = cfg.Export.PageFormat
	c.Export.MarginMM = cfg.Export.MarginMM
	c.Export.Preview = cfg.Export.Preview
	c.Export.PreviewDPI = cfg.Export.PreviewDPI
	c.Export.Timeout = cfg.Export.Timeout

	c.Worker = WorkerConfig{
		DraftIdleTTL:       cfg.Drafts.IdleTTL,
		DraftSweepInterval: cfg.Drafts.SweepInterval,
	}

	return c
}

// Validate checks that required configuration values are present.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}

	if c.Export.OutputDir == "" {
		return fmt.Errorf("export.output_dir is required")
	}
	if _, err := render.LookupPage(c.Export.PageFormat); err != nil {
		return fmt.Errorf("export.page_format: %w", err)
	}

	if err := utils.ValidatePercentage(c.Invoice.TaxRate); err != nil {
		return fmt.Errorf("invoice.default_tax_rate: %w", err)
	}

	if c.Profile.MaxRecentRecipients <= 0 {
		return fmt.Errorf("profile.max_recent_recipients must be positive")
	}

	if c.Worker.DraftIdleTTL <= 0 {
		return fmt.Errorf("worker.draft_idle_ttl must be positive")
	}

	return nil
}
