package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/garyjia/invoxis/pkg/utils"
	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

// EnvConfigPath overrides the config file location
const EnvConfigPath = "INVOXIS_CONFIG"

// DefaultConfigPath is used when EnvConfigPath is unset
const DefaultConfigPath = "configs/config.yaml"

// Config holds all application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Logger   LoggerConfig   `mapstructure:"logger"`
	Invoice  InvoiceConfig  `mapstructure:"invoice"`
	Profile  ProfileConfig  `mapstructure:"profile"`
	Export   ExportConfig   `mapstructure:"export"`
	Drafts   DraftsConfig   `mapstructure:"drafts"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path            string        `mapstructure:"path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	MigrationsDir   string        `mapstructure:"migrations_dir"` // empty uses the embedded migrations
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"`
}

// InvoiceConfig holds the defaults of new drafts
type InvoiceConfig struct {
	DefaultCountry  string  `mapstructure:"default_country"`
	DefaultCurrency string  `mapstructure:"default_currency"`
	DefaultTaxRate  float64 `mapstructure:"default_tax_rate"`
	DueDays         int     `mapstructure:"due_days"`
}

// ProfileConfig holds persistent profile settings
type ProfileConfig struct {
	MaxRecentRecipients int    `mapstructure:"max_recent_recipients"`
	DefaultProfile      string `mapstructure:"default_profile"`
}

// ExportConfig holds document rendering settings
type ExportConfig struct {
	OutputDir        string        `mapstructure:"output_dir"`
	Scale            float64       `mapstructure:"scale"`
	AllowCrossOrigin bool          `mapstructure:"allow_cross_origin"`
	PageFormat       string        `mapstructure:"page_format"`
	MarginMM         float64       `mapstructure:"margin_mm"`
	Preview          bool          `mapstructure:"preview"`
	PreviewDPI       float64       `mapstructure:"preview_dpi"`
	Timeout          time.Duration `mapstructure:"timeout"`
}

// DraftsConfig holds in-memory draft hosting settings
type DraftsConfig struct {
	IdleTTL       time.Duration `mapstructure:"idle_ttl"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

// ResolvePath returns the config path from the environment or the default
func ResolvePath() string {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p
	}
	return DefaultConfigPath
}

// Load loads configuration from file and environment variables.
// A .env file in the working directory is applied first when present.
// A missing config file is tolerated; defaults and the environment still apply.
func Load(configPath string) (*Config, error) {
	if err := gotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	bindEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 60*time.Second)

	// Database defaults
	v.SetDefault("database.path", "data/invoxis.db")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)
	v.SetDefault("database.migrations_dir", "")

	// Logger defaults
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.output_path", "stdout")
	v.SetDefault("logger.format", "json")

	// Invoice defaults
	v.SetDefault("invoice.default_country", "India")
	v.SetDefault("invoice.default_currency", "INR")
	v.SetDefault("invoice.default_tax_rate", 18.0)
	v.SetDefault("invoice.due_days", 30)

	// Profile defaults
	v.SetDefault("profile.max_recent_recipients", 5)
	v.SetDefault("profile.default_profile", "default")

	// Export defaults
	v.SetDefault("export.output_dir", "exports")
	v.SetDefault("export.scale", 2.0)
	v.SetDefault("export.allow_cross_origin", false)
	v.SetDefault("export.page_format", "A4")
	v.SetDefault("export.margin_mm", 10.0)
	v.SetDefault("export.preview", false)
	v.SetDefault("export.preview_dpi", 0.0)
	v.SetDefault("export.timeout", 30*time.Second)

	// Draft defaults
	v.SetDefault("drafts.idle_ttl", 2*time.Hour)
	v.SetDefault("drafts.sweep_interval", 5*time.Minute)
}

// bindEnvVars binds the explicitly supported environment variables
func bindEnvVars(v *viper.Viper) {
	_ = v.BindEnv("server.port", "INVOXIS_PORT")
	_ = v.BindEnv("database.path", "INVOXIS_DB_PATH")
	_ = v.BindEnv("logger.level", "INVOXIS_LOG_LEVEL")
	_ = v.BindEnv("export.output_dir", "INVOXIS_EXPORT_DIR")
	_ = v.BindEnv("profile.default_profile", "INVOXIS_DEFAULT_PROFILE")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}

	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}

	if err := utils.ValidatePercentage(c.Invoice.DefaultTaxRate); err != nil {
		return fmt.Errorf("invoice.default_tax_rate: %w", err)
	}
	if c.Invoice.DueDays < 0 {
		return fmt.Errorf("invoice.due_days cannot be negative")
	}

	if c.Profile.MaxRecentRecipients <= 0 {
		return fmt.Errorf("profile.max_recent_recipients must be positive")
	}

	if c.Export.OutputDir == "" {
		return fmt.Errorf("export.output_dir is required")
	}
	if c.Export.Scale <= 0 {
		return fmt.Errorf("export.scale must be positive, got %v", c.Export.Scale)
	}
	switch c.Export.PageFormat {
	case "A4", "a4", "Letter", "letter":
	default:
		return fmt.Errorf("export.page_format must be A4 or Letter, got %q", c.Export.PageFormat)
	}

	if c.Drafts.IdleTTL <= 0 {
		return fmt.Errorf("drafts.idle_ttl must be positive")
	}

	return nil
}
