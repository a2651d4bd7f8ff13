package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

type Config struct {
	Env               string        `mapstructure:"ENV"`
	LogLevel          string        `mapstructure:"LOG_LEVEL"`
	Port              string        `mapstructure:"PORT"`
	CORSOrigins       []string      `mapstructure:"CORS_ORIGINS"`
	UploadLimit       string        `mapstructure:"UPLOAD_LIMIT"`
	DatabaseURL       string        `mapstructure:"DATABASE_URL"`
	DBMaxConns        int32         `mapstructure:"DB_MAX_CONNS"`
	DBMinConns        int32         `mapstructure:"DB_MIN_CONNS"`
	MigrationsDir     string        `mapstructure:"MIGRATIONS_DIR"`
	UniProtBaseURL    string        `mapstructure:"UNIPROT_BASE_URL"`
	BLASTBaseURL      string        `mapstructure:"BLAST_BASE_URL"`
	BLASTPollInterval time.Duration `mapstructure:"BLAST_POLL_INTERVAL"`
	BLASTReportDir    string        `mapstructure:"BLAST_REPORT_DIR"`
}

var keys = []string{
	"ENV", "LOG_LEVEL", "PORT", "CORS_ORIGINS", "UPLOAD_LIMIT",
	"DATABASE_URL", "DB_MAX_CONNS", "DB_MIN_CONNS", "MIGRATIONS_DIR",
	"UNIPROT_BASE_URL", "BLAST_BASE_URL", "BLAST_POLL_INTERVAL", "BLAST_REPORT_DIR",
}

// Load reads a .env file when present, then the environment. It does not
// require a database; commands that need one call RequireDatabase.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("PORT", "8000")
	v.SetDefault("CORS_ORIGINS", "*")
	v.SetDefault("UPLOAD_LIMIT", "8M")
	v.SetDefault("DB_MAX_CONNS", 10)
	v.SetDefault("DB_MIN_CONNS", 2)
	v.SetDefault("MIGRATIONS_DIR", "./migrations")
	v.SetDefault("UNIPROT_BASE_URL", "https://www.uniprot.org/uniprot/")
	v.SetDefault("BLAST_BASE_URL", "https://blast.ncbi.nlm.nih.gov/Blast.cgi")
	v.SetDefault("BLAST_POLL_INTERVAL", "60s")
	v.SetDefault("BLAST_REPORT_DIR", "")

	// Unmarshal only sees keys viper knows about.
	for _, k := range keys {
		v.BindEnv(k)
	}

	// A missing .env is fine.
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if len(cfg.CORSOrigins) == 1 && strings.Contains(cfg.CORSOrigins[0], ",") {
		cfg.CORSOrigins = strings.Split(cfg.CORSOrigins[0], ",")
	}
	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// RequireDatabase reports a missing DATABASE_URL.
func (c *Config) RequireDatabase() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	return nil
}

// Level returns the configured log level, defaulting to info.
func (c *Config) Level() zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(c.LogLevel))
	if err != nil || c.LogLevel == "" {
		return zerolog.InfoLevel
	}
	return lvl
}

// Validate checks the service endpoints, intervals and pool sizes.
func (c *Config) Validate() error {
	if _, err := zerolog.ParseLevel(strings.ToLower(c.LogLevel)); err != nil {
		return fmt.Errorf("LOG_LEVEL %q is not a valid level", c.LogLevel)
	}
	for name, raw := range map[string]string{
		"UNIPROT_BASE_URL": c.UniProtBaseURL,
		"BLAST_BASE_URL":   c.BLASTBaseURL,
	} {
		if err := checkURL(raw); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	if c.BLASTPollInterval <= 0 {
		return fmt.Errorf("BLAST_POLL_INTERVAL must be positive, got %s", c.BLASTPollInterval)
	}
	if c.DBMaxConns < 1 {
		return fmt.Errorf("DB_MAX_CONNS must be at least 1, got %d", c.DBMaxConns)
	}
	if c.DBMinConns < 0 || c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("DB_MIN_CONNS must be between 0 and DB_MAX_CONNS, got %d", c.DBMinConns)
	}
	return nil
}

func checkURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("missing host in %q", raw)
	}
	return nil
}
