package config

import (
	"io/fs"
	"os"
	"time"
	_ "time/tzdata"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"rostercal/internal/store"
)

// EnvPrefix is prepended to every environment override.
const EnvPrefix = "ROSTERCAL_"

// FeedConfig describes a single ICS subscription. A feed is loaded as an
// uploaded file named after Name (or ID when Name is blank).
type FeedConfig struct {
	// ID is an internal identifier used for de-dup and logging.
	ID string `yaml:"id" json:"id" validate:"required"`
	// Name is the uploaded file name the feed appears under.
	Name string `yaml:"name" json:"name"`
	// URL is the ICS subscription endpoint.
	URL string `yaml:"url" json:"url" validate:"required,url"`
}

// FileName is the uploaded file name the feed is stored under.
func (f FeedConfig) FileName() string {
	if f.Name != "" {
		return f.Name + ".ics"
	}
	return f.ID + ".ics"
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the API. Auth is
// enabled when Username is set.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username" env:"USERNAME"`
	Password string `yaml:"password" json:"password" env:"PASSWORD" validate:"required_with=Username"`
}

func (b BasicAuthConfig) Enabled() bool {
	return b.Username != ""
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the API.
	Listen string `yaml:"listen" json:"listen" env:"LISTEN" validate:"required,hostname_port"`

	// Timezone is the IANA zone used to combine dates and times into instants.
	Timezone string `yaml:"timezone" json:"timezone" env:"TIMEZONE" validate:"required,timezone"`

	// StatePath is where uploaded files and manual events are persisted.
	StatePath string `yaml:"state_path" json:"state_path" env:"STATE_PATH" validate:"required"`

	// CacheDir holds the per-feed HTTP cache.
	CacheDir string `yaml:"cache_dir" json:"cache_dir" env:"CACHE_DIR" validate:"required"`

	LogLevel  string `yaml:"log_level" json:"log_level" env:"LOG_LEVEL" validate:"oneof=debug info error"`
	LogFormat string `yaml:"log_format" json:"log_format" env:"LOG_FORMAT" validate:"oneof=console json"`

	// RefreshCron is a standard 5-field cron schedule for feed refresh.
	RefreshCron string `yaml:"refresh" json:"refresh" env:"REFRESH" validate:"required"`

	// HorizonDays and BackfillDays bound ICS recurrence expansion around today.
	HorizonDays  int `yaml:"horizon_days" json:"horizon_days" env:"HORIZON_DAYS" validate:"min=1,max=366"`
	BackfillDays int `yaml:"backfill_days" json:"backfill_days" env:"BACKFILL_DAYS" validate:"min=0,max=366"`

	// Feeds are ICS subscriptions. Not overridable from the environment.
	Feeds []FeedConfig `yaml:"feeds" json:"feeds" env:"-" validate:"dive"`

	// BasicAuth, when enabled, protects every endpoint except /health.
	BasicAuth BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty" envPrefix:"BASIC_AUTH_"`

	// Metrics exposes /metrics.
	Metrics bool `yaml:"metrics" json:"metrics" env:"METRICS"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:       "127.0.0.1:8080",
		Timezone:     "UTC",
		StatePath:    "./data/state.json",
		CacheDir:     "./data/ics-cache",
		LogLevel:     "info",
		LogFormat:    "console",
		RefreshCron:  "*/30 * * * *",
		HorizonDays:  30,
		BackfillDays: 7,
		Feeds:        []FeedConfig{},
		Metrics:      true,
	}
}

// Normalize fills in missing/zero values so partially-filled configs still
// behave correctly.
func (c *Config) Normalize() {
	d := DefaultConfig()
	if c.Listen == "" {
		c.Listen = d.Listen
	}
	if c.Timezone == "" {
		c.Timezone = d.Timezone
	}
	if c.StatePath == "" {
		c.StatePath = d.StatePath
	}
	if c.CacheDir == "" {
		c.CacheDir = d.CacheDir
	}
	if c.LogLevel == "" {
		c.LogLevel = d.LogLevel
	}
	if c.LogFormat == "" {
		c.LogFormat = d.LogFormat
	}
	if c.RefreshCron == "" {
		c.RefreshCron = d.RefreshCron
	}
	if c.HorizonDays <= 0 {
		c.HorizonDays = d.HorizonDays
	}
	if c.BackfillDays < 0 {
		c.BackfillDays = 0
	}
	if c.Feeds == nil {
		c.Feeds = []FeedConfig{}
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints and that the refresh schedule parses.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(err, "invalid config")
	}
	if _, err := cron.ParseStandard(c.RefreshCron); err != nil {
		return errors.Wrapf(err, "invalid refresh schedule %q", c.RefreshCron)
	}
	seen := make(map[string]bool, len(c.Feeds))
	for _, f := range c.Feeds {
		if seen[f.ID] {
			return errors.Errorf("duplicate feed id %q", f.ID)
		}
		seen[f.ID] = true
	}
	return nil
}

// Location resolves Timezone. Validate guarantees it loads.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// ApplyEnv overrides fields from ROSTERCAL_* environment variables.
func (c *Config) ApplyEnv() error {
	if err := env.ParseWithOptions(c, env.Options{Prefix: EnvPrefix}); err != nil {
		return errors.Wrap(err, "parse environment")
	}
	return nil
}

// LoadEnvFiles loads whichever of files exist into the process environment.
// It returns how many were loaded.
func LoadEnvFiles(files ...string) (int, error) {
	existing := make([]string, 0, len(files))
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		}
	}
	if len(existing) == 0 {
		return 0, nil
	}
	return len(existing), godotenv.Load(existing...)
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist, a default config is written with 0600
//     perms and used.
//   - Otherwise the YAML is unmarshalled and normalized.
//   - Environment overrides are applied last, then the result is validated.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	var cfg *Config
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		// First run: create default config file.
		cfg = DefaultConfig()
		if err := Save(path, cfg); err != nil {
			return cfg, err
		}
	case err != nil:
		return nil, errors.Wrap(err, "read config")
	default:
		cfg = DefaultConfig()
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.Wrapf(err, "decode %s", path)
		}
		cfg.Normalize()
	}

	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes cfg as YAML atomically with 0600 permissions.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.Wrap(err, "encode config")
	}
	return store.WriteFileAtomic(path, data, ".rostercal-config-*.tmp")
}
