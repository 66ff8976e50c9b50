package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/joho/godotenv"
	"github.com/samvad-hq/babel-client/internal/storage"
	"github.com/spf13/viper"
)

// Storage backends accepted by storage_type.
const (
	StorageBBolt = storage.TypeBBolt
	StorageNone  = storage.TypeNone
)

// Config holds the application configuration loaded from files and environment variables.
type Config struct {
	AppName  string `mapstructure:"app_name"`
	Env      string `mapstructure:"app_env"`
	LogLevel string `mapstructure:"log_level"`

	BabelHost          string        `mapstructure:"babel_host"`
	BabelPort          string        `mapstructure:"babel_port"`
	BabelBaseURL       string        `mapstructure:"babel_base_url"`
	PersonaToken       string        `mapstructure:"persona_token"`
	HTTPTimeoutSeconds int64         `mapstructure:"http_timeout_seconds"`
	HTTPTimeout        time.Duration `mapstructure:"-"`

	TargetsFile         string        `mapstructure:"targets_file"`
	PublishersFile      string        `mapstructure:"publishers_file"`
	PollIntervalSeconds int64         `mapstructure:"poll_interval"`
	PollInterval        time.Duration `mapstructure:"-"`
	MetricsAddr         string        `mapstructure:"metrics_addr"`

	StorageType            string        `mapstructure:"storage_type"`
	BBoltPath              string        `mapstructure:"bbolt_path"`
	StorageTTLSeconds      int64         `mapstructure:"storage_ttl_seconds"`
	StorageCleanupSeconds  int64         `mapstructure:"storage_cleanup_interval_seconds"`
	StorageTTL             time.Duration `mapstructure:"-"`
	StorageCleanupInterval time.Duration `mapstructure:"-"`
}

// Load reads configuration from environment variables and config files.
func Load() (*Config, error) {
	_ = godotenv.Load("configs/.env")

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.finalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app_name", "babel-relay")
	v.SetDefault("app_env", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("babel_host", "")
	v.SetDefault("babel_port", "")
	v.SetDefault("babel_base_url", "")
	v.SetDefault("persona_token", "")
	v.SetDefault("http_timeout_seconds", 30)
	v.SetDefault("targets_file", "./configs/targets.yaml")
	v.SetDefault("publishers_file", "./configs/publishers.yaml")
	v.SetDefault("poll_interval", 60) // seconds
	v.SetDefault("metrics_addr", "")
	v.SetDefault("storage_type", StorageBBolt)
	v.SetDefault("bbolt_path", "./data/relay.db")
	v.SetDefault("storage_ttl_seconds", int64((7*24*time.Hour)/time.Second))
	v.SetDefault("storage_cleanup_interval_seconds", int64((12*time.Hour)/time.Second))
}

// finalize trims string settings, validates them and derives durations.
func (c *Config) finalize() error {
	c.BabelHost = strings.TrimSpace(c.BabelHost)
	c.BabelPort = strings.TrimSpace(c.BabelPort)
	c.BabelBaseURL = strings.TrimSpace(c.BabelBaseURL)
	c.StorageType = strings.ToLower(strings.TrimSpace(c.StorageType))

	if err := c.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	c.HTTPTimeout = time.Duration(c.HTTPTimeoutSeconds) * time.Second
	c.PollInterval = time.Duration(c.PollIntervalSeconds) * time.Second
	c.StorageTTL = time.Duration(c.StorageTTLSeconds) * time.Second
	c.StorageCleanupInterval = time.Duration(c.StorageCleanupSeconds) * time.Second
	return nil
}

// Validate checks field-level rules.
func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.BabelHost, validation.When(c.BabelBaseURL == "", validation.Required.Error("is required unless babel_base_url is set"))),
		validation.Field(&c.BabelPort, validation.When(c.BabelBaseURL == "", validation.Required.Error("is required unless babel_base_url is set"))),
		validation.Field(&c.BabelBaseURL, validation.By(absoluteHTTPURL)),
		validation.Field(&c.HTTPTimeoutSeconds, validation.Required, validation.Min(int64(1))),
		validation.Field(&c.PollIntervalSeconds, validation.Required, validation.Min(int64(1))),
		validation.Field(&c.StorageType, validation.In(StorageBBolt, StorageNone, "", "disabled")),
		validation.Field(&c.BBoltPath, validation.When(c.StorageType == StorageBBolt, validation.Required)),
		validation.Field(&c.StorageTTLSeconds, validation.Required, validation.Min(int64(1))),
		validation.Field(&c.StorageCleanupSeconds, validation.Required, validation.Min(int64(1))),
	)
}

func absoluteHTTPURL(value interface{}) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	u, err := url.Parse(s)
	if err != nil {
		return fmt.Errorf("must be a valid URL: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("must be an absolute http or https URL")
	}
	return nil
}
