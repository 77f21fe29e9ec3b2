package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	v *viper.Viper
}

// New creates a new configuration instance
func New() (*Config, error) {
	return NewFromFile("")
}

// NewFromFile creates a configuration instance, reading path when it is not empty
// and falling back to the usual search locations otherwise
func NewFromFile(path string) (*Config, error) {
	// Credentials usually live in .env next to the binary
	if err := loadDotEnv(); err != nil {
		return nil, err
	}

	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("/etc/catalog-auditor/")
		v.AddConfigPath("$HOME/.catalog-auditor")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	setDefaults(v)

	v.AutomaticEnv()
	v.SetEnvPrefix("CATALOG_AUDIT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found, using defaults
	}

	return &Config{v: v}, nil
}

// loadDotEnv loads the given env files, or .env when none is given. Missing
// files are ignored.
func loadDotEnv(filenames ...string) error {
	if err := godotenv.Load(filenames...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load .env file: %w", err)
	}
	return nil
}

// NewFromViper creates a new configuration instance from an existing Viper instance
func NewFromViper(v *viper.Viper) *Config {
	return &Config{v: v}
}

// NewEmptyViper creates a new Viper instance with defaults
func NewEmptyViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	return v
}

// setDefaults sets the default configuration values
func setDefaults(v *viper.Viper) {
	// Catalog API defaults
	v.SetDefault("api.base_url", "")
	v.SetDefault("api.read_key", "")
	v.SetDefault("api.read_secret", "")
	v.SetDefault("api.write_key", "")
	v.SetDefault("api.write_secret", "")
	v.SetDefault("api.timeout", "30s")
	v.SetDefault("api.per_page", 100)
	v.SetDefault("api.max_pages", 1000)
	v.SetDefault("api.requests_per_second", 0.0)

	// Retry defaults
	v.SetDefault("retry.max_attempts", 5)
	v.SetDefault("retry.initial_delay", "1s")
	v.SetDefault("retry.max_delay", "16s")
	v.SetDefault("retry.max_jitter", "1s")

	// Cache defaults
	v.SetDefault("cache.type", "file")
	v.SetDefault("cache.dir", "./data")
	v.SetDefault("cache.sqlite_path", "./data/catalog_cache.db")
	v.SetDefault("cache.mysql_dsn", "user:password@tcp(localhost:3306)/catalog_audit")
	v.SetDefault("cache.redis_addr", "localhost:6379")
	v.SetDefault("cache.redis_password", "")
	v.SetDefault("cache.redis_db", 0)
	v.SetDefault("cache.ttl_months", 1)

	// Mail defaults
	v.SetDefault("mail.enabled", false)
	v.SetDefault("mail.host", "localhost")
	v.SetDefault("mail.port", 587)
	v.SetDefault("mail.starttls", true)
	v.SetDefault("mail.username", "")
	v.SetDefault("mail.password", "")
	v.SetDefault("mail.from", "catalog-audit@localhost")
	v.SetDefault("mail.recipients", []string{})
	v.SetDefault("mail.subject_prefix", "[catalog audit] ")
	v.SetDefault("mail.max_messages", 40)
	v.SetDefault("mail.cooldown_days", 9)
	v.SetDefault("mail.throttle_file", "./data/email_throttle.csv")

	// Remediation defaults, everything read-only unless switched on
	v.SetDefault("remediation.price_rounding", false)
	v.SetDefault("remediation.discounts", false)
	v.SetDefault("remediation.sale_tags", false)
	v.SetDefault("remediation.status_transitions", false)

	// Check defaults
	v.SetDefault("checks.size_guide_meta_key", "size_guide")
	v.SetDefault("checks.min_image_width", 800)
	v.SetDefault("checks.sale_tag", "sale")
	v.SetDefault("checks.skip_categories", []string{})

	// Discount defaults
	v.SetDefault("discount.grace_months", 12)
	v.SetDefault("discount.min_percent", 5)
	v.SetDefault("discount.max_percent", 84)

	// Run defaults
	v.SetDefault("run.timeout", "0s")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
}

// GetString gets a string value from the configuration
func (c *Config) GetString(key string) string {
	return c.v.GetString(key)
}

// GetInt gets an integer value from the configuration
func (c *Config) GetInt(key string) int {
	return c.v.GetInt(key)
}

// GetFloat64 gets a float64 value from the configuration
func (c *Config) GetFloat64(key string) float64 {
	return c.v.GetFloat64(key)
}

// GetBool gets a boolean value from the configuration
func (c *Config) GetBool(key string) bool {
	return c.v.GetBool(key)
}

// GetStringSlice gets a string slice value from the configuration
func (c *Config) GetStringSlice(key string) []string {
	return c.v.GetStringSlice(key)
}

// GetDuration gets a duration value from the configuration
func (c *Config) GetDuration(key string) (time.Duration, error) {
	return time.ParseDuration(c.GetString(key))
}

// GetViper returns the underlying Viper instance
func (c *Config) GetViper() *viper.Viper {
	return c.v
}
