package config

import (
	"fmt"
	"time"
)

// APIConfig represents the configuration for the catalog REST API
type APIConfig struct {
	BaseURL           string
	ReadKey           string
	ReadSecret        string
	WriteKey          string
	WriteSecret       string
	Timeout           time.Duration
	PerPage           int
	MaxPages          int
	RequestsPerSecond float64
}

// Credentials returns the key pair to use. The write pair has a broader scope and
// is only selected when a remediation can issue writes.
func (a APIConfig) Credentials(write bool) (string, string) {
	if write {
		return a.WriteKey, a.WriteSecret
	}
	return a.ReadKey, a.ReadSecret
}

// RetryConfig represents the backoff policy of the resilient fetcher
type RetryConfig struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	MaxJitter    time.Duration
}

// CacheConfig represents the configuration for the lookup caches
type CacheConfig struct {
	Type          string
	Dir           string
	SQLitePath    string
	MySQLDSN      string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	TTLMonths     int
}

// MailConfig represents the configuration for digest emails
type MailConfig struct {
	Enabled       bool
	Host          string
	Port          int
	StartTLS      bool
	Username      string
	Password      string
	From          string
	Recipients    []string
	SubjectPrefix string
	MaxMessages   int
	CooldownDays  int
	ThrottleFile  string
}

// RemediationConfig enumerates which corrective writes are enabled
type RemediationConfig struct {
	PriceRounding     bool
	Discounts         bool
	SaleTags          bool
	StatusTransitions bool
}

// AnyEnabled reports whether at least one remediation may write to the catalog
func (r RemediationConfig) AnyEnabled() bool {
	return r.PriceRounding || r.Discounts || r.SaleTags || r.StatusTransitions
}

// ChecksConfig holds tunables of the shipped checks
type ChecksConfig struct {
	SizeGuideMetaKey string
	MinImageWidth    int
	SaleTag          string
	SkipCategories   []string
}

// DiscountConfig represents the discount scheduling policy
type DiscountConfig struct {
	GraceMonths int
	MinPercent  int
	MaxPercent  int
}

// RunConfig holds settings for a whole audit run
type RunConfig struct {
	Timeout time.Duration
}

// GetAPI returns the catalog API configuration
func (c *Config) GetAPI() (APIConfig, error) {
	timeout, err := c.GetDuration("api.timeout")
	if err != nil {
		return APIConfig{}, fmt.Errorf("invalid api.timeout: %w", err)
	}
	return APIConfig{
		BaseURL:           c.GetString("api.base_url"),
		ReadKey:           c.GetString("api.read_key"),
		ReadSecret:        c.GetString("api.read_secret"),
		WriteKey:          c.GetString("api.write_key"),
		WriteSecret:       c.GetString("api.write_secret"),
		Timeout:           timeout,
		PerPage:           c.GetInt("api.per_page"),
		MaxPages:          c.GetInt("api.max_pages"),
		RequestsPerSecond: c.GetFloat64("api.requests_per_second"),
	}, nil
}

// GetRetry returns the retry configuration
func (c *Config) GetRetry() (RetryConfig, error) {
	initial, err := c.GetDuration("retry.initial_delay")
	if err != nil {
		return RetryConfig{}, fmt.Errorf("invalid retry.initial_delay: %w", err)
	}
	maxDelay, err := c.GetDuration("retry.max_delay")
	if err != nil {
		return RetryConfig{}, fmt.Errorf("invalid retry.max_delay: %w", err)
	}
	jitter, err := c.GetDuration("retry.max_jitter")
	if err != nil {
		return RetryConfig{}, fmt.Errorf("invalid retry.max_jitter: %w", err)
	}
	return RetryConfig{
		MaxAttempts:  c.GetInt("retry.max_attempts"),
		InitialDelay: initial,
		MaxDelay:     maxDelay,
		MaxJitter:    jitter,
	}, nil
}

// GetCache returns the cache configuration
func (c *Config) GetCache() CacheConfig {
	return CacheConfig{
		Type:          c.GetString("cache.type"),
		Dir:           c.GetString("cache.dir"),
		SQLitePath:    c.GetString("cache.sqlite_path"),
		MySQLDSN:      c.GetString("cache.mysql_dsn"),
		RedisAddr:     c.GetString("cache.redis_addr"),
		RedisPassword: c.GetString("cache.redis_password"),
		RedisDB:       c.GetInt("cache.redis_db"),
		TTLMonths:     c.GetInt("cache.ttl_months"),
	}
}

// GetMail returns the mail configuration
func (c *Config) GetMail() MailConfig {
	return MailConfig{
		Enabled:       c.GetBool("mail.enabled"),
		Host:          c.GetString("mail.host"),
		Port:          c.GetInt("mail.port"),
		StartTLS:      c.GetBool("mail.starttls"),
		Username:      c.GetString("mail.username"),
		Password:      c.GetString("mail.password"),
		From:          c.GetString("mail.from"),
		Recipients:    c.GetStringSlice("mail.recipients"),
		SubjectPrefix: c.GetString("mail.subject_prefix"),
		MaxMessages:   c.GetInt("mail.max_messages"),
		CooldownDays:  c.GetInt("mail.cooldown_days"),
		ThrottleFile:  c.GetString("mail.throttle_file"),
	}
}

// GetRemediation returns which remediations are enabled
func (c *Config) GetRemediation() RemediationConfig {
	return RemediationConfig{
		PriceRounding:     c.GetBool("remediation.price_rounding"),
		Discounts:         c.GetBool("remediation.discounts"),
		SaleTags:          c.GetBool("remediation.sale_tags"),
		StatusTransitions: c.GetBool("remediation.status_transitions"),
	}
}

// GetChecks returns the check tunables
func (c *Config) GetChecks() ChecksConfig {
	return ChecksConfig{
		SizeGuideMetaKey: c.GetString("checks.size_guide_meta_key"),
		MinImageWidth:    c.GetInt("checks.min_image_width"),
		SaleTag:          c.GetString("checks.sale_tag"),
		SkipCategories:   c.GetStringSlice("checks.skip_categories"),
	}
}

// GetDiscount returns the discount policy
func (c *Config) GetDiscount() DiscountConfig {
	return DiscountConfig{
		GraceMonths: c.GetInt("discount.grace_months"),
		MinPercent:  c.GetInt("discount.min_percent"),
		MaxPercent:  c.GetInt("discount.max_percent"),
	}
}

// GetRun returns the run configuration
func (c *Config) GetRun() (RunConfig, error) {
	timeout, err := c.GetDuration("run.timeout")
	if err != nil {
		return RunConfig{}, fmt.Errorf("invalid run.timeout: %w", err)
	}
	return RunConfig{Timeout: timeout}, nil
}
