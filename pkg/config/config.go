package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the application configuration.
type Config struct {
	ServerPort string `mapstructure:"SERVER_PORT"`
	LogLevel   string `mapstructure:"LOG_LEVEL"`

	PostgresHost     string `mapstructure:"POSTGRES_HOST"`
	PostgresPort     string `mapstructure:"POSTGRES_PORT"`
	PostgresUser     string `mapstructure:"POSTGRES_USER"`
	PostgresPassword string `mapstructure:"POSTGRES_PASSWORD"`
	PostgresDB       string `mapstructure:"POSTGRES_DB"`

	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`

	// Batch runner
	BatchSize      int           `mapstructure:"BATCH_SIZE"`
	SitesPerSecond float64       `mapstructure:"SITES_PER_SECOND"`
	ParallelStages bool          `mapstructure:"PARALLEL_STAGES"`
	AutoRunOnStart bool          `mapstructure:"AUTO_RUN_ON_START"`
	RunLockTTL     time.Duration `mapstructure:"RUN_LOCK_TTL"`
	EventHistory   int64         `mapstructure:"EVENT_HISTORY"`

	// Check stages
	UserAgent      string        `mapstructure:"USER_AGENT"`
	AcceptLanguage string        `mapstructure:"ACCEPT_LANGUAGE"`
	TechTimeout    time.Duration `mapstructure:"TECH_TIMEOUT"`
	HeaderTimeout  time.Duration `mapstructure:"HEADER_TIMEOUT"`
	TLSTimeout     time.Duration `mapstructure:"TLS_TIMEOUT"`
	DNSTimeout     time.Duration `mapstructure:"DNS_TIMEOUT"`
	DNSServers     []string      `mapstructure:"DNS_SERVERS"`
	RenderTimeout  time.Duration `mapstructure:"RENDER_TIMEOUT"`
}

const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/119 Safari/537.36"

// Load reads configuration from an optional .env file and environment variables.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	// A missing .env is fine, production sets everything through the environment.
	_ = v.ReadInConfig()

	setDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("POSTGRES_HOST", "localhost")
	v.SetDefault("POSTGRES_PORT", "5432")
	v.SetDefault("POSTGRES_USER", "user")
	v.SetDefault("POSTGRES_PASSWORD", "password")
	v.SetDefault("POSTGRES_DB", "site_auditor")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("BATCH_SIZE", 50)
	v.SetDefault("SITES_PER_SECOND", 0)
	v.SetDefault("PARALLEL_STAGES", false)
	v.SetDefault("AUTO_RUN_ON_START", true)
	v.SetDefault("RUN_LOCK_TTL", 2*time.Minute)
	v.SetDefault("EVENT_HISTORY", 500)

	v.SetDefault("USER_AGENT", DefaultUserAgent)
	v.SetDefault("ACCEPT_LANGUAGE", "es-CO,es;q=0.9,en;q=0.8")
	v.SetDefault("TECH_TIMEOUT", 100*time.Second)
	v.SetDefault("HEADER_TIMEOUT", 10*time.Second)
	v.SetDefault("TLS_TIMEOUT", 10*time.Second)
	v.SetDefault("DNS_TIMEOUT", 5*time.Second)
	v.SetDefault("DNS_SERVERS", []string{})
	v.SetDefault("RENDER_TIMEOUT", 60*time.Second)
}

// Validate rejects values the runner cannot work with.
func (c *Config) Validate() error {
	if c.BatchSize <= 0 {
		return fmt.Errorf("BATCH_SIZE must be positive, got %d", c.BatchSize)
	}
	if c.SitesPerSecond < 0 {
		return fmt.Errorf("SITES_PER_SECOND must not be negative, got %v", c.SitesPerSecond)
	}
	for name, d := range map[string]time.Duration{
		"TECH_TIMEOUT":   c.TechTimeout,
		"HEADER_TIMEOUT": c.HeaderTimeout,
		"TLS_TIMEOUT":    c.TLSTimeout,
		"DNS_TIMEOUT":    c.DNSTimeout,
		"RENDER_TIMEOUT": c.RenderTimeout,
	} {
		if d <= 0 {
			return fmt.Errorf("%s must be positive, got %s", name, d)
		}
	}
	return nil
}

// PostgresURL builds the pgx connection string.
func (c *Config) PostgresURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.PostgresUser, c.PostgresPassword, c.PostgresHost, c.PostgresPort, c.PostgresDB)
}

// Nameservers returns DNS_SERVERS with empty entries dropped. A single
// comma separated env value is split.
func (c *Config) Nameservers() []string {
	var out []string
	for _, entry := range c.DNSServers {
		for _, s := range strings.Split(entry, ",") {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}
