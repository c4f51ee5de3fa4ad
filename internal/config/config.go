package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all service configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
	Storage  StorageConfig  `yaml:"storage"`
	Catalog  CatalogConfig  `yaml:"catalog"`
	Content  ContentConfig  `yaml:"content"`
	Mail     MailConfig     `yaml:"mail"`
	Auth     AuthConfig     `yaml:"auth"`
	Checkout CheckoutConfig `yaml:"checkout"`
	Currency CurrencyConfig `yaml:"currency"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr            string   `yaml:"addr"`
	ReadTimeout     string   `yaml:"read_timeout"`
	WriteTimeout    string   `yaml:"write_timeout"`
	ShutdownTimeout string   `yaml:"shutdown_timeout"`
	CORSOrigins     []string `yaml:"cors_origins"`
	Release         bool     `yaml:"release"`
}

// LogConfig configures zap.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, console
}

// StorageConfig selects the persisted key-value backend.
type StorageConfig struct {
	Driver          string `yaml:"driver"` // memory, sqlite, mongo
	SQLitePath      string `yaml:"sqlite_path"`
	MongoURI        string `yaml:"mongo_uri"`
	MongoDatabase   string `yaml:"mongo_database"`
	MongoCollection string `yaml:"mongo_collection"`
	ConnectTimeout  string `yaml:"connect_timeout"`
}

// CatalogConfig selects where products come from.
type CatalogConfig struct {
	Source   string `yaml:"source"` // content, local
	CacheTTL string `yaml:"cache_ttl"`
}

// ContentConfig points at the hosted content API.
type ContentConfig struct {
	BaseURL    string `yaml:"base_url"`
	Dataset    string `yaml:"dataset"`
	APIVersion string `yaml:"api_version"`
	Token      string `yaml:"token"`
	Timeout    string `yaml:"timeout"`
}

// MailConfig points at the mail-sending function.
type MailConfig struct {
	Endpoint      string `yaml:"endpoint"`
	Timeout       string `yaml:"timeout"`
	ConfirmOrders bool   `yaml:"confirm_orders"`
}

// AuthConfig configures bearer-token verification.
type AuthConfig struct {
	JWTSecret   string   `yaml:"jwt_secret"`
	Issuer      string   `yaml:"issuer"`
	AdminEmails []string `yaml:"admin_emails"`
}

// CheckoutConfig tunes the checkout flow.
type CheckoutConfig struct {
	SimulatedLatency string   `yaml:"simulated_latency"`
	TestCards        []string `yaml:"test_cards"`
}

// CurrencyConfig controls how cart prices are rendered.
type CurrencyConfig struct {
	Symbol      string `yaml:"symbol"`
	SymbolAfter bool   `yaml:"symbol_after"`
	Locale      string `yaml:"locale"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":9091",
			ReadTimeout:     "10s",
			WriteTimeout:    "15s",
			ShutdownTimeout: "5s",
			CORSOrigins:     []string{"http://localhost:5173"},
		},
		Log: LogConfig{Level: "info", Format: "json"},
		Storage: StorageConfig{
			Driver:          "sqlite",
			SQLitePath:      "data/ringside.db",
			MongoDatabase:   "ringside",
			MongoCollection: "kv",
			ConnectTimeout:  "10s",
		},
		Catalog: CatalogConfig{Source: "local", CacheTTL: "1m"},
		Content: ContentConfig{Dataset: "production", APIVersion: "2024-01-01", Timeout: "10s"},
		Mail:    MailConfig{Timeout: "10s", ConfirmOrders: true},
		Auth:    AuthConfig{Issuer: "ringside"},
		Checkout: CheckoutConfig{
			SimulatedLatency: "1500ms",
			TestCards: []string{
				"4242424242424242",
				"4000056655665556",
				"5555555555554444",
				"4111111111111111",
			},
		},
		Currency: CurrencyConfig{Symbol: "zł", SymbolAfter: true, Locale: "pl"},
	}
}

// Load reads .env, then the YAML file at path (optional), then RINGSIDE_*
// environment overrides.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("RINGSIDE_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("RINGSIDE_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("RINGSIDE_STORAGE_DRIVER"); v != "" {
		c.Storage.Driver = v
	}
	if v := os.Getenv("RINGSIDE_SQLITE_PATH"); v != "" {
		c.Storage.SQLitePath = v
	}
	if v := os.Getenv("RINGSIDE_MONGO_URI"); v != "" {
		c.Storage.MongoURI = v
	}
	if v := os.Getenv("RINGSIDE_CATALOG_SOURCE"); v != "" {
		c.Catalog.Source = v
	}
	if v := os.Getenv("RINGSIDE_CONTENT_BASE_URL"); v != "" {
		c.Content.BaseURL = v
	}
	if v := os.Getenv("RINGSIDE_CONTENT_TOKEN"); v != "" {
		c.Content.Token = v
	}
	if v := os.Getenv("RINGSIDE_MAIL_ENDPOINT"); v != "" {
		c.Mail.Endpoint = v
	}
	if v := os.Getenv("RINGSIDE_JWT_SECRET"); v != "" {
		c.Auth.JWTSecret = v
	}
	if v := os.Getenv("RINGSIDE_ADMIN_EMAILS"); v != "" {
		c.Auth.AdminEmails = splitList(v)
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Validate rejects configurations the service cannot start with.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case "memory":
	case "sqlite":
		if c.Storage.SQLitePath == "" {
			return fmt.Errorf("storage.sqlite_path is required for the sqlite driver")
		}
	case "mongo":
		if c.Storage.MongoURI == "" {
			return fmt.Errorf("storage.mongo_uri is required for the mongo driver")
		}
	default:
		return fmt.Errorf("invalid storage driver: %q (valid: memory, sqlite, mongo)", c.Storage.Driver)
	}

	switch c.Catalog.Source {
	case "local":
	case "content":
		if c.Content.BaseURL == "" {
			return fmt.Errorf("content.base_url is required when catalog.source is content")
		}
	default:
		return fmt.Errorf("invalid catalog source: %q (valid: local, content)", c.Catalog.Source)
	}

	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret not configured (set RINGSIDE_JWT_SECRET)")
	}
	return nil
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}

func (c *Config) GetReadTimeout() time.Duration {
	return parseDuration(c.Server.ReadTimeout, 10*time.Second)
}

func (c *Config) GetWriteTimeout() time.Duration {
	return parseDuration(c.Server.WriteTimeout, 15*time.Second)
}

func (c *Config) GetShutdownTimeout() time.Duration {
	return parseDuration(c.Server.ShutdownTimeout, 5*time.Second)
}

func (c *Config) GetConnectTimeout() time.Duration {
	return parseDuration(c.Storage.ConnectTimeout, 10*time.Second)
}

func (c *Config) GetCacheTTL() time.Duration {
	return parseDuration(c.Catalog.CacheTTL, time.Minute)
}

func (c *Config) GetContentTimeout() time.Duration {
	return parseDuration(c.Content.Timeout, 10*time.Second)
}

func (c *Config) GetMailTimeout() time.Duration {
	return parseDuration(c.Mail.Timeout, 10*time.Second)
}

// GetSimulatedLatency may legitimately be zero.
func (c *Config) GetSimulatedLatency() time.Duration {
	return parseDuration(c.Checkout.SimulatedLatency, 1500*time.Millisecond)
}
