// Package config loads the desk configuration from a yaml file or CLI
// flags, and the exchange credentials from the environment. Credentials
// never appear in config files or flags.
package config

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"tradedesk/internal/domain"
)

const (
	defaultDashboardAddr = ":8085"
	defaultCategory      = "linear"
	defaultFlushInterval = 15 * time.Second
	defaultExportDir     = "exports"
	defaultOutboxDir     = "wal"
)

// Config is the immutable runtime configuration.
type Config struct {
	Symbols       []string
	Category      string
	DatabaseDSN   string
	DashboardAddr string
	TLSDomain     string
	CertCacheDir  string
	ExportDir     string
	OutboxDir     string
	FlushInterval time.Duration
}

// Credentials holds the API key pair. Loaded from the environment once at
// startup and passed by value, never stored in a mutable global.
type Credentials struct {
	APIKey    string
	APISecret string
	Testnet   bool
}

// CredentialsFromEnv reads BYBIT_API_KEY, BYBIT_API_SECRET and
// BYBIT_TESTNET. Missing credentials fail fast at startup instead of at
// the first signed request.
func CredentialsFromEnv() (Credentials, error) {
	creds := Credentials{
		APIKey:    os.Getenv("BYBIT_API_KEY"),
		APISecret: os.Getenv("BYBIT_API_SECRET"),
		Testnet:   strings.EqualFold(os.Getenv("BYBIT_TESTNET"), "true"),
	}
	if creds.APIKey == "" {
		return Credentials{}, &domain.ConfigurationError{Reason: "BYBIT_API_KEY is not set"}
	}
	if creds.APISecret == "" {
		return Credentials{}, &domain.ConfigurationError{Reason: "BYBIT_API_SECRET is not set"}
	}
	return creds, nil
}

type ConfigTmp struct {
	Symbols       []string      `yaml:"symbols"`
	Category      string        `yaml:"category,omitempty"`
	DatabaseDSN   string        `yaml:"database_dsn"`
	DashboardAddr string        `yaml:"dashboard_addr,omitempty"`
	TLSDomain     string        `yaml:"tls_domain,omitempty"`
	CertCacheDir  string        `yaml:"cert_cache_dir,omitempty"`
	ExportDir     string        `yaml:"export_dir,omitempty"`
	OutboxDir     string        `yaml:"outbox_dir,omitempty"`
	FlushInterval time.Duration `yaml:"flush_interval,omitempty"`
}

// Get parses flags and loads the configuration, from yaml when --config is
// given, otherwise from the remaining flags.
func Get() (Config, error) {
	configPath := flag.String("config", "", "path to yaml config")
	symbolsFlag := flag.String("symbols", "BTCUSDT", "comma-separated symbols, example: BTCUSDT,ETHUSDT")
	categoryFlag := flag.String("category", defaultCategory, "product category: linear or spot")
	dsnFlag := flag.String("db", "", "postgres dsn for the trade journal")
	addrFlag := flag.String("dashboard", defaultDashboardAddr, "dashboard listen address")
	exportFlag := flag.String("exportdir", defaultExportDir, "directory for journal exports")
	flag.Parse()

	if *configPath != "" {
		return getYaml(*configPath)
	}

	cfg := Config{
		Symbols:       splitSymbols(*symbolsFlag),
		Category:      *categoryFlag,
		DatabaseDSN:   *dsnFlag,
		DashboardAddr: *addrFlag,
		ExportDir:     *exportFlag,
		OutboxDir:     defaultOutboxDir,
		FlushInterval: defaultFlushInterval,
	}
	return cfg, cfg.validate()
}

func getYaml(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	var tmp ConfigTmp
	if err := yaml.Unmarshal(raw, &tmp); err != nil {
		return Config{}, fmt.Errorf("parse yaml config: %w", err)
	}

	cfg := Config{
		Symbols:       tmp.Symbols,
		Category:      tmp.Category,
		DatabaseDSN:   tmp.DatabaseDSN,
		DashboardAddr: tmp.DashboardAddr,
		TLSDomain:     tmp.TLSDomain,
		CertCacheDir:  tmp.CertCacheDir,
		ExportDir:     tmp.ExportDir,
		OutboxDir:     tmp.OutboxDir,
		FlushInterval: tmp.FlushInterval,
	}
	cfg.applyDefaults()
	return cfg, cfg.validate()
}

func (c *Config) applyDefaults() {
	if c.Category == "" {
		c.Category = defaultCategory
	}
	if c.DashboardAddr == "" {
		c.DashboardAddr = defaultDashboardAddr
	}
	if c.ExportDir == "" {
		c.ExportDir = defaultExportDir
	}
	if c.OutboxDir == "" {
		c.OutboxDir = defaultOutboxDir
	}
	if c.FlushInterval <= 0 {
		c.FlushInterval = defaultFlushInterval
	}
	if c.CertCacheDir == "" {
		c.CertCacheDir = "certs"
	}
}

func (c Config) validate() error {
	if len(c.Symbols) == 0 {
		return &domain.ConfigurationError{Reason: "at least one symbol is required"}
	}
	for _, s := range c.Symbols {
		if s == "" {
			return &domain.ConfigurationError{Reason: "empty symbol in config"}
		}
	}
	if c.Category != "linear" && c.Category != "spot" {
		return &domain.ConfigurationError{Reason: fmt.Sprintf("unknown category %q", c.Category)}
	}
	return nil
}

func splitSymbols(s string) []string {
	parts := strings.Split(s, ",")
	symbols := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			symbols = append(symbols, strings.ToUpper(p))
		}
	}
	return symbols
}
