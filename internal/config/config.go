package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultCapacity      = 1024
	DefaultSweepInterval = time.Second
	DefaultMaxBodyBytes  = 1 << 20
)

type Config struct {
	Env            string
	ServiceName    string
	ServiceVersion string

	ConfigFile string

	OtelExporterOTLPEndpoint string
	OtelExporterOTLPHeaders  string
	SentryDSN                string

	Port string

	Cache  CacheConfig
	Server ServerConfig
}

type CacheConfig struct {
	Capacity      int           `yaml:"capacity"`
	SweepInterval time.Duration `yaml:"sweep_interval"`

	sweepIntervalSet bool
}

type ServerConfig struct {
	MaxBodyBytes       int64    `yaml:"max_body_bytes"`
	CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`
}

func Load() (*Config, error) {
	cfg := &Config{
		Env:                      os.Getenv("ENV"),
		ServiceName:              os.Getenv("SERVICE_NAME"),
		ServiceVersion:           os.Getenv("SERVICE_VERSION"),
		ConfigFile:               os.Getenv("CONFIG_FILE"),
		OtelExporterOTLPEndpoint: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		OtelExporterOTLPHeaders:  os.Getenv("OTEL_EXPORTER_OTLP_HEADERS"),
		SentryDSN:                os.Getenv("SENTRY_DSN"),
		Port:                     os.Getenv("PORT"),
	}

	if err := cfg.loadFromEnv(); err != nil {
		return nil, err
	}

	if cfg.ConfigFile == "" {
		cfg.ConfigFile = "config.yaml"
	}
	// Load from YAML file if available
	if err := cfg.LoadFromYAML(cfg.ConfigFile); err != nil {
		return nil, fmt.Errorf("failed to load YAML config: %w", err)
	}

	cfg.SetDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}
	return cfg
}

func (c *Config) loadFromEnv() error {
	if v := os.Getenv("CACHE_CAPACITY"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("CACHE_CAPACITY: %w", err)
		}
		c.Cache.Capacity = n
	}
	if v := os.Getenv("CACHE_SWEEP_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("CACHE_SWEEP_INTERVAL: %w", err)
		}
		c.Cache.SweepInterval = d
		c.Cache.sweepIntervalSet = true
	}
	if v := os.Getenv("MAX_BODY_BYTES"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("MAX_BODY_BYTES: %w", err)
		}
		c.Server.MaxBodyBytes = n
	}
	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		c.Server.CORSAllowedOrigins = splitList(v)
	}
	return nil
}

// LoadFromYAML fills fields the environment left unset. A missing file is not an error.
func (c *Config) LoadFromYAML(path string) error {
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // File not found is not an error
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var yamlConfig struct {
		Cache struct {
			Capacity      int            `yaml:"capacity"`
			SweepInterval *time.Duration `yaml:"sweep_interval"`
		} `yaml:"cache"`
		Server ServerConfig `yaml:"server"`
	}

	if err := yaml.Unmarshal(data, &yamlConfig); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	// Environment wins over the file
	if c.Cache.Capacity == 0 && yamlConfig.Cache.Capacity != 0 {
		c.Cache.Capacity = yamlConfig.Cache.Capacity
	}
	if !c.Cache.sweepIntervalSet && yamlConfig.Cache.SweepInterval != nil {
		c.Cache.SweepInterval = *yamlConfig.Cache.SweepInterval
		c.Cache.sweepIntervalSet = true
	}
	if c.Server.MaxBodyBytes == 0 && yamlConfig.Server.MaxBodyBytes != 0 {
		c.Server.MaxBodyBytes = yamlConfig.Server.MaxBodyBytes
	}
	if len(c.Server.CORSAllowedOrigins) == 0 && len(yamlConfig.Server.CORSAllowedOrigins) > 0 {
		c.Server.CORSAllowedOrigins = yamlConfig.Server.CORSAllowedOrigins
	}

	return nil
}

func (c *Config) SetDefaults() {
	if c.Env == "" {
		c.Env = "development"
	}
	if c.ServiceName == "" {
		c.ServiceName = "lru-cache"
	}
	if c.ServiceVersion == "" {
		c.ServiceVersion = "1.0.0"
	}
	if c.Port == "" {
		c.Port = "8080"
	}
	if c.Cache.Capacity == 0 {
		c.Cache.Capacity = DefaultCapacity
	}
	if !c.Cache.sweepIntervalSet {
		c.Cache.SweepInterval = DefaultSweepInterval
		c.Cache.sweepIntervalSet = true
	}
	if c.Server.MaxBodyBytes == 0 {
		c.Server.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if len(c.Server.CORSAllowedOrigins) == 0 {
		c.Server.CORSAllowedOrigins = []string{"*"}
	}
}

func (c *Config) Validate() error {
	if c.Cache.Capacity <= 0 {
		return fmt.Errorf("cache capacity must be positive, got %d", c.Cache.Capacity)
	}
	if c.Cache.SweepInterval < 0 {
		return fmt.Errorf("cache sweep interval must not be negative, got %s", c.Cache.SweepInterval)
	}
	if c.Server.MaxBodyBytes <= 0 {
		return fmt.Errorf("max body bytes must be positive, got %d", c.Server.MaxBodyBytes)
	}
	return nil
}

// OtelHeaders parses OTEL_EXPORTER_OTLP_HEADERS ("k1=v1,k2=v2").
func (c *Config) OtelHeaders() map[string]string {
	if c.OtelExporterOTLPHeaders == "" {
		return nil
	}
	headers := make(map[string]string)
	for _, pair := range splitList(c.OtelExporterOTLPHeaders) {
		k, v, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		headers[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
	return headers
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
