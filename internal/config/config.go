package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

const (
	// EnvPrefix prefixes every environment override, e.g. WEEKREPORT_AZURE_TOKEN.
	EnvPrefix = "WEEKREPORT_"

	maxConfigFileSize = 1024 * 1024
)

type Config struct {
	Azure  AzureConfig  `koanf:"azure"`
	Server ServerConfig `koanf:"server"`
	Output OutputConfig `koanf:"output"`
	Log    LogConfig    `koanf:"log"`
	Author string       `koanf:"author"`
}

type AzureConfig struct {
	BaseURL      string        `koanf:"base_url"`
	APIVersion   string        `koanf:"api_version"`
	Organization string        `koanf:"organization"`
	Token        string        `koanf:"token"`
	Timeout      time.Duration `koanf:"timeout"`
	RateLimit    float64       `koanf:"rate_limit"`
	Burst        int           `koanf:"burst"`
}

type ServerConfig struct {
	Addr           string        `koanf:"addr"`
	StaticDir      string        `koanf:"static_dir"`
	AllowedOrigins []string      `koanf:"allowed_origins"`
	RequestTimeout time.Duration `koanf:"request_timeout"`
}

type OutputConfig struct {
	Directory string   `koanf:"directory"`
	Format    []string `koanf:"format"` // text, json, yaml, html, csv, xlsx
}

type LogConfig struct {
	Level string `koanf:"level"`
}

// Load reads an optional YAML file and then applies WEEKREPORT_* environment
// overrides. A missing path or file yields defaults plus environment.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		content, err := readConfigFile(path)
		if err != nil {
			return nil, err
		}
		if content != nil {
			if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
			}
		}
	}

	// WEEKREPORT_AZURE_BASE_URL -> azure.base_url
	if err := k.Load(env.ProviderWithValue(EnvPrefix, ".", envKeyValue), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg, k)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

var listKeys = map[string]bool{
	"server.allowed_origins": true,
	"output.format":          true,
}

func envKeyValue(s, value string) (string, interface{}) {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	if parts := strings.SplitN(key, "_", 2); len(parts) == 2 {
		key = parts[0] + "." + parts[1]
	}

	if listKeys[key] {
		var items []string
		for _, v := range strings.Split(value, ",") {
			if v = strings.TrimSpace(v); v != "" {
				items = append(items, v)
			}
		}
		return key, items
	}
	return key, value
}

func readConfigFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if info.Size() > maxConfigFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxConfigFileSize)
	}

	return io.ReadAll(f)
}

// applyDefaults fills unset fields. rate_limit is only defaulted when absent,
// since 0 disables pacing.
func applyDefaults(cfg *Config, k *koanf.Koanf) {
	if cfg.Azure.BaseURL == "" {
		cfg.Azure.BaseURL = "https://dev.azure.com"
	}
	if cfg.Azure.APIVersion == "" {
		cfg.Azure.APIVersion = "7.0"
	}
	if cfg.Azure.Timeout == 0 {
		cfg.Azure.Timeout = 10 * time.Second
	}
	if !k.Exists("azure.rate_limit") {
		cfg.Azure.RateLimit = 10
	}
	if cfg.Azure.Burst == 0 {
		cfg.Azure.Burst = 4
	}

	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":3000"
	}
	if len(cfg.Server.AllowedOrigins) == 0 {
		cfg.Server.AllowedOrigins = []string{"*"}
	}
	if cfg.Server.RequestTimeout == 0 {
		cfg.Server.RequestTimeout = 2 * time.Minute
	}

	if cfg.Output.Directory == "" {
		cfg.Output.Directory = "reports"
	}
	if len(cfg.Output.Format) == 0 {
		cfg.Output.Format = []string{"text"}
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
}

var validFormats = map[string]bool{
	"text": true,
	"json": true,
	"yaml": true,
	"html": true,
	"csv":  true,
	"xlsx": true,
}

func (c *Config) Validate() error {
	if c.Azure.Timeout < 0 {
		return fmt.Errorf("azure.timeout cannot be negative")
	}
	if c.Azure.RateLimit < 0 {
		return fmt.Errorf("azure.rate_limit cannot be negative")
	}
	for _, f := range c.Output.Format {
		if !validFormats[strings.ToLower(strings.TrimSpace(f))] {
			return fmt.Errorf("unknown output format %q", f)
		}
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}
	return nil
}

// ValidateSource checks the credentials needed to query Azure DevOps from the CLI.
func (c *Config) ValidateSource() error {
	if c.Azure.Organization == "" {
		return fmt.Errorf("azure organization is required (--org or WEEKREPORT_AZURE_ORGANIZATION)")
	}
	if c.Azure.Token == "" {
		return fmt.Errorf("azure token is required (--token or WEEKREPORT_AZURE_TOKEN)")
	}
	return nil
}

// ParseLevel maps a level name to its slog level.
func ParseLevel(level string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return l, nil
}
