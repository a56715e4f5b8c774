package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	yaml "gopkg.in/yaml.v2"
)

const (
	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"

	// envPrefix turns the field tags into SCRAPER_BASE_URL and friends.
	envPrefix = "SCRAPER"
)

// Duration makes "30s"-style values work in both YAML and the environment.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}

	return d.UnmarshalText([]byte(s))
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)

	return nil
}

// ClientConfig is the HTTP part of the configuration, consumed by the
// listing adapter.
type ClientConfig struct {
	UserAgent         string
	Timeout           time.Duration
	RequestsPerSecond float64
	CheckRobots       bool
}

type Config struct {
	BaseURL           string   `yaml:"base_url" envconfig:"BASE_URL"`
	OutDir            string   `yaml:"out_dir" envconfig:"OUT_DIR"`
	UserAgent         string   `yaml:"user_agent" envconfig:"USER_AGENT"`
	HTTPTimeout       Duration `yaml:"http_timeout" envconfig:"HTTP_TIMEOUT"`
	RequestsPerSecond float64  `yaml:"requests_per_second" envconfig:"REQUESTS_PER_SECOND"`
	CheckRobots       bool     `yaml:"check_robots" envconfig:"CHECK_ROBOTS"`
	LogLevel          string   `yaml:"log_level" envconfig:"LOG_LEVEL"`
}

func (c *Config) ClientConfig() *ClientConfig {
	return &ClientConfig{
		UserAgent:         c.UserAgent,
		Timeout:           time.Duration(c.HTTPTimeout),
		RequestsPerSecond: c.RequestsPerSecond,
		CheckRobots:       c.CheckRobots,
	}
}

func defaultConfig() Config {
	return Config{
		BaseURL:           "https://enterobase.warwick.ac.uk/schemes/",
		OutDir:            ".",
		UserAgent:         "enterobase-scheme-scraper/1.0",
		HTTPTimeout:       Duration(30 * time.Second),
		RequestsPerSecond: 4,
		CheckRobots:       true,
		LogLevel:          LogLevelInfo,
	}
}

// Load builds the configuration from defaults, an optional YAML file and the
// environment, in that order. A missing config file is not an error; a
// present but unreadable one is.
func Load(fileName string) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		if _, statErr := os.Stat(".env"); statErr == nil {
			return nil, fmt.Errorf("cannot load .env file: %w", err)
		}
	}

	cfg := defaultConfig()

	if fileName != "" {
		data, err := os.ReadFile(fileName)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("cannot parse config file %s: %w", fileName, err)
			}
		case !os.IsNotExist(err):
			return nil, fmt.Errorf("cannot read config file %s: %w", fileName, err)
		}
	}

	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("cannot process environment: %w", err)
	}

	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base url must not be empty")
	}
	// Entry hrefs are appended to the base URL as-is.
	if !strings.HasSuffix(cfg.BaseURL, "/") {
		cfg.BaseURL += "/"
	}

	return &cfg, nil
}
