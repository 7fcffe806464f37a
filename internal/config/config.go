// Package config reads the formwizard CLI settings from the environment.
package config

import (
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Prefix namespaces every variable read by Load.
const Prefix = "FORMWIZARD_"

// DefaultEnvFiles are loaded by Load when no files are given.
var DefaultEnvFiles = []string{".env", ".env.local"}

// Config holds the CLI settings. Flags override these values.
type Config struct {
	SubmitURL     string        `env:"SUBMIT_URL"`
	SubmitTimeout time.Duration `env:"SUBMIT_TIMEOUT" envDefault:"10s"`

	UploadDir      string `env:"UPLOAD_DIR" envDefault:"./uploads"`
	UploadBaseURL  string `env:"UPLOAD_BASE_URL" envDefault:"/uploads"`
	UploadMaxBytes int64  `env:"UPLOAD_MAX_BYTES" envDefault:"5242880"`

	OptionsDir string `env:"OPTIONS_DIR"`
	OptionsURL string `env:"OPTIONS_URL"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`

	// MetricsAddr enables the Prometheus endpoint when set.
	MetricsAddr string `env:"METRICS_ADDR"`
	MetricsPath string `env:"METRICS_PATH" envDefault:"/metrics"`
}

// LoadEnv loads the env files that exist and reports how many were read.
// Variables already present in the process environment win.
func LoadEnv(envFiles []string) (int, error) {
	existing := make([]string, 0, len(envFiles))
	for _, file := range envFiles {
		if info, err := os.Stat(file); err == nil && !info.IsDir() {
			existing = append(existing, file)
		}
	}
	if len(existing) == 0 {
		return 0, nil
	}
	return len(existing), godotenv.Load(existing...)
}

// Load reads envFiles (DefaultEnvFiles when empty) and then parses the
// process environment.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = DefaultEnvFiles
	}
	if _, err := LoadEnv(envFiles); err != nil {
		return nil, fmt.Errorf("config: load env files: %w", err)
	}
	return parse(env.Options{Prefix: Prefix})
}

// Parse reads the configuration from environment instead of the process
// environment. Keys carry the FORMWIZARD_ prefix.
func Parse(environment map[string]string) (*Config, error) {
	return parse(env.Options{Prefix: Prefix, Environment: environment})
}

func parse(opts env.Options) (*Config, error) {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return nil, fmt.Errorf("config: parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values the CLI cannot work with.
func (c *Config) Validate() error {
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("config: log level: %w", err)
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("config: log format must be text or json, got %q", c.LogFormat)
	}
	for name, raw := range map[string]string{"submit url": c.SubmitURL, "options url": c.OptionsURL} {
		if raw == "" {
			continue
		}
		u, err := url.Parse(raw)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("config: %s must be an absolute http(s) URL, got %q", name, raw)
		}
	}
	if c.SubmitTimeout < 0 {
		return fmt.Errorf("config: submit timeout must be non-negative, got %s", c.SubmitTimeout)
	}
	if c.UploadMaxBytes <= 0 {
		return fmt.Errorf("config: upload max bytes must be positive, got %d", c.UploadMaxBytes)
	}
	return nil
}

// Logger builds a logrus logger writing to out at the configured level.
func (c *Config) Logger(out io.Writer) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(out)
	if level, err := logrus.ParseLevel(c.LogLevel); err == nil {
		logger.SetLevel(level)
	}
	if strings.EqualFold(c.LogFormat, "json") {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	}
	return logger
}
