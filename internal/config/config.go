package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"

	"github.com/basel-ax/fakedetect/internal/domain"
)

// DBConfig holds database configuration
type DBConfig struct {
	URL             string        `env:"URL"`
	MaxOpenConns    int           `env:"MAX_OPEN_CONNS" envDefault:"25"`
	MaxIdleConns    int           `env:"MAX_IDLE_CONNS" envDefault:"25"`
	ConnMaxLifetime time.Duration `env:"CONN_MAX_LIFETIME" envDefault:"5m"`
}

// DetectorConfig holds the model used for real/fake detection
type DetectorConfig struct {
	Name    string `env:"NAME" envDefault:"vgg19"`
	Version string `env:"VERSION" envDefault:"1"`
}

// Config holds all configuration for the application
type Config struct {
	BackendBaseURL   string         `env:"BACKEND_BASE_URL" envDefault:"http://localhost:5000/backend"`
	BackendsFile     string         `env:"BACKENDS_FILE"`
	HTTPTimeout      time.Duration  `env:"HTTP_TIMEOUT" envDefault:"0s"`
	LogLevel         string         `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat        string         `env:"LOG_FORMAT" envDefault:"console"`
	Detector         DetectorConfig `envPrefix:"DETECTOR_MODEL_"`
	DB               DBConfig       `envPrefix:"DATABASE_"`
	GenerateSchedule string         `env:"GENERATE_SCHEDULE" envDefault:"0 */5 * * * *"`
	GenerateModels   []string       `env:"GENERATE_MODELS" envSeparator:","`
	MetricsAddr      string         `env:"METRICS_ADDR" envDefault:":9090"`
}

// Load loads the configuration from an optional .env file and environment
// variables
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}
	return Parse()
}

// Parse reads the configuration from environment variables only
func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("error parsing environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that all required fields are present and valid
func (c *Config) Validate() error {
	var errs []string

	if c.BackendBaseURL == "" {
		errs = append(errs, "BACKEND_BASE_URL is required")
	} else if u, err := url.Parse(c.BackendBaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Sprintf("BACKEND_BASE_URL %q is not an absolute URL", c.BackendBaseURL))
	}
	if c.HTTPTimeout < 0 {
		errs = append(errs, "HTTP_TIMEOUT must not be negative")
	}
	switch strings.ToLower(c.LogFormat) {
	case "json", "console":
	default:
		errs = append(errs, fmt.Sprintf("LOG_FORMAT %q must be json or console", c.LogFormat))
	}
	if _, err := c.Models(); err != nil {
		errs = append(errs, err.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(errs, "; "))
	}
	return nil
}

// Models parses GENERATE_MODELS
func (c *Config) Models() ([]domain.ModelDescriptor, error) {
	var models []domain.ModelDescriptor
	for _, s := range c.GenerateModels {
		if strings.TrimSpace(s) == "" {
			continue
		}
		m, err := domain.ParseModelDescriptor(s)
		if err != nil {
			return nil, fmt.Errorf("GENERATE_MODELS: %w", err)
		}
		models = append(models, m)
	}
	return models, nil
}

// DetectorModel returns the descriptor of the detection model
func (c *Config) DetectorModel() domain.ModelDescriptor {
	return domain.ModelDescriptor{Name: c.Detector.Name, Version: c.Detector.Version}
}
