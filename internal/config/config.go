// Package config loads the crosspost CLI configuration from a YAML file,
// built-in defaults and CROSSPOST_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "CROSSPOST_"

// Config holds the application configuration.
type Config struct {
	Log         LogConfig        `yaml:"log"`
	Schema      SchemaConfig     `yaml:"schema"`
	Converters  ConvertersConfig `yaml:"converters"`
	Templates   TemplatesConfig  `yaml:"templates"`
	Presets     string           `yaml:"presets"`
	Concurrency int              `yaml:"concurrency" validate:"gte=0,lte=256"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=json console"`
}

// SchemaConfig points at field-schema sources. Both empty means the embedded
// built-in table.
type SchemaConfig struct {
	Dir     string `yaml:"dir"`
	OpenAPI string `yaml:"openapi"`
}

// ConvertersConfig holds the tag converter store location. An empty DSN
// disables tag conversion.
type ConvertersConfig struct {
	DSN string `yaml:"dsn"`
}

// TemplatesConfig holds the description template directory. Empty means the
// embedded templates.
type TemplatesConfig struct {
	Dir string `yaml:"dir"`
}

// Default returns the configuration used when nothing else is set.
func Default() Config {
	return Config{
		Log: LogConfig{Level: "info", Format: "console"},
	}
}

// Load reads path (optional; empty skips the file), applies environment
// overrides looked up through getenv, expands paths and validates. A nil
// getenv uses os.Getenv.
func Load(path string, getenv func(string) string) (Config, error) {
	if getenv == nil {
		getenv = os.Getenv
	}
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: decode %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(getenv); err != nil {
		return Config{}, err
	}
	cfg.Log.Level = strings.ToLower(strings.TrimSpace(cfg.Log.Level))
	cfg.Log.Format = strings.ToLower(strings.TrimSpace(cfg.Log.Format))

	for _, p := range []*string{&cfg.Schema.Dir, &cfg.Schema.OpenAPI, &cfg.Templates.Dir, &cfg.Presets} {
		expanded, err := expandPath(*p)
		if err != nil {
			return Config{}, fmt.Errorf("config: %w", err)
		}
		*p = expanded
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	strs := map[string]*string{
		"LOG_LEVEL":      &c.Log.Level,
		"LOG_FORMAT":     &c.Log.Format,
		"SCHEMA_DIR":     &c.Schema.Dir,
		"SCHEMA_OPENAPI": &c.Schema.OpenAPI,
		"CONVERTERS_DSN": &c.Converters.DSN,
		"TEMPLATES_DIR":  &c.Templates.Dir,
		"PRESETS":        &c.Presets,
	}
	for key, target := range strs {
		if value := strings.TrimSpace(getenv(EnvPrefix + key)); value != "" {
			*target = value
		}
	}

	if value := strings.TrimSpace(getenv(EnvPrefix + "CONCURRENCY")); value != "" {
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("config: invalid %sCONCURRENCY %q: %w", EnvPrefix, value, err)
		}
		c.Concurrency = n
	}
	return nil
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func configValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// Validate checks value ranges and that at most one schema source is set.
func (c Config) Validate() error {
	var errs []error
	if err := configValidator().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				errs = append(errs, fmt.Errorf("config: %s: failed %q (got %v)", fe.Namespace(), fe.Tag(), fe.Value()))
			}
		} else {
			errs = append(errs, fmt.Errorf("config: %w", err))
		}
	}
	if c.Schema.Dir != "" && c.Schema.OpenAPI != "" {
		errs = append(errs, errors.New("config: schema.dir and schema.openapi are mutually exclusive"))
	}
	return errors.Join(errs...)
}

// expandPath expands ~ and makes the path absolute. Empty stays empty.
func expandPath(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}
	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = absPath
	}
	return filepath.Clean(path), nil
}
