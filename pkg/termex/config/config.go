// Package config loads termex settings from YAML, .env files and the
// environment, and builds the runtime components they describe.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/caarlos0/env/v10"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/cognicore/termex/pkg/termex/chunk"
	"github.com/cognicore/termex/pkg/termex/internalerr"
)

// Config holds every tunable of an extraction deployment. Values come from
// defaults, then an optional YAML file, then TERMEX_* environment variables.
type Config struct {
	MaxChunkSize int    `yaml:"max_chunk_size" env:"MAX_CHUNK_SIZE" validate:"gt=0"`
	MinFrequency int    `yaml:"min_frequency" env:"MIN_FREQUENCY" validate:"gte=1"`
	Concurrency  int    `yaml:"concurrency" env:"CONCURRENCY" validate:"gte=1,lte=64"`
	ContextCap   int    `yaml:"context_cap" env:"CONTEXT_CAP" validate:"gte=0"`
	Annotator    string `yaml:"annotator" env:"ANNOTATOR" validate:"oneof=prose lexicon"`
	LexiconPath  string `yaml:"lexicon" env:"LEXICON" validate:"required_if=Annotator lexicon"`
	Sort         string `yaml:"sort" env:"SORT" validate:"oneof=asc desc"`
	DBPath       string `yaml:"db" env:"DB"`

	Log  Log  `yaml:"log" envPrefix:"LOG_"`
	HTTP HTTP `yaml:"http" envPrefix:"HTTP_"`
}

// Log configures the logger.
type Log struct {
	Level  string `yaml:"level" env:"LEVEL" validate:"oneof=trace debug info warn error"`
	Format string `yaml:"format" env:"FORMAT" validate:"oneof=console json"`
}

// HTTP configures the review server.
type HTTP struct {
	Addr string `yaml:"addr" env:"ADDR" validate:"required"`
	// MaxBodyBytes bounds POST /runs request bodies.
	MaxBodyBytes int64 `yaml:"max_body_bytes" env:"MAX_BODY_BYTES" validate:"gt=0"`
}

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "TERMEX_"

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		MaxChunkSize: chunk.DefaultMaxChars,
		MinFrequency: 1,
		Concurrency:  1,
		Annotator:    "prose",
		Sort:         "desc",
		Log:          Log{Level: "info", Format: "console"},
		HTTP:         HTTP{Addr: ":8080", MaxBodyBytes: 64 << 20},
	}
}

// Load builds a Config from defaults, the YAML file at path (skipped when
// path is empty), a .env file in the working directory if present, and the
// environment.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("%w: parse %s: %v", internalerr.ErrInvalidConfig, path, err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("%w: environment: %v", internalerr.ErrInvalidConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints. Failures wrap ErrInvalidConfig.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("%w: %s", internalerr.ErrInvalidConfig, strings.Join(msgs, "; "))
		}
		return fmt.Errorf("%w: %v", internalerr.ErrInvalidConfig, err)
	}
	return nil
}

// ParseMinFrequency parses a user-entered minimum frequency. Non-integer and
// non-positive values are rejected.
func ParseMinFrequency(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%w: minimum frequency must be an integer, got %q", internalerr.ErrInvalidConfig, s)
	}
	if n < 1 {
		return 0, fmt.Errorf("%w: minimum frequency must be positive, got %d", internalerr.ErrInvalidConfig, n)
	}
	return n, nil
}
