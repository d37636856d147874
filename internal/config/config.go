// Package config loads stateview configuration from YAML or TOML files and
// validates it against an embedded CUE schema.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/roach88/stateview/internal/query"
)

//go:embed schema.cue
var schemaCUE string

// Backend names accepted in storage.backend.
const (
	BackendSQLite = "sqlite"
	BackendBadger = "badger"
	BackendBolt   = "bbolt"
	BackendMemory = "memory"
)

// Config is the full configuration of the stateview binary.
type Config struct {
	DocumentType string        `yaml:"document_type" toml:"document_type" json:"document_type,omitempty"`
	Storage      StorageConfig `yaml:"storage" toml:"storage" json:"storage"`
	Query        QueryConfig   `yaml:"query" toml:"query" json:"query"`
	Logging      LoggingConfig `yaml:"logging" toml:"logging" json:"logging"`
	Metrics      MetricsConfig `yaml:"metrics" toml:"metrics" json:"metrics"`
}

// StorageConfig selects and locates the backend.
type StorageConfig struct {
	Backend    string `yaml:"backend" toml:"backend" json:"backend"`
	Path       string `yaml:"path" toml:"path" json:"path"`
	SyncWrites bool   `yaml:"sync_writes" toml:"sync_writes" json:"sync_writes"`
}

// QueryConfig bounds query pagination and in-list sizes.
type QueryConfig struct {
	DefaultLimit int `yaml:"default_limit" toml:"default_limit" json:"default_limit"`
	MaxLimit     int `yaml:"max_limit" toml:"max_limit" json:"max_limit"`
	MaxInValues  int `yaml:"max_in_values" toml:"max_in_values" json:"max_in_values"`
}

// LoggingConfig configures log/slog output.
type LoggingConfig struct {
	Level  string `yaml:"level" toml:"level" json:"level"`
	Format string `yaml:"format" toml:"format" json:"format"`
}

// MetricsConfig configures the Prometheus endpoint. An empty Addr disables
// it.
type MetricsConfig struct {
	Addr      string `yaml:"addr" toml:"addr" json:"addr"`
	Namespace string `yaml:"namespace" toml:"namespace" json:"namespace"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	limits := query.DefaultLimits()
	return Config{
		Storage: StorageConfig{
			Backend:    BackendSQLite,
			Path:       "stateview.db",
			SyncWrites: true,
		},
		Query: QueryConfig{
			DefaultLimit: limits.DefaultLimit,
			MaxLimit:     limits.MaxLimit,
			MaxInValues:  limits.MaxInValues,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Namespace: "stateview",
		},
	}
}

// Limits returns the query limits configured in c.
func (c Config) Limits() query.Limits {
	return query.Limits{
		DefaultLimit: c.Query.DefaultLimit,
		MaxLimit:     c.Query.MaxLimit,
		MaxInValues:  c.Query.MaxInValues,
	}
}

// Load reads path, picking the format from its extension (.yaml, .yml or
// .toml), applies defaults for missing fields and validates the result.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var format string
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		format = "yaml"
	case ".toml":
		format = "toml"
	default:
		return Config{}, fmt.Errorf("config %s: unsupported extension (want .yaml, .yml or .toml)", path)
	}

	cfg, err := Decode(data, format)
	if err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Decode parses data in the given format ("yaml" or "toml") over the
// defaults and validates the result.
func Decode(data []byte, format string) (Config, error) {
	cfg := Default()
	switch format {
	case "yaml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("decode yaml: %w", err)
		}
	case "toml":
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("decode toml: %w", err)
		}
	default:
		return Config{}, fmt.Errorf("unknown config format %q", format)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ValidationError lists every schema violation of a configuration.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	if len(e.Problems) == 1 {
		return "invalid config: " + e.Problems[0]
	}
	return fmt.Sprintf("invalid config (%d problems): %s", len(e.Problems), strings.Join(e.Problems, "; "))
}

// Validate unifies c with the embedded CUE schema. All violations are
// reported together.
func (c Config) Validate() error {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue")).LookupPath(cue.ParsePath("#Config"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("config schema: %w", err)
	}

	v := schema.Unify(ctx.Encode(c))
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return formatCUEError(err)
	}
	return nil
}

// formatCUEError flattens a CUE error list into a ValidationError.
func formatCUEError(err error) error {
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return &ValidationError{Problems: []string{err.Error()}}
	}

	problems := make([]string, 0, len(errs))
	for _, e := range errs {
		format, args := e.Msg()
		msg := fmt.Sprintf(format, args...)
		if path := e.Path(); len(path) > 0 {
			msg = strings.Join(path, ".") + ": " + msg
		}
		problems = append(problems, msg)
	}
	return &ValidationError{Problems: problems}
}
