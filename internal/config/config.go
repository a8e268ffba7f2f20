// Package config loads watchfilter settings from a YAML, TOML or CUE file
// and the environment.
//
// Precedence, lowest first: defaults, config file, environment, command
// line flags. Every layer is validated against the embedded CUE schema.
package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"github.com/BurntSushi/toml"
	"github.com/xyproto/env/v2"
	"gopkg.in/yaml.v3"
)

//go:embed schema.cue
var schemaSource string

// Environment variables read by WithEnv.
const (
	EnvLogLevel  = "WATCHFILTER_LOG_LEVEL"
	EnvLogFormat = "WATCHFILTER_LOG_FORMAT"
	EnvWorkers   = "WATCHFILTER_WORKERS"
	EnvKVBackend = "WATCHFILTER_KV_BACKEND"
)

// Config holds watchfilter settings.
type Config struct {
	// LogLevel is one of trace, debug, info, warn, error.
	LogLevel string `json:"log_level,omitempty" yaml:"log_level" toml:"log_level"`

	// LogFormat is text or json.
	LogFormat string `json:"log_format,omitempty" yaml:"log_format" toml:"log_format"`

	// Workers bounds concurrent evaluations; 0 means GOMAXPROCS.
	Workers int `json:"workers,omitempty" yaml:"workers" toml:"workers"`

	// KVBackend selects the key-value store: memory or sqlite.
	KVBackend string `json:"kv_backend,omitempty" yaml:"kv_backend" toml:"kv_backend"`

	// Filter is an optional jq file of definitions loaded after the host
	// functions. Relative paths resolve against the config file.
	Filter string `json:"filter,omitempty" yaml:"filter" toml:"filter"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		LogLevel:  "info",
		LogFormat: "text",
		KVBackend: "memory",
	}
}

// ValidationError reports a config that does not satisfy the schema.
type ValidationError struct {
	// Source names where the settings came from: a file path or "environment".
	Source string

	Err error
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid config (%s): %s", e.Source, strings.TrimSpace(cueerrors.Details(e.Err, nil)))
}

// Unwrap returns the underlying CUE error.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Load reads path (if not empty) over the defaults, then applies the
// process environment.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		var err error
		if cfg, err = LoadFile(path); err != nil {
			return Config{}, err
		}
	}
	return cfg.WithEnv(ProcessEnv)
}

// LoadFile reads path over the defaults. The format follows the file
// extension: .yaml, .yml, .toml or .cue.
func LoadFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	cfg := Default()
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return Config{}, fmt.Errorf("parse %s: %w", path, err)
		}
	case ".toml":
		md, err := toml.Decode(string(data), &cfg)
		if err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", path, err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return Config{}, fmt.Errorf("parse %s: unknown field %q", path, undecoded[0].String())
		}
	case ".cue":
		if cfg, err = decodeCUE(path, data, cfg); err != nil {
			return Config{}, err
		}
	default:
		return Config{}, fmt.Errorf("unsupported config format %q (valid: .yaml, .yml, .toml, .cue)", ext)
	}

	if err := validate(path, cfg); err != nil {
		return Config{}, err
	}
	if cfg.Filter != "" && !filepath.IsAbs(cfg.Filter) {
		cfg.Filter = filepath.Join(filepath.Dir(path), cfg.Filter)
	}
	return cfg, nil
}

// LookupFunc reports the value of an environment variable and whether it
// is set.
type LookupFunc func(name string) (string, bool)

// ProcessEnv looks variables up in the process environment.
func ProcessEnv(name string) (string, bool) {
	return env.Str(name), env.Has(name)
}

// WithEnv returns c with every set WATCHFILTER_* variable applied.
func (c Config) WithEnv(lookup LookupFunc) (Config, error) {
	if v, ok := lookup(EnvLogLevel); ok {
		c.LogLevel = strings.ToLower(v)
	}
	if v, ok := lookup(EnvLogFormat); ok {
		c.LogFormat = strings.ToLower(v)
	}
	if v, ok := lookup(EnvWorkers); ok {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return Config{}, fmt.Errorf("%s: %w", EnvWorkers, err)
		}
		c.Workers = n
	}
	if v, ok := lookup(EnvKVBackend); ok {
		c.KVBackend = strings.ToLower(v)
	}

	if err := validate("environment", c); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate checks c against the schema.
func (c Config) Validate() error {
	return validate("config", c)
}

func schema(ctx *cue.Context) cue.Value {
	return ctx.CompileString(schemaSource, cue.Filename("schema.cue")).LookupPath(cue.ParsePath("#Config"))
}

func validate(source string, c Config) error {
	ctx := cuecontext.New()
	v := schema(ctx).Unify(ctx.Encode(c))
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return &ValidationError{Source: source, Err: err}
	}
	return nil
}

// decodeCUE evaluates a CUE config against the schema and decodes it over
// base.
func decodeCUE(path string, data []byte, base Config) (Config, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(data, cue.Filename(path))
	if err := v.Err(); err != nil {
		return Config{}, fmt.Errorf("parse %s: %w", path, err)
	}
	u := schema(ctx).Unify(v)
	if err := u.Validate(cue.Concrete(true)); err != nil {
		return Config{}, &ValidationError{Source: path, Err: err}
	}
	if err := u.Decode(&base); err != nil {
		return Config{}, fmt.Errorf("decode %s: %w", path, err)
	}
	return base, nil
}
