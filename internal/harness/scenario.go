package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/watchfilter/internal/kv"
)

// DirPlaceholder stands for the scenario directory in inputs,
// expectations and traces.
const DirPlaceholder = "$DIR"

// Scenario is a sequence of expressions run against shared state.
type Scenario struct {
	// Name uniquely identifies this scenario.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// KVBackend selects the store backend: memory (default) or sqlite.
	KVBackend string `yaml:"kv_backend,omitempty"`

	// Files maps relative paths to the content written before the first step.
	Files map[string]string `yaml:"files,omitempty"`

	// Steps run in order.
	Steps []Step `yaml:"steps"`
}

// Step is one expression evaluation.
type Step struct {
	// Expr is the expression to evaluate.
	Expr string `yaml:"expr"`

	// Input is the input value; null when omitted.
	Input any `yaml:"input,omitempty"`

	// Expect lists every expected output. Nil means outputs are not checked;
	// an empty list expects none.
	Expect *[]any `yaml:"expect,omitempty"`

	// Error is a substring of the error expected to end the step.
	Error string `yaml:"error,omitempty"`
}

// LoadScenario loads and validates a scenario from a YAML file.
// Unknown fields are rejected.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse scenario YAML: %w", err)
	}

	if err := scenario.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scenario %s: %w", filepath.Base(path), err)
	}
	return &scenario, nil
}

// Validate checks the scenario for structural errors.
func (s *Scenario) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("at least one step is required")
	}
	switch s.KVBackend {
	case "", kv.BackendMemory, kv.BackendSQLite:
	default:
		return fmt.Errorf("unknown kv_backend %q", s.KVBackend)
	}
	for name := range s.Files {
		if !filepath.IsLocal(name) {
			return fmt.Errorf("file %q must be a relative path inside the scenario directory", name)
		}
	}
	for i, step := range s.Steps {
		if strings.TrimSpace(step.Expr) == "" {
			return fmt.Errorf("step %d: expr is required", i+1)
		}
		if step.Expect != nil && step.Error != "" {
			return fmt.Errorf("step %d: expect and error are mutually exclusive", i+1)
		}
	}
	return nil
}

// FindScenarios returns the YAML files under dir, sorted. A non-empty
// pattern keeps only files whose base name without extension matches it.
// Files under golden/ directories are skipped.
func FindScenarios(dir, pattern string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == "golden" && path != dir {
				return filepath.SkipDir
			}
			return nil
		}

		ext := filepath.Ext(path)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}
		if pattern != "" {
			name := strings.TrimSuffix(filepath.Base(path), ext)
			matched, err := filepath.Match(pattern, name)
			if err != nil {
				return fmt.Errorf("invalid filter pattern: %w", err)
			}
			if !matched {
				return nil
			}
		}
		files = append(files, path)
		return nil
	})
	slices.Sort(files)
	return files, err
}
