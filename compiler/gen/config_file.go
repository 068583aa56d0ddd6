package gen

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"gopkg.in/yaml.v3"
)

// FileConfig is the on-disk form of Config. JSON files are accepted as well,
// JSON being a subset of YAML.
//
//	mode: custom
//	operations: [findMany, create]
//	globalExclusions:
//	  input: [password]
//	models:
//	  User:
//	    fields:
//	      include: [password]
//	    variants:
//	      pure:
//	        validations:
//	          email:
//	            expressions: [email()]
type FileConfig struct {
	Mode             Mode                        `yaml:"mode,omitempty"`
	Operations       []Operation                 `yaml:"operations,omitempty"`
	Variants         map[string]*VariantOverride `yaml:"variants,omitempty"`
	GlobalExclusions map[string][]string         `yaml:"globalExclusions,omitempty"`
	Models           map[string]*FileModelConfig `yaml:"models,omitempty"`
	Naming           NamingOptions               `yaml:"naming,omitempty"`
	Collision        CollisionOptions            `yaml:"collision,omitempty"`
	ZodImport        string                      `yaml:"zodImport,omitempty"`
	HelpersImport    string                      `yaml:"helpersImport,omitempty"`
	ImportExtension  string                      `yaml:"importExtension,omitempty"`
	Header           string                      `yaml:"header,omitempty"`
	LazyRelations    *bool                       `yaml:"lazyRelations,omitempty"`
	Concurrent       bool                        `yaml:"concurrent,omitempty"`
	Workers          int                         `yaml:"workers,omitempty"`
	CacheTTL         time.Duration               `yaml:"cacheTTL,omitempty"`
}

// FileModelConfig is the on-disk form of ModelConfig.
type FileModelConfig struct {
	Enabled    *bool                       `yaml:"enabled,omitempty"`
	Operations []Operation                 `yaml:"operations,omitempty"`
	Fields     FieldRules                  `yaml:"fields,omitempty"`
	Variants   map[string]*VariantOverride `yaml:"variants,omitempty"`
}

// LoadConfigFile loads a configuration file.
func LoadConfigFile(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read zodgen config: %w", err)
	}
	fc, err := ParseConfig(data)
	if err != nil {
		return nil, fmt.Errorf("parse zodgen config %s: %w", filepath.Base(path), err)
	}
	return fc, nil
}

// ParseConfig decodes a configuration document. Unknown keys are rejected.
// An empty document yields an empty configuration.
func ParseConfig(data []byte) (*FileConfig, error) {
	var fc FileConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&fc); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return &fc, nil
}

// SaveConfigFile writes a configuration file.
func SaveConfigFile(path string, fc *FileConfig) error {
	data, err := yaml.Marshal(fc)
	if err != nil {
		return fmt.Errorf("marshal zodgen config: %w", err)
	}
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory: %w", err)
		}
	}
	return os.WriteFile(path, data, 0o644)
}

// Options converts the file into functional options, in a stable order.
// Variant keys are parsed with ParseVariantType.
func (fc *FileConfig) Options() ([]Option, error) {
	var (
		opts []Option
		errs []error
	)
	if fc.Mode != "" {
		opts = append(opts, WithMode(fc.Mode))
	}
	if len(fc.Operations) > 0 {
		opts = append(opts, WithOperations(fc.Operations...))
	}
	for _, key := range sortedKeys(fc.Variants) {
		v, err := ParseVariantType(key)
		if err != nil {
			errs = append(errs, fmt.Errorf("variants.%s: %w", key, err))
			continue
		}
		if o := fc.Variants[key]; o != nil {
			opts = append(opts, WithVariant(v, o))
		}
	}
	for _, key := range sortedKeys(fc.GlobalExclusions) {
		v, err := ParseVariantType(key)
		if err != nil {
			errs = append(errs, fmt.Errorf("globalExclusions.%s: %w", key, err))
			continue
		}
		opts = append(opts, WithGlobalExclusions(v, fc.GlobalExclusions[key]...))
	}
	for _, name := range sortedKeys(fc.Models) {
		fm := fc.Models[name]
		if fm == nil {
			continue
		}
		mc := &ModelConfig{
			Enabled:    fm.Enabled,
			Operations: fm.Operations,
			Fields:     fm.Fields,
		}
		for _, key := range sortedKeys(fm.Variants) {
			v, err := ParseVariantType(key)
			if err != nil {
				errs = append(errs, fmt.Errorf("models.%s.variants.%s: %w", name, key, err))
				continue
			}
			if mc.Variants == nil {
				mc.Variants = make(map[VariantType]*VariantOverride)
			}
			mc.Variants[v] = fm.Variants[key]
		}
		opts = append(opts, WithModel(name, mc))
	}
	if fc.Naming.Casing != "" {
		opts = append(opts, WithCasing(fc.Naming.Casing))
	}
	if fc.Collision.Strategy != "" || fc.Collision.MaxRetries > 0 {
		strategy := fc.Collision.Strategy
		if strategy == "" {
			strategy = SuffixIncrement
		}
		opts = append(opts, WithCollisionStrategy(strategy, fc.Collision.MaxRetries))
	}
	if fc.Collision.Prefix != "" {
		opts = append(opts, WithCollisionPrefix(fc.Collision.Prefix))
	}
	if fc.ZodImport != "" {
		opts = append(opts, WithZodImport(fc.ZodImport))
	}
	if fc.HelpersImport != "" {
		opts = append(opts, WithHelpersImport(fc.HelpersImport))
	}
	if fc.ImportExtension != "" {
		opts = append(opts, WithImportExtension(fc.ImportExtension))
	}
	if fc.Header != "" {
		opts = append(opts, WithHeader(fc.Header))
	}
	if fc.LazyRelations != nil {
		opts = append(opts, WithLazyRelations(*fc.LazyRelations))
	}
	if fc.Concurrent || fc.Workers > 0 {
		opts = append(opts, WithConcurrency(fc.Workers))
	}
	if fc.CacheTTL > 0 {
		opts = append(opts, WithCacheTTL(fc.CacheTTL))
	}
	return opts, errors.Join(errs...)
}

// Config builds a configuration from the file, followed by extra options.
func (fc *FileConfig) Config(extra ...Option) (*Config, error) {
	opts, err := fc.Options()
	if err != nil {
		return nil, err
	}
	return NewConfig(append(opts, extra...)...)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
