package gen

import (
	"errors"
	"log/slog"
	"time"
)

// Option configures code generation.
type Option func(*Config) error

// WithMode sets the generation mode preset.
// Supported modes: "full", "minimal", "custom".
func WithMode(mode Mode) Option {
	return func(c *Config) error {
		if _, ok := AllPresets[mode]; !ok {
			return NewConfigError("Mode", string(mode), "unknown mode; use full, minimal or custom")
		}
		c.Mode = mode
		return nil
	}
}

// WithVariant merges a global override into the defaults of a variant.
func WithVariant(v VariantType, o *VariantOverride) Option {
	return func(c *Config) error {
		if !v.Valid() {
			return NewConfigError("Variant", uint8(v), "unknown variant")
		}
		if o == nil {
			return NewConfigError("Variant", v.String(), "override cannot be nil")
		}
		if c.Variants == nil {
			c.Variants = make(map[VariantType]*VariantOverride)
		}
		c.Variants[v] = MergeOverrides(c.Variants[v], o)
		return nil
	}
}

// WithVariantEnabled toggles a variant globally.
func WithVariantEnabled(v VariantType, enabled bool) Option {
	return WithVariant(v, &VariantOverride{Enabled: &enabled})
}

// WithGlobalExclusions excludes the given fields (or glob patterns) from
// every model in the given variant.
func WithGlobalExclusions(v VariantType, fields ...string) Option {
	return func(c *Config) error {
		if !v.Valid() {
			return NewConfigError("GlobalExclusions", uint8(v), "unknown variant")
		}
		if c.GlobalExclusions == nil {
			c.GlobalExclusions = make(map[VariantType][]string)
		}
		c.GlobalExclusions[v] = append(c.GlobalExclusions[v], fields...)
		return nil
	}
}

// WithModel sets the configuration of a model, replacing any previous one.
func WithModel(name string, mc *ModelConfig) Option {
	return func(c *Config) error {
		if name == "" {
			return NewConfigError("Models", nil, "model name cannot be empty")
		}
		if mc == nil {
			return NewConfigError("Models", name, "model config cannot be nil")
		}
		if c.Models == nil {
			c.Models = make(map[string]*ModelConfig)
		}
		c.Models[name] = mc
		return nil
	}
}

// WithModelEnabled toggles generation for a model.
func WithModelEnabled(name string, enabled bool) Option {
	return func(c *Config) error {
		mc, err := c.modelConfig(name)
		if err != nil {
			return err
		}
		mc.Enabled = &enabled
		return nil
	}
}

// WithModelFields adds model-wide exclude and include rules.
func WithModelFields(name string, rules FieldRules) Option {
	return func(c *Config) error {
		mc, err := c.modelConfig(name)
		if err != nil {
			return err
		}
		mc.Fields.Exclude = append(mc.Fields.Exclude, rules.Exclude...)
		mc.Fields.Include = append(mc.Fields.Include, rules.Include...)
		return nil
	}
}

// WithModelVariant merges a model-specific override of a variant.
func WithModelVariant(name string, v VariantType, o *VariantOverride) Option {
	return func(c *Config) error {
		if !v.Valid() {
			return NewConfigError("Variant", uint8(v), "unknown variant")
		}
		mc, err := c.modelConfig(name)
		if err != nil {
			return err
		}
		if mc.Variants == nil {
			mc.Variants = make(map[VariantType]*VariantOverride)
		}
		mc.Variants[v] = MergeOverrides(mc.Variants[v], o)
		return nil
	}
}

// WithModelOperations restricts the CRUD envelopes of a model.
func WithModelOperations(name string, ops ...Operation) Option {
	return func(c *Config) error {
		for _, op := range ops {
			if !op.Valid() {
				return NewConfigError("Operations", string(op), "unknown operation")
			}
		}
		mc, err := c.modelConfig(name)
		if err != nil {
			return err
		}
		mc.Operations = append(mc.Operations, ops...)
		return nil
	}
}

// WithOperations sets the operations generated in custom mode.
func WithOperations(ops ...Operation) Option {
	return func(c *Config) error {
		for _, op := range ops {
			if !op.Valid() {
				return NewConfigError("Operations", string(op), "unknown operation")
			}
		}
		c.Operations = append(c.Operations, ops...)
		return nil
	}
}

// WithCasing sets the casing policy of generated file names.
func WithCasing(casing Casing) Option {
	return func(c *Config) error {
		switch casing {
		case CasingPascal, CasingCamel:
			c.Naming.Casing = casing
			return nil
		default:
			return NewConfigError("Casing", string(casing), "unsupported casing; use pascal or camel")
		}
	}
}

// WithCollisionStrategy sets the collision strategy and its retry bound.
func WithCollisionStrategy(strategy CollisionStrategy, maxRetries int) Option {
	return func(c *Config) error {
		switch strategy {
		case SuffixIncrement, PrefixVariant, ThrowError:
		default:
			return NewConfigError("Collision.Strategy", string(strategy), "unsupported strategy")
		}
		if maxRetries < 0 {
			return NewConfigError("Collision.MaxRetries", maxRetries, "retry bound cannot be negative")
		}
		c.Collision.Strategy = strategy
		c.Collision.MaxRetries = maxRetries
		return nil
	}
}

// WithCollisionPrefix sets the prefix used by the PREFIX_VARIANT strategy.
func WithCollisionPrefix(prefix string) Option {
	return func(c *Config) error {
		c.Collision.Prefix = prefix
		return nil
	}
}

// WithZodImport sets the module specifier zod is imported from.
func WithZodImport(specifier string) Option {
	return func(c *Config) error {
		if specifier == "" {
			return NewConfigError("ZodImport", nil, "import specifier cannot be empty")
		}
		c.ZodImport = specifier
		return nil
	}
}

// WithHelpersImport sets the module path of the helper schemas.
func WithHelpersImport(modulePath string) Option {
	return func(c *Config) error {
		if modulePath == "" {
			return NewConfigError("HelpersImport", nil, "module path cannot be empty")
		}
		c.HelpersImport = modulePath
		return nil
	}
}

// WithImportExtension sets the extension appended to relative imports.
func WithImportExtension(ext string) Option {
	return func(c *Config) error {
		c.ImportExtension = ext
		return nil
	}
}

// WithHeader sets the file header comment.
// The header is added at the top of each generated module.
func WithHeader(header string) Option {
	return func(c *Config) error {
		c.Header = header
		return nil
	}
}

// WithLazyRelations toggles z.lazy for cross-model relation references.
func WithLazyRelations(lazy bool) Option {
	return func(c *Config) error {
		c.LazyRelations = lazy
		return nil
	}
}

// WithConcurrency enables per-model fan-out with the given number of workers.
// Zero workers means GOMAXPROCS.
func WithConcurrency(workers int) Option {
	return func(c *Config) error {
		if workers < 0 {
			return NewConfigError("Workers", workers, "workers cannot be negative")
		}
		c.Concurrent = true
		c.Workers = workers
		return nil
	}
}

// WithCacheTTL sets the lifetime of cached variant configurations.
func WithCacheTTL(ttl time.Duration) Option {
	return func(c *Config) error {
		if ttl <= 0 {
			return NewConfigError("CacheTTL", ttl, "ttl must be positive")
		}
		c.CacheTTL = ttl
		return nil
	}
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) error {
		if l == nil {
			return NewConfigError("Logger", nil, "logger cannot be nil")
		}
		c.Logger = l
		return nil
	}
}

func (c *Config) modelConfig(name string) (*ModelConfig, error) {
	if name == "" {
		return nil, NewConfigError("Models", nil, "model name cannot be empty")
	}
	if c.Models == nil {
		c.Models = make(map[string]*ModelConfig)
	}
	mc := c.Models[name]
	if mc == nil {
		mc = &ModelConfig{}
		c.Models[name] = mc
	}
	return mc, nil
}

// Apply applies options to the config.
// It returns the first error encountered.
func (c *Config) Apply(opts ...Option) error {
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return err
		}
	}
	return nil
}

// ApplyAll applies options and collects all errors.
// Returns a joined error if any options failed.
func (c *Config) ApplyAll(opts ...Option) error {
	var errs []error
	for _, opt := range opts {
		if err := opt(c); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NewConfig creates a new Config from the defaults and the given options.
func NewConfig(opts ...Option) (*Config, error) {
	c := DefaultConfig()
	if err := c.Apply(opts...); err != nil {
		return nil, err
	}
	return c.withDefaults(), nil
}

// MustNewConfig creates a new Config with the given options.
// It panics if any option fails.
func MustNewConfig(opts ...Option) *Config {
	c, err := NewConfig(opts...)
	if err != nil {
		panic(err)
	}
	return c
}
