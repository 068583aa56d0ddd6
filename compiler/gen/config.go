package gen

import (
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sort"
	"time"
)

type (
	// Config is the global generation configuration.
	Config struct {
		// Mode selects a preset of variants and operations.
		Mode Mode
		// Variants holds the global per-variant defaults.
		Variants map[VariantType]*VariantOverride
		// GlobalExclusions lists fields excluded from every model, per variant.
		GlobalExclusions map[VariantType][]string
		// Models holds the model-specific overrides keyed by model name.
		Models map[string]*ModelConfig
		// Operations restricts the generated CRUD envelopes in custom mode.
		Operations []Operation
		// Naming holds the naming policy.
		Naming NamingOptions
		// Collision holds the collision strategy.
		Collision CollisionOptions
		// ZodImport is the module specifier zod is imported from.
		ZodImport string
		// HelpersImport is the module specifier (relative to the output root)
		// of the hand-written helper schemas, such as JsonValueSchema.
		HelpersImport string
		// ImportExtension is appended to relative import specifiers (e.g. ".js").
		ImportExtension string
		// Header is written at the top of every module.
		Header string
		// LazyRelations renders cross-model relation references with z.lazy.
		// Self references are always lazy.
		LazyRelations bool
		// Concurrent enables per-model fan-out in the coordinator.
		Concurrent bool
		// Workers bounds the fan-out. Zero means GOMAXPROCS.
		Workers int
		// CacheTTL is the lifetime of cached variant configurations.
		CacheTTL time.Duration
		// CacheCapacity bounds the variant configuration cache.
		CacheCapacity int
		// Logger receives structured generation logs.
		Logger *slog.Logger
	}

	// ModelConfig holds the overrides of a single model.
	ModelConfig struct {
		// Enabled toggles generation for the model. Nil means enabled.
		Enabled *bool
		// Operations restricts the CRUD envelopes generated for the model.
		Operations []Operation
		// Fields holds rules applied to every variant of the model.
		Fields FieldRules
		// Variants holds the model-specific variant overrides.
		Variants map[VariantType]*VariantOverride
	}

	// FieldRules holds explicit exclude/include lists. Entries may be
	// field names or glob patterns such as "*Password".
	FieldRules struct {
		Exclude []string `yaml:"exclude,omitempty"`
		Include []string `yaml:"include,omitempty"`
	}

	// VariantOverride is one layer of variant configuration. Nil pointers and
	// empty slices/maps mean "not set at this layer".
	VariantOverride struct {
		Enabled                  *bool                               `yaml:"enabled,omitempty"`
		Naming                   *NamingOverride                     `yaml:"naming,omitempty"`
		Exclude                  []string                            `yaml:"exclude,omitempty"`
		Include                  []string                            `yaml:"include,omitempty"`
		AutoExclude              *bool                               `yaml:"autoExclude,omitempty"`
		Validations              map[string]*FieldValidationOverride `yaml:"validations,omitempty"`
		Documentation            *bool                               `yaml:"documentation,omitempty"`
		EmitTypes                *bool                               `yaml:"emitTypes,omitempty"`
		Strictness               *Strictness                         `yaml:"strictness,omitempty"`
		IncludeRelations         *bool                               `yaml:"includeRelations,omitempty"`
		ExcludeCircularRelations *bool                               `yaml:"excludeCircularRelations,omitempty"`
		DateTimeStrategy         *DateTimeStrategy                   `yaml:"dateTimeStrategy,omitempty"`
		Priority                 *int                                `yaml:"priority,omitempty"`
	}

	// NamingOverride customizes identifiers and paths of a variant.
	NamingOverride struct {
		FileSuffix   *string `yaml:"fileSuffix,omitempty"`
		SchemaSuffix *string `yaml:"schemaSuffix,omitempty"`
		TypeSuffix   *string `yaml:"typeSuffix,omitempty"`
		Prefix       *string `yaml:"prefix,omitempty"`
		Directory    *string `yaml:"directory,omitempty"`
		Casing       *Casing `yaml:"casing,omitempty"`
	}

	// FieldValidationOverride customizes the rendering of one field.
	FieldValidationOverride struct {
		// Expressions are method-call fragments appended to the base type,
		// e.g. "min(3)" or ".email()".
		Expressions []string `yaml:"expressions,omitempty"`
		// DisableInline drops the inline annotations of the field.
		DisableInline *bool `yaml:"disableInline,omitempty"`
		// CustomTemplate replaces the base expression entirely.
		CustomTemplate *string `yaml:"customTemplate,omitempty"`
	}

	// NamingOptions is the global naming policy.
	NamingOptions struct {
		// Casing applies to generated file names. Schema and type identifiers
		// are always PascalCase.
		Casing Casing `yaml:"casing,omitempty"`
	}

	// CollisionOptions configures the collision strategy.
	CollisionOptions struct {
		Strategy   CollisionStrategy `yaml:"strategy,omitempty"`
		MaxRetries int               `yaml:"maxRetries,omitempty"`
		// Prefix is used by PREFIX_VARIANT. Empty means the variant name.
		Prefix string `yaml:"prefix,omitempty"`
	}
)

// Mode is a generation preset.
type Mode string

// Generation modes.
const (
	ModeFull    Mode = "full"
	ModeMinimal Mode = "minimal"
	ModeCustom  Mode = "custom"
)

// Casing is the casing policy of generated file names.
type Casing string

// Casing policies.
const (
	CasingPascal Casing = "pascal"
	CasingCamel  Casing = "camel"
)

// CollisionStrategy is the policy used to disambiguate colliding names.
type CollisionStrategy string

// Collision strategies.
const (
	SuffixIncrement CollisionStrategy = "SUFFIX_INCREMENT"
	PrefixVariant   CollisionStrategy = "PREFIX_VARIANT"
	ThrowError      CollisionStrategy = "THROW_ERROR"
)

// Strictness controls how the emitted object schema treats unknown keys.
type Strictness string

// Object strictness modes.
const (
	StrictnessStrip       Strictness = "strip"
	StrictnessStrict      Strictness = "strict"
	StrictnessPassthrough Strictness = "passthrough"
)

// DateTimeStrategy selects how DateTime fields are rendered.
type DateTimeStrategy string

// DateTime strategies.
const (
	DateTimeDate   DateTimeStrategy = "date"
	DateTimeCoerce DateTimeStrategy = "coerce"
	DateTimeISO    DateTimeStrategy = "isoString"
)

const (
	defaultMaxRetry = 10
	defaultCacheTTL = 5 * time.Minute
	defaultCacheCap = 1024
)

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() *Config {
	return &Config{
		Mode:          ModeFull,
		Naming:        NamingOptions{Casing: CasingPascal},
		Collision:     CollisionOptions{Strategy: SuffixIncrement, MaxRetries: defaultMaxRetry},
		ZodImport:     "zod",
		HelpersImport: "helpers/json-helpers",
		LazyRelations: true,
		CacheTTL:      defaultCacheTTL,
		CacheCapacity: defaultCacheCap,
	}
}

// withDefaults fills unset fields with their defaults, in place.
func (c *Config) withDefaults() *Config {
	d := DefaultConfig()
	if c.Mode == "" {
		c.Mode = d.Mode
	}
	if c.Naming.Casing == "" {
		c.Naming.Casing = d.Naming.Casing
	}
	if c.Collision.Strategy == "" {
		c.Collision.Strategy = d.Collision.Strategy
	}
	if c.Collision.MaxRetries <= 0 {
		c.Collision.MaxRetries = d.Collision.MaxRetries
	}
	if c.ZodImport == "" {
		c.ZodImport = d.ZodImport
	}
	if c.HelpersImport == "" {
		c.HelpersImport = d.HelpersImport
	}
	if c.CacheTTL <= 0 {
		c.CacheTTL = d.CacheTTL
	}
	if c.CacheCapacity <= 0 {
		c.CacheCapacity = d.CacheCapacity
	}
	if c.Logger == nil {
		c.Logger = slog.New(slog.DiscardHandler)
	}
	return c
}

// Model returns the configuration of the named model, or nil.
func (c *Config) Model(name string) *ModelConfig {
	if c == nil || c.Models == nil {
		return nil
	}
	return c.Models[name]
}

// ModelEnabled reports if the named model takes part in generation.
func (c *Config) ModelEnabled(name string) bool {
	mc := c.Model(name)
	return mc == nil || mc.Enabled == nil || *mc.Enabled
}

// VariantEnabled reports if the variant is generated for the named model.
// The preset decides first, then the global variant defaults, then the model.
func (c *Config) VariantEnabled(model string, v VariantType) bool {
	enabled := presetFor(c.Mode).Variants[v]
	if o := c.Variants[v]; o != nil && o.Enabled != nil {
		enabled = *o.Enabled
	}
	if mc := c.Model(model); mc != nil {
		if o := mc.Variants[v]; o != nil && o.Enabled != nil {
			enabled = *o.Enabled
		}
	}
	return enabled
}

// ModelOperations returns the CRUD operations generated for the model.
func (c *Config) ModelOperations(model string) []Operation {
	p := presetFor(c.Mode)
	ops := p.Operations
	if c.Mode == ModeCustom && len(c.Operations) > 0 {
		ops = c.Operations
	}
	if mc := c.Model(model); mc != nil && len(mc.Operations) > 0 {
		ops = mc.Operations
	}
	return slices.Clone(ops)
}

// Clone returns a deep copy of the configuration. The logger is shared.
func (c *Config) Clone() *Config {
	n := *c
	n.Variants = make(map[VariantType]*VariantOverride, len(c.Variants))
	for k, v := range c.Variants {
		n.Variants[k] = v.Clone()
	}
	n.GlobalExclusions = make(map[VariantType][]string, len(c.GlobalExclusions))
	for k, v := range c.GlobalExclusions {
		n.GlobalExclusions[k] = slices.Clone(v)
	}
	n.Models = make(map[string]*ModelConfig, len(c.Models))
	for k, v := range c.Models {
		n.Models[k] = v.Clone()
	}
	n.Operations = slices.Clone(c.Operations)
	return &n
}

// Clone returns a deep copy of the model configuration.
func (m *ModelConfig) Clone() *ModelConfig {
	if m == nil {
		return nil
	}
	n := &ModelConfig{
		Enabled:    clonePtr(m.Enabled),
		Operations: slices.Clone(m.Operations),
		Fields: FieldRules{
			Exclude: slices.Clone(m.Fields.Exclude),
			Include: slices.Clone(m.Fields.Include),
		},
	}
	if m.Variants != nil {
		n.Variants = make(map[VariantType]*VariantOverride, len(m.Variants))
		for k, v := range m.Variants {
			n.Variants[k] = v.Clone()
		}
	}
	return n
}

// Clone returns a deep copy of the override.
func (o *VariantOverride) Clone() *VariantOverride {
	if o == nil {
		return nil
	}
	return MergeOverrides(nil, o)
}

// MergeOverrides merges src on top of dst and returns a new override.
// Scalars set in src win, slices are concatenated, validation maps are merged
// per field and field validations are merged member by member. Neither
// argument is modified.
func MergeOverrides(dst, src *VariantOverride) *VariantOverride {
	out := &VariantOverride{}
	for _, o := range []*VariantOverride{dst, src} {
		if o == nil {
			continue
		}
		out.Enabled = pick(out.Enabled, o.Enabled)
		out.Naming = mergeNaming(out.Naming, o.Naming)
		out.Exclude = append(out.Exclude, o.Exclude...)
		out.Include = append(out.Include, o.Include...)
		out.AutoExclude = pick(out.AutoExclude, o.AutoExclude)
		if len(o.Validations) > 0 {
			if out.Validations == nil {
				out.Validations = make(map[string]*FieldValidationOverride, len(o.Validations))
			}
			for name, fv := range o.Validations {
				out.Validations[name] = mergeFieldValidation(out.Validations[name], fv)
			}
		}
		out.Documentation = pick(out.Documentation, o.Documentation)
		out.EmitTypes = pick(out.EmitTypes, o.EmitTypes)
		out.Strictness = pick(out.Strictness, o.Strictness)
		out.IncludeRelations = pick(out.IncludeRelations, o.IncludeRelations)
		out.ExcludeCircularRelations = pick(out.ExcludeCircularRelations, o.ExcludeCircularRelations)
		out.DateTimeStrategy = pick(out.DateTimeStrategy, o.DateTimeStrategy)
		out.Priority = pick(out.Priority, o.Priority)
	}
	return out
}

func mergeNaming(dst, src *NamingOverride) *NamingOverride {
	if src == nil {
		if dst == nil {
			return nil
		}
		cp := *dst
		return &cp
	}
	out := &NamingOverride{}
	if dst != nil {
		*out = *dst
	}
	out.FileSuffix = pick(out.FileSuffix, src.FileSuffix)
	out.SchemaSuffix = pick(out.SchemaSuffix, src.SchemaSuffix)
	out.TypeSuffix = pick(out.TypeSuffix, src.TypeSuffix)
	out.Prefix = pick(out.Prefix, src.Prefix)
	out.Directory = pick(out.Directory, src.Directory)
	out.Casing = pick(out.Casing, src.Casing)
	return out
}

func mergeFieldValidation(dst, src *FieldValidationOverride) *FieldValidationOverride {
	out := &FieldValidationOverride{}
	for _, v := range []*FieldValidationOverride{dst, src} {
		if v == nil {
			continue
		}
		out.Expressions = append(out.Expressions, v.Expressions...)
		out.DisableInline = pick(out.DisableInline, v.DisableInline)
		out.CustomTemplate = pick(out.CustomTemplate, v.CustomTemplate)
	}
	return out
}

// pick returns a copy of src when set, otherwise dst.
func pick[T any](dst, src *T) *T {
	if src != nil {
		return clonePtr(src)
	}
	return dst
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// =============================================================================
// Resolved configuration
// =============================================================================

// Layer identifies the configuration layer a rule came from.
// Later layers override earlier ones.
type Layer uint8

// Configuration layers in resolution order.
const (
	LayerVariantDefault Layer = iota
	LayerGlobalVariant
	LayerGlobalExclusion
	LayerModel
	LayerModelVariant
	LayerExplicit
)

var layerNames = [...]string{
	LayerVariantDefault:  "variant defaults",
	LayerGlobalVariant:   "global variant config",
	LayerGlobalExclusion: "global exclusions",
	LayerModel:           "model config",
	LayerModelVariant:    "model variant config",
	LayerExplicit:        "explicit override",
}

// String returns a human-readable layer name.
func (l Layer) String() string {
	if int(l) < len(layerNames) {
		return layerNames[l]
	}
	return fmt.Sprintf("layer(%d)", l)
}

type (
	// VariantConfig is the resolved configuration of one (model, variant) pair.
	VariantConfig struct {
		Model       string
		Variant     VariantType
		Enabled     bool
		Naming      NamingConfig
		Exclusions  FieldExclusions
		Validations map[string]FieldValidation
		Options     SchemaOptions
		Priority    int
		// Hash is the hash of the explicit override the config was computed with.
		Hash string
	}

	// NamingConfig is the resolved naming of a variant.
	NamingConfig struct {
		FileSuffix   string
		SchemaSuffix string
		TypeSuffix   string
		Prefix       string
		Directory    string
		Casing       Casing
	}

	// FieldExclusions holds the resolved exclusion rules of a variant.
	FieldExclusions struct {
		Rules         []ExclusionRule
		AutoGenerated bool
	}

	// ExclusionRule is an exclude or include rule tagged with its layer.
	ExclusionRule struct {
		Pattern string
		Include bool
		Layer   Layer
		matcher matcher
	}

	// FieldValidation is the resolved validation customization of a field.
	FieldValidation struct {
		Expressions    []string
		DisableInline  bool
		CustomTemplate string
	}

	// SchemaOptions holds the schema emission options of a variant.
	SchemaOptions struct {
		Documentation            bool
		EmitTypes                bool
		Strictness               Strictness
		IncludeRelations         bool
		ExcludeCircularRelations bool
		DateTimeStrategy         DateTimeStrategy
	}
)

// ValidatedFields returns the names of the fields with validation overrides, sorted.
func (vc *VariantConfig) ValidatedFields() []string {
	names := slices.Collect(maps.Keys(vc.Validations))
	sort.Strings(names)
	return names
}
