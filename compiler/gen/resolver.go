package gen

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"hash/fnv"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/gobwas/glob"
	"github.com/maypok86/otter"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/syssam/zodgen/compiler/load"
)

// autoGeneratedFields is the name set excluded by the auto-generated field
// heuristic, in addition to fields flagged as IDs or updatedAt timestamps.
var autoGeneratedFields = map[string]struct{}{
	"id":         {},
	"createdAt":  {},
	"updatedAt":  {},
	"deletedAt":  {},
	"created_at": {},
	"updated_at": {},
	"deleted_at": {},
}

// matcher reports if a field name matches an exclusion pattern.
type matcher interface {
	Match(string) bool
}

// exactMatcher matches a single field name.
type exactMatcher string

func (m exactMatcher) Match(s string) bool { return string(m) == s }

// isPattern reports if s carries glob meta characters.
func isPattern(s string) bool {
	return strings.ContainsAny(s, "*?[{")
}

// compileMatcher compiles a field name or a glob pattern.
func compileMatcher(pattern string) (matcher, error) {
	if !isPattern(pattern) {
		return exactMatcher(pattern), nil
	}
	g, err := glob.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("compile pattern %q: %w", pattern, err)
	}
	return g, nil
}

// Matches reports if the rule applies to the field name.
func (r ExclusionRule) Matches(name string) bool {
	if r.matcher == nil {
		return r.Pattern == name
	}
	return r.matcher.Match(name)
}

// IsPattern reports if the rule is a glob pattern rather than a field name.
func (r ExclusionRule) IsPattern() bool { return isPattern(r.Pattern) }

func (r ExclusionRule) String() string {
	verb := "excluded"
	if r.Include {
		verb = "included"
	}
	return fmt.Sprintf("%s by %q (%s)", verb, r.Pattern, r.Layer)
}

// ExclusionResult is the outcome of exclusion resolution for a set of
// candidate fields.
type ExclusionResult struct {
	// Excluded and Included partition the candidates, in candidate order.
	Excluded []string
	Included []string
	// Reasons holds, per candidate, every rule that matched it followed by
	// the final decision.
	Reasons map[string][]string
	// Warnings reports rules of the model or explicit layers that name a
	// field the model does not have.
	Warnings []string
}

// IsExcluded reports if the field was excluded.
func (r *ExclusionResult) IsExcluded(name string) bool {
	return slices.Contains(r.Excluded, name)
}

// ResolverStats holds the variant configuration cache statistics.
type ResolverStats struct {
	Hits   int64
	Misses int64
	Size   int
}

// Resolver computes the effective configuration of every (model, variant)
// pair by merging the configuration layers. Resolved configurations are
// cached by (model, variant, override hash) and must not be mutated by
// callers. It is safe for concurrent use.
type Resolver struct {
	mu    sync.RWMutex
	cfg   *Config
	doc   *load.Document
	cache otter.Cache[string, *VariantConfig]
	log   *slog.Logger
}

// NewResolver creates a resolver for the configuration. The document is
// optional; when set, field flags (IsID, IsUpdatedAt) feed the auto-generated
// field heuristic.
func NewResolver(cfg *Config, doc *load.Document) (*Resolver, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	cfg.withDefaults()
	cache, err := otter.MustBuilder[string, *VariantConfig](cfg.CacheCapacity).
		CollectStats().
		WithTTL(cfg.CacheTTL).
		Build()
	if err != nil {
		return nil, fmt.Errorf("zodgen: create config cache: %w", err)
	}
	return &Resolver{
		cfg:   cfg,
		doc:   doc,
		cache: cache,
		log:   cfg.Logger,
	}, nil
}

// Config returns the global configuration in use.
func (r *Resolver) Config() *Config {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.cfg
}

// SetGlobalConfig replaces the global configuration and drops every cached entry.
func (r *Resolver) SetGlobalConfig(cfg *Config) {
	cfg.withDefaults()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cfg = cfg
	r.log = cfg.Logger
	r.cache.Clear()
}

// SetModelConfig replaces the configuration of one model and drops its cached entries.
func (r *Resolver) SetModelConfig(name string, mc *ModelConfig) {
	r.mu.Lock()
	if r.cfg.Models == nil {
		r.cfg.Models = make(map[string]*ModelConfig)
	}
	r.cfg.Models[name] = mc
	r.invalidate(name)
	r.mu.Unlock()
}

// InvalidateModel drops the cached configurations of one model.
func (r *Resolver) InvalidateModel(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.invalidate(name)
}

func (r *Resolver) invalidate(name string) {
	r.cache.DeleteByFunc(func(_ string, vc *VariantConfig) bool {
		return vc.Model == name
	})
}

// Stats returns the cache statistics.
func (r *Resolver) Stats() ResolverStats {
	s := r.cache.Stats()
	return ResolverStats{
		Hits:   s.Hits(),
		Misses: s.Misses(),
		Size:   r.cache.Size(),
	}
}

// Close releases the cache.
func (r *Resolver) Close() {
	r.cache.Close()
}

// EffectiveConfig returns the resolved configuration of a (model, variant)
// pair. The explicit override is optional and forms the highest layer.
func (r *Resolver) EffectiveConfig(model string, v VariantType, explicit *VariantOverride) (*VariantConfig, error) {
	if !v.Valid() {
		return nil, NewConfigError("Variant", uint8(v), "unknown variant")
	}
	hash, err := HashOverride(explicit)
	if err != nil {
		return nil, err
	}
	key := model + "\x00" + v.String() + "\x00" + hash
	if vc, ok := r.cache.Get(key); ok {
		return vc, nil
	}
	// The entry is stored under the read lock so a concurrent configuration
	// change cannot clear the cache between resolving and storing.
	r.mu.RLock()
	log := r.log
	vc, err := r.resolve(model, v, explicit)
	if err == nil {
		vc.Hash = hash
		r.cache.Set(key, vc)
	}
	r.mu.RUnlock()
	if err != nil {
		return nil, err
	}
	log.Debug("resolved variant config",
		slog.String("model", model),
		slog.String("variant", v.String()),
		slog.Int("rules", len(vc.Exclusions.Rules)),
	)
	return vc, nil
}

// resolve merges the layers. The caller holds r.mu.
func (r *Resolver) resolve(model string, v VariantType, explicit *VariantOverride) (*VariantConfig, error) {
	if issues := ValidateOverride(explicit); HasErrors(issues) {
		return nil, NewConfigError("override", model+"/"+v.String(), JoinIssues(issues))
	}
	var (
		cfg    = r.cfg
		mc     = cfg.Model(model)
		layers = []struct {
			layer Layer
			o     *VariantOverride
		}{
			{LayerVariantDefault, variantDefaults(v)},
			{LayerGlobalVariant, cfg.Variants[v]},
			{LayerGlobalExclusion, &VariantOverride{Exclude: cfg.GlobalExclusions[v]}},
			{LayerModel, nil},
			{LayerModelVariant, nil},
			{LayerExplicit, explicit},
		}
	)
	if mc != nil {
		layers[3].o = &VariantOverride{Exclude: mc.Fields.Exclude, Include: mc.Fields.Include}
		layers[4].o = mc.Variants[v]
	}
	var (
		merged *VariantOverride
		rules  []ExclusionRule
	)
	for _, l := range layers {
		if l.o == nil {
			continue
		}
		merged = MergeOverrides(merged, l.o)
		for _, p := range l.o.Exclude {
			rule, err := newRule(p, false, l.layer)
			if err != nil {
				return nil, err
			}
			rules = append(rules, rule)
		}
		for _, p := range l.o.Include {
			rule, err := newRule(p, true, l.layer)
			if err != nil {
				return nil, err
			}
			rules = append(rules, rule)
		}
	}
	vc := &VariantConfig{
		Model:   model,
		Variant: v,
		Enabled: cfg.ModelEnabled(model) && cfg.VariantEnabled(model, v),
		Naming:  resolveNaming(merged.Naming, cfg.Naming.Casing),
		Exclusions: FieldExclusions{
			Rules:         rules,
			AutoGenerated: deref(merged.AutoExclude),
		},
		Validations: make(map[string]FieldValidation, len(merged.Validations)),
		Options: SchemaOptions{
			Documentation:            deref(merged.Documentation),
			EmitTypes:                deref(merged.EmitTypes),
			Strictness:               deref(merged.Strictness),
			IncludeRelations:         deref(merged.IncludeRelations),
			ExcludeCircularRelations: deref(merged.ExcludeCircularRelations),
			DateTimeStrategy:         deref(merged.DateTimeStrategy),
		},
		Priority: deref(merged.Priority),
	}
	if explicit != nil && explicit.Enabled != nil {
		vc.Enabled = *explicit.Enabled
	}
	for name, fv := range merged.Validations {
		vc.Validations[name] = FieldValidation{
			Expressions:    slices.Clone(fv.Expressions),
			DisableInline:  deref(fv.DisableInline),
			CustomTemplate: deref(fv.CustomTemplate),
		}
	}
	return vc, nil
}

func newRule(pattern string, include bool, layer Layer) (ExclusionRule, error) {
	m, err := compileMatcher(pattern)
	if err != nil {
		return ExclusionRule{}, NewConfigError("Exclude", pattern, err.Error())
	}
	return ExclusionRule{Pattern: pattern, Include: include, Layer: layer, matcher: m}, nil
}

func resolveNaming(n *NamingOverride, casing Casing) NamingConfig {
	nc := NamingConfig{Casing: casing}
	if n == nil {
		return nc
	}
	nc.FileSuffix = deref(n.FileSuffix)
	nc.SchemaSuffix = deref(n.SchemaSuffix)
	nc.TypeSuffix = deref(n.TypeSuffix)
	nc.Prefix = deref(n.Prefix)
	nc.Directory = deref(n.Directory)
	if n.Casing != nil {
		nc.Casing = *n.Casing
	}
	return nc
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}

// EffectiveExclusions partitions the candidate field names of a model into
// excluded and included fields for the variant.
func (r *Resolver) EffectiveExclusions(model string, v VariantType, candidates []string, explicit *VariantOverride) (*ExclusionResult, error) {
	vc, err := r.EffectiveConfig(model, v, explicit)
	if err != nil {
		return nil, err
	}
	var m *load.Model
	if r.doc != nil {
		m = r.doc.Model(model)
	}
	res := &ExclusionResult{Reasons: make(map[string][]string, len(candidates))}
	for _, name := range candidates {
		var f *load.Field
		if m != nil {
			f = m.Field(name)
		}
		excluded, reasons := vc.decide(name, f)
		res.Reasons[name] = reasons
		if excluded {
			res.Excluded = append(res.Excluded, name)
		} else {
			res.Included = append(res.Included, name)
		}
	}
	for _, rule := range vc.Exclusions.Rules {
		if rule.Layer < LayerModel || rule.IsPattern() || slices.Contains(candidates, rule.Pattern) {
			continue
		}
		res.Warnings = append(res.Warnings, fmt.Sprintf("%s: rule %q (%s) names no field of the model", model, rule.Pattern, rule.Layer))
	}
	return res, nil
}

// EffectiveValidations returns the validation customization of one field.
func (r *Resolver) EffectiveValidations(model string, v VariantType, field string, explicit *VariantOverride) (FieldValidation, error) {
	vc, err := r.EffectiveConfig(model, v, explicit)
	if err != nil {
		return FieldValidation{}, err
	}
	return vc.Validation(field), nil
}

// Validation returns the validation customization of one field.
func (vc *VariantConfig) Validation(field string) FieldValidation {
	fv := vc.Validations[field]
	fv.Expressions = slices.Clone(fv.Expressions)
	return fv
}

// Excludes reports if the field is hidden in the variant.
func (vc *VariantConfig) Excludes(f *load.Field) bool {
	excluded, _ := vc.decide(f.Name, f)
	return excluded
}

// decide applies the rules to a field. The highest-layer matching rule wins
// and an include rule wins over an exclude rule of the same layer. The
// auto-generated heuristic counts as a variant-default exclude rule.
func (vc *VariantConfig) decide(name string, f *load.Field) (bool, []string) {
	var (
		reasons []string
		winner  *ExclusionRule
	)
	if vc.Exclusions.AutoGenerated && isAutoGenerated(name, f) {
		winner = &ExclusionRule{Pattern: name, Layer: LayerVariantDefault}
		reasons = append(reasons, "excluded as auto-generated field ("+LayerVariantDefault.String()+")")
	}
	for i := range vc.Exclusions.Rules {
		rule := &vc.Exclusions.Rules[i]
		if !rule.Matches(name) {
			continue
		}
		reasons = append(reasons, rule.String())
		switch {
		case winner == nil, rule.Layer > winner.Layer:
			winner = rule
		case rule.Layer == winner.Layer && rule.Include:
			winner = rule
		}
	}
	if winner == nil {
		return false, append(reasons, "included: no rule matched")
	}
	if winner.Include {
		return false, append(reasons, "included: "+winner.Layer.String()+" wins")
	}
	return true, append(reasons, "excluded: "+winner.Layer.String()+" wins")
}

func isAutoGenerated(name string, f *load.Field) bool {
	if f != nil && (f.IsID || f.IsUpdatedAt) {
		return true
	}
	_, ok := autoGeneratedFields[name]
	return ok
}

// overrideDigest is the hashed form of an override. Validations are moved
// out of the map into a slice sorted by field, msgpack only sorting the keys
// of its builtin map types.
type overrideDigest struct {
	Override    VariantOverride
	Validations []validationDigest
}

type validationDigest struct {
	Field    string
	Override *FieldValidationOverride
}

// HashOverride returns a stable hash of an override payload. Equal payloads
// always hash equally.
func HashOverride(o *VariantOverride) (string, error) {
	if o == nil {
		return "-", nil
	}
	d := overrideDigest{Override: *o}
	d.Override.Validations = nil
	for _, field := range sortedKeys(o.Validations) {
		d.Validations = append(d.Validations, validationDigest{Field: field, Override: o.Validations[field]})
	}
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetSortMapKeys(true)
	if err := enc.Encode(&d); err != nil {
		return "", fmt.Errorf("zodgen: hash override: %w", err)
	}
	h := fnv.New64a()
	_, _ = h.Write(buf.Bytes())
	return hex.EncodeToString(h.Sum(nil)), nil
}
