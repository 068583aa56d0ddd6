package gen

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/syssam/zodgen/compiler/load"
)

// VariantOutcome is the outcome of generating one variant of one model.
type VariantOutcome struct {
	Variant VariantType
	Config  *VariantConfig
	Module  *Module
	// Fields are the emitted fields in declaration order.
	Fields []string
	// Excluded are the fields hidden by the exclusion rules or by relation
	// options, with their reasons.
	Excluded map[string]string
	// Dropped are the relation fields removed to break cycles.
	Dropped []string
}

// CrossVariantRef records a module of a model referencing another variant of
// the same model.
type CrossVariantRef struct {
	From       string
	Variant    VariantType
	Identifier string
}

// Summary is the per-model generation summary.
type Summary struct {
	Succeeded int
	Failed    int
	Duration  time.Duration
}

// ModelVariantCollection holds everything generated for one model.
type ModelVariantCollection struct {
	Model string
	// Pure, Input and Result are nil when the variant is disabled or failed.
	Pure   *VariantOutcome
	Input  *VariantOutcome
	Result *VariantOutcome
	// Operations are the CRUD envelope modules.
	Operations []*Module
	// Dependencies are the models referenced by any module of the model.
	Dependencies []string
	// CrossVariantRefs lists the variant schemas used by the envelopes.
	CrossVariantRefs []CrossVariantRef
	Summary          Summary
	Errors           []error
	Warnings         []string
}

// Variant returns the result of one variant, or nil.
func (c *ModelVariantCollection) Variant(v VariantType) *VariantOutcome {
	switch v {
	case VariantPure:
		return c.Pure
	case VariantInput:
		return c.Input
	case VariantResult:
		return c.Result
	}
	return nil
}

func (c *ModelVariantCollection) setVariant(r *VariantOutcome) {
	switch r.Variant {
	case VariantPure:
		c.Pure = r
	case VariantInput:
		c.Input = r
	case VariantResult:
		c.Result = r
	}
}

// Modules returns the variant and operation modules of the model.
func (c *ModelVariantCollection) Modules() []*Module {
	var mods []*Module
	for _, v := range AllVariants {
		if r := c.Variant(v); r != nil && r.Module != nil {
			mods = append(mods, r.Module)
		}
	}
	return append(mods, c.Operations...)
}

// Statistics summarizes a generation run.
type Statistics struct {
	RunID       string
	Models      int
	Variants    int
	Succeeded   int
	Failed      int
	Enums       int
	Operations  int
	Duration    time.Duration
	CacheHits   int64
	CacheMisses int64
}

// Result is the outcome of a generation run. Errors and warnings are
// collected, never raised mid-run.
type Result struct {
	Collections []*ModelVariantCollection
	Enums       []*Module
	// Helpers is the shared helper module, set when a Json field is used.
	Helpers *Module
	// Directories maps every variant to its output directory.
	Directories map[VariantType]string
	Statistics  Statistics
	Issues      []ConfigIssue
	Errors      []error
	Warnings    []string
}

// Collection returns the collection of a model, or nil.
func (r *Result) Collection(model string) *ModelVariantCollection {
	for _, c := range r.Collections {
		if c.Model == model {
			return c
		}
	}
	return nil
}

// Modules returns every generated module: variants and envelopes in model
// order, then enums and helpers.
func (r *Result) Modules() []*Module {
	var mods []*Module
	for _, c := range r.Collections {
		mods = append(mods, c.Modules()...)
	}
	mods = append(mods, r.Enums...)
	if r.Helpers != nil {
		mods = append(mods, r.Helpers)
	}
	return mods
}

// Err joins the collected errors.
func (r *Result) Err() error { return errors.Join(r.Errors...) }

// Coordinator orchestrates the generation of every variant of every model.
type Coordinator struct {
	cfg      *Config
	resolver *Resolver
	naming   *NamingSystem
	mapper   *TypeMapper
	emitter  MinimalEmitter
	log      *slog.Logger

	// Optional emitter capabilities detected at runtime
	opEmitter      OperationEmitter
	helpersEmitter HelpersEmitter

	progressMu sync.Mutex
	progress   func(*ModelVariantCollection)
}

// NewCoordinator creates a coordinator emitting zod modules.
//
// Example:
//
//	cfg, err := gen.NewConfig(gen.WithMode(gen.ModeMinimal))
//	if err != nil {
//		return err
//	}
//	c, err := gen.NewCoordinator(cfg)
//	if err != nil {
//		return err
//	}
//	res, err := c.GenerateAllVariants(ctx, doc)
func NewCoordinator(cfg *Config) (*Coordinator, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	cfg.withDefaults()
	resolver, err := NewResolver(cfg, nil)
	if err != nil {
		return nil, err
	}
	c := &Coordinator{
		cfg:      cfg,
		resolver: resolver,
		naming:   NewNamingSystem(cfg),
		mapper:   NewTypeMapper(cfg),
		log:      cfg.Logger,
	}
	c.WithEmitter(NewZodEmitter())
	return c, nil
}

// WithEmitter sets the emitter. Operation envelopes and helpers are only
// generated when the emitter supports them.
func (c *Coordinator) WithEmitter(e MinimalEmitter) *Coordinator {
	if e == nil {
		return c
	}
	c.emitter = e
	c.opEmitter, _ = e.(OperationEmitter)
	c.helpersEmitter, _ = e.(HelpersEmitter)
	return c
}

// OnModelDone registers a callback invoked after each model is published.
// Calls are serialized.
func (c *Coordinator) OnModelDone(fn func(*ModelVariantCollection)) *Coordinator {
	c.progress = fn
	return c
}

// Resolver returns the configuration resolver.
func (c *Coordinator) Resolver() *Resolver { return c.resolver }

// Naming returns the naming system of the coordinator.
func (c *Coordinator) Naming() *NamingSystem { return c.naming }

// Close releases the resolver cache.
func (c *Coordinator) Close() { c.resolver.Close() }

// unit is one (model, variant) pair planned for rendering.
type unit struct {
	vc    *VariantConfig
	names *NamingResult
}

// plan holds the names reserved before rendering.
type plan struct {
	doc      *load.Document
	scope    []string
	units    map[string]map[VariantType]*unit
	ops      map[string][]opUnit
	enums    map[string]*NamingResult
	circular *CircularResolution
	errs     map[string][]error
	warnings []string
}

type opUnit struct {
	op    Operation
	names *NamingResult
}

func (p *plan) lookup(v VariantType) func(load.Kind, string) (Reference, bool) {
	return func(kind load.Kind, name string) (Reference, bool) {
		if kind == load.KindEnum {
			n, ok := p.enums[name]
			if !ok {
				return Reference{}, false
			}
			return Reference{Identifier: n.SchemaName, Module: n.ModulePath()}, true
		}
		u, ok := p.units[name][v]
		if !ok {
			return Reference{}, false
		}
		return Reference{Identifier: u.names.SchemaName, Module: u.names.ModulePath()}, true
	}
}

// GenerateAllVariants generates every enabled variant of every enabled model
// of the document, the envelopes of the enabled operations and the enums in
// use. Per (model, variant) failures are collected in the result. The
// returned error is only set for invalid configurations and cancellation;
// in the latter case the result holds the models completed so far.
func (c *Coordinator) GenerateAllVariants(ctx context.Context, doc *load.Document) (*Result, error) {
	start := time.Now()
	res := &Result{
		Directories: make(map[VariantType]string, len(AllVariants)),
		Statistics:  Statistics{RunID: uuid.NewString()},
	}
	log := c.log.With(slog.String("run", res.Statistics.RunID))
	if doc == nil {
		return nil, NewConfigError("document", nil, "model description cannot be nil")
	}
	res.Issues = c.cfg.Validate()
	if HasErrors(res.Issues) {
		err := NewConfigError("config", nil, JoinIssues(res.Issues))
		res.Errors = append(res.Errors, err)
		return res, err
	}
	for _, is := range res.Issues {
		res.Warnings = append(res.Warnings, is.String())
	}
	p, err := c.plan(doc)
	if err != nil {
		res.Errors = append(res.Errors, err)
		return res, err
	}
	res.Warnings = append(res.Warnings, p.warnings...)
	for _, v := range AllVariants {
		res.Directories[v] = resolveNaming(variantDefaults(v).Naming, c.cfg.Naming.Casing).Directory
		for _, m := range p.scope {
			if u := p.units[m][v]; u != nil {
				res.Directories[v] = u.names.Directory
				break
			}
		}
	}
	log.Info("generation started",
		slog.Int("models", len(p.scope)),
		slog.Bool("concurrent", c.cfg.Concurrent),
	)

	collections := make([]*ModelVariantCollection, len(p.scope))
	done := 0
	publish := func(i int, col *ModelVariantCollection) {
		c.progressMu.Lock()
		defer c.progressMu.Unlock()
		collections[i] = col
		done++
		log.Debug("model generated",
			slog.String("model", col.Model),
			slog.Int("succeeded", col.Summary.Succeeded),
			slog.Int("failed", col.Summary.Failed),
			slog.Int("done", done),
		)
		if c.progress != nil {
			c.progress(col)
		}
	}
	if c.cfg.Concurrent {
		err = c.fanOut(ctx, p, publish)
	} else {
		for i, name := range p.scope {
			if err = ctx.Err(); err != nil {
				break
			}
			publish(i, c.generateModel(p, name))
		}
	}
	for _, col := range collections {
		if col != nil {
			res.Collections = append(res.Collections, col)
		}
	}
	c.finish(p, res)
	res.Statistics.Duration = time.Since(start)
	if err != nil {
		log.Warn("generation canceled", slog.Int("completed", len(res.Collections)), slog.Any("error", err))
		return res, err
	}
	log.Info("generation finished",
		slog.Int("succeeded", res.Statistics.Succeeded),
		slog.Int("failed", res.Statistics.Failed),
		slog.Duration("duration", res.Statistics.Duration),
	)
	return res, nil
}

// fanOut renders the models concurrently. Each model is published once
// complete; cancellation stops scheduling new models.
func (c *Coordinator) fanOut(ctx context.Context, p *plan, publish func(int, *ModelVariantCollection)) error {
	workers := c.cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	errg, gctx := errgroup.WithContext(ctx)
	errg.SetLimit(workers)
	for i, name := range p.scope {
		if gctx.Err() != nil {
			break
		}
		errg.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
				publish(i, c.generateModel(p, name))
				return nil
			}
		})
	}
	if err := errg.Wait(); err != nil {
		return err
	}
	// Wait cancels gctx, only the caller's context tells a cancellation.
	return ctx.Err()
}

// GenerateModelVariants generates the variants and envelopes of one model.
// Names are reserved in the coordinator's naming system, so calling it twice
// for the same model without resetting the naming system yields suffixed names.
func (c *Coordinator) GenerateModelVariants(ctx context.Context, doc *load.Document, model string) (*ModelVariantCollection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if doc == nil || doc.Model(model) == nil {
		return nil, NewGenerationError(model, "", "model not found", nil)
	}
	p, err := c.plan(doc, model)
	if err != nil {
		return nil, err
	}
	col := c.generateModel(p, model)
	col.Warnings = append(p.warnings, col.Warnings...)
	return col, nil
}

// plan resolves the configuration of every unit, breaks relation cycles and
// reserves every name sequentially, in model order. Rendering afterwards
// does not touch the naming system, so sequential and concurrent runs
// produce the same names.
func (c *Coordinator) plan(doc *load.Document, only ...string) (*plan, error) {
	p := &plan{
		doc:   doc,
		units: make(map[string]map[VariantType]*unit),
		ops:   make(map[string][]opUnit),
		enums: make(map[string]*NamingResult),
		errs:  make(map[string][]error),
	}
	for _, m := range doc.Models {
		if c.cfg.ModelEnabled(m.Name) {
			p.scope = append(p.scope, m.Name)
		}
	}
	dg, err := NewDependencyGraph(doc, p.scope...)
	if err != nil {
		return nil, err
	}
	for _, e := range dg.Errors() {
		p.warnings = append(p.warnings, e.Error())
	}
	// Relations hidden from the pure variant by configuration take no part
	// in cycle breaking.
	visible, err := dg.Filter(func(e RelationEdge) bool {
		vc, err := c.resolver.EffectiveConfig(e.From, VariantPure, nil)
		return err != nil || !vc.Excludes(doc.Model(e.From).Field(e.Field))
	})
	if err != nil {
		return nil, err
	}
	if p.circular, err = (CircularResolver{}).Resolve(visible); err != nil {
		return nil, err
	}
	targets := p.scope
	if len(only) > 0 {
		targets = only
	}
	usedEnums := make(map[string]bool)
	for _, name := range targets {
		m := doc.Model(name)
		p.units[name] = make(map[VariantType]*unit)
		for _, v := range AllVariants {
			vc, err := c.resolver.EffectiveConfig(name, v, nil)
			if err != nil {
				p.errs[name] = append(p.errs[name], NewGenerationError(name, v.String(), "resolve config", err))
				continue
			}
			if !vc.Enabled {
				continue
			}
			names, err := c.naming.Generate(name, v, &vc.Naming)
			if err != nil {
				p.errs[name] = append(p.errs[name], NewGenerationError(name, v.String(), "reserve names", err))
				continue
			}
			if names.Warning != "" {
				p.warnings = append(p.warnings, names.Warning)
			}
			p.units[name][v] = &unit{vc: vc, names: names}
			for _, f := range m.Fields {
				if f.IsEnum() && !vc.Excludes(f) {
					usedEnums[f.Type] = true
				}
			}
		}
		if c.opEmitter == nil {
			continue
		}
		for _, op := range c.cfg.ModelOperations(name) {
			names, err := c.naming.NameOperation(name, op)
			if err != nil {
				p.errs[name] = append(p.errs[name], NewGenerationError(name, string(op), "reserve names", err))
				continue
			}
			p.ops[name] = append(p.ops[name], opUnit{op: op, names: names})
		}
	}
	for _, e := range doc.Enums {
		if !usedEnums[e.Name] {
			continue
		}
		names, err := c.naming.NameEnum(e.Name)
		if err != nil {
			p.warnings = append(p.warnings, fmt.Sprintf("enum %s: %v", e.Name, err))
			continue
		}
		p.enums[e.Name] = names
	}
	return p, nil
}

// generateModel renders the planned units of one model.
func (c *Coordinator) generateModel(p *plan, name string) *ModelVariantCollection {
	start := time.Now()
	m := p.doc.Model(name)
	col := &ModelVariantCollection{Model: name}
	for _, err := range p.errs[name] {
		col.Errors = append(col.Errors, err)
		col.Summary.Failed++
	}
	refs := make(map[VariantType]Reference)
	for _, v := range AllVariants {
		u := p.units[name][v]
		if u == nil {
			continue
		}
		r, err := c.renderVariant(p, m, u)
		if err != nil {
			col.Errors = append(col.Errors, NewGenerationError(name, v.String(), "render", err))
			col.Summary.Failed++
			continue
		}
		col.setVariant(r)
		col.Summary.Succeeded++
		refs[v] = Reference{Identifier: u.names.SchemaName, Module: u.names.ModulePath()}
		for _, d := range r.Module.Dependencies {
			if !slices.Contains(col.Dependencies, d) {
				col.Dependencies = append(col.Dependencies, d)
			}
		}
	}
	if c.opEmitter != nil {
		gen := NewOperationGenerator(c.cfg, c.opEmitter)
		for _, ou := range p.ops[name] {
			mod, reason := gen.Generate(m, ou.op, ou.names, refs)
			if mod == nil {
				col.Warnings = append(col.Warnings, fmt.Sprintf("%s.%s: envelope skipped: %s", name, ou.op, reason))
				continue
			}
			col.Operations = append(col.Operations, mod)
			for _, imp := range mod.Imports {
				for v, r := range refs {
					if imp.Name == r.Identifier && !slices.ContainsFunc(col.CrossVariantRefs, func(x CrossVariantRef) bool {
						return x.From == mod.Path && x.Identifier == r.Identifier
					}) {
						col.CrossVariantRefs = append(col.CrossVariantRefs, CrossVariantRef{From: mod.Path, Variant: v, Identifier: r.Identifier})
					}
				}
			}
		}
	}
	col.Summary.Duration = time.Since(start)
	return col
}

// renderVariant renders one (model, variant) module.
func (c *Coordinator) renderVariant(p *plan, m *load.Model, u *unit) (*VariantOutcome, error) {
	vc, names := u.vc, u.names
	r := &VariantOutcome{
		Variant:  vc.Variant,
		Config:   vc,
		Excluded: make(map[string]string),
	}
	mod := &Module{
		Kind:    ModuleVariant,
		Path:    names.FilePath,
		Model:   m.Name,
		Variant: vc.Variant,
		Naming:  names,
		Exports: []string{names.SchemaName},
	}
	if vc.Options.EmitTypes {
		mod.Exports = append(mod.Exports, names.TypeName)
	}
	mod.AddImport(Import{Name: "z", Module: c.cfg.ZodImport, External: true})
	ctx := &RenderContext{
		Model:    m,
		Variant:  vc.Variant,
		Config:   vc,
		Lazy:     c.cfg.LazyRelations,
		TypeName: names.TypeName,
		Lookup:   p.lookup(vc.Variant),
	}
	var props Object
	for _, f := range m.Fields {
		if reason := c.skip(p, vc, f); reason != "" {
			if reason == reasonCircular {
				r.Dropped = append(r.Dropped, f.Name)
			} else {
				r.Excluded[f.Name] = reason
			}
			continue
		}
		frag, err := c.mapper.RenderField(f, ctx)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", f.Name, err)
		}
		for _, imp := range frag.Imports {
			mod.AddImport(imp)
		}
		for _, d := range frag.Dependencies {
			mod.AddDependency(d)
		}
		prop := Property{Key: f.Name, Value: frag.Expr(), Type: frag.TypeScript(), Optional: frag.Optional}
		if vc.Options.Documentation {
			prop.Comment = stripAnnotations(f.Documentation)
		}
		props = append(props, prop)
		r.Fields = append(r.Fields, f.Name)
	}
	// A schema with lazy references always declares its type.
	if _, lazy := props.Split(); len(lazy) > 0 && !vc.Options.EmitTypes {
		mod.Exports = append(mod.Exports, names.TypeName)
	}
		mod.Body = c.emitter.EmitVariant(&ObjectSchema{
		SchemaName:  names.SchemaName,
		TypeName:    names.TypeName,
		Description: stripAnnotations(m.Documentation),
		Properties:  props,
		Options:     vc.Options,
	})
	mod.render(c.cfg.Header, c.cfg.ImportExtension)
	r.Module = mod
	return r, nil
}

const reasonCircular = "circular relation"

// skip returns why a field is left out of a variant, or "".
func (c *Coordinator) skip(p *plan, vc *VariantConfig, f *load.Field) string {
	if vc.Excludes(f) {
		return "excluded by configuration"
	}
	if !f.IsRelation() {
		return ""
	}
	switch {
	case !vc.Options.IncludeRelations:
		return "relations disabled"
	case !slices.Contains(p.scope, f.Type):
		return "related model not generated"
	case vc.Variant == VariantPure && vc.Options.ExcludeCircularRelations && !p.circular.Survives(vc.Model, f.Name):
		return reasonCircular
	}
	return ""
}

// finish renders the enum and helper modules and computes the statistics.
func (c *Coordinator) finish(p *plan, res *Result) {
	json := false
	for _, col := range res.Collections {
		res.Errors = append(res.Errors, col.Errors...)
		res.Warnings = append(res.Warnings, col.Warnings...)
		res.Statistics.Succeeded += col.Summary.Succeeded
		res.Statistics.Failed += col.Summary.Failed
		res.Statistics.Variants += col.Summary.Succeeded + col.Summary.Failed
		res.Statistics.Operations += len(col.Operations)
		for _, mod := range col.Modules() {
			for _, imp := range mod.Imports {
				if imp.Name == JSONValueSchema {
					json = true
				}
			}
		}
	}
	res.Statistics.Models = len(res.Collections)
	for _, e := range p.doc.Enums {
		names, ok := p.enums[e.Name]
		if !ok {
			continue
		}
		res.Enums = append(res.Enums, c.renderEnum(e, names))
	}
	res.Statistics.Enums = len(res.Enums)
	if json && c.helpersEmitter != nil {
		mod := &Module{
			Kind:    ModuleHelpers,
			Path:    c.cfg.HelpersImport + ".ts",
			Exports: []string{JSONValueSchema},
			Body:    c.helpersEmitter.EmitHelpers(),
		}
		mod.AddImport(Import{Name: "z", Module: c.cfg.ZodImport, External: true})
		mod.render(c.cfg.Header, c.cfg.ImportExtension)
		res.Helpers = mod
	}
	stats := c.resolver.Stats()
	res.Statistics.CacheHits = stats.Hits
	res.Statistics.CacheMisses = stats.Misses
}

func (c *Coordinator) renderEnum(e *load.Enum, names *NamingResult) *Module {
	values := make([]string, len(e.Values))
	for i, v := range e.Values {
		values[i] = v.Name
	}
	mod := &Module{
		Kind:    ModuleEnum,
		Path:    names.FilePath,
		Naming:  names,
		Exports: []string{names.SchemaName, names.TypeName},
		Body: c.emitter.EmitEnum(&EnumSchema{
			SchemaName:  names.SchemaName,
			TypeName:    names.TypeName,
			Description: stripAnnotations(e.Documentation),
			Values:      values,
		}),
	}
	mod.AddImport(Import{Name: "z", Module: c.cfg.ZodImport, External: true})
	mod.render(c.cfg.Header, c.cfg.ImportExtension)
	return mod
}
