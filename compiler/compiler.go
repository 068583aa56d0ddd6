// Package compiler runs the zodgen pipeline end to end: it loads a model
// description, generates every variant module, stitches the barrel
// exports, validates the import graph and writes the output.
package compiler

import (
	"context"
	"errors"
	"fmt"

	"github.com/syssam/zodgen/compiler/gen"
	"github.com/syssam/zodgen/compiler/load"
)

type (
	// Options configure a single pipeline run.
	Options struct {
		// Writer persists the modules. Nothing is written when nil.
		Writer gen.Writer
		// Emitter renders the modules. Defaults to the zod emitter.
		Emitter gen.MinimalEmitter
		// Progress is called after each model is generated.
		Progress func(*gen.ModelVariantCollection)
		// StrictExports fails the run when the export report has errors.
		StrictExports bool
	}

	// Option mutates the run options.
	Option func(*Options)

	// Output holds everything a run produced.
	Output struct {
		Result  *gen.Result
		Barrels []*gen.Module
		Report  *gen.ExportReport
	}
)

// WithWriter sets the writer the generated modules are handed to.
func WithWriter(w gen.Writer) Option {
	return func(o *Options) { o.Writer = w }
}

// WithEmitter overrides the module emitter.
func WithEmitter(e gen.MinimalEmitter) Option {
	return func(o *Options) { o.Emitter = e }
}

// WithProgress registers a per-model completion callback.
func WithProgress(fn func(*gen.ModelVariantCollection)) Option {
	return func(o *Options) { o.Progress = fn }
}

// WithStrictExports turns export validation errors into a run failure.
func WithStrictExports() Option {
	return func(o *Options) { o.StrictExports = true }
}

// Modules returns the generated modules followed by the barrels.
func (o *Output) Modules() []*gen.Module {
	if o == nil || o.Result == nil {
		return nil
	}
	return append(o.Result.Modules(), o.Barrels...)
}

// Generate loads the model description at path and runs the pipeline on it.
//
//	cfg, err := gen.NewConfig(gen.WithMode(gen.ModeMinimal))
//	if err != nil {
//		return err
//	}
//	out, err := compiler.Generate(ctx, "schema.json", cfg, compiler.WithWriter(gen.NewFSWriter("generated")))
func Generate(ctx context.Context, path string, cfg *gen.Config, opts ...Option) (*Output, error) {
	doc, err := load.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("zodgen: load %s: %w", path, err)
	}
	return GenerateDocument(ctx, doc, cfg, opts...)
}

// GenerateDocument runs the pipeline on an already loaded document.
// Failures of single models are collected in the result and do not fail
// the run; the returned error covers configuration, cancellation, strict
// export validation and writing.
func GenerateDocument(ctx context.Context, doc *load.Document, cfg *gen.Config, opts ...Option) (*Output, error) {
	o := &Options{}
	for _, opt := range opts {
		opt(o)
	}
	if cfg == nil {
		cfg = gen.DefaultConfig()
	}
	c, err := gen.NewCoordinator(cfg)
	if err != nil {
		return nil, err
	}
	defer c.Close()
	if o.Emitter != nil {
		c.WithEmitter(o.Emitter)
	}
	if o.Progress != nil {
		c.OnModelDone(o.Progress)
	}

	res, err := c.GenerateAllVariants(ctx, doc)
	out := &Output{Result: res}
	if err != nil {
		return out, err
	}

	be, ok := o.Emitter.(gen.BarrelEmitter)
	if o.Emitter == nil {
		be, ok = nil, true
	}
	em := gen.NewExportManager(cfg, be)
	if ok {
		out.Barrels = em.GenerateBarrelExports(res)
	}
	out.Report = em.ValidateExports(res, out.Barrels...)
	for _, w := range out.Report.Warnings {
		cfg.Logger.Warn("export validation", "warning", w)
	}
	if o.StrictExports && out.Report.HasErrors() {
		return out, errors.Join(out.Report.Errors()...)
	}

	if o.Writer != nil {
		if err := o.Writer.Write(ctx, out.Modules()); err != nil {
			return out, err
		}
	}
	return out, nil
}
