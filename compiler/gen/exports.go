package gen

import (
	"fmt"
	"log/slog"
	"path"
	"slices"
	"sort"
	"strings"
)

// ExportManager stitches generated modules together with barrel modules and
// checks the resulting import graph.
type ExportManager struct {
	emitter BarrelEmitter
	header  string
	ext     string
	log     *slog.Logger
}

// NewExportManager creates an export manager. A nil emitter defaults to zod.
func NewExportManager(cfg *Config, e BarrelEmitter) *ExportManager {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	cfg.withDefaults()
	if e == nil {
		e = NewZodEmitter()
	}
	return &ExportManager{emitter: e, header: cfg.Header, ext: cfg.ImportExtension, log: cfg.Logger}
}

// GenerateBarrelExports returns one barrel per variant directory, one for
// enums, one for operations and a top-level index re-exporting them. Empty
// barrels are not generated.
func (em *ExportManager) GenerateBarrelExports(res *Result) []*Module {
	var barrels []*Module
	for _, v := range AllVariants {
		var mods []*Module
		for _, c := range res.Collections {
			if r := c.Variant(v); r != nil && r.Module != nil {
				mods = append(mods, r.Module)
			}
		}
		if b := em.barrel(res.Directories[v], mods); b != nil {
			b.Variant = v
			barrels = append(barrels, b)
		}
	}
	if len(res.Enums) > 0 {
		barrels = append(barrels, em.barrel(moduleDir(res.Enums[0]), res.Enums))
	}
	var ops []*Module
	for _, c := range res.Collections {
		ops = append(ops, c.Operations...)
	}
	if len(ops) > 0 {
		barrels = append(barrels, em.barrel(moduleDir(ops[0]), ops))
	}
	if len(barrels) == 0 {
		return nil
	}
	top := make([]*Module, 0, len(barrels)+1)
	top = append(top, barrels...)
	if res.Helpers != nil {
		top = append(top, res.Helpers)
	}
	return append(barrels, em.barrel("", top))
}

// barrel builds the index module of dir re-exporting mods.
func (em *ExportManager) barrel(dir string, mods []*Module) *Module {
	if len(mods) == 0 {
		return nil
	}
	b := &Module{Kind: ModuleBarrel, Path: path.Join(dir, "index.ts")}
	for _, m := range mods {
		b.ReExports = append(b.ReExports, m.ModulePath())
		b.Exports = append(b.Exports, m.Exports...)
	}
	sort.Strings(b.ReExports)
	em.renderBarrel(b)
	return b
}

func (em *ExportManager) renderBarrel(b *Module) {
	specs := make([]string, len(b.ReExports))
	for i, target := range b.ReExports {
		specs[i] = importSpecifier(b.ModulePath(), target, em.ext)
	}
	b.Body = em.emitter.EmitBarrel(specs)
	b.render(em.header, em.ext)
}

func moduleDir(m *Module) string {
	if m.Naming != nil {
		return m.Naming.Directory
	}
	return path.Dir(m.Path)
}

// knownExternals are identifiers provided by external packages.
var knownExternals = map[string]bool{"z": true}

type (
	// ExportReport is the outcome of ValidateExports.
	ExportReport struct {
		// CircularDependencies lists each import cycle once, as a closed path
		// of module paths starting at its smallest member.
		CircularDependencies [][]string
		UnresolvedImports    []UnresolvedImport
		DuplicateExports     []DuplicateExport
		Warnings             []string
	}

	// UnresolvedImport is an import no generated module satisfies.
	UnresolvedImport struct {
		Module string
		Name   string
		From   string
	}

	// DuplicateExport is an identifier declared by more than one module.
	DuplicateExport struct {
		Identifier string
		Modules    []string
	}
)

// HasErrors reports if the report contains unresolved imports, duplicate
// exports or import cycles.
func (r *ExportReport) HasErrors() bool {
	return len(r.UnresolvedImports) > 0 || len(r.DuplicateExports) > 0 || len(r.CircularDependencies) > 0
}

// Errors converts the report findings into validation errors.
func (r *ExportReport) Errors() []error {
	var errs []error
	for _, u := range r.UnresolvedImports {
		errs = append(errs, NewValidationError(u.Module, u.Name, "unresolved import from "+u.From))
	}
	for _, d := range r.DuplicateExports {
		errs = append(errs, NewValidationError(strings.Join(d.Modules, ", "), d.Identifier, "exported more than once"))
	}
	for _, c := range r.CircularDependencies {
		errs = append(errs, NewValidationError(c[0], "", "import cycle: "+strings.Join(c, " -> ")))
	}
	return errs
}

// ValidateExports checks the generated modules, and the given barrels, for
// import cycles, unresolved imports and identifiers declared twice.
func (em *ExportManager) ValidateExports(res *Result, barrels ...*Module) *ExportReport {
	report := &ExportReport{}
	mods := append(res.Modules(), barrels...)
	byPath := make(map[string]*Module, len(mods))
	declared := make(map[string][]string)
	for _, m := range mods {
		byPath[m.ModulePath()] = m
		if m.Kind == ModuleBarrel {
			continue
		}
		for _, id := range m.Exports {
			declared[id] = append(declared[id], m.Path)
		}
	}
	for _, m := range mods {
		for _, imp := range m.Imports {
			if imp.External || knownExternals[imp.Name] {
				continue
			}
			target, ok := byPath[imp.Module]
			if !ok || !slices.Contains(target.Exports, imp.Name) {
				report.UnresolvedImports = append(report.UnresolvedImports, UnresolvedImport{
					Module: m.Path, Name: imp.Name, From: imp.Module,
				})
			}
		}
		for _, target := range m.ReExports {
			if _, ok := byPath[target]; !ok {
				report.Warnings = append(report.Warnings, fmt.Sprintf("%s re-exports missing module %s", m.Path, target))
			}
		}
	}
	ids := make([]string, 0, len(declared))
	for id := range declared {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		if paths := declared[id]; len(paths) > 1 {
			sort.Strings(paths)
			report.DuplicateExports = append(report.DuplicateExports, DuplicateExport{Identifier: id, Modules: paths})
		}
	}
	report.CircularDependencies = importCycles(mods)
	em.log.Debug("exports validated",
		slog.Int("modules", len(mods)),
		slog.Int("cycles", len(report.CircularDependencies)),
		slog.Int("unresolved", len(report.UnresolvedImports)),
		slog.Int("duplicates", len(report.DuplicateExports)),
	)
	return report
}

// importCycles finds the cycles of the module import graph with a depth-first
// search, keeping the full path of each cycle.
func importCycles(mods []*Module) [][]string {
	edges := make(map[string][]string, len(mods))
	nodes := make([]string, 0, len(mods))
	for _, m := range mods {
		from := m.ModulePath()
		nodes = append(nodes, from)
		var to []string
		for _, imp := range m.Imports {
			if !imp.External && imp.Module != from && !slices.Contains(to, imp.Module) {
				to = append(to, imp.Module)
			}
		}
		for _, target := range m.ReExports {
			if !slices.Contains(to, target) {
				to = append(to, target)
			}
		}
		sort.Strings(to)
		edges[from] = to
	}
	sort.Strings(nodes)
	const (
		white = iota
		grey
		black
	)
	var (
		color  = make(map[string]int, len(nodes))
		stack  []string
		seen   = make(map[string]bool)
		cycles [][]string
		visit  func(string)
	)
	visit = func(n string) {
		color[n] = grey
		stack = append(stack, n)
		for _, next := range edges[n] {
			switch color[next] {
			case grey:
				i := slices.Index(stack, next)
				cycle := canonicalCycle(stack[i:])
				if key := strings.Join(cycle, "\x00"); !seen[key] {
					seen[key] = true
					cycles = append(cycles, cycle)
				}
			case white:
				if _, ok := edges[next]; ok {
					visit(next)
				}
			}
		}
		stack = stack[:len(stack)-1]
		color[n] = black
	}
	for _, n := range nodes {
		if color[n] == white {
			visit(n)
		}
	}
	return cycles
}

// canonicalCycle rotates the cycle to start at its smallest member and closes it.
func canonicalCycle(path []string) []string {
	start := 0
	for i, n := range path {
		if n < path[start] {
			start = i
		}
	}
	out := make([]string, 0, len(path)+1)
	out = append(out, path[start:]...)
	out = append(out, path[:start]...)
	return append(out, out[0])
}

// RewriteImports rewrites the imports and re-exports of m targeting a moved
// module. moves maps old module paths to new ones, both without extension.
// The module is re-rendered and the number of rewritten references returned.
func (em *ExportManager) RewriteImports(m *Module, moves map[string]string) int {
	n := 0
	for i, imp := range m.Imports {
		if to, ok := moves[imp.Module]; ok && !imp.External {
			m.Imports[i].Module = to
			n++
		}
	}
	for i, target := range m.ReExports {
		if to, ok := moves[target]; ok {
			m.ReExports[i] = to
			n++
		}
	}
	if n == 0 {
		return 0
	}
	if m.Kind == ModuleBarrel {
		sort.Strings(m.ReExports)
		em.renderBarrel(m)
	} else {
		m.render(em.header, em.ext)
	}
	return n
}
