package gen

import (
	"path"
	"path/filepath"
	"slices"
	"sort"
	"strings"
)

// ModuleKind is the kind of a generated module.
type ModuleKind uint8

// Module kinds.
const (
	ModuleVariant ModuleKind = iota
	ModuleEnum
	ModuleOperation
	ModuleHelpers
	ModuleBarrel
)

var moduleKindNames = [...]string{
	ModuleVariant:   "variant",
	ModuleEnum:      "enum",
	ModuleOperation: "operation",
	ModuleHelpers:   "helpers",
	ModuleBarrel:    "barrel",
}

func (k ModuleKind) String() string {
	if int(k) < len(moduleKindNames) {
		return moduleKindNames[k]
	}
	return "unknown"
}

// DefaultHeader is written at the top of every module when no header is configured.
const DefaultHeader = "Code generated by zodgen. DO NOT EDIT."

// Module is the descriptor of one generated module.
type Module struct {
	Kind ModuleKind
	// Path is the file path relative to the output root.
	Path    string
	Model   string
	Variant VariantType
	// Naming is set for variant, enum and operation modules.
	Naming *NamingResult
	// Imports are the identifiers the module imports.
	Imports []Import
	// Exports are the value and type identifiers the module declares.
	Exports []string
	// ReExports are the module paths a barrel re-exports.
	ReExports []string
	// Dependencies are the models the module references.
	Dependencies []string
	// Body is the rendered declarations, without header and imports.
	Body string
	// Content is the complete module text.
	Content string
}

// ModulePath returns the module path without extension, as used in import
// specifiers.
func (m *Module) ModulePath() string {
	return strings.TrimSuffix(m.Path, path.Ext(m.Path))
}

// AddImport records an import once.
func (m *Module) AddImport(imp Import) {
	if imp.Module == "" || imp.Name == "" || slices.Contains(m.Imports, imp) {
		return
	}
	m.Imports = append(m.Imports, imp)
}

// AddDependency records a model dependency once. Self references are ignored.
func (m *Module) AddDependency(model string) {
	if model == m.Model || slices.Contains(m.Dependencies, model) {
		return
	}
	m.Dependencies = append(m.Dependencies, model)
}

// render assembles the header, the import block and the body into Content.
func (m *Module) render(header, ext string) {
	var b strings.Builder
	if header == "" {
		header = DefaultHeader
	}
	for _, line := range strings.Split(strings.TrimSpace(header), "\n") {
		b.WriteString("// ")
		b.WriteString(strings.TrimSpace(line))
		b.WriteByte('\n')
	}
	b.WriteByte('\n')
	if imports := m.importBlock(ext); imports != "" {
		b.WriteString(imports)
		b.WriteByte('\n')
	}
	b.WriteString(strings.TrimRight(m.Body, "\n"))
	b.WriteByte('\n')
	m.Content = b.String()
}

// importBlock renders one import statement per source module. External
// modules come first, then relative ones, each sorted by specifier.
func (m *Module) importBlock(ext string) string {
	type group struct {
		specifier string
		external  bool
		names     []string
	}
	groups := make(map[string]*group)
	for _, imp := range m.Imports {
		if !imp.External && imp.Module == m.ModulePath() {
			continue
		}
		specifier := imp.Module
		if !imp.External {
			specifier = importSpecifier(m.ModulePath(), imp.Module, ext)
		}
		g, ok := groups[specifier]
		if !ok {
			g = &group{specifier: specifier, external: imp.External}
			groups[specifier] = g
		}
		if !slices.Contains(g.names, imp.Name) {
			g.names = append(g.names, imp.Name)
		}
	}
	list := make([]*group, 0, len(groups))
	for _, g := range groups {
		sort.Strings(g.names)
		list = append(list, g)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].external != list[j].external {
			return list[i].external
		}
		return list[i].specifier < list[j].specifier
	})
	var b strings.Builder
	for _, g := range list {
		b.WriteString("import { ")
		b.WriteString(strings.Join(g.names, ", "))
		b.WriteString(" } from ")
		b.WriteString(quote(g.specifier))
		b.WriteString(";\n")
	}
	return b.String()
}

// importSpecifier returns the relative specifier of module to, imported from
// module from. Both are paths relative to the output root.
func importSpecifier(from, to, ext string) string {
	rel, err := filepath.Rel(filepath.Dir(filepath.FromSlash(from)), filepath.FromSlash(to))
	if err != nil {
		rel = to
	}
	rel = filepath.ToSlash(rel)
	if !strings.HasPrefix(rel, ".") {
		rel = "./" + rel
	}
	return rel + ext
}

// specifierTarget resolves a relative specifier found in module from back to
// a module path relative to the output root.
func specifierTarget(from, specifier, ext string) string {
	specifier = strings.TrimSuffix(specifier, ext)
	return path.Clean(path.Join(path.Dir(from), specifier))
}
