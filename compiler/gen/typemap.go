package gen

import (
	"errors"
	"slices"
	"strings"

	"github.com/syssam/zodgen/compiler/load"
)

// Import is one identifier a module needs from another module.
type Import struct {
	Name string
	// Module is the module path relative to the output root, without
	// extension, or a package specifier such as "zod" when External is set.
	Module   string
	External bool
}

// Reference locates the schema generated for a model or an enum.
type Reference struct {
	Identifier string
	Module     string
}

// RenderContext carries what the type mapper needs to know about the
// module a field is rendered into.
type RenderContext struct {
	Model   *load.Model
	Variant VariantType
	Config  *VariantConfig
	// Lazy renders cross-model references with z.lazy.
	Lazy bool
	// TypeName is the TypeScript type of the module being rendered. It types
	// self references.
	TypeName string
	// Lookup resolves the schema of a model (KindObject) or an enum
	// (KindEnum) for the variant being rendered.
	Lookup func(kind load.Kind, name string) (Reference, bool)
}

// Fragment is the rendered form of one field before serialization.
type Fragment struct {
	// Alternatives holds the element expressions. When Union is set they
	// are folded into z.union.
	Alternatives []*Expr
	Union        bool
	// List wraps the element in z.array, followed by ArrayCalls.
	List       bool
	ArrayCalls []Call
	Optional   bool
	Nullable   bool
	// Imports are the identifiers the enclosing module must import.
	Imports []Import
	// Dependencies are the models the field references.
	Dependencies []string
	// LazyTypes are the TypeScript types of the lazily referenced schemas.
	LazyTypes []string
}

// Expr folds the fragment into one expression. Optional and nullable are
// applied exactly once, after the union and the list wrapping.
func (f *Fragment) Expr() *Expr {
	var e *Expr
	switch {
	case len(f.Alternatives) == 0:
		e = Z("unknown")
	case len(f.Alternatives) == 1 || !f.Union:
		e = f.Alternatives[0]
	default:
		alts := make(List, len(f.Alternatives))
		for i, a := range f.Alternatives {
			alts[i] = a
		}
		e = Z("union", alts)
	}
	if f.List {
		e = Z("array", e).Chain(f.ArrayCalls...)
	}
	if f.Optional {
		e = e.Method("optional")
	}
	if f.Nullable {
		e = e.Method("nullable")
	}
	return e
}

// TypeScript returns the TypeScript type of a fragment holding lazy
// references, or "" when it holds none. Optionality is left to the key.
func (f *Fragment) TypeScript() string {
	if len(f.LazyTypes) == 0 {
		return ""
	}
	t := strings.Join(f.LazyTypes, " | ")
	if f.List {
		if len(f.LazyTypes) > 1 {
			t = "(" + t + ")"
		}
		t += "[]"
	}
	if f.Nullable {
		t += " | null"
	}
	return t
}

// String serializes the fragment.
func (f *Fragment) String() string { return f.Expr().String() }

// JSONValueSchema is the helper schema Json fields are rendered with.
const JSONValueSchema = "JsonValueSchema"

// TypeMapper renders model fields as validator expressions.
type TypeMapper struct {
	helpers string
}

// NewTypeMapper creates a type mapper for the configuration.
func NewTypeMapper(cfg *Config) *TypeMapper {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	cfg.withDefaults()
	return &TypeMapper{helpers: cfg.HelpersImport}
}

// RenderField renders one field. Unknown types fall back to z.unknown()
// and unusable annotations are dropped; neither is an error.
func (m *TypeMapper) RenderField(f *load.Field, ctx *RenderContext) (*Fragment, error) {
	if f == nil {
		return nil, errors.New("zodgen: render nil field")
	}
	if ctx == nil {
		ctx = &RenderContext{}
	}
	var (
		opts SchemaOptions
		fv   FieldValidation
	)
	if ctx.Config != nil {
		opts = ctx.Config.Options
		fv = ctx.Config.Validation(f.Name)
	}
	frag := &Fragment{List: f.IsList}
	frag.Optional, frag.Nullable = m.modifiers(f, ctx.Variant)

	var calls []Call
	if !fv.DisableInline {
		calls = parseAnnotations(f.Documentation)
	}
	calls = append(calls, parseExpressions(fv.Expressions)...)

	alternatives := []load.TypeRef{{Kind: f.Kind, Type: f.Type}}
	if len(f.Alternatives) > 1 {
		alternatives = f.Alternatives
	}
	for _, ref := range alternatives {
		if fv.CustomTemplate != "" {
			frag.Alternatives = append(frag.Alternatives, &Expr{Root: fv.CustomTemplate})
			break
		}
		elems := m.base(ref, f, ctx, opts, frag)
		for _, b := range elems {
			elemCalls, arrayCalls := filterCalls(calls, b.kind, f.IsList)
			frag.Alternatives = append(frag.Alternatives, b.expr.Chain(elemCalls...))
			if frag.ArrayCalls == nil {
				frag.ArrayCalls = arrayCalls
			}
		}
	}
	frag.Union = len(frag.Alternatives) > 1
	return frag, nil
}

// modifiers returns the optionality and nullability of a field in a variant.
func (m *TypeMapper) modifiers(f *load.Field, v VariantType) (optional, nullable bool) {
	nullable = f.IsNullable()
	switch v {
	case VariantInput:
		optional = !f.IsRequired || f.HasDefault || f.IsUpdatedAt
	default:
		optional = !f.IsRequired
	}
	return optional, nullable
}

type baseExpr struct {
	expr *Expr
	kind baseKind
}

// base renders the base expression of one alternative type. Decimal renders
// two alternatives.
func (m *TypeMapper) base(ref load.TypeRef, f *load.Field, ctx *RenderContext, opts SchemaOptions, frag *Fragment) []baseExpr {
	switch ref.Kind {
	case load.KindEnum:
		r := m.lookup(ctx, load.KindEnum, ref.Type)
		frag.addImport(Import{Name: r.Identifier, Module: r.Module})
		return []baseExpr{{Ref(r.Identifier), kindAny}}
	case load.KindObject:
		r := m.lookup(ctx, load.KindObject, ref.Type)
		self := ctx.Model != nil && ref.Type == ctx.Model.Name
		if !self {
			frag.addImport(Import{Name: r.Identifier, Module: r.Module})
			frag.addDependency(ref.Type)
		}
		if self || ctx.Lazy {
			typ := "z.infer<typeof " + r.Identifier + ">"
			if self && ctx.TypeName != "" {
				typ = ctx.TypeName
			}
			frag.LazyTypes = append(frag.LazyTypes, typ)
			return []baseExpr{{Z("lazy", Lazy{Ref(r.Identifier)}), kindAny}}
		}
		return []baseExpr{{Ref(r.Identifier), kindAny}}
	}
	switch ref.Type {
	case load.TypeString:
		return []baseExpr{{Z("string"), kindString}}
	case load.TypeInt:
		return []baseExpr{{Z("number").Method("int"), kindNumber}}
	case load.TypeFloat:
		return []baseExpr{{Z("number"), kindNumber}}
	case load.TypeBigInt:
		return []baseExpr{{Z("bigint"), kindBigInt}}
	case load.TypeDecimal:
		return []baseExpr{{Z("number"), kindNumber}, {Z("string"), kindString}}
	case load.TypeBoolean:
		return []baseExpr{{Z("boolean"), kindBoolean}}
	case load.TypeDateTime:
		switch opts.DateTimeStrategy {
		case DateTimeCoerce:
			return []baseExpr{{ZCoerce("date"), kindDate}}
		case DateTimeISO:
			return []baseExpr{{Z("string").Method("datetime"), kindString}}
		default:
			return []baseExpr{{Z("date"), kindDate}}
		}
	case load.TypeJSON:
		frag.addImport(Import{Name: JSONValueSchema, Module: m.helpers})
		return []baseExpr{{Ref(JSONValueSchema), kindAny}}
	case load.TypeBytes:
		return []baseExpr{{Z("instanceof", Ident("Uint8Array")), kindAny}}
	default:
		return []baseExpr{{Z("unknown"), kindAny}}
	}
}

// lookup resolves a reference, falling back to the default naming of the
// variant when the context cannot resolve it. Unresolved references surface
// later as unresolved imports.
func (m *TypeMapper) lookup(ctx *RenderContext, kind load.Kind, name string) Reference {
	if ctx.Lookup != nil {
		if r, ok := ctx.Lookup(kind, name); ok {
			return r
		}
	}
	if kind == load.KindEnum {
		return Reference{Identifier: normalizeName(name) + "Schema", Module: "enums/" + normalizeName(name) + ".schema"}
	}
	nc := resolveNaming(variantDefaults(ctx.Variant).Naming, CasingPascal)
	n := normalizeName(name)
	return Reference{
		Identifier: n + nc.SchemaSuffix,
		Module:     nc.Directory + "/" + n + nc.FileSuffix,
	}
}

func (f *Fragment) addImport(imp Import) {
	if imp.Module == "" || slices.Contains(f.Imports, imp) {
		return
	}
	f.Imports = append(f.Imports, imp)
}

func (f *Fragment) addDependency(model string) {
	if !slices.Contains(f.Dependencies, model) {
		f.Dependencies = append(f.Dependencies, model)
	}
}
