package gen

import (
	"strings"
)

// =============================================================================
// Emitter interfaces
// =============================================================================

// ObjectSchema is the input of a variant or operation module body.
type ObjectSchema struct {
	SchemaName  string
	TypeName    string
	Description string
	Properties  Object
	Options     SchemaOptions
}

// EnumSchema is the input of an enum module body.
type EnumSchema struct {
	SchemaName  string
	TypeName    string
	Description string
	Values      []string
}

// VariantEmitter renders the body of a variant module.
type VariantEmitter interface {
	EmitVariant(s *ObjectSchema) string
}

// EnumEmitter renders the body of an enum module.
type EnumEmitter interface {
	EmitEnum(s *EnumSchema) string
}

// OperationEmitter renders the body of a CRUD envelope module.
// It is optional; without it no envelopes are generated.
type OperationEmitter interface {
	EmitOperation(op Operation, s *ObjectSchema) string
}

// BarrelEmitter renders the body of a barrel module.
// It is optional; without it no barrels are generated.
type BarrelEmitter interface {
	EmitBarrel(specifiers []string) string
}

// HelpersEmitter renders the helper schemas shared by generated modules.
type HelpersEmitter interface {
	EmitHelpers() string
}

// MinimalEmitter is the minimum an emitter must implement.
type MinimalEmitter interface {
	// Name returns the target name, e.g. "zod".
	Name() string
	VariantEmitter
	EnumEmitter
}

// Emitter is the full emitter interface.
type Emitter interface {
	MinimalEmitter
	OperationEmitter
	BarrelEmitter
	HelpersEmitter
}

// =============================================================================
// Zod
// =============================================================================

// ZodEmitter renders modules in zod syntax.
type ZodEmitter struct{}

var _ Emitter = (*ZodEmitter)(nil)

// NewZodEmitter returns the zod emitter.
func NewZodEmitter() *ZodEmitter { return &ZodEmitter{} }

// Name implements MinimalEmitter.
func (*ZodEmitter) Name() string { return "zod" }

// EmitVariant implements VariantEmitter.
func (z *ZodEmitter) EmitVariant(s *ObjectSchema) string {
	plain, lazy := s.Properties.Split()
	if len(lazy) > 0 {
		return z.emitRecursive(s, plain, lazy)
	}
	var b strings.Builder
	if s.Options.Documentation {
		writeDoc(&b, s.Description)
	}
	z.declare(&b, s.SchemaName, strictness(Z("object", s.Properties), s.Options))
	if s.Options.EmitTypes {
		z.inferType(&b, s.TypeName, s.SchemaName)
	}
	return b.String()
}

// emitRecursive renders a schema with lazy references, which may lead back
// to the schema itself. TypeScript cannot infer such a constant from its own
// initializer, so the lazy properties extend a base object and the type is
// spelled out.
func (z *ZodEmitter) emitRecursive(s *ObjectSchema, plain, lazy Object) string {
	base := s.SchemaName + "Base"
	var b strings.Builder
	b.WriteString("const ")
	b.WriteString(base)
	b.WriteString(" = ")
	b.WriteString(Z("object", plain).String())
	b.WriteString(";\n\nexport type ")
	b.WriteString(s.TypeName)
	b.WriteString(" = z.infer<typeof ")
	b.WriteString(base)
	b.WriteString("> & {\n")
	for _, p := range lazy {
		b.WriteString("  ")
		b.WriteString(propertyKey(p.Key))
		if p.Optional {
			b.WriteByte('?')
		}
		b.WriteString(": ")
		b.WriteString(p.Type)
		b.WriteString(";\n")
	}
	b.WriteString("};\n\n")
	if s.Options.Documentation {
		writeDoc(&b, s.Description)
	}
	b.WriteString("export const ")
	b.WriteString(s.SchemaName)
	b.WriteString(": z.ZodType<")
	b.WriteString(s.TypeName)
	b.WriteString("> = ")
	b.WriteString(strictness(Ref(base).Method("extend", lazy), s.Options).String())
	b.WriteString(";\n")
	return b.String()
}

func strictness(e *Expr, opts SchemaOptions) *Expr {
	switch opts.Strictness {
	case StrictnessStrict:
		return e.Method("strict")
	case StrictnessPassthrough:
		return e.Method("passthrough")
	}
	return e
}

// EmitEnum implements EnumEmitter.
func (z *ZodEmitter) EmitEnum(s *EnumSchema) string {
	values := make(List, len(s.Values))
	for i, v := range s.Values {
		values[i] = Str(v)
	}
	var b strings.Builder
	writeDoc(&b, s.Description)
	z.declare(&b, s.SchemaName, Z("enum", values))
	if s.TypeName != "" {
		z.inferType(&b, s.TypeName, s.SchemaName)
	}
	return b.String()
}

// EmitOperation implements OperationEmitter.
func (z *ZodEmitter) EmitOperation(op Operation, s *ObjectSchema) string {
	var b strings.Builder
	writeDoc(&b, s.Description)
	z.declare(&b, s.SchemaName, Z("object", s.Properties).Method("strict"))
	z.inferType(&b, s.TypeName, s.SchemaName)
	return b.String()
}

// EmitBarrel implements BarrelEmitter.
func (*ZodEmitter) EmitBarrel(specifiers []string) string {
	var b strings.Builder
	for _, s := range specifiers {
		b.WriteString("export * from ")
		b.WriteString(quote(s))
		b.WriteString(";\n")
	}
	return b.String()
}

// EmitHelpers implements HelpersEmitter.
func (*ZodEmitter) EmitHelpers() string {
	return `type Literal = string | number | boolean | null;
type JsonValue = Literal | JsonValue[] | { [key: string]: JsonValue };

const LiteralSchema = z.union([z.string(), z.number(), z.boolean(), z.null()]);

export const ` + JSONValueSchema + `: z.ZodType<JsonValue> = z.lazy(() =>
  z.union([LiteralSchema, z.array(` + JSONValueSchema + `), z.record(` + JSONValueSchema + `)]),
);
`
}

func (*ZodEmitter) declare(b *strings.Builder, name string, e *Expr) {
	b.WriteString("export const ")
	b.WriteString(name)
	b.WriteString(" = ")
	b.WriteString(e.String())
	b.WriteString(";\n")
}

func (*ZodEmitter) inferType(b *strings.Builder, typeName, schemaName string) {
	b.WriteString("\nexport type ")
	b.WriteString(typeName)
	b.WriteString(" = z.infer<typeof ")
	b.WriteString(schemaName)
	b.WriteString(">;\n")
}

func writeDoc(b *strings.Builder, doc string) {
	doc = strings.ReplaceAll(strings.TrimSpace(doc), "*/", "*\\/")
	if doc == "" {
		return
	}
	b.WriteString("/**\n")
	for _, line := range strings.Split(doc, "\n") {
		b.WriteString(" * ")
		b.WriteString(strings.TrimSpace(line))
		b.WriteByte('\n')
	}
	b.WriteString(" */\n")
}

// stripAnnotations removes the @zod chains from a documentation string.
func stripAnnotations(doc string) string {
	var lines []string
	for _, line := range strings.Split(doc, "\n") {
		if i := strings.Index(line, "@zod"); i >= 0 {
			line = line[:i]
		}
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}
