package gen

import (
	"fmt"

	"github.com/syssam/zodgen/compiler/load"
)

// OperationGenerator builds the envelope schemas of CRUD operations. An
// envelope wraps the variant schemas of its model and only references
// variants that were generated.
type OperationGenerator struct {
	emitter OperationEmitter
	cfg     *Config
}

// NewOperationGenerator creates an operation generator.
func NewOperationGenerator(cfg *Config, e OperationEmitter) *OperationGenerator {
	return &OperationGenerator{emitter: e, cfg: cfg}
}

// Generate renders the envelope of one operation. refs holds the generated
// variants of the model. It returns nil and a reason when the envelope has
// nothing to wrap.
func (g *OperationGenerator) Generate(m *load.Model, op Operation, names *NamingResult, refs map[VariantType]Reference) (*Module, string) {
	where, whereOK := pickRef(refs, VariantPure, VariantResult, VariantInput)
	data, dataOK := pickRef(refs, VariantInput, VariantPure)
	mod := &Module{
		Kind:    ModuleOperation,
		Path:    names.FilePath,
		Model:   m.Name,
		Variant: VariantInput,
		Naming:  names,
		Exports: []string{names.SchemaName, names.TypeName},
	}
	mod.AddImport(Import{Name: "z", Module: g.cfg.ZodImport, External: true})
	use := func(r Reference) *Expr {
		mod.AddImport(Import{Name: r.Identifier, Module: r.Module})
		return Ref(r.Identifier)
	}
	var (
		props  Object
		paging = func() {
			props = append(props,
				Property{Key: "take", Value: Z("number").Method("int").Method("optional")},
				Property{Key: "skip", Value: Z("number").Method("int").Method("nonnegative").Method("optional")},
			)
		}
	)
	switch op {
	case OpFindUnique, OpDelete:
		if !whereOK {
			return nil, "no variant to filter on"
		}
		props = Object{{Key: "where", Value: use(where).Method("partial")}}
	case OpFindFirst, OpFindMany, OpDeleteMany, OpCount:
		if !whereOK {
			return nil, "no variant to filter on"
		}
		props = Object{{Key: "where", Value: use(where).Method("partial").Method("optional")}}
		if op == OpFindFirst || op == OpFindMany {
			paging()
		}
	case OpCreate:
		if !dataOK {
			return nil, "no variant to take data from"
		}
		props = Object{{Key: "data", Value: use(data)}}
	case OpCreateMany:
		if !dataOK {
			return nil, "no variant to take data from"
		}
		props = Object{
			{Key: "data", Value: Z("array", use(data))},
			{Key: "skipDuplicates", Value: Z("boolean").Method("optional")},
		}
	case OpUpdate, OpUpdateMany:
		if !whereOK || !dataOK {
			return nil, "missing variants to filter on or take data from"
		}
		w := use(where).Method("partial")
		if op == OpUpdateMany {
			w = w.Method("optional")
		}
		props = Object{
			{Key: "where", Value: w},
			{Key: "data", Value: use(data).Method("partial")},
		}
	case OpUpsert:
		if !whereOK || !dataOK {
			return nil, "missing variants to filter on or take data from"
		}
		props = Object{
			{Key: "where", Value: use(where).Method("partial")},
			{Key: "create", Value: use(data)},
			{Key: "update", Value: use(data).Method("partial")},
		}
	case OpAggregate:
		if !whereOK {
			return nil, "no variant to filter on"
		}
		props = Object{
			{Key: "where", Value: use(where).Method("partial").Method("optional")},
			{Key: "_count", Value: Z("boolean").Method("optional")},
		}
		paging()
	case OpGroupBy:
		if !whereOK {
			return nil, "no variant to filter on"
		}
		var scalars List
		for _, f := range m.Fields {
			if !f.IsRelation() {
				scalars = append(scalars, Str(f.Name))
			}
		}
		if len(scalars) == 0 {
			return nil, "model has no scalar field to group by"
		}
		props = Object{
			{Key: "where", Value: use(where).Method("partial").Method("optional")},
			{Key: "by", Value: Z("array", Z("enum", scalars)).Method("nonempty")},
		}
	default:
		return nil, fmt.Sprintf("unknown operation %q", op)
	}
	mod.Body = g.emitter.EmitOperation(op, &ObjectSchema{
		SchemaName:  names.SchemaName,
		TypeName:    names.TypeName,
		Description: fmt.Sprintf("Arguments of %s.%s.", camel(m.Name), op),
		Properties:  props,
	})
	mod.render(g.cfg.Header, g.cfg.ImportExtension)
	return mod, ""
}

func pickRef(refs map[VariantType]Reference, prefer ...VariantType) (Reference, bool) {
	for _, v := range prefer {
		if r, ok := refs[v]; ok {
			return r, true
		}
	}
	return Reference{}, false
}
