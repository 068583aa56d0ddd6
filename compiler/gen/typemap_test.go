package gen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/zodgen/compiler/load"
)

func scalar(name, typ string, required bool) *load.Field {
	return &load.Field{Name: name, Kind: load.KindScalar, Type: typ, IsRequired: required}
}

func TestRenderFieldScalars(t *testing.T) {
	m := NewTypeMapper(nil)

	tests := []struct {
		name     string
		field    *load.Field
		expected string
	}{
		{"required int", scalar("id", load.TypeInt, true), "z.number().int()"},
		{"optional string", scalar("name", load.TypeString, false), "z.string().optional().nullable()"},
		{"float", scalar("score", load.TypeFloat, true), "z.number()"},
		{"bigint", scalar("big", load.TypeBigInt, true), "z.bigint()"},
		{"boolean", scalar("active", load.TypeBoolean, true), "z.boolean()"},
		{"bytes", scalar("blob", load.TypeBytes, true), "z.instanceof(Uint8Array)"},
		{"decimal", scalar("price", load.TypeDecimal, true), "z.union([z.number(), z.string()])"},
		{"unknown type", scalar("geo", "Unsupported", true), "z.unknown()"},
		{"string list", &load.Field{Name: "tags", Type: load.TypeString, IsList: true, IsRequired: true}, "z.array(z.string())"},
		{"explicit not nullable", &load.Field{Name: "nick", Type: load.TypeString, Nullable: ptr(false)}, "z.string().optional()"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frag, err := m.RenderField(tt.field, &RenderContext{Variant: VariantPure})
			require.NoError(t, err)
			assert.Equal(t, tt.expected, frag.String())
			assert.Empty(t, frag.Imports)
		})
	}
}

func TestRenderFieldModifiersOnce(t *testing.T) {
	m := NewTypeMapper(nil)
	f := &load.Field{Name: "price", Type: load.TypeDecimal, Nullable: ptr(true)}

	frag, err := m.RenderField(f, &RenderContext{Variant: VariantPure})
	require.NoError(t, err)

	e := frag.Expr()
	assert.Equal(t, 1, e.Count("optional"))
	assert.Equal(t, 1, e.Count("nullable"))
	assert.Equal(t, "z.union([z.number(), z.string()]).optional().nullable()", e.String())
}

func TestRenderFieldVariants(t *testing.T) {
	m := NewTypeMapper(nil)

	tests := []struct {
		name     string
		variant  VariantType
		field    *load.Field
		expected string
	}{
		{"input default", VariantInput, &load.Field{Name: "role", Type: load.TypeString, IsRequired: true, HasDefault: true}, "z.string().optional()"},
		{"input updatedAt", VariantInput, &load.Field{Name: "touched", Type: load.TypeBoolean, IsRequired: true, IsUpdatedAt: true}, "z.boolean().optional()"},
		{"input required", VariantInput, scalar("email", load.TypeString, true), "z.string()"},
		{"result optional", VariantResult, scalar("bio", load.TypeString, false), "z.string().optional().nullable()"},
		{"result required", VariantResult, scalar("bio", load.TypeString, true), "z.string()"},
		{"result default", VariantResult, &load.Field{Name: "role", Type: load.TypeString, IsRequired: true, HasDefault: true}, "z.string()"},
		{"pure default", VariantPure, &load.Field{Name: "role", Type: load.TypeString, IsRequired: true, HasDefault: true}, "z.string()"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frag, err := m.RenderField(tt.field, &RenderContext{Variant: tt.variant})
			require.NoError(t, err)
			assert.Equal(t, tt.expected, frag.String())
		})
	}
}

func TestRenderFieldDateTime(t *testing.T) {
	m := NewTypeMapper(nil)
	f := scalar("createdAt", load.TypeDateTime, true)

	tests := []struct {
		strategy DateTimeStrategy
		expected string
	}{
		{DateTimeDate, "z.date()"},
		{DateTimeCoerce, "z.coerce.date()"},
		{DateTimeISO, "z.string().datetime()"},
		{"", "z.date()"},
	}

	for _, tt := range tests {
		t.Run(string(tt.strategy), func(t *testing.T) {
			ctx := &RenderContext{Config: &VariantConfig{Options: SchemaOptions{DateTimeStrategy: tt.strategy}}}
			frag, err := m.RenderField(f, ctx)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, frag.String())
		})
	}
}

func TestRenderFieldReferences(t *testing.T) {
	m := NewTypeMapper(nil)
	model := &load.Model{Name: "Category"}

	t.Run("enum", func(t *testing.T) {
		f := &load.Field{Name: "role", Kind: load.KindEnum, Type: "Role", IsRequired: true}
		frag, err := m.RenderField(f, &RenderContext{Model: model, Variant: VariantPure})
		require.NoError(t, err)
		assert.Equal(t, "RoleSchema", frag.String())
		assert.Equal(t, []Import{{Name: "RoleSchema", Module: "enums/Role.schema"}}, frag.Imports)
		assert.Empty(t, frag.Dependencies)
	})

	t.Run("self relation is lazy", func(t *testing.T) {
		f := &load.Field{Name: "parent", Kind: load.KindObject, Type: "Category"}
		frag, err := m.RenderField(f, &RenderContext{Model: model, Variant: VariantPure})
		require.NoError(t, err)
		assert.Equal(t, "z.lazy(() => CategoryModelSchema).optional().nullable()", frag.String())
		assert.Empty(t, frag.Imports)
		assert.Empty(t, frag.Dependencies)
	})

	t.Run("lazy types", func(t *testing.T) {
		tests := []struct {
			name     string
			field    *load.Field
			ctx      *RenderContext
			expected string
		}{
			{"self", relation("parent", "Category", "", false, false), &RenderContext{Model: model, TypeName: "CategoryModel"}, "CategoryModel | null"},
			{"self list", relation("children", "Category", "", true, true), &RenderContext{Model: model, TypeName: "CategoryModel"}, "CategoryModel[]"},
			{"self untyped", relation("children", "Category", "", true, true), &RenderContext{Model: model}, "z.infer<typeof CategoryModelSchema>[]"},
			{"other model", relation("owner", "User", "", false, true), &RenderContext{Model: model, Lazy: true}, "z.infer<typeof UserModelSchema>"},
			{"eager", relation("owner", "User", "", false, true), &RenderContext{Model: model}, ""},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				frag, err := m.RenderField(tt.field, tt.ctx)
				require.NoError(t, err)
				assert.Equal(t, tt.expected, frag.TypeScript())
			})
		}
	})

	t.Run("other model", func(t *testing.T) {
		f := &load.Field{Name: "owner", Kind: load.KindObject, Type: "User", IsRequired: true}
		frag, err := m.RenderField(f, &RenderContext{Model: model, Variant: VariantPure})
		require.NoError(t, err)
		assert.Equal(t, "UserModelSchema", frag.String())
		assert.Equal(t, []Import{{Name: "UserModelSchema", Module: "variants/pure/User.pure"}}, frag.Imports)
		assert.Equal(t, []string{"User"}, frag.Dependencies)

		frag, err = m.RenderField(f, &RenderContext{Model: model, Variant: VariantPure, Lazy: true})
		require.NoError(t, err)
		assert.Equal(t, "z.lazy(() => UserModelSchema)", frag.String())
	})

	t.Run("lookup", func(t *testing.T) {
		lookup := func(kind load.Kind, name string) (Reference, bool) {
			if kind == load.KindObject && name == "User" {
				return Reference{Identifier: "UserResultSchema_1", Module: "variants/result/User_1.result"}, true
			}
			return Reference{}, false
		}
		f := &load.Field{Name: "owners", Kind: load.KindObject, Type: "User", IsList: true, IsRequired: true}
		frag, err := m.RenderField(f, &RenderContext{Model: model, Variant: VariantResult, Lookup: lookup})
		require.NoError(t, err)
		assert.Equal(t, "z.array(UserResultSchema_1)", frag.String())
		assert.Equal(t, "variants/result/User_1.result", frag.Imports[0].Module)
	})

	t.Run("json", func(t *testing.T) {
		f := scalar("meta", load.TypeJSON, true)
		frag, err := m.RenderField(f, &RenderContext{Variant: VariantPure})
		require.NoError(t, err)
		assert.Equal(t, JSONValueSchema, frag.String())
		assert.Equal(t, []Import{{Name: JSONValueSchema, Module: "helpers/json-helpers"}}, frag.Imports)
	})
}

func TestRenderFieldValidations(t *testing.T) {
	m := NewTypeMapper(nil)
	config := func(fv FieldValidation) *RenderContext {
		return &RenderContext{Variant: VariantPure, Config: &VariantConfig{
			Validations: map[string]FieldValidation{"email": fv},
		}}
	}

	tests := []struct {
		name     string
		field    *load.Field
		ctx      *RenderContext
		expected string
	}{
		{
			name:     "inline annotation",
			field:    &load.Field{Name: "email", Type: load.TypeString, IsRequired: true, Documentation: "Contact @zod.email().max(64)"},
			expected: "z.string().email().max(64)",
		},
		{
			name:     "annotation for another type is dropped",
			field:    &load.Field{Name: "age", Type: load.TypeInt, IsRequired: true, Documentation: "@zod.email().positive()"},
			expected: "z.number().int().positive()",
		},
		{
			name:     "list annotations",
			field:    &load.Field{Name: "tags", Type: load.TypeString, IsList: true, IsRequired: true, Documentation: "@zod.min(1).max(3)"},
			expected: "z.array(z.string()).min(1).max(3)",
		},
		{
			name:     "configured expressions",
			field:    &load.Field{Name: "email", Type: load.TypeString, IsRequired: true, Documentation: "@zod.email()"},
			ctx:      config(FieldValidation{Expressions: []string{"max(64)"}}),
			expected: "z.string().email().max(64)",
		},
		{
			name:     "inline disabled",
			field:    &load.Field{Name: "email", Type: load.TypeString, IsRequired: true, Documentation: "@zod.email()"},
			ctx:      config(FieldValidation{Expressions: []string{"max(64)"}, DisableInline: true}),
			expected: "z.string().max(64)",
		},
		{
			name:     "custom template",
			field:    &load.Field{Name: "email", Type: load.TypeString, Documentation: "@zod.min(3)"},
			ctx:      config(FieldValidation{CustomTemplate: "z.string().email()"}),
			expected: "z.string().email().optional().nullable()",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := tt.ctx
			if ctx == nil {
				ctx = &RenderContext{Variant: VariantPure}
			}
			frag, err := m.RenderField(tt.field, ctx)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, frag.String())
		})
	}
}

func TestRenderFieldAlternatives(t *testing.T) {
	m := NewTypeMapper(nil)
	f := &load.Field{
		Name:       "value",
		Type:       load.TypeString,
		IsRequired: true,
		Alternatives: []load.TypeRef{
			{Kind: load.KindScalar, Type: load.TypeString},
			{Kind: load.KindScalar, Type: load.TypeInt},
		},
	}

	frag, err := m.RenderField(f, nil)
	require.NoError(t, err)
	assert.True(t, frag.Union)
	assert.Equal(t, "z.union([z.string(), z.number().int()])", frag.String())

	_, err = m.RenderField(nil, nil)
	assert.Error(t, err)
}

func TestFragmentExpr(t *testing.T) {
	assert.Equal(t, "z.unknown()", (&Fragment{}).String())
	assert.Equal(t, "z.array(z.string()).nonempty().optional()", (&Fragment{
		Alternatives: []*Expr{Z("string")},
		List:         true,
		ArrayCalls:   []Call{{Name: "nonempty"}},
		Optional:     true,
	}).String())
}
