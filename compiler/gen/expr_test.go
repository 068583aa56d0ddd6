package gen

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExprString(t *testing.T) {
	tests := []struct {
		name     string
		expr     *Expr
		expected string
	}{
		{"scalar", Z("string"), "z.string()"},
		{"chain", Z("string").Method("min", Num(3)).Method("optional"), "z.string().min(3).optional()"},
		{"coerce", ZCoerce("date"), "z.coerce.date()"},
		{"ref", Ref("UserModelSchema").Method("partial"), "UserModelSchema.partial()"},
		{"lazy", Z("lazy", Lazy{Ref("CategoryModelSchema")}), "z.lazy(() => CategoryModelSchema)"},
		{"enum", Z("enum", List{Str("ADMIN"), Str("USER")}), "z.enum(['ADMIN', 'USER'])"},
		{"instanceof", Z("instanceof", Ident("Uint8Array")), "z.instanceof(Uint8Array)"},
		{"empty object", Z("object", Object{}), "z.object({})"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.expr.String())
		})
	}
}

func TestExprObject(t *testing.T) {
	e := Z("object", Object{
		{Key: "id", Value: Z("number").Method("int")},
		{Key: "display-name", Value: Z("string"), Comment: "Shown in the UI"},
		{Key: "meta", Value: Z("object", Object{{Key: "tag", Value: Z("string")}})},
	}).Method("strict")

	expected := `z.object({
  id: z.number().int(),
  // Shown in the UI
  'display-name': z.string(),
  meta: z.object({
    tag: z.string(),
  }),
}).strict()`
	assert.Equal(t, expected, e.String())
}

func TestExprImmutable(t *testing.T) {
	base := Z("string")
	a := base.Method("email")
	b := base.Method("url")

	assert.Equal(t, "z.string()", base.String())
	assert.Equal(t, "z.string().email()", a.String())
	assert.Equal(t, "z.string().url()", b.String())
}

func TestExprCount(t *testing.T) {
	e := Z("union", List{Z("number"), Z("string").Method("optional")}).Method("optional").Method("nullable")

	assert.Equal(t, 2, e.Count("optional"))
	assert.Equal(t, 1, e.Count("nullable"))
	assert.True(t, e.Has("optional"))
	assert.False(t, e.Has("array"))
	assert.Equal(t, 0, ZCoerce("date").Count("coerce"))
}

func TestExprRefs(t *testing.T) {
	e := Z("object", Object{
		{Key: "role", Value: Ref("RoleSchema")},
		{Key: "posts", Value: Z("array", Z("lazy", Lazy{Ref("PostModelSchema")}))},
		{Key: "name", Value: Z("string")},
	})

	assert.Equal(t, []string{"RoleSchema", "PostModelSchema"}, e.Refs())
	assert.Equal(t, []string{"JsonValueSchema"}, Ref(JSONValueSchema).Refs())
	assert.Empty(t, Z("string").Refs())
}
