package gen

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestZodEmitterVariant(t *testing.T) {
	z := NewZodEmitter()
	props := Object{
		{Key: "id", Value: Z("number").Method("int")},
		{Key: "email", Value: Z("string").Method("email"), Comment: "Login address"},
	}

	t.Run("documented strict with types", func(t *testing.T) {
		got := z.EmitVariant(&ObjectSchema{
			SchemaName:  "UserInputSchema",
			TypeName:    "UserInput",
			Description: "A registered user.",
			Properties:  props,
			Options:     SchemaOptions{Documentation: true, EmitTypes: true, Strictness: StrictnessStrict},
		})
		expected := `/**
 * A registered user.
 */
export const UserInputSchema = z.object({
  id: z.number().int(),
  // Login address
  email: z.string().email(),
}).strict();

export type UserInput = z.infer<typeof UserInputSchema>;
`
		assert.Equal(t, expected, got)
	})

	t.Run("bare", func(t *testing.T) {
		got := z.EmitVariant(&ObjectSchema{
			SchemaName:  "UserModelSchema",
			TypeName:    "UserModel",
			Description: "ignored without documentation",
			Properties:  Object{{Key: "id", Value: Z("number")}},
			Options:     SchemaOptions{Strictness: StrictnessPassthrough},
		})
		assert.Equal(t, "export const UserModelSchema = z.object({\n  id: z.number(),\n}).passthrough();\n", got)
	})

	t.Run("recursive", func(t *testing.T) {
		got := z.EmitVariant(&ObjectSchema{
			SchemaName:  "CategoryModelSchema",
			TypeName:    "CategoryModel",
			Description: "A tree node.",
			Properties: Object{
				{Key: "id", Value: Z("number").Method("int")},
				{Key: "parent", Value: Z("lazy", Lazy{Ref("CategoryModelSchema")}).Method("optional").Method("nullable"), Type: "CategoryModel | null", Optional: true},
				{Key: "children", Value: Z("array", Z("lazy", Lazy{Ref("CategoryModelSchema")})), Type: "CategoryModel[]"},
			},
			Options: SchemaOptions{Documentation: true, EmitTypes: true, Strictness: StrictnessStrict},
		})
		expected := `const CategoryModelSchemaBase = z.object({
  id: z.number().int(),
});

export type CategoryModel = z.infer<typeof CategoryModelSchemaBase> & {
  parent?: CategoryModel | null;
  children: CategoryModel[];
};

/**
 * A tree node.
 */
export const CategoryModelSchema: z.ZodType<CategoryModel> = CategoryModelSchemaBase.extend({
  parent: z.lazy(() => CategoryModelSchema).optional().nullable(),
  children: z.array(z.lazy(() => CategoryModelSchema)),
}).strict();
`
		assert.Equal(t, expected, got)
		assert.NotContains(t, got, "z.infer<typeof CategoryModelSchema>")
	})
}

func TestZodEmitterDocComment(t *testing.T) {
	tests := []struct {
		name     string
		doc      string
		expected string
	}{
		{"empty", "  ", ""},
		{"single line", "A user.", "/**\n * A user.\n */\n"},
		{"multi line", "A user.\n  Owns posts.", "/**\n * A user.\n * Owns posts.\n */\n"},
		{"comment terminator", "Matches a*/b and */", "/**\n * Matches a*\\/b and *\\/\n */\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var b strings.Builder
			writeDoc(&b, tt.doc)
			assert.Equal(t, tt.expected, b.String())
		})
	}

	got := NewZodEmitter().EmitEnum(&EnumSchema{SchemaName: "RoleSchema", Description: "ends early */ here", Values: []string{"A"}})
	assert.Equal(t, 1, strings.Count(got, "*/"))
}

func TestZodEmitterEnum(t *testing.T) {
	got := NewZodEmitter().EmitEnum(&EnumSchema{
		SchemaName: "RoleSchema",
		TypeName:   "Role",
		Values:     []string{"ADMIN", "USER"},
	})
	expected := `export const RoleSchema = z.enum(['ADMIN', 'USER']);

export type Role = z.infer<typeof RoleSchema>;
`
	assert.Equal(t, expected, got)
}

func TestZodEmitterOperation(t *testing.T) {
	got := NewZodEmitter().EmitOperation(OpFindUnique, &ObjectSchema{
		SchemaName: "UserFindUniqueArgsSchema",
		TypeName:   "UserFindUniqueArgs",
		Properties: Object{{Key: "where", Value: Ref("UserWhereUniqueInputSchema")}},
	})
	assert.Contains(t, got, "export const UserFindUniqueArgsSchema = z.object({\n  where: UserWhereUniqueInputSchema,\n}).strict();\n")
	assert.Contains(t, got, "export type UserFindUniqueArgs = z.infer<typeof UserFindUniqueArgsSchema>;")
}

func TestZodEmitterBarrelAndHelpers(t *testing.T) {
	z := NewZodEmitter()
	assert.Equal(t, "export * from './User.pure';\nexport * from './Post.pure';\n", z.EmitBarrel([]string{"./User.pure", "./Post.pure"}))
	assert.Empty(t, z.EmitBarrel(nil))

	helpers := z.EmitHelpers()
	assert.Contains(t, helpers, "export const JsonValueSchema: z.ZodType<JsonValue>")
	assert.Equal(t, "zod", z.Name())
}

func TestStripAnnotations(t *testing.T) {
	tests := []struct {
		doc      string
		expected string
	}{
		{"", ""},
		{"Plain text", "Plain text"},
		{"@zod.email()", ""},
		{"Login address @zod.email()", "Login address"},
		{"First line\n@zod.min(3)\n  Last line  ", "First line\nLast line"},
	}

	for _, tt := range tests {
		t.Run(tt.doc, func(t *testing.T) {
			assert.Equal(t, tt.expected, stripAnnotations(tt.doc))
		})
	}
}
