package gen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/zodgen/compiler/load"
)

var (
	pureRef  = Reference{Identifier: "UserModelSchema", Module: "variants/pure/User.pure"}
	inputRef = Reference{Identifier: "UserInputSchema", Module: "variants/input/User.input"}
)

func generateOperation(t *testing.T, cfg *Config, m *load.Model, op Operation, refs map[VariantType]Reference) (*Module, string) {
	t.Helper()
	names, err := NewNamingSystem(cfg).NameOperation(m.Name, op)
	require.NoError(t, err)
	return NewOperationGenerator(cfg, NewZodEmitter()).Generate(m, op, names, refs)
}

func TestOperationFindMany(t *testing.T) {
	user := blogDoc().Model("User")
	mod, reason := generateOperation(t, MustNewConfig(), user, OpFindMany, map[VariantType]Reference{
		VariantPure:  pureRef,
		VariantInput: inputRef,
	})
	require.NotNil(t, mod, reason)

	expected := `// Code generated by zodgen. DO NOT EDIT.

import { z } from 'zod';
import { UserModelSchema } from '../variants/pure/User.pure';

/**
 * Arguments of user.findMany.
 */
export const UserFindManyArgsSchema = z.object({
  where: UserModelSchema.partial().optional(),
  take: z.number().int().optional(),
  skip: z.number().int().nonnegative().optional(),
}).strict();

export type UserFindManyArgs = z.infer<typeof UserFindManyArgsSchema>;
`
	assert.Equal(t, expected, mod.Content)
	assert.Equal(t, ModuleOperation, mod.Kind)
	assert.Equal(t, "operations/UserFindMany.schema.ts", mod.Path)
	assert.Equal(t, []string{"UserFindManyArgsSchema", "UserFindManyArgs"}, mod.Exports)
}

func TestOperationEnvelopes(t *testing.T) {
	user := blogDoc().Model("User")
	both := map[VariantType]Reference{VariantPure: pureRef, VariantInput: inputRef}

	tests := []struct {
		op       Operation
		contains []string
	}{
		{OpFindUnique, []string{"where: UserModelSchema.partial(),"}},
		{OpCreate, []string{"data: UserInputSchema,"}},
		{OpCreateMany, []string{"data: z.array(UserInputSchema),", "skipDuplicates: z.boolean().optional(),"}},
		{OpUpdate, []string{"where: UserModelSchema.partial(),", "data: UserInputSchema.partial(),"}},
		{OpUpdateMany, []string{"where: UserModelSchema.partial().optional(),"}},
		{OpUpsert, []string{"create: UserInputSchema,", "update: UserInputSchema.partial(),"}},
		{OpDeleteMany, []string{"where: UserModelSchema.partial().optional(),"}},
		{OpCount, []string{"where: UserModelSchema.partial().optional(),"}},
		{OpAggregate, []string{"_count: z.boolean().optional(),", "take: z.number().int().optional(),"}},
		{OpGroupBy, []string{"by: z.array(z.enum(['id', 'email', 'password', 'role', 'profile', 'createdAt'])).nonempty(),"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.op), func(t *testing.T) {
			mod, reason := generateOperation(t, MustNewConfig(), user, tt.op, both)
			require.NotNil(t, mod, reason)
			for _, s := range tt.contains {
				assert.Contains(t, mod.Content, s)
			}
		})
	}
}

func TestOperationSkipped(t *testing.T) {
	user := blogDoc().Model("User")

	tests := []struct {
		name   string
		model  *load.Model
		op     Operation
		refs   map[VariantType]Reference
		reason string
	}{
		{"no variants", user, OpFindMany, nil, "no variant to filter on"},
		{"no data variant", user, OpCreate, map[VariantType]Reference{VariantResult: pureRef}, "no variant to take data from"},
		{"update without data", user, OpUpdate, map[VariantType]Reference{VariantResult: pureRef}, "missing variants to filter on or take data from"},
		{"unknown", user, Operation("explode"), map[VariantType]Reference{VariantPure: pureRef}, `unknown operation "explode"`},
		{
			name:   "nothing to group by",
			model:  &load.Model{Name: "Link", Fields: []*load.Field{relation("user", "User", "", false, true)}},
			op:     OpGroupBy,
			refs:   map[VariantType]Reference{VariantPure: pureRef},
			reason: "model has no scalar field to group by",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mod, reason := generateOperation(t, MustNewConfig(), tt.model, tt.op, tt.refs)
			assert.Nil(t, mod)
			assert.Equal(t, tt.reason, reason)
		})
	}
}

func TestOperationImportExtension(t *testing.T) {
	cfg := MustNewConfig(WithImportExtension(".js"), WithZodImport("zod/v4"), WithHeader("Generated.\nDo not edit."))
	mod, _ := generateOperation(t, cfg, blogDoc().Model("User"), OpCreate, map[VariantType]Reference{VariantInput: inputRef})
	require.NotNil(t, mod)

	assert.Contains(t, mod.Content, "// Generated.\n// Do not edit.\n\n")
	assert.Contains(t, mod.Content, "import { z } from 'zod/v4';\n")
	assert.Contains(t, mod.Content, "import { UserInputSchema } from '../variants/input/User.input.js';\n")
}
