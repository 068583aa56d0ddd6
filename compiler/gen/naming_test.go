package gen

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNamingGenerate(t *testing.T) {
	tests := []struct {
		name    string
		model   string
		variant VariantType
		casing  Casing
		file    string
		schema  string
		typ     string
	}{
		{"pure", "User", VariantPure, CasingPascal, "variants/pure/User.pure.ts", "UserModelSchema", "UserModel"},
		{"input", "User", VariantInput, CasingPascal, "variants/input/User.input.ts", "UserInputSchema", "UserInput"},
		{"result", "User", VariantResult, CasingPascal, "variants/result/User.result.ts", "UserResultSchema", "UserResult"},
		{"snake case model", "user_profile", VariantPure, CasingPascal, "variants/pure/UserProfile.pure.ts", "UserProfileModelSchema", "UserProfileModel"},
		{"camel file names", "UserProfile", VariantPure, CasingCamel, "variants/pure/userProfile.pure.ts", "UserProfileModelSchema", "UserProfileModel"},
		{"leading digits", "2Widget", VariantPure, CasingPascal, "variants/pure/Widget.pure.ts", "WidgetModelSchema", "WidgetModel"},
		{"punctuation", "order-item", VariantPure, CasingPascal, "variants/pure/OrderItem.pure.ts", "OrderItemModelSchema", "OrderItemModel"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := NewNamingSystem(MustNewConfig(WithCasing(tt.casing)))
			res, err := n.Generate(tt.model, tt.variant, nil)
			require.NoError(t, err)

			assert.Equal(t, tt.file, res.FilePath)
			assert.Equal(t, tt.schema, res.SchemaName)
			assert.Equal(t, tt.typ, res.TypeName)
			assert.False(t, res.IsCollisionResolved)
			assert.Equal(t, 0, res.Attempts)
			assert.Equal(t, res.FileName, res.Original.FileName)
		})
	}
}

func TestNamingSuffixIncrement(t *testing.T) {
	n := NewNamingSystem(MustNewConfig())
	nc := &NamingConfig{}

	first, err := n.Generate("Widget", VariantPure, nc)
	require.NoError(t, err)
	second, err := n.Generate("widget", VariantPure, nc)
	require.NoError(t, err)

	assert.Equal(t, "Widget", first.SchemaName)
	assert.False(t, first.IsCollisionResolved)
	assert.Equal(t, "Widget_1", second.SchemaName)
	assert.Equal(t, "Widget_1.ts", second.FileName)
	assert.True(t, second.IsCollisionResolved)
	assert.Equal(t, "Widget", second.Original.SchemaName)
	assert.Equal(t, 1, second.Attempts)

	t.Run("type follows schema", func(t *testing.T) {
		n := NewNamingSystem(MustNewConfig())
		_, err := n.Generate("Widget", VariantPure, nil)
		require.NoError(t, err)
		res, err := n.Generate("Widget", VariantPure, nil)
		require.NoError(t, err)
		assert.Equal(t, "WidgetModelSchema_1", res.SchemaName)
		assert.Equal(t, "WidgetModel_1", res.TypeName)
		assert.Equal(t, "variants/pure/Widget_1.pure.ts", res.FilePath)
	})
}

func TestNamingPrefixVariant(t *testing.T) {
	t.Run("default prefix", func(t *testing.T) {
		n := NewNamingSystem(MustNewConfig(WithCollisionStrategy(PrefixVariant, 3)))
		_, err := n.Generate("Widget", VariantInput, nil)
		require.NoError(t, err)
		res, err := n.Generate("Widget", VariantInput, nil)
		require.NoError(t, err)

		assert.Equal(t, "Input1WidgetInputSchema", res.SchemaName)
		assert.Equal(t, "Input1WidgetInput", res.TypeName)
		assert.Equal(t, "Input1Widget.input.ts", res.FileName)
		assert.True(t, res.IsCollisionResolved)
	})

	t.Run("configured prefix", func(t *testing.T) {
		n := NewNamingSystem(MustNewConfig(WithCollisionStrategy(PrefixVariant, 3), WithCollisionPrefix("Alt")))
		_, err := n.Generate("Widget", VariantPure, nil)
		require.NoError(t, err)
		res, err := n.Generate("Widget", VariantPure, nil)
		require.NoError(t, err)
		assert.Equal(t, "Alt1WidgetModelSchema", res.SchemaName)
	})
}

func TestNamingThrowError(t *testing.T) {
	n := NewNamingSystem(MustNewConfig(WithCollisionStrategy(ThrowError, 2)))
	nc := &NamingConfig{}

	for _, model := range []string{"Widget", "Widget"} {
		_, err := n.Generate(model, VariantPure, nc)
		require.NoError(t, err)
	}
	// Widget and Widget_1 are taken; the retry bound of 2 allows Widget_2.
	res, err := n.Generate("Widget", VariantPure, nc)
	require.NoError(t, err)
	assert.Equal(t, "Widget_2", res.SchemaName)

	_, err = n.Generate("Widget", VariantPure, nc)
	require.Error(t, err)
	assert.True(t, IsNamingError(err))
	var ne *NamingError
	require.ErrorAs(t, err, &ne)
	assert.Equal(t, "Widget", ne.Model)
	assert.Equal(t, 2, ne.Attempts)
}

func TestNamingExhaustion(t *testing.T) {
	n := NewNamingSystem(MustNewConfig(WithCollisionStrategy(SuffixIncrement, 1)))
	nc := &NamingConfig{}

	seen := make(map[string]bool)
	var last *NamingResult
	for range 4 {
		res, err := n.Generate("Widget", VariantPure, nc)
		require.NoError(t, err)
		assert.False(t, seen[res.SchemaName], res.SchemaName)
		seen[res.SchemaName] = true
		last = res
	}
	assert.Equal(t, "Widget_3", last.SchemaName)
	assert.Contains(t, last.Warning, "retry bound 1 exceeded")
}

func TestNamingDistinctSchemas(t *testing.T) {
	n := NewNamingSystem(MustNewConfig())
	models := []string{"User", "user", "USER", "User!", "1User", "Post"}

	seen := make(map[string]bool)
	for _, m := range models {
		for _, v := range AllVariants {
			res, err := n.Generate(m, v, nil)
			require.NoError(t, err)
			assert.False(t, seen[res.SchemaName], "duplicate %s", res.SchemaName)
			seen[res.SchemaName] = true
			assert.True(t, isIdent(res.SchemaName))
			assert.True(t, n.Used(res.SchemaName))
		}
	}
}

func TestNamingConcurrent(t *testing.T) {
	n := NewNamingSystem(MustNewConfig())
	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		names = make(map[string]bool)
	)
	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := n.Generate(fmt.Sprintf("Model%d", i%10), VariantPure, nil)
			assert.NoError(t, err)
			mu.Lock()
			names[res.SchemaName] = true
			mu.Unlock()
		}()
	}
	wg.Wait()
	assert.Len(t, names, 50)
}

func TestNamingReset(t *testing.T) {
	n := NewNamingSystem(MustNewConfig())
	first, err := n.Generate("User", VariantPure, nil)
	require.NoError(t, err)

	n.Reset()
	assert.False(t, n.Used(first.SchemaName))

	again, err := n.Generate("User", VariantPure, nil)
	require.NoError(t, err)
	assert.Equal(t, first.SchemaName, again.SchemaName)
	assert.False(t, again.IsCollisionResolved)
}

func TestNameOperationAndEnum(t *testing.T) {
	n := NewNamingSystem(MustNewConfig())

	op, err := n.NameOperation("User", OpFindMany)
	require.NoError(t, err)
	assert.Equal(t, "UserFindManyArgsSchema", op.SchemaName)
	assert.Equal(t, "UserFindManyArgs", op.TypeName)
	assert.Equal(t, "operations/UserFindMany.schema.ts", op.FilePath)
	assert.Equal(t, "operations/UserFindMany.schema", op.ModulePath())

	e, err := n.NameEnum("role")
	require.NoError(t, err)
	assert.Equal(t, "RoleSchema", e.SchemaName)
	assert.Equal(t, "Role", e.TypeName)
	assert.Equal(t, "enums/Role.schema.ts", e.FilePath)
}
