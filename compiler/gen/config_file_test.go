package gen

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
mode: custom
operations: [findMany, create]
globalExclusions:
  input: [password, "*Token"]
variants:
  result:
    enabled: false
  pure:
    strictness: strict
    naming:
      schemaSuffix: Shape
models:
  User:
    fields:
      include: [password]
    variants:
      pure:
        validations:
          email:
            expressions: ["email()"]
  Audit:
    enabled: false
naming:
  casing: camel
collision:
  strategy: PREFIX_VARIANT
  maxRetries: 3
importExtension: .js
concurrent: true
workers: 2
cacheTTL: 30s
`

func TestParseConfig(t *testing.T) {
	fc, err := ParseConfig([]byte(sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, ModeCustom, fc.Mode)
	assert.Equal(t, []Operation{OpFindMany, OpCreate}, fc.Operations)
	assert.Equal(t, []string{"password", "*Token"}, fc.GlobalExclusions["input"])
	assert.Equal(t, 30*time.Second, fc.CacheTTL)
	require.Contains(t, fc.Models, "User")
	assert.Equal(t, []string{"email()"}, fc.Models["User"].Variants["pure"].Validations["email"].Expressions)

	t.Run("empty document", func(t *testing.T) {
		fc, err := ParseConfig(nil)
		require.NoError(t, err)
		assert.Empty(t, fc.Mode)
	})

	t.Run("unknown key", func(t *testing.T) {
		_, err := ParseConfig([]byte("modes: full\n"))
		assert.Error(t, err)
	})

	t.Run("json document", func(t *testing.T) {
		fc, err := ParseConfig([]byte(`{"mode": "minimal", "globalExclusions": {"pure": ["secret"]}}`))
		require.NoError(t, err)
		assert.Equal(t, ModeMinimal, fc.Mode)
		assert.Equal(t, []string{"secret"}, fc.GlobalExclusions["pure"])
	})
}

func TestFileConfigConfig(t *testing.T) {
	fc, err := ParseConfig([]byte(sampleConfig))
	require.NoError(t, err)

	c, err := fc.Config(WithHeader("extra"))
	require.NoError(t, err)

	assert.Equal(t, ModeCustom, c.Mode)
	assert.Equal(t, []Operation{OpFindMany, OpCreate}, c.ModelOperations("User"))
	assert.False(t, c.VariantEnabled("User", VariantResult))
	assert.True(t, c.VariantEnabled("User", VariantPure))
	assert.False(t, c.ModelEnabled("Audit"))
	assert.Equal(t, []string{"password", "*Token"}, c.GlobalExclusions[VariantInput])
	assert.Equal(t, CasingCamel, c.Naming.Casing)
	assert.Equal(t, PrefixVariant, c.Collision.Strategy)
	assert.Equal(t, 3, c.Collision.MaxRetries)
	assert.Equal(t, ".js", c.ImportExtension)
	assert.True(t, c.Concurrent)
	assert.Equal(t, 2, c.Workers)
	assert.Equal(t, "extra", c.Header)
	require.NotNil(t, c.Model("User").Variants[VariantPure])
	assert.Empty(t, c.Validate())
}

func TestFileConfigOptionsErrors(t *testing.T) {
	fc := &FileConfig{
		Variants:         map[string]*VariantOverride{"draft": {}},
		GlobalExclusions: map[string][]string{"output": {"x"}},
	}
	_, err := fc.Options()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "variants.draft")
	assert.Contains(t, err.Error(), "globalExclusions.output")
	assert.True(t, IsConfigError(err))
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "zodgen.yaml")

	require.NoError(t, SaveConfigFile(path, &FileConfig{Mode: ModeMinimal, ZodImport: "zod/v4"}))
	fc, err := LoadConfigFile(path)
	require.NoError(t, err)
	assert.Equal(t, ModeMinimal, fc.Mode)
	assert.Equal(t, "zod/v4", fc.ZodImport)

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadConfigFile(filepath.Join(dir, "missing.yaml"))
		require.Error(t, err)
		assert.ErrorIs(t, err, os.ErrNotExist)
	})
}
