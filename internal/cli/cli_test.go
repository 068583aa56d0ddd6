package cli

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSchema = `{
  "models": [
    {
      "name": "User",
      "fields": [
        {"name": "id", "kind": "scalar", "type": "Int", "isRequired": true, "isId": true},
        {"name": "email", "kind": "scalar", "type": "String", "isRequired": true},
        {"name": "posts", "kind": "object", "type": "Post", "isList": true, "isRequired": true, "relationName": "PostToUser"}
      ]
    },
    {
      "name": "Post",
      "fields": [
        {"name": "id", "kind": "scalar", "type": "Int", "isRequired": true, "isId": true},
        {"name": "authorId", "kind": "scalar", "type": "Int", "isRequired": true},
        {"name": "author", "kind": "object", "type": "User", "isRequired": true, "relationName": "PostToUser", "relationFromFields": ["authorId"]}
      ]
    }
  ]
}`

// writeFile writes content below a fresh temp dir and returns its path.
func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// execute runs the command tree with args and returns stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	root := NewRootCmd()
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(append(args, "--no-color"))
	err := root.Execute()
	return stdout.String(), err
}

func TestGenerateCommand(t *testing.T) {
	schema := writeFile(t, "schema.json", testSchema)

	t.Run("writes modules", func(t *testing.T) {
		out := t.TempDir()
		stdout, err := execute(t, "generate", "--schema", schema, "--out", out, "--quiet")
		require.NoError(t, err)
		assert.Contains(t, stdout, "2 models")
		assert.Contains(t, stdout, "wrote")

		for _, p := range []string{"variants/pure/User.pure.ts", "variants/input/Post.input.ts", "index.ts"} {
			_, err := os.Stat(filepath.Join(out, filepath.FromSlash(p)))
			assert.NoError(t, err, p)
		}
	})

	t.Run("dry run", func(t *testing.T) {
		out := filepath.Join(t.TempDir(), "generated")
		stdout, err := execute(t, "generate", "-s", schema, "-o", out, "--dry-run", "-q", "--concurrent", "--workers", "2")
		require.NoError(t, err)
		assert.Contains(t, stdout, "variants/pure/User.pure.ts")
		assert.Contains(t, stdout, "operations/index.ts")

		_, err = os.Stat(out)
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("environment", func(t *testing.T) {
		t.Setenv("ZODGEN_SCHEMA", schema)
		t.Setenv("ZODGEN_DRY_RUN", "true")
		stdout, err := execute(t, "generate", "-q")
		require.NoError(t, err)
		assert.Contains(t, stdout, "variants/result/Post.result.ts")
	})

	t.Run("config file", func(t *testing.T) {
		cfg := writeFile(t, "zodgen.yaml", "mode: minimal\n")
		stdout, err := execute(t, "generate", "-s", schema, "--config", cfg, "--dry-run", "-q")
		require.NoError(t, err)
		assert.Contains(t, stdout, "variants/input/User.input.ts")
		assert.NotContains(t, stdout, "variants/result/User.result.ts")
	})

	t.Run("missing schema", func(t *testing.T) {
		_, err := execute(t, "generate", "--dry-run")
		assert.ErrorIs(t, err, errMissingSchema)
	})
}

func TestValidateCommand(t *testing.T) {
	schema := writeFile(t, "schema.json", testSchema)

	t.Run("clean", func(t *testing.T) {
		stdout, err := execute(t, "validate", "--schema", schema)
		require.NoError(t, err)
		assert.Contains(t, stdout, "2 models")
	})

	t.Run("config only", func(t *testing.T) {
		stdout, err := execute(t, "validate")
		require.NoError(t, err)
		assert.Contains(t, stdout, "config ok")
	})

	t.Run("config issues", func(t *testing.T) {
		cfg := writeFile(t, "zodgen.yaml", "variants:\n  pure:\n    priority: 500\n")
		stdout, err := execute(t, "validate", "--config", cfg)
		require.Error(t, err)
		assert.ErrorIs(t, err, errInvalid)
		assert.Contains(t, stdout, "variants.pure.priority")
	})

	t.Run("import cycle", func(t *testing.T) {
		cfg := writeFile(t, "zodgen.yaml", "variants:\n  pure:\n    includeRelations: true\n")
		stdout, err := execute(t, "validate", "--config", cfg, "--schema", schema)
		assert.ErrorIs(t, err, errInvalid)
		assert.Contains(t, stdout, "import cycle")
	})
}

func TestFileWatcher(t *testing.T) {
	path := writeFile(t, "schema.json", "{}")
	dir := filepath.Dir(path)

	w, err := newFileWatcher(slog.New(slog.DiscardHandler), 20*time.Millisecond, path, "")
	require.NoError(t, err)
	defer w.Close()

	var calls atomic.Int32
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx, func() { calls.Add(1) }) }()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.json"), []byte("{}"), 0o644))
	for range 3 {
		require.NoError(t, os.WriteFile(path, []byte(testSchema), 0o644))
	}
	require.Eventually(t, func() bool { return calls.Load() >= 1 }, 2*time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}
