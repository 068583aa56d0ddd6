package gen

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testModules() []*Module {
	return []*Module{
		{Path: "variants/pure/User.pure.ts", Content: "export const UserModelSchema = z.object({});\n"},
		{Path: "enums/Role.schema.ts", Content: "export const RoleSchema = z.enum(['A']);\n"},
		{Path: "index.ts", Content: "export * from './enums/Role.schema';\n"},
	}
}

func TestFSWriter(t *testing.T) {
	dir := t.TempDir()
	w := NewFSWriter(dir).WithWorkers(2)
	mods := testModules()

	require.NoError(t, w.Write(context.Background(), mods))
	for _, m := range mods {
		data, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(m.Path)))
		require.NoError(t, err)
		assert.Equal(t, m.Content, string(data))
	}
	metrics := w.Metrics()
	assert.Equal(t, 3, metrics.FilesWritten)
	assert.Equal(t, 0, metrics.FilesUnchanged)
	assert.Positive(t, metrics.TotalBytes)

	t.Run("unchanged files are skipped", func(t *testing.T) {
		mods[0].Content += "// changed\n"
		require.NoError(t, w.Write(context.Background(), mods))
		metrics := w.Metrics()
		assert.Equal(t, 4, metrics.FilesWritten)
		assert.Equal(t, 2, metrics.FilesUnchanged)
	})
}

func TestFSWriterErrors(t *testing.T) {
	t.Run("duplicate paths", func(t *testing.T) {
		dir := t.TempDir()
		mods := append(testModules(), &Module{Path: "index.ts", Content: "x"})
		err := NewFSWriter(dir).Write(context.Background(), mods)
		require.Error(t, err)
		assert.True(t, IsValidationError(err))

		_, statErr := os.Stat(filepath.Join(dir, "index.ts"))
		assert.True(t, os.IsNotExist(statErr))
	})

	t.Run("missing output directory", func(t *testing.T) {
		err := NewFSWriter("").Write(context.Background(), testModules())
		assert.True(t, IsConfigError(err))
	})

	t.Run("canceled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := NewFSWriter(t.TempDir()).Write(ctx, testModules())
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestMemWriter(t *testing.T) {
	w := NewMemWriter()
	require.NoError(t, w.Write(context.Background(), testModules()))

	files := w.Files()
	assert.Len(t, files, 3)
	assert.Equal(t, "export const RoleSchema = z.enum(['A']);\n", files["enums/Role.schema.ts"])

	files["index.ts"] = "mutated"
	assert.NotEqual(t, "mutated", w.Files()["index.ts"])

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, w.Write(ctx, testModules()), context.Canceled)
}
