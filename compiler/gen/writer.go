package gen

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// Writer persists generated modules. The engine never performs I/O itself.
type Writer interface {
	Write(ctx context.Context, modules []*Module) error
}

// FSWriter writes modules below an output directory with parallel execution.
// Files whose content did not change are left untouched.
type FSWriter struct {
	outDir  string
	workers int

	// Metrics for performance monitoring
	mu      sync.Mutex
	metrics *WriterMetrics
}

// WriterMetrics tracks write performance.
type WriterMetrics struct {
	FilesWritten   int
	FilesUnchanged int
	TotalBytes     int64
	WriteTime      int64 // nanoseconds
}

var _ Writer = (*FSWriter)(nil)

// NewFSWriter creates a writer rooted at outDir.
func NewFSWriter(outDir string) *FSWriter {
	return &FSWriter{
		outDir:  outDir,
		workers: runtime.GOMAXPROCS(0),
		metrics: &WriterMetrics{},
	}
}

// WithWorkers sets the number of parallel workers.
func (w *FSWriter) WithWorkers(n int) *FSWriter {
	if n > 0 {
		w.workers = n
	}
	return w
}

// Metrics returns a snapshot of the write metrics.
func (w *FSWriter) Metrics() WriterMetrics {
	w.mu.Lock()
	defer w.mu.Unlock()
	return *w.metrics
}

// Write writes all modules in parallel. Two modules with the same path are
// rejected before anything is written.
func (w *FSWriter) Write(ctx context.Context, modules []*Module) error {
	if w.outDir == "" {
		return NewConfigError("OutDir", nil, "missing output directory")
	}
	seen := make(map[string]bool, len(modules))
	for _, m := range modules {
		if seen[m.Path] {
			return NewValidationError(m.Path, "", "two modules share the same path")
		}
		seen[m.Path] = true
	}
	if err := os.MkdirAll(w.outDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	start := time.Now()
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(w.workers)
	for _, m := range modules {
		eg.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
				return w.writeModule(m)
			}
		})
	}
	err := eg.Wait()
	w.mu.Lock()
	w.metrics.WriteTime += time.Since(start).Nanoseconds()
	w.mu.Unlock()
	return err
}

// writeModule writes a single module.
func (w *FSWriter) writeModule(m *Module) error {
	fullPath := filepath.Join(w.outDir, filepath.FromSlash(m.Path))
	content := []byte(m.Content)
	if prev, err := os.ReadFile(fullPath); err == nil && bytes.Equal(prev, content) {
		w.mu.Lock()
		w.metrics.FilesUnchanged++
		w.mu.Unlock()
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return fmt.Errorf("create directory for %s: %w", m.Path, err)
	}
	if err := os.WriteFile(fullPath, content, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", m.Path, err)
	}
	w.mu.Lock()
	w.metrics.FilesWritten++
	w.metrics.TotalBytes += int64(len(content))
	w.mu.Unlock()
	return nil
}

// MemWriter keeps written modules in memory. It backs dry runs.
type MemWriter struct {
	mu    sync.Mutex
	files map[string]string
}

var _ Writer = (*MemWriter)(nil)

// NewMemWriter creates an empty in-memory writer.
func NewMemWriter() *MemWriter {
	return &MemWriter{files: make(map[string]string)}
}

// Write implements Writer.
func (w *MemWriter) Write(ctx context.Context, modules []*Module) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, m := range modules {
		if err := ctx.Err(); err != nil {
			return err
		}
		w.files[m.Path] = m.Content
	}
	return nil
}

// Files returns a copy of the written files keyed by path.
func (w *MemWriter) Files() map[string]string {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make(map[string]string, len(w.files))
	for k, v := range w.files {
		out[k] = v
	}
	return out
}
