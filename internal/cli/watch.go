package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newWatchCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Regenerate whenever the schema or config file changes",
		Long: `Watch generates once, then regenerates every time the model description
or the generation config file changes. Bursts of changes are coalesced
into a single run once the files are quiet for the debounce period.

Examples:
  # Watch schema.json and regenerate into ./generated
  zodgen watch --schema schema.json --out generated

  # Use a longer quiet period
  zodgen watch --schema schema.json --debounce 2s
`,
		PreRunE: bindFlags(v),
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			return runWatch(ctx, cmd, loadSettings(v))
		},
	}
	f := cmd.Flags()
	f.StringP("out", "o", "generated", "output directory")
	f.Bool("concurrent", false, "generate models concurrently")
	f.Int("workers", 0, "concurrent workers, 0 means GOMAXPROCS")
	f.Duration("debounce", 500*time.Millisecond, "quiet period before regenerating")
	return cmd
}

func runWatch(ctx context.Context, cmd *cobra.Command, s settings) error {
	if s.Schema == "" {
		return errMissingSchema
	}
	s.Quiet = true
	logger := newLogger(cmd.ErrOrStderr(), s.Verbose)
	regenerate := func() {
		if err := runGenerate(ctx, cmd, s); err != nil {
			logger.Error("generation failed", "error", err)
		}
	}

	w, err := newFileWatcher(logger, s.Debounce, s.Schema, s.ConfigFile)
	if err != nil {
		return err
	}
	defer w.Close()

	regenerate()
	fmt.Fprintf(cmd.OutOrStdout(), "watching %s for changes, press Ctrl+C to stop\n", s.Schema)
	return w.Run(ctx, regenerate)
}

// fileWatcher watches a fixed set of files. The parent directories are
// watched so files replaced by rename (as most editors save) keep being
// tracked.
type fileWatcher struct {
	watcher  *fsnotify.Watcher
	files    map[string]bool
	debounce time.Duration
	log      *slog.Logger
}

func newFileWatcher(logger *slog.Logger, debounce time.Duration, files ...string) (*fileWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}
	fw := &fileWatcher{watcher: watcher, files: make(map[string]bool), debounce: debounce, log: logger}
	dirs := make(map[string]bool)
	for _, f := range files {
		if f == "" {
			continue
		}
		abs, err := filepath.Abs(f)
		if err != nil {
			watcher.Close()
			return nil, err
		}
		fw.files[abs] = true
		dir := filepath.Dir(abs)
		if dirs[dir] {
			continue
		}
		if err := watcher.Add(dir); err != nil {
			watcher.Close()
			return nil, fmt.Errorf("watch %s: %w", dir, err)
		}
		dirs[dir] = true
	}
	return fw, nil
}

// Run calls fn after each burst of changes to the watched files, once the
// files were quiet for the debounce period. It returns when ctx is done.
func (fw *fileWatcher) Run(ctx context.Context, fn func()) error {
	fire := make(chan struct{}, 1)
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fw.watcher.Events:
			if !ok {
				return nil
			}
			if !fw.relevant(event) {
				continue
			}
			fw.log.Debug("file changed", "file", event.Name, "op", event.Op.String())
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(fw.debounce, func() {
				select {
				case fire <- struct{}{}:
				default:
				}
			})

		case <-fire:
			fn()

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return nil
			}
			fw.log.Warn("file watcher error", "error", err)
		}
	}
}

func (fw *fileWatcher) relevant(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return false
	}
	abs, err := filepath.Abs(event.Name)
	return err == nil && fw.files[abs]
}

// Close stops watching.
func (fw *fileWatcher) Close() error {
	return fw.watcher.Close()
}
