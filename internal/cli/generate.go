package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/syssam/zodgen/compiler"
	"github.com/syssam/zodgen/compiler/gen"
	"github.com/syssam/zodgen/compiler/load"
)

var errMissingSchema = errors.New("missing model description: set --schema or ZODGEN_SCHEMA")

func newGenerateCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate the Zod schema modules",
		Long: `Generate renders every variant of every enabled model, the operation
envelopes, the enum schemas and the barrel index files, then writes them
below the output directory. Files whose content did not change are left
untouched.

Examples:
  # Generate into ./generated using ./zodgen.yaml when present
  zodgen generate --schema schema.json

  # Concurrent generation with an explicit config file
  zodgen generate -s schema.json --config zodgen.yaml -o src/zod --concurrent

  # Print the files that would be written
  zodgen generate -s schema.json --dry-run
`,
		PreRunE: bindFlags(v),
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			return runGenerate(ctx, cmd, loadSettings(v))
		},
	}
	f := cmd.Flags()
	f.StringP("out", "o", "generated", "output directory")
	f.Bool("concurrent", false, "generate models concurrently")
	f.Int("workers", 0, "concurrent workers, 0 means GOMAXPROCS")
	f.Bool("dry-run", false, "render without writing files")
	f.BoolP("quiet", "q", false, "disable the progress bar")
	return cmd
}

func runGenerate(ctx context.Context, cmd *cobra.Command, s settings) error {
	if s.Schema == "" {
		return errMissingSchema
	}
	logger := newLogger(cmd.ErrOrStderr(), s.Verbose)
	cfg, err := buildConfig(s, logger)
	if err != nil {
		return err
	}
	doc, err := load.LoadFile(s.Schema)
	if err != nil {
		return fmt.Errorf("load %s: %w", s.Schema, err)
	}

	var (
		mem *gen.MemWriter
		fs  *gen.FSWriter
		w   gen.Writer
	)
	if s.DryRun {
		mem = gen.NewMemWriter()
		w = mem
	} else {
		fs = gen.NewFSWriter(s.Out).WithWorkers(s.Workers)
		w = fs
	}

	total := 0
	for _, m := range doc.Models {
		if cfg.ModelEnabled(m.Name) {
			total++
		}
	}
	progress := newModelProgress(cmd.ErrOrStderr(), total, s.Quiet)
	out, err := compiler.GenerateDocument(ctx, doc, cfg,
		compiler.WithWriter(w),
		compiler.WithProgress(progress.done),
	)
	progress.finish()

	r := newReporter(cmd.OutOrStdout(), s.NoColor)
	r.summary(out)
	if err != nil {
		return err
	}
	if mem != nil {
		r.files(mem.Files())
	} else {
		r.written(s.Out, fs.Metrics())
	}
	if st := out.Result.Statistics; st.Failed > 0 {
		return fmt.Errorf("%d of %d variants failed", st.Failed, st.Variants)
	}
	return nil
}
