// Package cli implements the zodgen command line.
package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/syssam/zodgen/compiler/gen"
)

// envPrefix namespaces the environment variables read by viper,
// e.g. ZODGEN_SCHEMA or ZODGEN_DRY_RUN.
const envPrefix = "ZODGEN"

// defaultConfigFiles are looked up in the working directory when --config is not set.
var defaultConfigFiles = []string{"zodgen.yaml", "zodgen.yml"}

// NewRootCmd builds the zodgen command tree. Every call returns an
// independent tree with its own viper instance.
func NewRootCmd() *cobra.Command {
	v := viper.New()
	rootCmd := &cobra.Command{
		Use:   "zodgen",
		Short: "Generate Zod validation schemas from a model description",
		Long: `zodgen turns a data model description (models, fields, enums and
relations) into TypeScript modules exporting Zod schemas: a pure, an
input and a result variant per model, operation argument envelopes,
enum schemas and barrel index files.

Settings come from flags, ZODGEN_* environment variables and the
generation config file (zodgen.yaml by default).`,
		SilenceUsage: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "generation config file (default is ./zodgen.yaml when present)")
	pf.StringP("schema", "s", "", "model description JSON file")
	pf.BoolP("verbose", "v", false, "verbose output")
	pf.Bool("no-color", false, "disable colored output")
	_ = v.BindPFlags(pf)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	rootCmd.AddCommand(
		newGenerateCmd(v),
		newValidateCmd(v),
		newWatchCmd(v),
	)
	return rootCmd
}

// Execute runs the root command. This is called by main.main().
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// bindFlags binds the local flags of the running command. Binding happens
// at run time so commands sharing a flag name do not override each other.
func bindFlags(v *viper.Viper) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		return v.BindPFlags(cmd.Flags())
	}
}

// settings is the merged view of flags, environment and defaults.
type settings struct {
	Schema     string
	ConfigFile string
	Out        string
	Concurrent bool
	Workers    int
	DryRun     bool
	Quiet      bool
	Verbose    bool
	NoColor    bool
	Debounce   time.Duration
}

func loadSettings(v *viper.Viper) settings {
	s := settings{
		Schema:     v.GetString("schema"),
		ConfigFile: v.GetString("config"),
		Out:        v.GetString("out"),
		Concurrent: v.GetBool("concurrent"),
		Workers:    v.GetInt("workers"),
		DryRun:     v.GetBool("dry-run"),
		Quiet:      v.GetBool("quiet"),
		Verbose:    v.GetBool("verbose"),
		NoColor:    v.GetBool("no-color"),
		Debounce:   v.GetDuration("debounce"),
	}
	if s.ConfigFile == "" {
		for _, name := range defaultConfigFiles {
			if _, err := os.Stat(name); err == nil {
				s.ConfigFile = name
				break
			}
		}
	}
	return s
}

// newLogger returns a text logger on w. Only warnings are shown unless
// verbose is set.
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// buildConfig loads the generation config file, when set, and applies the
// command line overrides on top of it.
func buildConfig(s settings, logger *slog.Logger) (*gen.Config, error) {
	extra := []gen.Option{gen.WithLogger(logger)}
	if s.Concurrent {
		extra = append(extra, gen.WithConcurrency(s.Workers))
	}
	if s.ConfigFile == "" {
		return gen.NewConfig(extra...)
	}
	fc, err := gen.LoadConfigFile(s.ConfigFile)
	if err != nil {
		return nil, err
	}
	return fc.Config(extra...)
}
