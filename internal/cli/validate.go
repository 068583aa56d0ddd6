package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/syssam/zodgen/compiler"
	"github.com/syssam/zodgen/compiler/gen"
)

var errInvalid = errors.New("validation failed")

func newValidateCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the generation config and the generated import graph",
		Long: `Validate checks the generation config file and, when a schema is given,
renders every module in memory and checks the resulting import graph for
unresolved imports, duplicate exports and import cycles. Nothing is
written.

Examples:
  # Check ./zodgen.yaml only
  zodgen validate

  # Check config and generated modules
  zodgen validate --config zodgen.yaml --schema schema.json
`,
		PreRunE: bindFlags(v),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runValidate(cmd.Context(), cmd, loadSettings(v))
		},
	}
}

func runValidate(ctx context.Context, cmd *cobra.Command, s settings) error {
	r := newReporter(cmd.OutOrStdout(), s.NoColor)
	cfg, err := buildConfig(s, newLogger(cmd.ErrOrStderr(), s.Verbose))
	if err != nil {
		return err
	}
	issues := cfg.Validate()
	for _, issue := range issues {
		r.issue(issue)
	}
	if gen.HasErrors(issues) {
		return fmt.Errorf("%w: %d config issues", errInvalid, len(issues))
	}
	if s.Schema == "" {
		fmt.Fprintf(cmd.OutOrStdout(), "%s config ok\n", r.ok.Sprint("✓"))
		return nil
	}

	out, err := compiler.Generate(ctx, s.Schema, cfg)
	r.summary(out)
	if err != nil {
		return err
	}
	if out.Result.Statistics.Failed > 0 || out.Report.HasErrors() {
		return errInvalid
	}
	return nil
}
