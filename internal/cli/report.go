package cli

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/fatih/color"

	"github.com/syssam/zodgen/compiler"
	"github.com/syssam/zodgen/compiler/gen"
)

// reporter prints run summaries.
type reporter struct {
	w                        io.Writer
	ok, warn, fail, dim, key *color.Color
}

func newReporter(w io.Writer, noColor bool) *reporter {
	r := &reporter{
		w:    w,
		ok:   color.New(color.FgHiGreen),
		warn: color.New(color.FgYellow),
		fail: color.New(color.FgRed),
		dim:  color.New(color.FgHiBlack),
		key:  color.New(color.FgCyan),
	}
	if noColor {
		for _, c := range []*color.Color{r.ok, r.warn, r.fail, r.dim, r.key} {
			c.DisableColor()
		}
	}
	return r
}

// summary prints statistics, failures and warnings of a run.
func (r *reporter) summary(out *compiler.Output) {
	if out == nil || out.Result == nil {
		return
	}
	res := out.Result
	st := res.Statistics
	mark := r.ok.Sprint("✓")
	if st.Failed > 0 || len(res.Errors) > 0 {
		mark = r.fail.Sprint("✗")
	}
	fmt.Fprintf(r.w, "%s %d models, %d/%d variants, %d operations, %d enums, %d barrels in %s %s\n",
		mark, st.Models, st.Succeeded, st.Variants, st.Operations, st.Enums, len(out.Barrels),
		st.Duration.Round(time.Millisecond), r.dim.Sprintf("(run %s)", st.RunID))

	for _, issue := range res.Issues {
		r.issue(issue)
	}
	for _, err := range res.Errors {
		fmt.Fprintf(r.w, "  %s %v\n", r.fail.Sprint("error"), err)
	}
	for _, w := range res.Warnings {
		fmt.Fprintf(r.w, "  %s %s\n", r.warn.Sprint("warning"), w)
	}
	if out.Report != nil {
		r.exports(out.Report)
	}
}

func (r *reporter) issue(issue gen.ConfigIssue) {
	level, c := "warning", r.warn
	if !issue.Warning {
		level, c = "error", r.fail
	}
	fmt.Fprintf(r.w, "  %s %s: %s\n", c.Sprint(level), issue.Path, issue.Message)
}

// exports prints the export validation findings.
func (r *reporter) exports(report *gen.ExportReport) {
	for _, err := range report.Errors() {
		fmt.Fprintf(r.w, "  %s %v\n", r.warn.Sprint("export"), err)
	}
	for _, w := range report.Warnings {
		fmt.Fprintf(r.w, "  %s %s\n", r.warn.Sprint("export"), w)
	}
}

// files lists rendered file paths with their sizes, sorted by path.
func (r *reporter) files(files map[string]string) {
	paths := make([]string, 0, len(files))
	for p := range files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	for _, p := range paths {
		fmt.Fprintf(r.w, "  %s %s\n", r.key.Sprint(p), r.dim.Sprintf("%dB", len(files[p])))
	}
}

// written prints the writer metrics.
func (r *reporter) written(out string, m gen.WriterMetrics) {
	fmt.Fprintf(r.w, "%s wrote %d files to %s %s\n", r.ok.Sprint("✓"), m.FilesWritten, out,
		r.dim.Sprintf("(%d unchanged, %dB)", m.FilesUnchanged, m.TotalBytes))
}
