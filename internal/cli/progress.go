package cli

import (
	"io"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/syssam/zodgen/compiler/gen"
)

// modelProgress renders a progress bar advanced once per generated model.
// A quiet progress is a no-op.
type modelProgress struct {
	bar *progressbar.ProgressBar
}

func newModelProgress(w io.Writer, total int, quiet bool) *modelProgress {
	if quiet || total == 0 {
		return &modelProgress{}
	}
	return &modelProgress{bar: progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription("Generating models"),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionOnCompletion(func() {
			_, _ = io.WriteString(w, "\n")
		}),
	)}
}

// done is registered as the coordinator's per-model callback.
func (p *modelProgress) done(*gen.ModelVariantCollection) {
	if p.bar != nil {
		_ = p.bar.Add(1)
	}
}

func (p *modelProgress) finish() {
	if p.bar != nil {
		_ = p.bar.Finish()
	}
}
