package progress

import (
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/trebuchet-org/treb-gov/internal/domain/config"
	"github.com/trebuchet-org/treb-gov/internal/usecase"
)

// SpinnerSink shows a spinner on stderr while slow reads are in flight
type SpinnerSink struct {
	spinner *spinner.Spinner
}

// NewSpinnerSink creates a new spinner-based progress sink
func NewSpinnerSink() *SpinnerSink {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
	s.HideCursor = false
	return &SpinnerSink{spinner: s}
}

// Start shows the spinner with message
func (r *SpinnerSink) Start(message string) {
	r.spinner.Suffix = " " + color.New(color.FgCyan).Sprint(message)
	if !r.spinner.Active() {
		r.spinner.Start()
	}
}

// Stop clears the spinner
func (r *SpinnerSink) Stop() {
	if r.spinner.Active() {
		r.spinner.Stop()
	}
}

// ProvideProgressSink picks the spinner for interactive terminals and a no-op otherwise
func ProvideProgressSink(cfg *config.RuntimeConfig) usecase.ProgressSink {
	if cfg.NonInteractive || cfg.JSON || !isatty.IsTerminal(os.Stderr.Fd()) {
		return usecase.NopProgress{}
	}
	return NewSpinnerSink()
}

var _ usecase.ProgressSink = (*SpinnerSink)(nil)
