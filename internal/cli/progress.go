package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
)

// progressStep prints "label... done (12ms)" on stderr for slow steps. A nil
// step is valid and prints nothing.
type progressStep struct {
	out     io.Writer
	started time.Time
}

func startProgress(cmd *cobra.Command, label string) *progressStep {
	if !progressEnabled() {
		return nil
	}
	out := cmd.ErrOrStderr()
	fmt.Fprintf(out, "%s... ", label)
	return &progressStep{out: out, started: time.Now()}
}

func (p *progressStep) Done() {
	if p == nil {
		return
	}
	elapsed := time.Since(p.started)
	fmt.Fprintf(p.out, "%s (%s)\n", colorize("done", colorGreen), elapsed.Round(progressPrecision(elapsed)))
}

func (p *progressStep) Fail(err error) {
	if p == nil {
		return
	}
	fmt.Fprintln(p.out, colorize("failed", colorRed))
	if err != nil {
		fmt.Fprintf(p.out, "  %v\n", err)
	}
}

func progressEnabled() bool {
	if noProgress || IsJSONOutput() || IsJSONLOutput() {
		return false
	}
	if _, ok := os.LookupEnv("RENTDESK_NO_PROGRESS"); ok {
		return false
	}
	return hasTTY()
}

func progressPrecision(d time.Duration) time.Duration {
	switch {
	case d < time.Millisecond:
		return time.Microsecond
	case d < time.Second:
		return time.Millisecond
	default:
		return 100 * time.Millisecond
	}
}
