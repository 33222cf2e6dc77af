package main

import (
	"fmt"
	"io"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"

	"github.com/localagent/agenteval/internal/models"
	"github.com/localagent/agenteval/internal/orchestration"
	"github.com/localagent/agenteval/internal/spinner"
)

// progressReporter prints one line per batch event.
type progressReporter struct {
	out     io.Writer
	loading *spinner.Spinner
}

func newProgressReporter(out io.Writer) *progressReporter {
	return &progressReporter{out: out}
}

func (r *progressReporter) handle(e orchestration.ProgressEvent) {
	switch e.EventType {
	case orchestration.EventBatchStart:
		fmt.Fprintf(r.out, "Starting batch of %d run(s)\n", e.TotalRuns)
		r.loading = spinner.Start(r.out, "Loading model...")
	case orchestration.EventModelLoaded:
		if r.loading != nil {
			r.loading.Stop()
			r.loading = nil
		}
		fmt.Fprintln(r.out, "Model server ready")
	case orchestration.EventRunStart:
		fmt.Fprintf(r.out, "[%d/%d] %s ...\n", e.RunNum, e.TotalRuns, e.RunID)
	case orchestration.EventRunComplete:
		switch {
		case e.Err != nil:
			fmt.Fprintf(r.out, "[%d/%d] %s: error: %v\n", e.RunNum, e.TotalRuns, e.RunID, e.Err)
		default:
			fmt.Fprintf(r.out, "[%d/%d] %s: %s (%s)\n", e.RunNum, e.TotalRuns, e.RunID, e.Status, formatDuration(e.Duration))
		}
	}
}

// formatDuration formats a duration in a consistent, human-readable way.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return d.Round(100 * time.Millisecond).String()
}

// printSummary renders the end-of-batch results table.
func printSummary(out io.Writer, result *orchestration.BatchResult) {
	const (
		colStatus   = 10
		colDuration = 10
		colScript   = 10
	)

	nameWidth := len("Run")
	for _, o := range result.Outcomes {
		if w := runewidth.StringWidth(o.RunID); w > nameWidth {
			nameWidth = w
		}
	}

	fmt.Fprintf(out, "\n%s %s %s %s\n",
		padRight("Run", nameWidth),
		padRight("Status", colStatus),
		padRight("Duration", colDuration),
		padRight("Script", colScript))
	fmt.Fprintf(out, "%s\n", strings.Repeat("-", nameWidth+colStatus+colDuration+colScript+3))

	for _, o := range result.Outcomes {
		status, duration, script := "error", "-", "-"
		if o.Record != nil {
			status = string(o.Record.Status)
			duration = formatDuration(o.Record.Duration())
			script = string(o.Record.Script.Disposition)
		} else if o.Err != nil {
			status = "error"
		}
		name := o.RunID
		if name == "" {
			name = o.Task.Agent
		}
		fmt.Fprintf(out, "%s %s %s %s\n",
			padRight(name, nameWidth),
			padRight(status, colStatus),
			padRight(duration, colDuration),
			padRight(script, colScript))
	}

	succeeded := 0
	for _, o := range result.Outcomes {
		if o.Err == nil && o.Record != nil && o.Record.Status == models.StatusSuccess {
			succeeded++
		}
	}
	fmt.Fprintf(out, "\n%d/%d run(s) succeeded\n", succeeded, len(result.Outcomes))
}

// padRight pads s with spaces so its terminal display width reaches width.
func padRight(s string, width int) string {
	sw := runewidth.StringWidth(s)
	if sw >= width {
		return s
	}
	return s + strings.Repeat(" ", width-sw)
}

// openBrowser opens the given URL or file path in the default browser.
func openBrowser(target string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", target)
	case "linux":
		cmd = exec.Command("xdg-open", target)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", "", target)
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}
	return cmd.Start()
}
