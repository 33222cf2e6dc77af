package workspace

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/localagent/agenteval/internal/models"
)

// scriptKillGrace is how long a SIGTERMed script process group gets before
// SIGKILL.
const scriptKillGrace = 5 * time.Second

// interpreters maps recognized entry-point extensions to the command that
// runs them. Only extensions listed here are considered executable
// candidates; anything else is a passive artifact.
var interpreters = map[string]string{
	".py":  "python3",
	".js":  "node",
	".mjs": "node",
	".rb":  "ruby",
	".sh":  "sh",
}

// DetectEntrypoint scans generated artifacts for executable scripts. The
// result distinguishes the three cases the run record cares about: no
// candidates, exactly one (runnable), or several (ambiguous, skipped).
func (w *Workspace) DetectEntrypoint() (models.ScriptExecution, error) {
	artifacts, err := w.Artifacts()
	if err != nil {
		return models.ScriptExecution{}, err
	}

	var candidates []string
	for _, name := range artifacts {
		if _, ok := interpreters[strings.ToLower(filepath.Ext(name))]; ok {
			candidates = append(candidates, name)
		}
	}

	switch len(candidates) {
	case 0:
		return models.ScriptExecution{Disposition: models.ScriptNone}, nil
	case 1:
		return models.ScriptExecution{
			Disposition: models.ScriptExecuted,
			Entrypoint:  candidates[0],
			Candidates:  candidates,
		}, nil
	default:
		return models.ScriptExecution{
			Disposition: models.ScriptAmbiguous,
			Candidates:  candidates,
		}, nil
	}
}

// ExecuteEntrypoint runs the detected script in an isolated subprocess with
// the workspace as its working directory, appending stdout/stderr to
// OUTPUT.TXT. A nonzero exit or timeout marks the script step failed without
// failing the run; the captured output is diagnosis material either way.
func (w *Workspace) ExecuteEntrypoint(ctx context.Context, script models.ScriptExecution, timeout time.Duration) models.ScriptExecution {
	if script.Disposition != models.ScriptExecuted {
		return script
	}

	interpreter := interpreters[strings.ToLower(filepath.Ext(script.Entrypoint))]

	runCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(runCtx, interpreter, script.Entrypoint)
	cmd.Dir = w.dir

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	// The script may fork (servers, background jobs). Run it in its own
	// process group so the timeout reaches the whole tree, and cap the wait
	// for the output pipes so a surviving grandchild holding them open
	// cannot stall the run.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		pgid := -cmd.Process.Pid
		if err := syscall.Kill(pgid, syscall.SIGTERM); err != nil {
			return syscall.Kill(pgid, syscall.SIGKILL)
		}
		go func() {
			time.Sleep(scriptKillGrace)
			// ESRCH from an already-dead group is harmless.
			_ = syscall.Kill(pgid, syscall.SIGKILL)
		}()
		return nil
	}
	cmd.WaitDelay = scriptKillGrace + time.Second

	runErr := cmd.Run()

	exitCode := 0
	if runErr != nil {
		exitCode = 1
		if exitErr, ok := runErr.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		}
		script.Disposition = models.ScriptFailed
	}
	script.ExitCode = models.IntPtr(exitCode)

	var b strings.Builder
	fmt.Fprintf(&b, "--- Execution of %s ---\n", script.Entrypoint)
	b.Write(out.Bytes())
	if runErr != nil {
		fmt.Fprintf(&b, "\n[ERROR] %v\n", runErr)
	}
	b.WriteString("\n---------------------------\n\n")

	f, err := os.OpenFile(w.Path(OutputFilename), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err == nil {
		defer f.Close()
		_, _ = f.WriteString(b.String())
	}

	return script
}
