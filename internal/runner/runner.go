// Package runner launches an external agent CLI as a child process for one
// evaluation run. Output is streamed incrementally into the workspace
// transcript so partial logs survive a crash; the wall-clock timeout kills
// the entire process group, not just the immediate child.
package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"syscall"
	"time"

	"github.com/localagent/agenteval/internal/agents"
	"github.com/localagent/agenteval/internal/models"
)

// killGrace is how long a SIGTERMed process group gets before SIGKILL.
const killGrace = 5 * time.Second

// Request describes one agent invocation.
type Request struct {
	Profile    agents.Profile
	PromptText string
	// WorkDir is the workspace directory the agent runs in.
	WorkDir string
	// TranscriptPath receives combined stdout/stderr, flushed per write.
	TranscriptPath string
	// Env holds extra environment variables (model host endpoint etc.).
	Env map[string]string
	// Timeout bounds the run; zero means no limit.
	Timeout time.Duration
	// Headless appends the profile's non-interactive flags.
	Headless bool
	// Echo, when non-nil, additionally receives the live output stream.
	Echo io.Writer
}

// Result is the outcome of one agent invocation. Status is always one of
// success, failed, timed-out or cancelled; partial transcript content is on
// disk regardless.
type Result struct {
	Status   models.Status
	ExitCode *int
	Reason   string
	Duration time.Duration
}

// Runner executes agent processes.
type Runner struct {
	logger *slog.Logger
}

// New creates a Runner. A nil logger uses slog.Default.
func New(logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{logger: logger}
}

// Run launches the agent and blocks until it exits, the timeout fires, or
// ctx is cancelled. The returned error covers harness-side failures only
// (transcript unwritable, binary missing); an agent that ran and failed is
// reported through Result, not error.
func (r *Runner) Run(ctx context.Context, req *Request) (*Result, error) {
	transcript, err := os.OpenFile(req.TranscriptPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening transcript: %w", err)
	}
	defer transcript.Close()

	runCtx := ctx
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	args := req.Profile.CommandLine(req.PromptText, req.Headless)
	cmd := exec.CommandContext(runCtx, req.Profile.Binary, args...)
	cmd.Dir = req.WorkDir

	// os.File writes are unbuffered, so every line the agent emits lands on
	// disk immediately and survives a harness crash.
	var sink io.Writer = transcript
	if req.Echo != nil {
		sink = io.MultiWriter(transcript, req.Echo)
	}
	cmd.Stdout = sink
	cmd.Stderr = sink

	cmd.Env = buildEnv(req.Profile.Env, req.Env)

	if req.Profile.PromptMode == agents.PromptStdin {
		cmd.Stdin = strings.NewReader(req.PromptText)
	}

	// The agent may spawn children (shells, interpreters). Run it in its own
	// process group so cancellation reaches the whole tree; without this the
	// children survive and keep the transcript descriptor open.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		pgid := -cmd.Process.Pid
		if err := syscall.Kill(pgid, syscall.SIGTERM); err != nil {
			return syscall.Kill(pgid, syscall.SIGKILL)
		}
		go func() {
			time.Sleep(killGrace)
			// ESRCH from an already-dead group is harmless.
			_ = syscall.Kill(pgid, syscall.SIGKILL)
		}()
		return nil
	}
	cmd.WaitDelay = killGrace + time.Second

	r.logger.Info("launching agent",
		"agent", req.Profile.Name,
		"binary", req.Profile.Binary,
		"workdir", req.WorkDir,
		"headless", req.Headless)

	start := time.Now()
	runErr := cmd.Run()
	elapsed := time.Since(start)

	res := &Result{Duration: elapsed}

	switch {
	case runErr == nil:
		res.Status = models.StatusSuccess
		res.ExitCode = models.IntPtr(0)
		fmt.Fprintf(transcript, "\n[SUCCESS] Process exited cleanly.\n")

	case errors.Is(runCtx.Err(), context.DeadlineExceeded):
		res.Status = models.StatusTimedOut
		res.Reason = fmt.Sprintf("run exceeded %v timeout", req.Timeout)
		fmt.Fprintf(transcript, "\n[TIMEOUT] %s\n", res.Reason)

	case errors.Is(ctx.Err(), context.Canceled):
		res.Status = models.StatusCancelled
		res.Reason = "run cancelled"
		fmt.Fprintf(transcript, "\n[CANCELLED] Run cancelled by operator.\n")

	default:
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			code := exitErr.ExitCode()
			res.Status = models.StatusFailed
			res.ExitCode = models.IntPtr(code)
			res.Reason = fmt.Sprintf("agent exited with code %d", code)
			fmt.Fprintf(transcript, "\n[ERROR] Process exited with code %d\n", code)
		} else {
			// Launch failure (binary not found, permission denied). Nothing
			// ran so this is the harness's problem, not an agent failure.
			return nil, fmt.Errorf("launching %s: %w", req.Profile.Binary, runErr)
		}
	}

	r.logger.Info("agent finished",
		"agent", req.Profile.Name,
		"status", res.Status,
		"duration", elapsed)

	return res, nil
}

// buildEnv layers the profile environment and the request environment over
// the inherited process environment, later maps winning.
func buildEnv(layers ...map[string]string) []string {
	env := os.Environ()
	for _, layer := range layers {
		for k, v := range layer {
			env = append(env, k+"="+v)
		}
	}
	return env
}
