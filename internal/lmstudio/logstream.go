package lmstudio

import (
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"time"
)

// LogStream is a running lms log stream subprocess writing the server log
// into a workspace file.
type LogStream struct {
	cmd    *exec.Cmd
	file   *os.File
	logger *slog.Logger
}

// StartLogStream launches lms log stream with output redirected to path.
// The stream outlives any single request, so it is not bound to a context;
// callers must Stop it.
func (c *Client) StartLogStream(path string) (*LogStream, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening server log %s: %w", path, err)
	}

	cmd := exec.Command(c.lmsPath, "log", "stream", "--source", "server")
	cmd.Stdout = f
	cmd.Stderr = f

	if err := cmd.Start(); err != nil {
		f.Close()
		return nil, fmt.Errorf("starting server log stream: %w", err)
	}

	c.logger.Debug("server log stream started", "path", path, "pid", cmd.Process.Pid)
	return &LogStream{cmd: cmd, file: f, logger: c.logger}, nil
}

// Stop terminates the stream and closes the log file. SIGTERM first; SIGKILL
// if the process lingers past a short grace period.
func (s *LogStream) Stop() error {
	if s == nil || s.cmd == nil || s.cmd.Process == nil {
		return nil
	}
	defer s.file.Close()

	if err := s.cmd.Process.Signal(os.Interrupt); err != nil {
		s.logger.Debug("log stream interrupt failed", "error", err)
	}

	done := make(chan error, 1)
	go func() { done <- s.cmd.Wait() }()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		_ = s.cmd.Process.Kill()
		<-done
	}
	return nil
}
