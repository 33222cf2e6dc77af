package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/localagent/agenteval/internal/orchestration"
	"github.com/localagent/agenteval/internal/workspace"
)

// Exit codes for different failure modes
const (
	ExitSuccess   = 0 // All runs succeeded
	ExitConfig    = 1 // Configuration or usage error
	ExitRunFailed = 2 // One or more runs failed or timed out
	ExitCollision = 3 // Workspace already exists and --force not given
)

func main() {
	if err := execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(classify(err))
	}
}

// classify maps an error to the process exit code. Collisions are checked
// before run failures so a pure-collision batch is distinguishable by
// scripts that want to rerun with --force.
func classify(err error) int {
	if errors.Is(err, workspace.ErrExists) {
		return ExitCollision
	}
	var runFailure *orchestration.RunFailureError
	if errors.As(err, &runFailure) {
		return ExitRunFailed
	}
	return ExitConfig
}
