package main

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/localagent/agenteval/internal/orchestration"
	"github.com/localagent/agenteval/internal/workspace"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{
			name: "workspace collision",
			err:  fmt.Errorf("run failed: %w", workspace.ErrExists),
			want: ExitCollision,
		},
		{
			name: "run failure",
			err:  &orchestration.RunFailureError{Failed: 1, Total: 2},
			want: ExitRunFailed,
		},
		{
			name: "wrapped run failure",
			err:  fmt.Errorf("batch: %w", &orchestration.RunFailureError{Failed: 1, Total: 1}),
			want: ExitRunFailed,
		},
		{
			name: "config error",
			err:  errors.New("no model specified"),
			want: ExitConfig,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classify(tt.err))
		})
	}
}
