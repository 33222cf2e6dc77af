package agents

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltin_ResolvesAllSupportedAgents(t *testing.T) {
	r := Builtin()

	for _, name := range []string{"vibe", "gemini", "claude", "opencode", "crush"} {
		p, err := r.Resolve(name)
		require.NoError(t, err, "agent %s", name)
		assert.NotEmpty(t, p.Binary)
		assert.NotEmpty(t, p.DisplayName)
	}
}

func TestResolve_MistralAliasesToVibe(t *testing.T) {
	r := Builtin()

	p, err := r.Resolve("mistral")
	require.NoError(t, err)
	assert.Equal(t, "vibe", p.Name)
	assert.Equal(t, "vibe", p.Binary)
}

func TestResolve_UnknownAgent(t *testing.T) {
	_, err := Builtin().Resolve("skynet")
	assert.ErrorContains(t, err, "unknown agent")
}

func TestResolve_CaseInsensitive(t *testing.T) {
	p, err := Builtin().Resolve("Claude")
	require.NoError(t, err)
	assert.Equal(t, "claude", p.Name)
}

func TestCommandLine(t *testing.T) {
	r := Builtin()

	tests := []struct {
		agent    string
		headless bool
		want     []string
	}{
		{"vibe", false, []string{"-p", "PROMPT"}},
		{"claude", true, []string{"-p", "PROMPT", "--dangerously-skip-permissions"}},
		{"claude", false, []string{"-p", "PROMPT"}},
		{"crush", true, []string{"run", "PROMPT", "-y"}},
		{"gemini", true, []string{"--prompt", "PROMPT", "--yolo"}},
	}

	for _, tt := range tests {
		p, err := r.Resolve(tt.agent)
		require.NoError(t, err)
		assert.Equal(t, tt.want, p.CommandLine("PROMPT", tt.headless), "agent %s", tt.agent)
	}
}

func TestDisplayName_FallbackTitleCases(t *testing.T) {
	r := Builtin()

	assert.Equal(t, "Mistral Vibe", r.DisplayName("vibe"))
	assert.Equal(t, "Mistral Vibe", r.DisplayName("mistral"))
	assert.Equal(t, "Aider", r.DisplayName("aider"))
}

func TestOpenCodeConfigFile(t *testing.T) {
	p, err := Builtin().Resolve("opencode")
	require.NoError(t, err)
	require.NotNil(t, p.ConfigFile)
	assert.Equal(t, "opencode.json", p.ConfigFile.Name)

	data, err := p.ConfigFile.Render("m1", "http://localhost:1234/v1")
	require.NoError(t, err)
	assert.Contains(t, string(data), `"baseUrl": "http://localhost:1234/v1"`)
	assert.Contains(t, string(data), `"model": "m1"`)
}

func TestLoadFile_OverridesAndNewAgents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agents.yaml")
	content := `
agents:
  claude:
    binary: claude-nightly
    options:
      headless_args: ["--permission-mode", "bypassPermissions"]
  aider:
    display_name: Aider
    binary: aider
    options:
      prompt_flag: --message
      trailing_args: ["--no-git"]
  cc:
    alias_for: claude
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	r := Builtin()
	require.NoError(t, LoadFile(r, path))

	claude, err := r.Resolve("claude")
	require.NoError(t, err)
	assert.Equal(t, "claude-nightly", claude.Binary)
	assert.Equal(t, []string{"--permission-mode", "bypassPermissions"}, claude.HeadlessArgs)
	// Untouched fields keep builtin values.
	assert.Equal(t, "-p", claude.PromptFlag)
	assert.Equal(t, "Claude Code", claude.DisplayName)

	aider, err := r.Resolve("aider")
	require.NoError(t, err)
	assert.Equal(t, []string{"--message", "PROMPT", "--no-git"}, aider.CommandLine("PROMPT", false))

	viaAlias, err := r.Resolve("cc")
	require.NoError(t, err)
	assert.Equal(t, "claude", viaAlias.Name)
}

func TestLoadFile_RejectsUnknownOptionKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agents.yaml")
	content := `
agents:
  vibe:
    options:
      promt_flag: "-p"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	err := LoadFile(Builtin(), path)
	assert.ErrorContains(t, err, "unknown option keys")
}
