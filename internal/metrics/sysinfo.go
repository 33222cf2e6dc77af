package metrics

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"runtime"
	"strings"
	"time"

	"github.com/localagent/agenteval/internal/lmstudio"
)

var (
	ansiEscape   = regexp.MustCompile(`\x1B(?:[@-Z\\-_]|\[[0-?]*[ -/]*[@-~])`)
	quantPattern = regexp.MustCompile(`(?i)(Q\d+[a-zA-Z0-9_]*)`)
)

// EnvironmentInfo reports the host the evaluation ran on.
func EnvironmentInfo() map[string]string {
	info := map[string]string{
		"System":       runtime.GOOS,
		"Architecture": runtime.GOARCH,
		"CPUs":         fmt.Sprintf("%d", runtime.NumCPU()),
	}
	if host, err := os.Hostname(); err == nil {
		info["Hostname"] = host
	}
	return info
}

// versionProbeTimeout bounds each --version subprocess. Some agent CLIs
// hang when invoked outside a terminal.
const versionProbeTimeout = 5 * time.Second

// SoftwareVersions captures the versions of the model server CLI and the
// agent binary. Probes that fail record "unknown" rather than erroring; the
// run itself already succeeded or failed on its own terms.
func SoftwareVersions(ctx context.Context, client *lmstudio.Client, agentBinary string) map[string]string {
	versions := map[string]string{}

	ctx, cancel := context.WithTimeout(ctx, versionProbeTimeout)
	defer cancel()

	if v, err := client.Version(ctx); err == nil {
		versions["LM Studio CLI"] = v
	} else {
		versions["LM Studio CLI"] = "unknown"
	}

	out, err := exec.CommandContext(ctx, agentBinary, "--version").Output()
	if err == nil {
		versions[agentBinary] = StripANSI(strings.TrimSpace(string(out)))
	} else {
		versions[agentBinary] = "unknown"
	}

	return versions
}

// StripANSI removes terminal escape sequences. Several agent CLIs colorize
// their --version output.
func StripANSI(s string) string {
	return ansiEscape.ReplaceAllString(s, "")
}

// ModelInfo builds descriptive metadata for the model key, merging whatever
// the server CLI reported about the loaded model with heuristics drawn from
// the key itself.
func ModelInfo(modelKey string, details map[string]string) map[string]string {
	info := map[string]string{"Full Name": modelKey}

	lower := strings.ToLower(modelKey)
	switch {
	case strings.Contains(lower, "24b"):
		info["Parameters"] = "24B"
	case strings.Contains(lower, "8b"):
		info["Parameters"] = "8B"
	case strings.Contains(lower, "7b"):
		info["Parameters"] = "7B"
	}

	// Server-reported values win over heuristics.
	for k, v := range details {
		if v != "" {
			info[k] = v
		}
	}

	if m := quantPattern.FindStringSubmatch(modelKey); m != nil {
		info["Quantization"] = m[1]
	}

	return info
}
