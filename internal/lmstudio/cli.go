package lmstudio

import (
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strings"
)

var versionPattern = regexp.MustCompile(`lms - LM Studio CLI - (v[\d.]+)`)

// LoadModel unloads whatever is resident and loads the given model key.
// Unload failures are logged and ignored; the subsequent load is what
// matters.
func (c *Client) LoadModel(ctx context.Context, modelKey string) error {
	c.logger.Info("unloading resident models")
	if out, err := exec.CommandContext(ctx, c.lmsPath, "unload", "--all").CombinedOutput(); err != nil {
		c.logger.Warn("model unload failed, proceeding", "error", err, "output", strings.TrimSpace(string(out)))
	}

	c.logger.Info("loading model", "model", modelKey)
	cmd := exec.CommandContext(ctx, c.lmsPath, "load", modelKey, "--gpu=max", "-y")
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("loading model %q: %w: %s", modelKey, err, strings.TrimSpace(string(out)))
	}
	return nil
}

// Version returns the LM Studio CLI version string, e.g. "v0.0.47".
func (c *Client) Version(ctx context.Context) (string, error) {
	out, err := exec.CommandContext(ctx, c.lmsPath, "version").Output()
	if err != nil {
		return "", fmt.Errorf("lms version: %w", err)
	}
	return ParseVersion(string(out)), nil
}

// ParseVersion extracts the version from lms version output. Falls back to
// the last non-empty line when the expected banner is absent.
func ParseVersion(output string) string {
	if m := versionPattern.FindStringSubmatch(output); m != nil {
		return m[1]
	}
	lines := strings.Split(strings.TrimSpace(output), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return line
		}
	}
	return "unknown"
}

// ModelDetails asks lms ls for the loaded model's parameters, architecture
// and size. Missing or unparseable output yields an empty map, never an
// error: model details are decoration, not required data.
func (c *Client) ModelDetails(ctx context.Context) map[string]string {
	out, err := exec.CommandContext(ctx, c.lmsPath, "ls").Output()
	if err != nil {
		c.logger.Debug("lms ls failed", "error", err)
		return map[string]string{}
	}
	return ParseLoadedModel(string(out))
}

var columnSplit = regexp.MustCompile(`\s{2,}`)

// ParseLoadedModel finds the LOADED row in lms ls output. Columns are
// ID, PARAMS, ARCH, SIZE, STATUS separated by runs of spaces; the loaded
// marker sits in the last column.
func ParseLoadedModel(output string) map[string]string {
	details := map[string]string{}
	for _, line := range strings.Split(output, "\n") {
		if !strings.Contains(line, "LOADED") {
			continue
		}
		parts := columnSplit.Split(strings.TrimSpace(line), -1)
		if len(parts) < 4 {
			continue
		}
		// Counting from the end: status, size, arch, params.
		details["Size"] = parts[len(parts)-2]
		details["Architecture"] = parts[len(parts)-3]
		details["Parameters"] = parts[len(parts)-4]
		if len(parts) >= 5 {
			details["Full Name"] = parts[0]
		}
		break
	}
	return details
}
