// Package metrics derives performance numbers and environment metadata for a
// completed run. Everything here is best-effort: a metric that cannot be
// measured is reported as absent, never as zero.
package metrics

import (
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/localagent/agenteval/internal/models"
)

var (
	// usagePattern matches OpenAI-compatible usage blocks in the model
	// server log. A single run can produce many of these (one per API
	// call), so totals are summed across matches.
	usagePattern = regexp.MustCompile(`"usage":\s*\{\s*"prompt_tokens":\s*(\d+),\s*"completion_tokens":\s*(\d+),\s*"total_tokens":\s*(\d+)\s*\}`)

	// logTimestamp matches the leading [2026-01-18 18:10:43] stamp on
	// server log lines.
	logTimestamp = regexp.MustCompile(`^\[(\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2})\]`)
)

const logTimeLayout = "2006-01-02 15:04:05"

// promptProgressMarker appears on every server log line emitted while the
// model is ingesting the prompt.
const promptProgressMarker = "Prompt processing progress"

// ParseTokenUsage sums the usage blocks found in server log content. When
// the log contains no usage blocks at all the result has nil fields, which
// is distinct from a run that genuinely used zero tokens.
func ParseTokenUsage(log []byte) models.TokenUsage {
	matches := usagePattern.FindAllSubmatch(log, -1)
	if len(matches) == 0 {
		return models.TokenUsage{}
	}

	var prompt, completion, total int
	for _, m := range matches {
		p, _ := strconv.Atoi(string(m[1]))
		c, _ := strconv.Atoi(string(m[2]))
		t, _ := strconv.Atoi(string(m[3]))
		prompt += p
		completion += c
		total += t
	}
	return models.TokenUsage{
		Prompt:     models.IntPtr(prompt),
		Completion: models.IntPtr(completion),
		Total:      models.IntPtr(total),
	}
}

// ParsePromptProcessingTime estimates how long the server spent ingesting
// prompts, by finding contiguous blocks of progress lines and summing the
// timestamp span of each block. A block that runs to the end of the log is
// closed at the last seen timestamp. Lines without a timestamp are ignored.
// The second return is false when the log contains no progress lines at
// all, which is distinct from ingestion that measurably took zero seconds.
func ParsePromptProcessingTime(log []byte) (float64, bool) {
	var (
		total      float64
		seen       bool
		inBlock    bool
		blockStart time.Time
		lastStamp  time.Time
	)

	for _, line := range strings.Split(string(log), "\n") {
		m := logTimestamp.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		stamp, err := time.Parse(logTimeLayout, m[1])
		if err != nil {
			continue
		}
		lastStamp = stamp

		if strings.Contains(line, promptProgressMarker) {
			seen = true
			if !inBlock {
				inBlock = true
				blockStart = stamp
			}
		} else if inBlock {
			total += stamp.Sub(blockStart).Seconds()
			inBlock = false
		}
	}
	if inBlock && !lastStamp.IsZero() {
		total += lastStamp.Sub(blockStart).Seconds()
	}
	return total, seen
}

// TokensPerSecond estimates generation throughput. Prompt ingestion time is
// excluded from the denominator when it is known and smaller than the wall
// clock; otherwise the raw wall clock is used. Returns nil when the token
// count is unknown or no time elapsed.
func TokensPerSecond(completionTokens *int, wallClockSec, promptTimeSec float64) *float64 {
	if completionTokens == nil {
		return nil
	}
	generation := wallClockSec
	if wallClockSec > promptTimeSec {
		generation = wallClockSec - promptTimeSec
	}
	if generation <= 0 {
		return nil
	}
	tps := float64(*completionTokens) / generation
	return models.FloatPtr(round2(tps))
}

func round2(v float64) float64 {
	return float64(int64(v*100+0.5)) / 100
}

// readServerLog loads the server log if it exists. A missing log is not an
// error; it means the stream was disabled or never started.
func readServerLog(path string) ([]byte, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}
	return data, true
}
