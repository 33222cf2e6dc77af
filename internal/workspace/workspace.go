// Package workspace owns the per-run directory under the evaluation root:
// atomic allocation, the fixed-name capture files, post-run artifact
// detection, entry-point script execution, and sealing. The workspace
// manager is the sole arbiter of directory allocation, so two concurrent
// runs can never collide on the same name.
package workspace

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/localagent/agenteval/internal/models"
)

// Fixed artifact filenames inside every workspace.
const (
	PromptFilename     = "PROMPT.TXT"
	TranscriptFilename = "CHAT_SESSION.TXT"
	ServerLogFilename  = "SERVER.LOG"
	OutputFilename     = "OUTPUT.TXT"
	RecordFilename     = "run.json"
	ReportFilename     = "summary.html"
)

// ErrExists signals a workspace collision: the directory for this
// (agent, model, prompt) triple already exists and force was not given.
var ErrExists = errors.New("workspace already exists")

// safeNameChars keeps alphanumerics, dash and underscore; everything else is
// dropped so model keys with slashes or dots produce stable directory names.
func sanitize(s string) string {
	var b strings.Builder
	for _, c := range s {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-', c == '_':
			b.WriteRune(c)
		}
	}
	return b.String()
}

// DirName computes the deterministic directory name for a run. The agent
// binary may be a full path; only its base name participates.
func DirName(agentBinary, model, promptStem string) string {
	return models.RunID(filepath.Base(agentBinary), sanitize(model), promptStem)
}

// Workspace is an allocated run directory.
type Workspace struct {
	dir string
}

// Dir returns the absolute workspace path.
func (w *Workspace) Dir() string { return w.dir }

// Name returns the workspace directory name (the run ID).
func (w *Workspace) Name() string { return filepath.Base(w.dir) }

// Path returns the absolute path of a file inside the workspace.
func (w *Workspace) Path(name string) string { return filepath.Join(w.dir, name) }

// Create allocates the workspace directory under root. os.Mkdir is the
// atomic create-if-absent primitive: when two runs race for the same name,
// exactly one wins and the other gets ErrExists. With force, a pre-existing
// directory is removed first.
func Create(root, name string, force bool) (*Workspace, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving evaluation root: %w", err)
	}
	if err := os.MkdirAll(absRoot, 0o755); err != nil {
		return nil, fmt.Errorf("creating evaluation root: %w", err)
	}

	dir := filepath.Join(absRoot, name)

	if force {
		// A sealed workspace has read-only files; restore write permission
		// before removal.
		if err := unseal(dir); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("unsealing prior workspace: %w", err)
		}
		if err := os.RemoveAll(dir); err != nil {
			return nil, fmt.Errorf("removing prior workspace: %w", err)
		}
	}

	if err := os.Mkdir(dir, 0o755); err != nil {
		if os.IsExist(err) {
			return nil, fmt.Errorf("%w: %s (use --force to overwrite)", ErrExists, dir)
		}
		return nil, fmt.Errorf("creating workspace: %w", err)
	}

	return &Workspace{dir: dir}, nil
}

// Open returns a handle to an existing workspace directory without creating
// anything. Used by the index builder and dashboard.
func Open(dir string) (*Workspace, error) {
	fi, err := os.Stat(dir)
	if err != nil {
		return nil, err
	}
	if !fi.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", dir)
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	return &Workspace{dir: abs}, nil
}

// WritePrompt stores the prompt text as PROMPT.TXT.
func (w *Workspace) WritePrompt(text string) error {
	if err := os.WriteFile(w.Path(PromptFilename), []byte(text), 0o644); err != nil {
		return fmt.Errorf("writing prompt: %w", err)
	}
	return nil
}

// WriteFile stores an arbitrary file (e.g. an agent config) in the workspace.
func (w *Workspace) WriteFile(name string, data []byte) error {
	if err := os.WriteFile(w.Path(name), data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}
	return nil
}

// Artifacts lists generated files in the workspace root: everything except
// the harness's own fixed-name capture files and dotfiles. Sorted for
// deterministic downstream output.
func (w *Workspace) Artifacts() ([]string, error) {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return nil, fmt.Errorf("scanning workspace: %w", err)
	}

	harnessOwned := map[string]bool{
		PromptFilename:     true,
		TranscriptFilename: true,
		ServerLogFilename:  true,
		OutputFilename:     true,
		RecordFilename:     true,
		ReportFilename:     true,
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") || harnessOwned[e.Name()] {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

// AllFiles lists every regular file in the workspace root, sorted. The
// report generator embeds these.
func (w *Workspace) AllFiles() ([]string, error) {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return nil, fmt.Errorf("scanning workspace: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

// Seal finalizes the workspace: the run record is written last, then every
// regular file is made read-only. The directory itself stays traversable so
// the index builder and dashboard can read it.
func (w *Workspace) Seal(rec *models.RunRecord) error {
	if err := rec.Save(w.Path(RecordFilename)); err != nil {
		return err
	}

	return filepath.WalkDir(w.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		return os.Chmod(path, 0o444)
	})
}

// unseal restores write permission so a sealed workspace can be removed.
func unseal(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return os.Chmod(path, 0o755)
		}
		return os.Chmod(path, 0o644)
	})
}

// LoadRecord reads the workspace's run record.
func (w *Workspace) LoadRecord() (*models.RunRecord, error) {
	return models.LoadRunRecord(w.Path(RecordFilename))
}
