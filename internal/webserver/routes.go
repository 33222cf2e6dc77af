package webserver

import (
	"encoding/json"
	"net/http"
	"path/filepath"

	"github.com/localagent/agenteval/internal/index"
	"github.com/localagent/agenteval/internal/models"
	"github.com/localagent/agenteval/internal/workspace"
)

// registerRoutes sets up API and dashboard routes on the given mux.
func registerRoutes(mux *http.ServeMux, cfg Config) {
	builder := index.NewBuilder(nil, cfg.Logger)
	rootBase := filepath.Base(filepath.Clean(cfg.Root))

	mux.HandleFunc("GET /api/health", handleHealth)
	mux.HandleFunc("GET /api/runs", handleRuns(builder, cfg.Root))
	mux.HandleFunc("GET /api/runs/{id}", handleRun(cfg.Root))

	// Run workspaces (reports, transcripts, artifacts) straight off disk.
	mux.Handle("GET /"+rootBase+"/", http.StripPrefix("/"+rootBase+"/", http.FileServer(http.Dir(cfg.Root))))

	// The dashboard is rendered per request so new runs appear on reload
	// without a rebuild step.
	mux.HandleFunc("GET /", handleDashboard(builder, cfg.Root))
}

// handleHealth returns a simple health check response.
func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"}) //nolint:errcheck
}

func handleDashboard(builder *index.Builder, root string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" && r.URL.Path != "/index.html" {
			http.NotFound(w, r)
			return
		}
		entries, err := builder.Scan(root)
		if err != nil {
			http.Error(w, "scanning evaluations: "+err.Error(), http.StatusInternalServerError)
			return
		}
		page, err := index.Render(entries)
		if err != nil {
			http.Error(w, "rendering dashboard: "+err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write(page) //nolint:errcheck
	}
}

func handleRuns(builder *index.Builder, root string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entries, err := builder.Scan(root)
		if err != nil {
			writeJSONError(w, http.StatusInternalServerError, err.Error())
			return
		}
		type runSummary struct {
			RunID     string        `json:"run_id"`
			Agent     string        `json:"agent"`
			Status    models.Status `json:"status,omitempty"`
			HasReport bool          `json:"has_report"`
			Degraded  bool          `json:"degraded,omitempty"`
		}
		out := make([]runSummary, 0, len(entries))
		for _, e := range entries {
			out = append(out, runSummary{
				RunID:     e.DirName,
				Agent:     e.AgentDisplay,
				Status:    e.Status,
				HasReport: e.HasReport,
				Degraded:  e.Degraded,
			})
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(out) //nolint:errcheck
	}
}

func handleRun(root string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		if id != filepath.Base(id) {
			writeJSONError(w, http.StatusBadRequest, "invalid run id")
			return
		}
		rec, err := models.LoadRunRecord(filepath.Join(root, id, workspace.RecordFilename))
		if err != nil {
			writeJSONError(w, http.StatusNotFound, "run record not found")
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(rec) //nolint:errcheck
	}
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg}) //nolint:errcheck
}
