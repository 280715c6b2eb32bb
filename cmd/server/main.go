// Command server exposes the pipeline runner over HTTP: push events come
// in on POST /events, run status is read back from /runs, and the run
// history chain can be verified remotely.
package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"sort"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"pagesci/internal/actions"
	"pagesci/internal/core"
	"pagesci/internal/history"
	"pagesci/internal/logging"
	"pagesci/internal/pages"
	"pagesci/internal/provenance"
	"pagesci/internal/storage"
)

type runEntry struct {
	ID     string               `json:"id"`
	Status core.RunStatus       `json:"status"`
	Result *core.PipelineResult `json:"result,omitempty"`
}

type server struct {
	mu       sync.Mutex
	runner   *core.Runner
	workflow *core.Workflow
	runs     map[string]*runEntry
}

// POST /events -> accept a push event and start a run asynchronously.
func (s *server) handleEvent(w http.ResponseWriter, r *http.Request) {
	var ev core.Event
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		http.Error(w, "cannot decode event", http.StatusBadRequest)
		return
	}
	if ev.Type == "" {
		ev.Type = core.EventPush
	}

	id := uuid.NewString()
	entry := &runEntry{ID: id, Status: core.RunPending}

	s.mu.Lock()
	s.runs[id] = entry
	s.mu.Unlock()

	go func() {
		result, err := s.runner.RunPipelineWithID(context.Background(), id, s.workflow, ev)

		s.mu.Lock()
		defer s.mu.Unlock()
		if err != nil {
			entry.Status = core.RunFailed
			slog.Error("run could not execute", "runId", id, "error", err)
			return
		}
		entry.Status = result.Status
		entry.Result = result
	}()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]string{"id": id, "status": string(core.RunPending)})
}

// GET /runs -> list all runs.
func (s *server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	entries := make([]runEntry, 0, len(s.runs))
	for _, e := range s.runs {
		entries = append(entries, *e)
	}
	s.mu.Unlock()

	sort.Slice(entries, func(i, j int) bool { return entries[i].ID < entries[j].ID })
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(entries)
}

// GET /runs/{id} -> status and result of one run.
func (s *server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.mu.Lock()
	entry, ok := s.runs[id]
	var cp runEntry
	if ok {
		cp = *entry
	}
	s.mu.Unlock()

	if !ok {
		http.Error(w, "run not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(cp)
}

// GET /history/verify -> verify the run history chain.
func (s *server) handleVerifyHistory(w http.ResponseWriter, r *http.Request) {
	if s.runner.History == nil {
		http.Error(w, "no history configured", http.StatusNotFound)
		return
	}
	if err := s.runner.History.Verify(); err != nil {
		http.Error(w, "history verification failed: "+err.Error(), http.StatusConflict)
		return
	}
	w.Write([]byte("history verification ok"))
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	// Optional: local settings from a .env file.
	_ = godotenv.Load()

	if err := logging.Initialize(envOr("LOG_FORMAT", logging.Tint), envOr("LOG_LEVEL", "info")); err != nil {
		slog.Error("logging setup failed", "error", err)
		os.Exit(1)
	}

	workflowPath := envOr("WORKFLOW", "docs.yaml")
	wf, err := core.LoadWorkflow(workflowPath)
	if err != nil {
		slog.Error("could not load workflow", "path", workflowPath, "error", err)
		os.Exit(1)
	}

	pub, priv, err := provenance.EnsureKeyPair(envOr("KEYS_DIR", "./keys"))
	if err != nil {
		slog.Error("could not set up provenance keys", "error", err)
		os.Exit(1)
	}

	historyPath := envOr("HISTORY_FILE", "./history.jsonl")
	hist, err := history.Open(historyPath)
	if err != nil {
		slog.Error("could not open run history", "path", historyPath, "error", err)
		os.Exit(1)
	}

	srv := &server{
		runner: core.NewRunner(core.RunnerConfig{
			Registry: actions.Default(),
			Logs:     storage.NewLogStore(envOr("LOG_DIR", "./logs")),
			History:  hist,
			Site:     pages.NewSite("github-pages", envOr("SITE_ROOT", "./public"), envOr("BASE_URL", "http://localhost:8000/")),
			Signer:   provenance.NewSigner(pub, priv),
		}),
		workflow: wf,
		runs:     make(map[string]*runEntry),
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Post("/events", srv.handleEvent)
	r.Get("/runs", srv.handleListRuns)
	r.Get("/runs/{id}", srv.handleGetRun)
	r.Get("/history/verify", srv.handleVerifyHistory)

	addr := ":" + envOr("PORT", "8080")
	slog.Info("pagesci server listening", "addr", addr, "workflow", wf.Name)
	if err := http.ListenAndServe(addr, r); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
