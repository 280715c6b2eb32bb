// Command agent is a remote step executor: the server can delegate run
// steps to an agent over HTTP instead of executing them in-process.
package main

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"pagesci/internal/actions"
	"pagesci/internal/core"
	"pagesci/internal/logging"
)

type stepRequest struct {
	Job  string `json:"job"`
	Step string `json:"step"`
	Cmd  string `json:"cmd"`
}

type stepResponse struct {
	Job      string `json:"job"`
	Step     string `json:"step"`
	ExitCode int    `json:"exitCode"`
	Output   string `json:"output"`
	Status   string `json:"status"`
}

func handleRunStep(executor *core.Executor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req stepRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "cannot decode step request", http.StatusBadRequest)
			return
		}
		if req.Cmd == "" {
			http.Error(w, "cmd is required", http.StatusBadRequest)
			return
		}

		workspace, err := os.MkdirTemp("", "agent-step-*")
		if err != nil {
			http.Error(w, "cannot create workspace", http.StatusInternalServerError)
			return
		}
		defer os.RemoveAll(workspace)

		slog.Info("agent running step", "job", req.Job, "step", req.Step)
		output, code, runErr := executor.RunStep(r.Context(),
			core.Step{Name: req.Step, Run: req.Cmd},
			&actions.Context{Workspace: workspace, Outputs: make(map[string]string)})

		status := "succeeded"
		if runErr != nil {
			status = "failed"
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(stepResponse{
			Job:      req.Job,
			Step:     req.Step,
			ExitCode: code,
			Output:   output,
			Status:   status,
		})
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	if err := logging.Initialize(envOr("LOG_FORMAT", logging.Tint), envOr("LOG_LEVEL", "info")); err != nil {
		slog.Error("logging setup failed", "error", err)
		os.Exit(1)
	}

	executor := core.NewExecutor(actions.Default())

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Post("/run", handleRunStep(executor))

	addr := ":" + envOr("AGENT_PORT", "9090")
	slog.Info("pagesci agent listening", "addr", addr)
	if err := http.ListenAndServe(addr, r); err != nil {
		slog.Error("agent stopped", "error", err)
		os.Exit(1)
	}
}
