// Command pagesci runs a workflow locally against a push event and exits
// with the pipeline outcome: 0 on success or skip, non-zero on failure.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"pagesci/internal/actions"
	"pagesci/internal/core"
	"pagesci/internal/history"
	"pagesci/internal/logging"
	"pagesci/internal/pages"
	"pagesci/internal/provenance"
	"pagesci/internal/storage"
)

const (
	_ = iota
	exitPipelineFailed
	exitBadInvocation
	exitLoadWorkflowFailed
	exitSetupFailed
)

var (
	workflowPath string
	branch       string
	commit       string
	repoPath     string
	siteRoot     string
	baseURL      string
	logDir       string
	historyPath  string
	keysDir      string
	loggingType  string
	logLevel     string
)

func init() {
	flag.StringVar(&workflowPath, "workflow", "docs.yaml", "workflow definition file")
	flag.StringVar(&branch, "branch", "", "branch of the push event")
	flag.StringVar(&commit, "commit", "", "commit of the push event")
	flag.StringVar(&repoPath, "repo", ".", "source tree the checkout action copies")
	flag.StringVar(&siteRoot, "site-root", "./public", "directory the deploy action publishes into")
	flag.StringVar(&baseURL, "base-url", "http://localhost:8000/", "published page URL")
	flag.StringVar(&logDir, "logs", "./logs", "step log directory")
	flag.StringVar(&historyPath, "history", "./history.jsonl", "run history file")
	flag.StringVar(&keysDir, "keys", "./keys", "provenance key directory")
	flag.StringVar(&loggingType, "log-format", logging.Tint, "log format: tint, text or json")
	flag.StringVar(&logLevel, "log-level", "info", "log level")
}

func main() {
	flag.Parse()

	if err := logging.Initialize(loggingType, logLevel); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitBadInvocation)
	}
	if branch == "" {
		slog.Error("-branch is required")
		os.Exit(exitBadInvocation)
	}

	wf, err := core.LoadWorkflow(workflowPath)
	if err != nil {
		slog.Error("could not load workflow", "path", workflowPath, "error", err)
		os.Exit(exitLoadWorkflowFailed)
	}

	pub, priv, err := provenance.EnsureKeyPair(keysDir)
	if err != nil {
		slog.Error("could not set up provenance keys", "dir", keysDir, "error", err)
		os.Exit(exitSetupFailed)
	}

	hist, err := history.Open(historyPath)
	if err != nil {
		slog.Error("could not open run history", "path", historyPath, "error", err)
		os.Exit(exitSetupFailed)
	}

	runner := core.NewRunner(core.RunnerConfig{
		Registry: actions.Default(),
		Logs:     storage.NewLogStore(logDir),
		History:  hist,
		Site:     pages.NewSite("github-pages", siteRoot, baseURL),
		Signer:   provenance.NewSigner(pub, priv),
	})

	event := core.Event{
		Type:     core.EventPush,
		Branch:   branch,
		Commit:   commit,
		RepoPath: repoPath,
	}

	result, err := runner.RunPipeline(context.Background(), wf, event)
	if err != nil {
		slog.Error("pipeline could not run", "error", err)
		os.Exit(exitSetupFailed)
	}

	switch {
	case result.Skipped():
		slog.Info("run skipped", "workflow", wf.Name, "branch", branch)
	case result.Succeeded():
		slog.Info("run succeeded", "runId", result.RunID, "pageUrl", result.PageURL)
	default:
		slog.Error("run failed", "runId", result.RunID,
			"job", result.FailedJob, "status", result.Status)
		os.Exit(exitPipelineFailed)
	}
}
