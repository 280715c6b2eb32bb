// Package actions provides the reusable step implementations a workflow
// references with `uses: name@version`. Actions are opaque to the runner:
// it hands them inputs and a job context and observes success or failure
// plus any declared outputs.
package actions

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"pagesci/internal/artifact"
	"pagesci/internal/pages"
	"pagesci/internal/provenance"
)

// ErrUnknownAction is returned when a step references an action the
// registry does not know, or a version it does not carry.
var ErrUnknownAction = errors.New("unknown action")

// Context is the per-job environment an action runs against.
type Context struct {
	// Workspace is the job's fresh working directory.
	Workspace string
	// ArtifactDir is where produced bundles are written; it outlives the
	// job workspace for the rest of the run.
	ArtifactDir string

	// Event fields.
	RepoPath string
	Branch   string
	Commit   string

	// Inbound is the artifact injected from the upstream job, if any.
	Inbound *artifact.Bundle
	// Produced is set by an action that uploads an artifact.
	Produced *artifact.Bundle

	// Permissions are the capabilities the job declared.
	Permissions map[string]string
	// Outputs collects named step outputs (e.g. the deployment page_url).
	Outputs map[string]string

	Site   *pages.Site
	Signer *provenance.Signer
}

// Action is one reusable step implementation.
type Action interface {
	Name() string
	Run(ctx context.Context, with map[string]string, job *Context) error
}

// Registry resolves pinned action references.
type Registry struct {
	actions map[string]Action // keyed by "name@version"
}

func NewRegistry() *Registry {
	return &Registry{actions: make(map[string]Action)}
}

// Register binds an action implementation to a pinned reference.
func (r *Registry) Register(ref string, a Action) {
	r.actions[ref] = a
}

// Resolve looks up a pinned reference ("name@version").
func (r *Registry) Resolve(ref string) (Action, error) {
	if !strings.Contains(ref, "@") {
		return nil, fmt.Errorf("action reference %q is not pinned to a version: %w", ref, ErrUnknownAction)
	}
	a, ok := r.actions[ref]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAction, ref)
	}
	return a, nil
}

// Refs returns the registered references, sorted.
func (r *Registry) Refs() []string {
	refs := make([]string, 0, len(r.actions))
	for ref := range r.actions {
		refs = append(refs, ref)
	}
	sort.Strings(refs)
	return refs
}

// Default returns a registry with the built-in actions a docs publishing
// workflow uses.
func Default() *Registry {
	r := NewRegistry()
	r.Register("checkout@v4", &Checkout{})
	r.Register("setup-toolchain@v1", &SetupToolchain{})
	r.Register("write-redirect@v1", &WriteRedirect{})
	r.Register("upload-pages-artifact@v3", &UploadPagesArtifact{})
	r.Register("deploy-pages@v4", &DeployPages{})
	return r
}
