package actions

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"pagesci/internal/artifact"
	"pagesci/internal/pages"
	"pagesci/internal/provenance"
)

// DefaultArtifactName matches the conventional pages artifact name.
const DefaultArtifactName = "github-pages"

// WriteRedirect writes the root redirect index.html into a workspace
// directory so the published site's root resolves to the documentation
// entry page.
type WriteRedirect struct{}

func (w *WriteRedirect) Name() string { return "write-redirect" }

func (w *WriteRedirect) Run(_ context.Context, with map[string]string, job *Context) error {
	dir := job.Workspace
	if p := with["path"]; p != "" {
		dir = filepath.Join(job.Workspace, p)
	}
	return pages.WriteRedirect(dir, with["target"])
}

// UploadPagesArtifact packs a workspace path into the job's named
// artifact. A job produces at most one artifact; a second upload in the
// same job is an error.
type UploadPagesArtifact struct{}

func (u *UploadPagesArtifact) Name() string { return "upload-pages-artifact" }

func (u *UploadPagesArtifact) Run(_ context.Context, with map[string]string, job *Context) error {
	if job.Produced != nil {
		return errors.New("upload-pages-artifact: job already produced an artifact")
	}

	name := with["name"]
	if name == "" {
		name = DefaultArtifactName
	}
	dir := job.Workspace
	if p := with["path"]; p != "" {
		dir = filepath.Join(job.Workspace, p)
	}

	var patterns []string
	if inc := with["include"]; inc != "" {
		for _, p := range strings.Split(inc, ",") {
			if p = strings.TrimSpace(p); p != "" {
				patterns = append(patterns, p)
			}
		}
	}

	bundle, err := artifact.Pack(name, dir, patterns, job.ArtifactDir)
	if err != nil {
		return fmt.Errorf("upload-pages-artifact: %w", err)
	}
	job.Produced = bundle
	return nil
}

// DeployPages publishes the inbound artifact to the pages site. The job
// must declare pages write access and an identity token for provenance;
// the artifact must exist and be non-empty.
type DeployPages struct{}

func (d *DeployPages) Name() string { return "deploy-pages" }

func (d *DeployPages) Run(_ context.Context, _ map[string]string, job *Context) error {
	if job.Permissions["pages"] != "write" {
		return errors.New("deploy-pages: job lacks pages: write permission")
	}
	if job.Permissions["id-token"] != "write" {
		return errors.New("deploy-pages: job lacks id-token: write permission")
	}
	if job.Site == nil {
		return errors.New("deploy-pages: no deployment environment configured")
	}
	if job.Inbound == nil {
		return fmt.Errorf("deploy-pages: %w", artifact.ErrMissing)
	}

	var att *provenance.Attestation
	if job.Signer != nil {
		var err error
		att, err = job.Signer.Attest(job.Inbound.Manifest.Digest)
		if err != nil {
			return fmt.Errorf("deploy-pages: attest artifact: %w", err)
		}
	}

	dep, err := job.Site.Deploy(job.Inbound, att)
	if err != nil {
		return fmt.Errorf("deploy-pages: %w", err)
	}

	job.Outputs["page_url"] = dep.URL
	job.Outputs["artifact_digest"] = dep.ArtifactDigest
	return nil
}
