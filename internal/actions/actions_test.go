package actions

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pagesci/internal/artifact"
)

func TestRegistryResolve(t *testing.T) {
	registry := Default()

	a, err := registry.Resolve("checkout@v4")
	require.NoError(t, err)
	assert.Equal(t, "checkout", a.Name())

	_, err = registry.Resolve("checkout@v999")
	assert.ErrorIs(t, err, ErrUnknownAction)

	_, err = registry.Resolve("mystery@v1")
	assert.ErrorIs(t, err, ErrUnknownAction)

	_, err = registry.Resolve("checkout")
	assert.ErrorIs(t, err, ErrUnknownAction)
}

func TestDefaultRegistryRefs(t *testing.T) {
	assert.Equal(t, []string{
		"checkout@v4",
		"deploy-pages@v4",
		"setup-toolchain@v1",
		"upload-pages-artifact@v3",
		"write-redirect@v1",
	}, Default().Refs())
}

func TestCheckoutCopiesTree(t *testing.T) {
	repo := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(repo, "src"), 0755))
	require.NoError(t, os.MkdirAll(filepath.Join(repo, ".git"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(repo, "src", "lib.rs"), []byte("pub fn hand() {}"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(repo, ".git", "HEAD"), []byte("ref"), 0644))

	job := &Context{Workspace: t.TempDir(), RepoPath: repo, Outputs: map[string]string{}}
	require.NoError(t, (&Checkout{}).Run(context.Background(), nil, job))

	assert.FileExists(t, filepath.Join(job.Workspace, "src", "lib.rs"))
	assert.NoFileExists(t, filepath.Join(job.Workspace, ".git", "HEAD"))
}

func TestCheckoutRequiresRepo(t *testing.T) {
	job := &Context{Workspace: t.TempDir(), Outputs: map[string]string{}}
	assert.Error(t, (&Checkout{}).Run(context.Background(), nil, job))
}

func TestSetupToolchain(t *testing.T) {
	job := &Context{Workspace: t.TempDir(), Outputs: map[string]string{}}

	// sh is always around where the executor runs steps.
	require.NoError(t, (&SetupToolchain{}).Run(context.Background(), map[string]string{"tool": "sh"}, job))

	err := (&SetupToolchain{}).Run(context.Background(), map[string]string{"tool": "definitely-not-a-tool"}, job)
	assert.Error(t, err)
}

func TestUploadPagesArtifact(t *testing.T) {
	job := &Context{Workspace: t.TempDir(), ArtifactDir: t.TempDir(), Outputs: map[string]string{}}
	docDir := filepath.Join(job.Workspace, "target", "doc")
	require.NoError(t, os.MkdirAll(docDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(docDir, "index.html"), []byte("docs"), 0644))

	upload := &UploadPagesArtifact{}
	require.NoError(t, upload.Run(context.Background(), map[string]string{"path": "target/doc"}, job))

	require.NotNil(t, job.Produced)
	assert.Equal(t, DefaultArtifactName, job.Produced.Name)
	assert.Equal(t, 1, job.Produced.Manifest.Files)

	// A job produces at most one artifact.
	err := upload.Run(context.Background(), map[string]string{"path": "target/doc"}, job)
	assert.Error(t, err)
}

func TestUploadPagesArtifactEmptyPathFails(t *testing.T) {
	job := &Context{Workspace: t.TempDir(), ArtifactDir: t.TempDir(), Outputs: map[string]string{}}
	require.NoError(t, os.MkdirAll(filepath.Join(job.Workspace, "target", "doc"), 0755))

	err := (&UploadPagesArtifact{}).Run(context.Background(), map[string]string{"path": "target/doc"}, job)
	assert.ErrorIs(t, err, artifact.ErrEmpty)
}

func TestDeployPagesChecksPermissions(t *testing.T) {
	job := &Context{
		Workspace:   t.TempDir(),
		Outputs:     map[string]string{},
		Permissions: map[string]string{"pages": "write"},
	}
	err := (&DeployPages{}).Run(context.Background(), nil, job)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "id-token")

	job.Permissions = nil
	err = (&DeployPages{}).Run(context.Background(), nil, job)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pages")
}

func TestWriteRedirectAction(t *testing.T) {
	job := &Context{Workspace: t.TempDir(), Outputs: map[string]string{}}

	err := (&WriteRedirect{}).Run(context.Background(),
		map[string]string{"path": "target/doc", "target": "./rahjong/index.html"}, job)
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join(job.Workspace, "target", "doc", "index.html"))
}
