package actions

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Checkout copies the event's source tree into the job workspace. The
// runner refuses to execute jobs against a shared tree, so every job sees
// its own copy.
type Checkout struct{}

func (c *Checkout) Name() string { return "checkout" }

func (c *Checkout) Run(_ context.Context, with map[string]string, job *Context) error {
	src := job.RepoPath
	if p, ok := with["path"]; ok && p != "" {
		src = p
	}
	if src == "" {
		return errors.New("checkout: no repository path on the event")
	}
	info, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("checkout %q: %w", src, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("checkout %q: not a directory", src)
	}
	return copyTree(src, job.Workspace)
}

// copyTree copies regular files and directories, skipping VCS metadata.
func copyTree(src, dest string) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		if d.IsDir() && d.Name() == ".git" {
			return filepath.SkipDir
		}
		target := filepath.Join(dest, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0755)
		}
		if !d.Type().IsRegular() {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		return os.WriteFile(target, data, info.Mode().Perm())
	})
}
