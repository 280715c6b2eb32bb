// Package artifact packs job outputs into named tar.gz bundles that are
// handed from one job to a dependent job or to a deployment target.
package artifact

import (
	"archive/tar"
	"compress/gzip"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"

	"pagesci/pkg/digest"
)

var (
	// ErrEmpty is returned when packing matches no files.
	ErrEmpty = errors.New("artifact contains no files")
	// ErrMissing is returned when a consumer is asked to use an artifact
	// that was never produced.
	ErrMissing = errors.New("artifact missing")
)

// Manifest describes the content of a bundle.
type Manifest struct {
	Name  string `json:"name"`
	Files int    `json:"files"`
	Size  int64  `json:"size"`
	// Digest is a deterministic content digest (relative paths plus file
	// bytes), independent of archive encoding and timestamps.
	Digest string `json:"digest"`
}

// Bundle is a packed artifact on disk.
type Bundle struct {
	Name     string
	Path     string // tar.gz file
	Manifest Manifest
}

// Pack bundles the files under dir into a tar.gz written to destDir.
// Patterns are doublestar globs matched against slash-separated paths
// relative to dir; an empty pattern list includes everything.
func Pack(name, dir string, patterns []string, destDir string) (*Bundle, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("artifact source %q: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("artifact source %q is not a directory", dir)
	}

	files, totalSize, err := collect(dir, patterns)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("packing %q from %s: %w", name, dir, ErrEmpty)
	}

	if err := os.MkdirAll(destDir, 0755); err != nil {
		return nil, err
	}
	bundlePath := filepath.Join(destDir, name+".tar.gz")
	if err := writeTarGz(bundlePath, dir, files); err != nil {
		return nil, err
	}

	contentDigest, err := treeDigest(dir, files)
	if err != nil {
		return nil, err
	}

	return &Bundle{
		Name: name,
		Path: bundlePath,
		Manifest: Manifest{
			Name:   name,
			Files:  len(files),
			Size:   totalSize,
			Digest: contentDigest,
		},
	}, nil
}

// Unpack extracts a bundle into dest and verifies the extracted content
// against the bundle's manifest digest.
func Unpack(b *Bundle, dest string) error {
	if b == nil {
		return ErrMissing
	}
	if b.Manifest.Files == 0 {
		return fmt.Errorf("unpacking %q: %w", b.Name, ErrEmpty)
	}

	f, err := os.Open(b.Path)
	if err != nil {
		return fmt.Errorf("open bundle %q: %w", b.Name, err)
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return fmt.Errorf("read bundle %q: %w", b.Name, err)
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("read bundle %q: %w", b.Name, err)
		}

		target, err := securePath(dest, hdr.Name)
		if err != nil {
			return err
		}
		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0755); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
				return err
			}
			out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, fs.FileMode(hdr.Mode).Perm())
			if err != nil {
				return err
			}
			if _, err := io.Copy(out, tr); err != nil {
				out.Close()
				return err
			}
			out.Close()
		}
	}

	got, err := digest.Tree(dest)
	if err != nil {
		return err
	}
	if got != b.Manifest.Digest {
		return fmt.Errorf("bundle %q: content digest mismatch: got %s, want %s", b.Name, got, b.Manifest.Digest)
	}
	return nil
}

// collect returns sorted relative paths of regular files under dir that
// match the include patterns, plus their total size.
func collect(dir string, patterns []string) ([]string, int64, error) {
	var files []string
	var total int64
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if len(patterns) > 0 {
			matched := false
			for _, p := range patterns {
				ok, err := doublestar.Match(p, rel)
				if err != nil {
					return fmt.Errorf("bad include pattern %q: %w", p, err)
				}
				if ok {
					matched = true
					break
				}
			}
			if !matched {
				return nil
			}
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		total += info.Size()
		files = append(files, rel)
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	sort.Strings(files)
	return files, total, nil
}

func writeTarGz(bundlePath, dir string, files []string) error {
	out, err := os.Create(bundlePath)
	if err != nil {
		return err
	}
	defer out.Close()

	gz := gzip.NewWriter(out)
	tw := tar.NewWriter(gz)

	for _, rel := range files {
		path := filepath.Join(dir, filepath.FromSlash(rel))
		info, err := os.Stat(path)
		if err != nil {
			return err
		}
		hdr := &tar.Header{
			Name: rel,
			Mode: int64(info.Mode().Perm()),
			Size: info.Size(),
		}
		if err := tw.WriteHeader(hdr); err != nil {
			return err
		}
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		if _, err := io.Copy(tw, f); err != nil {
			f.Close()
			return err
		}
		f.Close()
	}

	if err := tw.Close(); err != nil {
		return err
	}
	return gz.Close()
}

// treeDigest hashes the selected files the same way digest.Tree does, so
// the bundle digest matches what digest.Tree reports after an Unpack into
// an empty directory.
func treeDigest(dir string, files []string) (string, error) {
	h := sha256.New()
	for _, rel := range files {
		fmt.Fprintf(h, "%s\x00", rel)
		f, err := os.Open(filepath.Join(dir, filepath.FromSlash(rel)))
		if err != nil {
			return "", err
		}
		if _, err := io.Copy(h, f); err != nil {
			f.Close()
			return "", err
		}
		f.Close()
		fmt.Fprint(h, "\x00")
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func securePath(dest, name string) (string, error) {
	target := filepath.Join(dest, filepath.FromSlash(name))
	rel, err := filepath.Rel(dest, target)
	if err != nil || rel == ".." || len(rel) >= 3 && rel[:3] == ".."+string(filepath.Separator) {
		return "", fmt.Errorf("bundle entry %q escapes destination", name)
	}
	return target, nil
}
