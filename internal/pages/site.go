package pages

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"pagesci/internal/artifact"
	"pagesci/internal/provenance"
	"pagesci/pkg/digest"
)

// Site is a pages-style deployment environment: artifacts are unpacked
// under a site root and served from a stable base URL.
type Site struct {
	mu      sync.Mutex
	Name    string
	Root    string
	BaseURL string
}

// Deployment is the observable result of publishing an artifact.
type Deployment struct {
	URL            string    `json:"url"`
	ArtifactDigest string    `json:"artifactDigest"`
	DeployedAt     time.Time `json:"deployedAt"`
}

func NewSite(name, root, baseURL string) *Site {
	return &Site{Name: name, Root: root, BaseURL: baseURL}
}

// Deploy unpacks the bundle into the site root, replacing previous
// content, and stores the attestation next to the published tree. The
// bundle must exist and be non-empty.
func (s *Site) Deploy(b *artifact.Bundle, att *provenance.Attestation) (*Deployment, error) {
	if b == nil {
		return nil, artifact.ErrMissing
	}
	if b.Manifest.Files == 0 || b.Manifest.Size == 0 {
		return nil, fmt.Errorf("deploying %q: %w", b.Name, artifact.ErrEmpty)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Unpack into a staging directory first so a bad bundle cannot leave
	// the site half-replaced.
	staging := s.Root + ".staging"
	if err := os.RemoveAll(staging); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(staging, 0755); err != nil {
		return nil, err
	}
	if err := artifact.Unpack(b, staging); err != nil {
		os.RemoveAll(staging)
		return nil, err
	}

	if err := os.RemoveAll(s.Root); err != nil {
		return nil, err
	}
	if err := os.Rename(staging, s.Root); err != nil {
		return nil, err
	}

	if att != nil {
		data, err := json.MarshalIndent(att, "", "  ")
		if err != nil {
			return nil, err
		}
		if err := os.WriteFile(s.attestationPath(), data, 0644); err != nil {
			return nil, err
		}
	}

	return &Deployment{
		URL:            s.BaseURL,
		ArtifactDigest: b.Manifest.Digest,
		DeployedAt:     time.Now().UTC(),
	}, nil
}

// ContentDigest returns the deterministic digest of the published tree.
func (s *Site) ContentDigest() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return digest.Tree(s.Root)
}

// Attestation loads the stored deployment attestation, if any.
func (s *Site) Attestation() (*provenance.Attestation, error) {
	data, err := os.ReadFile(s.attestationPath())
	if err != nil {
		return nil, err
	}
	var att provenance.Attestation
	if err := json.Unmarshal(data, &att); err != nil {
		return nil, err
	}
	return &att, nil
}

// attestationPath keeps the attestation outside the published tree so the
// site's content digest stays a function of the artifact alone.
func (s *Site) attestationPath() string {
	return filepath.Join(filepath.Dir(s.Root), filepath.Base(s.Root)+".attestation.json")
}
