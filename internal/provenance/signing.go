// Package provenance manages the ed25519 identity used to attest
// deployments. The deploy step signs the digest of the artifact it
// publishes so that anyone holding the public key can later verify what
// was deployed and by whom.
package provenance

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// GenerateKeyPair creates a new ed25519 keypair.
func GenerateKeyPair() (ed25519.PublicKey, ed25519.PrivateKey, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, nil, err
	}
	return pub, priv, nil
}

// SaveKeyPair writes both keys as hex-encoded files.
func SaveKeyPair(pub ed25519.PublicKey, priv ed25519.PrivateKey, pubPath, privPath string) error {
	if err := os.WriteFile(pubPath, []byte(hex.EncodeToString(pub)), 0600); err != nil {
		return err
	}
	return os.WriteFile(privPath, []byte(hex.EncodeToString(priv)), 0600)
}

// LoadPrivateKey loads an ed25519 private key from a hex-encoded file.
func LoadPrivateKey(path string) (ed25519.PrivateKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	keyBytes, err := hex.DecodeString(string(data))
	if err != nil {
		return nil, err
	}
	if len(keyBytes) != ed25519.PrivateKeySize {
		return nil, errors.New("invalid private key size")
	}
	return ed25519.PrivateKey(keyBytes), nil
}

// LoadPublicKey loads an ed25519 public key from a hex-encoded file.
func LoadPublicKey(path string) (ed25519.PublicKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	keyBytes, err := hex.DecodeString(string(data))
	if err != nil {
		return nil, err
	}
	if len(keyBytes) != ed25519.PublicKeySize {
		return nil, errors.New("invalid public key size")
	}
	return ed25519.PublicKey(keyBytes), nil
}

// EnsureKeyPair loads the keypair under dir, generating and saving a new
// one if none exists yet.
func EnsureKeyPair(dir string) (ed25519.PublicKey, ed25519.PrivateKey, error) {
	pubPath := filepath.Join(dir, "deploy.pub")
	privPath := filepath.Join(dir, "deploy.priv")

	if _, err := os.Stat(privPath); os.IsNotExist(err) {
		pub, priv, err := GenerateKeyPair()
		if err != nil {
			return nil, nil, err
		}
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, nil, err
		}
		if err := SaveKeyPair(pub, priv, pubPath, privPath); err != nil {
			return nil, nil, err
		}
		return pub, priv, nil
	}

	priv, err := LoadPrivateKey(privPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load private key: %w", err)
	}
	pub, err := LoadPublicKey(pubPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load public key: %w", err)
	}
	return pub, priv, nil
}

// Signer signs deployment attestations with a fixed identity.
type Signer struct {
	priv ed25519.PrivateKey
	pub  ed25519.PublicKey
}

func NewSigner(pub ed25519.PublicKey, priv ed25519.PrivateKey) *Signer {
	return &Signer{priv: priv, pub: pub}
}

// Public returns the signer's public key.
func (s *Signer) Public() ed25519.PublicKey { return s.pub }

// Private returns the signer's private key.
func (s *Signer) Private() ed25519.PrivateKey { return s.priv }

// Attestation records who deployed which artifact content. The signature
// covers the artifact digest only; the timestamp is informational.
type Attestation struct {
	ArtifactDigest string `json:"artifactDigest"`
	SignedAt       string `json:"signedAt"`
	Signature      string `json:"signature"`
	PubKey         string `json:"pubKey"`
}

// Attest signs an artifact digest.
func (s *Signer) Attest(artifactDigest string) (*Attestation, error) {
	if len(s.priv) == 0 {
		return nil, errors.New("private key is empty, cannot sign attestation")
	}
	sig := ed25519.Sign(s.priv, []byte(artifactDigest))
	return &Attestation{
		ArtifactDigest: artifactDigest,
		SignedAt:       time.Now().UTC().Format(time.RFC3339),
		Signature:      hex.EncodeToString(sig),
		PubKey:         hex.EncodeToString(s.pub),
	}, nil
}

// Verify checks the attestation signature against its embedded public key.
func (a *Attestation) Verify() error {
	pubBytes, err := hex.DecodeString(a.PubKey)
	if err != nil {
		return fmt.Errorf("decode public key: %w", err)
	}
	if len(pubBytes) != ed25519.PublicKeySize {
		return errors.New("invalid public key size")
	}
	sig, err := hex.DecodeString(a.Signature)
	if err != nil {
		return fmt.Errorf("decode signature: %w", err)
	}
	if !ed25519.Verify(ed25519.PublicKey(pubBytes), []byte(a.ArtifactDigest), sig) {
		return errors.New("attestation signature mismatch")
	}
	return nil
}
