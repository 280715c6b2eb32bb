package history

import (
	"bytes"
	"crypto/ed25519"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

// History is the append-only run record store.
type History struct {
	mu      sync.Mutex
	records []*Record
	path    string
}

// Open loads an existing history file or starts an empty one.
// File format: JSON lines, one record per line.
func Open(path string) (*History, error) {
	h := &History{
		records: make([]*Record, 0),
		path:    path,
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return h, nil
	}
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return h, nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	for dec.More() {
		var rec Record
		if err := dec.Decode(&rec); err != nil {
			return nil, fmt.Errorf("decode history entry: %w", err)
		}
		h.records = append(h.records, &rec)
	}
	return h, nil
}

// Append signs the record, checks the chain link, persists it, and keeps
// it in memory.
func (h *History) Append(rec *Record, priv ed25519.PrivateKey, pub ed25519.PublicKey) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	// Recompute the hash so canonical fields and hash cannot drift.
	hash, err := rec.ComputeHash()
	if err != nil {
		return fmt.Errorf("recompute record hash: %w", err)
	}
	rec.Hash = hash

	if len(h.records) > 0 {
		last := h.records[len(h.records)-1]
		if rec.PrevHash != last.Hash {
			return fmt.Errorf("prevHash mismatch: expected %s, got %s", last.Hash, rec.PrevHash)
		}
	}

	if len(priv) == 0 {
		return fmt.Errorf("private key is empty, cannot sign record")
	}
	sig := ed25519.Sign(priv, []byte(rec.Hash))
	rec.Signature = hex.EncodeToString(sig)
	rec.PubKey = hex.EncodeToString(pub)

	f, err := os.OpenFile(h.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("open history file: %w", err)
	}
	defer f.Close()

	if err := json.NewEncoder(f).Encode(rec); err != nil {
		return fmt.Errorf("write history file: %w", err)
	}

	h.records = append(h.records, rec)
	return nil
}

// NextIndex returns the index the next record should carry.
func (h *History) NextIndex() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.records)
}

// LastHash returns the hash of the newest record, or "" if none.
func (h *History) LastHash() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.records) == 0 {
		return ""
	}
	return h.records[len(h.records)-1].Hash
}

// Records returns the in-memory records. Callers must not mutate them.
func (h *History) Records() []*Record {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.records
}

// Verify recomputes every record hash, chain link and signature to detect
// tampering.
func (h *History) Verify() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	for i, rec := range h.records {
		hash, err := rec.ComputeHash()
		if err != nil {
			return fmt.Errorf("compute hash for index %d: %w", rec.Index, err)
		}
		if hash != rec.Hash {
			return fmt.Errorf("hash mismatch at index %d", rec.Index)
		}
		if i > 0 && rec.PrevHash != h.records[i-1].Hash {
			return fmt.Errorf("prevHash mismatch at index %d", rec.Index)
		}
		if rec.Index != i {
			return fmt.Errorf("index mismatch: expected %d, got %d", i, rec.Index)
		}

		pubBytes, err := hex.DecodeString(rec.PubKey)
		if err != nil || len(pubBytes) != ed25519.PublicKeySize {
			return fmt.Errorf("invalid public key at index %d", rec.Index)
		}
		sig, err := hex.DecodeString(rec.Signature)
		if err != nil {
			return fmt.Errorf("invalid signature encoding at index %d", rec.Index)
		}
		if !ed25519.Verify(ed25519.PublicKey(pubBytes), []byte(rec.Hash), sig) {
			return fmt.Errorf("signature mismatch at index %d", rec.Index)
		}
	}
	return nil
}
