// Package history keeps a tamper-evident record of pipeline runs. Records
// are hash-chained, signed with the server identity, and persisted as JSON
// lines so the file can be audited without the process that wrote it.
package history

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"
)

// Record is one pipeline run in the history chain.
type Record struct {
	Index          int    `json:"index"`
	Timestamp      string `json:"timestamp"`
	RunID          string `json:"runId"`
	Workflow       string `json:"workflow"`
	Branch         string `json:"branch"`
	Commit         string `json:"commit"`
	Conclusion     string `json:"conclusion"`
	ArtifactDigest string `json:"artifactDigest,omitempty"`
	PageURL        string `json:"pageUrl,omitempty"`
	PrevHash       string `json:"prevHash"`
	Hash           string `json:"hash"`
	Signature      string `json:"signature"`
	PubKey         string `json:"pubKey"`
}

// canonicalData returns the JSON bytes used to compute the record hash.
// It intentionally excludes Hash, Signature and PubKey.
func (r *Record) canonicalData() ([]byte, error) {
	view := struct {
		Index          int    `json:"index"`
		Timestamp      string `json:"timestamp"`
		RunID          string `json:"runId"`
		Workflow       string `json:"workflow"`
		Branch         string `json:"branch"`
		Commit         string `json:"commit"`
		Conclusion     string `json:"conclusion"`
		ArtifactDigest string `json:"artifactDigest"`
		PageURL        string `json:"pageUrl"`
		PrevHash       string `json:"prevHash"`
	}{
		Index:          r.Index,
		Timestamp:      r.Timestamp,
		RunID:          r.RunID,
		Workflow:       r.Workflow,
		Branch:         r.Branch,
		Commit:         r.Commit,
		Conclusion:     r.Conclusion,
		ArtifactDigest: r.ArtifactDigest,
		PageURL:        r.PageURL,
		PrevHash:       r.PrevHash,
	}
	return json.Marshal(view)
}

// ComputeHash calculates SHA256 over canonicalData.
func (r *Record) ComputeHash() (string, error) {
	data, err := r.canonicalData()
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// NewRecord constructs a record and computes its hash (no signature yet).
func NewRecord(index int, runID, workflow, branch, commit, conclusion, artifactDigest, pageURL, prevHash string) (*Record, error) {
	rec := &Record{
		Index:          index,
		Timestamp:      time.Now().UTC().Format(time.RFC3339),
		RunID:          runID,
		Workflow:       workflow,
		Branch:         branch,
		Commit:         commit,
		Conclusion:     conclusion,
		ArtifactDigest: artifactDigest,
		PageURL:        pageURL,
		PrevHash:       prevHash,
	}
	h, err := rec.ComputeHash()
	if err != nil {
		return nil, fmt.Errorf("compute record hash: %w", err)
	}
	rec.Hash = h
	return rec, nil
}
