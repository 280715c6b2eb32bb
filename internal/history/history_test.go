package history

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pagesci/internal/provenance"
)

func TestNewRecordHash(t *testing.T) {
	rec, err := NewRecord(0, "run-1", "docs", "main", "abc123", "succeeded", "digest-1", "http://localhost:8000/", "")
	require.NoError(t, err)

	h, err := rec.ComputeHash()
	require.NoError(t, err)
	assert.Equal(t, rec.Hash, h)
}

func TestHistoryAppendAndVerify(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.jsonl")
	h, err := Open(path)
	require.NoError(t, err)

	pub, priv, err := provenance.GenerateKeyPair()
	require.NoError(t, err)

	r1, err := NewRecord(h.NextIndex(), "run-1", "docs", "main", "c1", "succeeded", "d1", "u", h.LastHash())
	require.NoError(t, err)
	require.NoError(t, h.Append(r1, priv, pub))

	r2, err := NewRecord(h.NextIndex(), "run-2", "docs", "main", "c2", "failed", "", "", h.LastHash())
	require.NoError(t, err)
	require.NoError(t, h.Append(r2, priv, pub))

	require.NoError(t, h.Verify())

	// Reopen from disk and verify again.
	reopened, err := Open(path)
	require.NoError(t, err)
	require.Len(t, reopened.Records(), 2)
	require.NoError(t, reopened.Verify())
	assert.Equal(t, "run-2", reopened.Records()[1].RunID)
}

func TestHistoryRejectsBrokenChainLink(t *testing.T) {
	h, err := Open(filepath.Join(t.TempDir(), "history.jsonl"))
	require.NoError(t, err)

	pub, priv, err := provenance.GenerateKeyPair()
	require.NoError(t, err)

	r1, err := NewRecord(0, "run-1", "docs", "main", "c1", "succeeded", "", "", "")
	require.NoError(t, err)
	require.NoError(t, h.Append(r1, priv, pub))

	r2, err := NewRecord(1, "run-2", "docs", "main", "c2", "succeeded", "", "", "not-the-last-hash")
	require.NoError(t, err)
	assert.Error(t, h.Append(r2, priv, pub))
}

func TestHistoryVerifyDetectsTampering(t *testing.T) {
	h, err := Open(filepath.Join(t.TempDir(), "history.jsonl"))
	require.NoError(t, err)

	pub, priv, err := provenance.GenerateKeyPair()
	require.NoError(t, err)

	r1, err := NewRecord(0, "run-1", "docs", "main", "c1", "succeeded", "d1", "u", "")
	require.NoError(t, err)
	require.NoError(t, h.Append(r1, priv, pub))
	require.NoError(t, h.Verify())

	h.Records()[0].Conclusion = "failed"
	assert.Error(t, h.Verify())
}

func TestHistoryAppendRequiresKey(t *testing.T) {
	h, err := Open(filepath.Join(t.TempDir(), "history.jsonl"))
	require.NoError(t, err)

	r1, err := NewRecord(0, "run-1", "docs", "main", "c1", "succeeded", "", "", "")
	require.NoError(t, err)
	assert.Error(t, h.Append(r1, nil, nil))
}
