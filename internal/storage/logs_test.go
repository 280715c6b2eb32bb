package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveStepLog(t *testing.T) {
	store := NewLogStore(t.TempDir())

	path, err := store.SaveStepLog("run-1", "build", 0, "checkout", "checked out sources")
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "checked out sources", string(data))
	assert.Equal(t, "00_checkout.log", filepath.Base(path))
}

func TestSaveStepLogSanitizesNames(t *testing.T) {
	store := NewLogStore(t.TempDir())

	path, err := store.SaveStepLog("run/1", "build", 2, "cargo doc --no-deps", "output")
	require.NoError(t, err)

	assert.Equal(t, "02_cargo_doc_--no-deps.log", filepath.Base(path))
	assert.FileExists(t, path)
}

func TestSaveStepLogKeepsStepsApart(t *testing.T) {
	store := NewLogStore(t.TempDir())

	first, err := store.SaveStepLog("run-1", "build", 0, "step", "a")
	require.NoError(t, err)
	second, err := store.SaveStepLog("run-1", "build", 1, "step", "b")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}
