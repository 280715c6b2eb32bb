package digest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "f")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0644))

	got, err := File(path)
	require.NoError(t, err)
	assert.Equal(t, String("hello"), got)

	_, err = File(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestTreeIgnoresTimestampsAndLocation(t *testing.T) {
	write := func(dir string) {
		require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "a"), []byte("1"), 0644))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "sub", "b"), []byte("2"), 0644))
	}

	dirA := t.TempDir()
	dirB := t.TempDir()
	write(dirA)
	write(dirB)

	hashA, err := Tree(dirA)
	require.NoError(t, err)
	hashB, err := Tree(dirB)
	require.NoError(t, err)
	assert.Equal(t, hashA, hashB)
}

func TestTreeSeesContentChanges(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a"), []byte("1"), 0644))

	before, err := Tree(dir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "a"), []byte("2"), 0644))
	after, err := Tree(dir)
	require.NoError(t, err)

	assert.NotEqual(t, before, after)
}

func TestTreeSeesRenames(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a"), []byte("1"), 0644))
	before, err := Tree(dir)
	require.NoError(t, err)

	require.NoError(t, os.Rename(filepath.Join(dir, "a"), filepath.Join(dir, "b")))
	after, err := Tree(dir)
	require.NoError(t, err)

	assert.NotEqual(t, before, after)
}
