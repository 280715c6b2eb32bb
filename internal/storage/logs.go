// Package storage persists step output to log files, one file per executed
// step, grouped by run and job.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LogStore manages saving step logs to files.
type LogStore struct {
	BaseDir string
}

// NewLogStore creates a log store rooted at baseDir.
func NewLogStore(baseDir string) *LogStore {
	return &LogStore{BaseDir: baseDir}
}

// SaveStepLog writes the output of one step under <base>/<run>/<job>/.
// The step sequence number keeps file names unique and ordered even when
// steps share a name.
func (ls *LogStore) SaveStepLog(runID, job string, seq int, step, output string) (string, error) {
	dir := filepath.Join(ls.BaseDir, sanitize(runID), sanitize(job))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}

	filename := fmt.Sprintf("%02d_%s.log", seq, sanitize(step))
	path := filepath.Join(dir, filename)
	if err := os.WriteFile(path, []byte(output), 0644); err != nil {
		return "", err
	}
	return path, nil
}

// sanitize removes characters unsafe in file names.
func sanitize(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z',
			r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "step"
	}
	return b.String()
}
