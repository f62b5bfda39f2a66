package testutil

import (
	"path/filepath"
	"testing"
)

// TempDBPath returns a database path inside a per-test temp directory.
// The file does not exist yet.
func TempDBPath(t *testing.T, name string) string {
	t.Helper()
	return filepath.Join(t.TempDir(), name)
}
