package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// WriteFile writes content to name inside dir, creating parent
// directories, and returns the full path.
func WriteFile(t testing.TB, dir, name string, content []byte) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, content, 0o644))
	return path
}

// WriteString is WriteFile for text content.
func WriteString(t testing.TB, dir, name, content string) string {
	t.Helper()
	return WriteFile(t, dir, name, []byte(content))
}

// Pattern returns n bytes of a repeating non-trivial pattern, so chunk
// boundaries inside the content are not all alike.
func Pattern(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte((i*31 + i/251) % 256)
	}
	return b
}

// MissingPath returns a path inside a fresh temp dir that does not exist.
func MissingPath(t testing.TB) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "does-not-exist")
}
