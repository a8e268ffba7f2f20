//go:build unix

package hostlib

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/watchfilter/internal/testutil"
)

func TestFileMetaMode(t *testing.T) {
	f := newFixture(t)
	path := testutil.WriteString(t, t.TempDir(), "a.txt", "x")
	require.NoError(t, os.Chmod(path, 0o644))

	got, err := f.call(t, "file_meta", path)
	require.NoError(t, err)
	meta := got.(map[string]any)

	assert.Equal(t, "100644", meta["mode"])
	assert.Equal(t, 0o100644, meta["mode_byte"])
	assert.Equal(t, false, meta["executable"])
}

func TestFileMetaExecutableAndReadonly(t *testing.T) {
	f := newFixture(t)
	path := testutil.WriteString(t, t.TempDir(), "run.sh", "#!/bin/sh\n")
	require.NoError(t, os.Chmod(path, 0o555))

	got, err := f.call(t, "file_meta", path)
	require.NoError(t, err)
	meta := got.(map[string]any)

	assert.Equal(t, true, meta["executable"])
	assert.Equal(t, true, meta["readonly"])
}
