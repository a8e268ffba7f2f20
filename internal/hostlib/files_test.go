package hostlib

import (
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeebo/blake3"

	"github.com/roach88/watchfilter/internal/testutil"
)

// BLAKE3 digest of the empty input.
const emptyDigest = "af1349b9f5f9a1a6a0404dea36dcc9499bcb25c9adc112b7cc9a93cae41f3262"

func digest(b []byte) string {
	sum := blake3.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func TestFileSize(t *testing.T) {
	f := newFixture(t)
	path := testutil.WriteFile(t, t.TempDir(), "a.bin", testutil.Pattern(42))

	got, err := f.call(t, "file_size", path)

	require.NoError(t, err)
	assert.Equal(t, 42, got)
}

func TestFileSizeMissing(t *testing.T) {
	f := newFixture(t)
	path := testutil.MissingPath(t)

	got, err := f.call(t, "file_size", path)

	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Contains(t, f.logs.String(), "level=ERROR msg=\"failed to stat file\"")
	assert.Contains(t, f.logs.String(), "path="+path)
}

func TestPathSubjectMustBeString(t *testing.T) {
	f := newFixture(t)

	for _, name := range []string{"file_size", "file_meta", "file_hash"} {
		_, err := f.call(t, name, 1)
		assert.EqualError(t, err, name+": expected string (path) but got 1")
	}

	_, err := f.call(t, "file_read", []any{"a"}, 10)
	assert.EqualError(t, err, `file_read: expected string (path) but got ["a"]`)
}

func TestFileRead(t *testing.T) {
	f := newFixture(t)
	path := testutil.WriteString(t, t.TempDir(), "short.txt", "hello, world")

	tests := []struct {
		name string
		n    int
		want string
	}{
		{"whole file", 100, "hello, world"},
		{"exact length", 12, "hello, world"},
		{"prefix", 5, "hello"},
		{"zero", 0, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := f.call(t, "file_read", path, tt.n)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFileReadMissing(t *testing.T) {
	f := newFixture(t)

	got, err := f.call(t, "file_read", testutil.MissingPath(t), 10)

	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Contains(t, f.logs.String(), "failed to read file")
}

func TestFileReadInvalidUTF8(t *testing.T) {
	f := newFixture(t)
	dir := t.TempDir()
	binary := testutil.WriteFile(t, dir, "bin", []byte{0xff, 0xfe, 0x00})
	accent := testutil.WriteString(t, dir, "accent.txt", "é")

	got, err := f.call(t, "file_read", binary, 10)
	require.NoError(t, err)
	assert.Nil(t, got)

	// The limit cuts the two-byte sequence in half.
	got, err = f.call(t, "file_read", accent, 1)
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = f.call(t, "file_read", accent, 2)
	require.NoError(t, err)
	assert.Equal(t, "é", got)
}

func TestFileReadArgument(t *testing.T) {
	f := newFixture(t)
	path := testutil.WriteString(t, t.TempDir(), "a.txt", "abc")

	_, err := f.call(t, "file_read", path, "10")
	assert.EqualError(t, err, `file_read: expected int but got "10"`)

	_, err = f.call(t, "file_read", path, -1)
	assert.EqualError(t, err, "file_read: expected non-negative int but got -1")
}

func TestHash(t *testing.T) {
	f := newFixture(t)

	empty, err := f.call(t, "hash", "")
	require.NoError(t, err)
	assert.Equal(t, emptyDigest, empty)

	a, err := f.call(t, "hash", "watchfilter")
	require.NoError(t, err)
	b, err := f.call(t, "hash", "watchfilter")
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Len(t, a, 64)
	assert.Equal(t, digest([]byte("watchfilter")), a)

	c, err := f.call(t, "hash", "watchfilteR")
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
}

func TestHashRequiresString(t *testing.T) {
	f := newFixture(t)

	_, err := f.call(t, "hash", 12)

	assert.EqualError(t, err, "hash: expected string but got 12")
}

func TestFileHashEmpty(t *testing.T) {
	f := newFixture(t)
	path := testutil.WriteFile(t, t.TempDir(), "empty", nil)

	got, err := f.call(t, "file_hash", path)

	require.NoError(t, err)
	assert.Equal(t, emptyDigest, got)
}

func TestFileHashLargeFile(t *testing.T) {
	f := newFixture(t)
	content := testutil.Pattern(3*HashChunkSize + 17)
	path := testutil.WriteFile(t, t.TempDir(), "large", content)

	got, err := f.call(t, "file_hash", path)

	require.NoError(t, err)
	assert.Equal(t, digest(content), got)
}

func TestHashFileChunkSizeIndependent(t *testing.T) {
	logger, _ := testutil.NewLogger()
	content := testutil.Pattern(10_000)
	path := testutil.WriteFile(t, t.TempDir(), "data", content)

	for _, chunk := range []int{1, 7, 4096, 10_000, 65_536} {
		got, err := hashFile(logger, path, make([]byte, chunk))
		require.NoError(t, err)
		assert.Equal(t, digest(content), got, "chunk %d", chunk)
	}
}

func TestHashFileReadsInChunks(t *testing.T) {
	logger, logs := testutil.NewLogger()
	path := testutil.WriteFile(t, t.TempDir(), "data", testutil.Pattern(100))

	_, err := hashFile(logger, path, make([]byte, 30))
	require.NoError(t, err)

	assert.Equal(t, 4, strings.Count(logs.String(), "msg=\"read chunk\""))
}

func TestFileHashMissing(t *testing.T) {
	f := newFixture(t)

	got, err := f.call(t, "file_hash", testutil.MissingPath(t))

	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Contains(t, f.logs.String(), "failed to hash file")
}

func TestFileHashReadErrorIsNull(t *testing.T) {
	f := newFixture(t)

	// Opening a directory succeeds; reading from it fails.
	got, err := f.call(t, "file_hash", t.TempDir())

	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Contains(t, f.logs.String(), "failed to hash file")
}

func TestFileMetaRegularFile(t *testing.T) {
	f := newFixture(t)
	path := testutil.WriteString(t, t.TempDir(), "a.txt", "0123456789")
	require.NoError(t, os.Chmod(path, 0o644))

	got, err := f.call(t, "file_meta", path)
	require.NoError(t, err)
	meta, ok := got.(map[string]any)
	require.True(t, ok)

	assert.Equal(t, "file", meta["type"])
	assert.Equal(t, 10, meta["size"])
	assert.Equal(t, true, meta["file"])
	assert.Equal(t, false, meta["dir"])
	assert.Equal(t, false, meta["symlink"])
	assert.Equal(t, false, meta["readonly"])
	assert.IsType(t, 0, meta["modified"])
	assert.Contains(t, meta, "accessed")
	assert.Contains(t, meta, "created")
}

func TestFileMetaDirectory(t *testing.T) {
	f := newFixture(t)
	dir := t.TempDir()

	got, err := f.call(t, "file_meta", dir)
	require.NoError(t, err)
	meta := got.(map[string]any)

	assert.Equal(t, "dir", meta["type"])
	assert.Equal(t, true, meta["dir"])
	assert.Equal(t, false, meta["file"])
}

func TestFileMetaFollowsSymlinks(t *testing.T) {
	f := newFixture(t)
	dir := t.TempDir()
	target := testutil.WriteString(t, dir, "target", "abc")
	link := filepath.Join(dir, "link")
	require.NoError(t, os.Symlink(target, link))

	got, err := f.call(t, "file_meta", link)
	require.NoError(t, err)
	meta := got.(map[string]any)

	assert.Equal(t, "file", meta["type"])
	assert.Equal(t, 3, meta["size"])
	assert.Equal(t, false, meta["symlink"])
}

func TestFileMetaMissing(t *testing.T) {
	f := newFixture(t)

	got, err := f.call(t, "file_meta", testutil.MissingPath(t))

	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Contains(t, f.logs.String(), "failed to stat file")
}
