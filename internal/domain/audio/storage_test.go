package audio

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, maxSize int64) *Store {
	t.Helper()
	store, err := NewStore(t.TempDir(), maxSize)
	require.NoError(t, err)
	return store
}

func dirEntries(t *testing.T, dir string) []os.DirEntry {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	return entries
}

func TestNewStorageNameKeepsExtension(t *testing.T) {
	name := NewStorageName("my song.mp3")
	assert.True(t, strings.HasSuffix(name, ".mp3"))
	assert.NotContains(t, name, "my song")
}

func TestNewStorageNameUnique(t *testing.T) {
	assert.NotEqual(t, NewStorageName("a.mp3"), NewStorageName("a.mp3"))
}

func TestNewStorageNameIgnoresTraversal(t *testing.T) {
	name := NewStorageName("../../etc/passwd")
	assert.NotContains(t, name, "..")
	assert.NotContains(t, name, "/")
}

func TestSaveWritesExactByteCount(t *testing.T) {
	store := newTestStore(t, 50_000_000)
	payload := bytes.Repeat([]byte("a"), 1000)

	written, err := store.Save("blob.mp3", bytes.NewReader(payload))
	require.NoError(t, err)
	assert.Equal(t, int64(1000), written)

	onDisk, err := os.ReadFile(store.Path("blob.mp3"))
	require.NoError(t, err)
	assert.Equal(t, payload, onDisk)
}

func TestSaveRejectsOversizeStreamMidTransfer(t *testing.T) {
	store := newTestStore(t, 1000)
	payload := bytes.Repeat([]byte("b"), 2000)

	_, err := store.Save("blob.mp3", bytes.NewReader(payload))
	require.ErrorIs(t, err, ErrTooLarge)

	// No trace of the attempt may remain.
	assert.Empty(t, dirEntries(t, store.Root()))
}

func TestSaveExactlyAtLimit(t *testing.T) {
	store := newTestStore(t, 1000)
	written, err := store.Save("blob.mp3", bytes.NewReader(bytes.Repeat([]byte("c"), 1000)))
	require.NoError(t, err)
	assert.Equal(t, int64(1000), written)
}

func TestSaveCleansUpOnSourceError(t *testing.T) {
	store := newTestStore(t, 50_000_000)
	boom := errors.New("connection reset")
	src := io.MultiReader(bytes.NewReader(bytes.Repeat([]byte("d"), 9000)), iotest.ErrReader(boom))

	_, err := store.Save("blob.mp3", src)
	require.ErrorIs(t, err, ErrWriteFailed)
	assert.Empty(t, dirEntries(t, store.Root()))
}

func TestSaveChunksShortReads(t *testing.T) {
	// A source that returns one byte per read still accumulates correctly.
	store := newTestStore(t, 100)
	src := iotest.OneByteReader(bytes.NewReader([]byte("hello")))

	written, err := store.Save("blob.mp3", src)
	require.NoError(t, err)
	assert.Equal(t, int64(5), written)
}

func TestRemoveIdempotent(t *testing.T) {
	store := newTestStore(t, 1000)
	_, err := store.Save("blob.mp3", strings.NewReader("x"))
	require.NoError(t, err)

	require.NoError(t, store.Remove("blob.mp3"))
	require.NoError(t, store.Remove("blob.mp3"))
	require.NoError(t, store.Remove("never-existed.mp3"))
}

func TestNewStoreCreatesRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "nested", "uploads")
	_, err := NewStore(root, 1000)
	require.NoError(t, err)

	info, err := os.Stat(root)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
