package audio

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"audioserver/internal/database"
)

// testDB opens a throwaway SQLite database backed by a per-test file, so the
// connection pool always sees the same schema.
func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Connect(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	return db
}

type mockRepo struct {
	mock.Mock
}

func (m *mockRepo) Create(ctx context.Context, f *AudioFile) error {
	args := m.Called(ctx, f)
	return args.Error(0)
}

func (m *mockRepo) ListByOwner(ctx context.Context, owner string) ([]*AudioFile, error) {
	args := m.Called(ctx, owner)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*AudioFile), args.Error(1)
}

func newTestService(t *testing.T, maxSize int64) (*Service, *Store) {
	t.Helper()

	db := testDB(t)
	require.NoError(t, db.AutoMigrate(&AudioFile{}))

	store := newTestStore(t, maxSize)
	archiver, err := NewArchiver(store, t.TempDir())
	require.NoError(t, err)

	validator := NewValidator(maxSize, []string{"audio/mpeg", "audio/mp3"})
	return NewService(NewRepository(db), validator, store, archiver), store
}

func uploadInput(name, declaredType, tags, extra string, body []byte) UploadInput {
	return UploadInput{
		OriginalName: name,
		DeclaredType: declaredType,
		DeclaredSize: int64(len(body)),
		TagText:      tags,
		ExtraInfo:    extra,
		Body:         bytes.NewReader(body),
	}
}

func TestUploadSuccess(t *testing.T) {
	svc, store := newTestService(t, 50_000_000)
	payload := bytes.Repeat([]byte("x"), 1000)

	record, err := svc.Upload(context.Background(), "alice",
		uploadInput("song.mp3", "audio/mpeg", "Rock, rock , Pop", "  studio take  ", payload))
	require.NoError(t, err)

	assert.NotEmpty(t, record.ID)
	assert.Equal(t, "alice", record.OwnerID)
	assert.Equal(t, "song.mp3", record.OriginalName)
	assert.Equal(t, int64(1000), record.SizeBytes)
	assert.Equal(t, "audio/mpeg", record.MediaType)
	assert.Equal(t, []string{"rock", "pop"}, record.TagList())
	assert.Equal(t, map[string]any{"info": "studio take"}, record.ExtraInfoMap())

	// The record's name is the storage name, never the original one.
	assert.NotEqual(t, record.OriginalName, record.StorageName)
	onDisk, err := dirContents(store)
	require.NoError(t, err)
	assert.Equal(t, []string{record.StorageName}, onDisk)
}

func TestUploadSizeFromStreamNotDeclaration(t *testing.T) {
	svc, _ := newTestService(t, 50_000_000)

	in := uploadInput("song.mp3", "audio/mpeg", "", "", bytes.Repeat([]byte("y"), 700))
	in.DeclaredSize = 10 // lies
	record, err := svc.Upload(context.Background(), "alice", in)
	require.NoError(t, err)
	assert.Equal(t, int64(700), record.SizeBytes)
}

func TestUploadOversizeStreamLeavesNoTrace(t *testing.T) {
	svc, store := newTestService(t, 1000)

	in := uploadInput("song.mp3", "audio/mpeg", "", "", bytes.Repeat([]byte("z"), 2000))
	in.DeclaredSize = 0 // size hint withheld, only the stream check can catch it
	_, err := svc.Upload(context.Background(), "alice", in)
	require.ErrorIs(t, err, ErrTooLarge)

	onDisk, err := dirContents(store)
	require.NoError(t, err)
	assert.Empty(t, onDisk)
}

func TestUploadRejectedBeforeStreamConsumed(t *testing.T) {
	svc, store := newTestService(t, 50_000_000)

	body := bytes.NewReader([]byte("should never be read"))
	_, err := svc.Upload(context.Background(), "alice", UploadInput{
		OriginalName: "notes.txt",
		DeclaredType: "text/plain",
		Body:         body,
	})
	require.ErrorIs(t, err, ErrUnsupportedType)

	assert.Equal(t, 20, body.Len(), "validation must not consume the stream")
	onDisk, err := dirContents(store)
	require.NoError(t, err)
	assert.Empty(t, onDisk)
}

func TestUploadCompensatesWhenPersistFails(t *testing.T) {
	repo := new(mockRepo)
	repo.On("Create", mock.Anything, mock.Anything).Return(errors.New("db down"))

	store := newTestStore(t, 50_000_000)
	archiver, err := NewArchiver(store, t.TempDir())
	require.NoError(t, err)
	svc := NewService(repo, NewValidator(50_000_000, []string{"audio/mpeg"}), store, archiver)

	_, err = svc.Upload(context.Background(), "alice",
		uploadInput("song.mp3", "audio/mpeg", "", "", []byte("data")))
	require.ErrorIs(t, err, ErrPersistFailed)

	// The just-written blob must have been deleted.
	onDisk, err := dirContents(store)
	require.NoError(t, err)
	assert.Empty(t, onDisk)
	repo.AssertExpectations(t)
}

func TestListFiltersByTag(t *testing.T) {
	svc, _ := newTestService(t, 50_000_000)
	ctx := context.Background()

	_, err := svc.Upload(ctx, "alice", uploadInput("one.mp3", "audio/mpeg", "Rock, Pop", "", []byte("1")))
	require.NoError(t, err)
	_, err = svc.Upload(ctx, "alice", uploadInput("two.mp3", "audio/mpeg", "jazz", "", []byte("2")))
	require.NoError(t, err)

	all, err := svc.List(ctx, "alice", "")
	require.NoError(t, err)
	require.Len(t, all, 2)

	rock, err := svc.List(ctx, "alice", "ROCK")
	require.NoError(t, err)
	require.Len(t, rock, 1)
	assert.Equal(t, "one.mp3", rock[0].OriginalName)
}

func TestListScopedToOwner(t *testing.T) {
	svc, _ := newTestService(t, 50_000_000)
	ctx := context.Background()

	_, err := svc.Upload(ctx, "alice", uploadInput("a.mp3", "audio/mpeg", "", "", []byte("a")))
	require.NoError(t, err)
	_, err = svc.Upload(ctx, "bob", uploadInput("b.mp3", "audio/mpeg", "", "", []byte("b")))
	require.NoError(t, err)

	files, err := svc.List(ctx, "alice", "")
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "a.mp3", files[0].OriginalName)
}

func TestExportRoundTrip(t *testing.T) {
	svc, _ := newTestService(t, 50_000_000)
	ctx := context.Background()

	_, err := svc.Upload(ctx, "alice", uploadInput("one.mp3", "audio/mpeg", "rock", "", []byte("first")))
	require.NoError(t, err)
	_, err = svc.Upload(ctx, "alice", uploadInput("two.mp3", "audio/mpeg", "pop", "", []byte("second")))
	require.NoError(t, err)

	path, err := svc.Export(ctx, "alice")
	require.NoError(t, err)

	entries, manifest := readArchive(t, path)
	assert.Len(t, entries, 2)
	assert.Equal(t, 2, manifest.TotalFiles)
	assert.Equal(t, "alice", manifest.Owner)

	svc.Release(path)
	svc.Release(path) // double release never raises
}

func TestExportNoRecords(t *testing.T) {
	svc, _ := newTestService(t, 50_000_000)
	_, err := svc.Export(context.Background(), "nobody")
	require.ErrorIs(t, err, ErrNoFiles)
}

func TestExportAllBlobsMissing(t *testing.T) {
	svc, store := newTestService(t, 50_000_000)
	ctx := context.Background()

	record, err := svc.Upload(ctx, "alice", uploadInput("one.mp3", "audio/mpeg", "", "", []byte("x")))
	require.NoError(t, err)
	require.NoError(t, store.Remove(record.StorageName))

	_, err = svc.Export(ctx, "alice")
	require.ErrorIs(t, err, ErrEmptyArchive)
}

func dirContents(store *Store) ([]string, error) {
	entries, err := os.ReadDir(store.Root())
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names, nil
}
