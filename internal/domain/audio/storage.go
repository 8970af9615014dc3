package audio

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// writeChunkSize bounds how much of an upload is held in memory at once.
const writeChunkSize = 8 * 1024

// Store writes blobs under a single root directory. Storage names are
// generated, never user-supplied, so no path inside the root is ever
// contested by two writers.
type Store struct {
	root    string
	maxSize int64
}

func NewStore(root string, maxSize int64) (*Store, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage root: %w", err)
	}
	return &Store{root: root, maxSize: maxSize}, nil
}

// NewStorageName generates the on-disk name for an upload: a random UUID
// with the original extension kept for operational convenience. The original
// filename itself never reaches the storage path.
func NewStorageName(originalName string) string {
	return uuid.NewString() + filepath.Ext(originalName)
}

func (s *Store) Root() string { return s.root }

func (s *Store) Path(name string) string {
	return filepath.Join(s.root, name)
}

// Save streams src to the blob at name in bounded chunks, enforcing the size
// limit on the running total as it goes. On any failure — limit exceeded,
// source error, write error — the partial blob is deleted before the error
// is returned; a blob either exists complete or not at all. Returns the
// exact byte count written.
func (s *Store) Save(name string, src io.Reader) (int64, error) {
	path := s.Path(name)
	dst, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}

	var written int64
	buf := make([]byte, writeChunkSize)
	for {
		n, readErr := src.Read(buf)
		if n > 0 {
			if _, writeErr := dst.Write(buf[:n]); writeErr != nil {
				s.discard(dst, path)
				return 0, fmt.Errorf("%w: %v", ErrWriteFailed, writeErr)
			}
			written += int64(n)
			if written > s.maxSize {
				s.discard(dst, path)
				return 0, fmt.Errorf("%w (max %d bytes)", ErrTooLarge, s.maxSize)
			}
		}
		if readErr == io.EOF {
			break
		}
		// An aborted source (client disconnect) lands here and is
		// handled exactly like a local I/O failure.
		if readErr != nil {
			s.discard(dst, path)
			return 0, fmt.Errorf("%w: %v", ErrWriteFailed, readErr)
		}
	}

	if err := dst.Close(); err != nil {
		_ = os.Remove(path)
		return 0, fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}
	return written, nil
}

// Remove deletes the blob at name. Used as the compensating action when the
// record for a just-written blob cannot be persisted.
func (s *Store) Remove(name string) error {
	if err := os.Remove(s.Path(name)); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (s *Store) discard(dst *os.File, path string) {
	_ = dst.Close()
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		log.Printf("storage cleanup failed path=%s error=%v", path, err)
	}
}
