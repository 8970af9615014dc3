package audio

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Service orchestrates the storage pipeline: validate -> stream to disk ->
// persist record, with a compensating blob delete when the record write
// fails. There is no cross-system transaction; a crash between blob write
// and compensation can leave an orphan blob, which the reconcile binary
// sweeps up later.
type Service struct {
	repo      Repository
	validator *Validator
	store     *Store
	archiver  *Archiver
}

// UploadInput is everything the caller knows about an incoming file. Body is
// consumed exactly once, by the streaming writer.
type UploadInput struct {
	OriginalName string
	DeclaredType string
	DeclaredSize int64
	TagText      string
	ExtraInfo    string
	Body         io.Reader
}

func NewService(repo Repository, validator *Validator, store *Store, archiver *Archiver) *Service {
	return &Service{
		repo:      repo,
		validator: validator,
		store:     store,
		archiver:  archiver,
	}
}

// Upload stores one file for owner and returns its record. The record's
// size is the byte count actually written, never the declared size.
func (s *Service) Upload(ctx context.Context, owner string, in UploadInput) (*AudioFile, error) {
	mediaType, err := s.validator.Validate(UploadHeader{
		OriginalName: in.OriginalName,
		DeclaredType: in.DeclaredType,
		DeclaredSize: in.DeclaredSize,
	})
	if err != nil {
		return nil, err
	}

	storageName := NewStorageName(in.OriginalName)
	size, err := s.store.Save(storageName, in.Body)
	if err != nil {
		log.Printf("file upload failed owner=%s name=%s error=%v", owner, in.OriginalName, err)
		return nil, err
	}

	record := &AudioFile{
		ID:           uuid.NewString(),
		OwnerID:      owner,
		OriginalName: in.OriginalName,
		StorageName:  storageName,
		SizeBytes:    size,
		MediaType:    mediaType,
		CreatedAt:    time.Now().UTC(),
	}
	record.SetTagList(NormalizeTags(in.TagText))
	if extra := strings.TrimSpace(in.ExtraInfo); extra != "" {
		record.SetExtraInfoMap(map[string]any{"info": extra})
	}

	if err := s.repo.Create(ctx, record); err != nil {
		// Compensating delete: a visible record must always have a blob,
		// so a record that failed to persist must not leave one behind.
		if rmErr := s.store.Remove(storageName); rmErr != nil {
			log.Printf("compensating delete failed storage_name=%s error=%v", storageName, rmErr)
		}
		return nil, fmt.Errorf("%w: %v", ErrPersistFailed, err)
	}

	log.Printf("file uploaded owner=%s id=%s name=%s size=%d", owner, record.ID, in.OriginalName, size)
	return record, nil
}

// List returns the owner's records in upload order, narrowed to the given
// tag when one is supplied. Tag matching is case-insensitive and exact.
func (s *Service) List(ctx context.Context, owner, tag string) ([]*AudioFile, error) {
	files, err := s.repo.ListByOwner(ctx, owner)
	if err != nil {
		return nil, err
	}
	return FilterByTag(files, tag), nil
}

// Export bundles all of the owner's files into one archive and returns its
// path. Ownership of the artifact transfers to the caller, who must invoke
// Release once delivery is done.
func (s *Service) Export(ctx context.Context, owner string) (string, error) {
	files, err := s.repo.ListByOwner(ctx, owner)
	if err != nil {
		return "", err
	}
	if len(files) == 0 {
		return "", ErrNoFiles
	}
	return s.archiver.Build(owner, files)
}

// Release reclaims a delivered export artifact. Safe to call repeatedly.
func (s *Service) Release(path string) {
	s.archiver.Release(path)
}
