package audio

import (
	"context"

	"gorm.io/gorm"
)

// Repository is the persistence collaborator for metadata records. Each call
// is a single short operation; the service never holds a transaction open
// across a whole upload or export.
type Repository interface {
	Create(ctx context.Context, f *AudioFile) error
	ListByOwner(ctx context.Context, owner string) ([]*AudioFile, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, f *AudioFile) error {
	return r.db.WithContext(ctx).Create(f).Error
}

// ListByOwner returns the owner's records in upload order.
func (r *repository) ListByOwner(ctx context.Context, owner string) ([]*AudioFile, error) {
	var files []*AudioFile
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", owner).
		Order("created_at").
		Order("id").
		Find(&files).Error
	return files, err
}
