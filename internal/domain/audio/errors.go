package audio

import "errors"

var (
	ErrNoFile          = errors.New("no file provided")
	ErrTooLarge        = errors.New("file exceeds maximum allowed size")
	ErrUnsupportedType = errors.New("file type is not allowed")
	ErrWriteFailed     = errors.New("failed to write file")
	ErrPersistFailed   = errors.New("failed to save file record")
	ErrNoFiles         = errors.New("no files found for this owner")
	ErrEmptyArchive    = errors.New("none of the stored files are present on disk")
)
