package audio

import (
	"fmt"
	"mime"
	"path/filepath"
	"sort"
	"strings"
)

// extensionTypes backs up mime.TypeByExtension for the audio extensions we
// care about, since the system mime table may be missing on minimal hosts.
var extensionTypes = map[string]string{
	".mp3":  "audio/mpeg",
	".wav":  "audio/wav",
	".flac": "audio/flac",
	".ogg":  "audio/ogg",
	".m4a":  "audio/mp4",
	".aac":  "audio/aac",
}

// Validator gates an incoming upload on its declared size and media type
// before any bytes are read. The declared-size check is an optimization
// only; Store.Save re-enforces the limit on the actual stream.
type Validator struct {
	maxSize int64
	allowed map[string]struct{}
}

// UploadHeader is what the caller knows about an upload without consuming
// the stream. DeclaredSize <= 0 means the size is unknown.
type UploadHeader struct {
	OriginalName string
	DeclaredType string
	DeclaredSize int64
}

func NewValidator(maxSize int64, allowedTypes []string) *Validator {
	allowed := make(map[string]struct{}, len(allowedTypes))
	for _, t := range allowedTypes {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" {
			allowed[t] = struct{}{}
		}
	}
	return &Validator{maxSize: maxSize, allowed: allowed}
}

// Validate resolves the effective media type for the upload: the declared
// type when it is allowed, otherwise a type inferred from the filename
// extension. Precedence is fixed: declared first, inferred second.
func (v *Validator) Validate(h UploadHeader) (string, error) {
	if strings.TrimSpace(h.OriginalName) == "" {
		return "", ErrNoFile
	}
	if h.DeclaredSize > 0 && h.DeclaredSize > v.maxSize {
		return "", fmt.Errorf("%w (max %d bytes)", ErrTooLarge, v.maxSize)
	}

	declared := normalizeMediaType(h.DeclaredType)
	if _, ok := v.allowed[declared]; ok {
		return declared, nil
	}

	inferred := InferType(h.OriginalName)
	if _, ok := v.allowed[inferred]; ok {
		return inferred, nil
	}

	return "", fmt.Errorf("%w: supported types: %s", ErrUnsupportedType, v.AllowedList())
}

// AllowedList renders the allow-set, sorted, for error messages.
func (v *Validator) AllowedList() string {
	types := make([]string, 0, len(v.allowed))
	for t := range v.allowed {
		types = append(types, t)
	}
	sort.Strings(types)
	return strings.Join(types, ", ")
}

// InferType guesses a media type from the filename extension. Returns ""
// when nothing can be inferred.
func InferType(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		return ""
	}
	if t, ok := extensionTypes[ext]; ok {
		return t
	}
	return normalizeMediaType(mime.TypeByExtension(ext))
}

// normalizeMediaType lowercases and strips parameters like "; charset=...".
func normalizeMediaType(t string) string {
	t, _, _ = strings.Cut(t, ";")
	return strings.ToLower(strings.TrimSpace(t))
}
