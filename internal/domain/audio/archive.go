package audio

import (
	"archive/zip"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/flate"
)

// manifestName is the single machine-readable document at the archive root.
const manifestName = "metadata.json"

// archivePrefix namespaces the blob entries inside the archive.
const archivePrefix = "audio_files/"

// Manifest describes the contents of one export artifact.
type Manifest struct {
	ExportTimestamp time.Time       `json:"export_timestamp"`
	Owner           string          `json:"owner"`
	TotalFiles      int             `json:"total_files"`
	Files           []ManifestEntry `json:"files"`
}

// ManifestEntry carries the full metadata of one record, including the
// storage name that the API responses omit.
type ManifestEntry struct {
	ID           string         `json:"id"`
	Owner        string         `json:"owner"`
	OriginalName string         `json:"original_name"`
	SizeBytes    int64          `json:"size_bytes"`
	MediaType    string         `json:"media_type"`
	Tags         []string       `json:"tags"`
	ExtraInfo    map[string]any `json:"extra_info"`
	CreatedAt    time.Time      `json:"created_at"`
	StorageName  string         `json:"storage_name"`
}

// Archiver bundles an owner's stored files plus a manifest into one zip
// artifact under exportDir. The artifact belongs to the caller once Build
// returns; the caller must hand it back through Release when done.
type Archiver struct {
	store     *Store
	exportDir string
}

func NewArchiver(store *Store, exportDir string) (*Archiver, error) {
	if err := os.MkdirAll(exportDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create export directory: %w", err)
	}
	return &Archiver{store: store, exportDir: exportDir}, nil
}

// Build creates the export artifact for the given records. Records whose
// blob is missing from disk are skipped and counted, not fatal; the manifest
// still lists every record. If no blob at all can be located the build fails
// with ErrEmptyArchive. On any failure the partial artifact is removed.
func (a *Archiver) Build(owner string, files []*AudioFile) (string, error) {
	path := filepath.Join(a.exportDir, fmt.Sprintf("audio_export_%s.zip", uuid.NewString()))

	if err := a.writeArchive(path, owner, files); err != nil {
		if rmErr := os.Remove(path); rmErr != nil && !os.IsNotExist(rmErr) {
			log.Printf("archive cleanup failed path=%s error=%v", path, rmErr)
		}
		return "", err
	}
	return path, nil
}

func (a *Archiver) writeArchive(path, owner string, files []*AudioFile) error {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create archive: %w", err)
	}
	defer out.Close()

	zw := zip.NewWriter(out)
	zw.RegisterCompressor(zip.Deflate, func(w io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(w, flate.DefaultCompression)
	})

	added, missing := 0, 0
	for _, f := range files {
		if err := a.addBlob(zw, f); err != nil {
			if os.IsNotExist(err) {
				missing++
				log.Printf("export missing blob owner=%s storage_name=%s original_name=%s",
					owner, f.StorageName, f.OriginalName)
				continue
			}
			return fmt.Errorf("failed to add %s to archive: %w", f.OriginalName, err)
		}
		added++
	}
	log.Printf("export archive owner=%s added=%d missing=%d", owner, added, missing)

	if added == 0 {
		return ErrEmptyArchive
	}

	if err := writeManifest(zw, owner, files); err != nil {
		return err
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to finalize archive: %w", err)
	}
	return out.Close()
}

// addBlob copies one stored blob into the archive under its original name.
// Duplicate original names produce separate entries; the zip format keeps
// them all.
func (a *Archiver) addBlob(zw *zip.Writer, f *AudioFile) error {
	src, err := os.Open(a.store.Path(f.StorageName))
	if err != nil {
		return err
	}
	defer src.Close()

	entry, err := zw.Create(archivePrefix + f.OriginalName)
	if err != nil {
		return err
	}
	_, err = io.Copy(entry, src)
	return err
}

func writeManifest(zw *zip.Writer, owner string, files []*AudioFile) error {
	manifest := Manifest{
		ExportTimestamp: time.Now().UTC(),
		Owner:           owner,
		TotalFiles:      len(files),
		Files:           make([]ManifestEntry, 0, len(files)),
	}
	for _, f := range files {
		manifest.Files = append(manifest.Files, ManifestEntry{
			ID:           f.ID,
			Owner:        f.OwnerID,
			OriginalName: f.OriginalName,
			SizeBytes:    f.SizeBytes,
			MediaType:    f.MediaType,
			Tags:         f.TagList(),
			ExtraInfo:    f.ExtraInfoMap(),
			CreatedAt:    f.CreatedAt,
			StorageName:  f.StorageName,
		})
	}

	raw, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}
	entry, err := zw.Create(manifestName)
	if err != nil {
		return fmt.Errorf("failed to add manifest: %w", err)
	}
	if _, err := entry.Write(raw); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}

// Release reclaims a delivered artifact. It is idempotent and best-effort:
// a missing artifact is fine, and a failed deletion is logged but never
// surfaced, since by now the response has already gone out.
func (a *Archiver) Release(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		log.Printf("export cleanup failed path=%s error=%v", path, err)
	}
}
