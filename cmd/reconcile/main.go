// reconcile sweeps the two inconsistency windows the API accepts by design:
// orphan blobs left when the process died between blob write and record
// persistence, and export artifacts whose delivery path never released them.
// Run it periodically; it only deletes files old enough that no in-flight
// operation can still own them.
package main

import (
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"

	"audioserver/internal/config"
	"audioserver/internal/database"
	"audioserver/internal/domain/audio"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}

	var storageNames []string
	if err := db.Model(&audio.AudioFile{}).Pluck("storage_name", &storageNames).Error; err != nil {
		log.Fatalf("listing storage names failed: %v", err)
	}
	recorded := make(map[string]struct{}, len(storageNames))
	for _, name := range storageNames {
		recorded[name] = struct{}{}
	}

	cutoff := time.Now().Add(-cfg.ExportMaxAge)

	orphans := sweepOrphanBlobs(cfg.UploadDir, recorded, cutoff)
	stale := sweepStaleArtifacts(cfg.ExportDir, cutoff)

	log.Printf("reconcile completed orphan_blobs=%d stale_artifacts=%d", orphans, stale)
}

// sweepOrphanBlobs deletes blobs with no metadata record. The cutoff keeps
// uploads that are mid-flight (blob written, record not yet visible) safe.
func sweepOrphanBlobs(uploadDir string, recorded map[string]struct{}, cutoff time.Time) int {
	entries, err := os.ReadDir(uploadDir)
	if err != nil {
		log.Printf("reading upload dir failed dir=%s error=%v", uploadDir, err)
		return 0
	}

	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if _, ok := recorded[entry.Name()]; ok {
			continue
		}
		info, err := entry.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		path := filepath.Join(uploadDir, entry.Name())
		if err := os.Remove(path); err != nil {
			log.Printf("orphan blob delete failed path=%s error=%v", path, err)
			continue
		}
		log.Printf("orphan blob removed path=%s size=%d", path, info.Size())
		removed++
	}
	return removed
}

// sweepStaleArtifacts deletes export zips older than the cutoff.
func sweepStaleArtifacts(exportDir string, cutoff time.Time) int {
	entries, err := os.ReadDir(exportDir)
	if err != nil {
		log.Printf("reading export dir failed dir=%s error=%v", exportDir, err)
		return 0
	}

	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		path := filepath.Join(exportDir, entry.Name())
		if err := os.Remove(path); err != nil {
			log.Printf("stale artifact delete failed path=%s error=%v", path, err)
			continue
		}
		removed++
	}
	return removed
}
