package audio

import (
	"encoding/json"
	"strings"
	"time"
)

// AudioFile is the metadata record for one stored blob. A record exists only
// after its blob was fully written; it is never mutated afterwards. Tags and
// extra info are kept as JSON text columns so the table stays portable
// between SQLite and Postgres.
type AudioFile struct {
	ID           string    `gorm:"column:id;primaryKey" json:"id"`
	OwnerID      string    `gorm:"column:owner_id;index" json:"owner"`
	OriginalName string    `gorm:"column:original_name" json:"original_name"`
	StorageName  string    `gorm:"column:storage_name;uniqueIndex" json:"-"`
	SizeBytes    int64     `gorm:"column:size_bytes" json:"size_bytes"`
	MediaType    string    `gorm:"column:media_type" json:"media_type"`
	Tags         string    `gorm:"column:tags" json:"-"`
	ExtraInfo    string    `gorm:"column:extra_info" json:"-"`
	CreatedAt    time.Time `gorm:"column:created_at" json:"created_at"`
}

func (AudioFile) TableName() string { return "audio_files" }

// TagList decodes the stored tag column. Corrupt or empty columns decode to
// an empty list rather than an error; tags are presentation data.
func (f *AudioFile) TagList() []string {
	if f.Tags == "" {
		return []string{}
	}
	var tags []string
	if err := json.Unmarshal([]byte(f.Tags), &tags); err != nil {
		return []string{}
	}
	return tags
}

func (f *AudioFile) SetTagList(tags []string) {
	if tags == nil {
		tags = []string{}
	}
	raw, _ := json.Marshal(tags)
	f.Tags = string(raw)
}

// ExtraInfoMap returns the optional free-form payload, or nil when absent.
func (f *AudioFile) ExtraInfoMap() map[string]any {
	if f.ExtraInfo == "" {
		return nil
	}
	var info map[string]any
	if err := json.Unmarshal([]byte(f.ExtraInfo), &info); err != nil {
		return nil
	}
	return info
}

func (f *AudioFile) SetExtraInfoMap(info map[string]any) {
	if len(info) == 0 {
		f.ExtraInfo = ""
		return
	}
	raw, _ := json.Marshal(info)
	f.ExtraInfo = string(raw)
}

// HasTag reports whether the record carries the given tag. The comparison is
// case-insensitive and exact; stored tags are already lowercase.
func (f *AudioFile) HasTag(tag string) bool {
	tag = strings.ToLower(strings.TrimSpace(tag))
	if tag == "" {
		return false
	}
	for _, t := range f.TagList() {
		if t == tag {
			return true
		}
	}
	return false
}

// NormalizeTags splits comma-separated tag text into the canonical tag set:
// trimmed, lowercased, empties dropped, duplicates removed with first-seen
// order preserved. Normalizing already-normal input is a no-op.
func NormalizeTags(raw string) []string {
	tags := []string{}
	seen := make(map[string]struct{})
	for _, part := range strings.Split(raw, ",") {
		tag := strings.ToLower(strings.TrimSpace(part))
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		tags = append(tags, tag)
	}
	return tags
}

// FilterByTag returns the records carrying the given tag, preserving order.
// An empty filter returns the input unchanged.
func FilterByTag(files []*AudioFile, tag string) []*AudioFile {
	if strings.TrimSpace(tag) == "" {
		return files
	}
	matched := make([]*AudioFile, 0, len(files))
	for _, f := range files {
		if f.HasTag(tag) {
			matched = append(matched, f)
		}
	}
	return matched
}
