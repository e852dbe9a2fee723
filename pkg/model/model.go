package model

import (
	"fmt"
	"time"
)

// EntryType is the kind of a root catalog entry as exposed by listings.
type EntryType string

const (
	TypeYoutube   = EntryType("youtube")
	TypeAudiobook = EntryType("audiobook")
)

// Entry is one catalog row: a standalone track, a book container or a book chapter.
type Entry struct {
	ID       string
	ParentID string // Empty for roots
	Filename string
	// Title and Description stay nil until the entry is finalized.
	Title        *string
	Description  *string
	Created      time.Time
	Published    time.Time
	AudioSize    int64
	AudioType    string
	Duration     int64 // Seconds
	ThumbnailURL string

	// Children is only populated by loads that ask for it.
	Children []*Entry
}

// Pending reports whether the entry was registered but not finalized yet.
func (e *Entry) Pending() bool {
	return e.Title == nil
}

// IsChapter reports whether the entry belongs to a book.
func (e *Entry) IsChapter() bool {
	return e.ParentID != ""
}

// Key returns the object store key of the entry's audio.
func (e *Entry) Key() string {
	return ObjectKey(e.ParentID, e.ID)
}

// Listing is a root entry as returned by the files API.
type Listing struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Thumbnail   string    `json:"thumbnail"`
	Duration    int64     `json:"duration"`
	Type        EntryType `json:"type"`
}

// Audio is the metadata of a fetched youtube audio track.
type Audio struct {
	ID           string
	Title        string
	Description  string
	Duration     int64
	Size         int64
	Published    time.Time
	ThumbnailURL string
	MimeType     string
}

// ChapterInfo is the finalized metadata of a chapter, or the aggregate written to its book.
type ChapterInfo struct {
	Title       string
	Description string
	Duration    int64
	AudioSize   int64
	AudioType   string
}

// ChapterUpload is returned to the client so it can upload chapter bytes directly to the object store.
type ChapterUpload struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// ObjectKey builds an object store key: bare id for standalone tracks, book/chapter for chapters.
func ObjectKey(parentID, id string) string {
	if parentID == "" {
		return id
	}

	return fmt.Sprintf("%s/%s", parentID, id)
}

// String returns a pointer to s.
func String(s string) *string {
	return &s
}

// StringValue dereferences s, returning "" for nil.
func StringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// Accepted is returned when work continues in a background task.
type Accepted struct {
	ID     string    `json:"id"`
	Type   EntryType `json:"type,omitempty"`
	TaskID string    `json:"task_id,omitempty"`
}
