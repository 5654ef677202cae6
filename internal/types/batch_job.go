package types

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// BatchJob records a submitted embedding job and the export it was built from.
// A job is only resumed for an export with the same InputHash.
type BatchJob struct {
	ID          string    `json:"id"`
	InputHash   string    `json:"input_hash"`
	Bookmarks   int       `json:"bookmarks"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// Fingerprint identifies a bookmark export by the url and title of every
// bookmark in order. Any insertion, removal or reordering changes it.
func Fingerprint(bookmarks []Bookmark) string {
	h := sha256.New()
	for _, b := range bookmarks {
		h.Write([]byte(b.URL))
		h.Write([]byte{0})
		h.Write([]byte(b.Title))
		h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil))
}
