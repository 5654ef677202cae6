// Package types provides type definitions for structured data used throughout the bookmark intelligence pipeline.
//
//nolint:revive // types is a standard Go package name pattern
package types

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
)

// FolderSeparator joins folder path segments in the flat bookmark format
const FolderSeparator = " > "

// rootPlaceholder is how the flat export marks a bookmark that has no folder
const rootPlaceholder = "Root"

// FolderPath is the ordered list of folder names a bookmark lives in.
// It decodes from either a JSON array or a " > " joined string.
type FolderPath []string

// String joins the path with the standard separator
func (p FolderPath) String() string {
	return strings.Join(p, FolderSeparator)
}

// Depth returns the number of segments in the path
func (p FolderPath) Depth() int {
	return len(p)
}

// TopLevel returns the first segment below root, or the first segment when the
// path does not start with root. Empty paths return "".
func (p FolderPath) TopLevel(root string) string {
	switch {
	case len(p) >= 2 && p[0] == root:
		return p[1]
	case len(p) >= 1:
		return p[0]
	default:
		return ""
	}
}

// UnmarshalJSON accepts both the list form and the joined string form
func (p *FolderPath) UnmarshalJSON(data []byte) error {
	var segments []string
	if err := json.Unmarshal(data, &segments); err == nil {
		*p = cleanSegments(segments)
		return nil
	}

	var joined string
	if err := json.Unmarshal(data, &joined); err != nil {
		return fmt.Errorf("folder_path must be a string or an array of strings: %w", err)
	}
	*p = ParseFolderPath(joined)
	return nil
}

// MarshalJSON always writes the list form
func (p FolderPath) MarshalJSON() ([]byte, error) {
	if p == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(p))
}

// ParseFolderPath splits a joined folder string into segments.
// The "Root" placeholder and empty strings yield an empty path.
func ParseFolderPath(joined string) FolderPath {
	joined = strings.TrimSpace(joined)
	if joined == "" || joined == rootPlaceholder {
		return FolderPath{}
	}
	return cleanSegments(strings.Split(joined, FolderSeparator))
}

func cleanSegments(segments []string) FolderPath {
	path := make(FolderPath, 0, len(segments))
	for _, s := range segments {
		s = strings.TrimSpace(s)
		if s != "" {
			path = append(path, s)
		}
	}
	return path
}

// Bookmark is a single imported browser bookmark
type Bookmark struct {
	URL        string     `json:"url"`
	Title      string     `json:"title"`
	Domain     string     `json:"domain"`
	FolderPath FolderPath `json:"folder_path"`
	AddDate    *int64     `json:"added_timestamp,omitempty"`
}

// NewBookmark creates a bookmark and derives its domain from the URL.
// A nil folder becomes the empty root path.
func NewBookmark(rawURL, title string, folder FolderPath, addDate *int64) Bookmark {
	if folder == nil {
		folder = FolderPath{}
	}
	return Bookmark{
		URL:        rawURL,
		Title:      title,
		Domain:     ExtractDomain(rawURL),
		FolderPath: folder,
		AddDate:    addDate,
	}
}

// ExtractDomain returns the lowercase host of a URL with any "www." prefix removed.
// URLs without a scheme are treated as https. Unparseable URLs yield "".
func ExtractDomain(rawURL string) string {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return ""
	}

	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") && !strings.HasPrefix(rawURL, "ftp://") {
		rawURL = "https://" + rawURL
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}

	domain := strings.ToLower(parsed.Host)
	return strings.TrimPrefix(domain, "www.")
}
