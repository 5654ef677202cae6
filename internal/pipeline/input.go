package pipeline

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/jonathan/bookmark-intelligence/internal/schemas"
	"github.com/jonathan/bookmark-intelligence/internal/types"
)

// LoadBookmarks reads and validates the flat bookmark export at path.
// Every record is rebuilt through types.NewBookmark; a domain present in the file is kept.
func LoadBookmarks(path string) ([]types.Bookmark, error) {
	if err := schemas.ValidateBookmarksFile(path); err != nil {
		return nil, fmt.Errorf("invalid bookmark input %s: %w", path, err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read bookmark input: %w", err)
	}

	var bookmarks []types.Bookmark
	if err := json.Unmarshal(data, &bookmarks); err != nil {
		return nil, fmt.Errorf("failed to parse bookmark input: %w", err)
	}

	for i, b := range bookmarks {
		normalized := types.NewBookmark(b.URL, b.Title, b.FolderPath, b.AddDate)
		if b.Domain != "" {
			normalized.Domain = b.Domain
		}
		bookmarks[i] = normalized
	}
	return bookmarks, nil
}
