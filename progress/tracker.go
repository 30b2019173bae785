package progress

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// FirstPage is the page a crawl starts from when no marker exists.
const FirstPage = 1

// Tracker persists the last completed listing page of one collection in a
// small text file.
type Tracker struct {
	path string
}

// NewTracker creates a tracker backed by the marker file at path.
func NewTracker(path string) *Tracker {
	return &Tracker{path: path}
}

// Path returns the marker file location.
func (t *Tracker) Path() string {
	return t.path
}

// Load returns the page recorded in the marker file. A missing, unreadable or
// malformed marker yields FirstPage, as does any value below it.
func (t *Tracker) Load() int {
	data, err := os.ReadFile(t.path)
	if err != nil {
		return FirstPage
	}

	page, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || page < FirstPage {
		return FirstPage
	}

	return page
}

// Save overwrites the marker with page.
func (t *Tracker) Save(page int) error {
	if dir := filepath.Dir(t.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create progress directory: %w", err)
		}
	}

	if err := os.WriteFile(t.path, []byte(strconv.Itoa(page)), 0o644); err != nil {
		return fmt.Errorf("failed to save progress: %w", err)
	}
	return nil
}
