package catalog

import (
	"fmt"
	"os"

	"github.com/pevans/litcrawl/config"
	"github.com/pevans/litcrawl/corpus"
	"github.com/pevans/litcrawl/progress"
	"github.com/pevans/litcrawl/scraper"
)

// Entry binds a configured collection to its record store and progress
// marker.
type Entry struct {
	Name    string
	Config  config.Collection
	Store   *corpus.Store
	Tracker *progress.Tracker
}

// Status summarizes a collection on disk.
type Status struct {
	Name       string `json:"name"`
	BaseURL    string `json:"base_url"`
	Output     string `json:"output"`
	Progress   string `json:"progress"`
	Tags       bool   `json:"tags"`
	MarkerPage int    `json:"marker_page"`
	// Started is false until the collection has a progress marker.
	Started bool `json:"started"`
	Records int  `json:"records"`
}

// Open returns the entry for the named collection.
func Open(cfg *config.Config, name string) (*Entry, error) {
	col, err := cfg.Collection(name)
	if err != nil {
		return nil, err
	}

	store, err := corpus.NewStore(col.Output, corpus.Columns(col.Article.IncludeTags))
	if err != nil {
		return nil, fmt.Errorf("failed to open store for %s: %w", name, err)
	}

	return &Entry{
		Name:    name,
		Config:  col,
		Store:   store,
		Tracker: progress.NewTracker(col.Progress),
	}, nil
}

// OpenAll returns an entry per named collection, or per configured
// collection in sorted order when names is empty.
func OpenAll(cfg *config.Config, names ...string) ([]*Entry, error) {
	if len(names) == 0 {
		names = cfg.Names()
	}

	entries := make([]*Entry, 0, len(names))
	for _, name := range names {
		entry, err := Open(cfg, name)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// Collector creates a page collector for the collection.
func (e *Entry) Collector(client *scraper.Client) *scraper.Collector {
	return scraper.NewCollector(client, e.Config.BaseURL, e.Config.List, e.Config.Article)
}

// Status reads the marker and counts stored records.
func (e *Entry) Status() (*Status, error) {
	count, err := e.Store.Count()
	if err != nil {
		return nil, fmt.Errorf("failed to count records for %s: %w", e.Name, err)
	}

	_, statErr := os.Stat(e.Tracker.Path())

	return &Status{
		Name:       e.Name,
		BaseURL:    e.Config.BaseURL,
		Output:     e.Config.Output,
		Progress:   e.Config.Progress,
		Tags:       e.Config.Article.IncludeTags,
		MarkerPage: e.Tracker.Load(),
		Started:    statErr == nil,
		Records:    count,
	}, nil
}
