package feedcheck

import (
	"context"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
)

// Item is a feed entry normalized for comparison with stored records.
type Item struct {
	Title       string     `json:"title"`
	URL         string     `json:"url"`
	Authors     []string   `json:"authors"`
	Categories  []string   `json:"categories"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
}

// Checker reads collection feeds.
type Checker struct {
	parser *gofeed.Parser
}

// NewChecker creates a checker. A zero timeout means none.
func NewChecker(userAgent string, timeout time.Duration) *Checker {
	fp := gofeed.NewParser()
	fp.UserAgent = userAgent
	fp.Client = &http.Client{Timeout: timeout}
	return &Checker{parser: fp}
}

// FeedURL derives the WordPress feed of a collection from its listing base
// URL: https://inepal.org/nepalipoems/page/ becomes
// https://inepal.org/nepalipoems/feed.
func FeedURL(baseURL string) string {
	u := strings.TrimSuffix(baseURL, "/")
	u = strings.TrimSuffix(u, "/page")
	return u + "/feed"
}

// Fetch returns every item in the feed at feedURL. The gofeed library
// detects RSS and Atom automatically.
func (c *Checker) Fetch(ctx context.Context, feedURL string) ([]Item, error) {
	feed, err := c.parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	items := make([]Item, 0, len(feed.Items))
	for _, fi := range feed.Items {
		items = append(items, FromFeedItem(fi))
	}
	return items, nil
}

// Pending returns the feed items whose titles are not known yet, in feed
// order.
func (c *Checker) Pending(ctx context.Context, feedURL string, known func(title string) bool) ([]Item, error) {
	items, err := c.Fetch(ctx, feedURL)
	if err != nil {
		return nil, err
	}

	pending := []Item{}
	for _, item := range items {
		if item.Title == "" || known(item.Title) {
			continue
		}
		pending = append(pending, item)
	}
	return pending, nil
}

// FromFeedItem converts a gofeed item. Authors come from the author element,
// the authors list and the Dublin Core creator, without duplicates.
func FromFeedItem(fi *gofeed.Item) Item {
	item := Item{
		Title:      strings.TrimSpace(fi.Title),
		URL:        fi.Link,
		Authors:    []string{},
		Categories: []string{},
	}

	addAuthor := func(name string) {
		name = strings.TrimSpace(name)
		if name != "" && !slices.Contains(item.Authors, name) {
			item.Authors = append(item.Authors, name)
		}
	}
	if fi.Author != nil {
		addAuthor(fi.Author.Name)
	}
	for _, a := range fi.Authors {
		if a != nil {
			addAuthor(a.Name)
		}
	}
	if fi.DublinCoreExt != nil {
		for _, creator := range fi.DublinCoreExt.Creator {
			addAuthor(creator)
		}
	}

	for _, cat := range fi.Categories {
		if cat = strings.TrimSpace(cat); cat != "" {
			item.Categories = append(item.Categories, cat)
		}
	}

	// Published, falling back to updated
	if fi.PublishedParsed != nil {
		item.PublishedAt = fi.PublishedParsed
	} else if fi.UpdatedParsed != nil {
		item.PublishedAt = fi.UpdatedParsed
	}

	return item
}
