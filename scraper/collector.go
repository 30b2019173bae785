package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/pevans/litcrawl/corpus"
)

// Collector fetches listing and detail pages for one collection.
type Collector struct {
	client  *Client
	baseURL string
	list    ListConfig
	article ArticleConfig
	logger  *slog.Logger
}

// NewCollector creates a collector for listing pages at baseURL followed by
// the page number.
func NewCollector(client *Client, baseURL string, list ListConfig, article ArticleConfig) *Collector {
	return &Collector{
		client:  client,
		baseURL: baseURL,
		list:    list,
		article: article,
		logger:  slog.Default().With("base_url", baseURL),
	}
}

// PageURL returns the listing URL for page.
func (c *Collector) PageURL(page int) string {
	return c.baseURL + strconv.Itoa(page)
}

// FetchListing returns the entries on a listing page. A non-2xx response
// yields no entries and no error, since the site renders pages past the end
// as an error page.
func (c *Collector) FetchListing(ctx context.Context, page int) ([]ListingEntry, error) {
	pageURL := c.PageURL(page)

	doc, err := c.client.FetchDocument(ctx, pageURL)
	if err != nil {
		var fe *FetchError
		if errors.As(err, &fe) && fe.Kind == KindStatus {
			c.logger.Warn("listing page returned an error status",
				"page", page, "url", pageURL, "status", fe.StatusCode)
			return []ListingEntry{}, nil
		}
		return nil, fmt.Errorf("failed to fetch listing page %d: %w", page, err)
	}

	return ParseListing(doc, c.list), nil
}

// FetchRecord fetches the detail page of entry and extracts its record.
func (c *Collector) FetchRecord(ctx context.Context, entry ListingEntry) (corpus.Record, error) {
	if entry.Err != nil {
		return corpus.Record{}, entry.Err
	}

	doc, err := c.client.FetchDocument(ctx, entry.URL)
	if err != nil {
		return corpus.Record{}, fmt.Errorf("failed to fetch detail page: %w", err)
	}

	record, err := ExtractRecord(doc, c.article, entry)
	if err != nil {
		return corpus.Record{}, fmt.Errorf("failed to extract %s: %w", entry.URL, err)
	}

	return record, nil
}
