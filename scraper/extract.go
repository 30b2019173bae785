package scraper

import (
	"errors"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/pevans/litcrawl/corpus"
)

var (
	ErrNoContent = errors.New("page has no content container")
	ErrNoDate    = errors.New("page has no date element")
	ErrNoTags    = errors.New("page has no tags container")
)

// ExtractRecord builds a record for entry from its detail page. The title
// always comes from the listing so it matches what the duplicate check saw.
func ExtractRecord(doc *goquery.Document, cfg ArticleConfig, entry ListingEntry) (corpus.Record, error) {
	record := corpus.Record{Title: entry.Title}

	content := doc.Find(cfg.ContentSelector).First()
	if content.Length() == 0 {
		return corpus.Record{}, ErrNoContent
	}
	record.Content = joinedText(content, "\n")

	date := doc.Find(cfg.DateSelector).First()
	if date.Length() == 0 {
		return corpus.Record{}, ErrNoDate
	}
	record.Date = joinedText(date, "")

	if cfg.IncludeTags {
		container := doc.Find(cfg.TagsSelector).First()
		if container.Length() == 0 {
			return corpus.Record{}, ErrNoTags
		}
		tags := []string{}
		container.Find(cfg.TagLinkSelector).Each(func(i int, s *goquery.Selection) {
			tags = append(tags, joinedText(s, ""))
		})
		record.Tags = strings.Join(tags, ", ")
	}

	// The byline heuristic looks at the whole page, not just the content
	if cfg.BylineSelector != "" {
		if byline := doc.Find(cfg.BylineSelector).First(); byline.Length() > 0 {
			record.AuthorTitle = joinedText(byline, "")
		}
	}

	return record, nil
}
