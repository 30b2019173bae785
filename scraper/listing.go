package scraper

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	errNoTitle = errors.New("entry has no title element")
	errNoLink  = errors.New("entry has no link")
)

// ListingEntry is one item container found on a listing page. Err is set
// when the container is missing its title or link; such an entry still
// counts towards the page but cannot be fetched.
type ListingEntry struct {
	Title string
	URL   string
	Err   error
}

// ParseListing extracts one entry per item container in doc. Relative links
// are resolved against doc.Url when it is known.
func ParseListing(doc *goquery.Document, cfg ListConfig) []ListingEntry {
	entries := []ListingEntry{}

	doc.Find(cfg.ArticleSelector).Each(func(i int, s *goquery.Selection) {
		entries = append(entries, parseEntry(s, cfg, doc.Url))
	})

	return entries
}

func parseEntry(s *goquery.Selection, cfg ListConfig, base *url.URL) ListingEntry {
	titleSel := s.Find(cfg.TitleSelector).First()
	if titleSel.Length() == 0 {
		return ListingEntry{Err: errNoTitle}
	}

	entry := ListingEntry{Title: joinedText(titleSel, "")}

	href, ok := s.Find(cfg.LinkSelector).First().Attr("href")
	href = strings.TrimSpace(href)
	if !ok || href == "" {
		entry.Err = errNoLink
		return entry
	}

	link, err := url.Parse(href)
	if err != nil {
		entry.Err = fmt.Errorf("failed to parse entry link: %w", err)
		return entry
	}
	if base != nil {
		link = base.ResolveReference(link)
	}
	entry.URL = link.String()

	return entry
}
