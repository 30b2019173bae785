package crawl

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/pevans/litcrawl/corpus"
	"github.com/pevans/litcrawl/progress"
	"github.com/pevans/litcrawl/scraper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSite serves a small WordPress style poem archive. Listing pages past
// the last one return 404 like the real site.
type fakeSite struct {
	mu       sync.Mutex
	pages    [][]string
	broken   map[string]bool
	requests map[string]int
}

func (s *fakeSite) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.requests[r.URL.Path]++
	s.mu.Unlock()

	var page int
	if _, err := fmt.Sscanf(r.URL.Path, "/nepalipoems/page/%d", &page); err == nil {
		if page < 1 || page > len(s.pages) {
			http.NotFound(w, r)
			return
		}
		var b strings.Builder
		for _, slug := range s.pages[page-1] {
			fmt.Fprintf(&b, `<article><h2 class="entry-title"><a href="/%s/">कविता %s</a></h2></article>`, slug, slug)
		}
		fmt.Fprintf(w, "<html><body>%s</body></html>", b.String())
		return
	}

	slug := strings.Trim(r.URL.Path, "/")
	if s.broken[slug] {
		fmt.Fprint(w, `<html><body><p>removed</p></body></html>`)
		return
	}
	fmt.Fprintf(w, `<html><body>
<time class="entry-date">२०८०</time>
<div class="entry-content"><p><strong>कवि %s</strong></p><p>हरफ %s</p></div>
<span class="tags-links"><a href="/tag/a">माया</a></span>
</body></html>`, slug, slug)
}

func (s *fakeSite) hits(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests[path]
}

// Test helper: start the fake archive with n items per page
func newFakeSite(t *testing.T, perPage ...int) (*fakeSite, *httptest.Server) {
	site := &fakeSite{broken: make(map[string]bool), requests: make(map[string]int)}
	n := 0
	for _, count := range perPage {
		var slugs []string
		for range count {
			n++
			slugs = append(slugs, fmt.Sprintf("p%03d", n))
		}
		site.pages = append(site.pages, slugs)
	}
	server := httptest.NewServer(site)
	t.Cleanup(server.Close)
	return site, server
}

type siteRun struct {
	store   *corpus.Store
	tracker *progress.Tracker
	baseURL string
}

// Test helper: wire real components the way the CLI does
func newSiteRun(t *testing.T, server *httptest.Server) *siteRun {
	dir := t.TempDir()
	store, err := corpus.NewStore(filepath.Join(dir, "nepali_poems.csv"), corpus.Columns(true))
	require.NoError(t, err)
	return &siteRun{
		store:   store,
		tracker: progress.NewTracker(filepath.Join(dir, "scraping_progress.txt")),
		baseURL: server.URL + "/nepalipoems/page/",
	}
}

func (r *siteRun) run(t *testing.T) *Summary {
	collector := scraper.NewCollector(
		scraper.NewClient(scraper.ClientOptions{}),
		r.baseURL,
		scraper.NewListConfig(),
		scraper.NewArticleConfig(true),
	)
	session, err := NewSession(Options{
		Collection: "poems",
		Fetcher:    collector,
		Sink:       r.store,
		Marker:     r.tracker,
		Policy:     DefaultPolicy(),
	})
	require.NoError(t, err)

	summary, err := session.Run(context.Background())
	require.NoError(t, err)
	return summary
}

// TestSite_FullRun verifies a crawl against a fake archive end to end
func TestSite_FullRun(t *testing.T) {
	site, server := newFakeSite(t, 12, 3)
	site.broken["p005"] = true
	r := newSiteRun(t, server)

	summary := r.run(t)

	records, err := r.store.ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 14, "one broken detail page should be skipped")
	assert.Equal(t, "कविता p001", records[0].Title)
	assert.Equal(t, "कवि p001", records[0].AuthorTitle)
	assert.Equal(t, "कवि p001\nहरफ p001", records[0].Content)
	assert.Equal(t, "माया", records[0].Tags)

	assert.Equal(t, 2, r.tracker.Load(), "marker should hold the last page with entries")
	assert.Equal(t, 14, summary.ItemsWritten)
	assert.Equal(t, 1, summary.ItemsFailed)
	assert.Equal(t, 1, site.hits("/nepalipoems/page/3"))

	data, err := os.ReadFile(r.store.Path())
	require.NoError(t, err)
	assert.Equal(t, 1, bytes.Count(data, []byte("Title,Author_Title,Date,Content,Tags")))
}

// TestSite_Rerun verifies a second run writes nothing new
func TestSite_Rerun(t *testing.T) {
	site, server := newFakeSite(t, 4, 4)
	r := newSiteRun(t, server)

	first := r.run(t)
	second := r.run(t)

	assert.Equal(t, 8, first.ItemsWritten)
	assert.Zero(t, second.ItemsWritten)
	assert.Equal(t, 2, second.StartPage, "resume should reprocess the last completed page")
	assert.Equal(t, 4, second.ItemsSkipped)
	assert.Equal(t, 1, site.hits("/p005/"), "known items should not be fetched again")

	count, err := r.store.Count()
	require.NoError(t, err)
	assert.Equal(t, 8, count)

	data, err := os.ReadFile(r.store.Path())
	require.NoError(t, err)
	assert.Equal(t, 1, bytes.Count(data, []byte("Title,Author_Title")), "header should be written once across runs")
}

// TestSite_RerunFromFirstPage verifies known titles are skipped even when
// the marker is lost
func TestSite_RerunFromFirstPage(t *testing.T) {
	_, server := newFakeSite(t, 3, 2)
	r := newSiteRun(t, server)

	r.run(t)
	require.NoError(t, os.Remove(r.tracker.Path()))
	second := r.run(t)

	assert.Equal(t, 1, second.StartPage)
	assert.Zero(t, second.ItemsWritten)
	assert.Equal(t, 5, second.ItemsSkipped)

	count, err := r.store.Count()
	require.NoError(t, err)
	assert.Equal(t, 5, count)
}
