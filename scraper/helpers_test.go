package scraper

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

// Test helper: parse an HTML string into a document
func mustDocument(t *testing.T, body string) *goquery.Document {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	require.NoError(t, err)
	return doc
}

// listingHTML renders a WordPress style listing page with one article per
// title. The link of each article points at href(title).
func listingHTML(titles []string, href func(string) string) string {
	var b strings.Builder
	b.WriteString("<html><body><main>")
	for _, title := range titles {
		fmt.Fprintf(&b, `<article><h2 class="entry-title"><a href="%s">%s</a></h2></article>`, href(title), title)
	}
	b.WriteString("</main></body></html>")
	return b.String()
}

const poemPage = `<html><body>
<header><h1>iNepal</h1></header>
<article>
  <time class="entry-date published">मंसिर ५, २०८०</time>
  <div class="entry-content">
    <p><strong>कवि: रमेश</strong></p>
    <p>पहिलो हरफ<br>  दोस्रो हरफ  </p>
    <script>var tracking = 1;</script>
    <!-- share buttons -->
    <p>   </p>
    <p>तेस्रो हरफ</p>
  </div>
  <footer><span class="tags-links"><a href="/tag/nature">प्रकृति</a>, <a href="/tag/love">माया</a></span></footer>
</article>
</body></html>`

// Test helper: start a fake site serving fixed paths
func newFakeSite(t *testing.T, pages map[string]string) *httptest.Server {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := pages[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}
