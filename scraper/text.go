package scraper

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// strippedStrings returns every text node below the selection, trimmed, with
// empty strings dropped. Text inside script and style elements is skipped.
func strippedStrings(sel *goquery.Selection) []string {
	var out []string
	for _, n := range sel.Nodes {
		collectText(n, &out)
	}
	return out
}

func collectText(n *html.Node, out *[]string) {
	switch n.Type {
	case html.TextNode:
		if s := strings.TrimSpace(n.Data); s != "" {
			*out = append(*out, s)
		}
		return
	case html.CommentNode:
		return
	case html.ElementNode:
		if n.DataAtom == atom.Script || n.DataAtom == atom.Style {
			return
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, out)
	}
}

// joinedText concatenates the stripped strings of the selection with sep.
func joinedText(sel *goquery.Selection, sep string) string {
	return strings.Join(strippedStrings(sel), sep)
}
