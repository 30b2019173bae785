package scraper

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestStrippedStrings verifies trimming and skipping of non-visible text
func TestStrippedStrings(t *testing.T) {
	doc := mustDocument(t, poemPage)

	got := strippedStrings(doc.Find("div.entry-content"))

	assert.Equal(t, []string{"कवि: रमेश", "पहिलो हरफ", "दोस्रो हरफ", "तेस्रो हरफ"}, got)
}

// TestJoinedText verifies separators between text nodes
func TestJoinedText(t *testing.T) {
	doc := mustDocument(t, `<h2 class="entry-title"> <a href="/x"> साँझ </a> <em>को</em> गीत </h2>`)
	sel := doc.Find("h2")

	assert.Equal(t, "साँझकोगीत", joinedText(sel, ""))
	assert.Equal(t, "साँझ\nको\nगीत", joinedText(sel, "\n"))
}

// TestJoinedText_EmptySelection verifies an empty selection yields no text
func TestJoinedText_EmptySelection(t *testing.T) {
	doc := mustDocument(t, `<p>text</p>`)

	assert.Empty(t, joinedText(doc.Find("span"), "\n"))
}
