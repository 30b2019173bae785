package scraper

// ListConfig defines how to find entries on a paginated listing page.
type ListConfig struct {
	// ArticleSelector matches one container per listed item.
	ArticleSelector string `yaml:"article_selector" json:"article_selector"`
	// TitleSelector is evaluated inside each container.
	TitleSelector string `yaml:"title_selector" json:"title_selector"`
	// LinkSelector is evaluated inside each container; its href is the
	// detail page.
	LinkSelector string `yaml:"link_selector" json:"link_selector"`
}

// ArticleConfig defines how to extract record fields from a detail page.
type ArticleConfig struct {
	ContentSelector string `yaml:"content_selector" json:"content_selector"`
	DateSelector    string `yaml:"date_selector" json:"date_selector"`
	// BylineSelector is matched against the whole page and the first hit
	// wins.
	BylineSelector  string `yaml:"byline_selector,omitempty" json:"byline_selector,omitempty"`
	TagsSelector    string `yaml:"tags_selector,omitempty" json:"tags_selector,omitempty"`
	TagLinkSelector string `yaml:"tag_link_selector,omitempty" json:"tag_link_selector,omitempty"`
	IncludeTags     bool   `yaml:"include_tags" json:"include_tags"`
}

// NewListConfig creates a list configuration matching the WordPress theme
// used by inepal.org.
func NewListConfig() ListConfig {
	return ListConfig{
		ArticleSelector: "article",
		TitleSelector:   "h2.entry-title",
		LinkSelector:    "h2.entry-title a",
	}
}

// NewArticleConfig creates an article configuration matching the WordPress
// theme used by inepal.org. Tag extraction is only wired when includeTags is
// set.
func NewArticleConfig(includeTags bool) ArticleConfig {
	return ArticleConfig{
		ContentSelector: "div.entry-content",
		DateSelector:    "time.entry-date",
		BylineSelector:  "strong",
		TagsSelector:    "span.tags-links",
		TagLinkSelector: "a",
		IncludeTags:     includeTags,
	}
}
