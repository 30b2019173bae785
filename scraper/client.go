package scraper

import (
	"bytes"
	"context"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
)

// ClientOptions configures the HTTP client shared by a collector.
type ClientOptions struct {
	// Timeout bounds each request. Zero means no timeout.
	Timeout time.Duration
	// UserAgent replaces the HTTP library's default agent when set. No
	// other headers are added.
	UserAgent string
}

// Client fetches HTML documents.
type Client struct {
	http *resty.Client
}

// NewClient creates a client with the given options.
func NewClient(opts ClientOptions) *Client {
	http := resty.New()
	if opts.Timeout > 0 {
		http.SetTimeout(opts.Timeout)
	}

	if opts.UserAgent != "" {
		http.SetHeader("User-Agent", opts.UserAgent)
	}

	return &Client{http: http}
}

// FetchDocument GETs url and parses the body as HTML. A non-2xx response is
// a FetchError of KindStatus.
func (c *Client) FetchDocument(ctx context.Context, url string) (*goquery.Document, error) {
	res, err := c.http.R().
		SetContext(ctx).
		Get(url)
	if err != nil {
		return nil, &FetchError{Kind: KindNetwork, URL: url, Err: err}
	}
	if !res.IsSuccess() {
		return nil, &FetchError{Kind: KindStatus, URL: url, StatusCode: res.StatusCode()}
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body()))
	if err != nil {
		return nil, &FetchError{Kind: KindParse, URL: url, Err: err}
	}

	// Relative links on the page resolve against the final URL
	doc.Url = res.RawResponse.Request.URL

	return doc, nil
}
