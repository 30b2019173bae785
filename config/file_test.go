package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test helper: write a file into dir
func writeFile(t *testing.T, dir, name, content string) string {
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// TestLocalPath verifies the override file name
func TestLocalPath(t *testing.T) {
	assert.Equal(t, "litcrawl.local.yaml", LocalPath("litcrawl.yaml"))
	assert.Equal(t, filepath.Join("etc", "crawl.local.yml"), LocalPath(filepath.Join("etc", "crawl.yml")))
	assert.Equal(t, "litcrawl.local", LocalPath("litcrawl"))
}

// TestLoad_MissingFile verifies a missing file is not an error
func TestLoad_MissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "litcrawl.yaml"))

	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

// TestLoad_File verifies file settings override defaults
func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "litcrawl.yaml", `
log:
  level: debug
http:
  timeout: 30s
crawl:
  batch_size: 5
  treat_empty_as_end_of_crawl: false
ledger:
  dsn: litcrawl.db
collections:
  poems:
    output: data/poems.csv
    article:
      include_tags: false
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format, "unset fields should keep their default")
	assert.Equal(t, 30*time.Second, cfg.HTTP.Timeout)
	assert.Equal(t, 5, cfg.Crawl.BatchSize)
	assert.False(t, cfg.Crawl.TreatEmptyAsEndOfCrawl)
	assert.Equal(t, "litcrawl.db", cfg.Ledger.DSN)

	poems := cfg.Collections["poems"]
	assert.Equal(t, "data/poems.csv", poems.Output)
	assert.Equal(t, "https://inepal.org/nepalipoems/page/", poems.BaseURL, "collection should keep unnamed fields")
	assert.False(t, poems.Article.IncludeTags)
	assert.Equal(t, "div.entry-content", poems.Article.ContentSelector)
	assert.Contains(t, cfg.Collections, "stories", "built-in collections should survive")
}

// TestLoad_LocalOverride verifies the .local file wins over the main file
func TestLoad_LocalOverride(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "litcrawl.yaml", `
crawl:
  batch_size: 5
  max_page_retries: 2
`)
	writeFile(t, dir, "litcrawl.local.yaml", `
crawl:
  batch_size: 50
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 50, cfg.Crawl.BatchSize)
	assert.Equal(t, 2, cfg.Crawl.MaxPageRetries)
}

// TestLoad_EnvOverFile verifies the environment wins over files
func TestLoad_EnvOverFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "litcrawl.yaml", "crawl:\n  batch_size: 5\n")
	t.Setenv("LITCRAWL_BATCH_SIZE", "7")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Crawl.BatchSize)
}

// TestLoad_NewCollection verifies selector defaults for file-only collections
func TestLoad_NewCollection(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "litcrawl.yaml", `
collections:
  essays:
    base_url: https://inepal.org/nepaliessays/page/
    output: nepali_essays.csv
    progress: scraping_progress_essays.txt
    article:
      date_selector: span.posted-on
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"essays", "poems", "stories"}, cfg.Names())
	essays := cfg.Collections["essays"]
	assert.Equal(t, "article", essays.List.ArticleSelector)
	assert.Equal(t, "h2.entry-title a", essays.List.LinkSelector)
	assert.Equal(t, "span.posted-on", essays.Article.DateSelector, "explicit selectors should be kept")
	assert.Equal(t, "div.entry-content", essays.Article.ContentSelector)
	assert.False(t, essays.Article.IncludeTags)
}

// TestLoad_Malformed verifies a broken file is an error
func TestLoad_Malformed(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "litcrawl.yaml", "crawl: [unclosed\n")

	_, err := Load(path)
	assert.Error(t, err)
}

// TestLoad_MalformedLocal verifies a broken override is an error
func TestLoad_MalformedLocal(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "litcrawl.yaml", "crawl:\n  batch_size: 5\n")
	writeFile(t, dir, "litcrawl.local.yaml", "crawl:\n  batch_size: many\n")

	_, err := Load(path)
	assert.Error(t, err)
}

// TestLoad_InvalidFileValues verifies validation of file settings
func TestLoad_InvalidFileValues(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "litcrawl.yaml", `
collections:
  essays:
    output: essays.csv
    progress: essays.txt
`)

	_, err := Load(path)
	assert.Error(t, err, "a collection without base_url should be rejected")
}
