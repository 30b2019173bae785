package config

import (
	"fmt"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"strings"

	"dario.cat/mergo"
	"github.com/pevans/litcrawl/scraper"
	"gopkg.in/yaml.v3"
)

// LocalPath returns the override file for path: litcrawl.yaml becomes
// litcrawl.local.yaml in the same directory.
func LocalPath(path string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + ".local" + ext
}

// LoadFile applies the config file at path and then its local override on
// top of cfg. Settings absent from a file keep their current value, and a
// collection entry only replaces the fields it names. Missing files are
// skipped; files that cannot be parsed are an error.
func LoadFile(path string, cfg *Config) error {
	for _, p := range []string{path, LocalPath(path)} {
		applied, err := applyFile(p, cfg)
		if err != nil {
			return err
		}
		if applied && p != path {
			slog.Info("merging config with local overrides", "local", p)
		}
	}

	return fillCollectionDefaults(cfg)
}

// applyFile decodes one YAML file over cfg. It reports false when the file
// doesn't exist.
func applyFile(path string, cfg *Config) (bool, error) {
	// Check if file exists
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return false, nil // File doesn't exist -- not an error
	}

	// Read file
	data, err := os.ReadFile(path)
	if err != nil {
		return false, fmt.Errorf("failed to read config file: %w", err)
	}

	// Collections are decoded one by one over their current value so a file
	// can change a single selector of a built-in collection
	var raw struct {
		Collections map[string]yaml.Node `yaml:"collections"`
	}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return false, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	collections := maps.Clone(cfg.Collections)
	if collections == nil {
		collections = make(map[string]Collection)
	}

	cfg.Collections = nil
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return false, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	for name, node := range raw.Collections {
		col := collections[name]
		if err := node.Decode(&col); err != nil {
			return false, fmt.Errorf("failed to parse collection %s in %s: %w", name, path, err)
		}
		collections[name] = col
	}
	cfg.Collections = collections

	return true, nil
}

// fillCollectionDefaults gives collections declared only in a file the
// standard WordPress selectors for anything they leave empty.
func fillCollectionDefaults(cfg *Config) error {
	for name, col := range cfg.Collections {
		if err := mergo.Merge(&col.List, scraper.NewListConfig()); err != nil {
			return fmt.Errorf("failed to apply list defaults to %s: %w", name, err)
		}
		if err := mergo.Merge(&col.Article, scraper.NewArticleConfig(col.Article.IncludeTags)); err != nil {
			return fmt.Errorf("failed to apply article defaults to %s: %w", name, err)
		}
		cfg.Collections[name] = col
	}
	return nil
}
