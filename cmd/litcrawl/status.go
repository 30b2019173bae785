package main

import (
	"log/slog"

	"github.com/pevans/litcrawl/catalog"
	"github.com/pevans/litcrawl/feedcheck"
	"github.com/spf13/cobra"
)

var checkFeed bool

var statusCmd = &cobra.Command{
	Use:   "status [collection...]",
	Short: "Show progress markers and record counts.",
	Long: `Show where each collection will resume, how many records it holds and
where they are stored. With --feed the collection feed is read to count
published items that are not stored yet.`,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().BoolVar(&checkFeed, "feed", false, "count feed items not yet stored")
	rootCmd.AddCommand(statusCmd)
}

// collectionRow is one line of the status table.
type collectionRow struct {
	status  *catalog.Status
	pending *int
}

func runStatus(cmd *cobra.Command, args []string) error {
	entries, err := catalog.OpenAll(cfg, args...)
	if err != nil {
		return err
	}

	var checker *feedcheck.Checker
	if checkFeed {
		checker = feedcheck.NewChecker(cfg.HTTP.UserAgent, cfg.HTTP.Timeout)
	}

	rows := make([]collectionRow, 0, len(entries))
	for _, entry := range entries {
		status, err := entry.Status()
		if err != nil {
			return err
		}
		row := collectionRow{status: status}

		if checker != nil {
			row.pending = pendingCount(cmd, checker, entry)
		}
		rows = append(rows, row)
	}

	printStatusTable(rows, checkFeed)
	return nil
}

// pendingCount returns the number of feed items missing from the store, or
// nil when the feed could not be checked.
func pendingCount(cmd *cobra.Command, checker *feedcheck.Checker, entry *catalog.Entry) *int {
	titles, err := entry.Store.Titles()
	if err != nil {
		slog.Warn("failed to read stored titles", "collection", entry.Name, "err", err)
		return nil
	}

	feedURL := feedcheck.FeedURL(entry.Config.BaseURL)
	pending, err := checker.Pending(cmd.Context(), feedURL, func(title string) bool {
		_, ok := titles[title]
		return ok
	})
	if err != nil {
		slog.Warn("failed to check feed", "collection", entry.Name, "url", feedURL, "err", err)
		return nil
	}

	for _, item := range pending {
		slog.Debug("pending item", "collection", entry.Name, "title", item.Title, "url", item.URL)
	}

	n := len(pending)
	return &n
}
