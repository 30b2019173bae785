package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pevans/litcrawl/catalog"
	"github.com/pevans/litcrawl/crawl"
	"github.com/pevans/litcrawl/scraper"
	"github.com/spf13/cobra"
)

var (
	batchSize      int
	maxPageRetries int
)

var crawlCmd = &cobra.Command{
	Use:   "crawl [collection...]",
	Short: "Crawl collections, resuming from their progress markers.",
	Long: `Crawl the named collections one after another, or every configured
collection in name order when none are given. Ctrl+C stops the crawl after
saving buffered records; the next run resumes from the last completed page.`,
	RunE: runCrawl,
}

func init() {
	crawlCmd.Flags().IntVar(&batchSize, "batch-size", 0, "records buffered before each write (overrides config)")
	crawlCmd.Flags().IntVar(&maxPageRetries, "max-page-retries", 0, "give up on a listing page after this many retries, 0 retries forever (overrides config)")
	rootCmd.AddCommand(crawlCmd)
}

func runCrawl(cmd *cobra.Command, args []string) error {
	if cmd.Flags().Changed("batch-size") {
		if batchSize < 1 {
			return fmt.Errorf("--batch-size must be at least 1")
		}
		cfg.Crawl.BatchSize = batchSize
	}
	if cmd.Flags().Changed("max-page-retries") {
		if maxPageRetries < 0 {
			return fmt.Errorf("--max-page-retries must not be negative")
		}
		cfg.Crawl.MaxPageRetries = maxPageRetries
	}

	entries, err := catalog.OpenAll(cfg, args...)
	if err != nil {
		return err
	}

	var recorder crawl.Recorder
	if cfg.Ledger.DSN != "" {
		l, err := openLedger()
		if err != nil {
			return err
		}
		defer l.Close()
		recorder = l
	}

	client := scraper.NewClient(scraper.ClientOptions{
		Timeout:   cfg.HTTP.Timeout,
		UserAgent: cfg.HTTP.UserAgent,
	})
	policy := crawl.Policy{
		TreatEmptyAsEndOfCrawl: cfg.Crawl.TreatEmptyAsEndOfCrawl,
		MaxPageRetries:         cfg.Crawl.MaxPageRetries,
		RetryDelay:             cfg.Crawl.RetryDelay,
	}

	ctx := cmd.Context()
	summaries := []*crawl.Summary{}
	failed := []string{}

	for _, entry := range entries {
		session, err := crawl.NewSession(crawl.Options{
			Collection: entry.Name,
			Fetcher:    entry.Collector(client),
			Sink:       entry.Store,
			Marker:     entry.Tracker,
			Recorder:   recorder,
			BatchSize:  cfg.Crawl.BatchSize,
			Policy:     policy,
		})
		if err != nil {
			return err
		}

		summary, err := session.Run(ctx)
		if summary != nil {
			summaries = append(summaries, summary)
		}

		if errors.Is(err, context.Canceled) {
			slog.Warn("crawl interrupted, progress saved", "collection", entry.Name)
			break
		}
		if err != nil {
			slog.Error("crawl failed", "collection", entry.Name, "err", err)
			failed = append(failed, entry.Name)
			continue
		}

		slog.Info("crawl finished",
			"collection", entry.Name,
			"items_written", summary.ItemsWritten,
			"last_page", summary.LastPage)
	}

	printSummaryTable(summaries)

	if len(failed) > 0 {
		return fmt.Errorf("crawl failed for %s", strings.Join(failed, ", "))
	}
	return nil
}
