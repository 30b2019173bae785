package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pevans/litcrawl/crawl"
	"github.com/pevans/litcrawl/ledger"
)

const timeFormat = "2006-01-02 15:04:05"

func newTable() table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleRounded)
	return t
}

func printSummaryTable(summaries []*crawl.Summary) {
	if len(summaries) == 0 {
		return
	}

	t := newTable()
	t.AppendHeader(table.Row{"Collection", "Pages", "Last Page", "Written", "Skipped", "Failed", "Retries", "Duration"})
	for _, s := range summaries {
		t.AppendRow(table.Row{
			s.Collection,
			s.PagesProcessed,
			s.LastPage,
			s.ItemsWritten,
			s.ItemsSkipped,
			s.ItemsFailed,
			s.PageRetries,
			s.Duration().Round(time.Second),
		})
	}
	t.Render()
}

func printStatusTable(rows []collectionRow, withFeed bool) {
	t := newTable()

	header := table.Row{"Collection", "Resume Page", "Records", "Output", "Base URL"}
	if withFeed {
		header = append(header, "Pending")
	}
	t.AppendHeader(header)

	for _, r := range rows {
		resume := "1 (new)"
		if r.status.Started {
			resume = strconv.Itoa(r.status.MarkerPage)
		}

		row := table.Row{r.status.Name, resume, r.status.Records, r.status.Output, r.status.BaseURL}
		if withFeed {
			if r.pending != nil {
				row = append(row, *r.pending)
			} else {
				row = append(row, "?")
			}
		}
		t.AppendRow(row)
	}
	t.Render()
}

func printRunsTable(runs []ledger.Run) {
	if len(runs) == 0 {
		fmt.Println("No runs recorded.")
		return
	}

	t := newTable()
	t.AppendHeader(table.Row{"Run ID", "Collection", "Status", "Started", "Pages", "Written", "Failed", "Error"})
	for _, r := range runs {
		errText := ""
		if r.Error != nil {
			errText = truncate(*r.Error, 60)
		}
		t.AppendRow(table.Row{
			r.RunID.String(),
			r.Collection,
			r.Status,
			r.StartedAt.Local().Format(timeFormat),
			fmt.Sprintf("%d-%d", r.StartPage, r.LastPage),
			r.ItemsWritten,
			r.ItemsFailed,
			errText,
		})
	}
	t.Render()
}

func printFailuresTable(failures []ledger.Failure) {
	if len(failures) == 0 {
		fmt.Println("No failed items.")
		return
	}

	t := newTable()
	t.AppendHeader(table.Row{"Page", "Title", "URL", "Error"})
	for _, f := range failures {
		t.AppendRow(table.Row{f.Page, f.Title, f.URL, truncate(f.Error, 80)})
	}
	t.Render()
}

// truncate shortens s to at most n runes.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-3]) + "..."
}
