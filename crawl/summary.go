package crawl

import (
	"time"

	"github.com/google/uuid"
)

// Summary describes one finished run of a collection.
type Summary struct {
	RunID          uuid.UUID `json:"run_id"`
	Collection     string    `json:"collection"`
	StartPage      int       `json:"start_page"`
	LastPage       int       `json:"last_page"` // last page fully processed, 0 if none
	PagesProcessed int       `json:"pages_processed"`
	ItemsWritten   int       `json:"items_written"`
	ItemsSkipped   int       `json:"items_skipped"`
	ItemsFailed    int       `json:"items_failed"`
	PageRetries    int       `json:"page_retries"`
	StartedAt      time.Time `json:"started_at"`
	FinishedAt     time.Time `json:"finished_at"`
}

// Duration returns how long the run took.
func (s *Summary) Duration() time.Duration {
	if s.FinishedAt.IsZero() {
		return 0
	}
	return s.FinishedAt.Sub(s.StartedAt)
}
