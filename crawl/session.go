package crawl

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/pevans/litcrawl/corpus"
	"github.com/pevans/litcrawl/scraper"
)

// DefaultBatchSize is the number of records buffered before a flush.
const DefaultBatchSize = 10

var (
	// ErrRetriesExhausted is returned when a listing page keeps failing past
	// Policy.MaxPageRetries.
	ErrRetriesExhausted = errors.New("page retries exhausted")
	// ErrEmptyListing marks an empty listing page that is not treated as the
	// end of the crawl.
	ErrEmptyListing = errors.New("listing page has no entries")
	// ErrPageNotRetryable is returned under a retry cap when a listing page
	// fails in a way another attempt cannot fix.
	ErrPageNotRetryable = errors.New("page failure is not retryable")
)

// Fetcher retrieves listing pages and the records behind their entries.
// *scraper.Collector implements it.
type Fetcher interface {
	FetchListing(ctx context.Context, page int) ([]scraper.ListingEntry, error)
	FetchRecord(ctx context.Context, entry scraper.ListingEntry) (corpus.Record, error)
}

// Sink persists records. *corpus.Store implements it.
type Sink interface {
	TitleSource
	Append(records []corpus.Record) error
}

// Marker persists the last completed page. *progress.Tracker implements it.
type Marker interface {
	Load() int
	Save(page int) error
}

// Recorder keeps a history of runs. Failures to record are logged and never
// stop a crawl.
type Recorder interface {
	StartRun(collection string, startPage int) (uuid.UUID, error)
	RecordFailure(runID uuid.UUID, page int, title, url string, cause error) error
	FinishRun(summary *Summary, runErr error) error
}

// Policy controls how the loop reacts to listing failures.
type Policy struct {
	// TreatEmptyAsEndOfCrawl ends the run on a listing page without
	// entries. When false an empty page is retried like a failed fetch.
	TreatEmptyAsEndOfCrawl bool
	// MaxPageRetries caps consecutive retries of one page. Zero retries
	// forever. Under a cap, a failure that is not retryable ends the run
	// at once.
	MaxPageRetries int
	// RetryDelay is the pause before retrying a page.
	RetryDelay time.Duration
}

// DefaultPolicy returns the policy of an unattended crawl: stop at the first
// empty page and retry failing pages indefinitely.
func DefaultPolicy() Policy {
	return Policy{TreatEmptyAsEndOfCrawl: true}
}

// State is a step of the crawl loop.
type State int

const (
	StateStart State = iota
	StateFetchingPage
	StateProcessingEntries
	StatePageDone
	StateFinished
)

func (s State) String() string {
	switch s {
	case StateStart:
		return "start"
	case StateFetchingPage:
		return "fetching_page"
	case StateProcessingEntries:
		return "processing_entries"
	case StatePageDone:
		return "page_done"
	case StateFinished:
		return "finished"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Options configures a Session.
type Options struct {
	Collection string
	Fetcher    Fetcher
	Sink       Sink
	Marker     Marker
	// Recorder is optional.
	Recorder  Recorder
	BatchSize int
	Policy    Policy
	Logger    *slog.Logger
}

// Session runs one crawl of one collection. It owns the record buffer, the
// duplicate guard and the page cursor. A session is not safe for concurrent
// use and Run may only be called once.
type Session struct {
	opts   Options
	logger *slog.Logger

	state   State
	guard   *Guard
	buffer  []corpus.Record
	page    int
	summary Summary

	// recorded is set once the recorder knows about this run
	recorded bool
}

// NewSession creates a session. Fetcher, Sink and Marker are required.
func NewSession(opts Options) (*Session, error) {
	if opts.Fetcher == nil || opts.Sink == nil || opts.Marker == nil {
		return nil, errors.New("session needs a fetcher, sink and marker")
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.Policy.MaxPageRetries < 0 {
		return nil, fmt.Errorf("invalid max page retries: %d", opts.Policy.MaxPageRetries)
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Collection != "" {
		logger = logger.With("collection", opts.Collection)
	}

	return &Session{
		opts:   opts,
		logger: logger,
		state:  StateStart,
		guard:  NewGuard(),
		buffer: make([]corpus.Record, 0, opts.BatchSize),
	}, nil
}

// State returns the current loop state.
func (s *Session) State() State {
	return s.state
}

// Run crawls from the page stored in the marker until a listing page has no
// entries, the context is cancelled, or a fatal error occurs. Buffered
// records are flushed on every exit path. The summary is returned even when
// err is non-nil.
func (s *Session) Run(ctx context.Context) (*Summary, error) {
	if s.state != StateStart {
		return nil, errors.New("session has already run")
	}

	s.summary = Summary{
		RunID:      uuid.New(),
		Collection: s.opts.Collection,
		StartedAt:  time.Now(),
	}

	if err := s.guard.Seed(s.opts.Sink); err != nil {
		s.setState(StateFinished)
		return s.finish(err)
	}

	s.page = s.opts.Marker.Load()
	s.summary.StartPage = s.page

	if s.opts.Recorder != nil {
		id, err := s.opts.Recorder.StartRun(s.opts.Collection, s.page)
		if err != nil {
			s.logger.Error("failed to record run start", "err", err)
		} else {
			s.summary.RunID = id
			s.recorded = true
		}
	}
	s.logger = s.logger.With("run_id", s.summary.RunID.String())

	s.logger.Info("starting crawl",
		"start_page", s.page,
		"known_titles", s.guard.Len(),
		"batch_size", s.opts.BatchSize)

	runErr := s.loop(ctx)

	pending := len(s.buffer)
	if err := s.flush(); err != nil {
		if runErr == nil {
			runErr = err
		} else {
			runErr = errors.Join(runErr, err)
		}
	} else if pending > 0 {
		s.logger.Info("final data saved", "count", pending)
	}

	s.setState(StateFinished)
	return s.finish(runErr)
}

// loop drives the page state machine. It returns nil when the crawl reached
// its natural end.
func (s *Session) loop(ctx context.Context) error {
	failures := 0

	for {
		if err := ctx.Err(); err != nil {
			s.logger.Info("crawl cancelled", "page", s.page)
			return err
		}

		s.setState(StateFetchingPage)
		s.logger.Info("scraping page", "page", s.page)

		entries, err := s.opts.Fetcher.FetchListing(ctx, s.page)
		if err == nil && len(entries) == 0 {
			if s.opts.Policy.TreatEmptyAsEndOfCrawl {
				s.logger.Info("no more entries, stopping", "page", s.page)
				return nil
			}
			err = ErrEmptyListing
		}

		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				s.logger.Info("crawl cancelled", "page", s.page)
				return ctxErr
			}

			failures++
			canRetry := retryable(err)
			s.logger.Error("error processing page",
				"page", s.page, "attempt", failures, "retryable", canRetry, "err", err)

			if limit := s.opts.Policy.MaxPageRetries; limit > 0 {
				if !canRetry {
					return fmt.Errorf("%w: page %d: %w", ErrPageNotRetryable, s.page, err)
				}
				if failures > limit {
					return fmt.Errorf("%w: page %d failed %d times: %w", ErrRetriesExhausted, s.page, failures, err)
				}
			}

			s.summary.PageRetries++
			if err := s.wait(ctx); err != nil {
				s.logger.Info("crawl cancelled", "page", s.page)
				return err
			}
			continue
		}
		failures = 0

		s.setState(StateProcessingEntries)
		if err := s.processEntries(ctx, entries); err != nil {
			return err
		}

		s.setState(StatePageDone)
		if err := s.opts.Marker.Save(s.page); err != nil {
			s.logger.Warn("failed to save progress", "page", s.page, "err", err)
		}
		s.summary.LastPage = s.page
		s.summary.PagesProcessed++
		s.page++
	}
}

// processEntries handles every entry of one listing page. It returns an error
// only for cancellation or a failed flush.
func (s *Session) processEntries(ctx context.Context, entries []scraper.ListingEntry) error {
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			s.logger.Info("crawl cancelled", "page", s.page)
			return err
		}

		// An entry without a title element carries Err and is never a
		// duplicate; an empty title is still a title.
		if entry.Err == nil && s.guard.Contains(entry.Title) {
			s.summary.ItemsSkipped++
			s.logger.Debug("skipping already scraped item", "title", entry.Title)
			continue
		}

		record, err := s.opts.Fetcher.FetchRecord(ctx, entry)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				s.logger.Info("crawl cancelled", "page", s.page)
				return ctxErr
			}
			s.itemFailed(entry, err)
			continue
		}

		s.buffer = append(s.buffer, record)
		s.guard.Add(record.Title)

		if len(s.buffer)%s.opts.BatchSize == 0 {
			if err := s.flush(); err != nil {
				return err
			}
		}
	}

	return nil
}

func (s *Session) itemFailed(entry scraper.ListingEntry, err error) {
	s.summary.ItemsFailed++
	s.logger.Warn("error processing item",
		"page", s.page, "title", entry.Title, "url", entry.URL, "err", err)

	if !s.recorded {
		return
	}
	if recErr := s.opts.Recorder.RecordFailure(s.summary.RunID, s.page, entry.Title, entry.URL, err); recErr != nil {
		s.logger.Error("failed to record item failure", "err", recErr)
	}
}

// flush appends the buffered records to the sink and resets the buffer.
func (s *Session) flush() error {
	if len(s.buffer) == 0 {
		return nil
	}

	n := len(s.buffer)
	if err := s.opts.Sink.Append(s.buffer); err != nil {
		return fmt.Errorf("failed to save %d records: %w", n, err)
	}

	s.summary.ItemsWritten += n
	s.buffer = s.buffer[:0]
	s.logger.Info("saved batch", "count", n, "items_written", s.summary.ItemsWritten)
	return nil
}

// retryable reports whether a listing failure may clear up on another
// attempt. Errors that are not classified fetch errors count as retryable.
func retryable(err error) bool {
	var fetchErr *scraper.FetchError
	if errors.As(err, &fetchErr) {
		return fetchErr.IsRetryable()
	}
	return true
}

// wait pauses for the retry delay, returning early on cancellation.
func (s *Session) wait(ctx context.Context) error {
	delay := s.opts.Policy.RetryDelay
	if delay <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (s *Session) setState(state State) {
	if s.state != state {
		s.logger.Debug("state transition", "from", s.state.String(), "to", state.String())
	}
	s.state = state
}

func (s *Session) finish(runErr error) (*Summary, error) {
	s.summary.FinishedAt = time.Now()

	if s.recorded {
		if err := s.opts.Recorder.FinishRun(&s.summary, runErr); err != nil {
			s.logger.Error("failed to record run", "err", err)
		}
	}

	summary := s.summary
	return &summary, runErr
}
