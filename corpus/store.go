package corpus

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// ErrNoTitleColumn is returned when an existing store has no Title header.
var ErrNoTitleColumn = errors.New("store has no Title column")

// Store is an append-only CSV file of records. New files start with a UTF-8
// byte order mark and a header row so spreadsheet tools detect the encoding
// of Devanagari text.
type Store struct {
	path    string
	columns []string
}

// ListResult is one page of records from the store.
type ListResult struct {
	Records []Record
	Total   int
}

// NewStore creates a store for the given file. The file and its directory
// are created lazily on the first Append.
func NewStore(path string, columns []string) (*Store, error) {
	if path == "" {
		return nil, errors.New("store path is empty")
	}
	if len(columns) == 0 {
		return nil, errors.New("store needs at least one column")
	}

	return &Store{
		path:    path,
		columns: slices.Clone(columns),
	}, nil
}

// Path returns the file backing the store.
func (s *Store) Path() string {
	return s.path
}

// Append writes records to the end of the store. The header row (and byte
// order mark) is written only when the file has no header yet: it does not
// exist, is empty, or holds nothing but blank lines or a byte order mark.
// Such a file is rewritten from the start. Otherwise rows follow the header
// already in the file.
func (s *Store) Append(records []Record) (err error) {
	if len(records) == 0 {
		return nil
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create store directory: %w", err)
		}
	}

	columns := s.columns
	fresh := true
	if info, statErr := os.Stat(s.path); statErr == nil && info.Size() > 0 {
		header, headErr := s.header()
		if headErr != nil {
			return headErr
		}
		if len(header) > 0 {
			fresh = false
			columns = header
		}
	}

	flags := os.O_CREATE | os.O_WRONLY | os.O_APPEND
	if fresh {
		flags = os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	}

	f, err := os.OpenFile(s.path, flags, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close store: %w", closeErr)
		}
	}()

	var out io.Writer = f
	var bom *transform.Writer
	if fresh {
		bom = transform.NewWriter(f, unicode.UTF8BOM.NewEncoder())
		out = bom
	}

	w := csv.NewWriter(out)
	if fresh {
		if err := w.Write(columns); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
	}
	for _, r := range records {
		if err := w.Write(r.Row(columns)); err != nil {
			return fmt.Errorf("failed to write record %q: %w", r.Title, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush records: %w", err)
	}
	if bom != nil {
		if err := bom.Close(); err != nil {
			return fmt.Errorf("failed to flush records: %w", err)
		}
	}

	return f.Sync()
}

// Titles returns the set of titles already in the store. A missing file is
// an empty store.
func (s *Store) Titles() (map[string]struct{}, error) {
	titles := make(map[string]struct{})

	err := s.scan(func(header []string) error {
		if !slices.Contains(header, ColumnTitle) {
			return ErrNoTitleColumn
		}
		return nil
	}, func(r Record) bool {
		titles[r.Title] = struct{}{}
		return true
	})
	if err != nil {
		return nil, err
	}

	return titles, nil
}

// Count returns the number of records in the store.
func (s *Store) Count() (int, error) {
	n := 0
	err := s.scan(nil, func(Record) bool {
		n++
		return true
	})
	return n, err
}

// List returns up to limit records starting at offset, in file order, along
// with the total number of records. A limit <= 0 returns everything after
// offset.
func (s *Store) List(offset, limit int) (*ListResult, error) {
	result := &ListResult{Records: []Record{}}

	err := s.scan(nil, func(r Record) bool {
		idx := result.Total
		result.Total++
		if idx < offset {
			return true
		}
		if limit > 0 && len(result.Records) >= limit {
			return true
		}
		result.Records = append(result.Records, r)
		return true
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// ReadAll returns every record in the store.
func (s *Store) ReadAll() ([]Record, error) {
	result, err := s.List(0, 0)
	if err != nil {
		return nil, err
	}
	return result.Records, nil
}

// header returns the header row of an existing store, or nil for an empty
// file.
func (s *Store) header() ([]string, error) {
	var header []string
	err := s.scan(func(h []string) error {
		header = h
		return nil
	}, func(Record) bool {
		return false
	})
	return header, err
}

// scan streams the store, calling onHeader once and onRecord per row until
// it returns false. A missing file produces no calls and no error.
func (s *Store) scan(onHeader func([]string) error, onRecord func(Record) bool) error {
	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer f.Close()

	// BOMOverride strips the byte order mark written by Append
	decoded := transform.NewReader(f, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
	r := csv.NewReader(decoded)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	header, err := r.Read()
	if err == io.EOF {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read store header: %w", err)
	}

	if onHeader != nil {
		if err := onHeader(header); err != nil {
			return err
		}
	}

	for {
		row, err := r.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read store: %w", err)
		}
		if !onRecord(recordFromRow(header, row)) {
			return nil
		}
	}
}
