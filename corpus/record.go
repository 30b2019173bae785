package corpus

// Column names as they appear in the store header.
const (
	ColumnTitle       = "Title"
	ColumnAuthorTitle = "Author_Title"
	ColumnDate        = "Date"
	ColumnContent     = "Content"
	ColumnTags        = "Tags"
)

// Record is a single poem or story as written to the store. Title is the
// deduplication key.
type Record struct {
	Title       string `json:"title"`
	AuthorTitle string `json:"author_title,omitempty"`
	Date        string `json:"date"`
	Content     string `json:"content"`
	Tags        string `json:"tags,omitempty"`
}

// Columns returns the header for a store. Tags is only present for
// collections that extract tags.
func Columns(withTags bool) []string {
	cols := []string{ColumnTitle, ColumnAuthorTitle, ColumnDate, ColumnContent}
	if withTags {
		cols = append(cols, ColumnTags)
	}
	return cols
}

// Row lays the record out in the given column order. Unknown columns are
// written as empty cells.
func (r Record) Row(columns []string) []string {
	row := make([]string, len(columns))
	for i, col := range columns {
		row[i] = r.field(col)
	}
	return row
}

func (r Record) field(column string) string {
	switch column {
	case ColumnTitle:
		return r.Title
	case ColumnAuthorTitle:
		return r.AuthorTitle
	case ColumnDate:
		return r.Date
	case ColumnContent:
		return r.Content
	case ColumnTags:
		return r.Tags
	default:
		return ""
	}
}

// recordFromRow is the inverse of Row, driven by the header actually found in
// the file.
func recordFromRow(header, row []string) Record {
	var r Record
	for i, col := range header {
		if i >= len(row) {
			break
		}
		switch col {
		case ColumnTitle:
			r.Title = row[i]
		case ColumnAuthorTitle:
			r.AuthorTitle = row[i]
		case ColumnDate:
			r.Date = row[i]
		case ColumnContent:
			r.Content = row[i]
		case ColumnTags:
			r.Tags = row[i]
		}
	}
	return r
}
