package corpus

import (
	"bufio"
	"io"
	"os"
	"strings"
	"unicode"

	"librarian/internal/domain"
)

// TitleMarker starts a new record; the rest of the line is the exact title.
const TitleMarker = "## Title:"

// LoadRecords parses the corpus file at path into records in source order.
func LoadRecords(path string) ([]domain.BookRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, domain.NewError(domain.KindLoad, "corpus.LoadRecords", err)
	}
	defer f.Close()

	records, err := Parse(f)
	if err != nil {
		return nil, domain.NewError(domain.KindLoad, "corpus.LoadRecords", err)
	}
	return records, nil
}

// Parse reads marker-delimited records from r. Text before the first marker is ignored,
// as are markers with an empty title.
func Parse(r io.Reader) ([]domain.BookRecord, error) {
	var (
		records []domain.BookRecord
		title   string
		lines   []string
	)
	flush := func() {
		if title == "" {
			return
		}
		records = append(records, domain.BookRecord{
			Title:   title,
			Summary: strings.TrimSpace(strings.Join(lines, "\n")),
		})
	}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for sc.Scan() {
		line := strings.TrimRightFunc(sc.Text(), unicode.IsSpace)
		if strings.HasPrefix(line, TitleMarker) {
			flush()
			title = strings.TrimSpace(strings.TrimPrefix(line, TitleMarker))
			lines = nil
			continue
		}
		if line != "" {
			lines = append(lines, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	flush()
	return records, nil
}

