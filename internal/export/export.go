// Package export writes collected records as a spreadsheet, CSV or a
// markdown table. Every format uses the columns Title, Date, Source, Link.
package export

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/samvad-hq/samvad-news-search/internal/domain"
)

// Columns is the header row shared by all formats.
var Columns = []string{"Title", "Date", "Source", "Link"}

// Exporter serializes records to w.
type Exporter interface {
	Format() string
	Extension() string
	Export(w io.Writer, records []domain.Record) error
}

// ErrUnknownFormat is returned by ForFormat for unsupported names.
var ErrUnknownFormat = errors.New("unknown export format")

// ForFormat returns the exporter registered under name.
func ForFormat(name string) (Exporter, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "xlsx", "excel":
		return XLSX{}, nil
	case "csv":
		return CSV{}, nil
	case "md", "markdown":
		return Markdown{}, nil
	default:
		return nil, fmt.Errorf("%w %q (expected xlsx, csv or markdown)", ErrUnknownFormat, name)
	}
}

// WriteFile exports records to path, creating parent directories.
func WriteFile(path string, exp Exporter, records []domain.Record) (err error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			err = errors.Join(err, fmt.Errorf("close output file: %w", cerr))
		}
	}()

	if err := exp.Export(f, records); err != nil {
		return fmt.Errorf("export %s: %w", exp.Format(), err)
	}
	return nil
}

// DefaultFileName names an export after the keyword and the start year,
// e.g. naver_news_search_results_여의시스템_2024.xlsx.
func DefaultFileName(keyword string, start time.Time, exp Exporter) string {
	kw := strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			return r
		case unicode.IsSpace(r), r == '-', r == '_':
			return '_'
		default:
			return -1
		}
	}, keyword)
	if kw == "" {
		kw = "query"
	}
	return fmt.Sprintf("naver_news_search_results_%s_%d%s", kw, start.Year(), exp.Extension())
}

func row(r domain.Record) []string {
	return []string{r.Title, r.Date, r.Source, r.Link}
}
