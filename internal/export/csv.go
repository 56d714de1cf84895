package export

import (
	"encoding/csv"
	"io"

	"github.com/samvad-hq/samvad-news-search/internal/domain"
)

// utf8BOM lets spreadsheet applications detect UTF-8 Hangul text.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSV writes RFC 4180 CSV prefixed with a UTF-8 byte order mark.
type CSV struct{}

func (CSV) Format() string    { return "csv" }
func (CSV) Extension() string { return ".csv" }

func (CSV) Export(w io.Writer, records []domain.Record) error {
	if _, err := w.Write(utf8BOM); err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return err
	}
	for _, rec := range records {
		if err := cw.Write(row(rec)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
