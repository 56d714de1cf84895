package export

import (
	"io"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/samvad-hq/samvad-news-search/internal/domain"
)

// Markdown writes a pipe table padded by display width, so Hangul titles
// line up in a terminal.
type Markdown struct{}

func (Markdown) Format() string    { return "markdown" }
func (Markdown) Extension() string { return ".md" }

func (Markdown) Export(w io.Writer, records []domain.Record) error {
	table := make([][]string, 0, len(records)+1)
	table = append(table, Columns)
	for _, rec := range records {
		cells := row(rec)
		for i := range cells {
			cells[i] = escapeCell(cells[i])
		}
		table = append(table, cells)
	}

	widths := make([]int, len(Columns))
	for _, cells := range table {
		for i, c := range cells {
			if n := runewidth.StringWidth(c); n > widths[i] {
				widths[i] = n
			}
		}
	}
	// Separator rows need at least three dashes.
	for i := range widths {
		if widths[i] < 3 {
			widths[i] = 3
		}
	}

	var sb strings.Builder
	writeLine := func(cells []string) {
		sb.WriteString("|")
		for i, c := range cells {
			sb.WriteString(" ")
			sb.WriteString(c)
			if pad := widths[i] - runewidth.StringWidth(c); pad > 0 {
				sb.WriteString(strings.Repeat(" ", pad))
			}
			sb.WriteString(" |")
		}
		sb.WriteString("\n")
	}

	writeLine(table[0])
	sep := make([]string, len(widths))
	for i, n := range widths {
		sep[i] = strings.Repeat("-", n)
	}
	writeLine(sep)
	for _, cells := range table[1:] {
		writeLine(cells)
	}

	_, err := io.WriteString(w, sb.String())
	return err
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.Join(strings.Fields(s), " ")
}
