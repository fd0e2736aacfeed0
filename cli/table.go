package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/robinvdvleuten/coin/output"
)

// ShortenAccountName shrinks the colon-separated segments of name from the
// left, keeping at least one character of each, until it fits width display
// columns. Names that cannot shrink further are returned as short as they get.
func ShortenAccountName(name string, width int) string {
	over := runewidth.StringWidth(name) - width
	if over <= 0 {
		return name
	}
	parts := strings.Split(name, ":")
	for i := 0; over > 0 && i < len(parts); i++ {
		w := runewidth.StringWidth(parts[i])
		if w == 0 {
			continue
		}
		shortened := runewidth.Truncate(parts[i], w-min(over, w-1), "")
		if shortened == "" {
			// a wide first rune cannot be cut in half
			shortened = string([]rune(parts[i])[:1])
		}
		over -= w - runewidth.StringWidth(shortened)
		parts[i] = shortened
	}
	return strings.Join(parts, ":")
}

// align controls how a table column is padded.
type align int

const (
	alignLeft align = iota
	alignRight
)

// table collects rows of cells and prints them with aligned columns
// separated by " | ". Widths are display widths, so wide runes line up.
type table struct {
	aligns []align
	header []string
	rows   [][]string
	styles map[int]func(string) string
}

func newTable(aligns ...align) *table {
	return &table{aligns: aligns}
}

func (t *table) setHeader(cells ...string) {
	t.header = cells
}

func (t *table) addRow(cells ...string) {
	t.rows = append(t.rows, cells)
}

// styleColumn colors the cells of a column after padding, so escape codes
// do not count towards the column width.
func (t *table) styleColumn(column int, style func(string) string) {
	if t.styles == nil {
		t.styles = make(map[int]func(string) string)
	}
	t.styles[column] = style
}

func (t *table) widths() []int {
	widths := make([]int, len(t.aligns))
	for _, row := range append([][]string{t.header}, t.rows...) {
		for i, cell := range row {
			if i < len(widths) {
				widths[i] = max(widths[i], runewidth.StringWidth(cell))
			}
		}
	}
	return widths
}

func (t *table) render(w io.Writer) {
	widths := t.widths()
	if t.header != nil {
		_, _ = fmt.Fprintln(w, headerStyle.Render(t.line(t.header, widths, nil)))
	}
	for _, row := range t.rows {
		_, _ = fmt.Fprintln(w, t.line(row, widths, t.styles))
	}
}

func (t *table) line(row []string, widths []int, styles map[int]func(string) string) string {
	cells := make([]string, len(row))
	for i, cell := range row {
		if i >= len(widths) {
			cells[i] = cell
			continue
		}
		if t.aligns[i] == alignRight {
			cells[i] = runewidth.FillLeft(cell, widths[i])
		} else if i == len(row)-1 {
			cells[i] = cell
		} else {
			cells[i] = runewidth.FillRight(cell, widths[i])
		}
		if style, ok := styles[i]; ok {
			cells[i] = style(cells[i])
		}
	}
	return strings.Join(cells, " | ")
}

// amountStyle colors negative amounts in a padded amount column.
func amountStyle(styles *output.Styles) func(string) string {
	return func(cell string) string {
		if strings.HasPrefix(strings.TrimSpace(cell), "-") {
			return styles.Amount(cell, -1)
		}
		return styles.Amount(cell, 1)
	}
}
