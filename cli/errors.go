package cli

import (
	"errors"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/robinvdvleuten/coin/ledger"
)

var (
	errCaretStyle   = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#FF5F87", Dark: "#FF5F87"})
	errContextStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#808080", Dark: "#808080"})
)

// ErrorRenderer renders errors with terminal styling and, for errors tied to
// a posting, the surrounding transaction.
type ErrorRenderer struct{}

// NewErrorRenderer creates a renderer.
func NewErrorRenderer() *ErrorRenderer {
	return &ErrorRenderer{}
}

// Render formats a single error with styling and context.
func (r *ErrorRenderer) Render(err error) string {
	var (
		mismatch       *ledger.BalanceMismatchError
		order          *ledger.PostingOrderError
		noCounterparty *ledger.NoCounterpartyPostingError
	)
	switch {
	case errors.As(err, &mismatch) && mismatch.Posting != nil:
		return r.renderWithPosting(err.Error(), mismatch.Posting)
	case errors.As(err, &order) && order.Posting != nil:
		return r.renderWithPosting(err.Error(), order.Posting)
	case errors.As(err, &noCounterparty) && noCounterparty.Posting != nil:
		return r.renderWithPosting(err.Error(), noCounterparty.Posting)
	}
	return errorStyle.Render(err.Error())
}

// RenderAll formats multiple errors, separating them with blank lines.
func (r *ErrorRenderer) RenderAll(errs []error) string {
	if len(errs) == 0 {
		return ""
	}

	var buf strings.Builder
	for i, err := range errs {
		buf.WriteString(r.Render(err))

		if i < len(errs)-1 {
			buf.WriteString("\n\n")
		}
	}

	return buf.String()
}

// renderWithPosting prints the transaction of p with a caret under p's line.
func (r *ErrorRenderer) renderWithPosting(message string, p *ledger.Posting) string {
	var buf strings.Builder

	buf.WriteString(errorStyle.Render(message))
	buf.WriteString("\n\n")

	t := p.Transaction()
	if t.Location != "" {
		buf.WriteString("   ")
		buf.WriteString(pathStyle.Render(t.Location))
		buf.WriteByte('\n')
	}
	buf.WriteString("   ")
	buf.WriteString(errContextStyle.Render(t.String()))
	buf.WriteByte('\n')

	for _, other := range t.Postings() {
		line := other.String()
		buf.WriteString("     ")
		buf.WriteString(errContextStyle.Render(line))
		buf.WriteByte('\n')

		if other == p {
			buf.WriteString("     ")
			buf.WriteString(errCaretStyle.Render(strings.Repeat("^", runewidth.StringWidth(line))))
			buf.WriteByte('\n')
		}
	}

	return strings.TrimSuffix(buf.String(), "\n")
}
