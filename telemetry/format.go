package telemetry

import (
	"fmt"
	"io"
	"time"

	"github.com/robinvdvleuten/coin/output"
)

// slowThreshold marks operations highlighted in reports.
const slowThreshold = 100 * time.Millisecond

// writeTree renders a root span and its descendants:
//
//	loader.load ledger.json: 85ms
//	├─ loader.prices: 40ms
//	└─ loader.transactions: 45ms
func writeTree(w io.Writer, root *span, styles *output.Styles) {
	name := root.name
	if styles != nil {
		name = styles.Keyword(name)
	}
	_, _ = fmt.Fprintf(w, "%s: %s\n", name, formatDuration(root.duration()))
	writeChildren(w, root.children, "", styles)
}

func writeChildren(w io.Writer, children []*span, prefix string, styles *output.Styles) {
	for i, child := range children {
		branch, extension := "├─ ", "│  "
		if i == len(children)-1 {
			branch, extension = "└─ ", "   "
		}

		d := child.duration()
		timing := formatDuration(d)
		lead := prefix + branch
		if styles != nil {
			lead = styles.Dim(lead)
			timing = styles.Timing(timing, d >= slowThreshold)
		}
		_, _ = fmt.Fprintf(w, "%s%s: %s\n", lead, child.name, timing)
		writeChildren(w, child.children, prefix+extension, styles)
	}
}

// formatDuration shows milliseconds below one second, seconds above.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return fmt.Sprintf("%.2fs", d.Seconds())
}
