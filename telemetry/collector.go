package telemetry

import (
	"io"
	"sync"
	"time"

	"github.com/robinvdvleuten/coin/output"
)

// TimingCollector records timers as a tree. Top-level timers started while
// another top-level timer is running are nested under it.
type TimingCollector struct {
	mu      sync.Mutex
	roots   []*span
	current *span
}

type span struct {
	name     string
	start    time.Time
	end      time.Time
	parent   *span
	children []*span
}

func (s *span) duration() time.Duration {
	if s.end.IsZero() {
		return time.Since(s.start)
	}
	return s.end.Sub(s.start)
}

// NewTimingCollector creates an empty collector.
func NewTimingCollector() *TimingCollector {
	return &TimingCollector{}
}

// Start begins a timer under the innermost running top-level timer.
func (c *TimingCollector) Start(name string) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := &span{name: name, start: time.Now(), parent: c.current}
	if c.current == nil {
		c.roots = append(c.roots, s)
	} else {
		c.current.children = append(c.current.children, s)
	}
	c.current = s
	return &spanTimer{collector: c, span: s, tracked: true}
}

// Report writes the timing tree.
func (c *TimingCollector) Report(w io.Writer, styles *output.Styles) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, root := range c.roots {
		writeTree(w, root, styles)
	}
}

type spanTimer struct {
	collector *TimingCollector
	span      *span
	// tracked timers move the collector's cursor
	tracked bool
}

func (t *spanTimer) End() {
	t.collector.mu.Lock()
	defer t.collector.mu.Unlock()

	t.span.end = time.Now()
	if t.tracked && t.collector.current == t.span {
		t.collector.current = t.span.parent
	}
}

func (t *spanTimer) Child(name string) Timer {
	t.collector.mu.Lock()
	defer t.collector.mu.Unlock()

	s := &span{name: name, start: time.Now(), parent: t.span}
	t.span.children = append(t.span.children, s)
	return &spanTimer{collector: t.collector, span: s}
}
