package ledger

import (
	"fmt"
	"strings"
	"time"
)

// Interval is a calendar bucketing rule used to aggregate postings.
type Interval int

const (
	Weekly Interval = iota + 1
	Monthly
	Quarterly
	Yearly
)

// String returns the name of the interval.
func (i Interval) String() string {
	switch i {
	case Weekly:
		return "Weekly"
	case Monthly:
		return "Monthly"
	case Quarterly:
		return "Quarterly"
	case Yearly:
		return "Yearly"
	default:
		return "Unknown"
	}
}

// ParseInterval parses an interval name, case-insensitively.
func ParseInterval(s string) (Interval, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "weekly", "week":
		return Weekly, nil
	case "monthly", "month":
		return Monthly, nil
	case "quarterly", "quarter":
		return Quarterly, nil
	case "yearly", "year":
		return Yearly, nil
	}
	return 0, fmt.Errorf("invalid interval %q, expected weekly, monthly, quarterly or yearly", s)
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (i *Interval) UnmarshalText(text []byte) error {
	v, err := ParseInterval(string(text))
	if err != nil {
		return err
	}
	*i = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (i Interval) MarshalText() ([]byte, error) {
	return []byte(strings.ToLower(i.String())), nil
}

// Floor returns the start of the bucket containing t. Weeks start on Sunday,
// quarters in January, April, July and October.
func (i Interval) Floor(t time.Time) time.Time {
	y, m, d := t.Date()
	loc := t.Location()
	switch i {
	case Weekly:
		return time.Date(y, m, d-int(t.Weekday()), 0, 0, 0, 0, loc)
	case Monthly:
		return time.Date(y, m, 1, 0, 0, 0, 0, loc)
	case Quarterly:
		return time.Date(y, m-(m-1)%3, 1, 0, 0, 0, 0, loc)
	case Yearly:
		return time.Date(y, time.January, 1, 0, 0, 0, 0, loc)
	}
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// Ceil returns the first bucket start on or after t.
func (i Interval) Ceil(t time.Time) time.Time {
	f := i.Floor(t)
	if f.Equal(t) {
		return f
	}
	return i.Next(f)
}

// Next returns the bucket start following the bucket starting at t.
func (i Interval) Next(t time.Time) time.Time {
	switch i {
	case Weekly:
		return t.AddDate(0, 0, 7)
	case Monthly:
		return t.AddDate(0, 1, 0)
	case Quarterly:
		return t.AddDate(0, 3, 0)
	case Yearly:
		return t.AddDate(1, 0, 0)
	}
	return t.AddDate(0, 0, 1)
}

// Range returns the starts of all buckets overlapping [start, end]: the first
// is Floor(start), the last is the bucket containing end.
func (i Interval) Range(start, end time.Time) []time.Time {
	var dates []time.Time
	for d := i.Floor(start); !d.After(end); d = i.Next(d) {
		dates = append(dates, d)
	}
	return dates
}

// points returns the bucket starts s with start <= s < end.
func (i Interval) points(start, end time.Time) []time.Time {
	var dates []time.Time
	for d := i.Ceil(start); d.Before(end); d = i.Next(d) {
		dates = append(dates, d)
	}
	return dates
}
