package domain

import (
	"fmt"
	"strings"
	"time"
)

// Year is a calendar year. Comparisons against a Window are made on Date(),
// never on the label text.
type Year int

// yearLayouts are the accepted spellings of a year column label.
var yearLayouts = []string{"2006", "2006-01-02", "2006-01", "2006/01/02"}

// ParseYear parses a column label such as "1990" or "1990-01-01".
func ParseYear(label string) (Year, error) {
	label = strings.TrimSpace(label)
	for _, layout := range yearLayouts {
		if t, err := time.Parse(layout, label); err == nil {
			return Year(t.Year()), nil
		}
	}
	return 0, fmt.Errorf("invalid year label %q", label)
}

// Date returns January 1st of the year in UTC.
func (y Year) Date() time.Time {
	return time.Date(int(y), time.January, 1, 0, 0, 0, 0, time.UTC)
}

func (y Year) String() string { return fmt.Sprintf("%04d", int(y)) }

// Window is an inclusive date range used as the temporal filter.
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// DefaultWindow is [1990-01-01, 2018-01-01].
var DefaultWindow = Window{
	Start: time.Date(1990, time.January, 1, 0, 0, 0, 0, time.UTC),
	End:   time.Date(2018, time.January, 1, 0, 0, 0, 0, time.UTC),
}

// Contains reports whether Start <= y.Date() <= End.
func (w Window) Contains(y Year) bool {
	d := y.Date()
	return !d.Before(w.Start) && !d.After(w.End)
}

func (w Window) String() string {
	return fmt.Sprintf("[%s, %s]", w.Start.Format("2006-01-02"), w.End.Format("2006-01-02"))
}
