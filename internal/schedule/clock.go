package schedule

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// ClockTime is a wall-clock time of day in minutes since midnight. All
// schedule configuration is local wall clock; no timezone reconciliation.
type ClockTime int

// ParseClock parses "09:00" style 24-hour times.
func ParseClock(s string) (ClockTime, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("parse clock time %q: %w", s, err)
	}
	return ClockTime(t.Hour()*60 + t.Minute()), nil
}

// MustClock is for defaults and tests.
func MustClock(s string) ClockTime {
	c, err := ParseClock(s)
	if err != nil {
		panic(err)
	}
	return c
}

func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}

// Twelve renders the 12-hour form used in slot labels, e.g. "09:00 AM".
func (c ClockTime) Twelve() string {
	return time.Date(0, 1, 1, int(c)/60, int(c)%60, 0, 0, time.UTC).Format("03:04 PM")
}

// At anchors the clock time on a calendar day.
func (c ClockTime) At(day time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), int(c)/60, int(c)%60, 0, 0, day.Location())
}

func (c ClockTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

func (c *ClockTime) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	v, err := ParseClock(s)
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// Interval is a half-open [Start, End) window within a day.
type Interval struct {
	Start ClockTime `json:"start"`
	End   ClockTime `json:"end"`
}

func (iv Interval) Valid() bool {
	return iv.Start < iv.End
}

// Overlaps uses strict half-open overlap: touching edges do not overlap.
func (iv Interval) Overlaps(other Interval) bool {
	return iv.Start < other.End && iv.End > other.Start
}

// SlotLabel renders the label string that identifies a slot in the
// appointment ledger, e.g. "09:00 AM - 09:30 AM". The label, not a
// timestamp, is the unit of booking uniqueness.
func SlotLabel(iv Interval) string {
	return iv.Start.Twelve() + " - " + iv.End.Twelve()
}

// ParseSlotLabel recovers the interval from a slot label.
func ParseSlotLabel(label string) (Interval, error) {
	parts := strings.Split(label, " - ")
	if len(parts) != 2 {
		return Interval{}, fmt.Errorf("malformed slot label %q", label)
	}

	var iv Interval
	for i, part := range parts {
		t, err := time.Parse("03:04 PM", strings.TrimSpace(part))
		if err != nil {
			return Interval{}, fmt.Errorf("malformed slot label %q: %w", label, err)
		}
		c := ClockTime(t.Hour()*60 + t.Minute())
		if i == 0 {
			iv.Start = c
		} else {
			iv.End = c
		}
	}

	if !iv.Valid() {
		return Interval{}, fmt.Errorf("malformed slot label %q: start is not before end", label)
	}
	return iv, nil
}

// DateKey is the canonical "2006-01-02" form used for custom holidays,
// cache keys, and date stamps on computed schedules.
func DateKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// ParseDate parses a DateKey into a local-midnight time.
func ParseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02", s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return t, nil
}
