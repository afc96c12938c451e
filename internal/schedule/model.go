package schedule

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DayTemplate is the per-weekday working-hours configuration.
type DayTemplate struct {
	Start       ClockTime  `json:"start_time"`
	End         ClockTime  `json:"end_time"`
	Breaks      []Interval `json:"breaks,omitempty"`
	SlotMinutes int        `json:"slot_interval"`
	Enabled     bool       `json:"enabled"`
}

// UnmarshalJSON normalizes legacy break shapes at the read boundary. Older
// rows stored a single "break" string instead of the "breaks" list, and the
// list itself may hold "13:00-14:00" strings rather than objects. Nothing
// past this point branches on shape.
func (t *DayTemplate) UnmarshalJSON(data []byte) error {
	type alias struct {
		Start       ClockTime  `json:"start_time"`
		End         ClockTime  `json:"end_time"`
		Breaks      breakList  `json:"breaks"`
		LegacyBreak *flexBreak `json:"break"`
		SlotMinutes int        `json:"slot_interval"`
		Enabled     bool       `json:"enabled"`
	}

	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}

	t.Start = a.Start
	t.End = a.End
	t.SlotMinutes = a.SlotMinutes
	t.Enabled = a.Enabled
	t.Breaks = a.Breaks
	if len(t.Breaks) == 0 && a.LegacyBreak != nil {
		t.Breaks = []Interval{Interval(*a.LegacyBreak)}
	}
	return nil
}

// Validate checks the template invariants: working window well-formed, a
// positive interval, and every break inside the working window. Breaks may
// be unsorted and may overlap each other; both are tolerated.
func (t DayTemplate) Validate() error {
	if t.Start >= t.End {
		return fmt.Errorf("%w: start_time must be before end_time", ErrInvalidConfiguration)
	}
	if t.SlotMinutes <= 0 {
		return fmt.Errorf("%w: slot_interval must be positive", ErrInvalidConfiguration)
	}
	for _, br := range t.Breaks {
		if !br.Valid() {
			return fmt.Errorf("%w: break %s-%s is empty", ErrInvalidConfiguration, br.Start, br.End)
		}
		if br.Start < t.Start || br.End > t.End {
			return fmt.Errorf("%w: break %s-%s lies outside working hours", ErrInvalidConfiguration, br.Start, br.End)
		}
	}
	return nil
}

type breakList []Interval

func (b *breakList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*b = nil
		return nil
	}

	if data[0] == '"' {
		var fb flexBreak
		if err := json.Unmarshal(data, &fb); err != nil {
			return err
		}
		*b = []Interval{Interval(fb)}
		return nil
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	out := make([]Interval, 0, len(raw))
	for _, item := range raw {
		var fb flexBreak
		if err := json.Unmarshal(item, &fb); err != nil {
			return err
		}
		out = append(out, Interval(fb))
	}
	*b = out
	return nil
}

// flexBreak accepts either {"start":"13:00","end":"14:00"} or "13:00-14:00".
type flexBreak Interval

func (f *flexBreak) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		iv, err := parseBreakString(s)
		if err != nil {
			return err
		}
		*f = flexBreak(iv)
		return nil
	}

	var iv Interval
	if err := json.Unmarshal(data, &iv); err != nil {
		return err
	}
	*f = flexBreak(iv)
	return nil
}

func parseBreakString(s string) (Interval, error) {
	parts := strings.SplitN(s, "-", 2)
	if len(parts) != 2 {
		return Interval{}, fmt.Errorf("malformed break %q", s)
	}
	start, err := ParseClock(parts[0])
	if err != nil {
		return Interval{}, err
	}
	end, err := ParseClock(parts[1])
	if err != nil {
		return Interval{}, err
	}
	return Interval{Start: start, End: end}, nil
}

// Settings is the per-clinic scheduling configuration. Rows are created
// lazily from DefaultSettings and only ever overwritten, never deleted.
type Settings struct {
	ClinicID             uuid.UUID                    `json:"clinic_id"`
	DayTemplates         map[time.Weekday]DayTemplate `json:"day_templates"`
	WeeklyHolidays       []time.Weekday               `json:"weekly_holidays,omitempty"`
	CustomHolidays       []string                     `json:"custom_holidays,omitempty"`
	AppointmentsDisabled bool                         `json:"appointments_disabled"`
	// DisabledUntil is stored and surfaced to admins but never evaluated by
	// the engine; the kill switch stays on until an admin clears it.
	DisabledUntil *time.Time    `json:"disabled_until,omitempty"`
	AdvanceNotice time.Duration `json:"advance_notice"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

func (s Settings) IsWeeklyHoliday(d time.Weekday) bool {
	for _, h := range s.WeeklyHolidays {
		if h == d {
			return true
		}
	}
	return false
}

func (s Settings) IsCustomHoliday(date time.Time) bool {
	key := DateKey(date)
	for _, h := range s.CustomHolidays {
		if h == key {
			return true
		}
	}
	return false
}

// Validate checks every enabled template and the holiday date format.
func (s Settings) Validate() error {
	for wd, tmpl := range s.DayTemplates {
		if !tmpl.Enabled {
			continue
		}
		if err := tmpl.Validate(); err != nil {
			return fmt.Errorf("%s: %w", wd, err)
		}
	}
	for _, h := range s.CustomHolidays {
		if _, err := ParseDate(h); err != nil {
			return fmt.Errorf("%w: custom holiday %q", ErrInvalidConfiguration, h)
		}
	}
	if s.AdvanceNotice < 0 {
		return fmt.Errorf("%w: advance notice must not be negative", ErrInvalidConfiguration)
	}
	return nil
}

// DefaultAdvanceNotice applies when a clinic has no settings row.
const DefaultAdvanceNotice = 24 * time.Hour

// DefaultSettings is substituted when a clinic has no settings row yet:
// 09:00-18:00 with a 13:00-14:00 break and 30-minute slots on weekdays,
// weekends closed.
func DefaultSettings(clinicID uuid.UUID) *Settings {
	templates := make(map[time.Weekday]DayTemplate, 7)
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		templates[wd] = DayTemplate{
			Start:       MustClock("09:00"),
			End:         MustClock("18:00"),
			Breaks:      []Interval{{Start: MustClock("13:00"), End: MustClock("14:00")}},
			SlotMinutes: 30,
			Enabled:     wd != time.Saturday && wd != time.Sunday,
		}
	}
	return &Settings{
		ClinicID:      clinicID,
		DayTemplates:  templates,
		AdvanceNotice: DefaultAdvanceNotice,
	}
}

// DisabledSlot is an ad hoc, date-scoped block independent of the weekly
// template. Overlapping rows are tolerated, just redundant.
type DisabledSlot struct {
	ID        uuid.UUID `json:"id"`
	ClinicID  uuid.UUID `json:"clinic_id"`
	Date      time.Time `json:"date"`
	Start     ClockTime `json:"start_time"`
	End       ClockTime `json:"end_time"`
	CreatedAt time.Time `json:"created_at"`
}

func (d DisabledSlot) Window() Interval {
	return Interval{Start: d.Start, End: d.End}
}

type SlotReason string

const (
	ReasonAvailable SlotReason = "available"
	ReasonBooked    SlotReason = "booked"
	ReasonBlocked   SlotReason = "blocked"
	ReasonPast      SlotReason = "past"
)

// Slot is one offered interval of a clinic's day. Unbookable slots are still
// returned so callers can render them disabled-but-visible.
type Slot struct {
	Label    string     `json:"label"`
	Start    time.Time  `json:"start"`
	End      time.Time  `json:"end"`
	Bookable bool       `json:"bookable"`
	Reason   SlotReason `json:"reason"`
}

// DaySchedule is a computed slot list stamped with the date it was computed
// for. Callers that fire overlapping requests compare Date against their
// current selection and drop stale responses.
type DaySchedule struct {
	ClinicID uuid.UUID `json:"clinic_id"`
	Date     string    `json:"date"`
	Slots    []Slot    `json:"slots"`
}
