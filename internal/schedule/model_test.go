package schedule

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDayTemplateUnmarshalBreakShapes(t *testing.T) {
	lunch := []Interval{{Start: MustClock("13:00"), End: MustClock("14:00")}}

	tests := []struct {
		name string
		in   string
		want []Interval
	}{
		{
			name: "breaks as object list",
			in:   `{"start_time":"09:00","end_time":"18:00","breaks":[{"start":"13:00","end":"14:00"}],"slot_interval":30,"enabled":true}`,
			want: lunch,
		},
		{
			name: "breaks as string list",
			in:   `{"start_time":"09:00","end_time":"18:00","breaks":["13:00-14:00"],"slot_interval":30,"enabled":true}`,
			want: lunch,
		},
		{
			name: "breaks as bare string",
			in:   `{"start_time":"09:00","end_time":"18:00","breaks":"13:00-14:00","slot_interval":30,"enabled":true}`,
			want: lunch,
		},
		{
			name: "legacy single break key",
			in:   `{"start_time":"09:00","end_time":"18:00","break":"13:00-14:00","slot_interval":30,"enabled":true}`,
			want: lunch,
		},
		{
			name: "legacy break key as object",
			in:   `{"start_time":"09:00","end_time":"18:00","break":{"start":"13:00","end":"14:00"},"slot_interval":30,"enabled":true}`,
			want: lunch,
		},
		{
			name: "breaks list wins over legacy key",
			in:   `{"start_time":"09:00","end_time":"18:00","breaks":["11:00-11:30"],"break":"13:00-14:00","slot_interval":30,"enabled":true}`,
			want: []Interval{{Start: MustClock("11:00"), End: MustClock("11:30")}},
		},
		{
			name: "no breaks",
			in:   `{"start_time":"09:00","end_time":"18:00","slot_interval":30,"enabled":true}`,
			want: nil,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var tmpl DayTemplate
			require.NoError(t, json.Unmarshal([]byte(tc.in), &tmpl))
			assert.Equal(t, MustClock("09:00"), tmpl.Start)
			assert.Equal(t, MustClock("18:00"), tmpl.End)
			assert.Equal(t, 30, tmpl.SlotMinutes)
			assert.True(t, tmpl.Enabled)
			assert.Equal(t, tc.want, tmpl.Breaks)
		})
	}
}

func TestDayTemplateUnmarshalRejectsMalformedBreak(t *testing.T) {
	for _, in := range []string{
		`{"start_time":"09:00","end_time":"18:00","breaks":["13:00"],"slot_interval":30,"enabled":true}`,
		`{"start_time":"09:00","end_time":"18:00","break":"one-two","slot_interval":30,"enabled":true}`,
	} {
		var tmpl DayTemplate
		assert.Error(t, json.Unmarshal([]byte(in), &tmpl), "input %s", in)
	}
}

func TestDayTemplateValidate(t *testing.T) {
	valid := DayTemplate{
		Start:       MustClock("09:00"),
		End:         MustClock("18:00"),
		Breaks:      []Interval{{Start: MustClock("13:00"), End: MustClock("14:00")}},
		SlotMinutes: 30,
		Enabled:     true,
	}
	assert.NoError(t, valid.Validate())

	inverted := valid
	inverted.Start, inverted.End = inverted.End, inverted.Start
	assert.ErrorIs(t, inverted.Validate(), ErrInvalidConfiguration)

	zeroInterval := valid
	zeroInterval.SlotMinutes = 0
	assert.ErrorIs(t, zeroInterval.Validate(), ErrInvalidConfiguration)

	emptyBreak := valid
	emptyBreak.Breaks = []Interval{{Start: MustClock("13:00"), End: MustClock("13:00")}}
	assert.ErrorIs(t, emptyBreak.Validate(), ErrInvalidConfiguration)

	strayBreak := valid
	strayBreak.Breaks = []Interval{{Start: MustClock("08:00"), End: MustClock("08:30")}}
	assert.ErrorIs(t, strayBreak.Validate(), ErrInvalidConfiguration)

	// Overlapping breaks are tolerated.
	overlapping := valid
	overlapping.Breaks = []Interval{
		{Start: MustClock("12:00"), End: MustClock("13:00")},
		{Start: MustClock("12:30"), End: MustClock("13:30")},
	}
	assert.NoError(t, overlapping.Validate())
}

func TestSettingsValidate(t *testing.T) {
	set := DefaultSettings(uuid.New())
	assert.NoError(t, set.Validate())

	set.CustomHolidays = []string{"2026-12-25"}
	assert.NoError(t, set.Validate())

	set.CustomHolidays = []string{"25/12/2026"}
	assert.ErrorIs(t, set.Validate(), ErrInvalidConfiguration)

	set.CustomHolidays = nil
	set.AdvanceNotice = -time.Hour
	assert.ErrorIs(t, set.Validate(), ErrInvalidConfiguration)

	// A disabled template is exempt from validation.
	set.AdvanceNotice = 0
	set.DayTemplates[time.Saturday] = DayTemplate{Enabled: false}
	assert.NoError(t, set.Validate())
}

func TestDefaultSettings(t *testing.T) {
	id := uuid.New()
	set := DefaultSettings(id)

	assert.Equal(t, id, set.ClinicID)
	assert.Equal(t, DefaultAdvanceNotice, set.AdvanceNotice)
	require.Len(t, set.DayTemplates, 7)

	mon := set.DayTemplates[time.Monday]
	assert.True(t, mon.Enabled)
	assert.Equal(t, MustClock("09:00"), mon.Start)
	assert.Equal(t, MustClock("18:00"), mon.End)
	assert.Equal(t, 30, mon.SlotMinutes)
	require.Len(t, mon.Breaks, 1)
	assert.Equal(t, Interval{Start: MustClock("13:00"), End: MustClock("14:00")}, mon.Breaks[0])

	assert.False(t, set.DayTemplates[time.Saturday].Enabled)
	assert.False(t, set.DayTemplates[time.Sunday].Enabled)
}

func TestSettingsHolidayChecks(t *testing.T) {
	set := DefaultSettings(uuid.New())
	set.WeeklyHolidays = []time.Weekday{time.Wednesday}
	set.CustomHolidays = []string{"2026-09-17"}

	assert.True(t, set.IsWeeklyHoliday(time.Wednesday))
	assert.False(t, set.IsWeeklyHoliday(time.Thursday))

	assert.True(t, set.IsCustomHoliday(time.Date(2026, 9, 17, 0, 0, 0, 0, time.Local)))
	assert.False(t, set.IsCustomHoliday(time.Date(2026, 9, 18, 0, 0, 0, 0, time.Local)))
}
