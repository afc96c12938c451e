package api

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/clinicdesk/appointment-booking/internal/booking"
	"github.com/clinicdesk/appointment-booking/internal/schedule"
)

type BookAppointmentRequest struct {
	Date  string `json:"date"` // 2006-01-02
	Time  string `json:"time"` // slot label, e.g. "09:00 AM - 09:30 AM"
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email,omitempty"`
}

type RescheduleAppointmentRequest struct {
	Date string `json:"date"` // 2006-01-02
	Time string `json:"time"` // slot label for the new slot
}

type AppointmentResponse struct {
	ID        uuid.UUID  `json:"id"`
	ClinicID  uuid.UUID  `json:"clinic_id"`
	PatientID *uuid.UUID `json:"patient_id,omitempty"`
	Name      string     `json:"name"`
	Phone     string     `json:"phone"`
	Email     *string    `json:"email,omitempty"`
	Date      string     `json:"date"`
	Time      string     `json:"time"`
	Status    string     `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
}

func toAppointmentResponse(a *booking.Appointment) AppointmentResponse {
	return AppointmentResponse{
		ID:        a.ID,
		ClinicID:  a.ClinicID,
		PatientID: a.PatientID,
		Name:      a.Name,
		Phone:     a.Phone,
		Email:     a.Email,
		Date:      schedule.DateKey(a.Date),
		Time:      a.TimeLabel,
		Status:    string(a.Status),
		CreatedAt: a.CreatedAt,
	}
}

type BookingResponse struct {
	Appointment  AppointmentResponse `json:"appointment"`
	IsNewPatient bool                `json:"is_new_patient"`
}

// SettingsPayload is the admin-facing settings shape, keyed by weekday name
// instead of the numeric weekday used in storage.
type SettingsPayload struct {
	DayTemplates         map[string]schedule.DayTemplate `json:"day_templates"`
	WeeklyHolidays       []string                        `json:"weekly_holidays,omitempty"`
	CustomHolidays       []string                        `json:"custom_holidays,omitempty"`
	AppointmentsDisabled bool                            `json:"appointments_disabled"`
	DisabledUntil        *time.Time                      `json:"disabled_until,omitempty"`
	AdvanceNoticeHours   int                             `json:"advance_notice_hours"`
	UpdatedAt            *time.Time                      `json:"updated_at,omitempty"`
}

var weekdayNames = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

func parseWeekday(name string) (time.Weekday, error) {
	if wd, ok := weekdayNames[strings.ToLower(strings.TrimSpace(name))]; ok {
		return wd, nil
	}
	return 0, fmt.Errorf("unknown weekday %q", name)
}

func toSettingsPayload(set *schedule.Settings) SettingsPayload {
	p := SettingsPayload{
		DayTemplates:         make(map[string]schedule.DayTemplate, len(set.DayTemplates)),
		CustomHolidays:       set.CustomHolidays,
		AppointmentsDisabled: set.AppointmentsDisabled,
		DisabledUntil:        set.DisabledUntil,
		AdvanceNoticeHours:   int(set.AdvanceNotice / time.Hour),
	}
	for wd, tmpl := range set.DayTemplates {
		p.DayTemplates[strings.ToLower(wd.String())] = tmpl
	}
	for _, wd := range set.WeeklyHolidays {
		p.WeeklyHolidays = append(p.WeeklyHolidays, strings.ToLower(wd.String()))
	}
	if !set.UpdatedAt.IsZero() {
		t := set.UpdatedAt
		p.UpdatedAt = &t
	}
	return p
}

func fromSettingsPayload(clinicID uuid.UUID, p SettingsPayload) (*schedule.Settings, error) {
	set := &schedule.Settings{
		ClinicID:             clinicID,
		DayTemplates:         make(map[time.Weekday]schedule.DayTemplate, len(p.DayTemplates)),
		CustomHolidays:       p.CustomHolidays,
		AppointmentsDisabled: p.AppointmentsDisabled,
		DisabledUntil:        p.DisabledUntil,
		AdvanceNotice:        time.Duration(p.AdvanceNoticeHours) * time.Hour,
	}
	for name, tmpl := range p.DayTemplates {
		wd, err := parseWeekday(name)
		if err != nil {
			return nil, err
		}
		set.DayTemplates[wd] = tmpl
	}
	for _, name := range p.WeeklyHolidays {
		wd, err := parseWeekday(name)
		if err != nil {
			return nil, err
		}
		set.WeeklyHolidays = append(set.WeeklyHolidays, wd)
	}
	return set, nil
}

type DisabledSlotRequest struct {
	Date  string `json:"date"`
	Start string `json:"start_time"` // "15:00"
	End   string `json:"end_time"`   // "15:30"
}

type DisabledSlotResponse struct {
	ID        uuid.UUID `json:"id"`
	ClinicID  uuid.UUID `json:"clinic_id"`
	Date      string    `json:"date"`
	Start     string    `json:"start_time"`
	End       string    `json:"end_time"`
	CreatedAt time.Time `json:"created_at"`
}

func toDisabledSlotResponse(d schedule.DisabledSlot) DisabledSlotResponse {
	return DisabledSlotResponse{
		ID:        d.ID,
		ClinicID:  d.ClinicID,
		Date:      schedule.DateKey(d.Date),
		Start:     d.Start.String(),
		End:       d.End.String(),
		CreatedAt: d.CreatedAt,
	}
}
