package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/clinicdesk/appointment-booking/internal/booking"
	"github.com/clinicdesk/appointment-booking/internal/schedule"
)

// ScheduleService is the availability/configuration surface handlers need.
type ScheduleService interface {
	DaySlots(ctx context.Context, clinicID uuid.UUID, date time.Time) (*schedule.DaySchedule, error)
	Settings(ctx context.Context, clinicID uuid.UUID) (*schedule.Settings, error)
	SaveSettings(ctx context.Context, set *schedule.Settings) error
	DisabledSlots(ctx context.Context, clinicID uuid.UUID, date time.Time) ([]schedule.DisabledSlot, error)
	AddDisabledSlot(ctx context.Context, slot *schedule.DisabledSlot) error
	RemoveDisabledSlot(ctx context.Context, clinicID, id uuid.UUID, date time.Time) error
}

// BookingService is the ledger surface handlers need.
type BookingService interface {
	Book(ctx context.Context, req booking.BookingRequest) (*booking.BookingResult, error)
	AppointmentsForDate(ctx context.Context, clinicID uuid.UUID, date time.Time) ([]booking.Appointment, error)
	Cancel(ctx context.Context, id uuid.UUID) (*booking.Appointment, error)
	Complete(ctx context.Context, id uuid.UUID) (*booking.Appointment, error)
	Reschedule(ctx context.Context, id uuid.UUID, date time.Time, timeLabel string) (*booking.Appointment, error)
}

func pathClinicID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "clinicID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_clinic_id", "clinicID must be a valid UUID")
		return uuid.Nil, false
	}
	return id, true
}

func queryDate(w http.ResponseWriter, r *http.Request) (time.Time, bool) {
	raw := r.URL.Query().Get("date")
	if raw == "" {
		writeError(w, http.StatusBadRequest, "missing_date", "date query parameter is required")
		return time.Time{}, false
	}
	date, err := schedule.ParseDate(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD")
		return time.Time{}, false
	}
	return date, true
}

func listSlotsHandler(svc ScheduleService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clinicID, ok := pathClinicID(w, r)
		if !ok {
			return
		}
		date, ok := queryDate(w, r)
		if !ok {
			return
		}

		day, err := svc.DaySlots(r.Context(), clinicID, date)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		writeJSON(w, http.StatusOK, day)
	}
}

func bookAppointmentHandler(svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clinicID, ok := pathClinicID(w, r)
		if !ok {
			return
		}

		var req BookAppointmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		date, err := schedule.ParseDate(req.Date)
		if err != nil {
			writeFieldError(w, http.StatusBadRequest, "validation_error", "date", "must be YYYY-MM-DD")
			return
		}

		result, err := svc.Book(r.Context(), booking.BookingRequest{
			ClinicID:  clinicID,
			Date:      date,
			TimeLabel: req.Time,
			Name:      req.Name,
			Phone:     req.Phone,
			Email:     req.Email,
		})
		if err != nil {
			handleBookingError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, BookingResponse{
			Appointment:  toAppointmentResponse(result.Appointment),
			IsNewPatient: result.IsNewPatient,
		})
	}
}

func listAppointmentsHandler(svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clinicID, ok := pathClinicID(w, r)
		if !ok {
			return
		}
		date, ok := queryDate(w, r)
		if !ok {
			return
		}

		appts, err := svc.AppointmentsForDate(r.Context(), clinicID, date)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		out := make([]AppointmentResponse, 0, len(appts))
		for i := range appts {
			out = append(out, toAppointmentResponse(&appts[i]))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func transitionAppointmentHandler(do func(context.Context, uuid.UUID) (*booking.Appointment, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a valid UUID")
			return
		}

		appt, err := do(r.Context(), id)
		if err != nil {
			handleBookingError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

func rescheduleAppointmentHandler(svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a valid UUID")
			return
		}

		var req RescheduleAppointmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		date, err := schedule.ParseDate(req.Date)
		if err != nil {
			writeFieldError(w, http.StatusBadRequest, "validation_error", "date", "must be YYYY-MM-DD")
			return
		}

		appt, err := svc.Reschedule(r.Context(), id, date, req.Time)
		if err != nil {
			handleBookingError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

func getSettingsHandler(svc ScheduleService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clinicID, ok := pathClinicID(w, r)
		if !ok {
			return
		}

		set, err := svc.Settings(r.Context(), clinicID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		writeJSON(w, http.StatusOK, toSettingsPayload(set))
	}
}

func putSettingsHandler(svc ScheduleService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clinicID, ok := pathClinicID(w, r)
		if !ok {
			return
		}

		var payload SettingsPayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		set, err := fromSettingsPayload(clinicID, payload)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_settings", err.Error())
			return
		}

		if err := svc.SaveSettings(r.Context(), set); err != nil {
			handleScheduleError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toSettingsPayload(set))
	}
}

func listDisabledSlotsHandler(svc ScheduleService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clinicID, ok := pathClinicID(w, r)
		if !ok {
			return
		}
		date, ok := queryDate(w, r)
		if !ok {
			return
		}

		slots, err := svc.DisabledSlots(r.Context(), clinicID, date)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		out := make([]DisabledSlotResponse, 0, len(slots))
		for _, d := range slots {
			out = append(out, toDisabledSlotResponse(d))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func addDisabledSlotHandler(svc ScheduleService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clinicID, ok := pathClinicID(w, r)
		if !ok {
			return
		}

		var req DisabledSlotRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		date, err := schedule.ParseDate(req.Date)
		if err != nil {
			writeFieldError(w, http.StatusBadRequest, "validation_error", "date", "must be YYYY-MM-DD")
			return
		}
		start, err := schedule.ParseClock(req.Start)
		if err != nil {
			writeFieldError(w, http.StatusBadRequest, "validation_error", "start_time", "must be HH:MM")
			return
		}
		end, err := schedule.ParseClock(req.End)
		if err != nil {
			writeFieldError(w, http.StatusBadRequest, "validation_error", "end_time", "must be HH:MM")
			return
		}

		slot := &schedule.DisabledSlot{
			ClinicID: clinicID,
			Date:     date,
			Start:    start,
			End:      end,
		}
		if err := svc.AddDisabledSlot(r.Context(), slot); err != nil {
			handleScheduleError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toDisabledSlotResponse(*slot))
	}
}

func removeDisabledSlotHandler(svc ScheduleService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clinicID, ok := pathClinicID(w, r)
		if !ok {
			return
		}
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_slot_id", "id must be a valid UUID")
			return
		}
		date, ok := queryDate(w, r)
		if !ok {
			return
		}

		if err := svc.RemoveDisabledSlot(r.Context(), clinicID, id, date); err != nil {
			handleScheduleError(w, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func handleBookingError(w http.ResponseWriter, err error) {
	var vErr *booking.ValidationError
	var cErr *booking.ConflictError

	switch {
	case errors.As(err, &vErr):
		writeFieldError(w, http.StatusBadRequest, "validation_error", vErr.Field, vErr.Message)
	case errors.As(err, &cErr):
		switch cErr.Reason {
		case booking.ConflictExpired:
			writeError(w, http.StatusConflict, "slot_expired", "the slot is no longer within the booking window; refresh availability")
		default:
			writeError(w, http.StatusConflict, "slot_already_booked", "the slot was taken by another booking; refresh availability and pick again")
		}
	case errors.Is(err, booking.ErrAppointmentNotFound):
		writeError(w, http.StatusNotFound, "appointment_not_found", err.Error())
	case errors.Is(err, booking.ErrInvalidStatusTransition):
		writeError(w, http.StatusConflict, "invalid_status_transition", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}

func handleScheduleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, schedule.ErrInvalidConfiguration):
		writeError(w, http.StatusBadRequest, "invalid_configuration", err.Error())
	case errors.Is(err, schedule.ErrDisabledSlotNotFound):
		writeError(w, http.StatusNotFound, "disabled_slot_not_found", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
