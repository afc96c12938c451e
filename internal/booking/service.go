package booking

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/clinicdesk/appointment-booking/internal/observability/metrics"
	"github.com/clinicdesk/appointment-booking/internal/patient"
	"github.com/clinicdesk/appointment-booking/internal/schedule"
)

// IdentityResolver links a submitted name+phone to a canonical patient.
type IdentityResolver interface {
	FindOrCreate(ctx context.Context, fullName, phone, email string, clinicID uuid.UUID) (*patient.Resolution, error)
}

// ScheduleReader supplies the advance-notice configuration and lets the
// booking path drop stale cached availability after a write.
type ScheduleReader interface {
	Settings(ctx context.Context, clinicID uuid.UUID) (*schedule.Settings, error)
	InvalidateBookings(ctx context.Context, clinicID uuid.UUID, date time.Time)
}

// Service commits bookings against the appointment ledger. The insert is the
// single source of truth for "is this slot still free"; the availability
// snapshot a caller saw is advisory only.
type Service struct {
	repo      Repository
	resolver  IdentityResolver
	schedules ScheduleReader
	metrics   *metrics.Metrics
	now       func() time.Time
}

type ServiceConfig struct {
	Repo      Repository
	Resolver  IdentityResolver
	Schedules ScheduleReader
	Metrics   *metrics.Metrics
	Now       func() time.Time
}

func NewService(cfg ServiceConfig) *Service {
	s := &Service{
		repo:      cfg.Repo,
		resolver:  cfg.Resolver,
		schedules: cfg.Schedules,
		metrics:   cfg.Metrics,
		now:       cfg.Now,
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

type BookingRequest struct {
	ClinicID  uuid.UUID
	Date      time.Time
	TimeLabel string
	Name      string
	Phone     string
	Email     string
}

type BookingResult struct {
	Appointment  *Appointment
	Patient      *patient.Patient
	IsNewPatient bool
}

// Book validates the request, re-checks the advance-notice window at call
// time, and inserts a Confirmed row. Losing the insert race returns
// ConflictError{already_booked}; the caller must re-fetch availability, never
// retry the same slot. Identity resolution runs after the insert and is best
// effort: its failure keeps the appointment with a nil patient link.
func (s *Service) Book(ctx context.Context, req BookingRequest) (*BookingResult, error) {
	in, vErr := validatePatientInput(req.Name, req.Phone, req.Email)
	if vErr != nil {
		s.metrics.ObserveBooking("validation_error")
		return nil, vErr
	}

	iv, err := schedule.ParseSlotLabel(req.TimeLabel)
	if err != nil {
		s.metrics.ObserveBooking("validation_error")
		return nil, &ValidationError{Field: "time", Message: "is not a valid slot label"}
	}

	set, err := s.schedules.Settings(ctx, req.ClinicID)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	// A slot legally offered moments ago may have slipped past the notice
	// window by now; the offer time does not count.
	now := s.now()
	start := iv.Start.At(req.Date)
	if !start.After(now) || start.Before(now.Add(set.AdvanceNotice)) {
		s.metrics.ObserveBooking("expired")
		return nil, &ConflictError{Reason: ConflictExpired}
	}

	appt := &Appointment{
		ID:       uuid.New(),
		ClinicID: req.ClinicID,
		Name:     in.name,
		Phone:    in.phone,
		Date:     req.Date,
		// Re-render the label rather than storing the submitted string: the
		// unique index compares labels byte for byte, so a padded variant of
		// an occupied slot would otherwise slip past it.
		TimeLabel: schedule.SlotLabel(iv),
		Status:    StatusConfirmed,
	}
	if in.email != "" {
		appt.Email = &in.email
	}

	if err := s.repo.Insert(ctx, appt); err != nil {
		if errors.Is(err, ErrDuplicateSlot) {
			s.metrics.ObserveBooking("already_booked")
			return nil, &ConflictError{Reason: ConflictAlreadyBooked}
		}
		s.metrics.ObserveBooking("error")
		return nil, fmt.Errorf("insert appointment: %w", err)
	}

	s.schedules.InvalidateBookings(ctx, req.ClinicID, req.Date)
	s.metrics.ObserveBooking("confirmed")

	result := &BookingResult{Appointment: appt}

	res, err := s.resolver.FindOrCreate(ctx, in.name, in.phone, in.email, req.ClinicID)
	if err != nil {
		s.reconcileLater(appt.ID, err)
		return result, nil
	}

	if err := s.repo.AttachPatient(ctx, appt.ID, res.Patient.ID); err != nil {
		s.reconcileLater(appt.ID, err)
		return result, nil
	}

	appt.PatientID = &res.Patient.ID
	result.Patient = res.Patient
	result.IsNewPatient = res.IsNew

	return result, nil
}

// reconcileLater records that an appointment was kept without a patient link
// and needs manual linking. The committed appointment is never rolled back.
func (s *Service) reconcileLater(apptID uuid.UUID, err error) {
	log.Printf("reconciliation needed: appointment %s kept without patient link: %v", apptID, err)
	s.metrics.ObserveReconciliationWarning()
}

// AppointmentsForDate includes every status so callers can filter cancelled
// rows themselves.
func (s *Service) AppointmentsForDate(ctx context.Context, clinicID uuid.UUID, date time.Time) ([]Appointment, error) {
	appts, err := s.repo.ListByDate(ctx, clinicID, date)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	return appts, nil
}

func (s *Service) Cancel(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.transition(ctx, id, StatusCancelled)
}

func (s *Service) Complete(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.transition(ctx, id, StatusCompleted)
}

// Reschedule moves an active appointment to a new slot. The old slot is freed
// because the row's label changes; the new slot is claimed under the same
// unique index that guards fresh bookings, so losing the race returns
// ConflictError{already_booked} exactly like Book does.
func (s *Service) Reschedule(ctx context.Context, id uuid.UUID, date time.Time, timeLabel string) (*Appointment, error) {
	iv, err := schedule.ParseSlotLabel(timeLabel)
	if err != nil {
		return nil, &ValidationError{Field: "time", Message: "is not a valid slot label"}
	}

	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !active(current.Status) {
		return nil, ErrInvalidStatusTransition
	}

	set, err := s.schedules.Settings(ctx, current.ClinicID)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	now := s.now()
	start := iv.Start.At(date)
	if !start.After(now) || start.Before(now.Add(set.AdvanceNotice)) {
		s.metrics.ObserveBooking("expired")
		return nil, &ConflictError{Reason: ConflictExpired}
	}

	updated, err := s.repo.UpdateSlot(ctx, id, current.Status, date, schedule.SlotLabel(iv), StatusRescheduled)
	if err != nil {
		switch {
		case errors.Is(err, ErrDuplicateSlot):
			s.metrics.ObserveBooking("already_booked")
			return nil, &ConflictError{Reason: ConflictAlreadyBooked}
		case errors.Is(err, ErrAppointmentNotFound):
			// Lost a status race between the read and the update.
			return nil, ErrInvalidStatusTransition
		default:
			return nil, fmt.Errorf("move appointment slot: %w", err)
		}
	}

	s.schedules.InvalidateBookings(ctx, current.ClinicID, current.Date)
	s.schedules.InvalidateBookings(ctx, updated.ClinicID, updated.Date)
	s.metrics.ObserveBooking("rescheduled")

	return updated, nil
}

// active reports whether a row still holds its slot. Rescheduled rows are
// live appointments at their new slot and can be cancelled or completed.
func active(st Status) bool {
	return st == StatusConfirmed || st == StatusRescheduled
}

// transition moves an active row to a terminal staff-driven status, freeing
// the slot again when the row is cancelled.
func (s *Service) transition(ctx context.Context, id uuid.UUID, to Status) (*Appointment, error) {
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !active(current.Status) {
		return nil, ErrInvalidStatusTransition
	}

	updated, err := s.repo.UpdateStatus(ctx, id, current.Status, to)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			// Lost a status race between the read and the update.
			return nil, ErrInvalidStatusTransition
		}
		return nil, fmt.Errorf("update appointment status: %w", err)
	}

	s.schedules.InvalidateBookings(ctx, updated.ClinicID, updated.Date)

	return updated, nil
}

// PurgeFinished removes cancelled/completed rows older than the retention
// window. Called by the cleanup worker, never by request handlers.
func (s *Service) PurgeFinished(ctx context.Context, retention time.Duration) (int64, error) {
	n, err := s.repo.PurgeFinished(ctx, s.now().Add(-retention))
	if err != nil {
		return 0, err
	}
	s.metrics.ObservePurgedRows(n)
	return n, nil
}
