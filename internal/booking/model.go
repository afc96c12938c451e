package booking

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusConfirmed   Status = "confirmed"
	StatusCancelled   Status = "cancelled"
	StatusCompleted   Status = "completed"
	StatusRescheduled Status = "rescheduled"
)

// Appointment is one ledger row. TimeLabel, not a timestamp, is the unit of
// slot uniqueness: among non-cancelled rows, (clinic_id, date, time_label)
// is unique, enforced by the database at insert time.
type Appointment struct {
	ID        uuid.UUID
	ClinicID  uuid.UUID
	PatientID *uuid.UUID // linked by identity resolution, nullable
	Name      string
	Phone     string
	Email     *string
	Date      time.Time
	TimeLabel string
	Status    Status
	CreatedAt time.Time
	UpdatedAt time.Time
}

var (
	ErrAppointmentNotFound     = errors.New("appointment not found")
	ErrDuplicateSlot           = errors.New("slot already has an active appointment")
	ErrInvalidStatusTransition = errors.New("invalid status transition")
)

type ConflictReason string

const (
	ConflictExpired       ConflictReason = "expired"
	ConflictAlreadyBooked ConflictReason = "already_booked"
)

// ConflictError is the expected, retryable loss of a booking race or of the
// advance-notice window. Callers re-fetch availability and pick again; the
// same slot must never be retried automatically.
type ConflictError struct {
	Reason ConflictReason
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("booking conflict: %s", e.Reason)
}

// ValidationError rejects malformed input before any write.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}
