package booking

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository contains all ledger interactions needed by the service.
type Repository interface {
	// Insert commits a new row. The database's partial unique index on
	// (clinic_id, date, time_label) among non-cancelled rows is the single
	// enforcement point for double booking; a collision surfaces as
	// ErrDuplicateSlot.
	Insert(ctx context.Context, appt *Appointment) error

	AttachPatient(ctx context.Context, apptID, patientID uuid.UUID) error

	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	ListByDate(ctx context.Context, clinicID uuid.UUID, date time.Time) ([]Appointment, error)
	BookedLabels(ctx context.Context, clinicID uuid.UUID, date time.Time) ([]string, error)

	// UpdateStatus transitions a row conditionally on its current status.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status) (*Appointment, error)

	// UpdateSlot moves a row to a new clinic day slot and stamps it with the
	// given status, conditionally on its current status. A collision with an
	// active row already holding the target slot surfaces as ErrDuplicateSlot.
	UpdateSlot(ctx context.Context, id uuid.UUID, from Status, date time.Time, timeLabel string, to Status) (*Appointment, error)

	// PurgeFinished removes cancelled/completed rows older than the given
	// time. Used only by the cleanup worker.
	PurgeFinished(ctx context.Context, before time.Time) (int64, error)
}
