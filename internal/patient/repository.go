package patient

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var ErrPatientNotFound = errors.New("patient not found")

// Repository contains all DB interactions needed by the resolver.
type Repository interface {
	// FindByPhone returns the earliest-created patient in the clinic holding
	// the phone number, or ErrPatientNotFound.
	FindByPhone(ctx context.Context, phone string, clinicID uuid.UUID) (*Patient, error)

	CreatePatient(ctx context.Context, p *Patient) error
	AddPhone(ctx context.Context, ph *PatientPhone) error

	// Two-step primary flip; see Resolver.SetPrimaryPhone.
	ClearPrimaryPhones(ctx context.Context, patientID uuid.UUID) error
	MarkPhonePrimary(ctx context.Context, patientID uuid.UUID, phone string) error
}
