package patient

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

type MatchSource string

const (
	MatchedByPhone MatchSource = "phone"
	MatchedByNew   MatchSource = "new"
)

// Resolution is the outcome of mapping a submitted name+phone onto a
// canonical patient record.
type Resolution struct {
	Patient   *Patient
	IsNew     bool
	MatchedBy MatchSource
}

// Resolver finds-or-creates canonical patient records at booking time.
type Resolver struct {
	repo Repository
}

func NewResolver(repo Repository) *Resolver {
	return &Resolver{repo: repo}
}

// FindOrCreate looks up a patient by (phone, clinic). No match creates a new
// record. A match with an equal normalized name reuses the record. A match
// with a different name deliberately creates a second patient sharing the
// phone: a shared family phone must never silently merge two people, at the
// cost of possibly fragmenting one person across records.
func (r *Resolver) FindOrCreate(ctx context.Context, fullName, phone, email string, clinicID uuid.UUID) (*Resolution, error) {
	existing, err := r.repo.FindByPhone(ctx, phone, clinicID)
	if err != nil && !errors.Is(err, ErrPatientNotFound) {
		return nil, fmt.Errorf("find patient by phone: %w", err)
	}

	if existing != nil && NormalizeName(existing.FullName()) == NormalizeName(fullName) {
		return &Resolution{
			Patient:   existing,
			MatchedBy: MatchedByPhone,
		}, nil
	}

	created, err := r.create(ctx, fullName, phone, email, clinicID)
	if err != nil {
		return nil, err
	}

	return &Resolution{
		Patient:   created,
		IsNew:     true,
		MatchedBy: MatchedByNew,
	}, nil
}

func (r *Resolver) create(ctx context.Context, fullName, phone, email string, clinicID uuid.UUID) (*Patient, error) {
	parts := SplitName(fullName)

	p := &Patient{
		ClinicID:  clinicID,
		FirstName: parts.First,
		LastName:  parts.Last,
	}
	if email != "" {
		p.Email = &email
	}

	if err := r.repo.CreatePatient(ctx, p); err != nil {
		return nil, fmt.Errorf("create patient: %w", err)
	}

	ph := &PatientPhone{
		PatientID: p.ID,
		Phone:     phone,
		Type:      PhonePrimary,
		IsPrimary: true,
	}
	if err := r.repo.AddPhone(ctx, ph); err != nil {
		return nil, fmt.Errorf("register patient phone: %w", err)
	}

	return p, nil
}

// SetPrimaryPhone flips the primary flag to the given phone. The clear and
// the set are two separate writes, not a transaction: two concurrent calls
// for the same patient can interleave and leave zero or two rows marked
// primary. Known race, kept pending a decision on an atomic conditional
// update in the persistence layer.
func (r *Resolver) SetPrimaryPhone(ctx context.Context, patientID uuid.UUID, phone string) error {
	if err := r.repo.ClearPrimaryPhones(ctx, patientID); err != nil {
		return err
	}
	if err := r.repo.MarkPhonePrimary(ctx, patientID, phone); err != nil {
		return err
	}
	return nil
}
