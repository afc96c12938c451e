package patient

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type DB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type PgRepository struct {
	db DB
}

func NewPgRepository(db DB) *PgRepository {
	return &PgRepository{db: db}
}

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient

	err := row.Scan(
		&p.ID,
		&p.ClinicID,
		&p.FirstName,
		&p.LastName,
		&p.Email,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPatientNotFound
		}
		return nil, err
	}

	return &p, nil
}

func (r *PgRepository) FindByPhone(ctx context.Context, phone string, clinicID uuid.UUID) (*Patient, error) {
	// A phone can be attached to multiple patients in a clinic; the oldest
	// record wins the lookup.
	row := r.db.QueryRow(ctx, `
		SELECT p.id, p.clinic_id, p.first_name, p.last_name, p.email, p.created_at, p.updated_at
		FROM patients p
		JOIN patient_phones ph ON ph.patient_id = p.id
		WHERE ph.phone = $1 AND p.clinic_id = $2
		ORDER BY p.created_at
		LIMIT 1
	`, phone, clinicID)
	return scanPatient(row)
}

func (r *PgRepository) CreatePatient(ctx context.Context, p *Patient) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}

	row := r.db.QueryRow(ctx, `
		INSERT INTO patients (id, clinic_id, first_name, last_name, email, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, now(), now())
		RETURNING created_at, updated_at
	`, p.ID, p.ClinicID, p.FirstName, p.LastName, p.Email)

	if err := row.Scan(&p.CreatedAt, &p.UpdatedAt); err != nil {
		return fmt.Errorf("insert patient: %w", err)
	}

	return nil
}

func (r *PgRepository) AddPhone(ctx context.Context, ph *PatientPhone) error {
	if ph.ID == uuid.Nil {
		ph.ID = uuid.New()
	}
	if ph.Type == "" {
		ph.Type = PhonePrimary
	}

	_, err := r.db.Exec(ctx, `
		INSERT INTO patient_phones (id, patient_id, phone, phone_type, is_primary, created_at)
		VALUES ($1, $2, $3, $4, $5, now())
	`, ph.ID, ph.PatientID, ph.Phone, ph.Type, ph.IsPrimary)
	if err != nil {
		return fmt.Errorf("insert patient phone: %w", err)
	}

	return nil
}

func (r *PgRepository) ClearPrimaryPhones(ctx context.Context, patientID uuid.UUID) error {
	_, err := r.db.Exec(ctx, `
		UPDATE patient_phones
		SET is_primary = false
		WHERE patient_id = $1
	`, patientID)
	if err != nil {
		return fmt.Errorf("clear primary phones: %w", err)
	}

	return nil
}

func (r *PgRepository) MarkPhonePrimary(ctx context.Context, patientID uuid.UUID, phone string) error {
	_, err := r.db.Exec(ctx, `
		UPDATE patient_phones
		SET is_primary = true
		WHERE patient_id = $1 AND phone = $2
	`, patientID, phone)
	if err != nil {
		return fmt.Errorf("mark phone primary: %w", err)
	}

	return nil
}
