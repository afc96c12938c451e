package schedule

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB is the subset of pgxpool.Pool the repositories need; pgxmock satisfies
// it in tests.
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

func (r *PgRepository) GetSettings(ctx context.Context, clinicID uuid.UUID) (*Settings, error) {
	row := r.db.QueryRow(ctx, `
		SELECT clinic_id, day_templates, weekly_holidays, custom_holidays,
		       appointments_disabled, disabled_until, advance_notice_hours, updated_at
		FROM scheduling_settings
		WHERE clinic_id = $1
	`, clinicID)

	var (
		set            Settings
		templatesJSON  []byte
		weeklyJSON     []byte
		customJSON     []byte
		disabledUntil  *time.Time
		advanceHours   int
	)

	err := row.Scan(
		&set.ClinicID,
		&templatesJSON,
		&weeklyJSON,
		&customJSON,
		&set.AppointmentsDisabled,
		&disabledUntil,
		&advanceHours,
		&set.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSettingsNotFound
		}
		return nil, err
	}

	// Legacy break shapes are normalized here, inside DayTemplate's
	// UnmarshalJSON; everything downstream sees a plain breaks list.
	if err := json.Unmarshal(templatesJSON, &set.DayTemplates); err != nil {
		return nil, fmt.Errorf("decode day templates: %w", err)
	}
	if len(weeklyJSON) > 0 {
		if err := json.Unmarshal(weeklyJSON, &set.WeeklyHolidays); err != nil {
			return nil, fmt.Errorf("decode weekly holidays: %w", err)
		}
	}
	if len(customJSON) > 0 {
		if err := json.Unmarshal(customJSON, &set.CustomHolidays); err != nil {
			return nil, fmt.Errorf("decode custom holidays: %w", err)
		}
	}

	set.DisabledUntil = disabledUntil
	set.AdvanceNotice = time.Duration(advanceHours) * time.Hour

	return &set, nil
}

func (r *PgRepository) SaveSettings(ctx context.Context, set *Settings) error {
	templatesJSON, err := json.Marshal(set.DayTemplates)
	if err != nil {
		return fmt.Errorf("encode day templates: %w", err)
	}
	weeklyJSON, err := json.Marshal(set.WeeklyHolidays)
	if err != nil {
		return fmt.Errorf("encode weekly holidays: %w", err)
	}
	customJSON, err := json.Marshal(set.CustomHolidays)
	if err != nil {
		return fmt.Errorf("encode custom holidays: %w", err)
	}

	_, err = r.db.Exec(ctx, `
		INSERT INTO scheduling_settings
			(clinic_id, day_templates, weekly_holidays, custom_holidays,
			 appointments_disabled, disabled_until, advance_notice_hours, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now(), now())
		ON CONFLICT (clinic_id) DO UPDATE SET
			day_templates        = EXCLUDED.day_templates,
			weekly_holidays      = EXCLUDED.weekly_holidays,
			custom_holidays      = EXCLUDED.custom_holidays,
			appointments_disabled = EXCLUDED.appointments_disabled,
			disabled_until       = EXCLUDED.disabled_until,
			advance_notice_hours = EXCLUDED.advance_notice_hours,
			updated_at           = now()
	`, set.ClinicID, templatesJSON, weeklyJSON, customJSON,
		set.AppointmentsDisabled, set.DisabledUntil, int(set.AdvanceNotice/time.Hour))
	if err != nil {
		return fmt.Errorf("save scheduling settings: %w", err)
	}

	return nil
}

func (r *PgRepository) ListDisabledSlots(ctx context.Context, clinicID uuid.UUID, date time.Time) ([]DisabledSlot, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, clinic_id, date, start_minute, end_minute, created_at
		FROM disabled_slots
		WHERE clinic_id = $1 AND date = $2
		ORDER BY start_minute
	`, clinicID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []DisabledSlot
	for rows.Next() {
		var (
			d          DisabledSlot
			start, end int
		)
		if err := rows.Scan(&d.ID, &d.ClinicID, &d.Date, &start, &end, &d.CreatedAt); err != nil {
			return nil, err
		}
		d.Start = ClockTime(start)
		d.End = ClockTime(end)
		result = append(result, d)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *PgRepository) AddDisabledSlot(ctx context.Context, slot *DisabledSlot) error {
	if slot.ID == uuid.Nil {
		slot.ID = uuid.New()
	}

	row := r.db.QueryRow(ctx, `
		INSERT INTO disabled_slots (id, clinic_id, date, start_minute, end_minute, created_at)
		VALUES ($1, $2, $3, $4, $5, now())
		RETURNING created_at
	`, slot.ID, slot.ClinicID, slot.Date, int(slot.Start), int(slot.End))

	if err := row.Scan(&slot.CreatedAt); err != nil {
		return fmt.Errorf("insert disabled slot: %w", err)
	}

	return nil
}

func (r *PgRepository) RemoveDisabledSlot(ctx context.Context, clinicID, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `
		DELETE FROM disabled_slots
		WHERE id = $1 AND clinic_id = $2
	`, id, clinicID)
	if err != nil {
		return fmt.Errorf("delete disabled slot: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrDisabledSlotNotFound
	}

	return nil
}
