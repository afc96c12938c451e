package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinicdesk/appointment-booking/internal/db"
	"github.com/clinicdesk/appointment-booking/internal/patient"
	"github.com/clinicdesk/appointment-booking/internal/schedule"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("seed starting")

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		log.Fatal("POSTGRES_DSN is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, dsn, 4, 1)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	gofakeit.Seed(time.Now().UnixNano())

	clinicID, err := seedClinic(context.Background(), pool)
	if err != nil {
		log.Fatalf("seed clinic: %v", err)
	}
	if err := seedSettings(context.Background(), pool, clinicID); err != nil {
		log.Fatalf("seed settings: %v", err)
	}
	if err := seedPatients(context.Background(), pool, clinicID, 500); err != nil {
		log.Fatalf("seed patients: %v", err)
	}
	if err := seedDisabledSlot(context.Background(), pool, clinicID); err != nil {
		log.Fatalf("seed disabled slot: %v", err)
	}

	log.Printf("seed complete, clinic_id=%s", clinicID)
}

func seedClinic(ctx context.Context, pool *pgxpool.Pool) (uuid.UUID, error) {
	id := uuid.New()
	name := gofakeit.Company() + " Dental Clinic"

	_, err := pool.Exec(ctx, `
		INSERT INTO clinics (id, name, created_at, updated_at)
		VALUES ($1, $2, now(), now())
	`, id, name)
	if err != nil {
		return uuid.Nil, err
	}

	log.Printf("clinic seeded: %s (%s)", name, id)
	return id, nil
}

func seedSettings(ctx context.Context, pool *pgxpool.Pool, clinicID uuid.UUID) error {
	set := schedule.DefaultSettings(clinicID)
	set.CustomHolidays = []string{schedule.DateKey(time.Now().AddDate(0, 1, 0))}

	repo := schedule.NewPgRepository(pool)
	if err := repo.SaveSettings(ctx, set); err != nil {
		return err
	}

	log.Println("scheduling settings seeded")
	return nil
}

func seedPatients(ctx context.Context, pool *pgxpool.Pool, clinicID uuid.UUID, count int) error {
	log.Printf("seeding %d patients", count)

	const batchSize = 100

	for offset := 0; offset < count; offset += batchSize {
		end := offset + batchSize
		if end > count {
			end = count
		}

		tx, err := pool.Begin(ctx)
		if err != nil {
			return err
		}

		for i := offset; i < end; i++ {
			id := uuid.New()
			first := gofakeit.FirstName()
			last := gofakeit.LastName()
			email := gofakeit.Email()
			phone := fakeMobile()

			_, err := tx.Exec(ctx, `
				INSERT INTO patients (id, clinic_id, first_name, last_name, email, created_at, updated_at)
				VALUES ($1, $2, $3, $4, $5, now(), now())
			`, id, clinicID, first, last, email)
			if err != nil {
				_ = tx.Rollback(ctx)
				return err
			}

			_, err = tx.Exec(ctx, `
				INSERT INTO patient_phones (id, patient_id, phone, phone_type, is_primary, created_at)
				VALUES ($1, $2, $3, $4, true, now())
			`, uuid.New(), id, phone, patient.PhonePrimary)
			if err != nil {
				_ = tx.Rollback(ctx)
				return err
			}
		}

		if err := tx.Commit(ctx); err != nil {
			return err
		}

		log.Printf("patients seeded: %d/%d", end, count)
	}

	return nil
}

func seedDisabledSlot(ctx context.Context, pool *pgxpool.Pool, clinicID uuid.UUID) error {
	repo := schedule.NewPgRepository(pool)

	slot := &schedule.DisabledSlot{
		ClinicID: clinicID,
		Date:     time.Now().AddDate(0, 0, 7),
		Start:    schedule.MustClock("15:00"),
		End:      schedule.MustClock("15:30"),
	}
	if err := repo.AddDisabledSlot(ctx, slot); err != nil {
		return err
	}

	log.Println("disabled slot seeded")
	return nil
}

// fakeMobile generates a 10-digit local mobile number.
func fakeMobile() string {
	return fmt.Sprintf("%d%09d", gofakeit.Number(6, 9), gofakeit.Number(0, 999999999))
}
