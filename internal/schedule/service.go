package schedule

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/clinicdesk/appointment-booking/internal/cache"
	"github.com/clinicdesk/appointment-booking/internal/observability/metrics"
)

// Service computes day schedules and manages the configuration the engine
// reads. Reads go through the cache collaborator as stale-tolerant hints;
// the booking path never trusts them for uniqueness.
type Service struct {
	settings SettingsRepository
	disabled DisabledSlotRepository
	ledger   BookedLabelSource
	cache    cache.Cache
	metrics  *metrics.Metrics

	settingsTTL     time.Duration
	disabledTTL     time.Duration
	appointmentsTTL time.Duration

	now func() time.Time
}

type ServiceConfig struct {
	Settings SettingsRepository
	Disabled DisabledSlotRepository
	Ledger   BookedLabelSource
	Cache    cache.Cache
	Metrics  *metrics.Metrics

	SettingsTTL     time.Duration
	DisabledTTL     time.Duration
	AppointmentsTTL time.Duration

	// Now overrides the clock in tests.
	Now func() time.Time
}

func NewService(cfg ServiceConfig) *Service {
	s := &Service{
		settings:        cfg.Settings,
		disabled:        cfg.Disabled,
		ledger:          cfg.Ledger,
		cache:           cfg.Cache,
		metrics:         cfg.Metrics,
		settingsTTL:     cfg.SettingsTTL,
		disabledTTL:     cfg.DisabledTTL,
		appointmentsTTL: cfg.AppointmentsTTL,
		now:             cfg.Now,
	}
	if s.cache == nil {
		s.cache = cache.NewPassThrough(1, 0)
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.settingsTTL <= 0 {
		s.settingsTTL = 10 * time.Minute
	}
	if s.disabledTTL <= 0 {
		s.disabledTTL = 5 * time.Minute
	}
	if s.appointmentsTTL <= 0 {
		s.appointmentsTTL = 2 * time.Minute
	}
	return s
}

func settingsKey(clinicID uuid.UUID) string {
	return fmt.Sprintf("sched:settings:%s", clinicID)
}

func disabledKey(clinicID uuid.UUID, date time.Time) string {
	return fmt.Sprintf("sched:disabled:%s:%s", clinicID, DateKey(date))
}

func bookedKey(clinicID uuid.UUID, date time.Time) string {
	return fmt.Sprintf("sched:booked:%s:%s", clinicID, DateKey(date))
}

// DaySlots computes the slot list for a clinic date, stamped with the date it
// was computed for.
func (s *Service) DaySlots(ctx context.Context, clinicID uuid.UUID, date time.Time) (*DaySchedule, error) {
	start := s.now()

	set, err := s.Settings(ctx, clinicID)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	var disabled []DisabledSlot
	err = s.cache.GetJSON(ctx, disabledKey(clinicID, date), s.disabledTTL, &disabled, func(ctx context.Context) (any, error) {
		return s.disabled.ListDisabledSlots(ctx, clinicID, date)
	})
	if err != nil {
		return nil, fmt.Errorf("load disabled slots: %w", err)
	}

	var labels []string
	err = s.cache.GetJSON(ctx, bookedKey(clinicID, date), s.appointmentsTTL, &labels, func(ctx context.Context) (any, error) {
		return s.ledger.BookedLabels(ctx, clinicID, date)
	})
	if err != nil {
		return nil, fmt.Errorf("load booked labels: %w", err)
	}

	booked := make(map[string]struct{}, len(labels))
	for _, l := range labels {
		booked[l] = struct{}{}
	}

	slots := BuildDaySlots(*set, date, disabled, booked, s.now())
	s.metrics.ObserveSlotCompute(s.now().Sub(start).Seconds())

	return &DaySchedule{
		ClinicID: clinicID,
		Date:     DateKey(date),
		Slots:    slots,
	}, nil
}

// Settings returns the clinic configuration, substituting built-in defaults
// when no row exists. An absent row is not an error.
func (s *Service) Settings(ctx context.Context, clinicID uuid.UUID) (*Settings, error) {
	var set Settings
	err := s.cache.GetJSON(ctx, settingsKey(clinicID), s.settingsTTL, &set, func(ctx context.Context) (any, error) {
		stored, err := s.settings.GetSettings(ctx, clinicID)
		if errors.Is(err, ErrSettingsNotFound) {
			return DefaultSettings(clinicID), nil
		}
		if err != nil {
			return nil, err
		}
		return stored, nil
	})
	if err != nil {
		return nil, err
	}
	return &set, nil
}

// SaveSettings validates and persists an admin edit, then drops the cached
// copy so the edit is visible before the TTL lapses.
func (s *Service) SaveSettings(ctx context.Context, set *Settings) error {
	if err := set.Validate(); err != nil {
		return err
	}
	if err := s.settings.SaveSettings(ctx, set); err != nil {
		return err
	}
	s.cache.Invalidate(ctx, settingsKey(set.ClinicID))
	return nil
}

func (s *Service) DisabledSlots(ctx context.Context, clinicID uuid.UUID, date time.Time) ([]DisabledSlot, error) {
	return s.disabled.ListDisabledSlots(ctx, clinicID, date)
}

func (s *Service) AddDisabledSlot(ctx context.Context, slot *DisabledSlot) error {
	if !slot.Window().Valid() {
		return fmt.Errorf("%w: disabled slot start must be before end", ErrInvalidConfiguration)
	}
	if err := s.disabled.AddDisabledSlot(ctx, slot); err != nil {
		return err
	}
	s.cache.Invalidate(ctx, disabledKey(slot.ClinicID, slot.Date))
	return nil
}

func (s *Service) RemoveDisabledSlot(ctx context.Context, clinicID, id uuid.UUID, date time.Time) error {
	if err := s.disabled.RemoveDisabledSlot(ctx, clinicID, id); err != nil {
		return err
	}
	s.cache.Invalidate(ctx, disabledKey(clinicID, date))
	return nil
}

// InvalidateBookings drops the cached booked-label set for a clinic day.
// Called by the booking service after a successful insert so fresh
// availability reads see the new row without waiting out the TTL.
func (s *Service) InvalidateBookings(ctx context.Context, clinicID uuid.UUID, date time.Time) {
	s.cache.Invalidate(ctx, bookedKey(clinicID, date))
}
