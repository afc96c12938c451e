package schedule

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicdesk/appointment-booking/internal/cache"
)

type fakeSettingsRepo struct {
	set   *Settings
	err   error
	saved *Settings
}

func (f *fakeSettingsRepo) GetSettings(ctx context.Context, clinicID uuid.UUID) (*Settings, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.set, nil
}

func (f *fakeSettingsRepo) SaveSettings(ctx context.Context, set *Settings) error {
	f.saved = set
	return nil
}

type fakeDisabledRepo struct {
	slots []DisabledSlot
	added *DisabledSlot
}

func (f *fakeDisabledRepo) ListDisabledSlots(ctx context.Context, clinicID uuid.UUID, date time.Time) ([]DisabledSlot, error) {
	return f.slots, nil
}

func (f *fakeDisabledRepo) AddDisabledSlot(ctx context.Context, slot *DisabledSlot) error {
	f.added = slot
	return nil
}

func (f *fakeDisabledRepo) RemoveDisabledSlot(ctx context.Context, clinicID, id uuid.UUID) error {
	return nil
}

type fakeLedger struct {
	labels []string
}

func (f *fakeLedger) BookedLabels(ctx context.Context, clinicID uuid.UUID, date time.Time) ([]string, error) {
	return f.labels, nil
}

// spyCache records invalidations while delegating everything else.
type spyCache struct {
	cache.Cache
	invalidated []string
}

func (s *spyCache) Invalidate(ctx context.Context, keys ...string) {
	s.invalidated = append(s.invalidated, keys...)
	s.Cache.Invalidate(ctx, keys...)
}

func TestServiceSettingsDefaultsWhenMissing(t *testing.T) {
	clinicID := uuid.New()
	svc := NewService(ServiceConfig{
		Settings: &fakeSettingsRepo{err: ErrSettingsNotFound},
		Disabled: &fakeDisabledRepo{},
		Ledger:   &fakeLedger{},
	})

	set, err := svc.Settings(context.Background(), clinicID)
	require.NoError(t, err)
	assert.Equal(t, clinicID, set.ClinicID)
	assert.Equal(t, DefaultAdvanceNotice, set.AdvanceNotice)
	assert.True(t, set.DayTemplates[time.Monday].Enabled)
}

func TestServiceDaySlots(t *testing.T) {
	clinicID := uuid.New()
	date := time.Date(2026, 9, 16, 0, 0, 0, 0, time.Local)

	stored := testSettings(date, DayTemplate{
		Start:       MustClock("09:00"),
		End:         MustClock("11:00"),
		SlotMinutes: 30,
		Enabled:     true,
	})
	stored.ClinicID = clinicID

	svc := NewService(ServiceConfig{
		Settings: &fakeSettingsRepo{set: &stored},
		Disabled: &fakeDisabledRepo{},
		Ledger:   &fakeLedger{labels: []string{"09:30 AM - 10:00 AM"}},
		Now:      func() time.Time { return date.AddDate(0, 0, -2) },
	})

	sched, err := svc.DaySlots(context.Background(), clinicID, date)
	require.NoError(t, err)

	assert.Equal(t, clinicID, sched.ClinicID)
	assert.Equal(t, "2026-09-16", sched.Date)
	require.Len(t, sched.Slots, 4)

	marked := findSlot(t, sched.Slots, "09:30 AM - 10:00 AM")
	assert.Equal(t, ReasonBooked, marked.Reason)
	assert.True(t, findSlot(t, sched.Slots, "09:00 AM - 09:30 AM").Bookable)
}

func TestServiceSaveSettingsValidates(t *testing.T) {
	repo := &fakeSettingsRepo{}
	svc := NewService(ServiceConfig{Settings: repo, Disabled: &fakeDisabledRepo{}, Ledger: &fakeLedger{}})

	bad := DefaultSettings(uuid.New())
	bad.AdvanceNotice = -time.Hour

	err := svc.SaveSettings(context.Background(), bad)
	assert.ErrorIs(t, err, ErrInvalidConfiguration)
	assert.Nil(t, repo.saved, "invalid settings must not reach the repository")
}

func TestServiceSaveSettingsInvalidatesCache(t *testing.T) {
	repo := &fakeSettingsRepo{}
	spy := &spyCache{Cache: cache.NewPassThrough(1, 0)}
	svc := NewService(ServiceConfig{Settings: repo, Disabled: &fakeDisabledRepo{}, Ledger: &fakeLedger{}, Cache: spy})

	set := DefaultSettings(uuid.New())
	require.NoError(t, svc.SaveSettings(context.Background(), set))

	assert.Equal(t, set, repo.saved)
	assert.Contains(t, spy.invalidated, settingsKey(set.ClinicID))
}

func TestServiceAddDisabledSlotRejectsEmptyWindow(t *testing.T) {
	repo := &fakeDisabledRepo{}
	svc := NewService(ServiceConfig{Settings: &fakeSettingsRepo{}, Disabled: repo, Ledger: &fakeLedger{}})

	err := svc.AddDisabledSlot(context.Background(), &DisabledSlot{
		ClinicID: uuid.New(),
		Date:     time.Now(),
		Start:    MustClock("15:00"),
		End:      MustClock("15:00"),
	})
	assert.ErrorIs(t, err, ErrInvalidConfiguration)
	assert.Nil(t, repo.added)
}

func TestServiceInvalidateBookings(t *testing.T) {
	clinicID := uuid.New()
	date := time.Date(2026, 9, 16, 0, 0, 0, 0, time.Local)

	spy := &spyCache{Cache: cache.NewPassThrough(1, 0)}
	svc := NewService(ServiceConfig{Settings: &fakeSettingsRepo{}, Disabled: &fakeDisabledRepo{}, Ledger: &fakeLedger{}, Cache: spy})

	svc.InvalidateBookings(context.Background(), clinicID, date)
	assert.Equal(t, []string{bookedKey(clinicID, date)}, spy.invalidated)
}
