package schedule

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrSettingsNotFound     = errors.New("scheduling settings not found")
	ErrDisabledSlotNotFound = errors.New("disabled slot not found")
	ErrInvalidConfiguration = errors.New("invalid scheduling configuration")
)

// SettingsRepository reads and writes the per-clinic configuration row.
type SettingsRepository interface {
	GetSettings(ctx context.Context, clinicID uuid.UUID) (*Settings, error)
	SaveSettings(ctx context.Context, set *Settings) error
}

// DisabledSlotRepository manages ad hoc date-scoped blocks.
type DisabledSlotRepository interface {
	ListDisabledSlots(ctx context.Context, clinicID uuid.UUID, date time.Time) ([]DisabledSlot, error)
	AddDisabledSlot(ctx context.Context, slot *DisabledSlot) error
	RemoveDisabledSlot(ctx context.Context, clinicID, id uuid.UUID) error
}

// BookedLabelSource lists the slot labels of non-cancelled appointments for
// one clinic day. Implemented by the booking ledger.
type BookedLabelSource interface {
	BookedLabels(ctx context.Context, clinicID uuid.UUID, date time.Time) ([]string, error)
}
