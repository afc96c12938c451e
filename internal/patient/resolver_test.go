package patient

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	byPhone map[string]*Patient

	created []*Patient
	phones  []*PatientPhone

	cleared []uuid.UUID
	marked  []string

	findErr error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{byPhone: make(map[string]*Patient)}
}

func (f *fakeRepo) FindByPhone(ctx context.Context, phone string, clinicID uuid.UUID) (*Patient, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	p, ok := f.byPhone[phone]
	if !ok {
		return nil, ErrPatientNotFound
	}
	return p, nil
}

func (f *fakeRepo) CreatePatient(ctx context.Context, p *Patient) error {
	p.ID = uuid.New()
	f.created = append(f.created, p)
	return nil
}

func (f *fakeRepo) AddPhone(ctx context.Context, ph *PatientPhone) error {
	ph.ID = uuid.New()
	f.phones = append(f.phones, ph)
	return nil
}

func (f *fakeRepo) ClearPrimaryPhones(ctx context.Context, patientID uuid.UUID) error {
	f.cleared = append(f.cleared, patientID)
	return nil
}

func (f *fakeRepo) MarkPhonePrimary(ctx context.Context, patientID uuid.UUID, phone string) error {
	f.marked = append(f.marked, phone)
	return nil
}

func TestFindOrCreateNewPatient(t *testing.T) {
	repo := newFakeRepo()
	r := NewResolver(repo)
	clinicID := uuid.New()

	res, err := r.FindOrCreate(context.Background(), "Poorna Shetty", "9876543210", "poorna@example.com", clinicID)
	require.NoError(t, err)

	assert.True(t, res.IsNew)
	assert.Equal(t, MatchedByNew, res.MatchedBy)
	assert.Equal(t, "Poorna", res.Patient.FirstName)
	require.NotNil(t, res.Patient.LastName)
	assert.Equal(t, "Shetty", *res.Patient.LastName)
	require.NotNil(t, res.Patient.Email)
	assert.Equal(t, "poorna@example.com", *res.Patient.Email)

	require.Len(t, repo.phones, 1)
	assert.Equal(t, res.Patient.ID, repo.phones[0].PatientID)
	assert.Equal(t, "9876543210", repo.phones[0].Phone)
	assert.True(t, repo.phones[0].IsPrimary)
}

func TestFindOrCreateMatchesByPhoneAndName(t *testing.T) {
	repo := newFakeRepo()
	existing := &Patient{ID: uuid.New(), FirstName: "Poorna", LastName: strptr("Shetty")}
	repo.byPhone["9876543210"] = existing

	r := NewResolver(repo)

	// Case and spacing differences still match.
	res, err := r.FindOrCreate(context.Background(), "  poorna   SHETTY ", "9876543210", "", uuid.New())
	require.NoError(t, err)

	assert.False(t, res.IsNew)
	assert.Equal(t, MatchedByPhone, res.MatchedBy)
	assert.Same(t, existing, res.Patient)
	assert.Empty(t, repo.created)
}

func TestFindOrCreateSharedPhoneDifferentName(t *testing.T) {
	repo := newFakeRepo()
	existing := &Patient{ID: uuid.New(), FirstName: "Poorna", LastName: strptr("Shetty")}
	repo.byPhone["9876543210"] = existing

	r := NewResolver(repo)

	// A family member booking from the same phone gets their own record;
	// the existing patient is left untouched.
	res, err := r.FindOrCreate(context.Background(), "Anil Shetty", "9876543210", "", uuid.New())
	require.NoError(t, err)

	assert.True(t, res.IsNew)
	assert.NotEqual(t, existing.ID, res.Patient.ID)
	assert.Equal(t, "Anil", res.Patient.FirstName)
	assert.Equal(t, "Poorna", existing.FirstName)
	require.Len(t, repo.created, 1)
	require.Len(t, repo.phones, 1)
	assert.Equal(t, res.Patient.ID, repo.phones[0].PatientID)
}

func TestFindOrCreateLookupError(t *testing.T) {
	repo := newFakeRepo()
	repo.findErr = errors.New("connection reset")

	r := NewResolver(repo)
	_, err := r.FindOrCreate(context.Background(), "Poorna Shetty", "9876543210", "", uuid.New())
	require.Error(t, err)
	assert.Empty(t, repo.created, "lookup failure must not create a patient")
}

func TestSetPrimaryPhoneClearsThenMarks(t *testing.T) {
	repo := newFakeRepo()
	r := NewResolver(repo)
	patientID := uuid.New()

	require.NoError(t, r.SetPrimaryPhone(context.Background(), patientID, "9876543210"))

	require.Len(t, repo.cleared, 1)
	assert.Equal(t, patientID, repo.cleared[0])
	assert.Equal(t, []string{"9876543210"}, repo.marked)
}
