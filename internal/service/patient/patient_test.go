package patient

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Alijeyrad/clinicflow_backend/internal/repo"
	"github.com/Alijeyrad/clinicflow_backend/pkg/apperr"
	"github.com/Alijeyrad/clinicflow_backend/pkg/authorize"
	"github.com/Alijeyrad/clinicflow_backend/pkg/events"
	"github.com/Alijeyrad/clinicflow_backend/pkg/reqctx"
)

type mockStore struct{ mock.Mock }

func (m *mockStore) List(ctx context.Context, clinicID uuid.UUID) ([]*repo.Patient, error) {
	args := m.Called(ctx, clinicID)
	out, _ := args.Get(0).([]*repo.Patient)
	return out, args.Error(1)
}

func (m *mockStore) Get(ctx context.Context, clinicID, id uuid.UUID) (*repo.Patient, error) {
	args := m.Called(ctx, clinicID, id)
	p, _ := args.Get(0).(*repo.Patient)
	return p, args.Error(1)
}

func (m *mockStore) CountByCPF(ctx context.Context, clinicID uuid.UUID, cpf string) (int, error) {
	args := m.Called(ctx, clinicID, cpf)
	return args.Int(0), args.Error(1)
}

func (m *mockStore) Create(ctx context.Context, p *repo.Patient) error {
	args := m.Called(ctx, p)
	if args.Error(0) == nil {
		p.ID = uuid.New()
	}
	return args.Error(0)
}

func (m *mockStore) Update(ctx context.Context, p *repo.Patient) error {
	return m.Called(ctx, p).Error(0)
}

func (m *mockStore) Delete(ctx context.Context, clinicID, id uuid.UUID) error {
	return m.Called(ctx, clinicID, id).Error(0)
}

type recorder struct{ events []events.Event }

func (r *recorder) Publish(_ context.Context, e events.Event) { r.events = append(r.events, e) }

func ptr(s string) *string { return &s }

func newService() (Service, *mockStore, *recorder) {
	store := &mockStore{}
	bus := &recorder{}
	return New(store, bus, Config{}), store, bus
}

func scope() *reqctx.ClinicScope {
	return &reqctx.ClinicScope{UserID: uuid.New(), ClinicID: uuid.New(), Role: authorize.ClinicRoleReceptionist, IsMember: true}
}

func TestCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("normalizes optional fields", func(t *testing.T) {
		svc, store, bus := newService()
		sc := scope()
		store.On("CountByCPF", ctx, sc.ClinicID, "123.456.789-09").Return(1, nil)
		store.On("Create", ctx, mock.Anything).Return(nil)

		p, err := svc.Create(ctx, sc, PatientRequest{
			Name:      " Ana Souza ",
			CPF:       "123.456.789-09",
			Email:     ptr("Ana@Example.com"),
			Phone:     ptr("(11) 98765-4321"),
			BirthDate: ptr("1990-02-03"),
			Notes:     ptr(""),
		})
		require.NoError(t, err)
		assert.Equal(t, "Ana Souza", p.Name)
		assert.Equal(t, sc.ClinicID, p.ClinicID)
		assert.Equal(t, "ana@example.com", *p.Email)
		assert.Equal(t, "+5511987654321", *p.Phone)
		assert.Equal(t, "1990-02-03", *p.BirthDateString())
		assert.Nil(t, p.Notes)
		require.Len(t, bus.events, 1)
		assert.Equal(t, events.EntityPatient, bus.events[0].Entity)
	})

	tests := []struct {
		name string
		req  PatientRequest
		want error
	}{
		{"missing name", PatientRequest{CPF: "12345678909"}, ErrMissingFields},
		{"short cpf", PatientRequest{Name: "Ana", CPF: "1234"}, ErrInvalidCPF},
		{"long cpf", PatientRequest{Name: "Ana", CPF: "123.456.789-0900"}, ErrInvalidCPF},
		{"bad email", PatientRequest{Name: "Ana", CPF: "12345678909", Email: ptr("not-an-email")}, ErrInvalidEmail},
		{"bad phone", PatientRequest{Name: "Ana", CPF: "12345678909", Phone: ptr("123")}, ErrInvalidPhone},
		{"bad birth date", PatientRequest{Name: "Ana", CPF: "12345678909", BirthDate: ptr("03/02/1990")}, ErrInvalidBirth},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, store, _ := newService()

			_, err := svc.Create(ctx, scope(), tt.req)
			assert.ErrorIs(t, err, tt.want)
			assert.ErrorIs(t, err, apperr.ErrValidation)
			store.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}

	t.Run("store failure", func(t *testing.T) {
		svc, store, bus := newService()
		sc := scope()
		store.On("CountByCPF", ctx, sc.ClinicID, "12345678909").Return(0, nil)
		store.On("Create", ctx, mock.Anything).Return(errors.New("disk full"))

		_, err := svc.Create(ctx, sc, PatientRequest{Name: "Ana", CPF: "12345678909"})
		assert.ErrorIs(t, err, apperr.ErrStoreUnavailable)
		assert.Empty(t, bus.events)
	})
}

func TestUpdateReplacesEveryField(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newService()
	sc := scope()
	id := uuid.New()
	existing := &repo.Patient{ID: id, ClinicID: sc.ClinicID, Name: "Ana", CPF: "12345678909", Notes: ptr("allergic"), Email: ptr("ana@example.com")}
	store.On("Get", ctx, sc.ClinicID, id).Return(existing, nil)
	store.On("Update", ctx, existing).Return(nil)

	p, err := svc.Update(ctx, sc, id, PatientRequest{Name: "Ana Maria", CPF: "12345678909"})
	require.NoError(t, err)
	assert.Equal(t, "Ana Maria", p.Name)
	assert.Nil(t, p.Notes)
	assert.Nil(t, p.Email)
	store.AssertNotCalled(t, "CountByCPF", mock.Anything, mock.Anything, mock.Anything)
}

func TestGetOtherClinic(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newService()
	sc := scope()
	id := uuid.New()
	store.On("Get", ctx, sc.ClinicID, id).Return(nil, repo.ErrNotFound)

	_, err := svc.Get(ctx, sc, id)
	assert.ErrorIs(t, err, ErrPatientNotFound)
	assert.Equal(t, "patient not found", apperr.PublicMessage(err))
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	svc, store, bus := newService()
	sc := scope()
	id := uuid.New()
	store.On("Delete", ctx, sc.ClinicID, id).Return(nil)

	require.NoError(t, svc.Delete(ctx, sc, id))
	require.Len(t, bus.events, 1)
	assert.Equal(t, events.OpDeleted, bus.events[0].Op)
	assert.Equal(t, id, bus.events[0].ID)
}
