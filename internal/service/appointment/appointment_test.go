package appointment

import (
	"context"
	"errors"
	"testing"
	"time"

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

func (m *mockStore) List(ctx context.Context, clinicID uuid.UUID, f repo.AppointmentFilter) ([]*repo.AppointmentDetail, error) {
	args := m.Called(ctx, clinicID, f)
	out, _ := args.Get(0).([]*repo.AppointmentDetail)
	return out, args.Error(1)
}

func (m *mockStore) Get(ctx context.Context, clinicID, id uuid.UUID) (*repo.AppointmentDetail, error) {
	args := m.Called(ctx, clinicID, id)
	d, _ := args.Get(0).(*repo.AppointmentDetail)
	return d, args.Error(1)
}

func (m *mockStore) Create(ctx context.Context, a *repo.Appointment) error {
	args := m.Called(ctx, a)
	if args.Error(0) == nil && a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return args.Error(0)
}

func (m *mockStore) Update(ctx context.Context, a *repo.Appointment) error {
	return m.Called(ctx, a).Error(0)
}

func (m *mockStore) Delete(ctx context.Context, clinicID, id uuid.UUID) error {
	return m.Called(ctx, clinicID, id).Error(0)
}

type mockRef struct{ mock.Mock }

func (m *mockRef) Exists(ctx context.Context, clinicID, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, clinicID, id)
	return args.Bool(0), args.Error(1)
}

type recorder struct{ events []events.Event }

func (r *recorder) Publish(_ context.Context, e events.Event) { r.events = append(r.events, e) }

type fixture struct {
	store         *mockStore
	patients      *mockRef
	professionals *mockRef
	bus           *recorder
	svc           Service
}

func newFixture() *fixture {
	f := &fixture{store: &mockStore{}, patients: &mockRef{}, professionals: &mockRef{}, bus: &recorder{}}
	f.svc = New(f.store, f.patients, f.professionals, f.bus)
	return f
}

func receptionist() *reqctx.ClinicScope {
	return &reqctx.ClinicScope{UserID: uuid.New(), ClinicID: uuid.New(), Role: authorize.ClinicRoleReceptionist, IsMember: true}
}

func validCreate(patient, professional uuid.UUID) CreateRequest {
	return CreateRequest{
		Title:          "Consulta",
		PatientID:      patient.String(),
		ProfessionalID: professional.String(),
		StartTime:      "2024-05-01T10:00:00Z",
		EndTime:        "2024-05-01T11:00:00Z",
	}
}

func TestCreate(t *testing.T) {
	ctx := context.Background()
	patient, professional := uuid.New(), uuid.New()

	t.Run("defaults and joined result", func(t *testing.T) {
		f := newFixture()
		scope := receptionist()
		f.patients.On("Exists", ctx, scope.ClinicID, patient).Return(true, nil)
		f.professionals.On("Exists", ctx, scope.ClinicID, professional).Return(true, nil)
		f.store.On("Create", ctx, mock.MatchedBy(func(a *repo.Appointment) bool {
			return a.Status == "scheduled" && a.AttendanceStatus == "scheduled" && a.ClinicID == scope.ClinicID
		})).Return(nil)
		f.store.On("Get", ctx, scope.ClinicID, mock.Anything).Return(&repo.AppointmentDetail{
			Appointment: repo.Appointment{Title: "Consulta"},
			Patient:     repo.PatientSummary{ID: patient, Name: "Ana"},
		}, nil)

		d, err := f.svc.Create(ctx, scope, validCreate(patient, professional))
		require.NoError(t, err)
		assert.Equal(t, "Ana", d.Patient.Name)
		require.Len(t, f.bus.events, 1)
		assert.Equal(t, events.OpCreated, f.bus.events[0].Op)
		assert.Equal(t, scope.UserID, f.bus.events[0].ActorID)
	})

	invalid := []struct {
		name   string
		mutate func(*CreateRequest)
		want   error
	}{
		{"end before start", func(r *CreateRequest) { r.EndTime = "2024-05-01T09:00:00Z" }, ErrInvalidRange},
		{"end equals start", func(r *CreateRequest) { r.EndTime = r.StartTime }, ErrInvalidRange},
		{"missing title", func(r *CreateRequest) { r.Title = "  " }, ErrMissingFields},
		{"bad timestamp", func(r *CreateRequest) { r.StartTime = "tomorrow" }, ErrInvalidTime},
		{"bad patient id", func(r *CreateRequest) { r.PatientID = "42" }, ErrInvalidID},
		{"unknown attendance", func(r *CreateRequest) { s := "maybe"; r.AttendanceStatus = &s }, ErrInvalidAttendance},
	}
	for _, tt := range invalid {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			req := validCreate(patient, professional)
			tt.mutate(&req)

			_, err := f.svc.Create(ctx, receptionist(), req)
			assert.ErrorIs(t, err, tt.want)
			assert.ErrorIs(t, err, apperr.ErrValidation)
			f.store.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}

	t.Run("patient of another clinic", func(t *testing.T) {
		f := newFixture()
		scope := receptionist()
		f.patients.On("Exists", ctx, scope.ClinicID, patient).Return(false, nil)

		_, err := f.svc.Create(ctx, scope, validCreate(patient, professional))
		assert.ErrorIs(t, err, apperr.ErrCrossTenantReference)
		f.store.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		assert.Empty(t, f.bus.events)
	})

	t.Run("professional of another clinic", func(t *testing.T) {
		f := newFixture()
		scope := receptionist()
		f.patients.On("Exists", ctx, scope.ClinicID, patient).Return(true, nil)
		f.professionals.On("Exists", ctx, scope.ClinicID, professional).Return(false, nil)

		_, err := f.svc.Create(ctx, scope, validCreate(patient, professional))
		assert.ErrorIs(t, err, ErrForeignProfessional)
	})

	t.Run("professional books for a colleague", func(t *testing.T) {
		f := newFixture()
		own := uuid.New()
		scope := &reqctx.ClinicScope{UserID: uuid.New(), ClinicID: uuid.New(), Role: authorize.ClinicRoleProfessional, ProfessionalID: &own, IsMember: true}

		_, err := f.svc.Create(ctx, scope, validCreate(patient, professional))
		assert.ErrorIs(t, err, apperr.ErrForbidden)
	})

	t.Run("professional without a linked record", func(t *testing.T) {
		f := newFixture()

		_, err := f.svc.Create(ctx, unlinkedProfessional(), validCreate(patient, professional))
		assert.ErrorIs(t, err, ErrNoLinkedProfessional)
		f.store.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})
}

func unlinkedProfessional() *reqctx.ClinicScope {
	return &reqctx.ClinicScope{UserID: uuid.New(), ClinicID: uuid.New(), Role: authorize.ClinicRoleProfessional, IsMember: true}
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()
	scope := receptionist()
	id := uuid.New()
	start := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	existing := func() *repo.AppointmentDetail {
		return &repo.AppointmentDetail{Appointment: repo.Appointment{
			ID: id, ClinicID: scope.ClinicID, PatientID: uuid.New(), ProfessionalID: uuid.New(),
			Title: "Consulta", StartTime: start, EndTime: start.Add(time.Hour),
			Status: "scheduled", AttendanceStatus: "scheduled",
		}}
	}

	t.Run("single time is not range checked", func(t *testing.T) {
		f := newFixture()
		f.store.On("Get", ctx, scope.ClinicID, id).Return(existing(), nil)
		f.store.On("Update", ctx, mock.MatchedBy(func(a *repo.Appointment) bool {
			return a.StartTime.Equal(start.Add(3 * time.Hour))
		})).Return(nil)

		later := "2024-05-01T13:00:00Z"
		_, err := f.svc.Update(ctx, scope, id, UpdateRequest{StartTime: &later})
		require.NoError(t, err)
		require.Len(t, f.bus.events, 1)
		assert.Equal(t, events.OpUpdated, f.bus.events[0].Op)
	})

	t.Run("both times are range checked", func(t *testing.T) {
		f := newFixture()
		f.store.On("Get", ctx, scope.ClinicID, id).Return(existing(), nil)

		s, e := "2024-05-01T13:00:00Z", "2024-05-01T12:00:00Z"
		_, err := f.svc.Update(ctx, scope, id, UpdateRequest{StartTime: &s, EndTime: &e})
		assert.ErrorIs(t, err, ErrInvalidRange)
		f.store.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("new patient must be in the clinic", func(t *testing.T) {
		f := newFixture()
		other := uuid.New()
		f.store.On("Get", ctx, scope.ClinicID, id).Return(existing(), nil)
		f.patients.On("Exists", ctx, scope.ClinicID, other).Return(false, nil)

		pid := other.String()
		_, err := f.svc.Update(ctx, scope, id, UpdateRequest{PatientID: &pid})
		assert.ErrorIs(t, err, ErrForeignPatient)
	})

	t.Run("empty body", func(t *testing.T) {
		_, err := newFixture().svc.Update(ctx, scope, id, UpdateRequest{})
		assert.ErrorIs(t, err, ErrEmptyUpdate)
	})

	t.Run("missing appointment", func(t *testing.T) {
		f := newFixture()
		f.store.On("Get", ctx, scope.ClinicID, id).Return(nil, repo.ErrNotFound)

		title := "x"
		_, err := f.svc.Update(ctx, scope, id, UpdateRequest{Title: &title})
		assert.ErrorIs(t, err, apperr.ErrNotFound)
	})
}

func TestUpdateAttendanceStatus(t *testing.T) {
	ctx := context.Background()
	scope := receptionist()
	id := uuid.New()

	f := newFixture()
	f.store.On("Get", ctx, scope.ClinicID, id).Return(&repo.AppointmentDetail{Appointment: repo.Appointment{ID: id, ClinicID: scope.ClinicID}}, nil)
	f.store.On("Update", ctx, mock.MatchedBy(func(a *repo.Appointment) bool {
		return a.AttendanceStatus == "no_show"
	})).Return(nil)

	_, err := f.svc.UpdateAttendanceStatus(ctx, scope, id, "no_show")
	require.NoError(t, err)

	_, err = f.svc.UpdateAttendanceStatus(ctx, scope, id, "late")
	assert.ErrorIs(t, err, ErrInvalidAttendance)
}

func TestList(t *testing.T) {
	ctx := context.Background()

	t.Run("filters are parsed", func(t *testing.T) {
		f := newFixture()
		scope := receptionist()
		pid := uuid.New()
		f.store.On("List", ctx, scope.ClinicID, mock.MatchedBy(func(flt repo.AppointmentFilter) bool {
			return flt.StartDate != nil && flt.StartDate.Equal(time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)) &&
				flt.PatientID != nil && *flt.PatientID == pid && flt.Status == "scheduled"
		})).Return(nil, nil)

		out, err := f.svc.List(ctx, scope, ListRequest{StartDate: "2024-05-01", PatientID: pid.String(), Status: "scheduled"})
		require.NoError(t, err)
		assert.NotNil(t, out)
	})

	t.Run("professional sees only own", func(t *testing.T) {
		f := newFixture()
		own := uuid.New()
		scope := &reqctx.ClinicScope{UserID: uuid.New(), ClinicID: uuid.New(), Role: authorize.ClinicRoleProfessional, ProfessionalID: &own, IsMember: true}
		f.store.On("List", ctx, scope.ClinicID, mock.MatchedBy(func(flt repo.AppointmentFilter) bool {
			return flt.ProfessionalID != nil && *flt.ProfessionalID == own
		})).Return([]*repo.AppointmentDetail{}, nil)

		_, err := f.svc.List(ctx, scope, ListRequest{ProfessionalID: uuid.NewString()})
		require.NoError(t, err)
		f.store.AssertExpectations(t)
	})

	t.Run("professional without a linked record sees nothing", func(t *testing.T) {
		f := newFixture()

		out, err := f.svc.List(ctx, unlinkedProfessional(), ListRequest{})
		require.NoError(t, err)
		assert.Empty(t, out)
		assert.NotNil(t, out)
		f.store.AssertNotCalled(t, "List", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("bad date", func(t *testing.T) {
		_, err := newFixture().svc.List(ctx, receptionist(), ListRequest{EndDate: "May 1st"})
		assert.ErrorIs(t, err, ErrInvalidDate)
	})
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	scope := receptionist()
	id := uuid.New()

	f := newFixture()
	f.store.On("Delete", ctx, scope.ClinicID, id).Return(nil).Once()
	require.NoError(t, f.svc.Delete(ctx, scope, id))
	require.Len(t, f.bus.events, 1)
	assert.Equal(t, events.OpDeleted, f.bus.events[0].Op)

	f2 := newFixture()
	f2.store.On("Delete", ctx, scope.ClinicID, id).Return(repo.ErrNotFound)
	assert.ErrorIs(t, f2.svc.Delete(ctx, scope, id), ErrNotFound)

	f3 := newFixture()
	f3.store.On("Delete", ctx, scope.ClinicID, id).Return(errors.New("conn reset"))
	assert.ErrorIs(t, f3.svc.Delete(ctx, scope, id), apperr.ErrStoreUnavailable)

	unlinked := unlinkedProfessional()
	f4 := newFixture()
	f4.store.On("Get", ctx, unlinked.ClinicID, id).Return(&repo.AppointmentDetail{
		Appointment: repo.Appointment{ID: id, ClinicID: unlinked.ClinicID, ProfessionalID: uuid.New()},
	}, nil)
	assert.ErrorIs(t, f4.svc.Delete(ctx, unlinked, id), ErrNoLinkedProfessional)
	f4.store.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything, mock.Anything)
}

func TestParseAttendanceStatus(t *testing.T) {
	for _, s := range []string{"scheduled", "attended", "no_show", "cancelled", "rescheduled"} {
		got, err := ParseAttendanceStatus(s)
		require.NoError(t, err)
		assert.Equal(t, AttendanceStatus(s), got)
	}
	_, err := ParseAttendanceStatus("canceled")
	assert.Error(t, err)
}
