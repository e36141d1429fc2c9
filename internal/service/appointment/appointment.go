package appointment

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Alijeyrad/clinicflow_backend/internal/repo"
	"github.com/Alijeyrad/clinicflow_backend/pkg/apperr"
	"github.com/Alijeyrad/clinicflow_backend/pkg/events"
	"github.com/Alijeyrad/clinicflow_backend/pkg/reqctx"
)

// ---------------------------------------------------------------------------
// Stores
// ---------------------------------------------------------------------------

type Store interface {
	List(ctx context.Context, clinicID uuid.UUID, f repo.AppointmentFilter) ([]*repo.AppointmentDetail, error)
	Get(ctx context.Context, clinicID, id uuid.UUID) (*repo.AppointmentDetail, error)
	Create(ctx context.Context, a *repo.Appointment) error
	Update(ctx context.Context, a *repo.Appointment) error
	Delete(ctx context.Context, clinicID, id uuid.UUID) error
}

// Referencer answers whether id is a row of the given clinic.
type Referencer interface {
	Exists(ctx context.Context, clinicID, id uuid.UUID) (bool, error)
}

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

// Times are RFC3339 strings as sent by clients.
type CreateRequest struct {
	Title            string  `json:"title"`
	PatientID        string  `json:"patient_id"`
	ProfessionalID   string  `json:"professional_id"`
	StartTime        string  `json:"start_time"`
	EndTime          string  `json:"end_time"`
	Status           *string `json:"status"`
	AttendanceStatus *string `json:"attendance_status"`
}

// UpdateRequest is partial; nil fields are left unchanged.
type UpdateRequest struct {
	Title            *string `json:"title"`
	PatientID        *string `json:"patient_id"`
	ProfessionalID   *string `json:"professional_id"`
	StartTime        *string `json:"start_time"`
	EndTime          *string `json:"end_time"`
	Status           *string `json:"status"`
	AttendanceStatus *string `json:"attendance_status"`
}

func (r UpdateRequest) empty() bool {
	return r.Title == nil && r.PatientID == nil && r.ProfessionalID == nil &&
		r.StartTime == nil && r.EndTime == nil && r.Status == nil && r.AttendanceStatus == nil
}

// ListRequest mirrors the query string. Empty fields do not filter.
type ListRequest struct {
	StartDate      string `query:"start_date"`
	EndDate        string `query:"end_date"`
	PatientID      string `query:"patient_id"`
	ProfessionalID string `query:"professional_id"`
	Status         string `query:"status"`
}

// ---------------------------------------------------------------------------
// Service interface
// ---------------------------------------------------------------------------

type Service interface {
	List(ctx context.Context, scope *reqctx.ClinicScope, req ListRequest) ([]*repo.AppointmentDetail, error)
	Get(ctx context.Context, scope *reqctx.ClinicScope, id uuid.UUID) (*repo.AppointmentDetail, error)
	Create(ctx context.Context, scope *reqctx.ClinicScope, req CreateRequest) (*repo.AppointmentDetail, error)
	Update(ctx context.Context, scope *reqctx.ClinicScope, id uuid.UUID, req UpdateRequest) (*repo.AppointmentDetail, error)
	UpdateAttendanceStatus(ctx context.Context, scope *reqctx.ClinicScope, id uuid.UUID, status string) (*repo.AppointmentDetail, error)
	Delete(ctx context.Context, scope *reqctx.ClinicScope, id uuid.UUID) error
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type appointmentService struct {
	store         Store
	patients      Referencer
	professionals Referencer
	bus           events.Publisher
	now           func() time.Time
}

func New(store Store, patients, professionals Referencer, bus events.Publisher) Service {
	return &appointmentService{
		store:         store,
		patients:      patients,
		professionals: professionals,
		bus:           bus,
		now:           time.Now,
	}
}

// List returns the clinic's appointments ordered by start time. A
// professional only ever sees their own; one without a linked professional
// sees none.
func (s *appointmentService) List(ctx context.Context, scope *reqctx.ClinicScope, req ListRequest) ([]*repo.AppointmentDetail, error) {
	var f repo.AppointmentFilter
	var err error

	if f.StartDate, err = parseDate(req.StartDate); err != nil {
		return nil, err
	}
	if f.EndDate, err = parseDate(req.EndDate); err != nil {
		return nil, err
	}
	if f.PatientID, err = parseOptionalID(req.PatientID); err != nil {
		return nil, err
	}
	if f.ProfessionalID, err = parseOptionalID(req.ProfessionalID); err != nil {
		return nil, err
	}
	if req.Status != "" {
		st, err := ParseStatus(req.Status)
		if err != nil {
			return nil, err
		}
		f.Status = string(st)
	}
	if own, restricted := scope.OwnProfessional(); restricted {
		if own == nil {
			return []*repo.AppointmentDetail{}, nil
		}
		f.ProfessionalID = own
	}

	out, err := s.store.List(ctx, scope.ClinicID, f)
	if err != nil {
		return nil, apperr.Store("list appointments", err)
	}
	if out == nil {
		out = []*repo.AppointmentDetail{}
	}
	return out, nil
}

func (s *appointmentService) Get(ctx context.Context, scope *reqctx.ClinicScope, id uuid.UUID) (*repo.AppointmentDetail, error) {
	d, err := s.get(ctx, scope.ClinicID, id)
	if err != nil {
		return nil, err
	}
	if err := checkOwner(scope, d.ProfessionalID); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *appointmentService) Create(ctx context.Context, scope *reqctx.ClinicScope, req CreateRequest) (*repo.AppointmentDetail, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" || req.PatientID == "" || req.ProfessionalID == "" || req.StartTime == "" || req.EndTime == "" {
		return nil, ErrMissingFields
	}

	patientID, err := parseID(req.PatientID)
	if err != nil {
		return nil, err
	}
	professionalID, err := parseID(req.ProfessionalID)
	if err != nil {
		return nil, err
	}
	start, err := parseTime(req.StartTime)
	if err != nil {
		return nil, err
	}
	end, err := parseTime(req.EndTime)
	if err != nil {
		return nil, err
	}
	if !start.Before(end) {
		return nil, ErrInvalidRange
	}

	a := &repo.Appointment{
		ClinicID:         scope.ClinicID,
		PatientID:        patientID,
		ProfessionalID:   professionalID,
		Title:            title,
		StartTime:        start,
		EndTime:          end,
		Status:           string(StatusScheduled),
		AttendanceStatus: string(AttendanceScheduled),
	}
	if req.Status != nil {
		st, err := ParseStatus(*req.Status)
		if err != nil {
			return nil, err
		}
		a.Status = string(st)
	}
	if req.AttendanceStatus != nil {
		st, err := ParseAttendanceStatus(*req.AttendanceStatus)
		if err != nil {
			return nil, err
		}
		a.AttendanceStatus = string(st)
	}

	if err := checkOwner(scope, a.ProfessionalID); err != nil {
		return nil, err
	}
	if err := s.checkReferences(ctx, scope.ClinicID, &a.PatientID, &a.ProfessionalID); err != nil {
		return nil, err
	}

	if err := s.store.Create(ctx, a); err != nil {
		if repo.IsForeignKeyViolation(err) {
			return nil, apperr.CrossTenant("referenced record does not exist")
		}
		return nil, apperr.Store("create appointment", err)
	}

	s.publish(ctx, scope, events.OpCreated, a.ID)
	return s.get(ctx, scope.ClinicID, a.ID)
}

// Update applies a partial change. The time range is only checked when
// both ends are supplied.
func (s *appointmentService) Update(ctx context.Context, scope *reqctx.ClinicScope, id uuid.UUID, req UpdateRequest) (*repo.AppointmentDetail, error) {
	if req.empty() {
		return nil, ErrEmptyUpdate
	}

	current, err := s.Get(ctx, scope, id)
	if err != nil {
		return nil, err
	}
	a := current.Appointment

	var patientRef, professionalRef *uuid.UUID

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return nil, apperr.Validation("title cannot be empty")
		}
		a.Title = title
	}
	if req.PatientID != nil {
		if a.PatientID, err = parseID(*req.PatientID); err != nil {
			return nil, err
		}
		patientRef = &a.PatientID
	}
	if req.ProfessionalID != nil {
		if a.ProfessionalID, err = parseID(*req.ProfessionalID); err != nil {
			return nil, err
		}
		if err := checkOwner(scope, a.ProfessionalID); err != nil {
			return nil, err
		}
		professionalRef = &a.ProfessionalID
	}
	if req.StartTime != nil {
		if a.StartTime, err = parseTime(*req.StartTime); err != nil {
			return nil, err
		}
	}
	if req.EndTime != nil {
		if a.EndTime, err = parseTime(*req.EndTime); err != nil {
			return nil, err
		}
	}
	if req.StartTime != nil && req.EndTime != nil && !a.StartTime.Before(a.EndTime) {
		return nil, ErrInvalidRange
	}
	if req.Status != nil {
		st, err := ParseStatus(*req.Status)
		if err != nil {
			return nil, err
		}
		a.Status = string(st)
	}
	if req.AttendanceStatus != nil {
		st, err := ParseAttendanceStatus(*req.AttendanceStatus)
		if err != nil {
			return nil, err
		}
		a.AttendanceStatus = string(st)
	}

	if err := s.checkReferences(ctx, scope.ClinicID, patientRef, professionalRef); err != nil {
		return nil, err
	}

	return s.save(ctx, scope, &a)
}

func (s *appointmentService) UpdateAttendanceStatus(ctx context.Context, scope *reqctx.ClinicScope, id uuid.UUID, status string) (*repo.AppointmentDetail, error) {
	st, err := ParseAttendanceStatus(status)
	if err != nil {
		return nil, err
	}

	current, err := s.Get(ctx, scope, id)
	if err != nil {
		return nil, err
	}
	a := current.Appointment
	a.AttendanceStatus = string(st)

	return s.save(ctx, scope, &a)
}

func (s *appointmentService) Delete(ctx context.Context, scope *reqctx.ClinicScope, id uuid.UUID) error {
	if _, restricted := scope.OwnProfessional(); restricted {
		if _, err := s.Get(ctx, scope, id); err != nil {
			return err
		}
	}

	if err := s.store.Delete(ctx, scope.ClinicID, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrNotFound
		}
		return apperr.Store("delete appointment", err)
	}

	s.publish(ctx, scope, events.OpDeleted, id)
	return nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func (s *appointmentService) get(ctx context.Context, clinicID, id uuid.UUID) (*repo.AppointmentDetail, error) {
	d, err := s.store.Get(ctx, clinicID, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, apperr.Store("get appointment", err)
	}
	return d, nil
}

func (s *appointmentService) save(ctx context.Context, scope *reqctx.ClinicScope, a *repo.Appointment) (*repo.AppointmentDetail, error) {
	if err := s.store.Update(ctx, a); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, apperr.Store("update appointment", err)
	}

	s.publish(ctx, scope, events.OpUpdated, a.ID)
	return s.get(ctx, scope.ClinicID, a.ID)
}

// checkReferences verifies that the given participants belong to clinicID.
// Nil ids are skipped.
func (s *appointmentService) checkReferences(ctx context.Context, clinicID uuid.UUID, patientID, professionalID *uuid.UUID) error {
	if patientID != nil {
		ok, err := s.patients.Exists(ctx, clinicID, *patientID)
		if err != nil {
			return apperr.Store("check patient", err)
		}
		if !ok {
			return ErrForeignPatient
		}
	}
	if professionalID != nil {
		ok, err := s.professionals.Exists(ctx, clinicID, *professionalID)
		if err != nil {
			return apperr.Store("check professional", err)
		}
		if !ok {
			return ErrForeignProfessional
		}
	}
	return nil
}

func (s *appointmentService) publish(ctx context.Context, scope *reqctx.ClinicScope, op events.Op, id uuid.UUID) {
	s.bus.Publish(ctx, events.Event{
		ClinicID: scope.ClinicID,
		Entity:   events.EntityAppointment,
		Op:       op,
		ID:       id,
		ActorID:  scope.UserID,
		At:       s.now().UTC(),
	})
}

func checkOwner(scope *reqctx.ClinicScope, professionalID uuid.UUID) error {
	own, restricted := scope.OwnProfessional()
	switch {
	case !restricted:
		return nil
	case own == nil:
		return ErrNoLinkedProfessional
	case *own != professionalID:
		return ErrOtherProfessional
	}
	return nil
}

func parseID(s string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(s))
	if err != nil {
		return uuid.Nil, ErrInvalidID
	}
	return id, nil
}

func parseOptionalID(s string) (*uuid.UUID, error) {
	if s == "" {
		return nil, nil
	}
	id, err := parseID(s)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, ErrInvalidTime
	}
	return t.UTC(), nil
}

// parseDate accepts an RFC3339 timestamp or a bare date (midnight UTC).
func parseDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		t = t.UTC()
		return &t, nil
	}
	t, err := time.Parse(repo.DateLayout, s)
	if err != nil {
		return nil, ErrInvalidDate
	}
	return &t, nil
}
