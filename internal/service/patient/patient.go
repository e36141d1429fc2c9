package patient

import (
	"context"
	"errors"
	"log/slog"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/nyaruka/phonenumbers"

	"github.com/Alijeyrad/clinicflow_backend/internal/repo"
	"github.com/Alijeyrad/clinicflow_backend/pkg/apperr"
	"github.com/Alijeyrad/clinicflow_backend/pkg/constants"
	"github.com/Alijeyrad/clinicflow_backend/pkg/events"
	"github.com/Alijeyrad/clinicflow_backend/pkg/reqctx"
)

const (
	minCPFLength = 11
	maxCPFLength = 14
)

// ---------------------------------------------------------------------------
// Stores
// ---------------------------------------------------------------------------

type Store interface {
	List(ctx context.Context, clinicID uuid.UUID) ([]*repo.Patient, error)
	Get(ctx context.Context, clinicID, id uuid.UUID) (*repo.Patient, error)
	CountByCPF(ctx context.Context, clinicID uuid.UUID, cpf string) (int, error)
	Create(ctx context.Context, p *repo.Patient) error
	Update(ctx context.Context, p *repo.Patient) error
	Delete(ctx context.Context, clinicID, id uuid.UUID) error
}

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

type Config struct {
	// PhoneRegion is the ISO region used for numbers without a country code.
	PhoneRegion string
}

// PatientRequest is the body of create and of update, which replaces every
// field.
type PatientRequest struct {
	Name      string  `json:"name"`
	CPF       string  `json:"cpf"`
	Email     *string `json:"email"`
	Phone     *string `json:"phone"`
	BirthDate *string `json:"birth_date"`
	Notes     *string `json:"notes"`
}

// ---------------------------------------------------------------------------
// Service interface
// ---------------------------------------------------------------------------

type Service interface {
	List(ctx context.Context, scope *reqctx.ClinicScope) ([]*repo.Patient, error)
	Get(ctx context.Context, scope *reqctx.ClinicScope, id uuid.UUID) (*repo.Patient, error)
	Create(ctx context.Context, scope *reqctx.ClinicScope, req PatientRequest) (*repo.Patient, error)
	Update(ctx context.Context, scope *reqctx.ClinicScope, id uuid.UUID, req PatientRequest) (*repo.Patient, error)
	Delete(ctx context.Context, scope *reqctx.ClinicScope, id uuid.UUID) error
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type patientService struct {
	store  Store
	bus    events.Publisher
	region string
}

func New(store Store, bus events.Publisher, cfg Config) Service {
	region := strings.ToUpper(strings.TrimSpace(cfg.PhoneRegion))
	if region == "" {
		region = constants.DefaultPhoneRegion
	}
	return &patientService{store: store, bus: bus, region: region}
}

func (s *patientService) List(ctx context.Context, scope *reqctx.ClinicScope) ([]*repo.Patient, error) {
	out, err := s.store.List(ctx, scope.ClinicID)
	if err != nil {
		return nil, apperr.Store("list patients", err)
	}
	if out == nil {
		out = []*repo.Patient{}
	}
	return out, nil
}

func (s *patientService) Get(ctx context.Context, scope *reqctx.ClinicScope, id uuid.UUID) (*repo.Patient, error) {
	p, err := s.store.Get(ctx, scope.ClinicID, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrPatientNotFound
		}
		return nil, apperr.Store("get patient", err)
	}
	return p, nil
}

func (s *patientService) Create(ctx context.Context, scope *reqctx.ClinicScope, req PatientRequest) (*repo.Patient, error) {
	p := &repo.Patient{ClinicID: scope.ClinicID}
	if err := s.apply(p, req); err != nil {
		return nil, err
	}
	s.noteDuplicateCPF(ctx, p)

	if err := s.store.Create(ctx, p); err != nil {
		return nil, apperr.Store("create patient", err)
	}

	s.publish(ctx, scope, events.OpCreated, p.ID)
	return p, nil
}

func (s *patientService) Update(ctx context.Context, scope *reqctx.ClinicScope, id uuid.UUID, req PatientRequest) (*repo.Patient, error) {
	p, err := s.Get(ctx, scope, id)
	if err != nil {
		return nil, err
	}
	cpf := p.CPF
	if err := s.apply(p, req); err != nil {
		return nil, err
	}
	if p.CPF != cpf {
		s.noteDuplicateCPF(ctx, p)
	}

	if err := s.store.Update(ctx, p); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrPatientNotFound
		}
		return nil, apperr.Store("update patient", err)
	}

	s.publish(ctx, scope, events.OpUpdated, p.ID)
	return p, nil
}

func (s *patientService) Delete(ctx context.Context, scope *reqctx.ClinicScope, id uuid.UUID) error {
	if err := s.store.Delete(ctx, scope.ClinicID, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrPatientNotFound
		}
		return apperr.Store("delete patient", err)
	}

	s.publish(ctx, scope, events.OpDeleted, id)
	return nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// apply validates req and copies it onto p, replacing every field.
func (s *patientService) apply(p *repo.Patient, req PatientRequest) error {
	name := strings.TrimSpace(req.Name)
	cpf := strings.TrimSpace(req.CPF)
	if name == "" || cpf == "" {
		return ErrMissingFields
	}
	if n := utf8.RuneCountInString(cpf); n < minCPFLength || n > maxCPFLength {
		return ErrInvalidCPF
	}

	email, err := normalizeEmail(req.Email)
	if err != nil {
		return err
	}
	phone, err := s.normalizePhone(req.Phone)
	if err != nil {
		return err
	}
	birth, err := parseBirthDate(req.BirthDate)
	if err != nil {
		return err
	}

	p.Name = name
	p.CPF = cpf
	p.Email = email
	p.Phone = phone
	p.BirthDate = birth
	p.Notes = blankToNil(req.Notes)
	return nil
}

// normalizePhone returns the number in E.164.
func (s *patientService) normalizePhone(v *string) (*string, error) {
	raw := blankToNil(v)
	if raw == nil {
		return nil, nil
	}
	num, err := phonenumbers.Parse(*raw, s.region)
	if err != nil || !phonenumbers.IsValidNumber(num) {
		return nil, ErrInvalidPhone
	}
	e164 := phonenumbers.Format(num, phonenumbers.E164)
	return &e164, nil
}

// noteDuplicateCPF logs when the clinic already has a patient with p's cpf.
// Duplicates are allowed.
func (s *patientService) noteDuplicateCPF(ctx context.Context, p *repo.Patient) {
	n, err := s.store.CountByCPF(ctx, p.ClinicID, p.CPF)
	if err != nil {
		slog.WarnContext(ctx, "patient: cpf lookup failed", "clinic_id", p.ClinicID, "err", err)
		return
	}
	if n > 0 {
		slog.DebugContext(ctx, "patient: cpf already registered in clinic", "clinic_id", p.ClinicID, "count", n)
	}
}

func (s *patientService) publish(ctx context.Context, scope *reqctx.ClinicScope, op events.Op, id uuid.UUID) {
	s.bus.Publish(ctx, events.Event{
		ClinicID: scope.ClinicID,
		Entity:   events.EntityPatient,
		Op:       op,
		ID:       id,
		ActorID:  scope.UserID,
	})
}

func normalizeEmail(v *string) (*string, error) {
	raw := blankToNil(v)
	if raw == nil {
		return nil, nil
	}
	addr, err := mail.ParseAddress(*raw)
	if err != nil || addr.Address != *raw {
		return nil, ErrInvalidEmail
	}
	lower := strings.ToLower(addr.Address)
	return &lower, nil
}

func parseBirthDate(v *string) (*time.Time, error) {
	raw := blankToNil(v)
	if raw == nil {
		return nil, nil
	}
	t, err := time.Parse(repo.DateLayout, *raw)
	if err != nil {
		return nil, ErrInvalidBirth
	}
	return &t, nil
}

func blankToNil(v *string) *string {
	if v == nil {
		return nil
	}
	s := strings.TrimSpace(*v)
	if s == "" {
		return nil
	}
	return &s
}
