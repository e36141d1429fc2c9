package professional

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/Alijeyrad/clinicflow_backend/internal/repo"
	"github.com/Alijeyrad/clinicflow_backend/pkg/apperr"
	"github.com/Alijeyrad/clinicflow_backend/pkg/constants"
	"github.com/Alijeyrad/clinicflow_backend/pkg/events"
	"github.com/Alijeyrad/clinicflow_backend/pkg/reqctx"
)

var reColor = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

type Store interface {
	List(ctx context.Context, clinicID uuid.UUID) ([]*repo.Professional, error)
	Get(ctx context.Context, clinicID, id uuid.UUID) (*repo.Professional, error)
	Create(ctx context.Context, p *repo.Professional) error
	Update(ctx context.Context, p *repo.Professional) error
	Delete(ctx context.Context, clinicID, id uuid.UUID) error
}

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

type CreateRequest struct {
	Name      string `json:"name"`
	Specialty string `json:"specialty"`
	Color     string `json:"color"`
}

type UpdateRequest struct {
	Name      *string `json:"name"`
	Specialty *string `json:"specialty"`
	Color     *string `json:"color"`
}

// ---------------------------------------------------------------------------
// Service interface
// ---------------------------------------------------------------------------

type Service interface {
	List(ctx context.Context, scope *reqctx.ClinicScope) ([]*repo.Professional, error)
	Get(ctx context.Context, scope *reqctx.ClinicScope, id uuid.UUID) (*repo.Professional, error)
	Create(ctx context.Context, scope *reqctx.ClinicScope, req CreateRequest) (*repo.Professional, error)
	Update(ctx context.Context, scope *reqctx.ClinicScope, id uuid.UUID, req UpdateRequest) (*repo.Professional, error)
	Delete(ctx context.Context, scope *reqctx.ClinicScope, id uuid.UUID) error
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type professionalService struct {
	store Store
	bus   events.Publisher
}

func New(store Store, bus events.Publisher) Service {
	return &professionalService{store: store, bus: bus}
}

func (s *professionalService) List(ctx context.Context, scope *reqctx.ClinicScope) ([]*repo.Professional, error) {
	out, err := s.store.List(ctx, scope.ClinicID)
	if err != nil {
		return nil, apperr.Store("list professionals", err)
	}
	if out == nil {
		out = []*repo.Professional{}
	}
	return out, nil
}

func (s *professionalService) Get(ctx context.Context, scope *reqctx.ClinicScope, id uuid.UUID) (*repo.Professional, error) {
	p, err := s.store.Get(ctx, scope.ClinicID, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrProfessionalNotFound
		}
		return nil, apperr.Store("get professional", err)
	}
	return p, nil
}

func (s *professionalService) Create(ctx context.Context, scope *reqctx.ClinicScope, req CreateRequest) (*repo.Professional, error) {
	name := strings.TrimSpace(req.Name)
	specialty := strings.TrimSpace(req.Specialty)
	if name == "" || specialty == "" {
		return nil, ErrMissingFields
	}
	color, err := parseColor(req.Color)
	if err != nil {
		return nil, err
	}

	p := &repo.Professional{
		ClinicID:  scope.ClinicID,
		Name:      name,
		Specialty: specialty,
		Color:     color,
	}
	if err := s.store.Create(ctx, p); err != nil {
		return nil, apperr.Store("create professional", err)
	}

	s.publish(ctx, scope, events.OpCreated, p.ID)
	return p, nil
}

func (s *professionalService) Update(ctx context.Context, scope *reqctx.ClinicScope, id uuid.UUID, req UpdateRequest) (*repo.Professional, error) {
	if req.Name == nil && req.Specialty == nil && req.Color == nil {
		return nil, ErrEmptyUpdate
	}

	p, err := s.Get(ctx, scope, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		if p.Name = strings.TrimSpace(*req.Name); p.Name == "" {
			return nil, ErrMissingFields
		}
	}
	if req.Specialty != nil {
		if p.Specialty = strings.TrimSpace(*req.Specialty); p.Specialty == "" {
			return nil, ErrMissingFields
		}
	}
	if req.Color != nil {
		if p.Color, err = parseColor(*req.Color); err != nil {
			return nil, err
		}
	}

	if err := s.store.Update(ctx, p); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrProfessionalNotFound
		}
		return nil, apperr.Store("update professional", err)
	}

	s.publish(ctx, scope, events.OpUpdated, p.ID)
	return p, nil
}

// Delete removes the professional. Their appointments go with them.
func (s *professionalService) Delete(ctx context.Context, scope *reqctx.ClinicScope, id uuid.UUID) error {
	if err := s.store.Delete(ctx, scope.ClinicID, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrProfessionalNotFound
		}
		return apperr.Store("delete professional", err)
	}

	s.publish(ctx, scope, events.OpDeleted, id)
	return nil
}

func (s *professionalService) publish(ctx context.Context, scope *reqctx.ClinicScope, op events.Op, id uuid.UUID) {
	s.bus.Publish(ctx, events.Event{
		ClinicID: scope.ClinicID,
		Entity:   events.EntityProfessional,
		Op:       op,
		ID:       id,
		ActorID:  scope.UserID,
	})
}

// parseColor defaults a blank color and upper-cases the hex digits.
func parseColor(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return constants.DefaultProfessionalColor, nil
	}
	if !reColor.MatchString(s) {
		return "", ErrInvalidColor
	}
	return strings.ToUpper(s), nil
}
