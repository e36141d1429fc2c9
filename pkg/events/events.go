// Package events carries change notifications between the API, the
// activity log worker and connected UIs. Delivery is best effort: events
// tell listeners that something changed, the store stays authoritative.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Alijeyrad/clinicflow_backend/pkg/constants"
)

type Entity string

const (
	EntityClinic       Entity = "clinic"
	EntityUserRole     Entity = "user_role"
	EntityUser         Entity = "user"
	EntityAPIToken     Entity = "api_token"
	EntityProfessional Entity = "professional"
	EntityPatient      Entity = "patient"
	EntityAppointment  Entity = "appointment"
)

type Op string

const (
	OpCreated Op = "created"
	OpUpdated Op = "updated"
	OpDeleted Op = "deleted"
)

// AllSubjects matches every event of every clinic.
const AllSubjects = constants.EventSubjectRoot + ".>"

var ErrDisabled = errors.New("events: no message broker configured")

type Event struct {
	ClinicID uuid.UUID `json:"clinic_id"`
	Entity   Entity    `json:"entity"`
	Op       Op        `json:"op"`
	ID       uuid.UUID `json:"id"`
	ActorID  uuid.UUID `json:"actor_id"`
	At       time.Time `json:"at"`
}

// Subject is clinicflow.<clinic_id>.<entity>.<op>.
func (e Event) Subject() string {
	return fmt.Sprintf("%s.%s.%s.%s", constants.EventSubjectRoot, e.ClinicID, e.Entity, e.Op)
}

// ClinicSubjects matches every event of one clinic.
func ClinicSubjects(clinicID uuid.UUID) string {
	return fmt.Sprintf("%s.%s.>", constants.EventSubjectRoot, clinicID)
}

func Encode(e Event) ([]byte, error) {
	return json.Marshal(e)
}

func Decode(data []byte) (Event, error) {
	var e Event
	if err := json.Unmarshal(data, &e); err != nil {
		return Event{}, fmt.Errorf("events: decode: %w", err)
	}
	if e.ClinicID == uuid.Nil || e.Entity == "" || e.Op == "" {
		return Event{}, errors.New("events: decode: missing clinic, entity or op")
	}
	return e, nil
}

// Publisher never fails the caller; implementations log delivery errors.
type Publisher interface {
	Publish(ctx context.Context, e Event)
}

// Subscription is released with Unsubscribe.
type Subscription interface {
	Unsubscribe() error
}

type Subscriber interface {
	Subscribe(subject string, fn func(Event)) (Subscription, error)
}

// Bus publishes and subscribes.
type Bus interface {
	Publisher
	Subscriber
}

// Nop drops every event. It is the bus when NATS is not configured.
type Nop struct{}

func (Nop) Publish(context.Context, Event) {}

func (Nop) Subscribe(string, func(Event)) (Subscription, error) {
	return nil, ErrDisabled
}
