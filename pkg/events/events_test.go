package events

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubject(t *testing.T) {
	clinicID := uuid.MustParse("0190a5b4-0000-7000-8000-000000000001")
	e := Event{ClinicID: clinicID, Entity: EntityAppointment, Op: OpCreated}

	assert.Equal(t, "clinicflow.0190a5b4-0000-7000-8000-000000000001.appointment.created", e.Subject())
	assert.Equal(t, "clinicflow.0190a5b4-0000-7000-8000-000000000001.>", ClinicSubjects(clinicID))
	assert.Equal(t, "clinicflow.>", AllSubjects)
}

func TestEncodeDecode(t *testing.T) {
	in := Event{
		ClinicID: uuid.New(),
		Entity:   EntityPatient,
		Op:       OpDeleted,
		ID:       uuid.New(),
		ActorID:  uuid.New(),
		At:       time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC),
	}
	data, err := Encode(in)
	require.NoError(t, err)

	out, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestDecodeRejectsIncompleteEvents(t *testing.T) {
	_, err := Decode([]byte(`{"entity":"patient","op":"created"}`))
	assert.Error(t, err)

	_, err = Decode([]byte(`not json`))
	assert.Error(t, err)
}

func TestNop(t *testing.T) {
	var bus Bus = Nop{}
	bus.Publish(context.Background(), Event{})

	_, err := bus.Subscribe(AllSubjects, func(Event) {})
	assert.ErrorIs(t, err, ErrDisabled)
}
