package app

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alijeyrad/clinicflow_backend/pkg/events"
)

type fakeSub struct{}

func (fakeSub) Unsubscribe() error { return nil }

type fakeBus struct {
	subject string
	fn      func(events.Event)
}

func (b *fakeBus) Subscribe(subject string, fn func(events.Event)) (events.Subscription, error) {
	b.subject, b.fn = subject, fn
	return fakeSub{}, nil
}

func TestActivityLogWritesEvents(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&buf, nil))
	bus := &fakeBus{}

	sub, err := startActivityLog(bus, log)
	require.NoError(t, err)
	require.NotNil(t, sub)
	assert.Equal(t, events.AllSubjects, bus.subject)

	clinic, id := uuid.New(), uuid.New()
	bus.fn(events.Event{ClinicID: clinic, Entity: events.EntityPatient, Op: events.OpCreated, ID: id, At: time.Now()})

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "activity_log: patient created", line["msg"])
	assert.Equal(t, clinic.String(), line["clinic_id"])
	assert.Equal(t, id.String(), line["id"])
}

func TestActivityLogWithoutBroker(t *testing.T) {
	_, err := startActivityLog(events.Nop{}, slog.Default())
	assert.ErrorIs(t, err, events.ErrDisabled)
}

func TestEventBusFallsBackToNop(t *testing.T) {
	assert.Equal(t, events.Nop{}, ProvideEventBus(nil))
}
