package handler

import (
	"bufio"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/clinicflow_backend/pkg/events"
)

const sseKeepAlive = 25 * time.Second

type EventHandler struct {
	bus  events.Subscriber
	done <-chan struct{}
}

// NewEventHandler ends every open stream once done is closed.
func NewEventHandler(bus events.Subscriber, done <-chan struct{}) *EventHandler {
	return &EventHandler{bus: bus, done: done}
}

// GET /events
//
// Server-sent change notifications for the caller's clinic. Clients refetch
// on each event; nothing here is authoritative.
func (h *EventHandler) Stream(c fiber.Ctx) error {
	s, err := scope(c)
	if err != nil {
		return err
	}

	ch := make(chan events.Event, 64)
	sub, err := h.bus.Subscribe(events.ClinicSubjects(s.ClinicID), func(e events.Event) {
		select {
		case ch <- e:
		default: // slow client, drop
		}
	})
	if err != nil {
		if errors.Is(err, events.ErrDisabled) {
			return fiber.NewError(fiber.StatusServiceUnavailable, "event stream is not configured")
		}
		return err
	}

	clinicID := s.ClinicID
	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	return c.SendStreamWriter(func(w *bufio.Writer) {
		defer func() {
			if err := sub.Unsubscribe(); err != nil {
				slog.Warn("events: unsubscribe failed", "clinic_id", clinicID, "err", err)
			}
		}()

		ticker := time.NewTicker(sseKeepAlive)
		defer ticker.Stop()

		fmt.Fprint(w, "retry: 5000\n\n")
		if err := w.Flush(); err != nil {
			return
		}
		for {
			select {
			case e := <-ch:
				data, err := events.Encode(e)
				if err != nil {
					continue
				}
				fmt.Fprintf(w, "event: %s.%s\ndata: %s\n\n", e.Entity, e.Op, data)
			case <-ticker.C:
				fmt.Fprint(w, ": keepalive\n\n")
			case <-h.done:
				slog.Debug("events: stream closed by shutdown", "clinic_id", clinicID)
				return
			}
			if err := w.Flush(); err != nil {
				slog.Debug("events: stream closed", "clinic_id", clinicID, "err", err)
				return
			}
		}
	})
}
