package events

import (
	"context"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

// NATS is a Bus over core NATS subjects.
type NATS struct {
	nc  *nats.Conn
	log *slog.Logger
}

var _ Bus = (*NATS)(nil)

func NewNATS(nc *nats.Conn, log *slog.Logger) *NATS {
	if log == nil {
		log = slog.Default()
	}
	return &NATS{nc: nc, log: log}
}

func (n *NATS) Publish(ctx context.Context, e Event) {
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}
	data, err := Encode(e)
	if err != nil {
		n.log.WarnContext(ctx, "events: encode failed", "subject", e.Subject(), "err", err)
		return
	}
	if err := n.nc.Publish(e.Subject(), data); err != nil {
		n.log.WarnContext(ctx, "events: publish failed", "subject", e.Subject(), "err", err)
	}
}

// Subscribe calls fn for every well-formed event on subject. Malformed
// payloads are logged and skipped.
func (n *NATS) Subscribe(subject string, fn func(Event)) (Subscription, error) {
	sub, err := n.nc.Subscribe(subject, func(msg *nats.Msg) {
		e, err := Decode(msg.Data)
		if err != nil {
			n.log.Warn("events: dropping message", "subject", msg.Subject, "err", err)
			return
		}
		fn(e)
	})
	if err != nil {
		return nil, err
	}
	return sub, nil
}
