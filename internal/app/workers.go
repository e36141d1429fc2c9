package app

import (
	"context"
	"errors"
	"log/slog"

	"go.uber.org/fx"

	"github.com/Alijeyrad/clinicflow_backend/pkg/events"
)

// WorkerModule registers the event workers.
var WorkerModule = fx.Module("workers",
	fx.Invoke(RegisterWorkers),
)

type WorkerParams struct {
	fx.In

	Lc  fx.Lifecycle
	Bus events.Subscriber
}

func RegisterWorkers(p WorkerParams) {
	var sub events.Subscription
	p.Lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			s, err := startActivityLog(p.Bus, slog.Default())
			if errors.Is(err, events.ErrDisabled) {
				slog.InfoContext(ctx, "activity_log: no broker, worker not started")
				return nil
			}
			if err != nil {
				return err
			}
			sub = s
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if sub == nil {
				return nil
			}
			return sub.Unsubscribe()
		},
	})
}

// ---------------------------------------------------------------------------
// activity_log
// ---------------------------------------------------------------------------

// startActivityLog writes one structured line per change event of any
// clinic, giving operators an audit trail of who changed what.
func startActivityLog(bus events.Subscriber, log *slog.Logger) (events.Subscription, error) {
	return bus.Subscribe(events.AllSubjects, func(e events.Event) {
		log.Info("activity_log: "+string(e.Entity)+" "+string(e.Op),
			"clinic_id", e.ClinicID,
			"entity", e.Entity,
			"op", e.Op,
			"id", e.ID,
			"actor_id", e.ActorID,
			"at", e.At,
		)
	})
}
