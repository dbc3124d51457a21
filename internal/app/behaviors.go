package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/neomorfeo/cinelist/internal/domain"
)

// LoggingBehavior logs every request before it runs and its outcome after.
// Failed results are logged at warn, errors and panics at error. Errors and
// panics continue unchanged.
func LoggingBehavior(logger *slog.Logger) Behavior {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req Request) (res any, err error) {
			name := req.RequestName()
			logger.InfoContext(ctx, "handling request", "request", name, "payload", req)

			start := time.Now()
			defer func() {
				if p := recover(); p != nil {
					logger.ErrorContext(ctx, "request panicked",
						"request", name,
						"panic", p,
						"duration", time.Since(start),
					)
					panic(p)
				}
			}()

			res, err = next(ctx, req)
			elapsed := time.Since(start)

			if err != nil {
				logger.ErrorContext(ctx, "request errored", "request", name, "error", err, "duration", elapsed)
				return res, err
			}

			if outcome, ok := res.(domain.Outcome); ok && outcome.IsFailure() {
				logger.WarnContext(ctx, "request failed",
					"request", name,
					"kind", outcome.Kind(),
					"message", outcome.Message(),
					"duration", elapsed,
				)
				return res, nil
			}

			logger.InfoContext(ctx, "request handled", "request", name, "duration", elapsed)
			return res, nil
		}
	}
}

// errRollback aborts a unit of work whose command returned a failed result.
var errRollback = errors.New("command returned a failed result")

// UnitOfWorkBehavior runs each command inside uow. An error or a failed
// result rolls back; otherwise the transaction commits and the events raised
// by the handler are dispatched to events. Commands embedding outboundCommand
// scope their own unit of work and only get the event buffer. Queries pass
// through.
func UnitOfWorkBehavior(uow domain.UnitOfWork, events *EventDispatcher) Behavior {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req Request) (any, error) {
			if _, ok := req.(Command); !ok {
				return next(ctx, req)
			}

			txCtx, buf := withEventBuffer(ctx)

			var res any
			var err error
			if _, ok := req.(unitOfWorkOwner); ok {
				res, err = next(txCtx, req)
				if err == nil && failed(res) {
					err = errRollback
				}
			} else {
				err = uow.Do(txCtx, func(ctx context.Context) error {
					var err error
					res, err = next(ctx, req)
					if err != nil {
						return err
					}
					if failed(res) {
						return errRollback
					}
					return nil
				})
			}
			if errors.Is(err, errRollback) {
				return res, nil
			}
			if err != nil {
				return nil, err
			}

			if err := events.DispatchAll(ctx, buf.events...); err != nil {
				return nil, fmt.Errorf("after %s: %w", req.RequestName(), err)
			}
			return res, nil
		}
	}
}

func failed(res any) bool {
	outcome, ok := res.(domain.Outcome)
	return ok && outcome.IsFailure()
}

// LogEvents subscribes an audit logger to every domain event.
func LogEvents(d *EventDispatcher, logger *slog.Logger) {
	for _, name := range domain.EventNames() {
		d.On(name, func(ctx context.Context, event domain.Event) error {
			logger.InfoContext(ctx, "domain event",
				"event", event.EventName(),
				"event_id", event.EventID().String(),
				"occurred_at", event.OccurredAt(),
			)
			return nil
		})
	}
}
