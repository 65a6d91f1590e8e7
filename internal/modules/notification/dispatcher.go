package notification

import (
	"context"
	"errors"
	"sync"
	"time"

	"bikeworkshop/internal/pkg/mailer"

	"go.uber.org/zap"
)

type Mailer interface {
	Send(ctx context.Context, to, subject, html string) error
}

type Emitter interface {
	EmitToUser(ctx context.Context, userID int64, event string, payload any) error
}

// Dispatcher runs effects in the background. Failures are logged and never
// reach the caller.
type Dispatcher struct {
	mailer  Mailer
	emitter Emitter
	timeout time.Duration
	log     *zap.Logger
	wg      sync.WaitGroup
}

func NewDispatcher(m Mailer, e Emitter, timeout time.Duration, log *zap.Logger) *Dispatcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Dispatcher{
		mailer:  m,
		emitter: e,
		timeout: timeout,
		log:     log.With(zap.String("module", "notification")),
	}
}

func (d *Dispatcher) Dispatch(effects ...Effect) {
	if len(effects) == 0 {
		return
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				d.log.Error("notification dispatch panicked", zap.Any("panic", r))
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()

		for _, e := range effects {
			d.deliver(ctx, e)
		}
	}()
}

// Wait blocks until every dispatched batch has finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) deliver(ctx context.Context, e Effect) {
	switch {
	case e.Kind == KindEmail && e.Email != nil:
		if d.mailer == nil {
			return
		}
		err := d.mailer.Send(ctx, e.Email.To, e.Email.Subject, e.Email.HTML)
		switch {
		case err == nil:
			d.log.Debug("email sent", zap.String("to", e.Email.To), zap.String("subject", e.Email.Subject))
		case errors.Is(err, mailer.ErrDisabled):
			d.log.Debug("email skipped, mailer disabled", zap.String("subject", e.Email.Subject))
		default:
			d.log.Warn("email delivery failed",
				zap.String("to", e.Email.To),
				zap.String("subject", e.Email.Subject),
				zap.Error(err),
			)
		}

	case e.Kind == KindPush && e.Push != nil:
		if d.emitter == nil {
			return
		}
		if err := d.emitter.EmitToUser(ctx, e.Push.UserID, e.Push.Event, e.Push.Payload); err != nil {
			d.log.Warn("push delivery failed",
				zap.Int64("user_id", e.Push.UserID),
				zap.String("event", e.Push.Event),
				zap.Error(err),
			)
		}

	default:
		d.log.Warn("malformed notification effect", zap.Int("kind", int(e.Kind)))
	}
}
