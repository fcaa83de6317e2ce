package notify

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Notifier delivers a notification to the notification-persistence
// subsystem. Implementations are external collaborators; delivery is
// fire-and-forget from the gateway's point of view.
type Notifier interface {
	Notify(ctx context.Context, recipientID int64, kind string, payload json.RawMessage) error
}

// Notification is one queued delivery.
type Notification struct {
	ID          string
	RecipientID int64
	Kind        string
	Payload     json.RawMessage
}

// Dispatcher decouples notification delivery from the message hot path: the
// sender enqueues and moves on, a worker goroutine drains the queue. A full
// queue drops the notification with a log line rather than block the sender.
type Dispatcher struct {
	notifier Notifier
	queue    chan Notification
	log      *zerolog.Logger

	closeOnce sync.Once
	done      chan struct{}
}

// NewDispatcher builds a dispatcher with the given queue capacity.
func NewDispatcher(notifier Notifier, capacity int, logger *zerolog.Logger) *Dispatcher {
	if capacity <= 0 {
		capacity = 256
	}
	return &Dispatcher{
		notifier: notifier,
		queue:    make(chan Notification, capacity),
		log:      logger,
		done:     make(chan struct{}),
	}
}

// Run drains the queue until the context is canceled. Intended to be run
// once as a goroutine at process start.
func (d *Dispatcher) Run(ctx context.Context) {
	defer close(d.done)
	for {
		select {
		case n := <-d.queue:
			if err := d.notifier.Notify(ctx, n.RecipientID, n.Kind, n.Payload); err != nil {
				d.log.Warn().
					Err(err).
					Str("notification_id", n.ID).
					Int64("recipient_id", n.RecipientID).
					Str("kind", n.Kind).
					Msg("notification delivery failed")
			}
		case <-ctx.Done():
			return
		}
	}
}

// Enqueue queues a notification without blocking. Failure to queue is
// logged and swallowed: the triggering operation never sees it.
func (d *Dispatcher) Enqueue(recipientID int64, kind string, payload json.RawMessage) {
	n := Notification{
		ID:          uuid.NewString(),
		RecipientID: recipientID,
		Kind:        kind,
		Payload:     payload,
	}
	select {
	case d.queue <- n:
	default:
		d.log.Warn().
			Int64("recipient_id", recipientID).
			Str("kind", kind).
			Msg("notification queue full, dropping")
	}
}

// Wait blocks until the worker has exited after context cancellation.
func (d *Dispatcher) Wait() {
	<-d.done
}
