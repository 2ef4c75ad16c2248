// Package notify carries operator notifications (toasts) from the code that
// produced them to the next page render.
//
// Notifications are queued per desk. A desk is one operator's browser
// session; see the session package. Queues are either in-process
// (MemoryQueue) or shared through Redis (RedisQueue) when several app
// instances sit behind a load balancer.
package notify

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Level classifies a notification for display.
type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
	LevelInfo    Level = "info"
)

// Notification is a single toast.
type Notification struct {
	Level Level     `json:"level"`
	Title string    `json:"title"`
	At    time.Time `json:"at"`
}

// Success builds a success notification stamped with the current time.
func Success(title string) Notification {
	return Notification{Level: LevelSuccess, Title: title, At: time.Now().UTC()}
}

// Error builds an error notification stamped with the current time.
func Error(title string) Notification {
	return Notification{Level: LevelError, Title: title, At: time.Now().UTC()}
}

// Queue stores pending notifications per desk until they are drained.
type Queue interface {
	Push(ctx context.Context, deskID string, n Notification) error
	Drain(ctx context.Context, deskID string) ([]Notification, error)
}

// maxPerDesk bounds a desk's backlog; the oldest entries are dropped first.
const maxPerDesk = 20

// DeskNotifier delivers notifications for one desk: every notification is
// logged and then queued for display.
type DeskNotifier struct {
	queue  Queue
	deskID string
	log    *zap.Logger
}

// NewDeskNotifier returns a notifier bound to deskID.
func NewDeskNotifier(queue Queue, deskID string, logger *zap.Logger) *DeskNotifier {
	return &DeskNotifier{queue: queue, deskID: deskID, log: logger}
}

// Notify logs n and queues it. A queue failure is logged, never returned:
// losing a toast must not fail the operation that produced it.
func (d *DeskNotifier) Notify(ctx context.Context, n Notification) {
	if n.At.IsZero() {
		n.At = time.Now().UTC()
	}

	fields := []zap.Field{
		zap.String("desk_id", d.deskID),
		zap.String("level", string(n.Level)),
		zap.String("title", n.Title),
	}
	if n.Level == LevelError {
		d.log.Warn("operator notification", fields...)
	} else {
		d.log.Info("operator notification", fields...)
	}

	if err := d.queue.Push(ctx, d.deskID, n); err != nil {
		d.log.Error("failed to queue notification",
			zap.String("desk_id", d.deskID),
			zap.Error(err))
	}
}
