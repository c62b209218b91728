package realtime

import (
	"context"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/wolfman30/insightdesk/internal/crm"
	"github.com/wolfman30/insightdesk/pkg/logging"
)

const listenerPingInterval = 90 * time.Second

// Invalidator drops cached reads of an entity after it changes.
type Invalidator interface {
	Invalidate(ctx context.Context, entity crm.Entity) error
}

// notifier is the subset of pq.Listener the listener consumes.
type notifier interface {
	NotificationChannel() <-chan *pq.Notification
	Ping() error
	Close() error
}

// Listener turns PostgreSQL NOTIFY payloads into hub events.
type Listener struct {
	source      notifier
	hub         *Hub
	invalidator Invalidator
	logger      *logging.Logger
}

// NewListener connects a pq.Listener to dsn and listens on channel.
func NewListener(dsn, channel string, hub *Hub, invalidator Invalidator, logger *logging.Logger) (*Listener, error) {
	if logger == nil {
		logger = logging.Default()
	}
	pl := pq.NewListener(dsn, 10*time.Second, time.Minute, func(ev pq.ListenerEventType, err error) {
		if err != nil {
			logger.Warn("postgres listener event", "event", int(ev), "error", err)
		}
	})
	if err := pl.Listen(channel); err != nil {
		_ = pl.Close()
		return nil, fmt.Errorf("realtime: listen %s: %w", channel, err)
	}
	return NewListenerWithNotifier(pl, hub, invalidator, logger), nil
}

// NewListenerWithNotifier allows injecting a notification source for testing.
func NewListenerWithNotifier(source notifier, hub *Hub, invalidator Invalidator, logger *logging.Logger) *Listener {
	if logger == nil {
		logger = logging.Default()
	}
	return &Listener{source: source, hub: hub, invalidator: invalidator, logger: logger}
}

// Run forwards notifications until ctx is done or the source closes.
func (l *Listener) Run(ctx context.Context) error {
	defer l.source.Close()
	ticker := time.NewTicker(listenerPingInterval)
	defer ticker.Stop()

	notifications := l.source.NotificationChannel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case n, ok := <-notifications:
			if !ok {
				return nil
			}
			// A nil notification follows a reconnect; events may have been missed.
			if n == nil {
				l.invalidateAll(ctx)
				continue
			}
			l.handle(ctx, n.Extra)
		case <-ticker.C:
			if err := l.source.Ping(); err != nil {
				l.logger.Warn("postgres listener ping failed", "error", err)
			}
		}
	}
}

func (l *Listener) handle(ctx context.Context, payload string) {
	ev, err := ParseEvent([]byte(payload))
	if err != nil {
		l.logger.Warn("ignoring change notification", "error", err)
		return
	}
	if l.invalidator != nil {
		if err := l.invalidator.Invalidate(ctx, ev.Entity); err != nil {
			l.logger.Warn("cache invalidation failed", "entity", ev.Entity, "error", err)
		}
	}
	if l.hub != nil {
		l.hub.Publish(ev)
	}
}

func (l *Listener) invalidateAll(ctx context.Context) {
	if l.invalidator == nil {
		return
	}
	for _, entity := range crm.Entities() {
		if err := l.invalidator.Invalidate(ctx, entity); err != nil {
			l.logger.Warn("cache invalidation failed", "entity", entity, "error", err)
		}
	}
}
