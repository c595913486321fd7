package analytics

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"go.uber.org/atomic"

	"github.com/teataster/teataster/internal/metrics"
	"github.com/teataster/teataster/internal/models"
	"github.com/teataster/teataster/internal/repository"
)

// insertTimeout caps how long a single event write may take. Analytics is
// best-effort; a slow insert must never stall or crash message handling.
const insertTimeout = 3 * time.Second

// Logger records product events into bot_events. Every Log call is
// fire-and-forget: failures are logged and counted, never returned.
type Logger struct {
	events  repository.EventRepository
	logger  *logrus.Logger
	enabled *atomic.Bool
	dropped *atomic.Int64

	// insert is swappable for tests; defaults to a goroutine write.
	insertAsync func(ev *models.BotEvent)
}

// New creates an analytics logger. When enabled is false every Log call is a
// no-op, matching the kill switch in configuration.
func New(events repository.EventRepository, logger *logrus.Logger, enabled bool) *Logger {
	l := &Logger{
		events:  events,
		logger:  logger,
		enabled: atomic.NewBool(enabled),
		dropped: atomic.NewInt64(0),
	}
	l.insertAsync = func(ev *models.BotEvent) { go l.write(ev) }
	return l
}

// SetEnabled toggles event recording at runtime.
func (l *Logger) SetEnabled(v bool) { l.enabled.Store(v) }

// Enabled reports whether events are currently recorded.
func (l *Logger) Enabled() bool { return l.enabled.Load() }

// Dropped returns how many events failed to persist since startup.
func (l *Logger) Dropped() int64 { return l.dropped.Load() }

// Log records one event asynchronously. Safe to call from any goroutine.
func (l *Logger) Log(userID, chatID int64, event string, props map[string]any) {
	if !l.enabled.Load() {
		return
	}
	ev := &models.BotEvent{
		TS:     time.Now().UTC(),
		Event:  event,
		Props:  props,
		UserID: &userID,
		ChatID: &chatID,
	}
	l.insertAsync(ev)
}

func (l *Logger) write(ev *models.BotEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), insertTimeout)
	defer cancel()

	if err := l.events.Insert(ctx, ev); err != nil {
		l.dropped.Inc()
		metrics.EventsDroppedTotal.Inc()
		l.logger.WithFields(logrus.Fields{
			"event": ev.Event,
			"error": err,
		}).Warn("Failed to record analytics event")
	}
}
