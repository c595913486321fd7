package sqldb

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/teataster/teataster/internal/models"
	"github.com/teataster/teataster/internal/repository"
)

type eventRepository struct {
	db      *sql.DB
	dialect Dialect
}

// NewEventRepository creates a new analytics event repository.
func NewEventRepository(db *sql.DB, dialect Dialect) repository.EventRepository {
	return &eventRepository{db: db, dialect: dialect}
}

func (r *eventRepository) Insert(ctx context.Context, ev *models.BotEvent) error {
	props := ev.Props
	if props == nil {
		props = map[string]any{}
	}
	payload, err := json.Marshal(props)
	if err != nil {
		return fmt.Errorf("failed to marshal event props: %w", err)
	}

	if ev.TS.IsZero() {
		ev.TS = time.Now().UTC()
	}

	query := r.dialect.rebind(`
		INSERT INTO bot_events (ts, user_id, chat_id, event, props)
		VALUES ($1, $2, $3, $4, $5)`)

	if _, err := r.db.ExecContext(ctx, query, ev.TS, ev.UserID, ev.ChatID, ev.Event, string(payload)); err != nil {
		return fmt.Errorf("failed to insert bot event: %w", err)
	}
	return nil
}

func (r *eventRepository) CountDistinctUsers(ctx context.Context, from, to time.Time) (int, error) {
	query := r.dialect.rebind(`
		SELECT COUNT(DISTINCT user_id) FROM bot_events
		WHERE ts >= $1 AND ts < $2 AND user_id IS NOT NULL`)

	var count int
	if err := r.db.QueryRowContext(ctx, query, from, to).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count distinct users: %w", err)
	}
	return count, nil
}

func (r *eventRepository) CountEvents(ctx context.Context, event string, from, to time.Time) (int, error) {
	query := r.dialect.rebind(`
		SELECT COUNT(id) FROM bot_events
		WHERE event = $1 AND ts >= $2 AND ts < $3`)

	var count int
	if err := r.db.QueryRowContext(ctx, query, event, from, to).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count events: %w", err)
	}
	return count, nil
}
