package models

import "time"

// Analytics event names written to bot_events.
const (
	EventTastingStarted = "new_tasting_started"
	EventTastingSaved   = "tasting_saved"
	EventTastingDeleted = "tasting_deleted"
	EventFieldEdited    = "field_edited"
	EventSearch         = "search_performed"
)

// BotEvent is one append-only analytics row. There is no foreign key to
// users or tastings; rows are only ever read back for aggregate counts.
type BotEvent struct {
	ID     int64          `json:"id" db:"id"`
	TS     time.Time      `json:"ts" db:"ts"`
	UserID *int64         `json:"user_id" db:"user_id"`
	ChatID *int64         `json:"chat_id" db:"chat_id"`
	Event  string         `json:"event" db:"event"`
	Props  map[string]any `json:"props" db:"props"`
}
