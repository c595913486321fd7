package models

import (
	"fmt"
	"time"
)

// Tasting is one journal entry for a single tea session. seq_no is the
// per-user display ordinal, unique within (user_id, seq_no) and never reused.
type Tasting struct {
	ID           int64     `json:"id" db:"id"`
	UserID       int64     `json:"user_id" db:"user_id"`
	SeqNo        int       `json:"seq_no" db:"seq_no"`
	Name         string    `json:"name" db:"name"`
	Year         *int      `json:"year" db:"year"`
	Region       *string   `json:"region" db:"region"`
	Category     *string   `json:"category" db:"category"`
	Grams        *float64  `json:"grams" db:"grams"`
	TempC        *int      `json:"temp_c" db:"temp_c"`
	TastedAt     *string   `json:"tasted_at" db:"tasted_at"`
	Gear         *string   `json:"gear" db:"gear"`
	AromaDry     *string   `json:"aroma_dry" db:"aroma_dry"`
	AromaWarmed  *string   `json:"aroma_warmed" db:"aroma_warmed"`
	EffectsCSV   *string   `json:"effects_csv" db:"effects_csv"`
	ScenariosCSV *string   `json:"scenarios_csv" db:"scenarios_csv"`
	Rating       int       `json:"rating" db:"rating"`
	Summary      *string   `json:"summary" db:"summary"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// Title combines the category and name for list rows and card headers.
func (t *Tasting) Title() string {
	cat := "—"
	if t.Category != nil && *t.Category != "" {
		cat = *t.Category
	}
	return fmt.Sprintf("[%s] %s", cat, t.Name)
}

// ShortRow renders the one-line search result form: "#seq [category] name".
func (t *Tasting) ShortRow() string {
	return fmt.Sprintf("#%d %s", t.SeqNo, t.Title())
}
