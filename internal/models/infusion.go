package models

// Infusion is one steeping step within a tasting, numbered from 1 in the
// order the user recorded them. Infusions are written in a batch at tasting
// creation and are immutable afterwards.
type Infusion struct {
	ID           int64   `json:"id" db:"id"`
	TastingID    int64   `json:"tasting_id" db:"tasting_id"`
	N            int     `json:"n" db:"n"`
	Seconds      *int    `json:"seconds" db:"seconds"`
	LiquorColor  *string `json:"liquor_color" db:"liquor_color"`
	Taste        *string `json:"taste" db:"taste"`
	SpecialNotes *string `json:"special_notes" db:"special_notes"`
	Body         *string `json:"body" db:"body"`
	Aftertaste   *string `json:"aftertaste" db:"aftertaste"`
}
