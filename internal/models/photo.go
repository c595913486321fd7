package models

// MaxPhotos is the cap on photo references per tasting.
const MaxPhotos = 3

// Photo stores an opaque Telegram file id attached to a tasting, ordered by
// insertion.
type Photo struct {
	ID        int64  `json:"id" db:"id"`
	TastingID int64  `json:"tasting_id" db:"tasting_id"`
	FileID    string `json:"file_id" db:"file_id"`
}
