package models

import (
	"fmt"
	"time"
)

// User represents a Telegram user of the journal. The primary key is the
// Telegram user id itself; users are created on first interaction and never
// deleted.
type User struct {
	ID          int64     `json:"id" db:"id"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	TzOffsetMin int       `json:"tz_offset_min" db:"tz_offset_min"`
}

// LocalNowHM returns the user's local wall-clock time as "HH:MM", derived
// from the stored UTC offset.
func (u *User) LocalNowHM(now time.Time) string {
	return now.UTC().Add(time.Duration(u.TzOffsetMin) * time.Minute).Format("15:04")
}

// TzLabel renders the stored offset as a "UTC+3" / "UTC-5.5" style label.
func (u *User) TzLabel() string {
	hours := float64(u.TzOffsetMin) / 60.0
	sign := "+"
	if hours < 0 {
		sign = ""
	}
	return fmt.Sprintf("UTC%s%g", sign, hours)
}
