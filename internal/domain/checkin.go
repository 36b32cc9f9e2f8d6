package domain

import "time"

// CheckIn records a user's presence at a gym. ValidatedAt stays nil until an
// operator confirms the check-in on site.
type CheckIn struct {
	ID          string
	UserID      string
	GymID       string
	CreatedAt   time.Time
	ValidatedAt *time.Time
}
