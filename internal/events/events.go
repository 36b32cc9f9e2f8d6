// Package events defines payloads shared by the outbox producer and consumers.
package events

import "time"

// CheckInCreated is emitted when a check-in passes every gate and persists.
type CheckInCreated struct {
	CheckInID string    `json:"checkin_id"`
	UserID    string    `json:"user_id"`
	GymID     string    `json:"gym_id"`
	CreatedAt time.Time `json:"created_at"`
}

// CheckInValidated is emitted when an operator confirms a check-in.
type CheckInValidated struct {
	CheckInID   string    `json:"checkin_id"`
	UserID      string    `json:"user_id"`
	GymID       string    `json:"gym_id"`
	ValidatedAt time.Time `json:"validated_at"`
}

// GymCreated is emitted when a gym record is persisted. Coordinates travel as
// decimal strings to keep full precision on the wire.
type GymCreated struct {
	GymID     string    `json:"gym_id"`
	Title     string    `json:"title"`
	Latitude  string    `json:"latitude"`
	Longitude string    `json:"longitude"`
	CreatedAt time.Time `json:"created_at"`
}
