package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Gym is a physical location that users can check in to. Coordinates are kept
// as fixed-precision decimals so a save/load round trip never shifts a gym
// across the proximity boundary.
type Gym struct {
	ID          string
	Title       string
	Description *string
	Phone       *string
	Latitude    decimal.Decimal
	Longitude   decimal.Decimal
	CreatedAt   time.Time
}
