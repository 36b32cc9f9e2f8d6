// Package domain defines the business rules for gyms and check-ins.
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"example.com/checkin/internal/geo"
	"example.com/checkin/internal/observability"
)

var (
	// ErrGymNotFound is returned when the referenced gym does not exist.
	ErrGymNotFound = errors.New("gym not found")
	// ErrCheckInNotFound is returned when a check-in cannot be located.
	ErrCheckInNotFound = errors.New("check-in not found")
	// ErrMaxDistanceExceeded rejects check-ins attempted too far from the gym.
	ErrMaxDistanceExceeded = errors.New("check-in attempted too far from the gym")
	// ErrDailyCheckInLimit rejects a second check-in on the same calendar day.
	ErrDailyCheckInLimit = errors.New("user already checked in today")
	// ErrLateCheckInValidation rejects validation after the window has passed.
	ErrLateCheckInValidation = errors.New("check-in validation window has passed")
)

const (
	// MaxDistanceMeters is the farthest a user may stand from a gym and still
	// check in. Exactly this distance is allowed.
	MaxDistanceMeters = 100.0
	// NearbyRadiusKm bounds FindManyNearby results (strictly less than).
	NearbyRadiusKm = 10.0
	// PageSize applies to gym search and check-in history pages (1-indexed).
	PageSize = 20
	// ValidationWindow is how long after creation a check-in may be validated.
	ValidationWindow = 20 * time.Minute
)

// GymRepository captures gym persistence operations. Lookups return nil
// without error when no row matches.
type GymRepository interface {
	Create(ctx context.Context, gym Gym) error
	FindByID(ctx context.Context, id string) (*Gym, error)
	SearchMany(ctx context.Context, query string, page int) ([]Gym, error)
	FindManyNearby(ctx context.Context, center geo.Coordinate) ([]Gym, error)
}

// CheckInRepository captures check-in persistence operations. Implementations
// may return ErrDailyCheckInLimit from Create when a storage-level uniqueness
// constraint trips first.
type CheckInRepository interface {
	Create(ctx context.Context, checkIn CheckIn) error
	Save(ctx context.Context, checkIn CheckIn) error
	FindByID(ctx context.Context, id string) (*CheckIn, error)
	FindByUserIDOnDate(ctx context.Context, userID string, date time.Time) (*CheckIn, error)
	ListByUser(ctx context.Context, userID string, page int) ([]CheckIn, error)
	CountByUser(ctx context.Context, userID string) (int, error)
}

// Service orchestrates gym and check-in workflows.
type Service struct {
	gyms     GymRepository
	checkIns CheckInRepository
	now      func() time.Time
}

// NewService constructs a Service using the wall clock.
func NewService(gyms GymRepository, checkIns CheckInRepository) *Service {
	return &Service{
		gyms:     gyms,
		checkIns: checkIns,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the service clock, for deterministic tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// CreateGymInput captures the payload from the API layer. ID is optional and
// generated when empty.
type CreateGymInput struct {
	ID          string
	Title       string
	Description *string
	Phone       *string
	Latitude    decimal.Decimal
	Longitude   decimal.Decimal
}

// CreateGym persists a new gym, assigning identity and creation time.
func (s *Service) CreateGym(ctx context.Context, input CreateGymInput) (*Gym, error) {
	gym := Gym{
		ID:          input.ID,
		Title:       input.Title,
		Description: input.Description,
		Phone:       input.Phone,
		Latitude:    input.Latitude,
		Longitude:   input.Longitude,
		CreatedAt:   s.now(),
	}
	if gym.ID == "" {
		gym.ID = uuid.NewString()
	}

	if err := s.gyms.Create(ctx, gym); err != nil {
		return nil, err
	}
	return &gym, nil
}

// GetGym fetches a gym by ID.
func (s *Service) GetGym(ctx context.Context, id string) (*Gym, error) {
	gym, err := s.gyms.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if gym == nil {
		return nil, ErrGymNotFound
	}
	return gym, nil
}

// SearchGyms returns gyms whose title contains the query, one page at a time.
func (s *Service) SearchGyms(ctx context.Context, query string, page int) ([]Gym, error) {
	if page < 1 {
		page = 1
	}
	return s.gyms.SearchMany(ctx, query, page)
}

// NearbyGyms returns gyms within NearbyRadiusKm of the center point.
func (s *Service) NearbyGyms(ctx context.Context, center geo.Coordinate) ([]Gym, error) {
	return s.gyms.FindManyNearby(ctx, center)
}

// CheckInInput carries a check-in attempt.
type CheckInInput struct {
	UserID        string
	GymID         string
	UserLatitude  float64
	UserLongitude float64
}

// CheckIn validates and records a check-in. The gates run in order: the gym
// must exist, the user must be within MaxDistanceMeters of it, and the user
// must not have checked in anywhere else on the same UTC calendar day. The
// only mutation happens after every gate passes.
func (s *Service) CheckIn(ctx context.Context, input CheckInInput) (*CheckIn, error) {
	gym, err := s.gyms.FindByID(ctx, input.GymID)
	if err != nil {
		return nil, err
	}
	if gym == nil {
		return nil, ErrGymNotFound
	}

	km := geo.DistanceBetween(
		geo.Coordinate{Latitude: input.UserLatitude, Longitude: input.UserLongitude},
		geo.Coordinate{Latitude: gym.Latitude.InexactFloat64(), Longitude: gym.Longitude.InexactFloat64()},
	)
	if km*1000 > MaxDistanceMeters {
		observability.RecordCheckInRejected("max_distance")
		return nil, ErrMaxDistanceExceeded
	}

	now := s.now()
	existing, err := s.checkIns.FindByUserIDOnDate(ctx, input.UserID, now)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		observability.RecordCheckInRejected("daily_limit")
		return nil, ErrDailyCheckInLimit
	}

	checkIn := CheckIn{
		ID:        uuid.NewString(),
		UserID:    input.UserID,
		GymID:     input.GymID,
		CreatedAt: now,
	}
	if err := s.checkIns.Create(ctx, checkIn); err != nil {
		if errors.Is(err, ErrDailyCheckInLimit) {
			observability.RecordCheckInRejected("daily_limit")
		}
		return nil, err
	}

	observability.RecordCheckInRecorded(checkIn.CreatedAt)
	return &checkIn, nil
}

// ValidateCheckIn marks a check-in as confirmed by an operator. Validation is
// only accepted within ValidationWindow of the check-in's creation.
func (s *Service) ValidateCheckIn(ctx context.Context, checkInID string) (*CheckIn, error) {
	checkIn, err := s.checkIns.FindByID(ctx, checkInID)
	if err != nil {
		return nil, err
	}
	if checkIn == nil {
		return nil, ErrCheckInNotFound
	}

	now := s.now()
	if now.Sub(checkIn.CreatedAt) > ValidationWindow {
		return nil, ErrLateCheckInValidation
	}

	checkIn.ValidatedAt = &now
	if err := s.checkIns.Save(ctx, *checkIn); err != nil {
		return nil, err
	}
	return checkIn, nil
}

// CheckInHistory lists a user's check-ins, newest first, one page at a time.
func (s *Service) CheckInHistory(ctx context.Context, userID string, page int) ([]CheckIn, error) {
	if page < 1 {
		page = 1
	}
	return s.checkIns.ListByUser(ctx, userID, page)
}

// CheckInCount returns the user's lifetime check-in total.
func (s *Service) CheckInCount(ctx context.Context, userID string) (int, error) {
	return s.checkIns.CountByUser(ctx, userID)
}
