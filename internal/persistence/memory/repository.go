// Package memory provides in-memory repositories for tests and local dev.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"example.com/checkin/internal/domain"
	"example.com/checkin/internal/geo"
)

// GymRepository stores gyms in insertion order.
type GymRepository struct {
	mu   sync.RWMutex
	gyms []domain.Gym
}

// NewGymRepository constructs an empty repository.
func NewGymRepository() *GymRepository {
	return &GymRepository{}
}

// Create persists the gym, filling identity and creation time when absent.
func (r *GymRepository) Create(ctx context.Context, gym domain.Gym) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(gym.ID) == "" {
		gym.ID = uuid.NewString()
	}
	if gym.CreatedAt.IsZero() {
		gym.CreatedAt = time.Now().UTC()
	}

	r.gyms = append(r.gyms, gym)
	return nil
}

// FindByID returns the gym or nil when absent.
func (r *GymRepository) FindByID(ctx context.Context, id string) (*domain.Gym, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, gym := range r.gyms {
		if gym.ID == id {
			found := gym
			return &found, nil
		}
	}
	return nil, nil
}

// SearchMany performs a case-sensitive substring match on the title, paginated
// in insertion order.
func (r *GymRepository) SearchMany(ctx context.Context, query string, page int) ([]domain.Gym, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matches := make([]domain.Gym, 0)
	for _, gym := range r.gyms {
		if strings.Contains(gym.Title, query) {
			matches = append(matches, gym)
		}
	}

	start := (page - 1) * domain.PageSize
	if start >= len(matches) {
		return []domain.Gym{}, nil
	}
	end := start + domain.PageSize
	if end > len(matches) {
		end = len(matches)
	}

	out := make([]domain.Gym, end-start)
	copy(out, matches[start:end])
	return out, nil
}

// FindManyNearby returns gyms strictly closer than the nearby radius, in
// insertion order.
func (r *GymRepository) FindManyNearby(ctx context.Context, center geo.Coordinate) ([]domain.Gym, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	nearby := make([]domain.Gym, 0)
	for _, gym := range r.gyms {
		km := geo.DistanceBetween(center, geo.Coordinate{
			Latitude:  gym.Latitude.InexactFloat64(),
			Longitude: gym.Longitude.InexactFloat64(),
		})
		if km < domain.NearbyRadiusKm {
			nearby = append(nearby, gym)
		}
	}
	return nearby, nil
}

// CheckInRepository stores check-ins in memory. Unlike the Postgres
// implementation it carries no uniqueness constraint, so the daily limit is
// enforced only by the workflow's read-then-write check.
type CheckInRepository struct {
	mu       sync.RWMutex
	checkIns []domain.CheckIn
}

// NewCheckInRepository constructs an empty repository.
func NewCheckInRepository() *CheckInRepository {
	return &CheckInRepository{}
}

// Create persists the check-in, filling identity and creation time when absent.
func (r *CheckInRepository) Create(ctx context.Context, checkIn domain.CheckIn) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(checkIn.ID) == "" {
		checkIn.ID = uuid.NewString()
	}
	if checkIn.CreatedAt.IsZero() {
		checkIn.CreatedAt = time.Now().UTC()
	}

	r.checkIns = append(r.checkIns, checkIn)
	return nil
}

// Save replaces the stored check-in with the same ID.
func (r *CheckInRepository) Save(ctx context.Context, checkIn domain.CheckIn) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.checkIns {
		if r.checkIns[i].ID == checkIn.ID {
			r.checkIns[i] = checkIn
			return nil
		}
	}
	return domain.ErrCheckInNotFound
}

// FindByID returns the check-in or nil when absent.
func (r *CheckInRepository) FindByID(ctx context.Context, id string) (*domain.CheckIn, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, checkIn := range r.checkIns {
		if checkIn.ID == id {
			found := checkIn
			return &found, nil
		}
	}
	return nil, nil
}

// FindByUserIDOnDate returns the user's check-in on the same UTC calendar day
// as date, or nil when there is none.
func (r *CheckInRepository) FindByUserIDOnDate(ctx context.Context, userID string, date time.Time) (*domain.CheckIn, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	startOfDay := startOfUTCDay(date)
	endOfDay := startOfDay.AddDate(0, 0, 1)

	for _, checkIn := range r.checkIns {
		created := checkIn.CreatedAt.UTC()
		if checkIn.UserID == userID && !created.Before(startOfDay) && created.Before(endOfDay) {
			found := checkIn
			return &found, nil
		}
	}
	return nil, nil
}

// ListByUser returns the user's check-ins newest first, one page at a time.
func (r *CheckInRepository) ListByUser(ctx context.Context, userID string, page int) ([]domain.CheckIn, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	mine := make([]domain.CheckIn, 0)
	for _, checkIn := range r.checkIns {
		if checkIn.UserID == userID {
			mine = append(mine, checkIn)
		}
	}
	sort.Slice(mine, func(i, j int) bool {
		return mine[i].CreatedAt.After(mine[j].CreatedAt)
	})

	start := (page - 1) * domain.PageSize
	if start >= len(mine) {
		return []domain.CheckIn{}, nil
	}
	end := start + domain.PageSize
	if end > len(mine) {
		end = len(mine)
	}
	return mine[start:end], nil
}

// CountByUser returns the user's lifetime check-in total.
func (r *CheckInRepository) CountByUser(ctx context.Context, userID string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0
	for _, checkIn := range r.checkIns {
		if checkIn.UserID == userID {
			count++
		}
	}
	return count, nil
}

func startOfUTCDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
