// Package postgres provides pgx-backed repositories with a transactional outbox.
package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"example.com/checkin/internal/domain"
	"example.com/checkin/internal/events"
	"example.com/checkin/internal/geo"
)

// GymRepository persists gyms in Postgres. Coordinates live in NUMERIC(9,6)
// columns so stored values round-trip without floating-point drift.
type GymRepository struct {
	pool *pgxpool.Pool
}

// NewGymRepository constructs a GymRepository.
func NewGymRepository(pool *pgxpool.Pool) *GymRepository {
	return &GymRepository{pool: pool}
}

const gymColumns = `gym_id, title, description, phone, latitude::text, longitude::text, created_at`

// Create persists the gym and records a gym.created outbox event in the same
// transaction. Identity and creation time are filled when absent.
func (r *GymRepository) Create(ctx context.Context, gym domain.Gym) error {
	if gym.ID == "" {
		gym.ID = uuid.NewString()
	}
	if gym.CreatedAt.IsZero() {
		gym.CreatedAt = time.Now().UTC()
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback(ctx)
		}
	}()

	const stmt = `INSERT INTO gyms (gym_id, title, description, phone, latitude, longitude, created_at)
        VALUES ($1,$2,$3,$4,$5::numeric,$6::numeric,$7)`

	_, err = tx.Exec(ctx, stmt,
		gym.ID,
		gym.Title,
		gym.Description,
		gym.Phone,
		gym.Latitude.String(),
		gym.Longitude.String(),
		gym.CreatedAt,
	)
	if err != nil {
		return err
	}

	if err = insertOutbox(ctx, tx, "gym", gym.ID, "gym.created", gym.ID, events.GymCreated{
		GymID:     gym.ID,
		Title:     gym.Title,
		Latitude:  gym.Latitude.String(),
		Longitude: gym.Longitude.String(),
		CreatedAt: gym.CreatedAt,
	}); err != nil {
		return err
	}

	err = tx.Commit(ctx)
	return err
}

// FindByID returns the gym or nil when no row matches.
func (r *GymRepository) FindByID(ctx context.Context, id string) (*domain.Gym, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+gymColumns+` FROM gyms WHERE gym_id=$1`, id)

	gym, err := scanGym(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return gym, nil
}

// SearchMany performs a case-sensitive substring match on the title, ordered
// as stored and paginated with the fixed page size.
func (r *GymRepository) SearchMany(ctx context.Context, query string, page int) ([]domain.Gym, error) {
	const stmt = `SELECT ` + gymColumns + ` FROM gyms
        WHERE title LIKE '%' || $1 || '%'
        ORDER BY created_at, gym_id
        LIMIT $2 OFFSET $3`

	rows, err := r.pool.Query(ctx, stmt, query, domain.PageSize, (page-1)*domain.PageSize)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectGyms(rows)
}

// FindManyNearby returns gyms strictly closer than the nearby radius, using a
// spherical law-of-cosines distance computed in SQL.
func (r *GymRepository) FindManyNearby(ctx context.Context, center geo.Coordinate) ([]domain.Gym, error) {
	const stmt = `SELECT ` + gymColumns + ` FROM gyms
        WHERE (6371 * acos(
            cos(radians($1)) * cos(radians(latitude::float8)) * cos(radians(longitude::float8) - radians($2)) +
            sin(radians($1)) * sin(radians(latitude::float8))
        )) < $3
        ORDER BY created_at, gym_id`

	rows, err := r.pool.Query(ctx, stmt, center.Latitude, center.Longitude, domain.NearbyRadiusKm)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectGyms(rows)
}

func collectGyms(rows pgx.Rows) ([]domain.Gym, error) {
	gyms := make([]domain.Gym, 0)
	for rows.Next() {
		gym, err := scanGym(rows)
		if err != nil {
			return nil, err
		}
		gyms = append(gyms, *gym)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return gyms, nil
}

func scanGym(row pgx.Row) (*domain.Gym, error) {
	var (
		gym      domain.Gym
		lat, lng string
	)
	if err := row.Scan(&gym.ID, &gym.Title, &gym.Description, &gym.Phone, &lat, &lng, &gym.CreatedAt); err != nil {
		return nil, err
	}

	latitude, err := decimal.NewFromString(lat)
	if err != nil {
		return nil, err
	}
	longitude, err := decimal.NewFromString(lng)
	if err != nil {
		return nil, err
	}
	gym.Latitude = latitude
	gym.Longitude = longitude
	return &gym, nil
}
