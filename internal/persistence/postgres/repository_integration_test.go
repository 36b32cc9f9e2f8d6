//go:build integration

package postgres

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	postgrescontainer "github.com/testcontainers/testcontainers-go/modules/postgres"

	"example.com/checkin/internal/domain"
)

func TestGymCoordinatesRoundTrip(t *testing.T) {
	pool := setupPool(t)

	repo := NewGymRepository(pool)

	gym := domain.Gym{
		ID:        uuid.NewString(),
		Title:     "Round Trip Gym",
		Latitude:  decimal.RequireFromString("-22.911192"),
		Longitude: decimal.RequireFromString("-43.686838"),
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, repo.Create(context.Background(), gym))

	stored, err := repo.FindByID(context.Background(), gym.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	require.True(t, gym.Latitude.Equal(stored.Latitude), "latitude changed: %s != %s", gym.Latitude, stored.Latitude)
	require.True(t, gym.Longitude.Equal(stored.Longitude), "longitude changed: %s != %s", gym.Longitude, stored.Longitude)
}

func TestCheckInDailyLimitEnforcedByIndex(t *testing.T) {
	pool := setupPool(t)
	ctx := context.Background()

	gyms := NewGymRepository(pool)
	checkIns := NewCheckInRepository(pool)

	gymID := seedIntegrationGym(t, gyms)
	userID := uuid.NewString()

	first := domain.CheckIn{
		ID:        uuid.NewString(),
		UserID:    userID,
		GymID:     gymID,
		CreatedAt: time.Date(2023, time.February, 20, 8, 0, 0, 0, time.UTC),
	}
	require.NoError(t, checkIns.Create(ctx, first))

	// Same user, same UTC day, different check-in id: the unique index must
	// reject it even though the service-level lookup was bypassed.
	second := first
	second.ID = uuid.NewString()
	second.CreatedAt = first.CreatedAt.Add(4 * time.Hour)
	require.ErrorIs(t, checkIns.Create(ctx, second), domain.ErrDailyCheckInLimit)

	// A new day is allowed again.
	third := first
	third.ID = uuid.NewString()
	third.CreatedAt = first.CreatedAt.AddDate(0, 0, 1)
	require.NoError(t, checkIns.Create(ctx, third))
}

func TestFindByUserIDOnDate(t *testing.T) {
	pool := setupPool(t)
	ctx := context.Background()

	gyms := NewGymRepository(pool)
	checkIns := NewCheckInRepository(pool)

	gymID := seedIntegrationGym(t, gyms)
	userID := uuid.NewString()

	checkIn := domain.CheckIn{
		ID:        uuid.NewString(),
		UserID:    userID,
		GymID:     gymID,
		CreatedAt: time.Date(2023, time.February, 20, 23, 30, 0, 0, time.UTC),
	}
	require.NoError(t, checkIns.Create(ctx, checkIn))

	sameDay, err := checkIns.FindByUserIDOnDate(ctx, userID, time.Date(2023, time.February, 20, 1, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.NotNil(t, sameDay)
	require.Equal(t, checkIn.ID, sameDay.ID)

	nextDay, err := checkIns.FindByUserIDOnDate(ctx, userID, time.Date(2023, time.February, 21, 0, 30, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Nil(t, nextDay)
}

func TestCreateCheckInWritesOutboxEvent(t *testing.T) {
	pool := setupPool(t)
	ctx := context.Background()

	gyms := NewGymRepository(pool)
	checkIns := NewCheckInRepository(pool)

	gymID := seedIntegrationGym(t, gyms)

	checkIn := domain.CheckIn{
		ID:        uuid.NewString(),
		UserID:    uuid.NewString(),
		GymID:     gymID,
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, checkIns.Create(ctx, checkIn))

	var count int
	row := pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM outbox WHERE aggregate_id=$1 AND event_type='checkin.created'`,
		checkIn.ID,
	)
	require.NoError(t, row.Scan(&count))
	require.Equal(t, 1, count)
}

func seedIntegrationGym(t *testing.T, gyms *GymRepository) string {
	t.Helper()
	gym := domain.Gym{
		ID:        uuid.NewString(),
		Title:     "Integration Gym",
		Latitude:  decimal.RequireFromString("-22.911192"),
		Longitude: decimal.RequireFromString("-43.686838"),
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, gyms.Create(context.Background(), gym))
	return gym.ID
}

func setupPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	pg, err := postgrescontainer.RunContainer(ctx,
		postgrescontainer.WithDatabase("checkin"),
		postgrescontainer.WithUsername("checkin"),
		postgrescontainer.WithPassword("checkin"),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pg.Terminate(ctx) })

	connStr, err := pg.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	require.NoError(t, waitForDatabase(ctx, connStr))

	runMigrations(t, ctx, connStr)

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(func() { pool.Close() })
	return pool
}

func runMigrations(t *testing.T, ctx context.Context, connStr string) {
	files := []string{
		"../../../db/postgres/migrations/0001_init.up.sql",
		"../../../db/postgres/migrations/0002_outbox_dlq_attendance.up.sql",
	}

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)
	defer pool.Close()

	for _, rel := range files {
		path := resolvePath(t, rel)
		contents, readErr := os.ReadFile(path)
		require.NoError(t, readErr)

		_, execErr := pool.Exec(ctx, string(contents))
		require.NoError(t, execErr)
	}
}

func resolvePath(t *testing.T, rel string) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	require.True(t, ok)
	return filepath.Join(filepath.Dir(file), rel)
}

func waitForDatabase(ctx context.Context, connStr string) error {
	deadline := time.Now().Add(30 * time.Second)
	for {
		pool, err := pgxpool.New(ctx, connStr)
		if err == nil {
			err = pool.Ping(ctx)
			pool.Close()
			if err == nil {
				return nil
			}
		}
		if time.Now().After(deadline) {
			return err
		}
		time.Sleep(time.Second)
	}
}
