package domain_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"example.com/checkin/internal/domain"
	"example.com/checkin/internal/geo"
	"example.com/checkin/internal/persistence/memory"
)

type fixture struct {
	gyms     *memory.GymRepository
	checkIns *memory.CheckInRepository
	service  *domain.Service
	now      time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		gyms:     memory.NewGymRepository(),
		checkIns: memory.NewCheckInRepository(),
		now:      time.Date(2023, time.February, 20, 8, 0, 0, 0, time.UTC),
	}
	f.service = domain.NewService(f.gyms, f.checkIns).WithClock(func() time.Time { return f.now })
	return f
}

func (f *fixture) seedGym(t *testing.T, id string, lat, lng float64) {
	t.Helper()
	require.NoError(t, f.gyms.Create(context.Background(), domain.Gym{
		ID:        id,
		Title:     "Go Gym",
		Latitude:  decimal.NewFromFloat(lat),
		Longitude: decimal.NewFromFloat(lng),
	}))
}

func TestCheckIn(t *testing.T) {
	f := newFixture(t)
	f.seedGym(t, "gym-01", -22.911192, -43.6868376)

	checkIn, err := f.service.CheckIn(context.Background(), domain.CheckInInput{
		UserID:        "user-01",
		GymID:         "gym-01",
		UserLatitude:  -22.911192,
		UserLongitude: -43.6868376,
	})
	require.NoError(t, err)
	require.NotEmpty(t, checkIn.ID)
	require.Equal(t, "user-01", checkIn.UserID)
	require.Equal(t, "gym-01", checkIn.GymID)
	require.Equal(t, f.now, checkIn.CreatedAt)
	require.Nil(t, checkIn.ValidatedAt)
}

func TestCheckInUnknownGym(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.CheckIn(context.Background(), domain.CheckInInput{
		UserID:        "user-01",
		GymID:         "gym-missing",
		UserLatitude:  -22.911192,
		UserLongitude: -43.6868376,
	})
	require.ErrorIs(t, err, domain.ErrGymNotFound)

	count, err := f.checkIns.CountByUser(context.Background(), "user-01")
	require.NoError(t, err)
	require.Zero(t, count, "failed gates must not persist anything")
}

func TestCheckInDistantGym(t *testing.T) {
	f := newFixture(t)
	f.seedGym(t, "gym-02", -22.8824611, -43.6514674)

	_, err := f.service.CheckIn(context.Background(), domain.CheckInInput{
		UserID:        "user-01",
		GymID:         "gym-02",
		UserLatitude:  -22.911192,
		UserLongitude: -43.6868376,
	})
	require.ErrorIs(t, err, domain.ErrMaxDistanceExceeded)

	count, err := f.checkIns.CountByUser(context.Background(), "user-01")
	require.NoError(t, err)
	require.Zero(t, count)
}

func TestCheckInDistanceBoundary(t *testing.T) {
	// One degree of latitude spans ~111.19 km, so these offsets sit just
	// inside and just outside the 100 m limit.
	f := newFixture(t)
	f.seedGym(t, "gym-01", -22.911192, -43.6868376)

	_, err := f.service.CheckIn(context.Background(), domain.CheckInInput{
		UserID:        "user-near",
		GymID:         "gym-01",
		UserLatitude:  -22.911192 + 0.0008, // ~89 m
		UserLongitude: -43.6868376,
	})
	require.NoError(t, err)

	_, err = f.service.CheckIn(context.Background(), domain.CheckInInput{
		UserID:        "user-far",
		GymID:         "gym-01",
		UserLatitude:  -22.911192 + 0.00095, // ~106 m
		UserLongitude: -43.6868376,
	})
	require.ErrorIs(t, err, domain.ErrMaxDistanceExceeded)
}

func TestCheckInTwiceSameDay(t *testing.T) {
	f := newFixture(t)
	f.seedGym(t, "gym-01", -22.911192, -43.6868376)

	input := domain.CheckInInput{
		UserID:        "user-01",
		GymID:         "gym-01",
		UserLatitude:  -22.911192,
		UserLongitude: -43.6868376,
	}

	_, err := f.service.CheckIn(context.Background(), input)
	require.NoError(t, err)

	f.now = time.Date(2023, time.February, 20, 10, 0, 0, 0, time.UTC)
	_, err = f.service.CheckIn(context.Background(), input)
	require.ErrorIs(t, err, domain.ErrDailyCheckInLimit)
}

func TestCheckInOnFollowingDay(t *testing.T) {
	f := newFixture(t)
	f.seedGym(t, "gym-01", -22.911192, -43.6868376)

	input := domain.CheckInInput{
		UserID:        "user-01",
		GymID:         "gym-01",
		UserLatitude:  -22.911192,
		UserLongitude: -43.6868376,
	}

	_, err := f.service.CheckIn(context.Background(), input)
	require.NoError(t, err)

	f.now = time.Date(2023, time.February, 21, 8, 0, 0, 0, time.UTC)
	checkIn, err := f.service.CheckIn(context.Background(), input)
	require.NoError(t, err)
	require.NotEmpty(t, checkIn.ID)
}

func TestDailyLimitAppliesAcrossGyms(t *testing.T) {
	f := newFixture(t)
	f.seedGym(t, "gym-01", -22.911192, -43.6868376)
	f.seedGym(t, "gym-03", -22.911192, -43.6868376)

	_, err := f.service.CheckIn(context.Background(), domain.CheckInInput{
		UserID:        "user-01",
		GymID:         "gym-01",
		UserLatitude:  -22.911192,
		UserLongitude: -43.6868376,
	})
	require.NoError(t, err)

	_, err = f.service.CheckIn(context.Background(), domain.CheckInInput{
		UserID:        "user-01",
		GymID:         "gym-03",
		UserLatitude:  -22.911192,
		UserLongitude: -43.6868376,
	})
	require.ErrorIs(t, err, domain.ErrDailyCheckInLimit)
}

func TestValidateCheckIn(t *testing.T) {
	f := newFixture(t)
	f.seedGym(t, "gym-01", -22.911192, -43.6868376)

	checkIn, err := f.service.CheckIn(context.Background(), domain.CheckInInput{
		UserID:        "user-01",
		GymID:         "gym-01",
		UserLatitude:  -22.911192,
		UserLongitude: -43.6868376,
	})
	require.NoError(t, err)

	f.now = f.now.Add(10 * time.Minute)
	validated, err := f.service.ValidateCheckIn(context.Background(), checkIn.ID)
	require.NoError(t, err)
	require.NotNil(t, validated.ValidatedAt)
	require.Equal(t, f.now, *validated.ValidatedAt)

	stored, err := f.checkIns.FindByID(context.Background(), checkIn.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.ValidatedAt)
}

func TestValidateCheckInAfterWindow(t *testing.T) {
	f := newFixture(t)
	f.seedGym(t, "gym-01", -22.911192, -43.6868376)

	checkIn, err := f.service.CheckIn(context.Background(), domain.CheckInInput{
		UserID:        "user-01",
		GymID:         "gym-01",
		UserLatitude:  -22.911192,
		UserLongitude: -43.6868376,
	})
	require.NoError(t, err)

	f.now = f.now.Add(21 * time.Minute)
	_, err = f.service.ValidateCheckIn(context.Background(), checkIn.ID)
	require.ErrorIs(t, err, domain.ErrLateCheckInValidation)
}

func TestValidateUnknownCheckIn(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.ValidateCheckIn(context.Background(), "checkin-missing")
	require.ErrorIs(t, err, domain.ErrCheckInNotFound)
}

func TestCreateGymGeneratesDistinctIDs(t *testing.T) {
	f := newFixture(t)

	first, err := f.service.CreateGym(context.Background(), domain.CreateGymInput{
		Title:     "Go Gym",
		Latitude:  decimal.NewFromFloat(-22.911192),
		Longitude: decimal.NewFromFloat(-43.6868376),
	})
	require.NoError(t, err)
	require.NotEmpty(t, first.ID)

	second, err := f.service.CreateGym(context.Background(), domain.CreateGymInput{
		Title:     "Go Gym Annex",
		Latitude:  decimal.NewFromFloat(-22.911192),
		Longitude: decimal.NewFromFloat(-43.6868376),
	})
	require.NoError(t, err)
	require.NotEmpty(t, second.ID)
	require.NotEqual(t, first.ID, second.ID)
}

func TestCreateGymKeepsExplicitID(t *testing.T) {
	f := newFixture(t)

	gym, err := f.service.CreateGym(context.Background(), domain.CreateGymInput{
		ID:        "gym-explicit",
		Title:     "Go Gym",
		Latitude:  decimal.NewFromFloat(-22.911192),
		Longitude: decimal.NewFromFloat(-43.6868376),
	})
	require.NoError(t, err)
	require.Equal(t, "gym-explicit", gym.ID)
}

func TestSearchGymsPaginates(t *testing.T) {
	f := newFixture(t)
	for i := 1; i <= 22; i++ {
		f.seedGym(t, fmt.Sprintf("gym-%02d", i), -22.911192, -43.6868376)
	}

	page1, err := f.service.SearchGyms(context.Background(), "Go Gym", 1)
	require.NoError(t, err)
	require.Len(t, page1, domain.PageSize)

	page2, err := f.service.SearchGyms(context.Background(), "Go Gym", 2)
	require.NoError(t, err)
	require.Len(t, page2, 2)
	require.Equal(t, "gym-21", page2[0].ID)
	require.Equal(t, "gym-22", page2[1].ID)
}

func TestNearbyGyms(t *testing.T) {
	f := newFixture(t)
	f.seedGym(t, "gym-near", -22.911192, -43.6868376)
	f.seedGym(t, "gym-far", -27.2092052, -49.6401091)

	gyms, err := f.service.NearbyGyms(context.Background(), geo.Coordinate{
		Latitude:  -22.911192,
		Longitude: -43.6868376,
	})
	require.NoError(t, err)
	require.Len(t, gyms, 1)
	require.Equal(t, "gym-near", gyms[0].ID)
}

func TestCheckInHistoryAndCount(t *testing.T) {
	f := newFixture(t)
	f.seedGym(t, "gym-01", -22.911192, -43.6868376)

	input := domain.CheckInInput{
		UserID:        "user-01",
		GymID:         "gym-01",
		UserLatitude:  -22.911192,
		UserLongitude: -43.6868376,
	}

	for day := 0; day < 3; day++ {
		f.now = time.Date(2023, time.February, 20+day, 8, 0, 0, 0, time.UTC)
		_, err := f.service.CheckIn(context.Background(), input)
		require.NoError(t, err)
	}

	history, err := f.service.CheckInHistory(context.Background(), "user-01", 1)
	require.NoError(t, err)
	require.Len(t, history, 3)
	require.True(t, history[0].CreatedAt.After(history[2].CreatedAt), "newest first")

	count, err := f.service.CheckInCount(context.Background(), "user-01")
	require.NoError(t, err)
	require.Equal(t, 3, count)
}
