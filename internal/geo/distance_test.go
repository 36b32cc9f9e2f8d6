package geo

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDistanceBetweenIdenticalPoints(t *testing.T) {
	point := Coordinate{Latitude: -22.911192, Longitude: -43.6868376}
	require.Zero(t, DistanceBetween(point, point))
}

func TestDistanceBetweenIsSymmetric(t *testing.T) {
	pairs := []struct {
		from Coordinate
		to   Coordinate
	}{
		{Coordinate{-22.911192, -43.6868376}, Coordinate{-22.8824611, -43.6514674}},
		{Coordinate{0, 0}, Coordinate{0, 180}},
		{Coordinate{51.5007, -0.1246}, Coordinate{40.6892, -74.0445}},
	}

	for _, pair := range pairs {
		require.Equal(t, DistanceBetween(pair.from, pair.to), DistanceBetween(pair.to, pair.from))
	}
}

func TestDistanceBetweenNearbyGyms(t *testing.T) {
	user := Coordinate{Latitude: -22.911192, Longitude: -43.6868376}
	gym := Coordinate{Latitude: -22.8824611, Longitude: -43.6514674}

	km := DistanceBetween(user, gym)
	require.Greater(t, km, 3.0)
	require.Less(t, km, 6.0)
}

func TestDistanceBetweenKnownLandmarks(t *testing.T) {
	london := Coordinate{Latitude: 51.5007, Longitude: -0.1246}
	newYork := Coordinate{Latitude: 40.6892, Longitude: -74.0445}

	km := DistanceBetween(london, newYork)
	require.InDelta(t, 5575, km, 25)
}
