package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistanceKm_SamePointIsZero(t *testing.T) {
	points := []Point{
		{Lat: 0, Lon: 0},
		{Lat: 21.0285, Lon: 105.8542},
		{Lat: -33.8688, Lon: 151.2093},
		{Lat: 90, Lon: 0},
		{Lat: -90, Lon: 180},
	}

	for _, p := range points {
		assert.Equal(t, 0.0, DistanceKm(p.Lat, p.Lon, p.Lat, p.Lon))
	}
}

func TestDistanceKm_Symmetric(t *testing.T) {
	hanoi := Point{Lat: 21.0285, Lon: 105.8542}
	saigon := Point{Lat: 10.7769, Lon: 106.7009}
	paris := Point{Lat: 48.8566, Lon: 2.3522}

	assert.Equal(t, Distance(hanoi, saigon), Distance(saigon, hanoi))
	assert.Equal(t, Distance(hanoi, paris), Distance(paris, hanoi))
	assert.Equal(t, Distance(saigon, paris), Distance(paris, saigon))
}

func TestDistanceKm_HanoiToSaigon(t *testing.T) {
	d := DistanceKm(21.0285, 105.8542, 10.7769, 106.7009)
	assert.InDelta(t, 1140, d, 20)
}

func TestDistanceKm_SmallOffsets(t *testing.T) {
	// 0.03 degrees of latitude is roughly 3.3 km.
	near := DistanceKm(10.0, 106.0, 10.03, 106.0)
	assert.InDelta(t, 3.34, near, 0.05)
	assert.Less(t, near, 5.0)

	far := DistanceKm(10.0, 106.0, 10.1, 106.0)
	assert.InDelta(t, 11.1, far, 0.1)
	assert.Greater(t, far, 5.0)
}

func TestDistanceKm_Antipodal(t *testing.T) {
	d := DistanceKm(0, 0, 0, 180)
	assert.InDelta(t, math.Pi*EarthRadiusKm, d, 0.001)
	assert.False(t, math.IsNaN(d))
}

func TestValidCoordinates(t *testing.T) {
	assert.True(t, ValidCoordinates(10.7769, 106.7009))
	assert.True(t, ValidCoordinates(-90, -180))
	assert.False(t, ValidCoordinates(91, 0))
	assert.False(t, ValidCoordinates(0, 180.5))
	assert.False(t, ValidCoordinates(math.NaN(), 0))
}
