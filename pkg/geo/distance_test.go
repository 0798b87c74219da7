package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistanceZero(t *testing.T) {
	pts := []Point{
		{41.8781, -87.6298},
		{0, 0},
		{-33.8688, 151.2093},
	}
	for _, p := range pts {
		assert.InDelta(t, 0, DistanceBetween(p, p), 1e-9)
	}
}

func TestDistanceSymmetric(t *testing.T) {
	a := Point{41.8781, -87.6298}  // Chicago Loop
	b := Point{41.9484, -87.6553}  // Lincoln Park
	assert.InDelta(t, DistanceBetween(a, b), DistanceBetween(b, a), 1e-9)
}

func TestDistanceKnownValue(t *testing.T) {
	// Chicago Loop to O'Hare is roughly 15 miles as the crow flies.
	d := Distance(41.8781, -87.6298, 41.9742, -87.9073)
	assert.InDelta(t, 15.5, d, 1.0)
}

func TestPointValid(t *testing.T) {
	assert.True(t, Point{41.88, -87.63}.Valid())
	assert.False(t, Point{91, 0}.Valid())
	assert.False(t, Point{0, -181}.Valid())
	assert.False(t, Point{math.NaN(), 0}.Valid())
}
