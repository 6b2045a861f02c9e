package domain_test

import (
	"testing"

	"github.com/ArshVermaGit/zomato-customer-app-sub000/internal/core/domain"
	"github.com/stretchr/testify/assert"
)

func TestLocation_DistanceTo(t *testing.T) {
	mgRoad := domain.Location{Latitude: 12.9756, Longitude: 77.6050}
	indiranagar := domain.Location{Latitude: 12.9784, Longitude: 77.6408}

	d := mgRoad.DistanceTo(indiranagar)
	assert.InDelta(t, 3890, d, 50)
	assert.InDelta(t, d, indiranagar.DistanceTo(mgRoad), 0.001)
	assert.Equal(t, 0.0, mgRoad.DistanceTo(mgRoad))
}

func TestLocation_BearingTo(t *testing.T) {
	origin := domain.Location{}
	assert.InDelta(t, 0, origin.BearingTo(domain.Location{Latitude: 1}), 0.001)
	assert.InDelta(t, 90, origin.BearingTo(domain.Location{Longitude: 1}), 0.001)
	assert.InDelta(t, 180, origin.BearingTo(domain.Location{Latitude: -1}), 0.001)
	assert.InDelta(t, 270, origin.BearingTo(domain.Location{Longitude: -1}), 0.001)
}

func TestLocation_Lerp(t *testing.T) {
	a := domain.Location{Latitude: 10, Longitude: 20}
	b := domain.Location{Latitude: 20, Longitude: 40}
	assert.Equal(t, domain.Location{Latitude: 15, Longitude: 30}, a.Lerp(b, 0.5))
	assert.Equal(t, a, a.Lerp(b, 0))
}

func TestDistanceLabel(t *testing.T) {
	tests := []struct {
		meters float64
		label  string
	}{
		{0, "0 m"},
		{454, "450 m"},
		{999, "1.0 km"},
		{1000, "1.0 km"},
		{2149, "2.1 km"},
	}
	for _, test := range tests {
		assert.Equal(t, test.label, domain.DistanceLabel(test.meters))
	}
}
