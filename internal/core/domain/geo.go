package domain

import (
	"fmt"
	"math"
)

const earthRadiusMeters = 6371000.0

// DistanceTo is the great-circle distance in meters.
func (l Location) DistanceTo(o Location) float64 {
	lat1, lat2 := radians(l.Latitude), radians(o.Latitude)
	dLat := lat2 - lat1
	dLon := radians(o.Longitude - l.Longitude)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusMeters * math.Asin(math.Min(1, math.Sqrt(a)))
}

// BearingTo is the initial compass heading from l to o in degrees, 0 to 360.
func (l Location) BearingTo(o Location) float64 {
	lat1, lat2 := radians(l.Latitude), radians(o.Latitude)
	dLon := radians(o.Longitude - l.Longitude)

	y := math.Sin(dLon) * math.Cos(lat2)
	x := math.Cos(lat1)*math.Sin(lat2) - math.Sin(lat1)*math.Cos(lat2)*math.Cos(dLon)
	return math.Mod(degrees(math.Atan2(y, x))+360, 360)
}

// Lerp is the point at fraction t of the straight segment from l to o.
func (l Location) Lerp(o Location, t float64) Location {
	return Location{
		Latitude:  l.Latitude + (o.Latitude-l.Latitude)*t,
		Longitude: l.Longitude + (o.Longitude-l.Longitude)*t,
	}
}

// DistanceLabel formats meters the way the tracking screen shows them.
func DistanceLabel(meters float64) string {
	if rounded := int(math.Round(meters/10) * 10); rounded < 1000 {
		return fmt.Sprintf("%d m", rounded)
	}
	return fmt.Sprintf("%.1f km", meters/1000)
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }
func degrees(rad float64) float64 { return rad * 180 / math.Pi }
