package filter

import (
	"math"

	"github.com/Irehund/JobTrack/internal/model"
)

// EarthRadiusMiles is the mean Earth radius used for great-circle distance.
const EarthRadiusMiles = 3958.8

// RadiusOptions are the selectable search radii in miles.
var RadiusOptions = []int{10, 25, 50, 75, 100}

// SnapRadius rounds r up to the nearest selectable radius. Values above the
// largest option clamp to it; zero or negative means no radius filter.
func SnapRadius(r int) int {
	if r <= 0 {
		return 0
	}
	for _, opt := range RadiusOptions {
		if r <= opt {
			return opt
		}
	}
	return RadiusOptions[len(RadiusOptions)-1]
}

// Haversine returns the great-circle distance between a and b in miles.
func Haversine(a, b model.Coordinates) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * EarthRadiusMiles * math.Asin(math.Min(1, math.Sqrt(h)))
}
