package model

import (
	"fmt"
	"math"
)

// CoordinatePrecision is the number of decimal places kept in cache keys
// (about 11 metres at the equator).
const CoordinatePrecision = 4

var precisionScale = math.Pow10(CoordinatePrecision)

// CommuteKey identifies a (home, job) pair at fixed precision so repeated
// queries for the same logical pair always produce the same key.
type CommuteKey struct {
	HomeLat float64
	HomeLon float64
	JobLat  float64
	JobLon  float64
}

// NewCommuteKey rounds both coordinates to CoordinatePrecision.
func NewCommuteKey(home, job Coordinates) CommuteKey {
	return CommuteKey{
		HomeLat: Round(home.Lat),
		HomeLon: Round(home.Lon),
		JobLat:  Round(job.Lat),
		JobLon:  Round(job.Lon),
	}
}

// Round rounds v to CoordinatePrecision decimal places.
func Round(v float64) float64 {
	return math.Round(v*precisionScale) / precisionScale
}

// Job returns the rounded job coordinates.
func (k CommuteKey) Job() Coordinates {
	return Coordinates{Lat: k.JobLat, Lon: k.JobLon}
}

// Home returns the rounded home coordinates.
func (k CommuteKey) Home() Coordinates {
	return Coordinates{Lat: k.HomeLat, Lon: k.HomeLon}
}

func (k CommuteKey) String() string {
	return fmt.Sprintf("%.4f,%.4f:%.4f,%.4f", k.HomeLat, k.HomeLon, k.JobLat, k.JobLon)
}
