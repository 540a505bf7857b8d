package utils

import "math"

// EarthRadiusMeters is the mean Earth radius used by the Haversine formula.
const EarthRadiusMeters = 6371000.0

// HaversineDistance returns the great-circle distance in meters between two
// points given in degrees.
func HaversineDistance(lat1, lng1, lat2, lng2 float64) float64 {
	toRad := func(deg float64) float64 { return deg * math.Pi / 180.0 }

	phi1 := toRad(lat1)
	phi2 := toRad(lat2)
	dPhi := toRad(lat2 - lat1)
	dLambda := toRad(lng2 - lng1)

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) + math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusMeters * c
}

// DistanceMeters is HaversineDistance rounded to the nearest whole meter,
// which is what gets stored on a restaurant.
func DistanceMeters(lat1, lng1, lat2, lng2 float64) int {
	return int(math.Round(HaversineDistance(lat1, lng1, lat2, lng2)))
}
