package alarm

import "math"

const (
	// earthRadiusMeters is the mean Earth radius of the spherical model.
	earthRadiusMeters = 6_371_000.0

	// GeoConfirmRadiusMeters is the distance within which a location
	// re-check confirms the geo condition.
	GeoConfirmRadiusMeters = 200.0
)

// Haversine returns the great-circle distance in meters between two points
// on a spherical Earth. This is an approximation: no ellipsoidal correction
// is applied, which is more than accurate enough for a 200 m geofence.
func Haversine(a, b GeoPoint) float64 {
	var (
		latA = a.Latitude * math.Pi / 180
		latB = b.Latitude * math.Pi / 180
		dLat = (b.Latitude - a.Latitude) * math.Pi / 180
		dLon = (b.Longitude - a.Longitude) * math.Pi / 180
	)

	sinLat := math.Sin(dLat / 2)
	sinLon := math.Sin(dLon / 2)

	h := sinLat*sinLat + math.Cos(latA)*math.Cos(latB)*sinLon*sinLon

	return 2 * earthRadiusMeters * math.Asin(math.Min(1, math.Sqrt(h)))
}

// WithinGeoTarget reports whether the current position confirms the alarm's
// geofence. It is false when no target was ever captured.
func (a *Alarm) WithinGeoTarget(current GeoPoint) bool {
	if a.GeoTarget == nil {
		return false
	}

	return Haversine(current, *a.GeoTarget) < GeoConfirmRadiusMeters
}
