package alarm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestHaversine checks the identity, symmetry and a known reference distance.
func TestHaversine(t *testing.T) {
	t.Parallel()

	mumbai := GeoPoint{Latitude: 19.0760, Longitude: 72.8777}
	delhi := GeoPoint{Latitude: 28.7041, Longitude: 77.1025}

	// Distance to itself is zero.
	require.Zero(t, Haversine(mumbai, mumbai))

	// Symmetric.
	require.InDelta(t, Haversine(mumbai, delhi), Haversine(delhi, mumbai), 1e-9)

	// Mumbai-Delhi is roughly 1150 km on the spherical model.
	require.InDelta(t, 1_150_000, Haversine(mumbai, delhi), 20_000)
}

// TestWithinGeoTarget covers the confirmation radius and the missing-target case.
func TestWithinGeoTarget(t *testing.T) {
	t.Parallel()

	target := GeoPoint{Latitude: 19.0760, Longitude: 72.8777}
	a := &Alarm{
		Conditions: []Condition{ConditionGeo},
		GeoTarget:  &target,
	}

	// Same point is inside the radius.
	require.True(t, a.WithinGeoTarget(target))

	// ~150 m north is still inside the 200 m radius.
	near := GeoPoint{Latitude: target.Latitude + 0.00135, Longitude: target.Longitude}
	require.True(t, a.WithinGeoTarget(near))

	// ~1.1 km north is outside.
	far := GeoPoint{Latitude: target.Latitude + 0.01, Longitude: target.Longitude}
	require.False(t, a.WithinGeoTarget(far))

	// Without a captured target the check can never confirm.
	noTarget := &Alarm{Conditions: []Condition{ConditionGeo}}
	require.False(t, noTarget.WithinGeoTarget(target))
}
