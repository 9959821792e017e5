package util

import (
	"math"

	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"
	"github.com/paulmach/orb"
)

const earthRadiusMeters = 6371000.0

// ValidLonLat reports whether lon/lat are finite and inside the WGS84 ranges
func ValidLonLat(lon, lat float64) bool {
	if math.IsNaN(lon) || math.IsNaN(lat) || math.IsInf(lon, 0) || math.IsInf(lat, 0) {
		return false
	}
	return lon >= -180 && lon <= 180 && lat >= -90 && lat <= 90
}

// WrapLongitude maps any finite longitude into [-180, 180]
func WrapLongitude(lon float64) float64 {
	if lon >= -180 && lon <= 180 {
		return lon
	}
	wrapped := math.Mod(lon+180, 360)
	if wrapped < 0 {
		wrapped += 360
	}
	return wrapped - 180
}

// ClampLatitude limits a latitude to [-90, 90]
func ClampLatitude(lat float64) float64 {
	return math.Max(-90, math.Min(90, lat))
}

// NormalizePoint wraps the longitude and clamps the latitude of a [lon, lat] point
func NormalizePoint(p orb.Point) orb.Point {
	return orb.Point{WrapLongitude(p[0]), ClampLatitude(p[1])}
}

// Interpolate returns the point at fraction t along the great circle from start to end.
// Points are [lon, lat].
func Interpolate(start, end orb.Point, t float64) orb.Point {
	if t <= 0 {
		return start
	}
	if t >= 1 {
		return end
	}

	a := s2.PointFromLatLng(s2.LatLngFromDegrees(start[1], start[0]))
	b := s2.PointFromLatLng(s2.LatLngFromDegrees(end[1], end[0]))

	ll := s2.LatLngFromPoint(s2.Interpolate(t, a, b))
	return NormalizePoint(orb.Point{ll.Lng.Degrees(), ll.Lat.Degrees()})
}

// HaversineDistance returns the great circle distance in meters between two [lon, lat] points
func HaversineDistance(start, end orb.Point) float64 {
	a := s2.PointFromLatLng(s2.LatLngFromDegrees(start[1], start[0]))
	b := s2.PointFromLatLng(s2.LatLngFromDegrees(end[1], end[0]))

	angle := s1.Angle(s2.ChordAngleBetweenPoints(a, b).Angle())
	return angle.Radians() * earthRadiusMeters
}
