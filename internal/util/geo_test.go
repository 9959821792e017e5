package util

import (
	"math"
	"testing"

	"github.com/paulmach/orb"
)

func TestValidLonLat(t *testing.T) {
	tests := []struct {
		name     string
		lon, lat float64
		want     bool
	}{
		{"origin", 0, 0, true},
		{"bounds", 180, -90, true},
		{"lon too large", 200, 10, false},
		{"lat too small", 10, -90.5, false},
		{"nan", math.NaN(), 0, false},
		{"inf", 0, math.Inf(1), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidLonLat(tt.lon, tt.lat); got != tt.want {
				t.Errorf("ValidLonLat(%v, %v) = %v, want %v", tt.lon, tt.lat, got, tt.want)
			}
		})
	}
}

func TestWrapLongitude(t *testing.T) {
	tests := map[float64]float64{
		0:    0,
		180:  180,
		-180: -180,
		190:  -170,
		-190: 170,
		540:  -180,
	}
	for in, want := range tests {
		if got := WrapLongitude(in); math.Abs(got-want) > 1e-9 {
			t.Errorf("WrapLongitude(%v) = %v, want %v", in, got, want)
		}
	}
}

func TestInterpolateEndpoints(t *testing.T) {
	start := orb.Point{-74.0242, 40.6941}
	end := orb.Point{2.3522, 48.8566}

	if got := Interpolate(start, end, 0); got != start {
		t.Errorf("t=0 got %v, want %v", got, start)
	}
	if got := Interpolate(start, end, 1); got != end {
		t.Errorf("t=1 got %v, want %v", got, end)
	}

	mid := Interpolate(start, end, 0.5)
	if !ValidLonLat(mid[0], mid[1]) {
		t.Fatalf("midpoint out of range: %v", mid)
	}
	d1 := HaversineDistance(start, mid)
	d2 := HaversineDistance(mid, end)
	if math.Abs(d1-d2) > 1000 {
		t.Errorf("midpoint not halfway: %.0fm vs %.0fm", d1, d2)
	}
}
