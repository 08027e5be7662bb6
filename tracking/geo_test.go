package tracking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInterpolate(t *testing.T) {
	tests := []struct {
		name   string
		points []GeoPoint
		want   int
	}{
		{name: "empty batch", points: nil, want: 0},
		{name: "single point", points: []GeoPoint{{Lat: 1, Lng: 2}}, want: 1},
		{name: "two points", points: []GeoPoint{{0, 0}, {4, 8}}, want: 4},
		{
			name:   "five points",
			points: []GeoPoint{{0, 0}, {1, 1}, {2, 4}, {3, 9}, {4, 16}},
			want:   13,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Interpolate(tt.points)
			require.Len(t, got, tt.want)
			for k, p := range tt.points {
				assert.Equal(t, p, got[3*k], "input point %d", k)
			}
		})
	}
}

func TestInterpolateQuarterPoints(t *testing.T) {
	got := Interpolate([]GeoPoint{{Lat: 0, Lng: 100}, {Lat: 4, Lng: 80}})

	require.Len(t, got, 4)
	assert.Equal(t, GeoPoint{Lat: 1, Lng: 95}, got[1])
	assert.Equal(t, GeoPoint{Lat: 3, Lng: 85}, got[2])
	assert.Equal(t, GeoPoint{Lat: 4, Lng: 80}, got[3])
}

func TestInterpolateKeepsInputIntact(t *testing.T) {
	in := []GeoPoint{{1, 1}, {2, 2}}
	_ = Interpolate(in)
	assert.Equal(t, []GeoPoint{{1, 1}, {2, 2}}, in)
}

func TestVehicleLabel(t *testing.T) {
	assert.Equal(t, "Camión 42", VehicleID(42).Label())
}
