package tracking

import "fmt"

// VehicleID identifies a tracked truck.
type VehicleID int64

// GeoPoint is a latitude/longitude pair in degrees.
type GeoPoint struct {
	Lat float64 `json:"latitud"`
	Lng float64 `json:"longitud"`
}

// LocationBatch is the body of a message on the location topic.
type LocationBatch struct {
	ID          VehicleID  `json:"id"`
	Ubicaciones []GeoPoint `json:"ubicaciones"`
}

// Label is the popup text shown next to a vehicle marker.
func (id VehicleID) Label() string {
	return fmt.Sprintf("Camión %d", id)
}

// Lerp returns the point at fraction t of the way from p to q. Latitude
// and longitude are interpolated independently.
func Lerp(p, q GeoPoint, t float64) GeoPoint {
	return GeoPoint{
		Lat: p.Lat + (q.Lat-p.Lat)*t,
		Lng: p.Lng + (q.Lng-p.Lng)*t,
	}
}

// Interpolate densifies a batch for animation. Every consecutive pair
// (P[i], P[i+1]) contributes P[i] and the points at 25% and 75% towards
// P[i+1]; the last point is appended once. A batch of n>0 points yields
// 3(n-1)+1 points, an empty batch yields none.
func Interpolate(points []GeoPoint) []GeoPoint {
	if len(points) == 0 {
		return nil
	}
	out := make([]GeoPoint, 0, 3*(len(points)-1)+1)
	for i := 0; i < len(points)-1; i++ {
		p, q := points[i], points[i+1]
		out = append(out, p, Lerp(p, q, 0.25), Lerp(p, q, 0.75))
	}
	return append(out, points[len(points)-1])
}
