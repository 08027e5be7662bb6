package tracking

// MarkerState is what a Surface needs to draw one vehicle.
type MarkerState struct {
	ID       VehicleID `json:"id"`
	Position GeoPoint  `json:"position"`
	Color    string    `json:"color"`
	Label    string    `json:"label"`
}

// Surface renders markers. AddMarker is called once per vehicle, on its
// first consumed point; MoveMarker on every animation frame afterwards.
// Both are only ever called from the animator goroutine.
type Surface interface {
	AddMarker(m MarkerState)
	MoveMarker(id VehicleID, p GeoPoint)
	Close() error
}
