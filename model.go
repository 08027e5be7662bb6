package main

import (
	"strconv"
	"sync"

	"transporte-admin/tracking"
)

// Vehicle is a position reported by a polled feed.
type Vehicle struct {
	ID         string  `json:"id"`
	Lat        float64 `json:"lat"`
	Lon        float64 `json:"lon"`
	LastUpdate int64   `json:"lastUpdate"`
}

func (v Vehicle) point() tracking.GeoPoint {
	return tracking.GeoPoint{Lat: v.Lat, Lng: v.Lon}
}

// syntheticIDBase keeps ids given to non-numeric feed references clear of
// the fleet's own truck numbers.
const syntheticIDBase tracking.VehicleID = 1 << 40

// vehicleIDs maps external vehicle references to VehicleIDs. Numeric
// references are used as they are; others get stable ids in first-seen
// order.
type vehicleIDs struct {
	mu    sync.Mutex
	byRef map[string]tracking.VehicleID
}

func newVehicleIDs() *vehicleIDs {
	return &vehicleIDs{byRef: make(map[string]tracking.VehicleID)}
}

func (r *vehicleIDs) resolve(ref string) tracking.VehicleID {
	if n, err := strconv.ParseInt(ref, 10, 64); err == nil && n >= 0 && tracking.VehicleID(n) < syntheticIDBase {
		return tracking.VehicleID(n)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.byRef[ref]
	if !ok {
		id = syntheticIDBase + tracking.VehicleID(len(r.byRef))
		r.byRef[ref] = id
	}
	return id
}
