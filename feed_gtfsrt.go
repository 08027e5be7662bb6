package main

import (
	"context"
	"time"

	gtfs "github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"github.com/pkg/errors"
	"google.golang.org/protobuf/proto"
)

// GtfsRtVehicleFeedSource reads a GTFS-Realtime VehiclePositions feed.
type GtfsRtVehicleFeedSource struct {
	httpFeed
}

func NewGtfsRtVehicleFeedSource(url string, timeout time.Duration) *GtfsRtVehicleFeedSource {
	return &GtfsRtVehicleFeedSource{newHTTPFeed("gtfs-rt", url, timeout)}
}

func (s *GtfsRtVehicleFeedSource) Fetch(ctx context.Context) ([]Vehicle, error) {
	body, err := s.getAll(ctx)
	if err != nil {
		return nil, err
	}
	return parseGtfsRt(body)
}

// parseGtfsRt keeps entities that carry a vehicle id and both coordinates.
func parseGtfsRt(body []byte) ([]Vehicle, error) {
	var feed gtfs.FeedMessage
	if err := proto.Unmarshal(body, &feed); err != nil {
		return nil, errors.Wrap(err, "decode gtfs-rt feed")
	}
	vehicles := make([]Vehicle, 0, len(feed.GetEntity()))
	for _, ent := range feed.GetEntity() {
		vp := ent.GetVehicle()
		if vp == nil || vp.Position == nil {
			continue
		}
		id := vp.GetVehicle().GetId()
		if id == "" {
			continue
		}
		pos := vp.GetPosition()
		if pos.Latitude == nil || pos.Longitude == nil {
			continue
		}
		vehicles = append(vehicles, Vehicle{
			ID:  id,
			Lat: float64(pos.GetLatitude()),
			Lon: float64(pos.GetLongitude()),
		})
	}
	return vehicles, nil
}
