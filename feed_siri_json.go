package main

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/pkg/errors"
)

// SiriJsonVehicleFeedSource reads a SIRI VehicleMonitoring JSON document.
type SiriJsonVehicleFeedSource struct {
	httpFeed
}

func NewSiriJsonVehicleFeedSource(url string, timeout time.Duration) *SiriJsonVehicleFeedSource {
	return &SiriJsonVehicleFeedSource{newHTTPFeed("siri json", url, timeout)}
}

func (s *SiriJsonVehicleFeedSource) Fetch(ctx context.Context) ([]Vehicle, error) {
	body, err := s.getAll(ctx)
	if err != nil {
		return nil, err
	}
	return parseSiriJSON(body)
}

// parseSiriJSON walks Siri?.ServiceDelivery.VehicleMonitoringDelivery[]
// .VehicleActivity[].MonitoredVehicleJourney without a full schema.
func parseSiriJSON(body []byte) ([]Vehicle, error) {
	var root map[string]any
	if err := json.Unmarshal(body, &root); err != nil {
		return nil, errors.Wrap(err, "decode siri json")
	}
	if siri, ok := root["Siri"].(map[string]any); ok {
		root = siri
	}
	sd, _ := root["ServiceDelivery"].(map[string]any)

	var vehicles []Vehicle
	for _, vmd := range objects(sd["VehicleMonitoringDelivery"]) {
		for _, va := range objects(vmd["VehicleActivity"]) {
			mvj, _ := va["MonitoredVehicleJourney"].(map[string]any)
			if mvj == nil {
				continue
			}
			id := stringFrom(mvj["VehicleRef"])
			if id == "" {
				id = stringFromNested(mvj, "FramedVehicleJourneyRef", "DatedVehicleJourneyRef")
			}
			lat := floatFromNested(mvj, "VehicleLocation", "Latitude")
			lon := floatFromNested(mvj, "VehicleLocation", "Longitude")
			if id == "" || (lat == 0 && lon == 0) {
				continue
			}
			vehicles = append(vehicles, Vehicle{ID: id, Lat: lat, Lon: lon})
		}
	}
	return vehicles, nil
}

// objects accepts a JSON array of objects or a single object.
func objects(v any) []map[string]any {
	switch t := v.(type) {
	case map[string]any:
		return []map[string]any{t}
	case []any:
		out := make([]map[string]any, 0, len(t))
		for _, e := range t {
			if m, ok := e.(map[string]any); ok {
				out = append(out, m)
			}
		}
		return out
	}
	return nil
}

// stringFrom also accepts the {"value": ...} wrapping some producers use
// for references.
func stringFrom(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case map[string]any:
		return stringFrom(t["value"])
	}
	return ""
}

func stringFromNested(m map[string]any, k1, k2 string) string {
	m1, _ := m[k1].(map[string]any)
	return stringFrom(m1[k2])
}

func floatFromNested(m map[string]any, k1, k2 string) float64 {
	m1, _ := m[k1].(map[string]any)
	switch v := m1[k2].(type) {
	case float64:
		return v
	case string:
		f, _ := strconv.ParseFloat(v, 64)
		return f
	}
	return 0
}
