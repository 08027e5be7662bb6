package main

import (
	"context"
	"encoding/xml"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// SiriXmlVehicleFeedSource reads a SIRI VehicleMonitoring XML document.
type SiriXmlVehicleFeedSource struct {
	httpFeed
}

func NewSiriXmlVehicleFeedSource(url string, timeout time.Duration) *SiriXmlVehicleFeedSource {
	return &SiriXmlVehicleFeedSource{newHTTPFeed("siri xml", url, timeout)}
}

func (s *SiriXmlVehicleFeedSource) Fetch(ctx context.Context) ([]Vehicle, error) {
	body, err := s.get(ctx)
	if err != nil {
		return nil, err
	}
	defer body.Close()
	return parseSiriXML(body)
}

// parseSiriXML streams the document and matches elements by local name, so
// any namespace prefix is accepted. A VehicleActivity contributes a vehicle
// when it carries a VehicleRef and a parseable VehicleLocation.
func parseSiriXML(r io.Reader) ([]Vehicle, error) {
	dec := xml.NewDecoder(r)

	var (
		path           []string
		curID          string
		curLat, curLon string
		vehicles       []Vehicle
	)
	within := func(name string) bool {
		for _, p := range path {
			if p == name {
				return true
			}
		}
		return false
	}

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return vehicles, nil
		}
		if err != nil {
			return nil, errors.Wrap(err, "decode siri xml")
		}
		switch el := tok.(type) {
		case xml.StartElement:
			name := el.Name.Local
			switch {
			case name == "VehicleActivity" && within("VehicleMonitoringDelivery"):
				curID, curLat, curLon = "", "", ""
			case name == "VehicleRef" && within("VehicleActivity"):
				curID = textOf(dec, &el)
				continue
			case name == "Latitude" && within("VehicleLocation"):
				curLat = textOf(dec, &el)
				continue
			case name == "Longitude" && within("VehicleLocation"):
				curLon = textOf(dec, &el)
				continue
			}
			path = append(path, name)
		case xml.EndElement:
			if len(path) == 0 {
				continue
			}
			path = path[:len(path)-1]
			if el.Name.Local != "VehicleActivity" || !within("VehicleMonitoringDelivery") {
				continue
			}
			if curID == "" {
				continue
			}
			if lat, lon, ok := parseLatLon(curLat, curLon); ok {
				vehicles = append(vehicles, Vehicle{ID: curID, Lat: lat, Lon: lon})
			}
		}
	}
}

// textOf consumes el and returns its trimmed character data.
func textOf(dec *xml.Decoder, el *xml.StartElement) string {
	var v string
	if err := dec.DecodeElement(&v, el); err != nil {
		return ""
	}
	return strings.TrimSpace(v)
}

func parseLatLon(lat, lon string) (float64, float64, bool) {
	lf, err := strconv.ParseFloat(lat, 64)
	if err != nil {
		return 0, 0, false
	}
	lo, err := strconv.ParseFloat(lon, 64)
	if err != nil {
		return 0, 0, false
	}
	return lf, lo, true
}
