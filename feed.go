package main

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/hashicorp/go-cleanhttp"
	"github.com/pkg/errors"

	"transporte-admin/config"
)

const maxFeedBytes = 32 << 20

// VehicleFeedSource is a polled source of current vehicle positions.
type VehicleFeedSource interface {
	Fetch(ctx context.Context) ([]Vehicle, error)
}

// httpFeed downloads one feed document per fetch.
type httpFeed struct {
	kind       string
	url        string
	httpClient *http.Client
}

func newHTTPFeed(kind, url string, timeout time.Duration) httpFeed {
	hc := cleanhttp.DefaultClient()
	hc.Timeout = timeout
	return httpFeed{kind: kind, url: url, httpClient: hc}
}

func (f httpFeed) get(ctx context.Context) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "%s request", f.kind)
	}
	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "%s fetch", f.kind)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, errors.Errorf("%s http status: %d", f.kind, resp.StatusCode)
	}
	return struct {
		io.Reader
		io.Closer
	}{io.LimitReader(resp.Body, maxFeedBytes), resp.Body}, nil
}

func (f httpFeed) getAll(ctx context.Context) ([]byte, error) {
	body, err := f.get(ctx)
	if err != nil {
		return nil, err
	}
	defer body.Close()
	data, err := io.ReadAll(body)
	return data, errors.Wrapf(err, "%s read", f.kind)
}

// selectFeed returns the configured polled source, or nil when none is set.
func selectFeed(cfg config.FeedsConfig) VehicleFeedSource {
	switch {
	case cfg.GTFSRTURL != "":
		return NewGtfsRtVehicleFeedSource(cfg.GTFSRTURL, cfg.Timeout)
	case cfg.SiriXMLURL != "":
		return NewSiriXmlVehicleFeedSource(cfg.SiriXMLURL, cfg.Timeout)
	case cfg.SiriJSONURL != "":
		return NewSiriJsonVehicleFeedSource(cfg.SiriJSONURL, cfg.Timeout)
	}
	return nil
}
