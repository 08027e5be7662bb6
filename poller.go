package main

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"transporte-admin/tracking"
)

// batchDeliverer accepts location batches for animation.
type batchDeliverer interface {
	Deliver(ctx context.Context, b tracking.LocationBatch) error
}

// poller fetches a feed periodically and turns every vehicle that moved
// into a batch holding its previous and current position.
type poller struct {
	feed              VehicleFeedSource
	sink              batchDeliverer
	ids               *vehicleIDs
	minRefresh        time.Duration
	fetchTimeout      time.Duration
	log               *slog.Logger
	mu                sync.Mutex
	lastVehicles      map[string]Vehicle
	mostRecentFetchMs int64
}

func newPoller(feed VehicleFeedSource, sink batchDeliverer, minRefreshSeconds int, log *slog.Logger) *poller {
	return &poller{
		feed:         feed,
		sink:         sink,
		ids:          newVehicleIDs(),
		minRefresh:   time.Duration(minRefreshSeconds) * time.Second,
		fetchTimeout: 10 * time.Second,
		log:          log.With("component", "poller"),
		lastVehicles: make(map[string]Vehicle),
	}
}

func (p *poller) run(ctx context.Context) {
	interval := p.minRefresh
	t := time.NewTimer(0)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			start := time.Now()
			p.tick(ctx)
			elapsed := time.Since(start)
			if p.mostRecentFetchMs != 0 {
				interval = maxDuration(elapsed/2, p.minRefresh)
			}
			t.Reset(interval)
		}
	}
}

func (p *poller) tick(ctx context.Context) {
	cctx, cancel := context.WithTimeout(ctx, p.fetchTimeout)
	defer cancel()
	vehicles, err := p.feed.Fetch(cctx)
	if err != nil {
		p.log.Warn("poll failed", "error", err)
		return
	}
	p.log.Debug("fetched vehicles", "count", len(vehicles))
	p.mostRecentFetchMs = time.Now().UnixMilli()

	batches := p.detectChanges(vehicles)
	if len(batches) > 0 {
		p.log.Debug("vehicles moved", "count", len(batches))
	}
	for _, b := range batches {
		if err := p.sink.Deliver(ctx, b); err != nil {
			p.log.Debug("batch not delivered", "vehicle", b.ID, "error", err)
			return
		}
	}
}

// detectChanges records the new positions and returns one batch per new or
// moved vehicle, ordered by id.
func (p *poller) detectChanges(in []Vehicle) []tracking.LocationBatch {
	p.mu.Lock()
	defer p.mu.Unlock()
	now := time.Now().UnixMilli()
	current := make(map[string]Vehicle, len(in))
	var out []tracking.LocationBatch
	for _, v := range in {
		prev, ok := p.lastVehicles[v.ID]
		switch {
		case !ok:
			v.LastUpdate = now
			out = append(out, tracking.LocationBatch{
				ID:          p.ids.resolve(v.ID),
				Ubicaciones: []tracking.GeoPoint{v.point()},
			})
		case prev.Lat != v.Lat || prev.Lon != v.Lon:
			v.LastUpdate = now
			out = append(out, tracking.LocationBatch{
				ID:          p.ids.resolve(v.ID),
				Ubicaciones: []tracking.GeoPoint{prev.point(), v.point()},
			})
		default:
			v.LastUpdate = prev.LastUpdate
		}
		current[v.ID] = v
	}
	p.lastVehicles = current
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func maxDuration(a, b time.Duration) time.Duration {
	if a > b {
		return a
	}
	return b
}
