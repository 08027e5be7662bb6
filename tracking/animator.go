package tracking

import (
	"context"
	"log/slog"
	"time"

	"github.com/pkg/errors"
)

const (
	DefaultWarmup = 5000 * time.Millisecond
	DefaultTick   = 68 * time.Millisecond // ~73 interpolated points in 5s
	DefaultFrame  = 16 * time.Millisecond

	inboxSize = 64
)

// ErrStopped is returned by Deliver once the animator has shut down.
var ErrStopped = errors.New("animator stopped")

// Config tunes the animator clocks and marker colors. Zero values fall
// back to the defaults.
type Config struct {
	Warmup  time.Duration
	Tick    time.Duration
	Frame   time.Duration
	Palette []string
}

func (c Config) withDefaults() Config {
	if c.Warmup <= 0 {
		c.Warmup = DefaultWarmup
	}
	if c.Tick <= 0 {
		c.Tick = DefaultTick
	}
	if c.Frame <= 0 {
		c.Frame = DefaultFrame
	}
	return c
}

// Marker is a vehicle as currently displayed.
type Marker struct {
	ID       VehicleID
	Position GeoPoint
	Color    string
	glide    *glide
}

// glide moves a marker linearly between two points over a fixed duration.
type glide struct {
	from, to GeoPoint
	start    time.Time
	duration time.Duration
}

func (g *glide) at(now time.Time) (GeoPoint, bool) {
	progress := float64(now.Sub(g.start)) / float64(g.duration)
	if progress >= 1 {
		return g.to, true
	}
	if progress < 0 {
		progress = 0
	}
	return Lerp(g.from, g.to, progress), false
}

// Animator turns location batches into smooth marker motion.
//
// It starts idle. The first delivered batch arms a one-shot warm-up timer;
// when it fires the animator switches to running for the rest of its life:
// every tick pops one queued point per vehicle, every frame advances the
// glides started by ticks.
type Animator struct {
	cfg     Config
	surface Surface
	log     *slog.Logger

	inbox   chan LocationBatch
	stopped chan struct{}

	// owned by the Run goroutine
	queues   map[VehicleID][]GeoPoint
	markers  map[VehicleID]*Marker
	order    []VehicleID
	colors   *ColorAssigner
	received bool
}

// NewAnimator returns an idle animator drawing on surface.
func NewAnimator(cfg Config, surface Surface, log *slog.Logger) *Animator {
	if log == nil {
		log = slog.Default()
	}
	cfg = cfg.withDefaults()
	return &Animator{
		cfg:     cfg,
		surface: surface,
		log:     log.With("component", "animator"),
		inbox:   make(chan LocationBatch, inboxSize),
		stopped: make(chan struct{}),
		queues:  make(map[VehicleID][]GeoPoint),
		markers: make(map[VehicleID]*Marker),
		colors:  NewColorAssigner(cfg.Palette),
	}
}

// Deliver hands a batch to the animator goroutine. Batches are processed
// in the order they are delivered.
func (a *Animator) Deliver(ctx context.Context, b LocationBatch) error {
	select {
	case <-a.stopped:
		return ErrStopped
	default:
	}
	select {
	case a.inbox <- b:
		return nil
	case <-a.stopped:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run owns the animator state until ctx is cancelled. The warm-up timer
// and both tickers are stopped before it returns.
func (a *Animator) Run(ctx context.Context) error {
	defer close(a.stopped)

	var (
		warmup      *time.Timer
		warmupC     <-chan time.Time
		tick, frame *time.Ticker
		tickC, frmC <-chan time.Time
	)
	defer func() {
		if warmup != nil {
			warmup.Stop()
		}
		if tick != nil {
			tick.Stop()
			frame.Stop()
		}
		a.log.Debug("animator stopped", "vehicles", len(a.markers))
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case b := <-a.inbox:
			if a.enqueue(b) {
				a.log.Info("first location batch received, waiting before animating", "warmup", a.cfg.Warmup)
				warmup = time.NewTimer(a.cfg.Warmup)
				warmupC = warmup.C
			}
		case <-warmupC:
			warmupC = nil
			tick = time.NewTicker(a.cfg.Tick)
			frame = time.NewTicker(a.cfg.Frame)
			tickC, frmC = tick.C, frame.C
			a.log.Info("animation started", "tick", a.cfg.Tick, "frame", a.cfg.Frame)
		case now := <-tickC:
			a.tick(now)
		case now := <-frmC:
			a.frame(now)
		}
	}
}

// enqueue appends the interpolated batch to its vehicle queue and reports
// whether it was the first batch ever received.
func (a *Animator) enqueue(b LocationBatch) bool {
	q, known := a.queues[b.ID]
	if !known {
		a.order = append(a.order, b.ID)
	}
	a.queues[b.ID] = append(q, Interpolate(b.Ubicaciones)...)
	a.log.Debug("location batch queued",
		"vehicle", b.ID,
		"received", len(b.Ubicaciones),
		"queued", len(a.queues[b.ID]),
	)

	first := !a.received
	a.received = true
	return first
}

// tick pops the head of every non-empty queue. A vehicle without a marker
// gets one placed directly at the point; otherwise a glide from the
// current displayed position towards the point replaces any previous one.
func (a *Animator) tick(now time.Time) {
	for _, id := range a.order {
		q := a.queues[id]
		if len(q) == 0 {
			continue
		}
		next := q[0]
		a.queues[id] = q[1:]

		m, ok := a.markers[id]
		if !ok {
			m = &Marker{ID: id, Position: next, Color: a.colors.ColorFor(id)}
			a.markers[id] = m
			a.log.Debug("adding marker", "vehicle", id)
			a.surface.AddMarker(MarkerState{
				ID:       id,
				Position: next,
				Color:    m.Color,
				Label:    id.Label(),
			})
			continue
		}
		m.glide = &glide{from: m.Position, to: next, start: now, duration: a.cfg.Tick}
	}
}

// frame advances every active glide to its position at now.
func (a *Animator) frame(now time.Time) {
	for _, id := range a.order {
		m, ok := a.markers[id]
		if !ok || m.glide == nil {
			continue
		}
		pos, done := m.glide.at(now)
		if done {
			m.glide = nil
		}
		if pos == m.Position {
			continue
		}
		m.Position = pos
		a.surface.MoveMarker(id, pos)
	}
}
