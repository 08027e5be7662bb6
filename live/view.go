package live

import (
	"context"
	"log/slog"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"transporte-admin/tracking"
)

// BatchSink receives a copy of every batch the view animates.
type BatchSink interface {
	WriteBatch(ctx context.Context, b tracking.LocationBatch) error
}

// ViewConfig combines the feed endpoint and the animation clocks.
type ViewConfig struct {
	Client    ClientConfig
	Animation tracking.Config
}

// View is one live map: a feed client, an animator and the surface they
// draw on. Its state lives exactly as long as Run.
type View struct {
	client   *Client
	animator *tracking.Animator
	surface  tracking.Surface
	sinks    []BatchSink
	log      *slog.Logger
}

// NewView wires a client and an animator onto surface. Sinks get every
// batch before it is queued for animation.
func NewView(cfg ViewConfig, surface tracking.Surface, log *slog.Logger, sinks ...BatchSink) *View {
	if log == nil {
		log = slog.Default()
	}
	v := &View{
		animator: tracking.NewAnimator(cfg.Animation, surface, log),
		surface:  surface,
		sinks:    sinks,
		log:      log.With("component", "view"),
	}
	v.client = NewClient(cfg.Client, v.handleBatch, log)
	return v
}

// Deliver feeds a batch from a source other than the STOMP topic.
func (v *View) Deliver(ctx context.Context, b tracking.LocationBatch) error {
	for _, s := range v.sinks {
		if err := s.WriteBatch(ctx, b); err != nil {
			v.log.Warn("batch sink failed", "vehicle", b.ID, "error", err)
		}
	}
	return v.animator.Deliver(ctx, b)
}

func (v *View) handleBatch(ctx context.Context, b tracking.LocationBatch) {
	if err := v.Deliver(ctx, b); err != nil && ctx.Err() == nil {
		v.log.Debug("batch not animated", "vehicle", b.ID, "error", err)
	}
}

// Run connects and animates until ctx is cancelled. On return the feed
// connection is deactivated, the animation timers are stopped and the
// surface is closed, whatever the reason for returning.
func (v *View) Run(ctx context.Context) (err error) {
	var result *multierror.Error
	defer func() {
		if cerr := v.surface.Close(); cerr != nil {
			result = multierror.Append(result, errors.Wrap(cerr, "close surface"))
		}
		err = result.ErrorOrNil()
		v.log.Info("live view torn down")
	}()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return v.animator.Run(gctx) })
	g.Go(func() error { return v.client.Run(gctx) })
	if werr := g.Wait(); werr != nil {
		result = multierror.Append(result, werr)
	}
	return nil
}
