package live

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/url"
	"time"

	"github.com/go-stomp/stomp/v3"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"transporte-admin/tracking"
)

const (
	DefaultTopic          = "/topic/ubicacion"
	DefaultReconnectDelay = 5000 * time.Millisecond
	DefaultHeartBeat      = 10 * time.Second
)

// ClientConfig describes the location feed endpoint.
type ClientConfig struct {
	URL            string
	Token          string
	Topic          string
	ReconnectDelay time.Duration
	HeartBeat      time.Duration
}

// BatchHandler receives every decoded location batch, in arrival order.
type BatchHandler func(ctx context.Context, b tracking.LocationBatch)

// Client subscribes to the location topic and hands decoded batches to a
// BatchHandler.
type Client struct {
	cfg    ClientConfig
	handle BatchHandler
	log    *slog.Logger
}

// NewClient returns a client that is not connected yet; see Run.
func NewClient(cfg ClientConfig, handle BatchHandler, log *slog.Logger) *Client {
	if cfg.Topic == "" {
		cfg.Topic = DefaultTopic
	}
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = DefaultReconnectDelay
	}
	if cfg.HeartBeat < 0 {
		cfg.HeartBeat = 0
	}
	if log == nil {
		log = slog.Default()
	}
	return &Client{
		cfg:    cfg,
		handle: handle,
		log:    log.With("component", "live"),
	}
}

// Run keeps a subscription open until ctx is cancelled, waiting
// ReconnectDelay between attempts. Connection failures are logged, never
// returned. Without a token Run returns immediately and never connects.
func (c *Client) Run(ctx context.Context) error {
	if c.cfg.Token == "" {
		c.log.Debug("no token, live tracking disabled")
		return nil
	}

	for attempt := 1; ; attempt++ {
		err := c.session(ctx)
		if ctx.Err() != nil {
			return nil
		}
		c.log.Error("live connection lost, retrying",
			"error", err,
			"attempt", attempt,
			"delay", c.cfg.ReconnectDelay,
		)

		retry := time.NewTimer(c.cfg.ReconnectDelay)
		select {
		case <-ctx.Done():
			retry.Stop()
			return nil
		case <-retry.C:
		}
	}
}

// session runs a single connection from dial to teardown. The STOMP
// connection and the socket under it are closed on every return path.
func (c *Client) session(ctx context.Context) error {
	stream, err := dialStream(ctx, c.cfg.URL, c.cfg.Token)
	if err != nil {
		return err
	}
	defer stream.Close()

	// unblock a handshake or read stuck on a dead peer
	stop := context.AfterFunc(ctx, func() { _ = stream.Close() })
	defer stop()

	opts := []func(*stomp.Conn) error{
		stomp.ConnOpt.HeartBeat(c.cfg.HeartBeat, c.cfg.HeartBeat),
	}
	if u, err := url.Parse(c.cfg.URL); err == nil && u.Host != "" {
		opts = append(opts, stomp.ConnOpt.Host(u.Hostname()))
	}
	conn, err := stomp.Connect(stream, opts...)
	if err != nil {
		return errors.Wrap(err, "stomp connect")
	}
	defer func() { _ = conn.MustDisconnect() }()

	sub, err := conn.Subscribe(c.cfg.Topic, stomp.AckAuto, stomp.SubscribeOpt.Id(uuid.NewString()))
	if err != nil {
		return errors.Wrapf(err, "subscribe %s", c.cfg.Topic)
	}
	c.log.Info("connected to live feed", "topic", c.cfg.Topic)

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-sub.C:
			if !ok {
				return errors.New("subscription closed by server")
			}
			if msg.Err != nil {
				return errors.Wrap(msg.Err, "live feed")
			}
			c.dispatch(ctx, msg.Body)
		}
	}
}

// dispatch decodes one message body. A body that does not decode is
// dropped on its own; nothing is queued for it.
func (c *Client) dispatch(ctx context.Context, body []byte) {
	var b tracking.LocationBatch
	if err := json.Unmarshal(body, &b); err != nil {
		c.log.Warn("dropping malformed location message", "error", err, "bytes", len(body))
		return
	}
	c.log.Debug("location batch received", "vehicle", b.ID, "points", len(b.Ubicaciones))
	c.handle(ctx, b)
}
