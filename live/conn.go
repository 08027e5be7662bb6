package live

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
)

const (
	// Time allowed to write a frame to the server.
	writeWait = 10 * time.Second
	// Time allowed for the websocket handshake.
	handshakeTimeout = 15 * time.Second
)

var dialer = websocket.Dialer{
	Proxy:            http.ProxyFromEnvironment,
	HandshakeTimeout: handshakeTimeout,
	Subprotocols:     []string{"v12.stomp", "v11.stomp", "v10.stomp"},
}

// wsStream exposes a websocket as the byte stream STOMP expects. Each
// Write becomes one text message; reads run across message boundaries.
type wsStream struct {
	ws *websocket.Conn
	r  io.Reader

	wmu       sync.Mutex
	closeOnce sync.Once
	closeErr  error
}

// endpointURL returns rawURL with token set as the "token" query parameter.
func endpointURL(rawURL, token string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", errors.Wrap(err, "parse live endpoint")
	}
	switch u.Scheme {
	case "ws", "wss":
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return "", errors.Errorf("unsupported live endpoint scheme %q", u.Scheme)
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func dialStream(ctx context.Context, rawURL, token string) (*wsStream, error) {
	endpoint, err := endpointURL(rawURL, token)
	if err != nil {
		return nil, err
	}
	ws, resp, err := dialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		if resp != nil {
			return nil, errors.Wrapf(err, "dial live endpoint: http status %d", resp.StatusCode)
		}
		return nil, errors.Wrap(err, "dial live endpoint")
	}
	return &wsStream{ws: ws}, nil
}

func (s *wsStream) Read(p []byte) (int, error) {
	for {
		if s.r == nil {
			_, r, err := s.ws.NextReader()
			if err != nil {
				return 0, err
			}
			s.r = r
		}
		n, err := s.r.Read(p)
		if err == io.EOF {
			s.r = nil
			if n > 0 {
				return n, nil
			}
			continue
		}
		return n, err
	}
}

func (s *wsStream) Write(p []byte) (int, error) {
	s.wmu.Lock()
	defer s.wmu.Unlock()
	_ = s.ws.SetWriteDeadline(time.Now().Add(writeWait))
	if err := s.ws.WriteMessage(websocket.TextMessage, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Close sends a close frame when possible and releases the socket. It is
// safe to call more than once.
func (s *wsStream) Close() error {
	s.closeOnce.Do(func() {
		_ = s.ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		s.closeErr = s.ws.Close()
	})
	return s.closeErr
}
