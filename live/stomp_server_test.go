package live

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/gorilla/websocket"
)

// stompServer is a scripted STOMP-over-websocket peer: it answers CONNECT,
// waits for SUBSCRIBE, sends the configured bodies as MESSAGE frames and
// then holds the connection open until the client goes away.
type stompServer struct {
	*httptest.Server

	bodies      []string
	dropFirstN  int
	subscribeCh chan string

	mu      sync.Mutex
	tokens  []string
	dials   int
	active  int
}

func newStompServer(t *testing.T, bodies ...string) *stompServer {
	t.Helper()
	s := &stompServer{
		bodies:      bodies,
		subscribeCh: make(chan string, 16),
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serve))
	return s
}

func (s *stompServer) wsURL() string {
	return "ws" + strings.TrimPrefix(s.URL, "http") + "/ws/websocket"
}

func (s *stompServer) stats() (dials, active int, tokens []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dials, s.active, append([]string(nil), s.tokens...)
}

var testUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func (s *stompServer) serve(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.dials++
	n := s.dials
	s.tokens = append(s.tokens, r.URL.Query().Get("token"))
	s.mu.Unlock()

	ws, err := testUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	s.mu.Lock()
	s.active++
	s.mu.Unlock()
	defer func() {
		ws.Close()
		s.mu.Lock()
		s.active--
		s.mu.Unlock()
	}()
	if n <= s.dropFirstN {
		return
	}

	fr := &frameReader{ws: ws}
	cmd, _, err := fr.next()
	if err != nil || (cmd != "CONNECT" && cmd != "STOMP") {
		return
	}
	if err := writeFrame(ws, "CONNECTED", [][2]string{{"version", "1.2"}, {"heart-beat", "0,0"}}, ""); err != nil {
		return
	}

	cmd, headers, err := fr.next()
	if err != nil || cmd != "SUBSCRIBE" {
		return
	}
	dest := headers["destination"]
	s.subscribeCh <- dest

	for i, body := range s.bodies {
		err := writeFrame(ws, "MESSAGE", [][2]string{
			{"destination", dest},
			{"subscription", headers["id"]},
			{"message-id", strconv.Itoa(i)},
			{"content-type", "application/json"},
		}, body)
		if err != nil {
			return
		}
	}

	for {
		if _, _, err := fr.next(); err != nil {
			return
		}
	}
}

// frameReader splits the websocket byte stream into NUL terminated frames.
type frameReader struct {
	ws  *websocket.Conn
	buf []byte
}

func (f *frameReader) next() (string, map[string]string, error) {
	for {
		f.buf = bytes.TrimLeft(f.buf, "\r\n")
		if i := bytes.IndexByte(f.buf, 0); i >= 0 {
			raw := string(f.buf[:i])
			f.buf = f.buf[i+1:]
			return parseFrame(raw)
		}
		_, data, err := f.ws.ReadMessage()
		if err != nil {
			return "", nil, err
		}
		f.buf = append(f.buf, data...)
	}
}

func parseFrame(raw string) (string, map[string]string, error) {
	head := raw
	if i := strings.Index(raw, "\n\n"); i >= 0 {
		head = raw[:i]
	}
	lines := strings.Split(strings.ReplaceAll(head, "\r\n", "\n"), "\n")
	headers := make(map[string]string, len(lines)-1)
	for _, l := range lines[1:] {
		if k, v, ok := strings.Cut(l, ":"); ok {
			if _, dup := headers[k]; !dup {
				headers[k] = v
			}
		}
	}
	return lines[0], headers, nil
}

func writeFrame(ws *websocket.Conn, cmd string, headers [][2]string, body string) error {
	var b strings.Builder
	b.WriteString(cmd)
	b.WriteByte('\n')
	for _, h := range headers {
		b.WriteString(h[0])
		b.WriteByte(':')
		b.WriteString(h[1])
		b.WriteByte('\n')
	}
	b.WriteByte('\n')
	b.WriteString(body)
	b.WriteByte(0)
	return ws.WriteMessage(websocket.TextMessage, []byte(b.String()))
}
