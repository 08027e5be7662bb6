package main

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"transporte-admin/tracking"
)

func newTestServer(t *testing.T) (*wsHub, *httptest.Server) {
	t.Helper()
	static := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(static, "index.html"), []byte("<html>mapa</html>"), 0o600))

	hub := newHub(quietLogger())
	r := mux.NewRouter()
	registerRoutes(r, hub, static, quietLogger())
	srv := httptest.NewServer(r)
	t.Cleanup(func() {
		_ = hub.Close()
		srv.Close()
	})
	return hub, srv
}

func dialHub(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/data.json"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) markerEvent {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var ev markerEvent
	require.NoError(t, conn.ReadJSON(&ev))
	return ev
}

func marker(id tracking.VehicleID, lat, lng float64) tracking.MarkerState {
	return tracking.MarkerState{
		ID:       id,
		Position: tracking.GeoPoint{Lat: lat, Lng: lng},
		Color:    tracking.DefaultPalette[0],
		Label:    id.Label(),
	}
}

func TestHubSendsSnapshotThenChanges(t *testing.T) {
	hub, srv := newTestServer(t)
	hub.AddMarker(marker(7, -12, -77))
	hub.AddMarker(marker(3, -12.1, -77.1))

	conn := dialHub(t, srv)
	assert.Equal(t, markerEvent{Type: "add", ID: 7, Lat: -12, Lng: -77, Color: tracking.DefaultPalette[0], Label: "Camión 7"}, readEvent(t, conn))
	assert.Equal(t, tracking.VehicleID(3), readEvent(t, conn).ID)

	hub.MoveMarker(99, tracking.GeoPoint{Lat: 1, Lng: 1})
	hub.MoveMarker(7, tracking.GeoPoint{Lat: -12.5, Lng: -77.5})
	assert.Equal(t, markerEvent{Type: "move", ID: 7, Lat: -12.5, Lng: -77.5}, readEvent(t, conn))

	snap := hub.snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, tracking.GeoPoint{Lat: -12.5, Lng: -77.5}, snap[0].Position)
}

func TestHubCloseDisconnectsClients(t *testing.T) {
	hub, srv := newTestServer(t)
	conn := dialHub(t, srv)

	require.NoError(t, hub.Close())
	require.NoError(t, hub.Close())

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway), "got %v", err)

	hub.AddMarker(marker(1, 0, 0))
	assert.Empty(t, hub.snapshot())

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/data.json"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestHubDropsGoneClients(t *testing.T) {
	hub, srv := newTestServer(t)
	conn := dialHub(t, srv)
	require.NoError(t, conn.Close())

	require.Eventually(t, func() bool {
		hub.mu.RLock()
		defer hub.mu.RUnlock()
		return len(hub.clients) == 0
	}, 2*time.Second, 5*time.Millisecond)
}

func TestRoutes(t *testing.T) {
	hub, srv := newTestServer(t)
	hub.AddMarker(marker(5, 1, 2))

	resp, err := http.Get(srv.URL + "/api/health")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", string(body))

	resp, err = http.Get(srv.URL + "/api/markers")
	require.NoError(t, err)
	var markers []tracking.MarkerState
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&markers))
	resp.Body.Close()
	assert.Equal(t, []tracking.MarkerState{marker(5, 1, 2)}, markers)

	resp, err = http.Get(srv.URL + "/")
	require.NoError(t, err)
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Contains(t, string(body), "mapa")
}
