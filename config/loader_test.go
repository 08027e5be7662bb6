package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, Validate(cfg))
	assert.Equal(t, 5*time.Second, cfg.Live.ReconnectDelay)
	assert.Equal(t, 5*time.Second, cfg.Animation.Warmup)
	assert.Equal(t, 68*time.Millisecond, cfg.Animation.Tick)
	assert.Equal(t, "/topic/ubicacion", cfg.Live.Topic)
}

func TestLoadOverlaysFile(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
live:
  reconnectDelay: 2s
animation:
  tick: 40ms
  palette: ["#ff0000", "#00ff00"]
feeds:
  gtfsrtURL: https://example.com/vehicle_positions.pb
mirror:
  brokers: ["localhost:9092"]
  topic: ubicaciones
logging:
  level: debug
  format: json
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, 2*time.Second, cfg.Live.ReconnectDelay)
	assert.Equal(t, "/topic/ubicacion", cfg.Live.Topic)
	assert.Equal(t, 40*time.Millisecond, cfg.Animation.Tick)
	assert.Equal(t, []string{"#ff0000", "#00ff00"}, cfg.Animation.Palette)
	assert.Equal(t, []string{"localhost:9092"}, cfg.Mirror.Brokers)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"bad port", "server:\n  port: 70000\n"},
		{"bad level", "logging:\n  level: loud\n"},
		{"bad color", "animation:\n  palette: [\"red\"]\n"},
		{"topic without slash", "live:\n  topic: ubicacion\n"},
		{"mirror without topic", "mirror:\n  brokers: [\"localhost:9092\"]\n"},
		{"two feeds", "feeds:\n  gtfsrtURL: https://a.example/x.pb\n  siriXmlURL: https://b.example/vm.xml\n"},
		{"bad duration", "live:\n  reconnectDelay: soon\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yml"))
	assert.Error(t, err)
}
