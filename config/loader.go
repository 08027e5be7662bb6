package config

import (
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// DefaultPath is read when no path is given; it may be absent.
const DefaultPath = "config.yml"

// Default returns the configuration used when no file overrides it.
func Default() AppConfig {
	return AppConfig{
		Server: ServerConfig{
			Port:            8080,
			StaticDir:       "./static",
			ShutdownTimeout: 10 * time.Second,
		},
		API: APIConfig{
			BaseURL: "https://api-transporte-98xe.onrender.com",
			Timeout: 20 * time.Second,
		},
		Live: LiveConfig{
			URL:            "wss://api-transporte-98xe.onrender.com/ws/websocket",
			Topic:          "/topic/ubicacion",
			ReconnectDelay: 5 * time.Second,
			HeartBeat:      10 * time.Second,
		},
		Animation: AnimationConfig{
			Warmup: 5 * time.Second,
			Tick:   68 * time.Millisecond,
			Frame:  16 * time.Millisecond,
		},
		Feeds: FeedsConfig{
			RefreshMinSecs: 10,
			Timeout:        10 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads path over the defaults and validates the result. An empty
// path reads DefaultPath and tolerates its absence.
func Load(path string) (AppConfig, error) {
	cfg := Default()

	optional := path == ""
	if optional {
		path = DefaultPath
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return AppConfig{}, errors.Wrapf(err, "parse config %s", path)
		}
	case optional && errors.Is(err, os.ErrNotExist):
	default:
		return AppConfig{}, errors.Wrapf(err, "read config %s", path)
	}

	if err := Validate(cfg); err != nil {
		return AppConfig{}, errors.Wrapf(err, "config %s", path)
	}
	return cfg, nil
}

// Validate checks struct tags and the rules tags cannot express.
func Validate(cfg AppConfig) error {
	v := validator.New()
	if err := v.Struct(cfg); err != nil {
		return err
	}
	feeds := 0
	for _, u := range []string{cfg.Feeds.GTFSRTURL, cfg.Feeds.SiriXMLURL, cfg.Feeds.SiriJSONURL} {
		if u != "" {
			feeds++
		}
	}
	if feeds > 1 {
		return errors.New("feeds: set at most one of gtfsrtURL, siriXmlURL, siriJsonURL")
	}
	return nil
}
