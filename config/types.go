package config

import "time"

// ServerConfig contains the live map HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port" validate:"gt=0,lte=65535"`
	StaticDir       string        `yaml:"staticDir"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout" validate:"gt=0"`
}

// APIConfig contains the REST API client configuration
type APIConfig struct {
	BaseURL string        `yaml:"baseURL" validate:"required,url"`
	Timeout time.Duration `yaml:"timeout" validate:"gt=0"`
}

// LiveConfig contains the STOMP location feed configuration
type LiveConfig struct {
	URL            string        `yaml:"url" validate:"omitempty,url"`
	Topic          string        `yaml:"topic" validate:"required,startswith=/"`
	ReconnectDelay time.Duration `yaml:"reconnectDelay" validate:"gt=0"`
	HeartBeat      time.Duration `yaml:"heartBeat" validate:"gte=0"`
}

// AnimationConfig contains the marker animation cadence
type AnimationConfig struct {
	Warmup  time.Duration `yaml:"warmup" validate:"gte=0"`
	Tick    time.Duration `yaml:"tick" validate:"gt=0"`
	Frame   time.Duration `yaml:"frame" validate:"gt=0"`
	Palette []string      `yaml:"palette" validate:"dive,hexcolor"`
}

// SessionConfig locates the persisted login
type SessionConfig struct {
	Path string `yaml:"path"`
}

// FeedsConfig contains the optional polled vehicle feeds; at most one URL
// may be set
type FeedsConfig struct {
	GTFSRTURL      string        `yaml:"gtfsrtURL" validate:"omitempty,url"`
	SiriXMLURL     string        `yaml:"siriXmlURL" validate:"omitempty,url"`
	SiriJSONURL    string        `yaml:"siriJsonURL" validate:"omitempty,url"`
	RefreshMinSecs int           `yaml:"refreshMinSecs" validate:"gte=1"`
	Timeout        time.Duration `yaml:"timeout" validate:"gt=0"`
}

// MirrorConfig contains the optional Kafka mirror of received batches
type MirrorConfig struct {
	Brokers []string `yaml:"brokers" validate:"dive,hostname_port"`
	Topic   string   `yaml:"topic" validate:"required_with=Brokers"`
}

// LoggingConfig selects the log level and handler
type LoggingConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=json text"`
}

// AppConfig is the root configuration structure
type AppConfig struct {
	Server    ServerConfig    `yaml:"server"`
	API       APIConfig       `yaml:"api"`
	Live      LiveConfig      `yaml:"live"`
	Animation AnimationConfig `yaml:"animation"`
	Session   SessionConfig   `yaml:"session"`
	Feeds     FeedsConfig     `yaml:"feeds"`
	Mirror    MirrorConfig    `yaml:"mirror"`
	Logging   LoggingConfig   `yaml:"logging"`
}
