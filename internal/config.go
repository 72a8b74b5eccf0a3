package internal

import (
	"fmt"
	"time"

	"github.com/Netflix/go-env"
	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
)

const (
	TransportGRPC      = "grpc"
	TransportWebSocket = "websocket"
)

var validate = validator.New()

// ClientConfig is read by the tempest command. Flags override it.
type ClientConfig struct {
	RelayAddr string `env:"TEMPEST_RELAY_ADDR,default=localhost:7070" validate:"required"`
	// TEMPEST_WS_URL is used when TEMPEST_TRANSPORT is websocket
	RelayURL  string `env:"TEMPEST_WS_URL,default=ws://localhost:7071/relay" validate:"required"`
	Transport string `env:"TEMPEST_TRANSPORT,default=grpc" validate:"oneof=grpc websocket"`
	OutputDir string `env:"TEMPEST_OUTPUT_DIR,default=." validate:"required"`
	MaxSizeMb int    `env:"TEMPEST_MAX_SIZE_MB,default=4096" validate:"gt=0"`
	LogLevel  string `env:"LOG_LEVEL,default=WARN"`
	Colours   bool   `env:"TEMPEST_COLOURS,default=true"`
}

func LoadClientConfig() (ClientConfig, error) {
	var cfg ClientConfig
	if _, err := env.UnmarshalFromEnviron(&cfg); err != nil {
		return ClientConfig{}, fmt.Errorf("config error: %w", err)
	}
	return cfg, cfg.Validate()
}

func (c ClientConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid client config: %w", err)
	}
	return nil
}

// RelayConfig is read by the relay command.
type RelayConfig struct {
	Host              string        `envconfig:"RELAY_HOST" default:"0.0.0.0"`
	GRPCPort          int           `envconfig:"RELAY_GRPC_PORT" default:"7070" validate:"gt=0,lt=65536"`
	WSPort            int           `envconfig:"RELAY_WS_PORT" default:"7071" validate:"gt=0,lt=65536,nefield=GRPCPort"`
	WSPath            string        `envconfig:"RELAY_WS_PATH" default:"/relay" validate:"startswith=/"`
	HeartbeatInterval time.Duration `envconfig:"RELAY_HEARTBEAT_INTERVAL" default:"30s" validate:"gt=0"`
	RestartInterval   time.Duration `envconfig:"RELAY_RESTART_INTERVAL" default:"1s" validate:"gt=0"`
	LogLevel          string        `envconfig:"LOG_LEVEL" default:"INFO"`
}

func LoadRelayConfig() (RelayConfig, error) {
	var cfg RelayConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return RelayConfig{}, fmt.Errorf("config error: %w", err)
	}
	if err := validate.Struct(cfg); err != nil {
		return RelayConfig{}, fmt.Errorf("invalid relay config: %w", err)
	}
	return cfg, nil
}

func (c RelayConfig) GRPCAddress() string {
	return fmt.Sprintf("%s:%d", c.Host, c.GRPCPort)
}

func (c RelayConfig) WSAddress() string {
	return fmt.Sprintf("%s:%d", c.Host, c.WSPort)
}
