package e2e

import (
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// RELAY_GRPC_ADDR points to a running relay. The suite is skipped when it is empty.
	RelayGRPCAddr string `envconfig:"RELAY_GRPC_ADDR"`
	RelayWSURL    string `envconfig:"RELAY_WS_URL"`
	// E2E_COLOURS enables colorized output for better log readability
	Colours bool `envconfig:"E2E_COLOURS" default:"true"`
	// E2E_FILE_SIZE is the size of the generated file, in bytes
	FileSize int `envconfig:"E2E_FILE_SIZE" default:"1048576"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}
