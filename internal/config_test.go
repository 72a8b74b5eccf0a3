package internal

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadClientConfig_Defaults(t *testing.T) {
	req := require.New(t)
	for _, k := range []string{"TEMPEST_RELAY_ADDR", "TEMPEST_TRANSPORT", "TEMPEST_OUTPUT_DIR", "TEMPEST_MAX_SIZE_MB"} {
		t.Setenv(k, "")
		req.NoError(os.Unsetenv(k))
	}

	cfg, err := LoadClientConfig()

	req.NoError(err)
	req.Equal(TransportGRPC, cfg.Transport)
	req.Equal(4096, cfg.MaxSizeMb)
	req.True(cfg.Colours)
}

func TestLoadClientConfig(t *testing.T) {
	testCases := []struct {
		description string
		env         map[string]string
		wantErr     bool
	}{
		{
			description: "websocket transport",
			env:         map[string]string{"TEMPEST_TRANSPORT": "websocket", "TEMPEST_WS_URL": "ws://relay:80/relay"},
		},
		{
			description: "unknown transport",
			env:         map[string]string{"TEMPEST_TRANSPORT": "carrier-pigeon"},
			wantErr:     true,
		},
		{
			description: "negative size limit",
			env:         map[string]string{"TEMPEST_MAX_SIZE_MB": "-1"},
			wantErr:     true,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			req := require.New(t)
			for k, v := range tc.env {
				t.Setenv(k, v)
			}

			_, err := LoadClientConfig()

			if tc.wantErr {
				req.Error(err)
				return
			}
			req.NoError(err)
		})
	}
}

func TestLoadRelayConfig(t *testing.T) {
	req := require.New(t)
	t.Setenv("RELAY_GRPC_PORT", "9000")
	t.Setenv("RELAY_HEARTBEAT_INTERVAL", "5s")

	cfg, err := LoadRelayConfig()

	req.NoError(err)
	req.Equal("0.0.0.0:9000", cfg.GRPCAddress())
	req.Equal("0.0.0.0:7071", cfg.WSAddress())
	req.Equal(5*time.Second, cfg.HeartbeatInterval)
}

func TestLoadRelayConfig_SamePorts(t *testing.T) {
	t.Setenv("RELAY_GRPC_PORT", "7000")
	t.Setenv("RELAY_WS_PORT", "7000")

	_, err := LoadRelayConfig()

	require.Error(t, err)
}
