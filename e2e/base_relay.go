package e2e

import (
	"context"
	"fmt"
	"log/slog"
	"tempest-share/domain"
	"tempest-share/infrastructure/grpc/client"
	"tempest-share/infrastructure/relay"
	"tempest-share/infrastructure/ws"
	"tempest-share/runtime"
	"tempest-share/storage"
	"tempest-share/transport"
	"time"

	"github.com/gookit/color"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/suite"
)

type BaseRelaySuite struct {
	suite.Suite
	Config Config
}

// SetupSuite loads the environment configuration before running tests
func (s *BaseRelaySuite) SetupSuite() {
	var err error
	s.Config, err = LoadConfig()
	s.Require().NoError(err)
	if s.Config.RelayGRPCAddr == "" {
		s.T().Skip("RELAY_GRPC_ADDR is not set")
	}
}

// Step prints a header for a test step
func (s *BaseRelaySuite) Step(name string) {
	header := fmt.Sprintf("  ====== %s ======", name)
	if s.Config.Colours {
		header = color.New(color.BgBlack, color.FgGreen).Render(header)
	}
	s.T().Log(header)
}

// WithGRPC provides an adapter reaching the relay over gRPC
func (s *BaseRelaySuite) WithGRPC(name string, fn func(adapter transport.Adapter)) {
	s.Step(name)
	dialer, err := client.NewRelayDialer(s.Config.RelayGRPCAddr)
	s.Require().NoError(err, "Failed to reach the relay at "+s.Config.RelayGRPCAddr)
	defer dialer.Close()

	fn(relay.NewClient(logs.GetLoggerFromLevel(slog.LevelInfo), dialer))
}

// WithWebSocket provides an adapter reaching the relay over WebSocket
func (s *BaseRelaySuite) WithWebSocket(name string, fn func(adapter transport.Adapter)) {
	if s.Config.RelayWSURL == "" {
		s.T().Skip("RELAY_WS_URL is not set")
	}
	s.Step(name)
	fn(relay.NewClient(logs.GetLoggerFromLevel(slog.LevelInfo), ws.NewDialer(s.Config.RelayWSURL)))
}

// Peer starts a controller for the duration of the test
func (s *BaseRelaySuite) Peer(adapter transport.Adapter) (*runtime.SessionController, *storage.MemoryAssembler) {
	assembler := storage.NewMemoryAssembler()
	controller := runtime.NewSessionController(logs.GetLoggerFromLevel(slog.LevelInfo), adapter, assembler)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = controller.Run(ctx)
		close(done)
	}()
	s.T().Cleanup(func() {
		cancel()
		<-done
	})
	return controller, assembler
}

// AwaitMode waits for the controller to reach mode
func (s *BaseRelaySuite) AwaitMode(c *runtime.SessionController, mode domain.Mode) domain.Status {
	s.Require().Eventually(func() bool { return c.Status().Mode == mode }, 60*time.Second, 20*time.Millisecond,
		"expected %s, got %+v", mode, c.Status())
	return c.Status()
}
