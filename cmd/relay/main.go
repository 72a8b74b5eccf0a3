package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"tempest-share/domain"
	"tempest-share/infrastructure/grpc/relayrpc"
	"tempest-share/infrastructure/grpc/server"
	"tempest-share/infrastructure/relay"
	"tempest-share/infrastructure/ws"
	"tempest-share/internal"
	"tempest-share/runtime/workers"

	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
	"google.golang.org/grpc"
)

// Exit codes reported to the service manager.
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Relay terminated with error: %v\n", err)
	}
	os.Exit(code)
}

// run wires the hub behind its gRPC and WebSocket front-ends and supervises them until a signal arrives.
func run() (int, error) {
	_ = godotenv.Load()
	config, err := internal.LoadRelayConfig()
	if err != nil {
		return exitConfig, err
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hub := relay.NewHub(log)

	mux := http.NewServeMux()
	mux.Handle(config.WSPath, ws.NewHandler(log, hub))
	mux.Handle("/status", internal.StatusHandler(statsProvider(hub)))

	sup := workers.NewSupervisor(log, config.RestartInterval)
	sup.Add(
		workers.NewGRPCServerWorker(log, config.GRPCAddress(), func() *grpc.Server {
			s := grpc.NewServer()
			relayrpc.RegisterRelayServer(s, server.NewRelayServer(log, hub))
			return s
		}),
		workers.NewHTTPServerWorker(log, config.WSAddress(), mux),
		workers.NewHeartbeatWorker(log, config.HeartbeatInterval, hub.Stats().Snapshot),
	)

	log.Info("Relay starting", "grpc", config.GRPCAddress(), "websocket", config.WSAddress()+config.WSPath)
	sup.Run(ctx)
	log.Info("Relay stopped cleanly")

	if ctx.Err() == nil {
		return exitRuntime, fmt.Errorf("relay workers ended unexpectedly")
	}
	return exitOK, nil
}

func statsProvider(hub *relay.Hub) internal.StatsProvider {
	return func() map[string]any {
		s := hub.Stats().Snapshot()
		return map[string]any{
			"Active rooms":       s.ActiveRooms,
			"Active connections": s.ActiveConnections,
			"Total rooms":        s.TotalRooms,
			"Refused":            s.Refused,
			"Forwarded frames":   s.ForwardedFrames,
			"Forwarded":          domain.FormatFileSize(s.ForwardedBytes),
		}
	}
}
