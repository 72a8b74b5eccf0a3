package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"tempest-share/internal"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
)

// Exit codes for the tempest command.
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	code, err := run(os.Args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "tempest: %v\n", err)
	}
	os.Exit(code)
}

// run loads the environment defaults and hands over to the command line application.
func run(args []string) (int, error) {
	_ = godotenv.Load()
	config, err := internal.LoadClientConfig()
	if err != nil {
		return exitConfig, err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp(config).RunContext(ctx, args); err != nil {
		var exit cli.ExitCoder
		if errors.As(err, &exit) {
			return exit.ExitCode(), err
		}
		return exitRuntime, err
	}
	return exitOK, nil
}

func newApp(config internal.ClientConfig) *cli.App {
	app := cli.NewApp()
	app.Name = "tempest"
	app.Usage = "Share one file with one peer, using a short code."
	// run maps the errors to exit codes itself.
	app.ExitErrHandler = func(*cli.Context, error) {}
	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "relay",
			Aliases: []string{"r"},
			Value:   config.RelayAddr,
			Usage:   "the gRPC relay address, read from TEMPEST_RELAY_ADDR by default",
		},
		&cli.StringFlag{
			Name:  "ws",
			Value: config.RelayURL,
			Usage: "the WebSocket relay URL, read from TEMPEST_WS_URL by default",
		},
		&cli.StringFlag{
			Name:    "transport",
			Aliases: []string{"t"},
			Value:   config.Transport,
			Usage:   "how to reach the relay: grpc or websocket",
		},
		&cli.StringFlag{
			Name:  "log",
			Value: config.LogLevel,
			Usage: "the log level",
		},
		&cli.BoolFlag{
			Name:  "colours",
			Value: config.Colours,
			Usage: "colour the status lines",
		},
	}
	app.Commands = []*cli.Command{
		{
			Name:      "share",
			Aliases:   []string{"s"},
			Usage:     "Share a file and wait for the receiver",
			ArgsUsage: "<file>",
			Action:    shareCmd(config),
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "code",
					Aliases: []string{"c"},
					Usage:   "the code to share under, a random one is picked when empty",
				},
				&cli.IntFlag{
					Name:  "max-size",
					Value: config.MaxSizeMb,
					Usage: "the largest file accepted, in MB",
				},
			},
		},
		{
			Name:      "fetch",
			Aliases:   []string{"f"},
			Usage:     "Fetch the file shared under a code",
			ArgsUsage: "<code>",
			Action:    fetchCmd,
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "out",
					Aliases: []string{"o"},
					Value:   config.OutputDir,
					Usage:   "the directory to write the file to",
				},
			},
		},
		{
			Name:   "selftest",
			Usage:  "Transfer a generated file between two local peers",
			Action: selftestCmd,
			Flags: []cli.Flag{
				&cli.IntFlag{
					Name:  "size",
					Value: 150000,
					Usage: "the size of the generated file, in bytes",
				},
				&cli.BoolFlag{
					Name:  "through-relay",
					Usage: "go through an in-process relay instead of the loopback network",
				},
			},
		},
	}
	return app
}
