package main

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"tempest-share/domain"
	"tempest-share/infrastructure/grpc/client"
	"tempest-share/infrastructure/loopback"
	"tempest-share/infrastructure/relay"
	"tempest-share/infrastructure/ws"
	"tempest-share/internal"
	"tempest-share/runtime"
	"tempest-share/storage"
	"tempest-share/transport"

	"github.com/mama165/sdk-go/logs"
	"github.com/samber/lo"
	"github.com/urfave/cli/v2"
)

const codeLength = 6

// codeCharset leaves out the characters that are easy to misread.
var codeCharset = []rune("abcdefghjkmnpqrstuvwxyz23456789")

func shareCmd(config internal.ClientConfig) cli.ActionFunc {
	return func(c *cli.Context) error {
		path := c.Args().First()
		if path == "" {
			return cli.Exit("a file to share is required", exitConfig)
		}
		code := lo.Ternary(c.String("code") != "", c.String("code"), lo.RandomString(codeLength, codeCharset))

		file, err := storage.OpenLocalFile(path, c.Int("max-size"))
		if err != nil {
			return cli.Exit(err.Error(), exitRuntime)
		}
		defer file.Close()

		log := logs.GetLoggerFromString(c.String("log"))
		adapter, closeAdapter, err := relayAdapter(c, log)
		if err != nil {
			return cli.Exit(err.Error(), exitConfig)
		}
		defer closeAdapter()

		r := newRenderer(c.App.Writer, c.Bool("colours"))
		meta := file.Metadata()
		r.line(fmt.Sprintf("Sharing %s (%s) under code %s", meta.Name, domain.FormatFileSize(meta.Size), code))

		s := newSession(log, adapter, storage.NewMemoryAssembler(), r)
		if _, err := s.wait(c.Context, func(sc *runtime.SessionController) { sc.Share(code, file) }, sent); err != nil {
			return cli.Exit(err.Error(), exitRuntime)
		}
		return nil
	}
}

func fetchCmd(c *cli.Context) error {
	code := c.Args().First()
	if code == "" {
		return cli.Exit("a code is required", exitConfig)
	}

	log := logs.GetLoggerFromString(c.String("log"))
	assembler, err := storage.NewDiskAssembler(log, c.String("out"))
	if err != nil {
		return cli.Exit(err.Error(), exitConfig)
	}
	adapter, closeAdapter, err := relayAdapter(c, log)
	if err != nil {
		return cli.Exit(err.Error(), exitConfig)
	}
	defer closeAdapter()

	r := newRenderer(c.App.Writer, c.Bool("colours"))
	s := newSession(log, adapter, assembler, r)
	file, err := s.wait(c.Context, func(sc *runtime.SessionController) { sc.Fetch(code) }, received)
	if err != nil {
		return cli.Exit(err.Error(), exitRuntime)
	}
	r.summary(file)
	return nil
}

// selftestCmd shares a generated file between two peers of this process and checks what arrived.
func selftestCmd(c *cli.Context) error {
	size := c.Int("size")
	if size < 0 {
		return cli.Exit("size must not be negative", exitConfig)
	}
	log := logs.GetLoggerFromString(c.String("log"))
	r := newRenderer(c.App.Writer, c.Bool("colours"))

	var adapter transport.Adapter = loopback.NewNetwork(log)
	if c.Bool("through-relay") {
		adapter = relay.NewClient(log, relay.NewLocalDialer(c.Context, relay.NewHub(log)))
	}

	content := make([]byte, size)
	for i := range content {
		content[i] = byte(rand.IntN(256))
	}
	code := lo.RandomString(codeLength, codeCharset)
	assembler := storage.NewMemoryAssembler()

	ctx, cancel := context.WithCancel(c.Context)
	defer cancel()
	sender := newSession(log, adapter, storage.NewMemoryAssembler(), r.prefixed("send"))
	sendDone := make(chan error, 1)
	go func() {
		_, err := sender.wait(ctx, func(sc *runtime.SessionController) {
			sc.Share(code, storage.NewMemoryFile("selftest.bin", "", content))
		}, sent)
		sendDone <- err
	}()

	receiver := newSession(log, adapter, assembler, r.prefixed("recv"))
	file, err := receiver.wait(ctx, func(sc *runtime.SessionController) {
		sender.awaitMode(ctx, domain.ModeSharingWaiting)
		sc.Fetch(code)
	}, received)
	if err != nil {
		return cli.Exit(err.Error(), exitRuntime)
	}
	if err := <-sendDone; err != nil {
		return cli.Exit(err.Error(), exitRuntime)
	}

	got, ok := assembler.Bytes(file.Handle)
	if !ok || !bytes.Equal(got, content) {
		return cli.Exit("selftest failed: the received bytes differ from the shared ones", exitRuntime)
	}
	r.summary(file)
	r.line(r.success("selftest passed"))
	return nil
}

func relayAdapter(c *cli.Context, log *slog.Logger) (transport.Adapter, func(), error) {
	switch c.String("transport") {
	case internal.TransportGRPC:
		dialer, err := client.NewRelayDialer(c.String("relay"))
		if err != nil {
			return nil, nil, err
		}
		return relay.NewClient(log, dialer), func() { _ = dialer.Close() }, nil
	case internal.TransportWebSocket:
		return relay.NewClient(log, ws.NewDialer(c.String("ws"))), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown transport %q", c.String("transport"))
	}
}

func sent(s domain.Status) bool {
	return s.Mode == domain.ModeSharingComplete
}

func received(s domain.Status) bool {
	return s.Mode == domain.ModeReceivingComplete
}
