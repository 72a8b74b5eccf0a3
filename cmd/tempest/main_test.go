package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"tempest-share/internal"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func testConfig() internal.ClientConfig {
	return internal.ClientConfig{
		RelayAddr: "localhost:7070",
		RelayURL:  "ws://localhost:7071/relay",
		Transport: internal.TransportGRPC,
		OutputDir: ".",
		MaxSizeMb: 16,
		LogLevel:  "ERROR",
	}
}

func TestSelftest(t *testing.T) {
	testCases := []struct {
		description string
		args        []string
	}{
		{description: "loopback", args: []string{"tempest", "selftest", "--size", "150000"}},
		{description: "in-process relay", args: []string{"tempest", "selftest", "--size", "70000", "--through-relay"}},
		{description: "empty file", args: []string{"tempest", "selftest", "--size", "0"}},
	}
	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			req := require.New(t)
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			var out bytes.Buffer
			app := newApp(testConfig())
			app.Writer = &out

			err := app.RunContext(ctx, tc.args)

			req.NoError(err)
			req.Contains(out.String(), "selftest passed")
			req.Contains(out.String(), "[recv] File received")
		})
	}
}

func TestShare_MissingFile(t *testing.T) {
	req := require.New(t)
	var out bytes.Buffer
	app := newApp(testConfig())
	app.Writer = &out

	err := app.RunContext(context.Background(), []string{"tempest", "share", filepath.Join(t.TempDir(), "nope.txt")})

	req.Error(err)
}

func TestFetch_RequiresACode(t *testing.T) {
	req := require.New(t)
	app := newApp(testConfig())
	app.Writer = &bytes.Buffer{}

	err := app.RunContext(context.Background(), []string{"tempest", "fetch", "--out", os.TempDir()})

	req.Error(err)
	req.Contains(err.Error(), "code is required")
}
