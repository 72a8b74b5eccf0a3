package workers

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"tempest-share/mocks"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

const restartInterval = 20 * time.Millisecond

func TestSupervisor_RestartOnPanic(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	workerMock := mocks.NewMockWorker(ctrl)

	var calls atomic.Int32
	workerMock.EXPECT().
		Run(gomock.Any()).
		DoAndReturn(func(ctx context.Context) error {
			calls.Add(1)
			panic("boom")
		}).
		AnyTimes()

	sup := NewSupervisor(logs.GetLoggerFromLevel(slog.LevelDebug), restartInterval)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sup.Add(workerMock).Run(ctx)

	// Then the worker keeps being restarted
	require.Eventually(t, func() bool { return calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
	req.GreaterOrEqual(calls.Load(), int32(2))
}

func TestSupervisor_RestartOnError(t *testing.T) {
	ctrl := gomock.NewController(t)
	workerMock := mocks.NewMockWorker(ctrl)

	// Given a worker failing once then succeeding
	gomock.InOrder(
		workerMock.EXPECT().Run(gomock.Any()).Return(fmt.Errorf("listener busy")),
		workerMock.EXPECT().Run(gomock.Any()).Return(nil),
	)

	sup := NewSupervisor(logs.GetLoggerFromLevel(slog.LevelDebug), restartInterval)
	done := make(chan struct{})
	go func() {
		sup.Add(workerMock).Run(context.Background())
		close(done)
	}()

	// Then the supervisor returns after the second run
	select {
	case <-done:
	case <-time.After(time.Second):
		require.Fail(t, "Supervisor should have stopped after the worker succeeded")
	}
}

func TestSupervisor_StopOnSuccess(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	workerMock := mocks.NewMockWorker(ctrl)

	// Given a worker running only once
	workerMock.EXPECT().
		Run(gomock.Any()).
		Return(nil).
		Times(1)

	sup := NewSupervisor(logs.GetLoggerFromLevel(slog.LevelDebug), restartInterval)
	done := make(chan struct{})
	go func() {
		sup.Add(workerMock).Run(context.Background())
		close(done)
	}()

	select {
	case <-done:
		// Then supervisor detected a success and stopped
	case <-time.After(500 * time.Millisecond):
		req.Fail("Supervisor should have stopped after worker success")
	}
}

func TestSupervisor_Stop(t *testing.T) {
	ctrl := gomock.NewController(t)
	workerMock := mocks.NewMockWorker(ctrl)
	started := make(chan struct{})
	workerMock.EXPECT().
		Run(gomock.Any()).
		DoAndReturn(func(ctx context.Context) error {
			close(started)
			<-ctx.Done()
			return ctx.Err()
		})

	sup := NewSupervisor(logs.GetLoggerFromLevel(slog.LevelDebug), restartInterval)
	sup.Add(workerMock)
	done := make(chan struct{})
	go func() {
		sup.Run(context.Background())
		close(done)
	}()

	// When the supervisor is stopped while the worker runs
	<-started
	sup.Stop()

	// Then Run returns without restarting it
	select {
	case <-done:
	case <-time.After(time.Second):
		require.Fail(t, "Supervisor should have stopped")
	}
}
