package main

import (
	"context"
	"fmt"
	"log/slog"
	"tempest-share/contract"
	"tempest-share/domain"
	"tempest-share/runtime"
	"tempest-share/transport"
	"time"
)

const statusBuffer = 256

// session runs one controller for the lifetime of a command and renders its statuses.
type session struct {
	controller *runtime.SessionController
	statuses   chan domain.Status
	renderer   *renderer
}

func newSession(log *slog.Logger, adapter transport.Adapter, assembler contract.Assembler, r *renderer) *session {
	s := &session{statuses: make(chan domain.Status, statusBuffer), renderer: r}
	s.controller = runtime.NewSessionController(log, adapter, assembler, runtime.WithStatusListener(s.publish))
	return s
}

// publish drops progress updates when the renderer lags behind. Mode changes are always delivered.
func (s *session) publish(status domain.Status) {
	if status.Mode == domain.ModeSharingSending || status.Mode == domain.ModeReceivingInProgress {
		select {
		case s.statuses <- status:
		default:
		}
		return
	}
	s.statuses <- status
}

// wait starts the controller, lets start post the intent and renders statuses until finished
// reports the transfer done. A failure, or a return to idle with a message, ends it with an error.
func (s *session) wait(ctx context.Context, start func(*runtime.SessionController), finished func(domain.Status) bool) (domain.SharedFile, error) {
	runCtx, cancel := context.WithCancel(ctx)
	stopped := make(chan struct{})
	go func() {
		_ = s.controller.Run(runCtx)
		close(stopped)
	}()
	defer func() {
		cancel()
		for {
			select {
			case <-stopped:
				return
			case <-s.statuses:
			}
		}
	}()

	start(s.controller)
	for {
		select {
		case <-ctx.Done():
			return domain.SharedFile{}, fmt.Errorf("interrupted: %w", ctx.Err())
		case status := <-s.statuses:
			s.renderer.status(status)
			switch {
			case status.Mode == domain.ModeError:
				return domain.SharedFile{}, fmt.Errorf("%s", status.Message)
			case status.Mode == domain.ModeIdle && status.Message != "":
				return domain.SharedFile{}, fmt.Errorf("%s", status.Message)
			case finished(status):
				file, _ := s.controller.SharedFile()
				return file, nil
			}
		}
	}
}

// awaitMode blocks until the controller reaches mode or ctx is done.
func (s *session) awaitMode(ctx context.Context, mode domain.Mode) {
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()
	for s.controller.Status().Mode != mode {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
