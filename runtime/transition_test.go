package runtime

import (
	"fmt"
	"tempest-share/domain"
	"tempest-share/errors"
	"tempest-share/transport"
	"testing"

	"github.com/stretchr/testify/require"
)

type nopChannel struct{}

func (nopChannel) Send([]byte) error { return nil }
func (nopChannel) Close() error      { return nil }

func TestTransition(t *testing.T) {
	conn := transport.IncomingConnection{Channel: nopChannel{}}
	sending := domain.SharingSending("demo", 43.69)

	tests := []struct {
		description string
		current     domain.Status
		event       Event
		expected    domain.Status
		effects     []Effect
	}{
		{
			description: "share from idle waits for a peer",
			current:     domain.Idle(""),
			event:       ShareRequested{Code: "demo"},
			expected:    domain.SharingWaiting("demo"),
			effects:     []Effect{Teardown{}, OpenEndpoint{Code: "demo"}},
		},
		{
			description: "share while receiving tears the receiver down first",
			current:     domain.ReceivingInProgress(20),
			event:       ShareRequested{Code: "demo"},
			expected:    domain.SharingWaiting("demo"),
			effects:     []Effect{Teardown{}, OpenEndpoint{Code: "demo"}},
		},
		{
			description: "fetch from error starts connecting",
			current:     domain.Failure(errors.MessageUnknown),
			event:       FetchRequested{Code: "demo"},
			expected:    domain.ReceivingConnecting(),
			effects:     []Effect{Teardown{}, Connect{Code: "demo"}},
		},
		{
			description: "cancel from any state goes idle",
			current:     sending,
			event:       CancelRequested{},
			expected:    domain.Idle(""),
			effects:     []Effect{Teardown{}},
		},
		{
			description: "endpoint ready keeps waiting",
			current:     domain.SharingWaiting("demo"),
			event:       EndpointReady{ID: "demo"},
			expected:    domain.SharingWaiting("demo"),
		},
		{
			description: "peer connects",
			current:     domain.SharingWaiting("demo"),
			event:       PeerConnected{Conn: conn},
			expected:    domain.SharingSending("demo", 0),
			effects:     []Effect{AttachChannel{Conn: conn}},
		},
		{
			description: "second peer is rejected",
			current:     sending,
			event:       PeerConnected{Conn: conn},
			expected:    sending,
			effects:     []Effect{RejectChannel{Conn: conn}},
		},
		{
			description: "sender channel opens",
			current:     domain.SharingSending("demo", 0),
			event:       ChannelOpened{},
			expected:    domain.SharingSending("demo", 0),
			effects:     []Effect{StartSending{}},
		},
		{
			description: "receiver channel opens",
			current:     domain.ReceivingConnecting(),
			event:       ChannelOpened{},
			expected:    domain.ReceivingInProgress(0),
		},
		{
			description: "sender progress",
			current:     domain.SharingSending("demo", 0),
			event:       Progressed{Progress: 43.69},
			expected:    sending,
		},
		{
			description: "receiver progress",
			current:     domain.ReceivingInProgress(0),
			event:       Progressed{Progress: 87.38},
			expected:    domain.ReceivingInProgress(87.38),
		},
		{
			description: "progress is ignored once idle",
			current:     domain.Idle(errors.MessageReceiverLeft),
			event:       Progressed{Progress: 50},
			expected:    domain.Idle(errors.MessageReceiverLeft),
		},
		{
			description: "END sent",
			current:     domain.SharingSending("demo", 100),
			event:       SendCompleted{},
			expected:    domain.SharingComplete("demo"),
		},
		{
			description: "file assembled",
			current:     domain.ReceivingInProgress(100),
			event:       FileAssembled{File: domain.SharedFile{FileName: "a.txt"}},
			expected:    domain.ReceivingComplete(),
			effects:     []Effect{ExposeFile{File: domain.SharedFile{FileName: "a.txt"}}},
		},
		{
			description: "file assembled after the session moved on is released",
			current:     domain.Idle(""),
			event:       FileAssembled{File: domain.SharedFile{FileName: "a.txt", Handle: "h-1"}},
			expected:    domain.Idle(""),
			effects:     []Effect{ReleaseFile{Handle: "h-1"}},
		},
		{
			description: "data before the channel opened fails the fetch",
			current:     domain.ReceivingConnecting(),
			event:       Failed{Err: fmt.Errorf("early data: %w", errors.ErrMalformedMessage)},
			expected:    domain.Failure(errors.MessageCorrupted),
			effects:     []Effect{Teardown{}},
		},
		{
			description: "receiver leaves mid transfer",
			current:     sending,
			event:       ChannelClosed{},
			expected:    domain.Idle(errors.MessageReceiverLeft),
			effects:     []Effect{Teardown{}},
		},
		{
			description: "sender leaves mid transfer",
			current:     domain.ReceivingInProgress(43.69),
			event:       ChannelClosed{},
			expected:    domain.Idle(errors.MessageSenderLeft),
			effects:     []Effect{Teardown{}},
		},
		{
			description: "close after completion keeps the status",
			current:     domain.SharingComplete("demo"),
			event:       ChannelClosed{},
			expected:    domain.SharingComplete("demo"),
			effects:     []Effect{Disconnect{}},
		},
		{
			description: "disconnection error is a close",
			current:     domain.ReceivingInProgress(10),
			event:       Failed{Err: fmt.Errorf("eof: %w", errors.ErrChannelDisconnected)},
			expected:    domain.Idle(errors.MessageSenderLeft),
			effects:     []Effect{Teardown{}},
		},
		{
			description: "code in use",
			current:     domain.SharingWaiting("demo"),
			event:       Failed{Err: errors.ErrCodeUnavailable},
			expected:    domain.Failure(errors.MessageCodeInUse),
			effects:     []Effect{Teardown{}},
		},
		{
			description: "nobody behind the code",
			current:     domain.ReceivingConnecting(),
			event:       Failed{Err: errors.ErrPeerUnavailable},
			expected:    domain.Failure(errors.MessageFileNotFound),
			effects:     []Effect{Teardown{}},
		},
		{
			description: "malformed message aborts the transfer",
			current:     domain.ReceivingInProgress(50),
			event:       Failed{Err: errors.ErrMalformedMessage},
			expected:    domain.Failure(errors.MessageCorrupted),
			effects:     []Effect{Teardown{}},
		},
		{
			description: "read failure aborts the transfer",
			current:     sending,
			event:       Failed{Err: errors.ErrReadFailure},
			expected:    domain.Failure(errors.MessageReadFailed),
			effects:     []Effect{Teardown{}},
		},
		{
			description: "late error after completion keeps the status",
			current:     domain.ReceivingComplete(),
			event:       Failed{Err: errors.ErrUnknown},
			expected:    domain.ReceivingComplete(),
			effects:     []Effect{Disconnect{}},
		},
		{
			description: "error is not overwritten by a disconnection",
			current:     domain.Failure(errors.MessageFileNotFound),
			event:       EndpointDisconnected{},
			expected:    domain.Failure(errors.MessageFileNotFound),
		},
		{
			description: "error is not overwritten by a close",
			current:     domain.Failure(errors.MessageFileNotFound),
			event:       ChannelClosed{},
			expected:    domain.Failure(errors.MessageFileNotFound),
		},
		{
			description: "error is not overwritten by a second error",
			current:     domain.Failure(errors.MessageCodeInUse),
			event:       Failed{Err: errors.ErrUnknown},
			expected:    domain.Failure(errors.MessageCodeInUse),
		},
		{
			description: "signaling lost while waiting",
			current:     domain.SharingWaiting("demo"),
			event:       EndpointDisconnected{},
			expected:    domain.Idle(errors.MessageConnectionLost),
			effects:     []Effect{Teardown{}},
		},
		{
			description: "signaling lost after completion",
			current:     domain.SharingComplete("demo"),
			event:       EndpointDisconnected{},
			expected:    domain.SharingComplete("demo"),
			effects:     []Effect{Disconnect{}},
		},
		{
			description: "idle ignores a late disconnection",
			current:     domain.Idle(""),
			event:       EndpointDisconnected{},
			expected:    domain.Idle(""),
		},
	}

	for _, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			req := require.New(t)

			next, effects := Transition(tt.current, tt.event)

			req.Equal(tt.expected, next)
			req.Equal(tt.effects, effects)
		})
	}
}

func TestTransition_NeverHoldsTwoRoles(t *testing.T) {
	req := require.New(t)
	status := domain.Idle("")

	// Given a sequence of intents switching roles
	intents := []Event{
		ShareRequested{Code: "a"},
		FetchRequested{Code: "b"},
		ShareRequested{Code: "c"},
		CancelRequested{},
		FetchRequested{Code: "d"},
	}

	for _, intent := range intents {
		// When each intent is applied
		next, effects := Transition(status, intent)

		// Then the previous session is always torn down before anything else
		req.NotEmpty(effects)
		req.Equal(Teardown{}, effects[0])
		status = next
	}
	req.Equal(domain.ReceivingConnecting(), status)
}
