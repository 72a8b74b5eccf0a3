package errors

import (
	"errors"
	"fmt"
	"tempest-share/domain"
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestUserMessage(t *testing.T) {
	tests := []struct {
		description string
		err         error
		role        domain.Role
		expected    string
	}{
		{"code already claimed", ErrCodeUnavailable, domain.RoleSender, MessageCodeInUse},
		{"wrapped code already claimed", fmt.Errorf("claim demo: %w", ErrCodeUnavailable), domain.RoleSender, MessageCodeInUse},
		{"receiver cannot find the sender", ErrPeerUnavailable, domain.RoleReceiver, MessageFileNotFound},
		{"sender cannot reach the peer", ErrPeerUnavailable, domain.RoleSender, MessagePeerNotFound},
		{"malformed message", ErrMalformedMessage, domain.RoleReceiver, MessageCorrupted},
		{"read failure", ErrReadFailure, domain.RoleSender, MessageReadFailed},
		{"setup failure", ErrConnectionSetup, domain.RoleSender, MessageSetupFailed},
		{"anything else", errors.New("boom"), domain.RoleReceiver, MessageUnknown},
		{"nil error", nil, domain.RoleNone, MessageUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			require.Equal(t, tt.expected, UserMessage(tt.err, tt.role))
		})
	}
}

func TestKind_RoundTrip(t *testing.T) {
	req := require.New(t)

	for _, err := range []error{ErrCodeUnavailable, ErrPeerUnavailable, ErrChannelDisconnected, ErrMalformedMessage} {
		req.ErrorIs(FromKind(Kind(err)), err)
	}
	req.Equal(KindUnknown, Kind(ErrReadFailure))
	req.ErrorIs(FromKind("socket-closed"), ErrUnknown)
}

func TestGRPCStatus(t *testing.T) {
	req := require.New(t)

	// Given a taxonomy error converted to a gRPC status
	err := ToGRPCStatus(fmt.Errorf("code demo: %w", ErrCodeUnavailable))
	st, ok := status.FromError(err)
	req.True(ok)
	req.Equal(codes.AlreadyExists, st.Code())

	// When it crosses the wire and is converted back
	back := FromGRPCStatus(err)

	// Then it is still classified the same way
	req.ErrorIs(back, ErrCodeUnavailable)
	req.ErrorIs(FromGRPCStatus(status.Error(codes.NotFound, "ghost")), ErrPeerUnavailable)
	req.ErrorIs(FromGRPCStatus(status.Error(codes.Unavailable, "eof")), ErrChannelDisconnected)
	req.NoError(ToGRPCStatus(nil))
	req.NoError(FromGRPCStatus(nil))
}
