// Package errors holds the error taxonomy shared by the transfer protocol,
// the session controller and the channel adapters.
package errors

import (
	"errors"
	"fmt"
	"tempest-share/domain"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var (
	ErrWorkerPanic = fmt.Errorf("worker panic")

	// ErrCodeUnavailable is returned when a code is already claimed by a live sender.
	ErrCodeUnavailable = fmt.Errorf("code unavailable")
	// ErrPeerUnavailable is returned when a code does not resolve to a live sender.
	ErrPeerUnavailable = fmt.Errorf("peer unavailable")
	// ErrChannelDisconnected marks a graceful peer departure.
	ErrChannelDisconnected = fmt.Errorf("channel disconnected")
	ErrMalformedMessage    = fmt.Errorf("malformed message")
	ErrReadFailure         = fmt.Errorf("read failure")
	// ErrConnectionSetup is returned when an endpoint or a channel could not be created at all.
	ErrConnectionSetup = fmt.Errorf("connection setup failed")
	ErrUnknown         = fmt.Errorf("unknown error")
)

// Wire names of the error kinds, aligned on the PeerJS error types.
const (
	KindUnavailableID   = "unavailable-id"
	KindPeerUnavailable = "peer-unavailable"
	KindDisconnected    = "disconnected"
	KindInvalidMessage  = "invalid-message"
	KindUnknown         = "unknown"
)

const (
	MessageCodeInUse      = "This code is already in use. Please choose another."
	MessageFileNotFound   = "File not found. The code may be incorrect or the sender is offline."
	MessagePeerNotFound   = "Could not find a peer with that code."
	MessageSetupFailed    = "Failed to create connection. Please try again."
	MessageCorrupted      = "The received file was corrupted. Please try again."
	MessageReadFailed     = "Could not read the selected file."
	MessageUnknown        = "An unknown error occurred."
	MessageReceiverLeft   = "Receiver disconnected."
	MessageSenderLeft     = "Sender disconnected."
	MessageConnectionLost = "Connection lost. Please try again."
)

// UserMessage turns an error into the message shown to the user.
// The peer-unavailable wording depends on the role that observed it.
func UserMessage(err error, role domain.Role) string {
	switch {
	case err == nil:
		return MessageUnknown
	case errors.Is(err, ErrCodeUnavailable):
		return MessageCodeInUse
	case errors.Is(err, ErrPeerUnavailable):
		if role == domain.RoleReceiver {
			return MessageFileNotFound
		}
		return MessagePeerNotFound
	case errors.Is(err, ErrMalformedMessage):
		return MessageCorrupted
	case errors.Is(err, ErrReadFailure):
		return MessageReadFailed
	case errors.Is(err, ErrConnectionSetup):
		return MessageSetupFailed
	default:
		return MessageUnknown
	}
}

// Kind returns the wire name of err.
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrCodeUnavailable):
		return KindUnavailableID
	case errors.Is(err, ErrPeerUnavailable):
		return KindPeerUnavailable
	case errors.Is(err, ErrChannelDisconnected):
		return KindDisconnected
	case errors.Is(err, ErrMalformedMessage):
		return KindInvalidMessage
	default:
		return KindUnknown
	}
}

// FromKind is the inverse of Kind. Unknown names map to ErrUnknown.
func FromKind(kind string) error {
	switch kind {
	case KindUnavailableID:
		return ErrCodeUnavailable
	case KindPeerUnavailable:
		return ErrPeerUnavailable
	case KindDisconnected:
		return ErrChannelDisconnected
	case KindInvalidMessage:
		return ErrMalformedMessage
	default:
		return ErrUnknown
	}
}

// ToGRPCStatus maps the taxonomy to a gRPC status error.
func ToGRPCStatus(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, ErrCodeUnavailable):
		return status.Error(codes.AlreadyExists, err.Error())
	case errors.Is(err, ErrPeerUnavailable):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, ErrMalformedMessage):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, ErrChannelDisconnected):
		return status.Error(codes.Canceled, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

// FromGRPCStatus converts a gRPC status error back into the taxonomy.
// Errors that carry no status are returned unchanged.
func FromGRPCStatus(err error) error {
	st, ok := status.FromError(err)
	if !ok || err == nil {
		return err
	}
	switch st.Code() {
	case codes.AlreadyExists:
		return fmt.Errorf("%s: %w", st.Message(), ErrCodeUnavailable)
	case codes.NotFound:
		return fmt.Errorf("%s: %w", st.Message(), ErrPeerUnavailable)
	case codes.InvalidArgument:
		return fmt.Errorf("%s: %w", st.Message(), ErrMalformedMessage)
	case codes.Canceled, codes.Unavailable:
		return fmt.Errorf("%s: %w", st.Message(), ErrChannelDisconnected)
	default:
		return fmt.Errorf("%s: %w", st.Message(), ErrUnknown)
	}
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}
