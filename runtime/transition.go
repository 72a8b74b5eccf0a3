package runtime

import (
	"tempest-share/contract"
	"tempest-share/domain"
	"tempest-share/errors"
	"tempest-share/transport"
)

// Event is anything that may move the session: a user intent, an adapter
// notification or the outcome of sending and receiving.
type Event interface {
	isSessionEvent()
}

type ShareRequested struct {
	Code   string
	Source contract.FileSource
}

type FetchRequested struct{ Code string }

type CancelRequested struct{}

type EndpointReady struct{ ID string }

// PeerConnected carries a connection accepted by the sharing endpoint.
type PeerConnected struct{ Conn transport.IncomingConnection }

type ChannelOpened struct{}

type Progressed struct{ Progress float64 }

type SendCompleted struct{}

type FileAssembled struct{ File domain.SharedFile }

type ChannelClosed struct{}

type EndpointDisconnected struct{}

type Failed struct{ Err error }

func (ShareRequested) isSessionEvent()       {}
func (FetchRequested) isSessionEvent()       {}
func (CancelRequested) isSessionEvent()      {}
func (EndpointReady) isSessionEvent()        {}
func (PeerConnected) isSessionEvent()        {}
func (ChannelOpened) isSessionEvent()        {}
func (Progressed) isSessionEvent()           {}
func (SendCompleted) isSessionEvent()        {}
func (FileAssembled) isSessionEvent()        {}
func (ChannelClosed) isSessionEvent()        {}
func (EndpointDisconnected) isSessionEvent() {}
func (Failed) isSessionEvent()               {}

// Effect is a side effect the controller carries out after a transition, in order.
type Effect interface {
	isEffect()
}

// Teardown releases every resource of the current session: channel, endpoint,
// chunk buffer and exposed file. Running it twice is harmless.
type Teardown struct{}

// Disconnect closes the channel and the endpoint but keeps the exposed file.
type Disconnect struct{}

type OpenEndpoint struct {
	Code   string
	Source contract.FileSource
}

type Connect struct{ Code string }

type AttachChannel struct{ Conn transport.IncomingConnection }

type RejectChannel struct{ Conn transport.IncomingConnection }

type StartSending struct{}

type ExposeFile struct{ File domain.SharedFile }

// ReleaseFile frees a file assembled for a session that no longer wants it.
type ReleaseFile struct{ Handle domain.Handle }

func (Teardown) isEffect()      {}
func (Disconnect) isEffect()    {}
func (OpenEndpoint) isEffect()  {}
func (Connect) isEffect()       {}
func (AttachChannel) isEffect() {}
func (RejectChannel) isEffect() {}
func (StartSending) isEffect()  {}
func (ExposeFile) isEffect()    {}
func (ReleaseFile) isEffect()   {}

// Transition is the only place where the session status changes.
// It is pure: the returned effects describe what has to be done, nothing is done here.
func Transition(current domain.Status, ev Event) (domain.Status, []Effect) {
	switch e := ev.(type) {
	case ShareRequested:
		return domain.SharingWaiting(e.Code), []Effect{Teardown{}, OpenEndpoint{Code: e.Code, Source: e.Source}}

	case FetchRequested:
		return domain.ReceivingConnecting(), []Effect{Teardown{}, Connect{Code: e.Code}}

	case CancelRequested:
		return domain.Idle(""), []Effect{Teardown{}}

	case EndpointReady:
		return current, nil

	case PeerConnected:
		if current.Mode == domain.ModeSharingWaiting {
			return domain.SharingSending(current.Code, 0), []Effect{AttachChannel{Conn: e.Conn}}
		}
		return current, []Effect{RejectChannel{Conn: e.Conn}}

	case ChannelOpened:
		switch current.Mode {
		case domain.ModeSharingSending:
			return current, []Effect{StartSending{}}
		case domain.ModeReceivingConnecting:
			return domain.ReceivingInProgress(0), nil
		}
		return current, nil

	case Progressed:
		switch current.Mode {
		case domain.ModeSharingSending:
			return domain.SharingSending(current.Code, e.Progress), nil
		case domain.ModeReceivingInProgress:
			return domain.ReceivingInProgress(e.Progress), nil
		}
		return current, nil

	case SendCompleted:
		if current.Mode == domain.ModeSharingSending {
			return domain.SharingComplete(current.Code), nil
		}
		return current, nil

	case FileAssembled:
		if current.Mode == domain.ModeReceivingInProgress {
			return domain.ReceivingComplete(), []Effect{ExposeFile{File: e.File}}
		}
		return current, []Effect{ReleaseFile{Handle: e.File.Handle}}

	case ChannelClosed:
		return closed(current)

	case EndpointDisconnected:
		switch {
		case current.Mode == domain.ModeIdle, current.Mode == domain.ModeError:
			return current, nil
		case current.Mode.Complete():
			return current, []Effect{Disconnect{}}
		}
		return domain.Idle(errors.MessageConnectionLost), []Effect{Teardown{}}

	case Failed:
		if errors.Is(e.Err, errors.ErrChannelDisconnected) {
			return closed(current)
		}
		switch {
		case current.Mode == domain.ModeIdle, current.Mode == domain.ModeError:
			return current, nil
		case current.Mode.Complete():
			return current, []Effect{Disconnect{}}
		}
		return domain.Failure(errors.UserMessage(e.Err, current.Mode.Role())), []Effect{Teardown{}}
	}
	return current, nil
}

func closed(current domain.Status) (domain.Status, []Effect) {
	switch {
	case current.Mode.Complete():
		return current, []Effect{Disconnect{}}
	case current.Mode.Role() == domain.RoleSender:
		return domain.Idle(errors.MessageReceiverLeft), []Effect{Teardown{}}
	case current.Mode.Role() == domain.RoleReceiver:
		return domain.Idle(errors.MessageSenderLeft), []Effect{Teardown{}}
	}
	return current, nil
}
