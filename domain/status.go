package domain

// Mode is the externally observable state of a session.
type Mode string

const (
	ModeIdle                Mode = "idle"
	ModeError               Mode = "error"
	ModeSharingWaiting      Mode = "sharing-waiting"
	ModeSharingSending      Mode = "sharing-sending"
	ModeSharingComplete     Mode = "sharing-complete"
	ModeReceivingConnecting Mode = "receiving-connecting"
	ModeReceivingInProgress Mode = "receiving-inprogress"
	ModeReceivingComplete   Mode = "receiving-complete"
)

// Role tells whether a session acts as sender or receiver.
type Role int

const (
	RoleNone Role = iota
	RoleSender
	RoleReceiver
)

func (r Role) String() string {
	switch r {
	case RoleSender:
		return "sender"
	case RoleReceiver:
		return "receiver"
	default:
		return "none"
	}
}

// Role returns the role a session holds while in mode m.
func (m Mode) Role() Role {
	switch m {
	case ModeSharingWaiting, ModeSharingSending, ModeSharingComplete:
		return RoleSender
	case ModeReceivingConnecting, ModeReceivingInProgress, ModeReceivingComplete:
		return RoleReceiver
	default:
		return RoleNone
	}
}

// Complete reports whether m is a successful terminal mode.
func (m Mode) Complete() bool {
	return m == ModeSharingComplete || m == ModeReceivingComplete
}

// Status is the single value the presentation layer renders from.
// Code is only meaningful for sharing modes, Progress for the in-progress modes
// and Message for idle and error.
type Status struct {
	Mode     Mode
	Code     string
	Progress float64
	Message  string
}

func Idle(message string) Status {
	return Status{Mode: ModeIdle, Message: message}
}

func Failure(message string) Status {
	return Status{Mode: ModeError, Message: message}
}

func SharingWaiting(code string) Status {
	return Status{Mode: ModeSharingWaiting, Code: code}
}

func SharingSending(code string, progress float64) Status {
	return Status{Mode: ModeSharingSending, Code: code, Progress: progress}
}

func SharingComplete(code string) Status {
	return Status{Mode: ModeSharingComplete, Code: code, Progress: 100}
}

func ReceivingConnecting() Status {
	return Status{Mode: ModeReceivingConnecting}
}

func ReceivingInProgress(progress float64) Status {
	return Status{Mode: ModeReceivingInProgress, Progress: progress}
}

func ReceivingComplete() Status {
	return Status{Mode: ModeReceivingComplete, Progress: 100}
}
