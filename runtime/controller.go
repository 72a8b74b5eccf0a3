// Package runtime drives one transfer session at a time.
// Transition decides, SessionController carries out the decisions on a single goroutine.
package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"tempest-share/codec"
	"tempest-share/contract"
	"tempest-share/domain"
	"tempest-share/errors"
	"tempest-share/services"
	"tempest-share/transport"
)

const inboxSize = 256

// Option customises a SessionController.
type Option func(c *SessionController)

// WithStatusListener registers a function called on every status change.
// It runs on the reactor goroutine and must return quickly.
func WithStatusListener(listener func(domain.Status)) Option {
	return func(c *SessionController) {
		c.listener = listener
	}
}

// envelope is one item of the reactor queue.
// Intents have gen 0 and always apply, adapter events and reads carry the
// generation of the session they belong to.
type envelope struct {
	gen uint64
	ev  any
}

type readDone struct {
	offset uint64
	data   []byte
	err    error
}

// transferSession holds the resources of the live session.
// Only the reactor goroutine touches it.
type transferSession struct {
	role       domain.Role
	code       string
	source     contract.FileSource
	endpoint   transport.Endpoint
	channel    transport.Channel
	sender     *services.Sender
	receiver   *services.Receiver
	cancelRead context.CancelFunc
}

// SessionController owns the single transfer session of the process.
// Every intent, adapter event and file read completion goes through one queue
// and is handled to completion before the next one.
type SessionController struct {
	log       *slog.Logger
	adapter   transport.Adapter
	assembler contract.Assembler
	listener  func(domain.Status)

	inbox   chan envelope
	done    chan struct{}
	running atomic.Bool

	mu     sync.RWMutex
	status domain.Status
	file   *domain.SharedFile

	// reactor state
	ctx     context.Context
	gen     uint64
	session transferSession
}

func NewSessionController(log *slog.Logger, adapter transport.Adapter, assembler contract.Assembler, opts ...Option) *SessionController {
	c := &SessionController{
		log:       log,
		adapter:   adapter,
		assembler: assembler,
		inbox:     make(chan envelope, inboxSize),
		done:      make(chan struct{}),
		status:    domain.Idle(""),
		gen:       1,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Share asks to share source under code. Any live session is torn down first.
func (c *SessionController) Share(code string, source contract.FileSource) {
	c.post(envelope{ev: ShareRequested{Code: code, Source: source}})
}

// Fetch asks for the file shared under code. Any live session is torn down first.
func (c *SessionController) Fetch(code string) {
	c.post(envelope{ev: FetchRequested{Code: code}})
}

// Cancel resets to idle from any state.
func (c *SessionController) Cancel() {
	c.post(envelope{ev: CancelRequested{}})
}

func (c *SessionController) Status() domain.Status {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.status
}

// SharedFile returns the assembled file of a completed receiving session.
func (c *SessionController) SharedFile() (domain.SharedFile, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.file == nil {
		return domain.SharedFile{}, false
	}
	return *c.file, true
}

// Run is the reactor loop. When ctx is cancelled the session is torn down and
// the controller goes back to idle. It can only run once.
func (c *SessionController) Run(ctx context.Context) error {
	if !c.running.CompareAndSwap(false, true) {
		return fmt.Errorf("session controller already running")
	}
	defer close(c.done)
	c.ctx = ctx

	for {
		select {
		case <-ctx.Done():
			c.dispatch(CancelRequested{})
			c.log.Info("Session controller stopped")
			return ctx.Err()
		case env := <-c.inbox:
			c.handle(env)
		}
	}
}

func (c *SessionController) post(env envelope) {
	select {
	case c.inbox <- env:
	case <-c.done:
	}
}

func (c *SessionController) sink(gen uint64) transport.Sink {
	return transport.SinkFunc(func(ev transport.Event) {
		c.post(envelope{gen: gen, ev: ev})
	})
}

func (c *SessionController) handle(env envelope) {
	if env.gen != 0 && env.gen != c.gen {
		c.drop(env)
		return
	}

	switch ev := env.ev.(type) {
	case Event:
		c.dispatch(ev)
	case transport.Event:
		c.onTransport(ev)
	case readDone:
		c.onRead(ev)
	default:
		c.log.Warn("Unexpected item in session queue", "type", fmt.Sprintf("%T", ev))
	}
}

// drop discards an item of a finished session. Connections accepted too late are closed.
func (c *SessionController) drop(env envelope) {
	if conn, ok := env.ev.(transport.IncomingConnection); ok {
		if err := conn.Channel.Close(); err != nil {
			c.log.Debug("Unable to close late connection", "error", err)
		}
	}
	c.log.Debug("Dropping event of a previous session", "gen", env.gen, "current", c.gen, "type", fmt.Sprintf("%T", env.ev))
}

func (c *SessionController) onTransport(ev transport.Event) {
	switch e := ev.(type) {
	case transport.EndpointReady:
		c.log.Info("Endpoint ready", "id", e.ID)
		c.dispatch(EndpointReady{ID: e.ID})
	case transport.IncomingConnection:
		c.dispatch(PeerConnected{Conn: e})
	case transport.EndpointFailed:
		c.dispatch(Failed{Err: e.Err})
	case transport.EndpointDisconnected:
		c.dispatch(EndpointDisconnected{})
	case transport.ChannelOpened:
		c.dispatch(ChannelOpened{})
	case transport.DataReceived:
		c.onData(e.Payload)
	case transport.ChannelClosed:
		c.dispatch(ChannelClosed{})
	case transport.ChannelFailed:
		c.dispatch(Failed{Err: e.Err})
	}
}

func (c *SessionController) onData(payload []byte) {
	current := c.Status()
	if current.Mode == domain.ModeReceivingConnecting {
		c.dispatch(Failed{Err: fmt.Errorf("%d bytes before the channel opened: %w", len(payload), errors.ErrMalformedMessage)})
		return
	}
	receiver := c.session.receiver
	if receiver == nil || current.Mode != domain.ModeReceivingInProgress {
		c.log.Debug("Ignoring data", "mode", current.Mode, "length", len(payload))
		return
	}

	msg, err := codec.Decode(payload)
	if err != nil {
		c.dispatch(Failed{Err: err})
		return
	}
	update, err := receiver.Process(msg)
	if err != nil {
		c.dispatch(Failed{Err: err})
		return
	}

	c.dispatch(Progressed{Progress: update.Progress})
	if update.File == nil {
		return
	}
	c.dispatch(FileAssembled{File: *update.File})
}

func (c *SessionController) onRead(r readDone) {
	c.session.cancelRead = nil
	sender := c.session.sender
	if sender == nil || c.Status().Mode != domain.ModeSharingSending {
		return
	}
	if r.err != nil {
		err := r.err
		if !errors.Is(err, errors.ErrReadFailure) {
			err = fmt.Errorf("read at offset %d: %v: %w", r.offset, err, errors.ErrReadFailure)
		}
		c.dispatch(Failed{Err: err})
		return
	}

	step, err := sender.Deliver(r.data)
	if err != nil {
		c.dispatch(Failed{Err: err})
		return
	}
	c.advance(step)
}

func (c *SessionController) advance(step services.Step) {
	c.dispatch(Progressed{Progress: step.Progress})
	switch {
	case step.Done:
		c.dispatch(SendCompleted{})
	case step.Next != nil:
		c.read(*step.Next)
	}
}

// read starts the next slice read off the reactor. There is never more than one in flight.
func (c *SessionController) read(next services.ReadRequest) {
	if c.session.cancelRead != nil {
		c.log.Warn("Read already in flight, ignoring request", "offset", next.Offset)
		return
	}
	ctx, cancel := context.WithCancel(c.ctx)
	c.session.cancelRead = cancel
	source, gen := c.session.source, c.gen

	go func() {
		defer cancel()
		data, err := source.ReadSlice(ctx, next.Offset, next.Length)
		c.post(envelope{gen: gen, ev: readDone{offset: next.Offset, data: data, err: err}})
	}()
}

// dispatch runs one transition and its effects.
func (c *SessionController) dispatch(ev Event) {
	previous := c.Status()
	next, effects := Transition(previous, ev)

	// A listener seeing receiving-complete must be able to read SharedFile.
	for _, effect := range effects {
		if e, ok := effect.(ExposeFile); ok {
			c.apply(e)
		}
	}
	c.setStatus(previous, next)

	for _, effect := range effects {
		if _, ok := effect.(ExposeFile); !ok {
			c.apply(effect)
		}
	}
}

func (c *SessionController) setStatus(previous, next domain.Status) {
	if previous == next {
		return
	}
	c.mu.Lock()
	c.status = next
	c.mu.Unlock()

	if previous.Mode != next.Mode {
		c.log.Info("Session status changed", "from", previous.Mode, "to", next.Mode, "code", next.Code, "message", next.Message)
	} else {
		c.log.Debug("Session progress", "mode", next.Mode, "progress", next.Progress)
	}
	if c.listener != nil {
		c.listener(next)
	}
}

func (c *SessionController) apply(effect Effect) {
	switch e := effect.(type) {
	case Teardown:
		c.disconnect()
		c.clearFile()
	case Disconnect:
		c.disconnect()
	case OpenEndpoint:
		c.openEndpoint(e.Code, e.Source)
	case Connect:
		c.connect(e.Code)
	case AttachChannel:
		c.session.channel = e.Conn.Channel
		e.Conn.Attach(c.sink(c.gen))
		c.log.Info("Peer connected", "code", c.session.code)
	case RejectChannel:
		c.log.Warn("Rejecting additional connection", "code", c.session.code)
		if err := e.Conn.Channel.Close(); err != nil {
			c.log.Debug("Unable to close rejected connection", "error", err)
		}
	case StartSending:
		c.startSending()
	case ExposeFile:
		file := e.File
		c.mu.Lock()
		c.file = &file
		c.mu.Unlock()
	case ReleaseFile:
		c.release(e.Handle)
	}
}

func (c *SessionController) openEndpoint(code string, source contract.FileSource) {
	c.session = transferSession{role: domain.RoleSender, code: code, source: source}
	endpoint, err := c.adapter.CreateEndpoint(c.ctx, code, c.sink(c.gen))
	if err != nil {
		c.log.Error("Unable to create endpoint", "code", code, "error", err)
		c.dispatch(Failed{Err: setupError(err)})
		return
	}
	c.session.endpoint = endpoint
}

func (c *SessionController) connect(code string) {
	c.session = transferSession{
		role:     domain.RoleReceiver,
		code:     code,
		receiver: services.NewReceiver(c.log, c.assembler),
	}
	channel, err := c.adapter.ConnectTo(c.ctx, code, c.sink(c.gen))
	if err != nil {
		c.log.Error("Unable to connect", "code", code, "error", err)
		c.dispatch(Failed{Err: setupError(err)})
		return
	}
	c.session.channel = channel
}

func (c *SessionController) startSending() {
	if c.session.sender != nil {
		return
	}
	if c.session.source == nil || c.session.channel == nil {
		c.dispatch(Failed{Err: fmt.Errorf("nothing to send: %w", errors.ErrUnknown)})
		return
	}
	c.session.sender = services.NewSender(c.log, c.session.channel, c.session.source.Metadata())
	step, err := c.session.sender.Begin()
	if err != nil {
		c.dispatch(Failed{Err: err})
		return
	}
	c.advance(step)
}

// disconnect releases the channel, the endpoint and the buffers of the live session
// and moves to a new generation so that nothing from it is handled anymore.
func (c *SessionController) disconnect() {
	s := c.session
	c.session = transferSession{}
	c.gen++

	if s.cancelRead != nil {
		s.cancelRead()
	}
	if s.receiver != nil {
		s.receiver.Release()
	}
	if s.channel != nil {
		if err := s.channel.Close(); err != nil {
			c.log.Debug("Unable to close channel", "code", s.code, "error", err)
		}
	}
	if s.endpoint != nil {
		if err := s.endpoint.Destroy(); err != nil {
			c.log.Debug("Unable to destroy endpoint", "code", s.code, "error", err)
		}
	}
}

func (c *SessionController) clearFile() {
	c.mu.Lock()
	file := c.file
	c.file = nil
	c.mu.Unlock()

	if file != nil {
		c.release(file.Handle)
	}
}

func (c *SessionController) release(handle domain.Handle) {
	if err := c.assembler.Release(handle); err != nil {
		c.log.Warn("Unable to release assembled file", "handle", handle, "error", err)
	}
}

// setupError keeps the code and peer errors and classifies anything else as a setup failure.
func setupError(err error) error {
	if errors.Is(err, errors.ErrCodeUnavailable) || errors.Is(err, errors.ErrPeerUnavailable) {
		return err
	}
	return fmt.Errorf("%v: %w", err, errors.ErrConnectionSetup)
}
