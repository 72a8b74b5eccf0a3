package transport

import (
	"sync"
)

// Mailbox delivers events to one sink, in order, from its own goroutine, so that
// pushing never blocks the caller. Events pushed before Start are kept until a sink is attached.
type Mailbox struct {
	mu       sync.Mutex
	cond     *sync.Cond
	queue    []Event
	sink     Sink
	closed   bool
	draining bool
}

func NewMailbox() *Mailbox {
	m := &Mailbox{}
	m.cond = sync.NewCond(&m.mu)
	return m
}

func (m *Mailbox) Start(sink Sink) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sink != nil || m.closed {
		return
	}
	m.sink = sink
	go m.loop()
}

func (m *Mailbox) Push(ev Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed || m.draining {
		return
	}
	m.queue = append(m.queue, ev)
	m.cond.Signal()
}

// Finish pushes a last event. The mailbox stops once it has been delivered.
func (m *Mailbox) Finish(ev Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed || m.draining {
		return
	}
	m.queue = append(m.queue, ev)
	m.draining = true
	m.cond.Signal()
}

// Close drops pending events and stops the delivery.
func (m *Mailbox) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.queue = nil
	m.cond.Signal()
}

func (m *Mailbox) loop() {
	for {
		m.mu.Lock()
		for len(m.queue) == 0 && !m.closed && !m.draining {
			m.cond.Wait()
		}
		if m.closed || len(m.queue) == 0 {
			m.mu.Unlock()
			return
		}
		ev := m.queue[0]
		m.queue = m.queue[1:]
		sink := m.sink
		m.mu.Unlock()

		sink.Publish(ev)
	}
}
