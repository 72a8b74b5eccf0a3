package transport

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type collector struct {
	mu     sync.Mutex
	events []Event
}

func (c *collector) Publish(ev Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, ev)
}

func (c *collector) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.events)
}

func TestMailbox_KeepsOrderAndWaitsForStart(t *testing.T) {
	req := require.New(t)
	box := NewMailbox()
	sink := &collector{}

	// Given events pushed before any sink is attached
	box.Push(ChannelOpened{})
	for i := 0; i < 100; i++ {
		box.Push(DataReceived{Payload: []byte{byte(i)}})
	}
	box.Finish(ChannelClosed{})
	box.Push(DataReceived{Payload: []byte("dropped")})

	// When the sink is attached
	box.Start(sink)

	// Then everything is delivered in order and nothing after Finish
	req.Eventually(func() bool { return sink.len() == 102 }, time.Second, time.Millisecond)
	req.Equal(ChannelOpened{}, sink.events[0])
	for i := 0; i < 100; i++ {
		req.Equal(DataReceived{Payload: []byte{byte(i)}}, sink.events[i+1])
	}
	req.Equal(ChannelClosed{}, sink.events[101])
}

func TestMailbox_CloseDropsPendingEvents(t *testing.T) {
	req := require.New(t)
	box := NewMailbox()
	sink := &collector{}

	box.Push(ChannelOpened{})
	box.Close()
	box.Start(sink)
	box.Push(ChannelClosed{})

	time.Sleep(20 * time.Millisecond)
	req.Zero(sink.len())
}

func TestSinkFunc(t *testing.T) {
	var got Event
	SinkFunc(func(ev Event) { got = ev }).Publish(EndpointReady{ID: "demo"})
	require.Equal(t, EndpointReady{ID: "demo"}, got)
}
