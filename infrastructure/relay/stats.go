package relay

import "sync/atomic"

// Stats counts what went through the relay.
type Stats struct {
	rooms     atomic.Int64
	conns     atomic.Int64
	frames    atomic.Uint64
	bytes     atomic.Uint64
	refused   atomic.Uint64
	totalRoom atomic.Uint64
}

type StatsSnapshot struct {
	ActiveRooms       int64
	ActiveConnections int64
	TotalRooms        uint64
	ForwardedFrames   uint64
	ForwardedBytes    uint64
	Refused           uint64
}

func (s *Stats) Snapshot() StatsSnapshot {
	return StatsSnapshot{
		ActiveRooms:       s.rooms.Load(),
		ActiveConnections: s.conns.Load(),
		TotalRooms:        s.totalRoom.Load(),
		ForwardedFrames:   s.frames.Load(),
		ForwardedBytes:    s.bytes.Load(),
		Refused:           s.refused.Load(),
	}
}

func (s *Stats) roomOpened() {
	s.rooms.Add(1)
	s.totalRoom.Add(1)
}

func (s *Stats) roomClosed() { s.rooms.Add(-1) }

func (s *Stats) forwarded(n int) {
	s.frames.Add(1)
	s.bytes.Add(uint64(n))
}
