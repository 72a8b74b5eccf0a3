package workers

import (
	"context"
	"log/slog"
	"os"
	"tempest-share/domain"
	"tempest-share/infrastructure/relay"
	"time"

	"github.com/shirou/gopsutil/process"
)

// HeartbeatWorker logs the relay counters along with the memory and CPU of the process.
type HeartbeatWorker struct {
	log      *slog.Logger
	interval time.Duration
	stats    func() relay.StatsSnapshot
}

func NewHeartbeatWorker(log *slog.Logger, interval time.Duration, stats func() relay.StatsSnapshot) *HeartbeatWorker {
	return &HeartbeatWorker{log: log, interval: interval, stats: stats}
}

func (w *HeartbeatWorker) Run(ctx context.Context) error {
	w.log.Info("Starting relay heartbeat", "interval", w.interval)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			w.beat(p)
		}
	}
}

func (w *HeartbeatWorker) beat(p *process.Process) {
	s := w.stats()
	attrs := []any{
		"rooms", s.ActiveRooms,
		"connections", s.ActiveConnections,
		"total_rooms", s.TotalRooms,
		"refused", s.Refused,
		"frames", s.ForwardedFrames,
		"forwarded", domain.FormatFileSize(s.ForwardedBytes),
	}
	rss, cpu, err := selfStats(p)
	if err != nil {
		w.log.Warn("Failed to collect self stats", "error", err)
	} else {
		attrs = append(attrs, "rss", domain.FormatFileSize(rss), "cpu", cpu)
	}
	w.log.Info("Relay heartbeat", attrs...)
}

func selfStats(p *process.Process) (uint64, float64, error) {
	memInfo, err := p.MemoryInfo()
	if err != nil {
		return 0, 0, err
	}
	cpuPercent, err := p.CPUPercent()
	if err != nil {
		return 0, 0, err
	}
	return memInfo.RSS, cpuPercent, nil
}
