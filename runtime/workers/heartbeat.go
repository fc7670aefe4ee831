package workers

import (
	"chat-relay/contract"
	"chat-relay/observability"
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/shirou/gopsutil/process"
)

// Heartbeat is one periodic health sample of the relay process.
type Heartbeat struct {
	Participants int
	RamBytes     uint64
	CpuPercent   float64
	PidStatus    string
	Stats        observability.RelayStats
}

// HeartbeatWorker logs the roster size, the process footprint and the relay
// counters at a fixed interval.
type HeartbeatWorker struct {
	log      *slog.Logger
	roster   contract.Roster
	metrics  *observability.RelayMetrics
	interval time.Duration
	proc     *process.Process
}

func NewHeartbeatWorker(
	log *slog.Logger,
	roster contract.Roster,
	metrics *observability.RelayMetrics,
	interval time.Duration,
) *HeartbeatWorker {
	return &HeartbeatWorker{
		log:      log,
		roster:   roster,
		metrics:  metrics,
		interval: interval,
	}
}

func (w *HeartbeatWorker) Run(ctx context.Context) error {
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return fmt.Errorf("inspect relay process: %w", err)
	}
	w.proc = p

	w.log.Info("Starting heartbeat worker", "interval", w.interval)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Context done, stopping heartbeat")
			return nil
		case <-ticker.C:
			beat, err := w.Beat()
			if err != nil {
				w.log.Error("Failed to collect self stats", "error", err)
				continue
			}
			w.log.Info("Heartbeat",
				"participants", beat.Participants,
				"ram_bytes", beat.RamBytes,
				"cpu_percent", beat.CpuPercent,
				"pid_status", beat.PidStatus,
				"frames_received", beat.Stats.FramesReceived,
				"events_broadcast", beat.Stats.EventsBroadcast,
				"delivery_failures", beat.Stats.DeliveryFailures,
				"disconnects", beat.Stats.Disconnects)
		}
	}
}

// Beat samples the relay once.
func (w *HeartbeatWorker) Beat() (Heartbeat, error) {
	if w.proc == nil {
		p, err := process.NewProcess(int32(os.Getpid()))
		if err != nil {
			return Heartbeat{}, err
		}
		w.proc = p
	}
	rss, cpu, status, err := selfStats(w.proc)
	if err != nil {
		return Heartbeat{}, err
	}
	return Heartbeat{
		Participants: w.roster.Len(),
		RamBytes:     rss,
		CpuPercent:   cpu,
		PidStatus:    status,
		Stats:        w.metrics.GetLatest(),
	}, nil
}

func selfStats(p *process.Process) (uint64, float64, string, error) {
	memInfo, err := p.MemoryInfo()
	if err != nil {
		return 0, 0, "", err
	}
	cpuPercent, err := p.CPUPercent()
	if err != nil {
		return 0, 0, "", err
	}
	status, err := p.Status()
	if err != nil {
		return 0, 0, "", err
	}
	return memInfo.RSS, cpuPercent, status, nil
}
