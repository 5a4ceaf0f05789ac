package workers

import (
	"chat-guard/contract"
	"chat-guard/moderation"
	"chat-guard/observability"
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/samber/lo"
	"github.com/shirou/gopsutil/process"
)

const defaultHeartbeatInterval = 5 * time.Second

// SpamStatsSource exposes the moderation view read on each beat.
type SpamStatsSource interface {
	Stats() map[string]moderation.SpamStat
}

type HeartbeatWorker struct {
	log        *slog.Logger
	hub        contract.IHub
	stats      SpamStatsSource
	monitoring *observability.MonitoringManager
	interval   time.Duration
	proc       *process.Process
	now        func() time.Time
}

func NewHeartbeatWorker(
	log *slog.Logger,
	hub contract.IHub,
	stats SpamStatsSource,
	monitoring *observability.MonitoringManager,
	interval time.Duration,
) *HeartbeatWorker {
	if interval <= 0 {
		interval = defaultHeartbeatInterval
	}
	return &HeartbeatWorker{
		log:        log,
		hub:        hub,
		stats:      stats,
		monitoring: monitoring,
		interval:   interval,
		now:        time.Now,
	}
}

// Run logs the state of the chat and the health of the process on every tick.
func (w *HeartbeatWorker) Run(ctx context.Context) error {
	w.log.Info("Starting heartbeat worker", "interval", w.interval)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return err
	}
	w.proc = p

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			report := w.Beat()
			w.monitoring.Update(report)
			w.log.Info("Heartbeat",
				"version", report.Version,
				"messages", report.Messages,
				"blocked", report.Blocked,
				"active_users", report.ActiveUsers,
				"near_limit", report.NearLimit,
				"rss", report.RSS,
				"cpu", report.CPUPercent,
				"state", report.State,
			)
		}
	}
}

// Beat collects a report. Process metrics stay zero when they cannot be read.
func (w *HeartbeatWorker) Beat() observability.HealthStats {
	snapshot := w.hub.Current()
	stats := w.stats.Stats()

	report := observability.HealthStats{
		Version:     snapshot.Version,
		Messages:    len(snapshot.Messages),
		Blocked:     len(snapshot.Blocked),
		ActiveUsers: len(stats),
		NearLimit: lo.Filter(lo.Keys(stats), func(userID string, _ int) bool {
			return stats[userID].IsNearLimit
		}),
		State: observability.StateUnknown,
		At:    w.now(),
	}

	if w.proc == nil {
		return report
	}
	rss, cpu, status, err := getSelfStats(w.proc)
	if err != nil {
		w.log.Error("Failed to collect self stats", "error", err)
		return report
	}
	report.RSS, report.CPUPercent, report.State = rss, cpu, observability.ParseProcessState(status)
	return report
}

// getSelfStats retrieves technical metrics (Memory, CPU, and OS Status) for the given process.
func getSelfStats(p *process.Process) (uint64, float64, string, error) {
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
