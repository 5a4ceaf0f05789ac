package observability

import (
	"log/slog"
	"sync"
	"time"
)

// ProcessState is the scheduler state the OS reports for the chat process.
type ProcessState string

const (
	StateRunning  ProcessState = "running"
	StateSleeping ProcessState = "sleeping"
	StateStopped  ProcessState = "stopped"
	StateIdle     ProcessState = "idle"
	StateZombie   ProcessState = "zombie"
	StateWaiting  ProcessState = "waiting"
	StateLocked   ProcessState = "locked"
	StateUnknown  ProcessState = "unknown"
)

var psStates = map[string]ProcessState{
	"R": StateRunning,
	"S": StateSleeping,
	"T": StateStopped,
	"I": StateIdle,
	"Z": StateZombie,
	"W": StateWaiting,
	"L": StateLocked,
}

// ParseProcessState reads the one letter state column of ps(1), as gopsutil
// returns it.
func ParseProcessState(code string) ProcessState {
	if state, ok := psStates[code]; ok {
		return state
	}
	return StateUnknown
}

// HealthStats is one heartbeat: the chat state and the process footprint.
type HealthStats struct {
	Version     uint64
	Messages    int
	Blocked     int
	ActiveUsers int
	NearLimit   []string
	RSS         uint64
	CPUPercent  float64
	State       ProcessState
	At          time.Time
}

// MonitoringManager keeps the latest heartbeat for whoever wants to show it.
type MonitoringManager struct {
	log    *slog.Logger
	mu     sync.RWMutex
	latest HealthStats
	beats  uint64
}

func NewMonitoringManager(log *slog.Logger) *MonitoringManager {
	return &MonitoringManager{log: log, latest: HealthStats{State: StateUnknown}}
}

func (mm *MonitoringManager) Update(stats HealthStats) {
	mm.mu.Lock()
	defer mm.mu.Unlock()
	mm.latest = stats
	mm.beats++
}

// GetLatest returns the last heartbeat and how many were recorded.
func (mm *MonitoringManager) GetLatest() (HealthStats, uint64) {
	mm.mu.RLock()
	defer mm.mu.RUnlock()
	return mm.latest, mm.beats
}
