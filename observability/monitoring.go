package observability

import (
	"context"
	"log/slog"
	"os"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shirou/gopsutil/process"
)

// Stats is the health snapshot served on /healthz.
type Stats struct {
	Status        string    `json:"status"`
	UptimeSeconds int64     `json:"uptime_seconds"`
	Requests      uint64    `json:"requests"`
	Failures      uint64    `json:"failures"`
	Pid           int32     `json:"pid"`
	PidStatus     string    `json:"pid_status"`
	RSSBytes      uint64    `json:"rss_bytes"`
	CPUPercent    float64   `json:"cpu_percent"`
	AllocMemMb    uint64    `json:"alloc_mem_mb"`
	NumGC         uint32    `json:"num_gc"`
	Goroutines    int       `json:"goroutines"`
	SampledAt     time.Time `json:"sampled_at"`
}

// MonitoringManager counts transport requests and samples the process on a ticker.
// It runs under the supervisor like any other worker.
type MonitoringManager struct {
	log       *slog.Logger
	process   *process.Process
	interval  time.Duration
	startedAt time.Time

	requests atomic.Uint64
	failures atomic.Uint64

	mu     sync.RWMutex
	latest Stats
}

func NewMonitoringManager(log *slog.Logger, interval time.Duration) (*MonitoringManager, error) {
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return nil, err
	}
	mm := &MonitoringManager{
		log:       log,
		process:   p,
		interval:  interval,
		startedAt: time.Now(),
	}
	mm.sample()
	return mm, nil
}

// Observe records one served request; failed is true for anything but a success.
func (mm *MonitoringManager) Observe(failed bool) {
	mm.requests.Add(1)
	if failed {
		mm.failures.Add(1)
	}
}

// Run refreshes the process sample until ctx is canceled.
func (mm *MonitoringManager) Run(ctx context.Context) error {
	ticker := time.NewTicker(mm.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			mm.sample()
		}
	}
}

func (mm *MonitoringManager) sample() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	next := Stats{
		Pid:        mm.process.Pid,
		AllocMemMb: m.Alloc / 1024 / 1024,
		NumGC:      m.NumGC,
		Goroutines: runtime.NumGoroutine(),
		SampledAt:  time.Now().UTC(),
	}
	rss, cpu, status, err := selfStats(mm.process)
	if err != nil {
		mm.log.Warn("Failed to collect process stats", "error", err)
	} else {
		next.RSSBytes, next.CPUPercent, next.PidStatus = rss, cpu, status
	}

	mm.mu.Lock()
	mm.latest = next
	mm.mu.Unlock()

	mm.log.Debug("Process sampled", "rss_bytes", next.RSSBytes, "cpu_percent", next.CPUPercent,
		"goroutines", next.Goroutines)
}

// GetLatest returns the last process sample with live counters.
func (mm *MonitoringManager) GetLatest() Stats {
	mm.mu.RLock()
	stats := mm.latest
	mm.mu.RUnlock()

	stats.Status = "ok"
	stats.UptimeSeconds = int64(time.Since(mm.startedAt).Seconds())
	stats.Requests = mm.requests.Load()
	stats.Failures = mm.failures.Load()
	return stats
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
