package metrics

import (
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/shirou/gopsutil/v3/process"

	"github.com/hypanel/hypanel/internal/config"
	"github.com/hypanel/hypanel/internal/database"
	"github.com/hypanel/hypanel/internal/supervisor"
)

// ProcessSource yields the live instance processes to sample.
type ProcessSource interface {
	Snapshot() []supervisor.HandleInfo
}

// Collector periodically samples cpu and memory for every live instance
// process and records the samples. Sampling a pid that died between the
// snapshot and the probe is not an error; the sample is skipped.
type Collector struct {
	cfg    *config.Config
	source ProcessSource
	db     *database.DB

	stopCh chan struct{}
	wg     sync.WaitGroup
	cron   *cron.Cron

	mu    sync.Mutex
	procs map[int32]*process.Process
}

// Sample is one point-in-time measurement of an instance process.
type Sample struct {
	InstanceID    string    `json:"instance_id"`
	PID           int       `json:"pid"`
	CPUPercent    float64   `json:"cpu_percent"`
	MemoryMB      float64   `json:"memory_mb"`
	MemoryPercent float64   `json:"memory_percent"`
	UptimeSeconds int64     `json:"uptime_seconds"`
	CollectedAt   time.Time `json:"collected_at"`
}

// NewCollector creates a collector reading live pids from source.
func NewCollector(cfg *config.Config, source ProcessSource, db *database.DB) *Collector {
	return &Collector{
		cfg:    cfg,
		source: source,
		db:     db,
		stopCh: make(chan struct{}),
		procs:  make(map[int32]*process.Process),
	}
}

// Start launches the sampling loop and the retention cleanup schedule.
func (c *Collector) Start() {
	if !c.cfg.Metrics.Enabled {
		return
	}

	interval := time.Duration(c.cfg.Metrics.SampleInterval) * time.Second
	if interval <= 0 {
		interval = 15 * time.Second
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				c.collectAll()
			case <-c.stopCh:
				return
			}
		}
	}()

	if c.cfg.Metrics.RetentionDays > 0 && c.cfg.Metrics.CleanupSchedule != "" {
		c.cron = cron.New()
		if _, err := c.cron.AddFunc(c.cfg.Metrics.CleanupSchedule, c.cleanupOldSamples); err != nil {
			log.Printf("[Metrics] invalid cleanup schedule %q: %v", c.cfg.Metrics.CleanupSchedule, err)
		} else {
			c.cron.Start()
		}
	}
}

// Stop halts sampling and the cleanup schedule, waiting for in-flight work.
func (c *Collector) Stop() {
	close(c.stopCh)
	c.wg.Wait()
	if c.cron != nil {
		<-c.cron.Stop().Done()
	}
}

func (c *Collector) collectAll() {
	now := time.Now().UTC()
	live := c.source.Snapshot()

	seen := make(map[int32]bool, len(live))
	for _, info := range live {
		pid := int32(info.PID)
		seen[pid] = true

		sample, err := c.sampleProcess(pid)
		if err != nil {
			continue
		}

		sample.InstanceID = info.InstanceID
		sample.PID = info.PID
		sample.UptimeSeconds = int64(now.Sub(info.StartedAt).Seconds())
		sample.CollectedAt = now

		if err := c.record(sample); err != nil {
			log.Printf("[Metrics] failed to record sample for %s: %v", info.InstanceID, err)
		}
	}

	c.pruneProcs(seen)
}

// sampleProcess probes one pid. The per-pid process handle is cached so
// cpu percent is computed over the interval since the previous sample
// rather than over the whole process lifetime.
func (c *Collector) sampleProcess(pid int32) (Sample, error) {
	c.mu.Lock()
	proc, ok := c.procs[pid]
	c.mu.Unlock()

	if !ok {
		created, err := process.NewProcess(pid)
		if err != nil {
			return Sample{}, err
		}
		proc = created
		c.mu.Lock()
		c.procs[pid] = proc
		c.mu.Unlock()
	}

	cpuPercent, err := proc.Percent(0)
	if err != nil {
		return Sample{}, err
	}

	memInfo, err := proc.MemoryInfo()
	if err != nil {
		return Sample{}, err
	}

	memPercent, err := proc.MemoryPercent()
	if err != nil {
		return Sample{}, err
	}

	return Sample{
		CPUPercent:    cpuPercent,
		MemoryMB:      float64(memInfo.RSS) / (1024 * 1024),
		MemoryPercent: float64(memPercent),
	}, nil
}

// pruneProcs drops cached handles for pids that are no longer live.
func (c *Collector) pruneProcs(seen map[int32]bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for pid := range c.procs {
		if !seen[pid] {
			delete(c.procs, pid)
		}
	}
}

func (c *Collector) record(s Sample) error {
	if c.db == nil {
		return nil
	}

	_, err := c.db.Exec(`
		INSERT INTO instance_metrics (
			instance_id, pid, cpu_percent, memory_mb, memory_percent, uptime_seconds, collected_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		s.InstanceID,
		s.PID,
		s.CPUPercent,
		s.MemoryMB,
		s.MemoryPercent,
		s.UptimeSeconds,
		s.CollectedAt.Format(time.RFC3339),
	)
	return err
}

func (c *Collector) cleanupOldSamples() {
	if c.db == nil || c.cfg.Metrics.RetentionDays <= 0 {
		return
	}

	cutoff := time.Now().UTC().Add(-time.Duration(c.cfg.Metrics.RetentionDays) * 24 * time.Hour)
	result, err := c.db.Exec(
		"DELETE FROM instance_metrics WHERE collected_at < ?",
		cutoff.Format(time.RFC3339),
	)
	if err != nil {
		log.Printf("[Metrics] retention cleanup failed: %v", err)
		return
	}

	if rows, err := result.RowsAffected(); err == nil && rows > 0 {
		log.Printf("[Metrics] retention cleanup removed %d samples", rows)
	}
}
