package metrics

import (
	"database/sql"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/hypanel/hypanel/internal/database"
)

// Store reads recorded samples back for the API.
type Store struct {
	db *database.DB
}

// NewStore creates a sample store.
func NewStore(db *database.DB) *Store {
	return &Store{db: db}
}

// Latest returns the most recent sample for an instance, or nil when the
// instance has never been sampled.
func (s *Store) Latest(instanceID string) (*Sample, error) {
	row := s.db.QueryRow(`
		SELECT instance_id, pid, cpu_percent, memory_mb, memory_percent, uptime_seconds, collected_at
		FROM instance_metrics
		WHERE instance_id = ?
		ORDER BY collected_at DESC
		LIMIT 1
	`, instanceID)

	sample, err := scanSample(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return sample, nil
}

// History returns samples for an instance newer than since, oldest first.
func (s *Store) History(instanceID string, since time.Time) ([]Sample, error) {
	rows, err := s.db.Query(`
		SELECT instance_id, pid, cpu_percent, memory_mb, memory_percent, uptime_seconds, collected_at
		FROM instance_metrics
		WHERE instance_id = ? AND collected_at >= ?
		ORDER BY collected_at ASC
	`, instanceID, since.UTC().Format(time.RFC3339))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var samples []Sample
	for rows.Next() {
		sample, err := scanSample(rows)
		if err != nil {
			return nil, err
		}
		samples = append(samples, *sample)
	}
	return samples, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSample(row rowScanner) (*Sample, error) {
	var s Sample
	var collectedAt string
	if err := row.Scan(
		&s.InstanceID,
		&s.PID,
		&s.CPUPercent,
		&s.MemoryMB,
		&s.MemoryPercent,
		&s.UptimeSeconds,
		&collectedAt,
	); err != nil {
		return nil, err
	}

	if t, err := time.Parse(time.RFC3339, collectedAt); err == nil {
		s.CollectedAt = t
	}
	return &s, nil
}

// SystemMetrics describes the host the instances run on.
type SystemMetrics struct {
	CPUPercent    float64 `json:"cpu_percent"`
	CPUCount      int     `json:"cpu_count"`
	MemoryTotalMB float64 `json:"memory_total_mb"`
	MemoryUsedMB  float64 `json:"memory_used_mb"`
	MemoryPercent float64 `json:"memory_percent"`
	UptimeSeconds uint64  `json:"uptime_seconds"`
}

// CollectSystem probes current host-wide cpu, memory and uptime.
func CollectSystem() (*SystemMetrics, error) {
	vm, err := mem.VirtualMemory()
	if err != nil {
		return nil, err
	}

	out := &SystemMetrics{
		MemoryTotalMB: float64(vm.Total) / (1024 * 1024),
		MemoryUsedMB:  float64(vm.Used) / (1024 * 1024),
		MemoryPercent: vm.UsedPercent,
	}

	if percents, err := cpu.Percent(0, false); err == nil && len(percents) > 0 {
		out.CPUPercent = percents[0]
	}
	if count, err := cpu.Counts(true); err == nil {
		out.CPUCount = count
	}
	if uptime, err := host.Uptime(); err == nil {
		out.UptimeSeconds = uptime
	}

	return out, nil
}
