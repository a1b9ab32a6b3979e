// metrics.go - Metrics collection for the ledger node
package server

import (
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
)

// NodeMetrics holds granular health metrics for the node.
type NodeMetrics struct {
	UptimeSeconds       int64   `json:"uptime_seconds"`
	BlockHeight         int     `json:"block_height"`
	PendingTransactions int     `json:"pending_transactions"`
	Subscribers         int     `json:"subscribers"`
	CPULoadPercent      float64 `json:"cpu_load_percent"`
	MemoryMB            float64 `json:"memory_mb"`
	DiskFreeMB          float64 `json:"disk_free_mb"`
	LastBlockTime       string  `json:"last_block_time"`
	Corrupted           bool    `json:"corrupted"`
}

// GetNodeMetrics returns current health metrics for the node.
func (s *Server) GetNodeMetrics() NodeMetrics {
	c := s.court.Chain()
	snap := c.Snapshot()

	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	diskFreeMB := 0.0
	if usage, err := disk.Usage("/"); err == nil {
		diskFreeMB = float64(usage.Free) / (1024 * 1024)
	}

	cpuLoad := 0.0
	if cpuPercents, err := cpu.Percent(0, false); err == nil && len(cpuPercents) > 0 {
		cpuLoad = cpuPercents[0]
	}

	subscribers := 0
	if s.hub != nil {
		subscribers = s.hub.Subscribers()
	}

	return NodeMetrics{
		UptimeSeconds:       int64(time.Since(s.startTime).Seconds()),
		BlockHeight:         snap.Length(),
		PendingTransactions: len(c.Pending()),
		Subscribers:         subscribers,
		CPULoadPercent:      cpuLoad,
		MemoryMB:            float64(m.Alloc) / (1024 * 1024),
		DiskFreeMB:          diskFreeMB,
		LastBlockTime:       snap.Tip().Timestamp.Format(time.RFC3339),
		Corrupted:           c.Corruption() != nil,
	}
}

// nodeStatus derives a one-word health status from metrics.
func nodeStatus(m NodeMetrics) string {
	switch {
	case m.Corrupted:
		return "corrupted"
	case m.BlockHeight == 0:
		return "initializing"
	case m.BlockHeight == 1:
		return "empty"
	}
	return "healthy"
}

// NodeLiveness returns true while the node holds at least its genesis block.
func (s *Server) NodeLiveness() bool {
	return s.court.Chain().Length() > 0
}

// NodeReadiness returns true if the node accepts submissions and the store is
// reachable.
func (s *Server) NodeReadiness() bool {
	if s.court.Chain().Corruption() != nil {
		return false
	}
	if s.store != nil {
		if _, err := s.store.GetChainHeight(); err != nil {
			return false
		}
	}
	return true
}
