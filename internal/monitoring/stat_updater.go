package monitoring

import (
	"encoding/json"
	"sync"
	"time"

	ws "github.com/ozgunk/social-feed-be/internal/websocket"
	"github.com/rs/zerolog/log"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
)

// SystemStats is a point-in-time snapshot of host resource usage.
type SystemStats struct {
	CPUPercent    float64   `json:"cpuPercent"`
	MemPercent    float64   `json:"memPercent"`
	DiskPercent   float64   `json:"diskPercent"`
	ImagesDiskUse uint64    `json:"imagesDiskUse"`
	CollectedAt   time.Time `json:"collectedAt"`
}

// StatUpdater periodically samples host stats and pushes them to connected
// clients. The latest snapshot is kept for the status endpoint.
type StatUpdater struct {
	hub        *ws.Hub
	imagesPath string
	ticker     *time.Ticker
	done       chan bool

	mu     sync.RWMutex
	latest SystemStats
}

// NewStatUpdater creates a new StatUpdater.
func NewStatUpdater(hub *ws.Hub, imagesPath string) *StatUpdater {
	return &StatUpdater{
		hub:        hub,
		imagesPath: imagesPath,
		done:       make(chan bool),
	}
}

// Run starts the periodic updates.
func (su *StatUpdater) Run() {
	log.Info().Msg("Starting background stat updater...")
	su.ticker = time.NewTicker(15 * time.Second)
	defer su.ticker.Stop()

	// Run once immediately on start
	su.update()

	for {
		select {
		case <-su.done:
			log.Info().Msg("Stopping background stat updater.")
			return
		case <-su.ticker.C:
			su.update()
		}
	}
}

// Stop halts the periodic updates.
func (su *StatUpdater) Stop() {
	su.done <- true
}

// Snapshot returns the most recently collected stats.
func (su *StatUpdater) Snapshot() SystemStats {
	su.mu.RLock()
	defer su.mu.RUnlock()
	return su.latest
}

func (su *StatUpdater) update() {
	stats := SystemStats{CollectedAt: time.Now()}

	if percents, err := cpu.Percent(0, false); err == nil && len(percents) > 0 {
		stats.CPUPercent = percents[0]
	} else if err != nil {
		log.Warn().Err(err).Msg("StatUpdater: failed to sample CPU")
	}

	if vm, err := mem.VirtualMemory(); err == nil {
		stats.MemPercent = vm.UsedPercent
	} else {
		log.Warn().Err(err).Msg("StatUpdater: failed to sample memory")
	}

	if usage, err := disk.Usage(su.imagesPath); err == nil {
		stats.DiskPercent = usage.UsedPercent
		stats.ImagesDiskUse = usage.Used
	} else {
		log.Warn().Err(err).Msg("StatUpdater: failed to sample disk")
	}

	su.mu.Lock()
	su.latest = stats
	su.mu.Unlock()

	if su.hub == nil {
		return
	}
	msg, err := json.Marshal(ws.Message{Action: "system.stats", Payload: stats})
	if err != nil {
		log.Error().Err(err).Msg("StatUpdater: failed to encode stats message")
		return
	}
	su.hub.Broadcast <- msg
}
