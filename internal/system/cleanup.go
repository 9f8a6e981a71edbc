package system

import (
	"time"

	coresys "github.com/stellarcache/galaxy/internal/core/system"
	"github.com/stellarcache/galaxy/internal/galaxy"
	"go.uber.org/zap"
)

// CacheMaintenanceSystem drops attic entries whose objects were collected.
// Every statsInterval ticks it also sweeps both attics for entries whose
// cleanup message was lost and logs cache statistics. Phase 6 (Cleanup).
type CacheMaintenanceSystem struct {
	galaxy        *galaxy.Galaxy
	log           *zap.Logger
	statsInterval int
	tickCount     int
	evicted       int
	swept         int
}

func NewCacheMaintenanceSystem(g *galaxy.Galaxy, statsInterval int, log *zap.Logger) *CacheMaintenanceSystem {
	return &CacheMaintenanceSystem{
		galaxy:        g,
		log:           log,
		statsInterval: statsInterval,
	}
}

func (s *CacheMaintenanceSystem) Phase() coresys.Phase { return coresys.PhaseCleanup }

func (s *CacheMaintenanceSystem) Update(_ time.Duration) {
	s.evicted += s.galaxy.ProcessDead()

	if s.statsInterval <= 0 {
		return
	}
	s.tickCount++
	if s.tickCount < s.statsInterval {
		return
	}
	s.tickCount = 0
	n := s.galaxy.Sweep()
	s.evicted += n
	s.swept += n
	s.galaxy.LogStatistics(true)
	s.log.Debug("cache maintenance",
		zap.Int("swept", n),
		zap.Int("evicted_total", s.evicted))
}

// Evicted counts attic entries removed so far.
func (s *CacheMaintenanceSystem) Evicted() int { return s.evicted }

// Swept counts the part of Evicted found by the periodic sweep.
func (s *CacheMaintenanceSystem) Swept() int { return s.swept }
