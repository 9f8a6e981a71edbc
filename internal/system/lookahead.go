package system

import (
	"time"

	"github.com/stellarcache/galaxy/internal/cache"
	"github.com/stellarcache/galaxy/internal/core/event"
	coresys "github.com/stellarcache/galaxy/internal/core/system"
	"github.com/stellarcache/galaxy/internal/galaxy"
	"github.com/stellarcache/galaxy/internal/syspath"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// LookaheadSystem keeps the neighbourhood of a centre sector warm: every
// sector within radius, and once those arrive every star system in them.
// Moving the centre drops the old neighbourhood. Refills are throttled.
// Phase 2 (Update).
type LookaheadSystem struct {
	sectors *cache.Slave[galaxy.Sector]
	systems *cache.Slave[galaxy.StarSystem]
	limiter *rate.Limiter
	radius  int32
	log     *zap.Logger

	center  syspath.Path
	filled  syspath.Path
	primed  bool
	pending bool

	sectorsReady bool
	systemsReady bool
	fills        int
}

func NewLookaheadSystem(g *galaxy.Galaxy, center syspath.Path, radius int32, limiter *rate.Limiter, log *zap.Logger) *LookaheadSystem {
	s := &LookaheadSystem{
		sectors: g.NewSectorSlave(),
		systems: g.NewSystemSlave(),
		limiter: limiter,
		radius:  radius,
		log:     log,
		center:  center.SectorOnly(),
	}
	// a generator change empties every slave
	event.Subscribe(g.Bus(), func(event.GeneratorChanged) { s.primed = false })
	return s
}

func (s *LookaheadSystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

// SetCenter moves the neighbourhood. The refill happens on a later tick.
func (s *LookaheadSystem) SetCenter(p syspath.Path) {
	s.center = p.SectorOnly()
}

func (s *LookaheadSystem) Center() syspath.Path { return s.center }

// Ready reports whether every sector and system around the current centre
// is held.
func (s *LookaheadSystem) Ready() bool {
	return s.primed && s.filled == s.center && s.sectorsReady && s.systemsReady
}

// Fills counts neighbourhood refills started.
func (s *LookaheadSystem) Fills() int { return s.fills }

func (s *LookaheadSystem) Update(_ time.Duration) {
	if s.primed && s.filled == s.center {
		return
	}
	if !s.limiter.Allow() {
		if !s.pending {
			s.log.Debug("lookahead throttled", zap.String("center", s.center.String()))
			s.pending = true
		}
		return
	}
	s.pending = false
	s.fill()
}

func (s *LookaheadSystem) fill() {
	s.sectors.ClearCache()
	s.systems.ClearCache()
	s.primed = true
	s.filled = s.center
	s.sectorsReady = false
	s.systemsReady = false
	s.fills++

	c := s.center
	paths := make([]syspath.Path, 0, (2*s.radius+1)*(2*s.radius+1)*(2*s.radius+1))
	for x := c.SectorX - s.radius; x <= c.SectorX+s.radius; x++ {
		for y := c.SectorY - s.radius; y <= c.SectorY+s.radius; y++ {
			for z := c.SectorZ - s.radius; z <= c.SectorZ+s.radius; z++ {
				paths = append(paths, syspath.Sector(x, y, z))
			}
		}
	}
	s.log.Debug("lookahead fill",
		zap.String("center", c.String()),
		zap.Int("sectors", len(paths)),
	)
	s.sectors.FillCache(paths, func() { s.onSectorsReady(c, paths) })
}

// onSectorsReady runs on the owning goroutine once every sector is held.
func (s *LookaheadSystem) onSectorsReady(center syspath.Path, paths []syspath.Path) {
	if center != s.filled {
		return
	}
	s.sectorsReady = true

	var systems []syspath.Path
	for _, p := range paths {
		sec := s.sectors.GetIfCached(p)
		if sec == nil {
			continue
		}
		for i := range sec.Systems {
			systems = append(systems, p.WithSystem(uint32(i)))
		}
	}
	s.systems.FillCache(systems, func() {
		if center != s.filled {
			return
		}
		s.systemsReady = true
		s.log.Debug("lookahead ready",
			zap.String("center", center.String()),
			zap.Int("sectors", s.sectors.Len()),
			zap.Int("systems", s.systems.Len()),
		)
	})
}

// Sector returns a held sector, or nil outside the neighbourhood.
func (s *LookaheadSystem) Sector(p syspath.Path) *galaxy.Sector {
	return s.sectors.GetIfCached(p)
}

// StarSystem returns a held star system, or nil.
func (s *LookaheadSystem) StarSystem(p syspath.Path) *galaxy.StarSystem {
	return s.systems.GetIfCached(p)
}

// Close releases both slaves.
func (s *LookaheadSystem) Close() {
	s.sectors.Close()
	s.systems.Close()
}
