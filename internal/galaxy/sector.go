package galaxy

import (
	"fmt"
	"io"
	"math"
	"sync/atomic"

	"github.com/dustin/go-humanize"
	"github.com/stellarcache/galaxy/internal/syspath"
)

// SectorSize is the edge of a sector cube in light years.
const SectorSize = 8.0

// Sector is the generated content of one sector. It is immutable after
// generation apart from the per-system faction memo and exploration state.
type Sector struct {
	path    syspath.Path
	Systems []*SectorSystem
}

func newSector(p syspath.Path) *Sector {
	return &Sector{path: p.SectorOnly()}
}

func (s *Sector) Path() syspath.Path { return s.path }

func (s *Sector) Len() int { return len(s.Systems) }

// System returns the record for index i. An index beyond the sector is a
// programming error.
func (s *Sector) System(i uint32) *SectorSystem {
	if int(i) >= len(s.Systems) {
		panic(fmt.Sprintf("galaxy: system index %d out of range for sector %s with %d systems", i, s.path, len(s.Systems)))
	}
	return s.Systems[i]
}

// Contains reports whether p names a system of this sector.
func (s *Sector) Contains(p syspath.Path) bool {
	return p.HasValidSystem() && p.IsSameSector(s.path) && int(p.SystemIndex) < len(s.Systems)
}

// WithinBox reports whether any system lies inside the box, bounds included.
func (s *Sector) WithinBox(lo, hi Vector3) bool {
	for _, sys := range s.Systems {
		p := sys.FullPosition()
		if p.X >= lo.X && p.X <= hi.X && p.Y >= lo.Y && p.Y <= hi.Y && p.Z >= lo.Z && p.Z <= hi.Z {
			return true
		}
	}
	return false
}

func (s *Sector) add(sys *SectorSystem) {
	sys.path = s.path.WithSystem(uint32(len(s.Systems)))
	s.Systems = append(s.Systems, sys)
}

// Dump writes a human readable listing.
func (s *Sector) Dump(w io.Writer) {
	fmt.Fprintf(w, "sector %s: %s systems\n", s.path, humanize.Comma(int64(len(s.Systems))))
	for _, sys := range s.Systems {
		fmt.Fprintf(w, "  [%d] %-20s %s stars=%d", sys.path.SystemIndex, sys.Name, sys.Pos, sys.NumStars)
		for i := 0; i < sys.NumStars; i++ {
			fmt.Fprintf(w, " %s", sys.StarType[i])
		}
		fmt.Fprintf(w, " seed=%08x %s", sys.Seed, sys.Explored())
		if pop, ok := sys.Population(); ok {
			fmt.Fprintf(w, " pop=%s", formatPopulation(pop))
		}
		if sys.Custom != nil {
			fmt.Fprint(w, " custom")
		}
		fmt.Fprintln(w)
	}
}

// formatPopulation renders a population given in billions.
func formatPopulation(billions float64) string {
	return humanize.SIWithDigits(billions*1e9, 2, "")
}

// SectorSystem is one system record of a sector.
type SectorSystem struct {
	path     syspath.Path
	Pos      Vector3 // within the sector, 0..SectorSize per axis
	Name     string
	NumStars int
	StarType [4]BodyType
	Seed     uint32
	Custom   *CustomSystem

	explored     atomic.Int32
	exploredTime atomic.Uint64
	population   atomic.Uint64
	faction      atomic.Pointer[Faction]
}

func newSectorSystem() *SectorSystem {
	s := &SectorSystem{}
	s.population.Store(math.Float64bits(-1))
	return s
}

func (s *SectorSystem) Path() syspath.Path { return s.path }

// FullPosition in light years relative to the galactic origin sector.
func (s *SectorSystem) FullPosition() Vector3 {
	return Vector3{
		float64(s.path.SectorX) * SectorSize,
		float64(s.path.SectorY) * SectorSize,
		float64(s.path.SectorZ) * SectorSize,
	}.Add(s.Pos)
}

func (s *SectorSystem) Explored() ExplorationState { return ExplorationState(s.explored.Load()) }

// ExploredTime is in game seconds. Zero for systems explored at start.
func (s *SectorSystem) ExploredTime() float64 {
	return math.Float64frombits(s.exploredTime.Load())
}

func (s *SectorSystem) setExplored(e ExplorationState, when float64) {
	s.exploredTime.Store(math.Float64bits(when))
	s.explored.Store(int32(e))
}

// Population estimate in billions; known once the star system has been
// generated.
func (s *SectorSystem) Population() (float64, bool) {
	v := math.Float64frombits(s.population.Load())
	return v, v >= 0
}

func (s *SectorSystem) setPopulation(billions float64) {
	s.population.Store(math.Float64bits(billions))
}

// Faction resolves the owning faction once and memoizes it. Before the
// registry is initialized the answer is not cached.
func (s *SectorSystem) Faction(fs *Factions) *Faction {
	if f := s.faction.Load(); f != nil {
		return f
	}
	f := fs.GetNearestClaimant(s)
	if fs.Initialized() {
		if !s.faction.CompareAndSwap(nil, f) {
			return s.faction.Load()
		}
	}
	return f
}

func (s *SectorSystem) isSameSector(p syspath.Path) bool {
	return s.path.IsSameSector(p)
}

// DistanceBetween two systems in light years.
func DistanceBetween(a *Sector, ai uint32, b *Sector, bi uint32) float64 {
	return a.System(ai).FullPosition().Sub(b.System(bi).FullPosition()).Length()
}
