package galaxy

import (
	"fmt"
	"sort"
	"sync/atomic"

	"github.com/stellarcache/galaxy/internal/syspath"
	"go.uber.org/zap"
)

// homeworldSearchSteps bounds how far FinishInit walks along an axis looking
// for a sector that can hold a faction's homeworld.
const homeworldSearchSteps = 16

// SectorGetter resolves sectors during registry initialization.
type SectorGetter interface {
	GetSector(p syspath.Path) *Sector
}

// Factions is the process-wide faction registry. It is built on the owning
// goroutine and read-only after FinishInit, when generation workers may query
// it concurrently.
type Factions struct {
	year        float64
	factions    []*Faction
	byName      map[string]*Faction
	homeSystems map[syspath.Path]struct{}
	pending     map[string][]*CustomSystem
	index       Octsapling
	noFaction   *Faction
	initialized atomic.Bool
	log         *zap.Logger
}

// NewFactions creates an empty registry whose territories are measured at year.
func NewFactions(year float64, log *zap.Logger) *Factions {
	none := NewFaction("No faction")
	none.DescriptionShort = "Independent"
	none.Colour = Colour{0.4, 0.4, 0.4}
	return &Factions{
		year:        year,
		byName:      make(map[string]*Faction),
		homeSystems: make(map[syspath.Path]struct{}),
		pending:     make(map[string][]*CustomSystem),
		noFaction:   none,
		log:         log,
	}
}

func (fs *Factions) Year() float64 { return fs.year }

func (fs *Factions) Initialized() bool { return fs.initialized.Load() }

// AddFaction registers f and resolves custom systems that were waiting for it.
func (fs *Factions) AddFaction(f *Faction) error {
	if fs.Initialized() {
		return fmt.Errorf("add faction %q: registry already initialized", f.Name)
	}
	if f.Name == "" {
		return fmt.Errorf("add faction: empty name")
	}
	if _, dup := fs.byName[f.Name]; dup {
		return fmt.Errorf("add faction %q: duplicate name", f.Name)
	}
	if f.ExpansionRate < 0 {
		return fmt.Errorf("add faction %q: negative expansion rate %g", f.Name, f.ExpansionRate)
	}
	f.Idx = uint32(len(fs.factions))
	fs.factions = append(fs.factions, f)
	fs.byName[f.Name] = f
	if f.HasHomeworld {
		fs.homeSystems[f.Homeworld.SystemOnly()] = struct{}{}
	}
	for _, cs := range fs.pending[f.Name] {
		cs.Faction = f
	}
	delete(fs.pending, f.Name)
	return nil
}

// RegisterCustomSystem links cs to its named faction now or once that
// faction is added.
func (fs *Factions) RegisterCustomSystem(cs *CustomSystem) {
	if cs.FactionName == "" {
		return
	}
	if f, ok := fs.byName[cs.FactionName]; ok {
		cs.Faction = f
		return
	}
	fs.pending[cs.FactionName] = append(fs.pending[cs.FactionName], cs)
}

// FinishInit resolves homeworld sectors, builds the spatial index and
// reports faction names that custom systems referenced but nobody defined.
// Unresolved references are not fatal; those systems simply fall back to
// the spatial lookup.
func (fs *Factions) FinishInit(sectors SectorGetter) []string {
	for _, f := range fs.factions {
		if !f.HasHomeworld {
			continue
		}
		if !fs.resolveHomeworld(f, sectors) {
			fs.log.Warn("faction homeworld has no system, treating it as homeless",
				zap.String("faction", f.Name),
				zap.String("homeworld", f.Homeworld.String()),
			)
			delete(fs.homeSystems, f.Homeworld)
			f.HasHomeworld = false
		}
	}

	fs.index.Clear()
	for _, f := range fs.factions {
		fs.index.Add(f, fs.year)
	}

	var missing []string
	for name, list := range fs.pending {
		for _, cs := range list {
			fs.log.Warn("custom system references unknown faction",
				zap.String("system", cs.Name),
				zap.String("faction", name),
			)
		}
		missing = append(missing, name)
	}
	sort.Strings(missing)
	clear(fs.pending)

	fs.initialized.Store(true)
	fs.log.Info("factions initialized",
		zap.Int("factions", len(fs.factions)),
		zap.Int("home_systems", len(fs.homeSystems)),
		zap.Float64("year", fs.year),
	)
	return missing
}

// resolveHomeworld finds the homeworld's sector. When the sector does not
// hold the requested index it walks outward along the axes, then inward, to
// the first sector with systems.
func (fs *Factions) resolveHomeworld(f *Faction, sectors SectorGetter) bool {
	hw := f.Homeworld
	if sec := sectors.GetSector(hw); sec.Contains(hw) {
		fs.setHome(f, sec, hw)
		return true
	}
	for _, dir := range [2]int32{+1, -1} {
		for step := int32(1); step <= homeworldSearchSteps; step++ {
			for axis := 0; axis < 3; axis++ {
				p := stepAway(hw, axis, dir*step)
				sec := sectors.GetSector(p)
				if sec.Len() == 0 {
					continue
				}
				si := min(hw.SystemIndex, uint32(sec.Len()-1))
				fit := p.WithSystem(si)
				delete(fs.homeSystems, hw)
				fs.homeSystems[fit] = struct{}{}
				fs.log.Info("faction homeworld moved to best fit",
					zap.String("faction", f.Name),
					zap.String("requested", hw.String()),
					zap.String("homeworld", fit.String()),
				)
				fs.setHome(f, sec, fit)
				return true
			}
		}
	}
	return false
}

// stepAway moves p by n sectors along axis, away from the origin for n > 0.
func stepAway(p syspath.Path, axis int, n int32) syspath.Path {
	sign := func(v int32) int32 {
		if v < 0 {
			return -1
		}
		return 1
	}
	q := p.SectorOnly()
	switch axis {
	case 0:
		q.SectorX += sign(p.SectorX) * n
	case 1:
		q.SectorY += sign(p.SectorY) * n
	default:
		q.SectorZ += sign(p.SectorZ) * n
	}
	return q
}

func (fs *Factions) setHome(f *Faction, sec *Sector, hw syspath.Path) {
	f.Homeworld = hw
	f.homeSector = sec
	f.homePos = sec.System(hw.SystemIndex).FullPosition()
}

// Get returns the faction with index idx, or the sentinel.
func (fs *Factions) Get(idx uint32) *Faction {
	if int(idx) >= len(fs.factions) {
		return fs.noFaction
	}
	return fs.factions[idx]
}

// Find returns the named faction or nil.
func (fs *Factions) Find(name string) *Faction {
	return fs.byName[name]
}

func (fs *Factions) Count() int { return len(fs.factions) }

// All returns the factions in registration order.
func (fs *Factions) All() []*Faction { return fs.factions }

func (fs *Factions) NoFaction() *Faction { return fs.noFaction }

// IsHomeSystem reports whether p's system is some faction's homeworld.
func (fs *Factions) IsHomeSystem(p syspath.Path) bool {
	if !p.HasValidSystem() {
		return false
	}
	_, ok := fs.homeSystems[p.SystemOnly()]
	return ok
}

// GetNearestClaimant decides which faction owns sys. An authored faction
// wins outright, then an explicit claim among the octant's candidates, then
// the candidate whose territory contains sys with the closest homeworld.
func (fs *Factions) GetNearestClaimant(sys *SectorSystem) *Faction {
	if sys.Custom != nil && sys.Custom.Faction != nil {
		return sys.Custom.Faction
	}
	if !fs.Initialized() {
		return fs.noFaction
	}

	candidates := fs.index.Candidates(sys.Path())
	for _, f := range candidates {
		if f.IsClaimed(sys.Path()) {
			return f
		}
	}

	result := fs.noFaction
	closest := 0.0
	for _, f := range candidates {
		d, inside := f.territory(sys, fs.year)
		if !inside {
			continue
		}
		if result == fs.noFaction || d < closest {
			result, closest = f, d
		}
	}
	return result
}

// GetNearestFaction is GetNearestClaimant.
func (fs *Factions) GetNearestFaction(sys *SectorSystem) *Faction {
	return fs.GetNearestClaimant(sys)
}
