package galaxy

import (
	"fmt"
	"sync/atomic"

	"github.com/stellarcache/galaxy/internal/apperr"
	"github.com/stellarcache/galaxy/internal/cache"
	"github.com/stellarcache/galaxy/internal/core/event"
	"github.com/stellarcache/galaxy/internal/core/job"
	"github.com/stellarcache/galaxy/internal/syspath"
	"go.uber.org/zap"
)

// Config holds the generation inputs a host supplies.
type Config struct {
	Seed             uint32
	Density          *DensityMap
	DensityParams    DensityParams
	GeneratorName    string
	GeneratorVersion int
	JobSize          int
}

// DefaultConfig uses the default seed, generator and a noise density disc.
func DefaultConfig() Config {
	return Config{
		Seed:             UniverseSeed,
		Density:          NoiseDensityMap(int64(UniverseSeed), 512),
		DensityParams:    DefaultDensityParams,
		GeneratorName:    DefaultGeneratorName,
		GeneratorVersion: DefaultGeneratorVersion,
		JobSize:          cache.DefaultJobSize,
	}
}

// Galaxy is the generation authority: one generator, one sector master and
// one star system master. Every method belongs to the owning goroutine.
type Galaxy struct {
	log  *zap.Logger
	jobs *job.Queue
	bus  *event.Bus

	env      Env
	custom   *CustomSystems
	factions *Factions
	gen      *Generator

	initialized atomic.Bool

	sectors *cache.Master[Sector]
	systems *cache.Master[StarSystem]
}

// New builds a galaxy over the given registries. Factions and custom systems
// may still be added until FinishInit.
func New(cfg Config, custom *CustomSystems, factions *Factions, jobs *job.Queue, bus *event.Bus, log *zap.Logger) (*Galaxy, error) {
	if cfg.GeneratorName == "" {
		cfg.GeneratorName = DefaultGeneratorName
		cfg.GeneratorVersion = DefaultGeneratorVersion
	}
	gen, err := NewGenerator(cfg.GeneratorName, cfg.GeneratorVersion)
	if err != nil {
		return nil, fmt.Errorf("new galaxy: %w", err)
	}
	if custom == nil {
		custom = NewCustomSystems()
	}
	if factions == nil {
		factions = NewFactions(3200, log)
	}
	if bus == nil {
		bus = event.NewBus()
	}

	g := &Galaxy{
		log:      log,
		jobs:     jobs,
		bus:      bus,
		custom:   custom,
		factions: factions,
		gen:      gen,
	}
	g.env = Env{
		Seed:          cfg.Seed,
		Custom:        custom,
		Factions:      factions,
		Density:       cfg.Density,
		DensityParams: cfg.DensityParams,
		Initialized:   g.initialized.Load,
	}

	g.sectors = cache.NewMaster[Sector]("sectors", cache.SectorStrategy{}, sectorSource{g}, jobs, log)
	g.systems = cache.NewMaster[StarSystem]("systems", cache.SystemStrategy{}, systemSource{g}, jobs, log)
	if cfg.JobSize > 0 {
		g.sectors.SetJobSize(cfg.JobSize)
		g.systems.SetJobSize(cfg.JobSize)
	}

	event.Subscribe(bus, g.onSystemExplored)

	log.Info("galaxy created",
		zap.String("generator", gen.String()),
		zap.Uint32("seed", cfg.Seed),
		zap.Int("custom_systems", custom.Count()),
	)
	return g, nil
}

// FinishInit resolves faction homeworlds against generated sectors and
// starts honouring persisted exploration. Anything generated before is
// dropped, since home systems change names and exploration. It returns the
// faction names custom systems referenced but nobody defined.
func (g *Galaxy) FinishInit() []string {
	missing := g.factions.FinishInit(g)
	g.initialized.Store(true)
	g.sectors.ClearCache()
	g.systems.ClearCache()
	return missing
}

// Initialized reports whether FinishInit ran.
func (g *Galaxy) Initialized() bool { return g.initialized.Load() }

func (g *Galaxy) Generator() *Generator          { return g.gen }
func (g *Galaxy) Factions() *Factions            { return g.factions }
func (g *Galaxy) CustomSystems() *CustomSystems  { return g.custom }
func (g *Galaxy) Bus() *event.Bus                { return g.bus }
func (g *Galaxy) Sectors() *cache.Master[Sector] { return g.sectors }

func (g *Galaxy) StarSystems() *cache.Master[StarSystem] { return g.systems }

// GetSector returns the live sector containing p, generating it if needed.
func (g *Galaxy) GetSector(p syspath.Path) *Sector {
	return g.sectors.GetCached(p)
}

// GetStarSystem returns the live system p names. p must name a system of
// its sector; not_found otherwise.
func (g *Galaxy) GetStarSystem(p syspath.Path) (*StarSystem, error) {
	if !p.HasValidSystem() {
		return nil, apperr.NotFoundf("path %s names no system", p)
	}
	if sec := g.sectors.GetCached(p); !sec.Contains(p) {
		return nil, apperr.NotFoundf("sector %s has no system %d", p.SectorOnly(), p.SystemIndex)
	}
	return g.systems.GetCached(p), nil
}

// NewSectorSlave registers a consumer cache of sectors.
func (g *Galaxy) NewSectorSlave() *cache.Slave[Sector] { return g.sectors.NewSlave() }

// NewSystemSlave registers a consumer cache of star systems. Paths given to
// its FillCache must name existing systems.
func (g *Galaxy) NewSystemSlave() *cache.Slave[StarSystem] { return g.systems.NewSlave() }

// SectorDensity is the density value the random sector stage sees.
func (g *Galaxy) SectorDensity(sx, sy, sz int32) int32 {
	return g.env.SectorDensity(sx, sy, sz)
}

// SetExplored updates the live records of p and announces the change. The
// generator records it when the event is dispatched, so later regenerations
// agree with the live objects. Paths that name no system are ignored.
func (g *Galaxy) SetExplored(p syspath.Path, e ExplorationState, when float64) {
	if !p.HasValidSystem() {
		return
	}
	if sec := g.sectors.GetIfCached(p); sec != nil && sec.Contains(p) {
		sec.System(p.SystemIndex).setExplored(e, when)
	}
	if sys := g.systems.GetIfCached(p); sys != nil {
		sys.unexplored = !e.IsExplored()
		sys.exploredTime = when
	}

	date := int32(-1)
	switch e {
	case ExploredAtStart:
		date = 0
	case ExploredByPlayer:
		date = PackDate(when)
	}
	event.Emit(g.bus, event.SystemExplored{Path: p.SystemOnly(), Date: date})
}

func (g *Galaxy) onSystemExplored(ev event.SystemExplored) {
	ps := g.gen.persistence()
	if ps == nil || !ev.Path.HasValidSystem() {
		return
	}
	ps.RecordPacked(ev.Path, ev.Date)
}

// UseGenerator switches to the named pipeline. Asking for the active one
// keeps it and only flushes the caches.
func (g *Galaxy) UseGenerator(name string, version int) error {
	if g.gen.Is(name, version) {
		g.FlushCaches()
		event.Emit(g.bus, event.GeneratorChanged{Name: name, Version: version, Reused: true})
		return nil
	}
	gen, err := NewGenerator(name, version)
	if err != nil {
		return err
	}
	g.swapGenerator(gen)
	event.Emit(g.bus, event.GeneratorChanged{Name: name, Version: version})
	return nil
}

// LoadGeneratorState restores a saved generator. A save naming the active
// pipeline replays its stage state into the live instance. On error the
// active generator is untouched.
func (g *Galaxy) LoadGeneratorState(data []byte) error {
	st, err := parseGeneratorState(data)
	if err != nil {
		return err
	}
	gen := g.gen
	reused := gen.Is(st.Name, st.Version)
	if !reused {
		if gen, err = NewGenerator(st.Name, st.Version); err != nil {
			return err
		}
	}
	if err := gen.applyState(st); err != nil {
		return err
	}
	if reused {
		g.FlushCaches()
	} else {
		g.swapGenerator(gen)
	}
	event.Emit(g.bus, event.GeneratorChanged{Name: st.Name, Version: st.Version, Reused: reused})
	return nil
}

// GeneratorState serializes the active generator.
func (g *Galaxy) GeneratorState() ([]byte, error) {
	data, err := g.gen.MarshalJSON()
	if err != nil {
		return nil, apperr.WrapInternal("marshal generator state", err)
	}
	return data, nil
}

func (g *Galaxy) swapGenerator(gen *Generator) {
	old := g.gen
	g.gen = gen
	g.FlushCaches()
	g.log.Info("galaxy generator changed",
		zap.String("from", old.String()),
		zap.String("to", gen.String()),
	)
}

// FlushCaches empties both masters and all their slaves. Jobs in flight
// finish without publishing.
func (g *Galaxy) FlushCaches() {
	g.sectors.ClearCache()
	g.systems.ClearCache()
}

// ProcessDead drains collected objects from both attics.
func (g *Galaxy) ProcessDead() int {
	return g.sectors.ProcessDead() + g.systems.ProcessDead()
}

// Sweep drops every collected entry from both attics, including ones whose
// cleanup message never made it into the channel.
func (g *Galaxy) Sweep() int {
	return g.sectors.Sweep() + g.systems.Sweep()
}

// LogStatistics writes both masters' counters.
func (g *Galaxy) LogStatistics(reset bool) {
	g.sectors.LogStatistics(reset)
	g.systems.LogStatistics(reset)
}

// Close detaches every slave from both masters.
func (g *Galaxy) Close() {
	g.sectors.Close()
	g.systems.Close()
}

type sectorSource struct{ g *Galaxy }

func (s sectorSource) Generate(key syspath.Path) *Sector {
	return s.g.gen.GenerateSector(&s.g.env, key)
}

func (s sectorSource) Prepare(key syspath.Path) func() *Sector {
	gen, env := s.g.gen, &s.g.env
	return func() *Sector { return gen.GenerateSector(env, key) }
}

type systemSource struct{ g *Galaxy }

func (s systemSource) Generate(key syspath.Path) *StarSystem {
	sec := s.g.sectors.GetCached(key)
	return s.g.gen.GenerateStarSystem(&s.g.env, sec, key)
}

// Prepare resolves the parent sector here, so the worker only reads it.
func (s systemSource) Prepare(key syspath.Path) func() *StarSystem {
	sec := s.g.sectors.GetCached(key)
	gen, env := s.g.gen, &s.g.env
	return func() *StarSystem { return gen.GenerateStarSystem(env, sec, key) }
}
