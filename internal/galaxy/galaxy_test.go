package galaxy

import (
	"context"
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stellarcache/galaxy/internal/apperr"
	"github.com/stellarcache/galaxy/internal/core/event"
	"github.com/stellarcache/galaxy/internal/core/job"
	"github.com/stellarcache/galaxy/internal/syspath"
	"go.uber.org/zap"
)

func uniformDensity(t *testing.T) *DensityMap {
	t.Helper()
	d, err := NewDensityMap(1, 1, []byte{255})
	if err != nil {
		t.Fatalf("NewDensityMap: %v", err)
	}
	return d
}

func newSol() *CustomSystem {
	sol := NewCustomSystemBody("Sol", TypeStarG)
	sol.Radius = 1
	sol.Mass = 1
	sol.AverageTemp = 5700

	earth := NewCustomSystemBody("Earth", TypePlanetTerrestrial)
	earth.Radius = 1
	earth.Mass = 1
	earth.AverageTemp = 288
	earth.SemiMajorAxis = 1
	earth.Eccentricity = 0.0167
	earth.Metallicity = 0.5
	earth.AtmosDensity = 1
	earth.OceanCover = 0.7
	earth.IceCover = 0.3
	earth.Life = 0.95
	sol.Children = append(sol.Children, earth)

	cs := NewCustomSystem("Sol", TypeStarG)
	cs.SetBodies(sol)
	cs.WantRandExplored = false
	cs.Explored = true
	cs.FactionName = "Federation"
	cs.GovType = GovEarthDemocracy
	return cs
}

func newFederation() *Faction {
	f := NewFaction("Federation")
	f.SetHomeworld(syspath.System(0, 0, 0, 0))
	f.FoundingDate = 2150
	f.ExpansionRate = 1
	f.AddGovWeight(GovEarthDemocracy, 60)
	f.AddGovWeight(GovEarthColonial, 40)
	return f
}

type testGalaxy struct {
	*Galaxy
	jobs *job.Queue
	sol  *CustomSystem
	fed  *Faction
}

func newTestGalaxy(t *testing.T, seed uint32, version int) *testGalaxy {
	t.Helper()
	log := zap.NewNop()
	jobs := job.NewQueue(context.Background(), 4, log)
	t.Cleanup(func() { jobs.Close() })

	custom := NewCustomSystems()
	sol := newSol()
	if _, err := custom.Add(sol, 0, 0, 0); err != nil {
		t.Fatalf("add Sol: %v", err)
	}
	factions := NewFactions(3200, log)
	factions.RegisterCustomSystem(sol)
	fed := newFederation()
	if err := factions.AddFaction(fed); err != nil {
		t.Fatalf("AddFaction: %v", err)
	}

	cfg := Config{
		Seed:             seed,
		Density:          uniformDensity(t),
		DensityParams:    DefaultDensityParams,
		GeneratorName:    DefaultGeneratorName,
		GeneratorVersion: version,
	}
	g, err := New(cfg, custom, factions, jobs, event.NewBus(), log)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if missing := g.FinishInit(); len(missing) != 0 {
		t.Fatalf("unresolved factions %v", missing)
	}
	return &testGalaxy{Galaxy: g, jobs: jobs, sol: sol, fed: fed}
}

func (tg *testGalaxy) flush(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := tg.jobs.Flush(ctx); err != nil {
		t.Fatalf("Flush: %v", err)
	}
}

func (tg *testGalaxy) dispatch() {
	tg.bus.SwapBuffers()
	tg.bus.DispatchAll()
}

func TestOriginSectorReproducibleAfterFlush(t *testing.T) {
	g := newTestGalaxy(t, 1337, 1)
	origin := syspath.Sector(0, 0, 0)

	first := g.GetSector(origin)
	if first.Len() == 0 {
		t.Fatal("origin sector is empty")
	}
	var seeds []uint32
	for _, sys := range first.Systems {
		seeds = append(seeds, sys.Seed)
	}

	g.FlushCaches()
	second := g.GetSector(origin)
	if second == first {
		t.Fatal("flush kept the old sector instance")
	}
	if second.Len() != len(seeds) {
		t.Fatalf("systems after flush = %d, want %d", second.Len(), len(seeds))
	}
	for i, sys := range second.Systems {
		if sys.Seed != seeds[i] {
			t.Errorf("system %d seed = %08x, want %08x", i, sys.Seed, seeds[i])
		}
	}
}

func TestCustomFactionWinsOverSpatialLookup(t *testing.T) {
	g := newTestGalaxy(t, 1337, 1)
	sec := g.GetSector(syspath.Sector(0, 0, 0))
	sys := sec.System(0)
	if sys.Custom != g.sol {
		t.Fatalf("system 0 of the origin is %q, want Sol", sys.Name)
	}
	if got := g.Factions().GetNearestFaction(sys); got != g.fed {
		t.Fatalf("GetNearestFaction = %q, want Federation", got.Name)
	}
	if got := sys.Faction(g.Factions()); got != g.fed {
		t.Fatalf("memoized faction = %q, want Federation", got.Name)
	}
}

func TestAuthoredFactionBeatsNearerHomeworld(t *testing.T) {
	log := zap.NewNop()
	jobs := job.NewQueue(context.Background(), 2, log)
	t.Cleanup(func() { jobs.Close() })

	custom := NewCustomSystems()
	sol := newSol()
	sol.FactionName = "Exiles"
	if _, err := custom.Add(sol, 0, 0, 0); err != nil {
		t.Fatalf("add Sol: %v", err)
	}
	factions := NewFactions(3200, log)
	factions.RegisterCustomSystem(sol)

	// homed on Sol itself, so the spatial lookup would pick it at distance 0
	locals := NewFaction("Locals")
	locals.SetHomeworld(syspath.System(0, 0, 0, 0))
	locals.FoundingDate = 2000
	locals.ExpansionRate = 1
	exiles := NewFaction("Exiles")
	exiles.FoundingDate = 3000
	for _, f := range []*Faction{locals, exiles} {
		if err := factions.AddFaction(f); err != nil {
			t.Fatalf("AddFaction: %v", err)
		}
	}

	cfg := DefaultConfig()
	cfg.Seed = 1337
	cfg.Density = uniformDensity(t)
	g, err := New(cfg, custom, factions, jobs, event.NewBus(), log)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(g.Close)
	if missing := g.FinishInit(); len(missing) != 0 {
		t.Fatalf("unresolved factions %v", missing)
	}

	sys := g.GetSector(syspath.Sector(0, 0, 0)).System(0)
	if sys.Custom != sol {
		t.Fatalf("system 0 of the origin is %q, want Sol", sys.Name)
	}
	if got := factions.GetNearestFaction(sys); got != exiles {
		t.Fatalf("GetNearestFaction = %q, want Exiles", got.Name)
	}
	if got := sys.Faction(factions); got != exiles {
		t.Fatalf("memoized faction = %q, want Exiles", got.Name)
	}
}

func TestSolStarSystem(t *testing.T) {
	g := newTestGalaxy(t, 1337, 1)
	sys, err := g.GetStarSystem(syspath.System(0, 0, 0, 0))
	if err != nil {
		t.Fatalf("GetStarSystem: %v", err)
	}
	if !sys.HasCustomBodies() || !sys.IsCustom() {
		t.Fatal("Sol should be fully custom")
	}
	if sys.Root().Name != "Sol" || len(sys.Stars()) != 1 {
		t.Fatalf("root = %q, stars = %d", sys.Root().Name, len(sys.Stars()))
	}
	earth := sys.Body(syspath.Body(0, 0, 0, 0, 1))
	if earth == nil || earth.Name != "Earth" {
		t.Fatalf("body 1 = %+v, want Earth", earth)
	}
	if earth.Population <= 0 || sys.TotalPop() <= 0 {
		t.Fatalf("Earth population = %g, system = %g", earth.Population, sys.TotalPop())
	}
	if sys.Polit().GovType != GovEarthDemocracy {
		t.Fatalf("government = %s", sys.Polit().GovType)
	}
	if pop, ok := sys.Sector().System(0).Population(); !ok || pop != sys.TotalPop() {
		t.Fatalf("sector record population = %g,%v", pop, ok)
	}
	if sys.Unexplored() {
		t.Fatal("Sol is authored as explored")
	}
}

func TestGetStarSystemMissingIndex(t *testing.T) {
	g := newTestGalaxy(t, 1337, 1)
	_, err := g.GetStarSystem(syspath.System(0, 0, 0, 99))
	if !apperr.Is(err, apperr.ErrorTypeNotFound) {
		t.Fatalf("err = %v, want not_found", err)
	}
	_, err = g.GetStarSystem(syspath.Sector(0, 0, 0))
	if !apperr.Is(err, apperr.ErrorTypeNotFound) {
		t.Fatalf("err = %v, want not_found", err)
	}
}

func TestSetExploredSurvivesRegeneration(t *testing.T) {
	g := newTestGalaxy(t, 1337, 1)
	p := syspath.System(10, 0, 0, 0)
	sec := g.GetSector(p)
	if !sec.Contains(p) {
		t.Fatalf("sector %s is empty", p.SectorOnly())
	}

	when := GameTime(time.Date(3201, time.May, 17, 12, 0, 0, 0, time.UTC))
	g.SetExplored(p, ExploredByPlayer, when)
	if sec.System(0).Explored() != ExploredByPlayer {
		t.Fatal("live sector record not updated")
	}
	if g.bus.Pending() != 1 {
		t.Fatalf("pending events = %d, want 1", g.bus.Pending())
	}
	g.dispatch()
	if n := g.gen.persistence().Len(); n != 1 {
		t.Fatalf("recorded = %d, want 1", n)
	}

	g.FlushCaches()
	again := g.GetSector(p)
	if again == sec {
		t.Fatal("flush kept the old sector instance")
	}
	rec := again.System(0)
	if rec.Explored() != ExploredByPlayer {
		t.Fatalf("regenerated state = %s", rec.Explored())
	}
	if want := UnpackDate(PackDate(when)); rec.ExploredTime() != want {
		t.Fatalf("explored time = %g, want %g", rec.ExploredTime(), want)
	}
}

func TestSetExploredIgnoresSectorPath(t *testing.T) {
	g := newTestGalaxy(t, 1337, 1)
	p := syspath.Sector(10, 0, 0)
	sec := g.GetSector(p)
	if sec.Len() == 0 {
		t.Fatalf("sector %s is empty", p)
	}
	before := sec.System(0).Explored()

	g.SetExplored(p, ExploredByPlayer, GameTime(time.Date(3201, time.May, 17, 0, 0, 0, 0, time.UTC)))
	if g.bus.Pending() != 0 {
		t.Fatalf("pending events = %d, want 0", g.bus.Pending())
	}
	if sec.System(0).Explored() != before {
		t.Fatal("sector path changed the first system")
	}
}

func TestRecordedUnexploredOverridesStartingChart(t *testing.T) {
	g := newTestGalaxy(t, 1337, 1)
	// well inside the charted core, so the roll always says ExploredAtStart
	p := syspath.System(10, 0, 0, 0)
	sec := g.GetSector(p)
	if !sec.Contains(p) {
		t.Fatalf("sector %s is empty", p.SectorOnly())
	}
	if sec.System(0).Explored() != ExploredAtStart {
		t.Fatalf("starting state = %s", sec.System(0).Explored())
	}

	g.SetExplored(p, Unexplored, 0)
	g.dispatch()
	g.FlushCaches()
	if got := g.GetSector(p).System(0).Explored(); got != Unexplored {
		t.Fatalf("regenerated state = %s, want the recorded Unexplored", got)
	}
}

func TestVersionZeroIgnoresExploration(t *testing.T) {
	g := newTestGalaxy(t, 1337, 1)
	p := syspath.System(10, 0, 0, 0)
	g.GetSector(p)
	g.SetExplored(p, Unexplored, 0)
	g.dispatch()

	state, err := g.GeneratorState()
	if err != nil {
		t.Fatalf("GeneratorState: %v", err)
	}
	var st generatorState
	if err := json.Unmarshal(state, &st); err != nil {
		t.Fatalf("state is not JSON: %v", err)
	}
	st.Version = 0
	old, _ := json.Marshal(st)
	if err := g.LoadGeneratorState(old); err != nil {
		t.Fatalf("LoadGeneratorState v0: %v", err)
	}
	if g.gen.Version() != 0 {
		t.Fatalf("active generator = %s", g.gen)
	}
	if n := g.gen.persistence().Len(); n != 0 {
		t.Fatalf("v0 loaded %d exploration records", n)
	}
	if g.GetSector(p).System(0).Explored() == Unexplored {
		t.Fatal("v0 applied a saved exploration record")
	}
}

func TestUseGenerator(t *testing.T) {
	g := newTestGalaxy(t, 1337, 1)
	active := g.gen
	sec := g.GetSector(syspath.Sector(10, 0, 0))

	if err := g.UseGenerator(DefaultGeneratorName, 1); err != nil {
		t.Fatalf("UseGenerator same: %v", err)
	}
	if g.gen != active {
		t.Fatal("same name and version built a new generator")
	}
	if g.sectors.GetIfCached(sec.Path()) != nil {
		t.Fatal("reuse did not flush the caches")
	}

	if err := g.UseGenerator(DefaultGeneratorName, 0); err != nil {
		t.Fatalf("UseGenerator v0: %v", err)
	}
	if g.gen == active || g.gen.Version() != 0 {
		t.Fatalf("generator = %s", g.gen)
	}

	err := g.UseGenerator("spiral", 3)
	if !apperr.Is(err, apperr.ErrorTypeWrongVersion) {
		t.Fatalf("err = %v, want wrong_version", err)
	}
	if g.gen.Version() != 0 {
		t.Fatal("failed switch changed the generator")
	}

	g.dispatch()
}

func TestLoadGeneratorStateRoundTrip(t *testing.T) {
	g := newTestGalaxy(t, 1337, 1)
	for i := uint32(0); i < 3; i++ {
		p := syspath.System(10, int32(i), 0, 0)
		g.GetSector(p)
		g.SetExplored(p, ExploredByPlayer, GameTime(time.Date(3202, time.March, int(i)+1, 0, 0, 0, 0, time.UTC)))
	}
	g.dispatch()
	saved, err := g.GeneratorState()
	if err != nil {
		t.Fatalf("GeneratorState: %v", err)
	}

	h := newTestGalaxy(t, 1337, 1)
	if err := h.LoadGeneratorState(saved); err != nil {
		t.Fatalf("LoadGeneratorState: %v", err)
	}
	if n := h.gen.persistence().Len(); n != 3 {
		t.Fatalf("restored %d records, want 3", n)
	}
	for i := int32(0); i < 3; i++ {
		rec := h.GetSector(syspath.Sector(10, i, 0)).System(0)
		if rec.Explored() != ExploredByPlayer {
			t.Errorf("system in 10,%d,0 = %s", i, rec.Explored())
		}
	}
}

func TestLoadGeneratorStateRefusesBadSaves(t *testing.T) {
	g := newTestGalaxy(t, 1337, 1)
	active := g.gen

	tests := []struct {
		name string
		data string
		want apperr.ErrorType
	}{
		{"not json", `{"name":`, apperr.ErrorTypeCorruptSave},
		{"no name", `{"version":1}`, apperr.ErrorTypeCorruptSave},
		{"unknown name", `{"name":"spiral","version":1,"sector_stage":[],"star_system_stage":[]}`, apperr.ErrorTypeWrongVersion},
		{"unknown version", `{"name":"legacy","version":7,"sector_stage":[],"star_system_stage":[]}`, apperr.ErrorTypeWrongVersion},
		{"short sector stages", `{"name":"legacy","version":1,"sector_stage":[null],"star_system_stage":[null,null,null,null]}`, apperr.ErrorTypeCorruptSave},
		{"short system stages", `{"name":"legacy","version":1,"sector_stage":[null,null,null],"star_system_stage":[]}`, apperr.ErrorTypeCorruptSave},
		{"bad stage state", `{"name":"legacy","version":1,"sector_stage":[null,null,{"explored_systems":5}],"star_system_stage":[null,null,null,null]}`, apperr.ErrorTypeCorruptSave},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := g.LoadGeneratorState([]byte(tt.data))
			if got := apperr.GetType(err); got != tt.want {
				t.Fatalf("type = %s (%v), want %s", got, err, tt.want)
			}
			if !apperr.Refusable(err) {
				t.Fatalf("%v should be refusable", err)
			}
			if g.gen != active {
				t.Fatal("a refused save replaced the generator")
			}
		})
	}
}

func TestSystemSlaveFillsWholeSector(t *testing.T) {
	g := newTestGalaxy(t, 1337, 1)
	sec := g.GetSector(syspath.Sector(-7, 3, 1))
	if sec.Len() == 0 {
		t.Fatal("sector is empty")
	}
	paths := make([]syspath.Path, sec.Len())
	for i := range paths {
		paths[i] = sec.Path().WithSystem(uint32(i))
	}

	slave := g.NewSystemSlave()
	defer slave.Close()
	done := false
	slave.FillCache(paths, func() { done = true })
	g.flush(t)

	if !done {
		t.Fatal("onComplete did not run")
	}
	if slave.Len() != len(paths) {
		t.Fatalf("slave holds %d systems, want %d", slave.Len(), len(paths))
	}
	for _, p := range paths {
		sys := slave.GetIfCached(p)
		if sys == nil {
			t.Fatalf("%s missing", p)
		}
		if sys.Sector() != sec {
			t.Fatalf("%s built against another sector instance", p)
		}
		if sys.Name() != sec.System(p.SystemIndex).Name {
			t.Fatalf("%s name = %q, sector says %q", p, sys.Name(), sec.System(p.SystemIndex).Name)
		}
	}
}

func TestSectorDensityFallsOffFromPlane(t *testing.T) {
	g := newTestGalaxy(t, 1337, 1)
	if d := g.SectorDensity(0, 0, 0); d != 127 {
		t.Fatalf("density in plane = %d, want 127", d)
	}
	if d := g.SectorDensity(0, 0, 128); d != 63 {
		t.Fatalf("density at z=128 = %d, want 63", d)
	}
	if d := g.SectorDensity(0, 0, -300); d != 0 {
		t.Fatalf("density far off plane = %d, want 0", d)
	}
	if math.Abs(float64(g.SectorDensity(0, 0, 5)-g.SectorDensity(0, 0, -5))) != 0 {
		t.Fatal("fall-off is not symmetric")
	}
}
