package galaxy

import (
	"testing"

	"github.com/stellarcache/galaxy/internal/random"
	"github.com/stellarcache/galaxy/internal/syspath"
	"go.uber.org/zap"
)

type mapSectors struct {
	gen *Generator
	env *Env
}

func (m mapSectors) GetSector(p syspath.Path) *Sector { return m.gen.GenerateSector(m.env, p) }

func TestFactionRadiusMonotonic(t *testing.T) {
	f := NewFaction("Commonwealth")
	f.FoundingDate = 2800
	f.ExpansionRate = 0.5
	prev := f.Radius(2700)
	if prev >= 0 {
		t.Fatalf("radius before founding = %g, want negative", prev)
	}
	for year := 2700.0; year <= 3500; year += 25 {
		r := f.Radius(year)
		if r < prev {
			t.Fatalf("radius shrank from %g to %g at %g", prev, r, year)
		}
		prev = r
	}
	if got := f.Radius(3000); got != 100 {
		t.Fatalf("radius in 3000 = %g, want 100", got)
	}
}

func TestPickGovernmentType(t *testing.T) {
	f := NewFaction("Empire")
	if got := f.PickGovernmentType(random.New(1)); got != GovInvalid {
		t.Fatalf("no weights gave %s", got)
	}

	f.AddGovWeight(GovEmpireRule, 80)
	f.AddGovWeight(GovEmpireMilitaryDictatorship, 20)
	f.AddGovWeight(GovCommunist, 0)
	counts := make(map[GovType]int)
	rng := random.New(7, 7, 7)
	for i := 0; i < 10000; i++ {
		counts[f.PickGovernmentType(rng)]++
	}
	if counts[GovCommunist] != 0 {
		t.Fatal("zero weight government was picked")
	}
	if n := counts[GovEmpireRule]; n < 7500 || n > 8500 {
		t.Fatalf("empire rule picked %d/10000, want about 8000", n)
	}
	if counts[GovEmpireRule]+counts[GovEmpireMilitaryDictatorship] != 10000 {
		t.Fatalf("unexpected picks %v", counts)
	}
}

func TestPendingFactionResolution(t *testing.T) {
	fs := NewFactions(3200, zap.NewNop())
	a := NewCustomSystem("Achernar", TypeStarB)
	a.FactionName = "Solar Federation"
	b := NewCustomSystem("Ross 128", TypeStarM)
	b.FactionName = "Nobody Here"
	fs.RegisterCustomSystem(a)
	fs.RegisterCustomSystem(b)
	if a.Faction != nil {
		t.Fatal("resolved before the faction existed")
	}

	fed := NewFaction("Solar Federation")
	if err := fs.AddFaction(fed); err != nil {
		t.Fatalf("AddFaction: %v", err)
	}
	if a.Faction != fed {
		t.Fatal("pending system not resolved on AddFaction")
	}

	gen := mustGenerator(t, "legacy", 1)
	missing := fs.FinishInit(mapSectors{gen, testEnv(t, 1)})
	if len(missing) != 1 || missing[0] != "Nobody Here" {
		t.Fatalf("missing = %v", missing)
	}
	if b.Faction != nil {
		t.Fatal("unknown faction resolved")
	}
	if err := fs.AddFaction(NewFaction("Late")); err == nil {
		t.Fatal("AddFaction after FinishInit should fail")
	}
}

func TestAddFactionRejectsDuplicates(t *testing.T) {
	fs := NewFactions(3200, zap.NewNop())
	if err := fs.AddFaction(NewFaction("Guild")); err != nil {
		t.Fatalf("AddFaction: %v", err)
	}
	if err := fs.AddFaction(NewFaction("Guild")); err == nil {
		t.Fatal("duplicate name accepted")
	}
	if err := fs.AddFaction(NewFaction("")); err == nil {
		t.Fatal("empty name accepted")
	}
	f := NewFaction("Shrinking")
	f.ExpansionRate = -1
	if err := fs.AddFaction(f); err == nil {
		t.Fatal("negative expansion accepted")
	}
	if fs.Find("Guild").Idx != 0 || fs.Get(0).Name != "Guild" {
		t.Fatal("index lookup broken")
	}
}

func TestNearestClaimant(t *testing.T) {
	fs := NewFactions(3200, zap.NewNop())
	gen := mustGenerator(t, "legacy", 1)
	env := testEnv(t, 5)
	env.Factions = fs
	sectors := mapSectors{gen, env}

	near := NewFaction("Near")
	near.SetHomeworld(syspath.System(10, 10, 0, 0))
	near.FoundingDate = 3000
	near.ExpansionRate = 2 // 400ly in 3200
	far := NewFaction("Far")
	far.SetHomeworld(syspath.System(30, 10, 0, 0))
	far.FoundingDate = 3000
	far.ExpansionRate = 2
	young := NewFaction("Young")
	young.SetHomeworld(syspath.System(12, 10, 0, 0))
	young.FoundingDate = 3300
	young.ExpansionRate = 100
	claimer := NewFaction("Claimer")
	claimer.Claim(syspath.Sector(25, 10, 0))
	for _, f := range []*Faction{near, far, young, claimer} {
		if err := fs.AddFaction(f); err != nil {
			t.Fatalf("AddFaction: %v", err)
		}
	}
	fs.FinishInit(sectors)
	env.Initialized = func() bool { return true }

	home := gen.GenerateSector(env, syspath.Sector(10, 10, 0)).System(0)
	if got := fs.GetNearestClaimant(home); got != near {
		t.Fatalf("homeworld sector owned by %q", got.Name)
	}
	between := gen.GenerateSector(env, syspath.Sector(14, 10, 0)).System(0)
	if got := fs.GetNearestClaimant(between); got != near {
		t.Fatalf("system near Near owned by %q", got.Name)
	}
	claimed := gen.GenerateSector(env, syspath.Sector(25, 10, 0)).System(0)
	if got := fs.GetNearestClaimant(claimed); got != claimer {
		t.Fatalf("claimed sector owned by %q", got.Name)
	}
	// homeless factions are everywhere but lose every comparison
	outside := gen.GenerateSector(env, syspath.Sector(200, 10, 0)).System(0)
	if got := fs.GetNearestClaimant(outside); got != claimer {
		t.Fatalf("system outside every sphere owned by %q, want the homeless faction", got.Name)
	}
	if !fs.IsHomeSystem(near.Homeworld) {
		t.Fatal("homeworld not registered as home system")
	}
}

func TestNoFactionWhenNothingMatches(t *testing.T) {
	fs := NewFactions(3200, zap.NewNop())
	gen := mustGenerator(t, "legacy", 1)
	env := testEnv(t, 5)
	env.Factions = fs
	f := NewFaction("Tiny")
	f.SetHomeworld(syspath.System(10, 0, 0, 0))
	f.FoundingDate = 3199
	f.ExpansionRate = 1
	if err := fs.AddFaction(f); err != nil {
		t.Fatalf("AddFaction: %v", err)
	}
	fs.FinishInit(mapSectors{gen, env})
	sys := gen.GenerateSector(env, syspath.Sector(-50, 0, 0)).System(0)
	if got := fs.GetNearestFaction(sys); got != fs.NoFaction() {
		t.Fatalf("got %q, want no faction", got.Name)
	}
}

func TestOctsaplingFilesByOctant(t *testing.T) {
	var o Octsapling
	small := NewFaction("Small")
	small.HasHomeworld = true
	small.homeSector = newSector(syspath.Sector(10, 10, 10))
	small.homePos = V(84, 84, 84)
	small.FoundingDate = 3190
	small.ExpansionRate = 1

	big := NewFaction("Big")
	big.HasHomeworld = true
	big.homeSector = newSector(syspath.Sector(1, 1, 1))
	big.homePos = V(12, 12, 12)
	big.FoundingDate = 3000
	big.ExpansionRate = 1

	homeless := NewFaction("Homeless")

	o.Add(small, 3200)
	o.Add(big, 3200)
	o.Add(homeless, 3200)

	pos := o.Candidates(syspath.Sector(3, 3, 3))
	if len(pos) != 3 || pos[0] != small || pos[1] != big || pos[2] != homeless {
		t.Fatalf("positive octant = %v", names(pos))
	}
	neg := o.Candidates(syspath.Sector(-3, -3, -3))
	if len(neg) != 2 || neg[0] != big || neg[1] != homeless {
		t.Fatalf("negative octant = %v", names(neg))
	}
	mixed := o.Candidates(syspath.Sector(-1, 5, 5))
	if len(mixed) != 2 || mixed[0] != big {
		t.Fatalf("mixed octant = %v", names(mixed))
	}

	o.Clear()
	if len(o.Candidates(syspath.Sector(3, 3, 3))) != 0 {
		t.Fatal("Clear left candidates")
	}
}

func names(fs []*Faction) []string {
	out := make([]string, len(fs))
	for i, f := range fs {
		out[i] = f.Name
	}
	return out
}
