package scripting

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stellarcache/galaxy/internal/galaxy"
	"github.com/stellarcache/galaxy/internal/syspath"
	"go.uber.org/zap"
)

func testEngine(t *testing.T) (*Engine, *galaxy.CustomSystems, *galaxy.Factions) {
	t.Helper()
	custom := galaxy.NewCustomSystems()
	factions := galaxy.NewFactions(3200, zap.NewNop())
	e := newEngine(custom, factions, zap.NewNop())
	t.Cleanup(e.Close)
	return e, custom, factions
}

const solScript = `
local sol = CustomSystemBody:new('Sol', 'STAR_G')
	:radius(f(1,1))
	:mass(f(1,1))
	:temp(5700)

local earth = CustomSystemBody:new('Earth', 'PLANET_TERRESTRIAL')
	:radius(1)
	:mass(1)
	:temp(288)
	:semi_major_axis(1)
	:eccentricity(f(167,10000))
	:rotation_period(1)
	:atmos_density(1)
	:ocean_cover(f(7,10))
	:ice_cover(f(3,100))
	:life(f(9,10))
	:seed(77)
	:height_map('earth.hmap', 0)

local moon = CustomSystemBody:new('Moon', 'PLANET_TERRESTRIAL')
	:radius(f(273,1000))
	:mass(f(12,1000))
	:semi_major_axis(f(257,100000))
	:orbital_offset(f(1,2))

local port = CustomSystemBody:new('Shanghai', 'STARPORT_SURFACE')
	:latitude(0.54)
	:longitude(-2.11)

local mars = CustomSystemBody:new('Mars', 'PLANET_TERRESTRIAL')
	:semi_major_axis(f(152,100))
	:rings(false)

local s = CustomSystem:new('Sol', { 'STAR_G' })
	:seed(42)
	:explored(true)
	:short_desc('The historical birthplace of humankind')
	:govtype('EARTHDEMOC')
	:faction('Solar Federation')
	:bodies(sol, { earth, { port, moon }, mars })

s:add_to_sector(0, 0, 0, v(0.5, 0.5, 0))
`

func TestCustomSystemScript(t *testing.T) {
	e, custom, _ := testEngine(t)
	if err := e.DoString(solScript); err != nil {
		t.Fatalf("DoString: %v", err)
	}
	if e.SystemsAdded() != 1 {
		t.Fatalf("added %d systems", e.SystemsAdded())
	}

	cs := custom.Find("Sol")
	if cs == nil {
		t.Fatal("Sol not registered")
	}
	if cs.Path() != syspath.System(0, 0, 0, 0) {
		t.Fatalf("path %s", cs.Path())
	}
	if cs.Seed != 42 || !cs.Explored || cs.WantRandExplored || cs.GovType != galaxy.GovEarthDemocracy {
		t.Fatalf("system fields %+v", cs)
	}
	if cs.Pos != galaxy.V(0.5, 0.5, 0) || cs.FactionName != "Solar Federation" {
		t.Fatalf("pos %s faction %q", cs.Pos, cs.FactionName)
	}

	root := cs.Body
	if root == nil || root.Name != "Sol" || len(root.Children) != 2 {
		t.Fatalf("root %+v", root)
	}
	earth, mars := root.Children[0], root.Children[1]
	if earth.Name != "Earth" || mars.Name != "Mars" {
		t.Fatalf("children %q %q", earth.Name, mars.Name)
	}
	if len(earth.Children) != 2 || earth.Children[0].Name != "Shanghai" || earth.Children[1].Name != "Moon" {
		t.Fatalf("earth children %d", len(earth.Children))
	}
	if earth.Seed != 77 || earth.WantRandSeed || earth.Life != 0.9 || earth.AverageTemp != 288 {
		t.Fatalf("earth %+v", earth)
	}
	if moon := earth.Children[1]; moon.WantRandOffset || moon.OrbitalOffset != 0.5 {
		t.Fatalf("moon offset %g rand=%v", moon.OrbitalOffset, moon.WantRandOffset)
	}
	if len(mars.Children) != 0 {
		t.Fatal("mars picked up children")
	}
}

func TestBodyCannotBeUsedTwice(t *testing.T) {
	e, _, _ := testEngine(t)
	err := e.DoString(`
local star = CustomSystemBody:new('A', 'STAR_M')
local rock = CustomSystemBody:new('A b', 'PLANET_ASTEROID')
CustomSystem:new('A', { 'STAR_M' }):bodies(star, { rock })
CustomSystem:new('B', { 'STAR_M' }):bodies(CustomSystemBody:new('B', 'STAR_M'), { rock })
`)
	if err == nil || !strings.Contains(err.Error(), "not an unused body") {
		t.Fatalf("err = %v", err)
	}
}

func TestBodiesMustMatchPrimary(t *testing.T) {
	tests := []struct {
		name   string
		script string
		want   string
	}{
		{
			name:   "planet primary",
			script: `CustomSystem:new('X', { 'STAR_K' }):bodies(CustomSystemBody:new('X', 'PLANET_GAS_GIANT'), {})`,
			want:   "valid star type",
		},
		{
			name:   "wrong star",
			script: `CustomSystem:new('X', { 'STAR_K' }):bodies(CustomSystemBody:new('X', 'STAR_M'), {})`,
			want:   "does not match",
		},
		{
			name:   "bad type",
			script: `CustomSystemBody:new('X', 'STAR_Q')`,
			want:   "valid type",
		},
		{
			name:   "planet as star",
			script: `CustomSystem:new('X', { 'PLANET_TERRESTRIAL' })`,
			want:   "valid star type",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, _, _ := testEngine(t)
			err := e.DoString(tt.script)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("err = %v, want %q", err, tt.want)
			}
		})
	}
}

func TestGravpointEndsStarList(t *testing.T) {
	e, custom, _ := testEngine(t)
	err := e.DoString(`
CustomSystem:new('Alpha Centauri', { 'STAR_G', 'STAR_K', 'GRAVPOINT', 'STAR_M' })
	:add_to_sector(-1, 0, 0, v(0.1, 0.2, 0.3))
`)
	if err != nil {
		t.Fatalf("DoString: %v", err)
	}
	cs := custom.Find("Alpha Centauri")
	if cs == nil || cs.NumStars != 2 || !cs.IsRandom() {
		t.Fatalf("system %+v", cs)
	}
}

const factionScript = `
local f = Faction:new('Solar Federation')
	:description_short('The Federation')
	:homeworld(0, 0, 0, 0, 4)
	:foundingDate(2150)
	:expansionRate(1.2)
	:military_name('Federal Navy')
	:police_ship('kanara')
	:colour(0.4, 0.4, 1)
	:claim(3, 3, 3)
	:claim(5, 5, 5, 1)

f:govtype_weight('EARTHDEMOC', 60)
f:govtype_weight('EARTHCOLONIAL', 40)
f:govtype_weight('NONE', 10)
f:illegal_goods_probability('HAND_WEAPONS', 50)
f:illegal_goods_probability('NARCOTICS', 150)

f:add_to_factions('Solar Federation')
`

func TestFactionScript(t *testing.T) {
	e, _, factions := testEngine(t)
	if err := e.DoString(factionScript); err != nil {
		t.Fatalf("DoString: %v", err)
	}
	f := factions.Find("Solar Federation")
	if f == nil || e.FactionsAdded() != 1 {
		t.Fatal("faction not registered")
	}
	if !f.HasHomeworld || f.Homeworld != syspath.System(0, 0, 0, 0) {
		t.Fatalf("homeworld %s", f.Homeworld)
	}
	if f.FoundingDate != 2150 || f.ExpansionRate != 1.2 || f.MilitaryName != "Federal Navy" || f.PoliceShip != "kanara" {
		t.Fatalf("fields %+v", f)
	}
	if f.Colour != (galaxy.Colour{R: 0.4, G: 0.4, B: 1}) {
		t.Fatalf("colour %+v", f.Colour)
	}
	// NONE is outside the random range and the narcotics odds are above 100
	if len(f.GovWeights) != 2 {
		t.Fatalf("gov weights %+v", f.GovWeights)
	}
	if len(f.IllegalGoods) != 1 || f.IllegalGoods[galaxy.HandWeapons] != 50 {
		t.Fatalf("illegal goods %v", f.IllegalGoods)
	}
	if !f.IsClaimed(syspath.System(3, 3, 3, 9)) || !f.IsClaimed(syspath.System(5, 5, 5, 1)) || f.IsClaimed(syspath.System(5, 5, 5, 0)) {
		t.Fatalf("claims %v", f.Claims())
	}
}

func TestFactionAddedTwice(t *testing.T) {
	e, _, _ := testEngine(t)
	err := e.DoString(`
local f = Faction:new('Twice')
f:add_to_factions('Twice')
f:add_to_factions('Twice')
`)
	if err == nil || !strings.Contains(err.Error(), "already added") {
		t.Fatalf("err = %v", err)
	}
}

func TestNewEngineLoadsDirectories(t *testing.T) {
	dir := t.TempDir()
	for sub, src := range map[string]string{
		"systems":  solScript,
		"factions": factionScript,
	} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(filepath.Join(dir, sub, "00_"+sub+".lua"), []byte(src), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	// not a script
	if err := os.WriteFile(filepath.Join(dir, "systems", "README.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	custom := galaxy.NewCustomSystems()
	factions := galaxy.NewFactions(3200, zap.NewNop())
	e, err := NewEngine(dir, custom, factions, zap.NewNop())
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	defer e.Close()

	sol := custom.Find("Sol")
	if sol == nil || sol.Faction == nil || sol.Faction.Name != "Solar Federation" {
		t.Fatal("faction defined after the system was not linked")
	}
}

func TestNewEngineReportsScriptErrors(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "factions"), 0o755); err != nil {
		t.Fatal(err)
	}
	bad := filepath.Join(dir, "factions", "broken.lua")
	if err := os.WriteFile(bad, []byte("Faction:new("), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := NewEngine(dir, galaxy.NewCustomSystems(), galaxy.NewFactions(3200, zap.NewNop()), zap.NewNop())
	if err == nil || !strings.Contains(err.Error(), "broken.lua") {
		t.Fatalf("err = %v", err)
	}

	// missing directories are fine
	e, err := NewEngine(filepath.Join(dir, "nope"), galaxy.NewCustomSystems(), galaxy.NewFactions(3200, zap.NewNop()), zap.NewNop())
	if err != nil {
		t.Fatalf("NewEngine on missing dir: %v", err)
	}
	e.Close()
}
