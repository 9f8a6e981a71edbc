package data

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stellarcache/galaxy/internal/galaxy"
	"github.com/stellarcache/galaxy/internal/syspath"
	"go.uber.org/zap"
)

// repoFile resolves a path relative to the module root.
func repoFile(t *testing.T, rel string) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("no caller")
	}
	return filepath.Join(filepath.Dir(file), "..", "..", rel)
}

func writeYAML(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "table.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadShippedTables(t *testing.T) {
	custom := galaxy.NewCustomSystems()
	factions := galaxy.NewFactions(3200, zap.NewNop())

	n, err := LoadCustomSystems(repoFile(t, "data/yaml/custom_systems.yaml"), custom, factions)
	if err != nil {
		t.Fatalf("LoadCustomSystems: %v", err)
	}
	if n == 0 || custom.Count() != n {
		t.Fatalf("loaded %d, registry holds %d", n, custom.Count())
	}
	m, err := LoadFactions(repoFile(t, "data/yaml/factions.yaml"), factions)
	if err != nil {
		t.Fatalf("LoadFactions: %v", err)
	}
	if m == 0 || factions.Count() != m {
		t.Fatalf("loaded %d factions, registry holds %d", m, factions.Count())
	}

	sol := custom.Find("Sol")
	if sol == nil || sol.Path() != syspath.System(0, 0, 0, 0) {
		t.Fatal("Sol missing from the origin sector")
	}
	if sol.Faction == nil || sol.Faction.Name != "Solar Federation" {
		t.Fatal("Sol not linked to its faction")
	}
	if sol.IsRandom() || sol.CountStars() != 1 {
		t.Fatal("Sol should carry an authored body tree")
	}
	for _, cs := range []string{"Barnard's Star", "Alpha Centauri", "Epsilon Eridani"} {
		if s := custom.Find(cs); s == nil || s.Faction == nil {
			t.Errorf("%s missing or unlinked", cs)
		}
	}
}

func TestLoadCustomSystemTree(t *testing.T) {
	path := writeYAML(t, `
- name: Tiny
  sector: [2, -1, 0]
  pos: [0.25, 0.5, 0.75]
  stars: [STAR_K, GRAVPOINT, STAR_M]
  seed: 99
  govtype: CORPORATE
  bodies:
    name: Tiny
    type: STAR_K
    children:
      - name: Tiny a
        type: PLANET_TERRESTRIAL
        semi_major_axis: 0.4
        orbital_offset: 0.5
        children:
          - name: Tiny a Port
            type: STARPORT_ORBITAL
`)
	custom := galaxy.NewCustomSystems()
	if _, err := LoadCustomSystems(path, custom, galaxy.NewFactions(3200, zap.NewNop())); err != nil {
		t.Fatalf("LoadCustomSystems: %v", err)
	}
	cs := custom.Find("Tiny")
	if cs == nil {
		t.Fatal("Tiny not loaded")
	}
	if cs.NumStars != 1 || cs.Seed != 99 || cs.GovType != galaxy.GovCorporate || !cs.WantRandExplored {
		t.Fatalf("system %+v", cs)
	}
	if cs.Path() != syspath.System(2, -1, 0, 0) || cs.Pos != galaxy.V(0.25, 0.5, 0.75) {
		t.Fatalf("placed at %s %s", cs.Path(), cs.Pos)
	}
	planet := cs.Body.Children[0]
	if planet.WantRandOffset || planet.OrbitalOffset != 0.5 || !planet.WantRandSeed {
		t.Fatalf("planet %+v", planet)
	}
	if len(planet.Children) != 1 || planet.Children[0].Type != galaxy.TypeStarportOrbital {
		t.Fatal("station not nested under its planet")
	}
}

func TestLoadCustomSystemErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"no stars", "- name: A\n  sector: [5, 5, 5]\n", "no stars"},
		{"planet star", "- name: A\n  stars: [PLANET_GAS_GIANT]\n", "not a star"},
		{"bad govtype", "- name: A\n  stars: [STAR_M]\n  govtype: ANARCHY\n", "government"},
		{"primary mismatch", "- name: A\n  stars: [STAR_M]\n  bodies: {name: A, type: STAR_G}\n", "does not match"},
		{"bad body", "- name: A\n  stars: [STAR_M]\n  bodies: {name: A, type: STAR_M, children: [{name: b, type: MOON}]}\n", "unknown body type"},
		{"star count", "- name: A\n  stars: [STAR_M, STAR_M]\n  bodies: {name: A, type: STAR_M}\n", "declared 2"},
		{"syntax", "- name: [\n", "parse"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadCustomSystems(writeYAML(t, tt.body), galaxy.NewCustomSystems(), galaxy.NewFactions(3200, zap.NewNop()))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("err = %v, want %q", err, tt.want)
			}
		})
	}
}

func TestLoadFactionFields(t *testing.T) {
	path := writeYAML(t, `
- name: Guild
  homeworld: [4, 4, 4, 1]
  founding_date: 3000
  expansion_rate: 0.5
  colour: [1, 0.5, 0]
  govtypes:
    - {type: CORPORATE, weight: 3}
    - {type: LIBDEM, weight: 1}
  illegal_goods:
    SLAVES: 75
  claims:
    - [9, 9, 9]
    - [8, 8, 8, 2]
`)
	factions := galaxy.NewFactions(3200, zap.NewNop())
	if _, err := LoadFactions(path, factions); err != nil {
		t.Fatalf("LoadFactions: %v", err)
	}
	f := factions.Find("Guild")
	if f == nil {
		t.Fatal("Guild not loaded")
	}
	if !f.HasHomeworld || f.Homeworld != syspath.System(4, 4, 4, 1) || f.Radius(3200) != 100 {
		t.Fatalf("homeworld %s radius %g", f.Homeworld, f.Radius(3200))
	}
	if len(f.GovWeights) != 2 || f.GovWeights[0].Type != galaxy.GovCorporate || f.GovWeights[0].Weight != 3 {
		t.Fatalf("weights %+v", f.GovWeights)
	}
	if f.IllegalGoods[galaxy.Slaves] != 75 {
		t.Fatalf("illegal goods %v", f.IllegalGoods)
	}
	if !f.IsClaimed(syspath.System(9, 9, 9, 5)) || !f.IsClaimed(syspath.System(8, 8, 8, 2)) || f.IsClaimed(syspath.System(8, 8, 8, 0)) {
		t.Fatalf("claims %v", f.Claims())
	}
}

func TestLoadFactionErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"homeworld without system", "- name: A\n  homeworld: [1, 2, 3]\n"},
		{"unpickable govtype", "- name: A\n  govtypes: [{type: NONE, weight: 1}]\n"},
		{"unknown commodity", "- name: A\n  illegal_goods: {SPICE: 10}\n"},
		{"probability", "- name: A\n  illegal_goods: {SLAVES: 101}\n"},
		{"claim shape", "- name: A\n  claims: [[1, 2]]\n"},
		{"duplicate", "- name: A\n- name: A\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadFactions(writeYAML(t, tt.body), galaxy.NewFactions(3200, zap.NewNop())); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}
