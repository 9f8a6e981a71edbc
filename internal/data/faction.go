package data

import (
	"fmt"
	"os"

	"github.com/stellarcache/galaxy/internal/galaxy"
	"github.com/stellarcache/galaxy/internal/syspath"
	"gopkg.in/yaml.v3"
)

// GovWeightEntry is one government type with its relative weight. A list
// keeps the cumulative roll order stable.
type GovWeightEntry struct {
	Type   string `yaml:"type"`
	Weight int32  `yaml:"weight"`
}

// FactionEntry is one faction in factions.yaml. Claims hold three sector
// coordinates, or four with a system index.
type FactionEntry struct {
	Name             string           `yaml:"name"`
	DescriptionShort string           `yaml:"description_short"`
	Description      string           `yaml:"description"`
	Homeworld        []int32          `yaml:"homeworld"`
	FoundingDate     float64          `yaml:"founding_date"`
	ExpansionRate    float64          `yaml:"expansion_rate"`
	MilitaryName     string           `yaml:"military_name"`
	PoliceName       string           `yaml:"police_name"`
	PoliceShip       string           `yaml:"police_ship"`
	Colour           [3]float64       `yaml:"colour"`
	GovTypes         []GovWeightEntry `yaml:"govtypes"`
	IllegalGoods     map[string]int32 `yaml:"illegal_goods"`
	Claims           [][]int32        `yaml:"claims"`
}

// LoadFactions loads factions.yaml into the registry and returns how many
// factions were added.
func LoadFactions(path string, factions *galaxy.Factions) (int, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read factions: %w", err)
	}
	var entries []FactionEntry
	if err := yaml.Unmarshal(raw, &entries); err != nil {
		return 0, fmt.Errorf("parse factions: %w", err)
	}
	for i := range entries {
		f, err := entries[i].build()
		if err != nil {
			return i, fmt.Errorf("faction %d: %w", i, err)
		}
		if err := factions.AddFaction(f); err != nil {
			return i, err
		}
	}
	return len(entries), nil
}

func (e *FactionEntry) build() (*galaxy.Faction, error) {
	f := galaxy.NewFaction(e.Name)
	f.DescriptionShort = e.DescriptionShort
	f.Description = e.Description
	f.FoundingDate = e.FoundingDate
	f.ExpansionRate = e.ExpansionRate
	f.MilitaryName = e.MilitaryName
	f.PoliceName = e.PoliceName
	f.PoliceShip = e.PoliceShip
	f.Colour = galaxy.Colour{R: e.Colour[0], G: e.Colour[1], B: e.Colour[2]}

	if len(e.Homeworld) > 0 {
		p, err := coordsPath(e.Homeworld)
		if err != nil || !p.HasValidSystem() {
			return nil, fmt.Errorf("%q: homeworld needs x, y, z and a system index", e.Name)
		}
		f.SetHomeworld(p)
	}
	for _, gw := range e.GovTypes {
		gt, err := galaxy.ParseGovType(gw.Type)
		if err != nil {
			return nil, fmt.Errorf("%q: %w", e.Name, err)
		}
		if gt < galaxy.GovRandMin || gt > galaxy.GovRandMax {
			return nil, fmt.Errorf("%q: government type %s cannot be picked", e.Name, gt)
		}
		f.AddGovWeight(gt, gw.Weight)
	}
	for name, prob := range e.IllegalGoods {
		c, err := galaxy.ParseCommodity(name)
		if err != nil {
			return nil, fmt.Errorf("%q: %w", e.Name, err)
		}
		if prob < 0 || prob > 100 {
			return nil, fmt.Errorf("%q: illegal goods probability %d for %s out of range", e.Name, prob, c)
		}
		f.IllegalGoods[c] = prob
	}
	for _, c := range e.Claims {
		p, err := coordsPath(c)
		if err != nil {
			return nil, fmt.Errorf("%q: claim: %w", e.Name, err)
		}
		f.Claim(p)
	}
	return f, nil
}

func coordsPath(c []int32) (syspath.Path, error) {
	switch len(c) {
	case 3:
		return syspath.Sector(c[0], c[1], c[2]), nil
	case 4, 5:
		if c[3] < 0 {
			return syspath.Path{}, fmt.Errorf("negative system index %d", c[3])
		}
		return syspath.System(c[0], c[1], c[2], uint32(c[3])), nil
	}
	return syspath.Path{}, fmt.Errorf("want 3 or 4 coordinates, got %d", len(c))
}
