package data

import (
	"fmt"
	"os"

	"github.com/stellarcache/galaxy/internal/galaxy"
	"gopkg.in/yaml.v3"
)

// CustomBodyEntry is one authored body with its children.
type CustomBodyEntry struct {
	Name           string            `yaml:"name"`
	Type           string            `yaml:"type"`
	Seed           *uint32           `yaml:"seed"`
	Radius         *float64          `yaml:"radius"`
	Mass           *float64          `yaml:"mass"`
	Temp           int32             `yaml:"temp"`
	SemiMajorAxis  float64           `yaml:"semi_major_axis"`
	Eccentricity   float64           `yaml:"eccentricity"`
	OrbitalOffset  *float64          `yaml:"orbital_offset"`
	Latitude       float64           `yaml:"latitude"`
	Longitude      float64           `yaml:"longitude"`
	RotationPeriod float64           `yaml:"rotation_period"`
	AxialTilt      float64           `yaml:"axial_tilt"`
	Metallicity    float64           `yaml:"metallicity"`
	Volcanicity    float64           `yaml:"volcanicity"`
	AtmosDensity   float64           `yaml:"atmos_density"`
	AtmosOxidizing float64           `yaml:"atmos_oxidizing"`
	OceanCover     float64           `yaml:"ocean_cover"`
	IceCover       float64           `yaml:"ice_cover"`
	Life           float64           `yaml:"life"`
	Children       []CustomBodyEntry `yaml:"children"`
}

// CustomSystemEntry is one hand-authored system in custom_systems.yaml.
// Without bodies the system's topology is generated procedurally.
type CustomSystemEntry struct {
	Name      string           `yaml:"name"`
	Sector    [3]int32         `yaml:"sector"`
	Pos       [3]float64       `yaml:"pos"`
	Stars     []string         `yaml:"stars"`
	Seed      *uint32          `yaml:"seed"`
	Explored  *bool            `yaml:"explored"`
	ShortDesc string           `yaml:"short_desc"`
	LongDesc  string           `yaml:"long_desc"`
	GovType   string           `yaml:"govtype"`
	Faction   string           `yaml:"faction"`
	Bodies    *CustomBodyEntry `yaml:"bodies"`
}

// LoadCustomSystems loads custom_systems.yaml into db and links each system
// to its faction through factions. It returns how many systems were added.
func LoadCustomSystems(path string, db *galaxy.CustomSystems, factions *galaxy.Factions) (int, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read custom systems: %w", err)
	}
	var entries []CustomSystemEntry
	if err := yaml.Unmarshal(raw, &entries); err != nil {
		return 0, fmt.Errorf("parse custom systems: %w", err)
	}
	for i := range entries {
		cs, err := entries[i].build()
		if err != nil {
			return i, fmt.Errorf("custom system %d: %w", i, err)
		}
		s := entries[i].Sector
		if _, err := db.Add(cs, s[0], s[1], s[2]); err != nil {
			return i, err
		}
		factions.RegisterCustomSystem(cs)
	}
	return len(entries), nil
}

func (e *CustomSystemEntry) build() (*galaxy.CustomSystem, error) {
	if len(e.Stars) == 0 {
		return nil, fmt.Errorf("%q has no stars", e.Name)
	}
	var stars []galaxy.BodyType
	for _, name := range e.Stars {
		t, err := galaxy.ParseBodyType(name)
		if err != nil {
			return nil, fmt.Errorf("%q: %w", e.Name, err)
		}
		if t == galaxy.TypeGravpoint {
			break
		}
		if !t.IsStar() {
			return nil, fmt.Errorf("%q: %s is not a star type", e.Name, t)
		}
		stars = append(stars, t)
	}

	cs := galaxy.NewCustomSystem(e.Name, stars...)
	cs.Pos = galaxy.V(e.Pos[0], e.Pos[1], e.Pos[2])
	if e.Seed != nil {
		cs.Seed = *e.Seed
	}
	if e.Explored != nil {
		cs.Explored = *e.Explored
		cs.WantRandExplored = false
	}
	cs.ShortDesc = e.ShortDesc
	cs.LongDesc = e.LongDesc
	cs.FactionName = e.Faction
	if e.GovType != "" {
		gt, err := galaxy.ParseGovType(e.GovType)
		if err != nil {
			return nil, fmt.Errorf("%q: %w", e.Name, err)
		}
		cs.GovType = gt
	}

	if e.Bodies != nil {
		root, err := e.Bodies.build()
		if err != nil {
			return nil, fmt.Errorf("%q: %w", e.Name, err)
		}
		if root.Type != cs.PrimaryType[0] {
			return nil, fmt.Errorf("%q: first body %s does not match primary star %s", e.Name, root.Type, cs.PrimaryType[0])
		}
		cs.SetBodies(root)
	}
	return cs, nil
}

func (e *CustomBodyEntry) build() (*galaxy.CustomSystemBody, error) {
	t, err := galaxy.ParseBodyType(e.Type)
	if err != nil {
		return nil, fmt.Errorf("body %q: %w", e.Name, err)
	}
	b := galaxy.NewCustomSystemBody(e.Name, t)
	if e.Seed != nil {
		b.Seed = *e.Seed
		b.WantRandSeed = false
	}
	if e.Radius != nil {
		b.Radius = *e.Radius
	}
	if e.Mass != nil {
		b.Mass = *e.Mass
	}
	if e.OrbitalOffset != nil {
		b.OrbitalOffset = *e.OrbitalOffset
		b.WantRandOffset = false
	}
	b.AverageTemp = e.Temp
	b.SemiMajorAxis = e.SemiMajorAxis
	b.Eccentricity = e.Eccentricity
	b.Latitude = e.Latitude
	b.Longitude = e.Longitude
	b.RotationPeriod = e.RotationPeriod
	b.AxialTilt = e.AxialTilt
	b.Metallicity = e.Metallicity
	b.Volcanicity = e.Volcanicity
	b.AtmosDensity = e.AtmosDensity
	b.AtmosOxidizing = e.AtmosOxidizing
	b.OceanCover = e.OceanCover
	b.IceCover = e.IceCover
	b.Life = e.Life

	for i := range e.Children {
		kid, err := e.Children[i].build()
		if err != nil {
			return nil, err
		}
		b.Children = append(b.Children, kid)
	}
	return b, nil
}
