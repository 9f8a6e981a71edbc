package galaxy

import (
	"math"

	"github.com/stellarcache/galaxy/internal/random"
)

// fromSectorStage copies the skeleton out of the parent sector record.
type fromSectorStage struct{}

func (fromSectorStage) ApplySystem(env *Env, rng *random.Random, sys *StarSystem, cfg *SystemConfig) bool {
	secSys := sys.sector.System(sys.path.SystemIndex)
	sys.faction = secSys.Faction(env.Factions)
	sys.seed = secSys.Seed
	sys.name = secSys.Name
	sys.unexplored = !secSys.Explored().IsExplored()
	sys.exploredTime = secSys.ExploredTime()
	return true
}

// customSystemStage overlays authored data. An authored body tree replaces
// procedural generation entirely.
type customSystemStage struct{}

func (customSystemStage) ApplySystem(env *Env, rng *random.Random, sys *StarSystem, cfg *SystemConfig) bool {
	cs := sys.sector.System(sys.path.SystemIndex).Custom
	if cs == nil {
		return true
	}
	sys.custom = cs
	sys.isCustom = true
	sys.numStars = cs.NumStars
	if cs.ShortDesc != "" {
		sys.shortDesc = cs.ShortDesc
	}
	if cs.LongDesc != "" {
		sys.longDesc = cs.LongDesc
	}
	if cs.IsRandom() {
		return true
	}

	sys.hasCustomBodies = true
	cfg.IsCustomOnly = true

	cb := cs.Body
	root := sys.newBody()
	root.Type = cb.Type
	root.Seed = cb.Seed
	if cb.WantRandSeed {
		root.Seed = rng.Uint32()
	}
	root.Radius = cb.Radius
	root.Mass = cb.Mass
	root.AverageTemp = cb.AverageTemp
	root.Name = cb.Name
	root.IsCustom = true
	sys.root = root

	customKidsOf(sys, root, cb.Children, rng)

	for _, b := range sys.bodies {
		if b.SuperType() == SuperTypeStar {
			sys.stars = append(sys.stars, b)
		}
	}
	return true
}

// customKidsOf builds the authored children of parent depth first. A
// gravpoint weighs what its children weigh.
func customKidsOf(sys *StarSystem, parent *Body, kids []*CustomSystemBody, rng *random.Random) {
	if parent.Type == TypeGravpoint {
		mass := 0.0
		for _, cb := range kids {
			if cb.Type.IsStar() {
				mass += cb.Mass
			} else {
				mass += cb.Mass / sunMassToEarthMass
			}
		}
		parent.Mass = mass
	}

	for _, cb := range kids {
		kid := sys.newBody()
		kid.Type = cb.Type
		kid.Parent = parent
		kid.Seed = cb.Seed
		if cb.WantRandSeed {
			kid.Seed = rng.Uint32()
		}
		kid.Radius = cb.Radius
		kid.AverageTemp = cb.AverageTemp
		kid.Name = cb.Name
		kid.IsCustom = true

		kid.Mass = cb.Mass
		if kid.Type == TypePlanetAsteroid {
			kid.Mass /= 100000
		}

		kid.Metallicity = cb.Metallicity
		// multiple of earth's surface density
		kid.AtmosDensity = cb.AtmosDensity * 1.225
		kid.VolatileGas = kid.AtmosDensity
		kid.VolatileLiquid = cb.OceanCover
		kid.VolatileIces = cb.IceCover
		kid.Volcanicity = cb.Volcanicity
		kid.AtmosOxidizing = cb.AtmosOxidizing
		kid.Life = cb.Life

		kid.RotationPeriod = cb.RotationPeriod
		kid.Eccentricity = cb.Eccentricity
		kid.AxialTilt = cb.AxialTilt
		kid.Inclination = cb.Latitude
		kid.SemiMajorAxis = cb.SemiMajorAxis

		if kid.Type == TypeStarportSurface {
			kid.OrbitalOffset = cb.Longitude
		} else {
			kid.OrbitalOffset = cb.OrbitalOffset
			if cb.WantRandOffset {
				kid.OrbitalOffset = rng.Float64n(2 * math.Pi)
			}
		}
		if kid.SuperType() == SuperTypeStarport {
			sys.stations = append(sys.stations, kid)
		}
		parent.Children = append(parent.Children, kid)

		kid.OrbMin = cb.SemiMajorAxis - cb.Eccentricity*cb.SemiMajorAxis
		kid.OrbMax = 2*cb.SemiMajorAxis - kid.OrbMin

		customKidsOf(sys, kid, cb.Children, rng)
	}
}
