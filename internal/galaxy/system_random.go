package galaxy

import (
	"fmt"
	"math"

	"github.com/stellarcache/galaxy/internal/random"
)

const (
	safeDistFromBinary = 5.0

	// maxBinaryRetries bounds the re-rolls that pull the inner pair of a
	// multiple system within 100AU.
	maxBinaryRetries = 32
)

// randomSystemStage builds stars and planets for systems without an
// authored body tree.
type randomSystemStage struct{}

func (randomSystemStage) ApplySystem(env *Env, rng *random.Random, sys *StarSystem, cfg *SystemConfig) bool {
	if cfg.IsCustomOnly {
		return true
	}
	secSys := sys.sector.System(sys.path.SystemIndex)
	name := secSys.Name

	var star [4]*Body
	var cg1, cg2 *Body

	n := secSys.NumStars
	if n == 1 {
		star[0] = sys.newBody()
		star[0].Name = name
		makeStarOfType(star[0], secSys.StarType[0], rng)
		sys.root = star[0]
		sys.numStars = 1
	} else {
		cg1 = sys.newBody()
		cg1.Type = TypeGravpoint
		cg1.Name = name + " A,B"
		sys.root = cg1

		star[0] = sys.newBody()
		star[0].Name = name + " A"
		star[0].Parent = cg1
		makeStarOfType(star[0], secSys.StarType[0], rng)

		star[1] = sys.newBody()
		star[1].Name = name + " B"
		star[1].Parent = cg1
		makeStarOfTypeLighterThan(star[1], secSys.StarType[1], star[0].Mass, rng)

		cg1.Mass = star[0].Mass + star[1].Mass
		cg1.Children = append(cg1.Children, star[0], star[1])

		// keep 0.2 radii of clearance each so planets do not hit the companion
		minDist1 := (1.2*star[0].Radius + 1.2*star[1].Radius) * auSolRadius
		for try := 0; ; try++ {
			makeBinaryPair(star[0], star[1], minDist1, rng)
			if n == 2 || star[0].OrbMax <= 100 || try >= maxBinaryRetries {
				break
			}
		}
		sys.numStars = 2

		if n > 2 {
			if n == 3 {
				star[2] = sys.newBody()
				star[2].Name = name + " C"
				makeStarOfTypeLighterThan(star[2], secSys.StarType[2], star[0].Mass, rng)
				cg2 = star[2]
				sys.numStars = 3
			} else {
				cg2 = sys.newBody()
				cg2.Type = TypeGravpoint
				cg2.Name = name + " C,D"

				star[2] = sys.newBody()
				star[2].Name = name + " C"
				star[2].Parent = cg2
				makeStarOfTypeLighterThan(star[2], secSys.StarType[2], star[0].Mass, rng)

				star[3] = sys.newBody()
				star[3].Name = name + " D"
				star[3].Parent = cg2
				makeStarOfTypeLighterThan(star[3], secSys.StarType[3], star[2].Mass, rng)

				minDist2 := (1.2*star[2].Radius + 1.2*star[3].Radius) * auSolRadius
				makeBinaryPair(star[2], star[3], minDist2, rng)
				cg2.Mass = star[2].Mass + star[3].Mass
				cg2.Children = append(cg2.Children, star[2], star[3])
				sys.numStars = 4
			}

			super := sys.newBody()
			super.Type = TypeGravpoint
			super.Name = name
			cg1.Parent = super
			cg2.Parent = super
			sys.root = super
			makeBinaryPair(cg1, cg2, 4*(star[0].OrbMax+star[2].OrbMax), rng)
			super.Mass = cg1.Mass + cg2.Mass
			super.Children = append(super.Children, cg1, cg2)
		}
	}

	sys.metallicity = metallicityAround(sys.root.Type)

	// all stars first, planets need them for surface temperatures
	for i := 0; i < sys.numStars; i++ {
		sys.stars = append(sys.stars, star[i])
	}
	for _, s := range sys.stars {
		makePlanetsAround(sys, s, rng)
	}
	if sys.numStars > 1 {
		makePlanetsAround(sys, cg1, rng)
	}
	if sys.numStars == 4 {
		makePlanetsAround(sys, cg2, rng)
	}
	return true
}

func makeStarOfType(b *Body, t BodyType, rng *random.Random) {
	info := starTypes[t]
	b.Type = t
	b.Seed = rng.Uint32()
	b.Radius = float64(rng.Int32Range(info.radius[0], info.radius[1])) / 100

	switch t {
	case TypeStarF, TypeStarFGiant, TypeStarFHyperGiant, TypeStarFSuperGiant,
		TypeStarA, TypeStarAGiant, TypeStarAHyperGiant, TypeStarASuperGiant,
		TypeStarB, TypeStarBGiant, TypeStarBSuperGiant, TypeStarBWolfRayet,
		TypeStarO, TypeStarOGiant, TypeStarOHyperGiant, TypeStarOSuperGiant, TypeStarOWolfRayet:
		// bright stars are often fast rotators with an equatorial bulge
		rnd := rng.Float64()
		b.AspectRatio = 1 + 0.8*rnd*rnd
	}

	b.Mass = float64(rng.Int32Range(info.mass[0], info.mass[1])) / 100
	b.AverageTemp = rng.Int32Range(info.tempMin, info.tempMax)
}

func makeStarOfTypeLighterThan(b *Body, t BodyType, maxMass float64, rng *random.Random) {
	for tries := 16; tries > 0; tries-- {
		makeStarOfType(b, t, rng)
		if b.Mass <= maxMass {
			return
		}
	}
}

// makeBinaryPair puts a and b on a shared orbit whose periapsis is at least
// minDist AU.
func makeBinaryPair(a, b *Body, minDist float64, rng *random.Random) {
	a.Eccentricity = rng.NFloat64(3)
	mul := 1.0
	for {
		switch rng.Int32n(3) {
		case 2:
			a.SemiMajorAxis = float64(rng.Int32Range(100, 10000)) / 100
		case 1:
			a.SemiMajorAxis = float64(rng.Int32Range(10, 1000)) / 100
		default:
			a.SemiMajorAxis = float64(rng.Int32Range(1, 100)) / 100
		}
		a.SemiMajorAxis *= mul
		mul *= 2
		if a.SemiMajorAxis-a.Eccentricity*a.SemiMajorAxis >= minDist {
			break
		}
	}
	b.Eccentricity = a.Eccentricity
	b.SemiMajorAxis = a.SemiMajorAxis

	rotY := rng.Float64n(math.Pi)
	b.OrbitalPhase = math.Mod(b.OrbitalPhase+math.Pi, 2*math.Pi)
	offset := math.Round(rotY*10000) / 10000
	a.OrbitalOffset = offset
	b.OrbitalOffset = offset

	orbMin := a.SemiMajorAxis - a.Eccentricity*a.SemiMajorAxis
	orbMax := 2*a.SemiMajorAxis - orbMin
	a.OrbMin, b.OrbMin = orbMin, orbMin
	a.OrbMax, b.OrbMax = orbMax, orbMax
}

// massFromDiskArea integrates a disc whose density falls linearly to zero at
// max. The constant factors cancel in getDiscDensity.
func massFromDiskArea(a, b, max float64) float64 {
	b = math.Min(b, max)
	k := 2 / (3 * max)
	return (b*b - k*b*b*b) - (a*a - k*a*a*a)
}

func getDiscDensity(primary *Body, discMin, discMax, percentOfPrimaryMass float64) float64 {
	discMax = math.Max(discMax, discMin)
	total := massFromDiskArea(discMin, discMax, discMax)
	if total <= 0 {
		return 0
	}
	return primary.MassInEarths() * percentOfPrimaryMass / total
}

func makePlanetsAround(sys *StarSystem, primary *Body, rng *random.Random) {
	discMin := 0.0
	discMax := 5000.0
	var discDensity float64

	superType := primary.SuperType()
	if superType <= SuperTypeStar {
		if primary.Type == TypeGravpoint {
			discMin = primary.Children[0].OrbMax * safeDistFromBinary
		} else {
			// roche limit would depend on densities, this is close enough
			discMin = 4 * primary.Radius * auSolRadius
		}
		if primary.Type == TypeWhiteDwarf {
			// white dwarfs used to be much larger stars
			discMin = 1000 * primary.Radius * auSolRadius
			discMax = 100 * rng.NFloat64(2)
			discMax *= math.Sqrt(0.5 + 8*rng.Float64())
		} else {
			discMax = 100 * rng.NFloat64(2) * math.Sqrt(primary.Mass)
		}
		discDensity = rng.Float64() * getDiscDensity(primary, discMin, discMax, 0.02)

		if superType == SuperTypeStar && primary.Parent != nil {
			// stay within 10% of the distance to a binary companion
			discMax = math.Min(discMax, primary.OrbMin*0.1)
		}
		if sys.numStars >= 3 {
			discMax = math.Min(discMax, 0.05*sys.root.Children[0].OrbMin)
		}
	} else {
		discMin = 4 * primary.Radius * auEarthRadius
		// moons stay well inside the hill sphere
		discMax = math.Min(discMax, 0.05*primary.HillRadius()*primary.OrbMin*0.1)
		discDensity = rng.Float64() * getDiscDensity(primary, discMin, discMax, 1.0/500)
	}

	initialJump := rng.NFloat64(5)
	pos := (1-initialJump)*discMin + initialJump*discMax
	if pos <= 0 {
		return
	}

	for pos < discMax {
		periapsis := pos + pos*0.5*rng.NFloat64(2)
		ecc := rng.NFloat64(3)
		semiMajorAxis := periapsis / (1 - ecc)
		apoapsis := 2*semiMajorAxis - periapsis
		if apoapsis > discMax {
			break
		}

		mass := massFromDiskArea(pos, 1.35*apoapsis, discMax)
		mass *= rng.Float64() * discDensity
		mass = math.Max(mass, 0)

		planet := sys.newBody()
		planet.Eccentricity = ecc
		planet.AxialTilt = (100.0 / 157.0) * rng.NFloat64(2)
		planet.SemiMajorAxis = semiMajorAxis
		planet.Type = TypePlanetTerrestrial
		planet.Seed = rng.Uint32()
		planet.Parent = primary
		planet.Mass = mass
		planet.RotationPeriod = float64(rng.Int32Range(1, 200)) / 24

		r1 := rng.Float64n(2 * math.Pi)
		r2 := rng.NFloat64(5)
		planet.OrbitalOffset = r1
		planet.Inclination = math.Pi * r2 / 2
		planet.OrbMin = periapsis
		planet.OrbMax = apoapsis
		primary.Children = append(primary.Children, planet)

		// minimum separation between planets
		pos = apoapsis * 1.35
	}

	makeMoons := superType <= SuperTypeStar
	idx := 0
	for _, child := range primary.Children {
		// around a binary pair the stars themselves are children
		if child.SuperType() == SuperTypeStar {
			continue
		}
		if makeMoons {
			child.Name = fmt.Sprintf("%s %c", primary.Name, 'a'+rune(idx))
		} else {
			child.Name = fmt.Sprintf("%s %d", primary.Name, idx+1)
		}
		pickPlanetType(child, rng)
		if makeMoons {
			makePlanetsAround(sys, child, rng)
		}
		idx++
	}
}

// pickPlanetType settles temperature, size, composition and type of a
// freshly placed planet from its mass and orbit.
func pickPlanetType(b *Body, rng *random.Random) {
	albedo, greenhouse := 0.0, 0.0

	star, minDist, maxDist := b.trueOrbit()
	avgDist := (minDist + maxDist) / 2

	// blackbody first: no greenhouse effect, zero albedo
	b.AverageTemp = surfaceTemp(star, avgDist, albedo, greenhouse)

	// enforce a minimum size of about 10km
	b.Radius = math.Max(math.Cbrt(b.Mass), 1.0/630)

	if b.Parent.Type <= TypeStarMax {
		b.Metallicity = metallicityAround(b.Parent.Type) * rng.Float64()
	} else {
		b.Metallicity = metallicityAround(b.Parent.Parent.Type) * rng.Float64()
	}
	// small bodies cool down
	b.Volcanicity = math.Min(1, b.Mass) * rng.Float64()
	b.AtmosOxidizing = rng.Float64()
	b.Life = 0
	b.VolatileGas, b.VolatileLiquid, b.VolatileIces = 0, 0, 0

	switch {
	case b.Mass > 317*13:
		// deuterium fusion: a brown dwarf, and from here on in solar units
		info := starTypes[TypeBrownDwarf]
		b.Type = TypeBrownDwarf
		b.AverageTemp += rng.Int32Range(info.tempMin, info.tempMax)
		b.Mass = math.Min(b.Mass, 317*65) / sunMassToEarthMass
		b.Radius = float64(rng.Int32Range(info.radius[0], info.radius[1])) / 100
	case b.Mass > 6:
		b.Type = TypePlanetGasGiant
	case b.Mass > 1.0/15000:
		b.Type = TypePlanetTerrestrial

		volatiles := 2 * rng.Float64()
		if rng.Int32n(3) != 0 {
			volatiles *= b.Mass
		}
		// total atmosphere loss
		if rng.Float64() > b.Mass {
			volatiles = 0
		}

		// CO2 sublimation
		if b.AverageTemp > 195 {
			greenhouse += volatiles / 3
		} else {
			albedo += 2.0 / 6
		}
		// liquid water
		if b.AverageTemp > 273 {
			greenhouse += volatiles / 5
		} else {
			albedo += 3.0 / 6
		}
		// boiling water
		if b.AverageTemp > 373 {
			greenhouse += volatiles / 3
		}
		if greenhouse > 0.7 {
			// approaches 1 without reaching it
			greenhouse *= greenhouse
			greenhouse *= greenhouse
			greenhouse = greenhouse / (greenhouse + 32.0/311)
		}

		b.AverageTemp = surfaceTemp(star, avgDist, albedo, greenhouse)

		t := float64(b.AverageTemp)
		gas := t / (100 + t)
		b.VolatileGas = gas * volatiles
		liquid := (1 - gas) * (t / (50 + t))
		b.VolatileLiquid = liquid * volatiles
		b.VolatileIces = (1 - (gas + liquid)) * volatiles

		if b.VolatileLiquid > 0 && t > celsius-60 && t < celsius+200 {
			minTemp := float64(surfaceTemp(star, maxDist, albedo, greenhouse))
			maxTemp := float64(surfaceTemp(star, minDist, albedo, greenhouse))
			if star.Type != TypeBrownDwarf && star.Type != TypeWhiteDwarf && star.Type != TypeStarO &&
				minTemp > celsius-10 && minTemp < celsius+90 &&
				maxTemp > celsius-10 && maxTemp < celsius+90 {
				b.Life = rng.Float64()
			}
		}
	default:
		b.Type = TypePlanetAsteroid
	}

	pickAtmosphere(b)
}

// pickAtmosphere derives surface pressure from the gas inventory.
func pickAtmosphere(b *Body) {
	switch b.Type {
	case TypePlanetGasGiant:
		b.AtmosDensity = 14
	case TypePlanetTerrestrial:
		b.AtmosDensity = b.VolatileGas
	default:
		b.AtmosDensity = 0
	}
}
