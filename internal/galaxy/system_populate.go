package galaxy

import (
	"math"

	"github.com/stellarcache/galaxy/internal/random"
)

const (
	maxOrbitalPorts = 8
	maxSurfacePorts = 6
)

// populateStage decides population, trade, government and starports.
type populateStage struct{}

func (populateStage) ApplySystem(env *Env, rng *random.Random, sys *StarSystem, cfg *SystemConfig) bool {
	if sys.root == nil {
		return true
	}
	p := sys.path
	sx, sy, sz := uint32(p.SectorX), uint32(p.SectorY), uint32(p.SectorZ)
	rng = random.New(p.SystemIndex, sx, sy, sz, env.Seed)

	if env.Factions != nil && env.Factions.IsHomeSystem(p) {
		sys.humanProx = 2.0 / 3
	} else {
		d := int64(p.SectorX)*int64(p.SectorX) + int64(p.SectorY)*int64(p.SectorY) + int64(p.SectorZ)*int64(p.SectorZ)
		sys.humanProx = 3 / float64(isqrt(9+10*d))
	}
	sys.econType = EconIndustry
	sys.industrial = rng.Float64()
	sys.agricultural = 0

	// the root is a gravpoint or a star, neither holds people
	total := populateBody(env, sys, sys.root)
	sys.totalPop = total

	// normalize trade levels to +-25%
	maxLevel := int32(0)
	for c := CommodityNone + 1; c < CommodityCount; c++ {
		maxLevel = max(maxLevel, abs32(sys.tradeLevel[c]))
	}
	if maxLevel > 0 {
		for c := CommodityNone + 1; c < CommodityCount; c++ {
			sys.tradeLevel[c] = sys.tradeLevel[c] * 25 / maxLevel
		}
	}
	for c := CommodityNone + 1; c < CommodityCount; c++ {
		sys.tradeLevel[c] += rng.Int32Range(-5, 5)
	}

	sys.econType = pickEconType(sys)
	sys.polit = politFor(sys, total)

	if sys.faction != nil {
		legal := random.New(sx, sy, sz, p.SystemIndex, sys.faction.Idx)
		for c := CommodityNone + 1; c < CommodityCount; c++ {
			sys.commodityLegal[c] = sys.faction.IsCommodityLegal(c, legal)
		}
	}

	if !cfg.IsCustomOnly {
		addStations(env, sys, sys.root)
		if len(sys.stations) == 0 && total > 0 {
			addGuaranteedStation(env, sys)
		}
	}

	if sys.shortDesc == "" {
		sys.shortDesc = makeShortDescription(sys)
	}
	if sec := sys.sector; sec != nil && sec.Contains(p) {
		sec.System(p.SystemIndex).setPopulation(total)
	}
	return true
}

// populateBody settles b and its subtree and returns the population in
// billions. Children go first so moons are counted before their planet is
// renamed.
func populateBody(env *Env, sys *StarSystem, b *Body) float64 {
	total := 0.0
	for _, c := range b.Children {
		total += populateBody(env, sys, c)
	}

	if sys.unexplored {
		b.Population = 0
		return 0
	}
	if b.Type == TypeGravpoint {
		return total
	}

	p := sys.path
	rng := random.New(p.SystemIndex, uint32(p.SectorX), uint32(p.SectorY), uint32(p.SectorZ), env.Seed, b.Seed)

	if b.Type == TypePlanetAsteroid || b.SuperType() != SuperTypeRockyPlanet ||
		b.AverageTemp < int32(celsius-100) || b.AverageTemp > int32(celsius+100) {
		if b.Type == TypeStarportOrbital {
			// a token crew keeps the station running
			b.Population = 1e-5
			total += b.Population
		}
		return total
	}

	t := float64(b.AverageTemp)
	switch {
	case b.Life > 0.9:
		b.Agricultural = clamp(1-(celsius+25-t)/40, 0, 1)
		sys.agricultural += 2 * b.Agricultural
	case b.Life > 0.5:
		b.Agricultural = clamp(1-(celsius+30-t)/50, 0, 1)
		sys.agricultural += b.Agricultural
	default:
		// no life, only worth it for the metals
		if b.Metallicity < 0.5 && b.Metallicity < 1-sys.humanProx {
			return total
		}
	}

	pop := 0.0
	for c := CommodityNone + 1; c < CommodityCount; c++ {
		info := commodities[c]
		affinity := 1.0
		if info.EconType&EconAgriculture != 0 {
			affinity *= 2 * b.Agricultural
		}
		if info.EconType&EconIndustry != 0 {
			affinity *= sys.industrial
		}
		if info.EconType&EconMining != 0 {
			affinity *= b.Metallicity
		}
		affinity *= rng.Float64()
		// producing consumables is wise
		if isConsumable(c) {
			affinity *= 2
		}
		pop += affinity * sys.humanProx

		howmuch := int32(affinity * 256)
		sys.addTradeLevel(c, -2*howmuch)
		for _, in := range info.Inputs {
			sys.addTradeLevel(in, howmuch)
		}
	}

	if !sys.hasCustomBodies && pop > 0 {
		b.Name = genBodyName(random.New(b.Seed, uint32(p.SectorX), uint32(p.SectorY), uint32(p.SectorZ)))
	}

	// everyone needs to eat and breathe
	for _, c := range consumables {
		if b.Life > 0.5 {
			switch c {
			case AirProcessors, LiquidOxygen, Grain, FruitAndVeg, AnimalMeat:
				continue
			}
		}
		sys.addTradeLevel(c, rng.Int32Range(32, 128))
	}

	pop = 0.1*pop + pop*b.Agricultural
	b.Population = pop
	return total + pop
}

// addStations places starports around and on populated bodies.
func addStations(env *Env, sys *StarSystem, b *Body) {
	for _, c := range b.Children {
		addStations(env, sys, c)
	}
	if b.SuperType() == SuperTypeStarport || b.Population < 0.001 {
		return
	}

	p := sys.path
	rng := random.New(p.SystemIndex, uint32(p.SectorX), uint32(p.SectorY), uint32(p.SectorZ), b.Seed, env.Seed)

	orbMaxS := 0.25 * b.HillRadius()
	orbMinS := 4 * b.Radius * auEarthRadius
	if len(b.Children) > 0 {
		orbMaxS = math.Min(orbMaxS, 0.5*b.Children[0].OrbMin)
	}

	if orbMinS < orbMaxS {
		var ports []*Body
		for pop := b.Population; pop >= 0 && len(ports) < maxOrbitalPorts; pop -= rng.Float64() {
			sp := sys.newBody()
			sp.Type = TypeStarportOrbital
			sp.Seed = rng.Uint32()
			sp.Parent = b
			sp.Radius = 1000 / earthRadiusMetres
			sp.RotationPeriod = 1.0 / 24
			sp.SemiMajorAxis = orbMinS + (orbMaxS-orbMinS)/4
			sp.OrbMin = sp.SemiMajorAxis
			sp.OrbMax = sp.SemiMajorAxis
			sp.Inclination = rng.Float64n(math.Pi) - math.Pi/2
			sp.OrbitalOffset = rng.Float64n(2 * math.Pi)
			sp.Name = uniqueStationName(sys, rng, b, sp.Type)
			ports = append(ports, sp)
			sys.stations = append(sys.stations, sp)
		}
		b.Children = append(ports, b.Children...)
	}

	for pop := b.Population + 3*rng.Float64(); pop >= 3 && countSurfacePorts(b) < maxSurfacePorts; pop -= 3 {
		sp := sys.newBody()
		sp.Type = TypeStarportSurface
		sp.Seed = rng.Uint32()
		sp.Parent = b
		sp.Radius = 1000 / earthRadiusMetres
		sp.Name = uniqueStationName(sys, rng, b, sp.Type)
		positionSettlement(sp)
		b.Children = append(b.Children, sp)
		sys.stations = append(sys.stations, sp)
	}
}

// addGuaranteedStation puts one orbital port around the most populous body
// so every inhabited system can be docked at.
func addGuaranteedStation(env *Env, sys *StarSystem) {
	var best *Body
	for _, b := range sys.bodies {
		if b.SuperType() == SuperTypeRockyPlanet && (best == nil || b.Population > best.Population) {
			best = b
		}
	}
	if best == nil {
		return
	}
	p := sys.path
	rng := random.New(p.SystemIndex, uint32(p.SectorX), uint32(p.SectorY), uint32(p.SectorZ), best.Seed, env.Seed)

	sp := sys.newBody()
	sp.Type = TypeStarportOrbital
	sp.Seed = rng.Uint32()
	sp.Parent = best
	sp.Radius = 1000 / earthRadiusMetres
	sp.RotationPeriod = 1.0 / 24
	sp.SemiMajorAxis = 4 * best.Radius * auEarthRadius * 1.25
	sp.OrbMin = sp.SemiMajorAxis
	sp.OrbMax = sp.SemiMajorAxis
	sp.OrbitalOffset = rng.Float64n(2 * math.Pi)
	sp.Name = uniqueStationName(sys, rng, best, sp.Type)
	best.Children = append([]*Body{sp}, best.Children...)
	sys.stations = append(sys.stations, sp)
}

func countSurfacePorts(b *Body) int {
	n := 0
	for _, c := range b.Children {
		if c.Type == TypeStarportSurface {
			n++
		}
	}
	return n
}

// uniqueStationName rerolls until the name is unused in sys, then falls back
// to a numbered variant.
func uniqueStationName(sys *StarSystem, rng *random.Random, parent *Body, t BodyType) string {
	for range 8 {
		name := genStationName(rng, parent, t)
		if !sys.hasStationNamed(name) {
			return name
		}
	}
	base := genStationName(rng, parent, t)
	name := base
	for i := 2; sys.hasStationNamed(name); i++ {
		name = base + " " + romanNumeral(i)
	}
	return name
}

func romanNumeral(n int) string {
	numerals := []struct {
		v int
		s string
	}{{10, "X"}, {9, "IX"}, {5, "V"}, {4, "IV"}, {1, "I"}}
	out := ""
	for _, r := range numerals {
		for n >= r.v {
			out += r.s
			n -= r.v
		}
	}
	return out
}

// positionSettlement picks a spot on the parent's surface from the port's
// own seed, stored as latitude in Inclination and longitude in OrbitalOffset.
func positionSettlement(sp *Body) {
	r := random.New(sp.Seed)
	r2 := r.Float64()
	r1 := r.Float64()
	sp.Inclination = math.Asin(2*r1-1) + math.Pi/2
	sp.OrbitalOffset = 2 * math.Pi * r2
}

var shortDescs = [...]struct {
	industry, mining, agriculture string
}{
	{
		"Small industrial outpost.",
		"Some established mining.",
		"Young farming colony.",
	},
	{
		"Industrial colony.",
		"Mining colony.",
		"Outdoor agricultural world.",
	},
	{
		"Heavy industry.",
		"Extensive mining operations.",
		"Thriving outdoor world.",
	},
	{
		"Industrial hub system.",
		"Vast strip mine.",
		"High population outdoor world.",
	},
}

func makeShortDescription(sys *StarSystem) string {
	if sys.unexplored {
		return "Unexplored system. No data available."
	}
	if sys.totalPop <= 0 {
		return "Small-scale prospecting. No registered settlements."
	}
	tier := 3
	switch {
	case sys.totalPop < 0.1:
		tier = 0
	case sys.totalPop < 0.5:
		tier = 1
	case sys.totalPop < 5:
		tier = 2
	}
	d := shortDescs[tier]
	switch sys.econType {
	case EconAgriculture:
		return d.agriculture
	case EconMining:
		return d.mining
	default:
		return d.industry
	}
}

// pickEconType names the dominant activity of the system.
func pickEconType(sys *StarSystem) EconType {
	switch {
	case sys.agricultural > sys.industrial && sys.agricultural > sys.metallicity:
		return EconAgriculture
	case sys.metallicity > sys.industrial:
		return EconMining
	default:
		return EconIndustry
	}
}
