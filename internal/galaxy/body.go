package galaxy

import (
	"math"

	"github.com/stellarcache/galaxy/internal/syspath"
)

const (
	sunMassToEarthMass = 332998.0
	auSolRadius        = 305.0 / 65536.0
	auEarthRadius      = 3.0 / 65536.0
	celsius            = 273.15
	earthRadiusMetres  = 6378135.0
)

// Body is one node of a star system's body tree. Stars and gravpoints carry
// mass and radius in solar units, everything else in earth units.
type Body struct {
	Path     syspath.Path
	Type     BodyType
	Name     string
	Parent   *Body
	Children []*Body
	Seed     uint32

	Radius      float64
	AspectRatio float64
	Mass        float64
	AverageTemp int32

	SemiMajorAxis  float64 // AU
	Eccentricity   float64
	OrbMin, OrbMax float64 // AU
	Inclination    float64 // radians
	AxialTilt      float64 // radians
	OrbitalOffset  float64 // radians
	OrbitalPhase   float64 // radians
	RotationPeriod float64 // days

	Metallicity    float64
	Volcanicity    float64
	AtmosDensity   float64
	AtmosOxidizing float64
	VolatileGas    float64
	VolatileLiquid float64
	VolatileIces   float64
	Life           float64
	Agricultural   float64
	Population     float64 // billions

	IsCustom bool
}

func (b *Body) SuperType() SuperType { return b.Type.SuperType() }

// MassInEarths converts the stored mass to earth masses.
func (b *Body) MassInEarths() float64 {
	if b.SuperType() <= SuperTypeStar {
		return b.Mass * sunMassToEarthMass
	}
	return b.Mass
}

// RadiusAU converts the stored radius to AU.
func (b *Body) RadiusAU() float64 {
	if b.SuperType() <= SuperTypeStar {
		return b.Radius * auSolRadius
	}
	return b.Radius * auEarthRadius
}

// HillRadius in AU. Zero for stars and gravpoints.
func (b *Body) HillRadius() float64 {
	if b.SuperType() <= SuperTypeStar || b.Parent == nil {
		return 0
	}
	mprimary := b.Parent.MassInEarths()
	if mprimary <= 0 {
		return 0
	}
	return b.SemiMajorAxis * (1 - b.Eccentricity) * math.Cbrt(b.Mass/(3*mprimary))
}

// IsPopulated is true once a body carries at least a thousand people.
func (b *Body) IsPopulated() bool { return b.Population >= 1e-6 }

// trueOrbit walks up from a moon to the star it ultimately orbits.
func (b *Body) trueOrbit() (star *Body, orbMin, orbMax float64) {
	planet := b
	star = b.Parent
	for star.SuperType() > SuperTypeStar {
		planet = star
		star = star.Parent
	}
	return star, planet.OrbMin, planet.OrbMax
}

func energyPerUnitArea(starRadius float64, starTemp int32, dist float64) float64 {
	t := float64(starTemp) / 10000
	emission := t * t * t * t * starRadius * starRadius
	return 17446.65451 * emission / (dist * dist)
}

// surfaceTemp in kelvin of a body at dist AU from primary.
func surfaceTemp(primary *Body, dist, albedo, greenhouse float64) int32 {
	if dist <= 0 {
		dist = 1e-6
	}
	var e float64
	if primary.Type == TypeGravpoint && len(primary.Children) >= 2 {
		e = energyPerUnitArea(primary.Children[0].Radius, primary.Children[0].AverageTemp, dist)
		e += energyPerUnitArea(primary.Children[1].Radius, primary.Children[1].AverageTemp, dist)
	} else {
		e = energyPerUnitArea(primary.Radius, primary.AverageTemp, dist)
	}
	pow4 := e * (1 - albedo) / (1 - greenhouse)
	return int32(math.Sqrt(math.Sqrt(pow4 * 4409673)))
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
