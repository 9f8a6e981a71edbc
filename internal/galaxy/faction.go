package galaxy

import (
	"math"
	"slices"

	"github.com/stellarcache/galaxy/internal/random"
	"github.com/stellarcache/galaxy/internal/syspath"
)

// NoFactionIdx is the index of the sentinel returned when nothing claims a system.
const NoFactionIdx = ^uint32(0)

// Colour is an RGB triple in 0..1.
type Colour struct {
	R, G, B float64
}

// GovWeight is one entry of a faction's government distribution.
type GovWeight struct {
	Type   GovType
	Weight int32
}

// Faction is a territorial entity. Its radius is derived from the year.
type Faction struct {
	Idx              uint32
	Name             string
	DescriptionShort string
	Description      string

	HasHomeworld  bool
	Homeworld     syspath.Path
	FoundingDate  float64 // year
	ExpansionRate float64 // light years per year

	MilitaryName string
	PoliceName   string
	PoliceShip   string
	Colour       Colour

	GovWeights   []GovWeight
	govWeightSum int32

	// IllegalGoods maps a commodity to the percent chance it is illegal in a
	// system of this faction.
	IllegalGoods map[Commodity]int32

	claims map[syspath.Path]struct{}

	homeSector *Sector
	homePos    Vector3
}

func NewFaction(name string) *Faction {
	return &Faction{
		Idx:          NoFactionIdx,
		Name:         name,
		IllegalGoods: make(map[Commodity]int32),
		claims:       make(map[syspath.Path]struct{}),
	}
}

// SetHomeworld sets the homeworld system. The body index is ignored.
func (f *Faction) SetHomeworld(p syspath.Path) {
	f.Homeworld = p.SystemOnly()
	f.HasHomeworld = true
}

// AddGovWeight registers a government type with its relative weight.
// Non-positive weights are ignored.
func (f *Faction) AddGovWeight(t GovType, weight int32) {
	if weight <= 0 || !t.valid() {
		return
	}
	f.GovWeights = append(f.GovWeights, GovWeight{Type: t, Weight: weight})
	f.govWeightSum += weight
}

// Claim marks a whole sector (a sector path) or a single system as owned.
func (f *Faction) Claim(p syspath.Path) {
	if p.HasValidSystem() {
		p = p.SystemOnly()
	}
	f.claims[p] = struct{}{}
}

// IsClaimed reports whether p's system or its sector was claimed.
func (f *Faction) IsClaimed(p syspath.Path) bool {
	if len(f.claims) == 0 {
		return false
	}
	if _, ok := f.claims[p.SectorOnly()]; ok {
		return true
	}
	if p.HasValidSystem() {
		_, ok := f.claims[p.SystemOnly()]
		return ok
	}
	return false
}

// Claims returns the claimed paths in order.
func (f *Faction) Claims() []syspath.Path {
	out := make([]syspath.Path, 0, len(f.claims))
	for p := range f.claims {
		out = append(out, p)
	}
	slices.SortFunc(out, syspath.Path.Compare)
	return out
}

// Radius in light years at the given year. It is negative before the
// founding date, which makes the faction contain nothing.
func (f *Faction) Radius(year float64) float64 {
	return (year - f.FoundingDate) * f.ExpansionRate
}

// PickGovernmentType rolls against the cumulative weights. A faction
// without weights answers GovInvalid.
func (f *Faction) PickGovernmentType(rng *random.Random) GovType {
	if f.govWeightSum <= 0 {
		return GovInvalid
	}
	roll := rng.Int32n(f.govWeightSum)
	cutoff := int32(0)
	for _, w := range f.GovWeights {
		cutoff += w.Weight
		if roll < cutoff {
			return w.Type
		}
	}
	return f.GovWeights[len(f.GovWeights)-1].Type
}

// IsCommodityLegal rolls the faction's illegality table for c.
func (f *Faction) IsCommodityLegal(c Commodity, rng *random.Random) bool {
	prob, ok := f.IllegalGoods[c]
	if !ok || prob <= 0 {
		return true
	}
	return rng.Int32n(100) >= prob
}

// HomeSector is the resolved homeworld sector, nil until the registry is
// initialized or for factions without a homeworld.
func (f *Faction) HomeSector() *Sector { return f.homeSector }

// HomePosition is the homeworld's full position once resolved.
func (f *Faction) HomePosition() Vector3 { return f.homePos }

// territory measures sys against f. Same-sector systems count as distance
// zero. A faction without a resolved homeworld is infinitely large and
// infinitely far away.
func (f *Faction) territory(sys *SectorSystem, year float64) (distance float64, inside bool) {
	if !f.HasHomeworld || f.homeSector == nil {
		return math.Inf(1), true
	}
	if sys.isSameSector(f.Homeworld) {
		return 0, true
	}
	distance = sys.FullPosition().Sub(f.homePos).Length()
	return distance, distance < f.Radius(year)
}
