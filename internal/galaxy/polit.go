package galaxy

import (
	"fmt"
	"strings"

	"github.com/stellarcache/galaxy/internal/random"
)

const politSeed = 0x1234abcd

// GovType is the government of a system.
type GovType int32

const (
	GovInvalid GovType = iota - 1
	GovNone
	GovEarthColonial
	GovEarthDemocracy
	GovEmpireRule
	GovCISLiberalDemocracy
	GovCISSocialDemocracy
	GovLiberalDemocracy
	GovCorporate
	GovSocialDemocracy
	GovEarthMilitaryDictatorship
	GovMilitaryDictatorship1
	GovMilitaryDictatorship2
	GovEmpireMilitaryDictatorship
	GovCommunist
	GovPlutocratic
	GovDisorder

	govMax

	GovRandMin = GovNone + 1
	GovRandMax = govMax - 1
)

type govDesc struct {
	name            string
	description     string
	baseLawlessness float64
}

var govDescs = [govMax]govDesc{
	GovNone:                       {"NONE", "No central governance", 1.0},
	GovEarthColonial:              {"EARTHCOLONIAL", "Earth Federation Colonial Rule", 0.3},
	GovEarthDemocracy:             {"EARTHDEMOC", "Earth Federation Democracy", 0.15},
	GovEmpireRule:                 {"EMPIRERULE", "Imperial Rule", 0.15},
	GovCISLiberalDemocracy:        {"CISLIBDEM", "Liberal democracy", 0.25},
	GovCISSocialDemocracy:         {"CISSOCDEM", "Social democracy", 0.20},
	GovLiberalDemocracy:           {"LIBDEM", "Liberal democracy", 0.25},
	GovCorporate:                  {"CORPORATE", "Corporate system", 0.40},
	GovSocialDemocracy:            {"SOCDEM", "Social democracy", 0.25},
	GovEarthMilitaryDictatorship:  {"EARTHMILDICT", "Military dictatorship", 0.40},
	GovMilitaryDictatorship1:      {"MILDICT1", "Military dictatorship", 0.25},
	GovMilitaryDictatorship2:      {"MILDICT2", "Military dictatorship", 0.25},
	GovEmpireMilitaryDictatorship: {"EMPIREMILDICT", "Military dictatorship", 0.40},
	GovCommunist:                  {"COMMUNIST", "Communist", 0.25},
	GovPlutocratic:                {"PLUTOCRATIC", "Plutocratic dictatorship", 0.45},
	GovDisorder:                   {"DISORDER", "Disorder - Overall governance contested by armed factions", 0.90},
}

func (g GovType) valid() bool { return g >= GovNone && g < govMax }

func (g GovType) String() string {
	if !g.valid() {
		return "INVALID"
	}
	return govDescs[g].name
}

func (g GovType) Description() string {
	if !g.valid() {
		return ""
	}
	return govDescs[g].description
}

func (g GovType) BaseLawlessness() float64 {
	if !g.valid() {
		return 1
	}
	return govDescs[g].baseLawlessness
}

// ParseGovType accepts the short upper-case names, optionally prefixed with "GOV_".
func ParseGovType(name string) (GovType, error) {
	n := strings.ToUpper(strings.TrimSpace(name))
	n = strings.TrimPrefix(n, "GOV_")
	for i := GovNone; i < govMax; i++ {
		if govDescs[i].name == n {
			return i, nil
		}
	}
	return GovInvalid, fmt.Errorf("unknown government type %q", name)
}

// SysPolit is the political state of a generated system.
type SysPolit struct {
	GovType     GovType
	Lawlessness float64
}

func (p SysPolit) String() string {
	return fmt.Sprintf("%s (lawlessness %.2f)", p.GovType.Description(), p.Lawlessness)
}

// politFor decides the government of sys. Authored governments win, the
// origin system is always an Earth democracy, populated systems take their
// faction's weighted pick and empty ones have no government.
func politFor(sys *StarSystem, totalPop float64) SysPolit {
	p := sys.path
	rng := random.New(uint32(p.SectorX), uint32(p.SectorY), uint32(p.SectorZ), p.SystemIndex, politSeed)

	gov := GovInvalid
	if cs := sys.custom; cs != nil {
		gov = cs.GovType
	}
	if gov == GovInvalid {
		switch {
		case p.SectorX == 0 && p.SectorY == 0 && p.SectorZ == 0 && p.SystemIndex == 0:
			gov = GovEarthDemocracy
		case totalPop > 0:
			if sys.faction != nil {
				gov = sys.faction.PickGovernmentType(rng)
			}
			if gov == GovInvalid || gov == GovNone {
				gov = GovType(rng.Int32Range(int32(GovRandMin), int32(GovRandMax)))
			}
		default:
			gov = GovNone
		}
	}
	return SysPolit{GovType: gov, Lawlessness: gov.BaseLawlessness() * rng.Float64()}
}
