package galaxy

import (
	"fmt"
	"strings"
)

// BodyType classifies a system body. The numeric values are stable: they are
// part of generated content and of authored data files.
type BodyType int32

const (
	TypeGravpoint BodyType = iota
	TypeBrownDwarf
	TypeWhiteDwarf
	TypeStarM
	TypeStarK
	TypeStarG
	TypeStarF
	TypeStarA
	TypeStarB
	TypeStarO
	TypeStarMGiant
	TypeStarKGiant
	TypeStarGGiant
	TypeStarFGiant
	TypeStarAGiant
	TypeStarBGiant
	TypeStarOGiant
	TypeStarMSuperGiant
	TypeStarKSuperGiant
	TypeStarGSuperGiant
	TypeStarFSuperGiant
	TypeStarASuperGiant
	TypeStarBSuperGiant
	TypeStarOSuperGiant
	TypeStarMHyperGiant
	TypeStarKHyperGiant
	TypeStarGHyperGiant
	TypeStarFHyperGiant
	TypeStarAHyperGiant
	TypeStarBHyperGiant
	TypeStarOHyperGiant
	TypeStarMWolfRayet
	TypeStarBWolfRayet
	TypeStarOWolfRayet
	TypeStarSBlackHole
	TypeStarIMBlackHole
	TypeStarSMBlackHole
	TypePlanetGasGiant
	TypePlanetAsteroid
	TypePlanetTerrestrial
	TypeStarportOrbital
	TypeStarportSurface

	TypeStarMin = TypeBrownDwarf
	TypeStarMax = TypeStarSMBlackHole
)

var bodyTypeNames = [...]string{
	"GRAVPOINT",
	"BROWN_DWARF",
	"WHITE_DWARF",
	"STAR_M",
	"STAR_K",
	"STAR_G",
	"STAR_F",
	"STAR_A",
	"STAR_B",
	"STAR_O",
	"STAR_M_GIANT",
	"STAR_K_GIANT",
	"STAR_G_GIANT",
	"STAR_F_GIANT",
	"STAR_A_GIANT",
	"STAR_B_GIANT",
	"STAR_O_GIANT",
	"STAR_M_SUPER_GIANT",
	"STAR_K_SUPER_GIANT",
	"STAR_G_SUPER_GIANT",
	"STAR_F_SUPER_GIANT",
	"STAR_A_SUPER_GIANT",
	"STAR_B_SUPER_GIANT",
	"STAR_O_SUPER_GIANT",
	"STAR_M_HYPER_GIANT",
	"STAR_K_HYPER_GIANT",
	"STAR_G_HYPER_GIANT",
	"STAR_F_HYPER_GIANT",
	"STAR_A_HYPER_GIANT",
	"STAR_B_HYPER_GIANT",
	"STAR_O_HYPER_GIANT",
	"STAR_M_WF",
	"STAR_B_WF",
	"STAR_O_WF",
	"STAR_S_BH",
	"STAR_IM_BH",
	"STAR_SM_BH",
	"PLANET_GAS_GIANT",
	"PLANET_ASTEROID",
	"PLANET_TERRESTRIAL",
	"STARPORT_ORBITAL",
	"STARPORT_SURFACE",
}

func (t BodyType) String() string {
	if t < 0 || int(t) >= len(bodyTypeNames) {
		return fmt.Sprintf("BodyType(%d)", int32(t))
	}
	return bodyTypeNames[t]
}

// ParseBodyType accepts the upper-case names used in data files, with or
// without a "TYPE_" prefix, case-insensitively.
func ParseBodyType(name string) (BodyType, error) {
	n := strings.ToUpper(strings.TrimSpace(name))
	n = strings.TrimPrefix(n, "TYPE_")
	for i, s := range bodyTypeNames {
		if s == n {
			return BodyType(i), nil
		}
	}
	return 0, fmt.Errorf("unknown body type %q", name)
}

// IsStar reports whether t is any kind of star, brown dwarfs and black holes included.
func (t BodyType) IsStar() bool { return t >= TypeStarMin && t <= TypeStarMax }

// SuperType groups body types.
type SuperType int

const (
	SuperTypeNone SuperType = iota
	SuperTypeStar
	SuperTypeGasGiant
	SuperTypeRockyPlanet
	SuperTypeStarport
)

func (s SuperType) String() string {
	switch s {
	case SuperTypeStar:
		return "star"
	case SuperTypeGasGiant:
		return "gas giant"
	case SuperTypeRockyPlanet:
		return "rocky planet"
	case SuperTypeStarport:
		return "starport"
	default:
		return "none"
	}
}

func (t BodyType) SuperType() SuperType {
	switch {
	case t == TypeGravpoint:
		return SuperTypeNone
	case t.IsStar():
		return SuperTypeStar
	case t == TypePlanetGasGiant:
		return SuperTypeGasGiant
	case t == TypePlanetAsteroid, t == TypePlanetTerrestrial:
		return SuperTypeRockyPlanet
	case t == TypeStarportOrbital, t == TypeStarportSurface:
		return SuperTypeStarport
	default:
		return SuperTypeNone
	}
}

// starTypeInfo ranges: mass in percent of sol, radius in percent of sol,
// temperature in kelvin.
type starTypeInfo struct {
	mass    [2]int32
	radius  [2]int32
	tempMin int32
	tempMax int32
}

var starTypes = [TypeStarMax + 1]starTypeInfo{
	TypeGravpoint:       {},
	TypeBrownDwarf:      {[2]int32{2, 8}, [2]int32{10, 30}, 1000, 2000},
	TypeWhiteDwarf:      {[2]int32{20, 100}, [2]int32{1, 2}, 4000, 40000},
	TypeStarM:           {[2]int32{10, 47}, [2]int32{30, 60}, 2000, 3500},
	TypeStarK:           {[2]int32{50, 78}, [2]int32{60, 100}, 3500, 5000},
	TypeStarG:           {[2]int32{80, 110}, [2]int32{80, 120}, 5000, 6000},
	TypeStarF:           {[2]int32{115, 170}, [2]int32{110, 150}, 6000, 7500},
	TypeStarA:           {[2]int32{180, 320}, [2]int32{120, 220}, 7500, 10000},
	TypeStarB:           {[2]int32{200, 300}, [2]int32{120, 290}, 10000, 30000},
	TypeStarO:           {[2]int32{300, 400}, [2]int32{200, 310}, 30000, 60000},
	TypeStarMGiant:      {[2]int32{60, 357}, [2]int32{2000, 5000}, 2500, 3500},
	TypeStarKGiant:      {[2]int32{125, 500}, [2]int32{1500, 3000}, 3500, 5000},
	TypeStarGGiant:      {[2]int32{200, 800}, [2]int32{1000, 2000}, 5000, 6000},
	TypeStarFGiant:      {[2]int32{250, 900}, [2]int32{800, 1500}, 6000, 7500},
	TypeStarAGiant:      {[2]int32{400, 1000}, [2]int32{600, 1000}, 7500, 10000},
	TypeStarBGiant:      {[2]int32{500, 1000}, [2]int32{600, 1000}, 10000, 30000},
	TypeStarOGiant:      {[2]int32{600, 1200}, [2]int32{600, 1000}, 30000, 60000},
	TypeStarMSuperGiant: {[2]int32{1050, 5000}, [2]int32{7000, 15000}, 2500, 3500},
	TypeStarKSuperGiant: {[2]int32{1100, 5000}, [2]int32{5000, 9000}, 3500, 5000},
	TypeStarGSuperGiant: {[2]int32{1200, 5000}, [2]int32{4000, 8000}, 5000, 6000},
	TypeStarFSuperGiant: {[2]int32{1500, 6000}, [2]int32{3500, 7000}, 6000, 7500},
	TypeStarASuperGiant: {[2]int32{2000, 8000}, [2]int32{3000, 6000}, 7500, 10000},
	TypeStarBSuperGiant: {[2]int32{3000, 9000}, [2]int32{2500, 5000}, 10000, 30000},
	TypeStarOSuperGiant: {[2]int32{5000, 10000}, [2]int32{2000, 4000}, 30000, 60000},
	TypeStarMHyperGiant: {[2]int32{5000, 15000}, [2]int32{20000, 40000}, 2500, 3500},
	TypeStarKHyperGiant: {[2]int32{5000, 17000}, [2]int32{17000, 25000}, 3500, 5000},
	TypeStarGHyperGiant: {[2]int32{5000, 18000}, [2]int32{14000, 20000}, 5000, 6000},
	TypeStarFHyperGiant: {[2]int32{5000, 19000}, [2]int32{12000, 17500}, 6000, 7500},
	TypeStarAHyperGiant: {[2]int32{5000, 20000}, [2]int32{10000, 15000}, 7500, 10000},
	TypeStarBHyperGiant: {[2]int32{5000, 23000}, [2]int32{6000, 10000}, 10000, 30000},
	TypeStarOHyperGiant: {[2]int32{10000, 30000}, [2]int32{4000, 7000}, 30000, 60000},
	TypeStarMWolfRayet:  {[2]int32{2000, 5000}, [2]int32{2500, 5000}, 25000, 35000},
	TypeStarBWolfRayet:  {[2]int32{2000, 7500}, [2]int32{2500, 5000}, 35000, 45000},
	TypeStarOWolfRayet:  {[2]int32{2000, 10000}, [2]int32{2500, 5000}, 45000, 60000},
	TypeStarSBlackHole:  {[2]int32{20, 2000}, [2]int32{0, 0}, 10, 24},
	TypeStarIMBlackHole: {[2]int32{900000, 1000000}, [2]int32{100, 500}, 1, 10},
	TypeStarSMBlackHole: {[2]int32{2000000, 5000000}, [2]int32{10000, 20000}, 10, 24},
}

// starMetallicities is indexed by the type of the body planets orbit.
var starMetallicities = [TypeStarMax + 1]float64{
	TypeGravpoint:       1.0,
	TypeBrownDwarf:      0.9,
	TypeWhiteDwarf:      0.5,
	TypeStarM:           0.7,
	TypeStarK:           0.6,
	TypeStarG:           0.5,
	TypeStarF:           0.4,
	TypeStarA:           0.3,
	TypeStarB:           0.2,
	TypeStarO:           0.1,
	TypeStarMGiant:      0.8,
	TypeStarKGiant:      0.65,
	TypeStarGGiant:      0.55,
	TypeStarFGiant:      0.4,
	TypeStarAGiant:      0.3,
	TypeStarBGiant:      0.2,
	TypeStarOGiant:      0.1,
	TypeStarMSuperGiant: 0.9,
	TypeStarKSuperGiant: 0.7,
	TypeStarGSuperGiant: 0.6,
	TypeStarFSuperGiant: 0.4,
	TypeStarASuperGiant: 0.3,
	TypeStarBSuperGiant: 0.2,
	TypeStarOSuperGiant: 0.1,
	TypeStarMHyperGiant: 1.0,
	TypeStarKHyperGiant: 0.7,
	TypeStarGHyperGiant: 0.6,
	TypeStarFHyperGiant: 0.4,
	TypeStarAHyperGiant: 0.3,
	TypeStarBHyperGiant: 0.2,
	TypeStarOHyperGiant: 0.1,
	TypeStarMWolfRayet:  1.0,
	TypeStarBWolfRayet:  0.8,
	TypeStarOWolfRayet:  0.6,
	TypeStarSBlackHole:  1.0,
	TypeStarIMBlackHole: 1.0,
	TypeStarSMBlackHole: 1.0,
}

func metallicityAround(t BodyType) float64 {
	if t < 0 || t > TypeStarMax {
		return 0
	}
	return starMetallicities[t]
}

// ExplorationState of a system as seen by the player.
type ExplorationState int32

const (
	Unexplored ExplorationState = iota
	ExploredByPlayer
	ExploredAtStart
)

func (e ExplorationState) String() string {
	switch e {
	case ExploredByPlayer:
		return "explored by player"
	case ExploredAtStart:
		return "explored at start"
	default:
		return "unexplored"
	}
}

// IsExplored is true for both explored states.
func (e ExplorationState) IsExplored() bool { return e != Unexplored }
