package scripting

import (
	"github.com/stellarcache/galaxy/internal/galaxy"
	"github.com/stellarcache/galaxy/internal/syspath"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

const factionClass = "Faction"

type factionBuilder struct {
	fac        *galaxy.Faction
	registered bool
}

func checkFaction(L *lua.LState, n int) *factionBuilder {
	ud := L.CheckUserData(n)
	if b, ok := ud.Value.(*factionBuilder); ok {
		return b
	}
	L.ArgError(n, "Faction expected")
	return nil
}

// registerFaction installs
//
//	Faction:new(name):homeworld(x,y,z,si):foundingDate(y):expansionRate(r)
//		:govtype_weight(name,w):illegal_goods_probability(name,p)
//		:colour(r,g,b):claim(x,y,z[,si]):add_to_factions(name)
func (e *Engine) registerFaction() {
	e.registerClass(factionClass, func(L *lua.LState) int {
		newInstance(L, factionClass, &factionBuilder{fac: galaxy.NewFaction(L.CheckString(2))})
		return 1
	}, map[string]lua.LGFunction{
		"description_short": func(L *lua.LState) int {
			checkFaction(L, 1).fac.DescriptionShort = L.CheckString(2)
			return self(L)
		},
		"description": func(L *lua.LState) int {
			checkFaction(L, 1).fac.Description = L.CheckString(2)
			return self(L)
		},
		"military_name": func(L *lua.LState) int {
			checkFaction(L, 1).fac.MilitaryName = L.CheckString(2)
			return self(L)
		},
		"police_name": func(L *lua.LState) int {
			checkFaction(L, 1).fac.PoliceName = L.CheckString(2)
			return self(L)
		},
		"police_ship": func(L *lua.LState) int {
			checkFaction(L, 1).fac.PoliceShip = L.CheckString(2)
			return self(L)
		},
		"foundingDate": func(L *lua.LState) int {
			checkFaction(L, 1).fac.FoundingDate = float64(L.CheckNumber(2))
			return self(L)
		},
		"expansionRate": func(L *lua.LState) int {
			checkFaction(L, 1).fac.ExpansionRate = float64(L.CheckNumber(2))
			return self(L)
		},
		"homeworld":                 e.factionHomeworld,
		"govtype_weight":            e.factionGovWeight,
		"illegal_goods_probability": e.factionIllegalGoods,
		"colour": func(L *lua.LState) int {
			checkFaction(L, 1).fac.Colour = galaxy.Colour{
				R: float64(L.CheckNumber(2)),
				G: float64(L.CheckNumber(3)),
				B: float64(L.CheckNumber(4)),
			}
			return self(L)
		},
		"claim":           factionClaim,
		"add_to_factions": e.factionAdd,
	})
}

// homeworld(x, y, z, si[, bi]). The body index is accepted and dropped; the
// registry moves the homeworld to a best-fit system at FinishInit when the
// named one does not exist.
func (e *Engine) factionHomeworld(L *lua.LState) int {
	b := checkFaction(L, 1)
	x, y, z := int32(L.CheckInt(2)), int32(L.CheckInt(3)), int32(L.CheckInt(4))
	si := L.CheckInt(5)
	if si < 0 {
		L.ArgError(5, "negative system index")
		return 0
	}
	b.fac.SetHomeworld(syspath.System(x, y, z, uint32(si)))
	return self(L)
}

func (e *Engine) factionGovWeight(L *lua.LState) int {
	b := checkFaction(L, 1)
	name := L.CheckString(2)
	weight := L.CheckInt(3)
	gt, err := galaxy.ParseGovType(name)
	if err != nil || gt < galaxy.GovRandMin || gt > galaxy.GovRandMax {
		e.log.Warn("government type out of range",
			zap.String("faction", b.fac.Name),
			zap.String("govtype", name),
		)
		return self(L)
	}
	if weight < 0 {
		e.log.Warn("government weight must be positive",
			zap.String("faction", b.fac.Name),
			zap.String("govtype", name),
			zap.Int("weight", weight),
		)
		return self(L)
	}
	b.fac.AddGovWeight(gt, int32(weight))
	return self(L)
}

func (e *Engine) factionIllegalGoods(L *lua.LState) int {
	b := checkFaction(L, 1)
	name := L.CheckString(2)
	prob := L.CheckInt(3)
	c, err := galaxy.ParseCommodity(name)
	if err != nil {
		L.ArgError(2, err.Error())
		return 0
	}
	if prob < 0 || prob > 100 {
		e.log.Warn("illegal goods probability out of range",
			zap.String("faction", b.fac.Name),
			zap.String("commodity", name),
			zap.Int("probability", prob),
		)
		return self(L)
	}
	b.fac.IllegalGoods[c] = int32(prob)
	return self(L)
}

// claim(x, y, z[, si]) claims a whole sector, or one system of it.
func factionClaim(L *lua.LState) int {
	b := checkFaction(L, 1)
	p := syspath.Sector(int32(L.CheckInt(2)), int32(L.CheckInt(3)), int32(L.CheckInt(4)))
	if L.GetTop() > 4 {
		si := L.CheckInt(5)
		if si < 0 {
			L.ArgError(5, "negative system index")
			return 0
		}
		p = p.WithSystem(uint32(si))
	}
	b.fac.Claim(p)
	return self(L)
}

func (e *Engine) factionAdd(L *lua.LState) int {
	b := checkFaction(L, 1)
	if b.registered {
		L.RaiseError("faction '%s' already added", b.fac.Name)
		return 0
	}
	if err := e.factions.AddFaction(b.fac); err != nil {
		L.RaiseError("%s", err.Error())
		return 0
	}
	b.registered = true
	e.factionsAdded++
	return 0
}
