package scripting

import (
	"github.com/stellarcache/galaxy/internal/galaxy"
	lua "github.com/yuin/gopher-lua"
)

const (
	systemClass = "CustomSystem"
	bodyClass   = "CustomSystemBody"
)

type systemBuilder struct {
	cs    *galaxy.CustomSystem
	added bool
}

// bodyBuilder is consumed once it is placed in a body tree.
type bodyBuilder struct {
	body *galaxy.CustomSystemBody
	used bool
}

func checkSystem(L *lua.LState, n int) *systemBuilder {
	ud := L.CheckUserData(n)
	if b, ok := ud.Value.(*systemBuilder); ok {
		if b.added {
			L.ArgError(n, "custom system already added to a sector")
		}
		return b
	}
	L.ArgError(n, "CustomSystem expected")
	return nil
}

func checkBody(L *lua.LState, n int) *bodyBuilder {
	ud := L.CheckUserData(n)
	if b, ok := ud.Value.(*bodyBuilder); ok {
		if b.used {
			L.ArgError(n, "invalid body (this body has already been used)")
		}
		return b
	}
	L.ArgError(n, "CustomSystemBody expected")
	return nil
}

func bodyFloat(set func(b *galaxy.CustomSystemBody, v float64)) lua.LGFunction {
	return func(L *lua.LState) int {
		b := checkBody(L, 1)
		set(b.body, float64(L.CheckNumber(2)))
		return self(L)
	}
}

func (e *Engine) registerCustomSystemBody() {
	e.registerClass(bodyClass, func(L *lua.LState) int {
		name := L.CheckString(2)
		t, err := galaxy.ParseBodyType(L.CheckString(3))
		if err != nil {
			L.RaiseError("body '%s' does not have a valid type", name)
			return 0
		}
		newInstance(L, bodyClass, &bodyBuilder{body: galaxy.NewCustomSystemBody(name, t)})
		return 1
	}, map[string]lua.LGFunction{
		"seed": func(L *lua.LState) int {
			b := checkBody(L, 1)
			b.body.Seed = uint32(L.CheckInt64(2))
			b.body.WantRandSeed = false
			return self(L)
		},
		"temp": func(L *lua.LState) int {
			checkBody(L, 1).body.AverageTemp = int32(L.CheckInt(2))
			return self(L)
		},
		"orbital_offset": func(L *lua.LState) int {
			b := checkBody(L, 1)
			b.body.OrbitalOffset = float64(L.CheckNumber(2))
			b.body.WantRandOffset = false
			return self(L)
		},
		"radius":          bodyFloat(func(b *galaxy.CustomSystemBody, v float64) { b.Radius = v }),
		"mass":            bodyFloat(func(b *galaxy.CustomSystemBody, v float64) { b.Mass = v }),
		"semi_major_axis": bodyFloat(func(b *galaxy.CustomSystemBody, v float64) { b.SemiMajorAxis = v }),
		"eccentricity":    bodyFloat(func(b *galaxy.CustomSystemBody, v float64) { b.Eccentricity = v }),
		"latitude":        bodyFloat(func(b *galaxy.CustomSystemBody, v float64) { b.Latitude = v }),
		"inclination":     bodyFloat(func(b *galaxy.CustomSystemBody, v float64) { b.Latitude = v }),
		"longitude":       bodyFloat(func(b *galaxy.CustomSystemBody, v float64) { b.Longitude = v }),
		"rotation_period": bodyFloat(func(b *galaxy.CustomSystemBody, v float64) { b.RotationPeriod = v }),
		"axial_tilt":      bodyFloat(func(b *galaxy.CustomSystemBody, v float64) { b.AxialTilt = v }),
		"metallicity":     bodyFloat(func(b *galaxy.CustomSystemBody, v float64) { b.Metallicity = v }),
		"volcanicity":     bodyFloat(func(b *galaxy.CustomSystemBody, v float64) { b.Volcanicity = v }),
		"atmos_density":   bodyFloat(func(b *galaxy.CustomSystemBody, v float64) { b.AtmosDensity = v }),
		"atmos_oxidizing": bodyFloat(func(b *galaxy.CustomSystemBody, v float64) { b.AtmosOxidizing = v }),
		"ocean_cover":     bodyFloat(func(b *galaxy.CustomSystemBody, v float64) { b.OceanCover = v }),
		"ice_cover":       bodyFloat(func(b *galaxy.CustomSystemBody, v float64) { b.IceCover = v }),
		"life":            bodyFloat(func(b *galaxy.CustomSystemBody, v float64) { b.Life = v }),
		// rendering data, accepted and dropped
		"rings":      func(L *lua.LState) int { checkBody(L, 1); return self(L) },
		"height_map": func(L *lua.LState) int { checkBody(L, 1); return self(L) },
	})
}

// registerCustomSystem installs
//
//	CustomSystem:new(name, {types}):seed(n):explored(b):short_desc(s)
//		:long_desc(s):govtype(name):faction(name):bodies(primary, {kids})
//		:add_to_sector(x, y, z, v(px, py, pz))
func (e *Engine) registerCustomSystem() {
	e.registerClass(systemClass, func(L *lua.LState) int {
		name := L.CheckString(2)
		types := L.CheckTable(3)
		var stars []galaxy.BodyType
		for i := 1; i <= 4; i++ {
			val := types.RawGetInt(i)
			if val == lua.LNil {
				break
			}
			s, ok := val.(lua.LString)
			if !ok {
				L.RaiseError("system star %d is not a string constant", i)
				return 0
			}
			t, err := galaxy.ParseBodyType(string(s))
			if err != nil || (t != galaxy.TypeGravpoint && !t.IsStar()) {
				L.RaiseError("system star %d does not have a valid star type", i)
				return 0
			}
			if t == galaxy.TypeGravpoint {
				break
			}
			stars = append(stars, t)
		}
		newInstance(L, systemClass, &systemBuilder{cs: galaxy.NewCustomSystem(name, stars...)})
		return 1
	}, map[string]lua.LGFunction{
		"seed": func(L *lua.LState) int {
			b := checkSystem(L, 1)
			b.cs.Seed = uint32(L.CheckInt64(2))
			b.cs.WantRandSeed = false
			return self(L)
		},
		"explored": func(L *lua.LState) int {
			b := checkSystem(L, 1)
			b.cs.Explored = L.ToBool(2)
			b.cs.WantRandExplored = false
			return self(L)
		},
		"short_desc": func(L *lua.LState) int {
			checkSystem(L, 1).cs.ShortDesc = L.CheckString(2)
			return self(L)
		},
		"long_desc": func(L *lua.LState) int {
			checkSystem(L, 1).cs.LongDesc = L.CheckString(2)
			return self(L)
		},
		"govtype": func(L *lua.LState) int {
			b := checkSystem(L, 1)
			gt, err := galaxy.ParseGovType(L.CheckString(2))
			if err != nil {
				L.ArgError(2, err.Error())
				return 0
			}
			b.cs.GovType = gt
			return self(L)
		},
		"faction": func(L *lua.LState) int {
			checkSystem(L, 1).cs.FactionName = L.CheckString(2)
			return self(L)
		},
		"bodies":        systemBodies,
		"add_to_sector": e.systemAddToSector,
	})
}

func systemBodies(L *lua.LState) int {
	b := checkSystem(L, 1)
	primary := checkBody(L, 2)
	kids := L.CheckTable(3)
	if !primary.body.Type.IsStar() {
		L.RaiseError("first body does not have a valid star type")
		return 0
	}
	if primary.body.Type != b.cs.PrimaryType[0] {
		L.RaiseError("first body type does not match the system's primary star type")
		return 0
	}
	primary.used = true
	addChildren(L, primary.body, kids)
	b.cs.SetBodies(primary.body)
	return self(L)
}

// addChildren reads a kids table: each body may be followed by tables
// holding its own children.
func addChildren(L *lua.LState, parent *galaxy.CustomSystemBody, kids *lua.LTable) {
	n := kids.Len()
	for i := 1; i <= n; i++ {
		ud, ok := kids.RawGetInt(i).(*lua.LUserData)
		if !ok {
			L.RaiseError("body list of '%s' entry %d is not a body", parent.Name, i)
			return
		}
		kid, ok := ud.Value.(*bodyBuilder)
		if !ok || kid.used {
			L.RaiseError("body list of '%s' entry %d is not an unused body", parent.Name, i)
			return
		}
		kid.used = true
		for i+1 <= n {
			sub, ok := kids.RawGetInt(i + 1).(*lua.LTable)
			if !ok {
				break
			}
			addChildren(L, kid.body, sub)
			i++
		}
		parent.Children = append(parent.Children, kid.body)
	}
}

func (e *Engine) systemAddToSector(L *lua.LState) int {
	b := checkSystem(L, 1)
	x, y, z := int32(L.CheckInt(2)), int32(L.CheckInt(3)), int32(L.CheckInt(4))
	b.cs.Pos = vector(L, 5)
	if _, err := e.custom.Add(b.cs, x, y, z); err != nil {
		L.RaiseError("%s", err.Error())
		return 0
	}
	e.factions.RegisterCustomSystem(b.cs)
	b.added = true
	e.systemsAdded++
	return 0
}
