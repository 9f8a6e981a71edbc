package scripting

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/stellarcache/galaxy/internal/galaxy"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// Engine wraps a gopher-lua VM that runs definition scripts. Scripts build
// factions and custom systems through the Faction, CustomSystem and
// CustomSystemBody classes and hand them to the registries.
// Single-goroutine access only, and only before the galaxy finishes init.
type Engine struct {
	vm  *lua.LState
	log *zap.Logger

	custom   *galaxy.CustomSystems
	factions *galaxy.Factions

	systemsAdded  int
	factionsAdded int
}

// NewEngine creates a Lua engine with the builder classes installed and
// loads every script under scriptsDir/systems and scriptsDir/factions.
func NewEngine(scriptsDir string, custom *galaxy.CustomSystems, factions *galaxy.Factions, log *zap.Logger) (*Engine, error) {
	e := newEngine(custom, factions, log)

	// Custom systems first; references to factions defined later resolve
	// when the faction is added.
	for _, sub := range []string{"systems", "factions"} {
		p := filepath.Join(scriptsDir, sub)
		if err := e.loadDir(p); err != nil {
			e.vm.Close()
			return nil, fmt.Errorf("load %s scripts: %w", sub, err)
		}
	}

	log.Info("definition scripts loaded",
		zap.String("dir", scriptsDir),
		zap.Int("custom_systems", e.systemsAdded),
		zap.Int("factions", e.factionsAdded),
	)
	return e, nil
}

func newEngine(custom *galaxy.CustomSystems, factions *galaxy.Factions, log *zap.Logger) *Engine {
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})
	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	e := &Engine{
		vm:       vm,
		log:      log,
		custom:   custom,
		factions: factions,
	}
	e.registerHelpers()
	e.registerFaction()
	e.registerCustomSystemBody()
	e.registerCustomSystem()
	return e
}

// loadDir runs all .lua files in a directory in name order.
func (e *Engine) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // skip missing dirs
		}
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := e.vm.DoFile(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		e.log.Debug("loaded lua script", zap.String("file", path))
	}
	return nil
}

// DoString runs a chunk of definition code.
func (e *Engine) DoString(src string) error {
	if err := e.vm.DoString(src); err != nil {
		return fmt.Errorf("run lua chunk: %w", err)
	}
	return nil
}

// SystemsAdded counts custom systems scripts placed in sectors.
func (e *Engine) SystemsAdded() int { return e.systemsAdded }

// FactionsAdded counts factions scripts registered.
func (e *Engine) FactionsAdded() int { return e.factionsAdded }

// Close shuts down the Lua VM.
func (e *Engine) Close() {
	e.vm.Close()
}

// registerHelpers installs v(x,y,z) for positions and f(num,den) for the
// fractional literals definition files are written with.
func (e *Engine) registerHelpers() {
	e.vm.SetGlobal("v", e.vm.NewFunction(func(L *lua.LState) int {
		t := L.NewTable()
		t.RawSetString("x", L.CheckNumber(1))
		t.RawSetString("y", L.CheckNumber(2))
		t.RawSetString("z", L.CheckNumber(3))
		L.Push(t)
		return 1
	}))
	e.vm.SetGlobal("f", e.vm.NewFunction(func(L *lua.LState) int {
		num := float64(L.CheckNumber(1))
		den := float64(L.OptNumber(2, 1))
		if den == 0 {
			L.ArgError(2, "zero denominator")
			return 0
		}
		L.Push(lua.LNumber(num / den))
		return 1
	}))
}

// registerClass makes a global class table whose new() builds userdata
// of that class and whose methods are looked up through __index.
func (e *Engine) registerClass(name string, ctor lua.LGFunction, methods map[string]lua.LGFunction) {
	mt := e.vm.NewTypeMetatable(name)
	e.vm.SetField(mt, "new", e.vm.NewFunction(ctor))
	e.vm.SetField(mt, "__index", e.vm.SetFuncs(e.vm.NewTable(), methods))
	e.vm.SetGlobal(name, mt)
}

func newInstance(L *lua.LState, class string, v any) {
	ud := L.NewUserData()
	ud.Value = v
	L.SetMetatable(ud, L.GetTypeMetatable(class))
	L.Push(ud)
}

// self ends a chained setter call.
func self(L *lua.LState) int {
	L.SetTop(1)
	return 1
}

// vector reads a table built by v() or a plain {x, y, z} array.
func vector(L *lua.LState, n int) galaxy.Vector3 {
	t := L.CheckTable(n)
	get := func(key string, idx int) float64 {
		val := t.RawGetString(key)
		if val == lua.LNil {
			val = t.RawGetInt(idx)
		}
		num, ok := val.(lua.LNumber)
		if !ok {
			L.ArgError(n, "vector expected")
		}
		return float64(num)
	}
	return galaxy.V(get("x", 1), get("y", 2), get("z", 3))
}
