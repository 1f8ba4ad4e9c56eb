package scripting

import (
	"fmt"

	"github.com/l1jgo/uiasset/internal/uipkg"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// Host is the part of the asset manager exposed to scripts.
type Host interface {
	Acquire(name string, cb uipkg.Callback)
	AcquireByID(id string, cb uipkg.Callback) error
	Release(name string) error
	ForceUnload(name string) bool
	UnloadUnused() int
	SetUnloadImmediately(v bool)
	Pump() int
	Lookup(name string) (uipkg.Stat, bool)
	Snapshot() []uipkg.Stat
}

// Engine wraps a single gopher-lua VM driving an asset manager from
// scenario scripts. Single-goroutine access only (loop).
type Engine struct {
	vm   *lua.LState
	host Host
	log  *zap.Logger
}

// NewEngine creates a Lua VM with the asset API installed as globals.
func NewEngine(host Host, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})
	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	e := &Engine{vm: vm, host: host, log: log.Named("scripting")}
	for name, fn := range map[string]lua.LGFunction{
		"acquire":                e.luaAcquire,
		"acquire_id":             e.luaAcquireID,
		"release":                e.luaRelease,
		"force_unload":           e.luaForceUnload,
		"unload_unused":          e.luaUnloadUnused,
		"set_unload_immediately": e.luaSetUnloadImmediately,
		"pump":                   e.luaPump,
		"refcount":               e.luaRefCount,
		"state":                  e.luaState,
		"loaded":                 e.luaLoaded,
		"dump":                   e.luaDump,
		"log":                    e.luaLog,
	} {
		vm.SetGlobal(name, vm.NewFunction(fn))
	}
	return e
}

// RunFile executes a scenario file.
func (e *Engine) RunFile(path string) error {
	if err := e.vm.DoFile(path); err != nil {
		return fmt.Errorf("run %s: %w", path, err)
	}
	e.log.Debug("loaded lua script", zap.String("file", path))
	return nil
}

// RunString executes a chunk of Lua source.
func (e *Engine) RunString(src string) error {
	if err := e.vm.DoString(src); err != nil {
		return fmt.Errorf("run chunk: %w", err)
	}
	return nil
}

// Tick calls the script's on_tick(n), if it defines one.
func (e *Engine) Tick(n uint64) error {
	fn := e.vm.GetGlobal("on_tick")
	if fn == lua.LNil {
		return nil
	}
	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    0,
		Protect: true,
	}, lua.LNumber(n)); err != nil {
		return fmt.Errorf("on_tick: %w", err)
	}
	return nil
}

// acquire(name [, fn]) takes a reference. fn receives the package name, or
// nil when the load failed.
func (e *Engine) luaAcquire(L *lua.LState) int {
	name := L.CheckString(1)
	e.host.Acquire(name, e.callback(L.OptFunction(2, nil), name))
	return 0
}

// acquire_id(id [, fn]) returns true, or false and a message.
func (e *Engine) luaAcquireID(L *lua.LState) int {
	id := L.CheckString(1)
	if err := e.host.AcquireByID(id, e.callback(L.OptFunction(2, nil), id)); err != nil {
		return pushErr(L, err)
	}
	L.Push(lua.LTrue)
	return 1
}

// release(name) returns true, or false and a message.
func (e *Engine) luaRelease(L *lua.LState) int {
	if err := e.host.Release(L.CheckString(1)); err != nil {
		return pushErr(L, err)
	}
	L.Push(lua.LTrue)
	return 1
}

func (e *Engine) luaForceUnload(L *lua.LState) int {
	L.Push(lua.LBool(e.host.ForceUnload(L.CheckString(1))))
	return 1
}

func (e *Engine) luaUnloadUnused(L *lua.LState) int {
	L.Push(lua.LNumber(e.host.UnloadUnused()))
	return 1
}

func (e *Engine) luaSetUnloadImmediately(L *lua.LState) int {
	e.host.SetUnloadImmediately(L.CheckBool(1))
	return 0
}

func (e *Engine) luaPump(L *lua.LState) int {
	L.Push(lua.LNumber(e.host.Pump()))
	return 1
}

// refcount(name) returns nil for unregistered packages.
func (e *Engine) luaRefCount(L *lua.LState) int {
	st, ok := e.host.Lookup(L.CheckString(1))
	if !ok {
		L.Push(lua.LNil)
		return 1
	}
	L.Push(lua.LNumber(st.RefCount))
	return 1
}

func (e *Engine) luaState(L *lua.LState) int {
	st, ok := e.host.Lookup(L.CheckString(1))
	if !ok {
		L.Push(lua.LNil)
		return 1
	}
	L.Push(lua.LString(st.State.String()))
	return 1
}

func (e *Engine) luaLoaded(L *lua.LState) int {
	st, ok := e.host.Lookup(L.CheckString(1))
	L.Push(lua.LBool(ok && st.State == uipkg.StateLoaded))
	return 1
}

// dump() returns an array of {name, version, refs, state, waiting, deps}.
func (e *Engine) luaDump(L *lua.LState) int {
	out := L.NewTable()
	for _, st := range e.host.Snapshot() {
		t := L.NewTable()
		t.RawSetString("name", lua.LString(st.Name))
		t.RawSetString("version", lua.LNumber(st.Version))
		t.RawSetString("refs", lua.LNumber(st.RefCount))
		t.RawSetString("state", lua.LString(st.State.String()))
		t.RawSetString("waiting", lua.LNumber(st.Waiting))
		deps := L.NewTable()
		for _, d := range st.Dependencies {
			deps.Append(lua.LString(d))
		}
		t.RawSetString("deps", deps)
		out.Append(t)
	}
	L.Push(out)
	return 1
}

func (e *Engine) luaLog(L *lua.LState) int {
	e.log.Info("lua", zap.String("msg", L.CheckString(1)))
	return 0
}

// callback adapts a Lua function to a package callback. The function runs
// later, from Pump, so errors are logged rather than raised.
func (e *Engine) callback(fn *lua.LFunction, label string) uipkg.Callback {
	if fn == nil {
		return nil
	}
	return func(pkg uipkg.Package) {
		var arg lua.LValue = lua.LNil
		if pkg != nil {
			arg = lua.LString(pkg.Name())
		}
		if err := e.vm.CallByParam(lua.P{
			Fn:      fn,
			NRet:    0,
			Protect: true,
		}, arg); err != nil {
			e.log.Error("lua package callback", zap.String("package", label), zap.Error(err))
		}
	}
}

func pushErr(L *lua.LState, err error) int {
	L.Push(lua.LFalse)
	L.Push(lua.LString(err.Error()))
	return 2
}

// Close shuts down the Lua VM.
func (e *Engine) Close() {
	e.vm.Close()
}
