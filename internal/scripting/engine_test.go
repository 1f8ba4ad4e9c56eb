package scripting

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/l1jgo/uiasset/internal/asset"
	"github.com/l1jgo/uiasset/internal/assetmgr"
	"github.com/l1jgo/uiasset/internal/data"
	"github.com/l1jgo/uiasset/internal/pkgfile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// inlineLoader answers every package request on the calling goroutine.
type inlineLoader map[string]string

func (l inlineLoader) LoadPackageBytes(name string, done func([]byte)) {
	done([]byte(l[name]))
}

func (inlineLoader) LoadTexture(_, _, _ string, done func(*asset.Handle)) { done(nil) }
func (inlineLoader) LoadAudio(_, _, _ string, done func(*asset.Handle))   { done(nil) }
func (inlineLoader) ReleaseTexture(*asset.Handle)                         {}
func (inlineLoader) ReleaseAudio(*asset.Handle)                           {}

func newTestEngine(t *testing.T) (*Engine, *assetmgr.Manager) {
	t.Helper()
	l := inlineLoader{
		"Main":  "id: m1\nname: Main\ndependencies:\n  - {id: f1, name: Fonts}\n",
		"Fonts": "id: f1\nname: Fonts\n",
	}
	mapping := data.NewPackageMapping(data.MappingFile{
		PackageIDs:   []string{"m1"},
		PackageNames: []string{"Main"},
	})
	mgr := assetmgr.New(l, pkgfile.NewDecoder(nil), nil, assetmgr.WithMapping(mapping))
	e := NewEngine(mgr, nil)
	t.Cleanup(e.Close)
	return e, mgr
}

func global(t *testing.T, e *Engine, name string) string {
	t.Helper()
	return e.vm.GetGlobal(name).String()
}

func TestScriptAcquireAndRelease(t *testing.T) {
	e, mgr := newTestEngine(t)
	require.NoError(t, e.RunString(`
		got = "none"
		acquire("Main", function(name) got = name end)
		queued = pump()
		while pump() > 0 do end
		main_refs = refcount("Main")
		font_refs = refcount("Fonts")
		main_state = state("Main")
		is_loaded = loaded("Main")
	`))
	assert.Equal(t, "Main", global(t, e, "got"))
	assert.Equal(t, "1", global(t, e, "main_refs"))
	assert.Equal(t, "1", global(t, e, "font_refs"))
	assert.Equal(t, "Loaded", global(t, e, "main_state"))
	assert.Equal(t, "true", global(t, e, "is_loaded"))

	require.NoError(t, e.RunString(`
		ok = release("Main")
		bad, msg = release("Main")
		gone = refcount("Fonts")
	`))
	assert.Equal(t, "true", global(t, e, "ok"))
	assert.Equal(t, "false", global(t, e, "bad"))
	assert.Contains(t, global(t, e, "msg"), "unknown ui package")
	assert.Equal(t, "nil", global(t, e, "gone"))
	assert.Empty(t, mgr.Snapshot())
}

func TestScriptManualPolicyAndDump(t *testing.T) {
	e, mgr := newTestEngine(t)
	require.NoError(t, e.RunString(`
		set_unload_immediately(false)
		ok = acquire_id("m1")
		missing, why = acquire_id("zz")
		while pump() > 0 do end
		local d = dump()
		count = #d
		first = d[1].name
		main_deps = d[2].deps[1]
		release("Main")
		swept = unload_unused()
	`))
	assert.Equal(t, "true", global(t, e, "ok"))
	assert.Equal(t, "false", global(t, e, "missing"))
	assert.Contains(t, global(t, e, "why"), "unknown package id")
	assert.Equal(t, "2", global(t, e, "count"))
	assert.Equal(t, "Fonts", global(t, e, "first"))
	assert.Equal(t, "Fonts", global(t, e, "main_deps"))
	assert.Equal(t, "2", global(t, e, "swept"))
	assert.Empty(t, mgr.Snapshot())
}

func TestScriptForceUnloadResolvesNil(t *testing.T) {
	e, _ := newTestEngine(t)
	require.NoError(t, e.RunString(`
		result = "unset"
		acquire("Main", function(name) result = tostring(name) end)
		forced = force_unload("Main")
		again = force_unload("Main")
	`))
	assert.Equal(t, "nil", global(t, e, "result"))
	assert.Equal(t, "true", global(t, e, "forced"))
	assert.Equal(t, "false", global(t, e, "again"))
}

func TestTickCallsOnTick(t *testing.T) {
	e, _ := newTestEngine(t)
	require.NoError(t, e.Tick(1), "no on_tick defined")

	require.NoError(t, e.RunString(`
		ticks = 0
		function on_tick(n) ticks = n end
	`))
	require.NoError(t, e.Tick(7))
	assert.Equal(t, "7", global(t, e, "ticks"))

	require.NoError(t, e.RunString(`function on_tick() error("boom") end`))
	assert.Error(t, e.Tick(8))
}

func TestRunFile(t *testing.T) {
	e, _ := newTestEngine(t)
	path := filepath.Join(t.TempDir(), "scenario.lua")
	require.NoError(t, os.WriteFile(path, []byte(`log("scenario start") answer = API_VERSION`), 0o644))
	require.NoError(t, e.RunFile(path))
	assert.Equal(t, "1", global(t, e, "answer"))

	assert.Error(t, e.RunFile(filepath.Join(t.TempDir(), "missing.lua")))
	assert.Error(t, e.RunString(`acquire()`))
}
