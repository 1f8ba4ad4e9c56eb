package uipkg

import (
	"fmt"
	"sort"

	"github.com/l1jgo/uiasset/internal/core/event"
	"github.com/l1jgo/uiasset/internal/core/intake"
	"github.com/l1jgo/uiasset/internal/core/pool"
	"go.uber.org/zap"
)

// Registry owns the package-name → entry map and every refcount change.
// Single-goroutine access only.
type Registry struct {
	entries     map[string]*packageInfo
	arena       *pool.Arena[packageInfo]
	lastVersion uint64

	loader  PackageLoader
	decoder Decoder
	intake  *intake.Queue
	bus     *event.Bus

	unloadImmediately bool
	log               *zap.Logger
}

// NewRegistry creates a registry with the unload-on-zero policy enabled.
func NewRegistry(loader PackageLoader, decoder Decoder, log *zap.Logger) *Registry {
	if log == nil {
		log = zap.NewNop()
	}
	return &Registry{
		entries:           make(map[string]*packageInfo, 64),
		arena:             pool.NewArena(resetInfo),
		loader:            loader,
		decoder:           decoder,
		unloadImmediately: true,
		log:               log.Named("registry"),
	}
}

// WithIntake routes loader completions through q. Without an intake,
// completions run inline on whatever goroutine the loader calls back on.
func (r *Registry) WithIntake(q *intake.Queue) *Registry {
	r.intake = q
	return r
}

// WithBus enables lifecycle events.
func (r *Registry) WithBus(b *event.Bus) *Registry {
	r.bus = b
	return r
}

func (r *Registry) SetUnloadImmediately(v bool) { r.unloadImmediately = v }
func (r *Registry) UnloadImmediately() bool     { return r.unloadImmediately }

// Len returns the number of tracked entries.
func (r *Registry) Len() int { return len(r.entries) }

// AddPackage requests name. A miss creates the entry and issues its load;
// a hit shares the entry (and any in-flight load). When addRef is set the
// entry gains one reference. cb, if any, runs now when the package is
// already loaded, otherwise when the entry resolves.
func (r *Registry) AddPackage(name string, cb Callback, addRef bool) {
	info, ok := r.entries[name]
	created := false
	if !ok {
		info = r.create(name)
		created = true
	}

	if addRef {
		info.refCount++
	}

	if cb != nil {
		if info.state == StateLoaded {
			cb(info.pkg)
		} else {
			info.callbacks = append(info.callbacks, cb)
		}
	}

	// Load last: an inline completion must see the ref and the callback.
	if created {
		r.startLoad(info.name, info.version)
	}
}

// ReleaseRef drops one reference from name. At zero, with the immediate
// policy, the entry is torn down before ReleaseRef returns.
func (r *Registry) ReleaseRef(name string) error {
	info, ok := r.entries[name]
	if !ok {
		return fmt.Errorf("release %q: %w", name, ErrUnknownPackage)
	}
	return r.release(info)
}

// ForceUnload tears name down regardless of its refcount.
func (r *Registry) ForceUnload(name string) bool {
	info, ok := r.entries[name]
	if !ok {
		return false
	}
	r.unload(info, true)
	return true
}

// ForceUnloadAll tears down every entry present when it is called,
// regardless of refcount. Entries a callback creates during the teardown
// (a re-acquire on nil) are new versions and stay registered.
func (r *Registry) ForceUnloadAll() {
	type target struct {
		name    string
		version uint64
	}
	targets := make([]target, 0, len(r.entries))
	for _, name := range r.names() {
		targets = append(targets, target{name: name, version: r.entries[name].version})
	}
	for _, t := range targets {
		if info, ok := r.current(t.name, t.version); ok {
			r.unload(info, true)
		}
	}
}

// UnloadUnused tears down every entry with no references, sweeping again
// until no entry qualifies: a teardown releases dependencies, which may then
// qualify themselves. A pending entry with waiting callbacks is kept until
// its load resolves. Returns the number of entries removed.
func (r *Registry) UnloadUnused() int {
	removed := 0
	var victims []*packageInfo
	for {
		victims = victims[:0]
		for _, info := range r.entries {
			if info.refCount != 0 {
				continue
			}
			if info.state == StatePending && len(info.callbacks) > 0 {
				continue
			}
			victims = append(victims, info)
		}
		if len(victims) == 0 {
			return removed
		}
		sort.Slice(victims, func(i, j int) bool { return victims[i].name < victims[j].name })

		// Collect first, then tear down: teardown mutates the map.
		for _, info := range victims {
			delete(r.entries, info.name)
		}
		for _, info := range victims {
			r.teardown(info, false)
		}
		removed += len(victims)
	}
}

// OnLoadFinished applies the result of the load issued for (name, version).
func (r *Registry) OnLoadFinished(name string, version uint64, data []byte) {
	info, ok := r.current(name, version)
	if !ok {
		r.log.Debug("discard stale package load",
			zap.String("package", name),
			zap.Uint64("version", version),
		)
		event.Emit(r.bus, event.StaleCompletion{Name: name, Version: version, Kind: "package"})
		return
	}
	if info.pkg != nil || info.state != StatePending {
		r.violation(name, "package handle stored twice")
		return
	}

	if len(data) == 0 {
		r.fail(info, "empty package data")
		return
	}
	pkg, err := r.decoder.Decode(data, name)
	if err != nil {
		r.fail(info, err.Error())
		return
	}
	if pkg == nil {
		r.fail(info, "decoder returned no package")
		return
	}

	info.pkg = pkg
	info.state = StateLoaded
	deps := pkg.Dependencies()
	r.log.Debug("package loaded",
		zap.String("package", name),
		zap.Uint64("version", version),
		zap.Strings("dependencies", deps),
	)
	event.Emit(r.bus, event.PackageLoaded{Name: name, Version: version, Dependencies: deps})

	cbs := info.callbacks
	info.callbacks = nil
	for _, cb := range cbs {
		cb(pkg)
	}

	// A callback may have released the last reference.
	if _, ok := r.current(name, version); !ok {
		return
	}
	r.addDependencies(info, version, deps)
}

func (r *Registry) addDependencies(info *packageInfo, version uint64, deps []string) {
	name := info.name
	seen := make(map[string]struct{}, len(deps))
	for _, dep := range deps {
		if dep == "" || dep == name {
			continue
		}
		if _, dup := seen[dep]; dup {
			continue
		}
		seen[dep] = struct{}{}

		r.AddPackage(dep, nil, true)
		depInfo, depOK := r.entries[dep]
		if _, ok := r.current(name, version); !ok {
			// Torn down by an inline completion; hand the new ref back.
			if depOK {
				if err := r.release(depInfo); err != nil {
					r.log.Error("release dependency", zap.String("package", dep), zap.Error(err))
				}
			}
			return
		}
		if depOK {
			info.deps = append(info.deps, depRef{name: dep, version: depInfo.version})
		}
	}
}

// Lookup returns a view of name's entry.
func (r *Registry) Lookup(name string) (Stat, bool) {
	info, ok := r.entries[name]
	if !ok {
		return Stat{}, false
	}
	return info.stat(), true
}

// Snapshot returns a view of every entry, sorted by name.
func (r *Registry) Snapshot() []Stat {
	out := make([]Stat, 0, len(r.entries))
	for _, name := range r.names() {
		out = append(out, r.entries[name].stat())
	}
	return out
}

func (r *Registry) names() []string {
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// current returns name's entry if it is still the one created as version.
func (r *Registry) current(name string, version uint64) (*packageInfo, bool) {
	info, ok := r.entries[name]
	if !ok || info.version != version {
		return nil, false
	}
	return info, true
}

func (r *Registry) create(name string) *packageInfo {
	slot, info := r.arena.Alloc()
	r.lastVersion++
	info.slot = slot
	info.name = name
	info.version = r.lastVersion
	info.state = StatePending
	r.entries[name] = info

	r.log.Debug("package requested",
		zap.String("package", name),
		zap.Uint64("version", info.version),
	)
	event.Emit(r.bus, event.PackageRequested{Name: name, Version: info.version})
	return info
}

func (r *Registry) startLoad(name string, version uint64) {
	r.loader.LoadPackageBytes(name, func(data []byte) {
		r.deliver(func() { r.OnLoadFinished(name, version, data) })
	})
}

// deliver runs fn on the loop: through the intake when one is wired.
func (r *Registry) deliver(fn func()) {
	if r.intake != nil {
		r.intake.Post(fn)
		return
	}
	fn()
}

func (r *Registry) release(info *packageInfo) error {
	if info.refCount <= 0 {
		r.violation(info.name, "release with zero references")
		return fmt.Errorf("release %q: %w: reference count already zero", info.name, ErrContractViolation)
	}
	info.refCount--
	if info.refCount == 0 && r.unloadImmediately {
		r.unload(info, false)
	}
	return nil
}

func (r *Registry) fail(info *packageInfo, reason string) {
	r.log.Warn("package load failed",
		zap.String("package", info.name),
		zap.Uint64("version", info.version),
		zap.String("reason", reason),
	)
	event.Emit(r.bus, event.PackageLoadFailed{Name: info.name, Version: info.version, Reason: reason})
	info.state = StateFailed
	r.unload(info, false)
}

func (r *Registry) unload(info *packageInfo, forced bool) {
	if cur, ok := r.entries[info.name]; ok && cur == info {
		delete(r.entries, info.name)
	}
	r.teardown(info, forced)
}

// teardown finishes an entry already removed from the map and recycles its
// slot. Loaded entries give back their dependency references; pending ones
// resolve their callbacks with nil.
func (r *Registry) teardown(info *packageInfo, forced bool) {
	name, version := info.name, info.version
	loaded := info.pkg != nil
	deps := info.deps
	cbs := info.callbacks
	r.arena.Free(info.slot)

	if loaded {
		for _, d := range deps {
			depInfo, ok := r.current(d.name, d.version)
			if !ok {
				continue
			}
			if err := r.release(depInfo); err != nil {
				r.log.Error("release dependency",
					zap.String("package", name),
					zap.String("dependency", d.name),
					zap.Error(err),
				)
			}
		}
		r.decoder.Remove(name)
	} else {
		for _, cb := range cbs {
			cb(nil)
		}
	}

	r.log.Debug("package unloaded",
		zap.String("package", name),
		zap.Uint64("version", version),
		zap.Bool("loaded", loaded),
		zap.Bool("forced", forced),
	)
	event.Emit(r.bus, event.PackageUnloaded{Name: name, Version: version, Loaded: loaded, Forced: forced})
}

func (r *Registry) violation(name, detail string) {
	r.log.Error("ui package contract violation",
		zap.String("package", name),
		zap.String("detail", detail),
	)
	event.Emit(r.bus, event.ContractViolation{Name: name, Detail: detail})
}
