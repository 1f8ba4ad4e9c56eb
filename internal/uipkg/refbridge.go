package uipkg

import (
	"fmt"
	"sort"

	"github.com/l1jgo/uiasset/internal/asset"
	"github.com/l1jgo/uiasset/internal/core/event"
	"go.uber.org/zap"
)

// AssetLoader fetches texture and audio payloads asynchronously. Each done
// is called exactly once, from any goroutine; nil signals failure.
type AssetLoader interface {
	LoadTexture(pkg, name, ext string, done func(*asset.Handle))
	LoadAudio(pkg, name, ext string, done func(*asset.Handle))
	ReleaseTexture(h *asset.Handle)
	ReleaseAudio(h *asset.Handle)
}

// AssetRequest names one asset inside a package.
type AssetRequest struct {
	Package string
	Name    string
	Ext     string
	Kind    asset.Kind
}

func (req AssetRequest) String() string {
	return req.Package + "/" + req.Name + req.Ext
}

type kindOps struct {
	load    func(pkg, name, ext string, done func(*asset.Handle))
	release func(*asset.Handle)
}

type binding struct {
	pkg     string
	version uint64
	handle  *asset.Handle
}

// RefBridge makes loaded asset handles hold references on their package:
// one while the handle's use-count is above zero.
type RefBridge struct {
	reg      *Registry
	ops      [len(asset.Kinds)]kindOps
	bindings map[uint64]binding
	log      *zap.Logger
}

func NewRefBridge(reg *Registry, loader AssetLoader, log *zap.Logger) *RefBridge {
	if log == nil {
		log = zap.NewNop()
	}
	b := &RefBridge{
		reg:      reg,
		bindings: make(map[uint64]binding, 128),
		log:      log.Named("refbridge"),
	}
	b.ops[asset.KindTexture] = kindOps{load: loader.LoadTexture, release: loader.ReleaseTexture}
	b.ops[asset.KindAudio] = kindOps{load: loader.LoadAudio, release: loader.ReleaseAudio}
	return b
}

// LoadAsset loads one asset of a registered package. The package is pinned
// with a reference until the load resolves. Requests against a package that
// is not registered are dropped without calling done.
func (b *RefBridge) LoadAsset(req AssetRequest, done func(*asset.Handle)) error {
	if !req.Kind.Valid() {
		return fmt.Errorf("load %s: %w: %s", req, ErrUnsupportedKind, req.Kind)
	}
	info, ok := b.reg.entries[req.Package]
	if !ok {
		b.log.Warn("asset requested for unregistered package",
			zap.String("package", req.Package),
			zap.String("asset", req.Name),
		)
		event.Emit(b.reg.bus, event.OrphanAssetRequest{Package: req.Package, Asset: req.Name})
		return fmt.Errorf("load %s: %w", req, ErrUnknownPackage)
	}

	info.refCount++
	version := info.version
	b.ops[req.Kind].load(req.Package, req.Name, req.Ext, func(h *asset.Handle) {
		b.reg.deliver(func() { b.onLoaded(req, version, h, done) })
	})
	return nil
}

func (b *RefBridge) onLoaded(req AssetRequest, version uint64, h *asset.Handle, done func(*asset.Handle)) {
	ops := b.ops[req.Kind]
	info, ok := b.reg.current(req.Package, version)
	if !ok {
		// The package was torn down while loading; its pin went with it.
		if h != nil {
			ops.release(h)
		}
		b.log.Debug("discard stale asset load",
			zap.String("asset", req.String()),
			zap.Uint64("version", version),
		)
		event.Emit(b.reg.bus, event.StaleCompletion{Name: req.Package, Version: version, Kind: req.Kind.String()})
		return
	}

	if h == nil {
		b.releaseRef(info)
		if done != nil {
			done(nil)
		}
		return
	}

	b.bindings[h.ID()] = binding{pkg: req.Package, version: version, handle: h}
	h.Bind(b, ops.release)
	event.Emit(b.reg.bus, event.AssetBound{Package: req.Package, AssetID: h.ID(), Kind: req.Kind.String()})

	// A handle already in use keeps the pin as its acquire reference.
	if h.RefCount() == 0 {
		b.releaseRef(info)
	}
	if done != nil {
		done(h)
	}
}

// OnAcquire implements asset.Hooks.
func (b *RefBridge) OnAcquire(h *asset.Handle) {
	if info, ok := b.boundInfo(h); ok {
		info.refCount++
	}
}

// OnRelease implements asset.Hooks.
func (b *RefBridge) OnRelease(h *asset.Handle) {
	if info, ok := b.boundInfo(h); ok {
		b.releaseRef(info)
	}
}

// OnDispose implements asset.Hooks. Dispose skips the normal release path,
// so a handle still in use gives its reference back here.
func (b *RefBridge) OnDispose(h *asset.Handle) {
	bnd, ok := b.bindings[h.ID()]
	if !ok {
		return
	}
	delete(b.bindings, h.ID())
	event.Emit(b.reg.bus, event.AssetDisposed{Package: bnd.pkg, AssetID: h.ID(), Kind: h.Kind().String()})

	info, ok := b.reg.current(bnd.pkg, bnd.version)
	if !ok {
		return
	}
	if h.RefCount() > 0 {
		b.releaseRef(info)
	}
}

// Len returns the number of bound handles.
func (b *RefBridge) Len() int { return len(b.bindings) }

// Live returns the bound handles ordered by id.
func (b *RefBridge) Live() []*asset.Handle {
	out := make([]*asset.Handle, 0, len(b.bindings))
	for _, bnd := range b.bindings {
		out = append(out, bnd.handle)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}

// Close disposes every bound handle.
func (b *RefBridge) Close() {
	for _, h := range b.Live() {
		h.Dispose()
	}
}

// boundInfo resolves h's binding to its package entry, provided the entry is
// still the version the handle was loaded against.
func (b *RefBridge) boundInfo(h *asset.Handle) (*packageInfo, bool) {
	bnd, ok := b.bindings[h.ID()]
	if !ok {
		return nil, false
	}
	return b.reg.current(bnd.pkg, bnd.version)
}

func (b *RefBridge) releaseRef(info *packageInfo) {
	if err := b.reg.release(info); err != nil {
		b.log.Error("release package from asset", zap.String("package", info.name), zap.Error(err))
	}
}
