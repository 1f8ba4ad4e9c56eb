package uipkg

import (
	"testing"

	"github.com/l1jgo/uiasset/internal/asset"
	"github.com/l1jgo/uiasset/internal/core/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type assetLoad struct {
	pkg, name, ext string
	kind           asset.Kind
	done           func(*asset.Handle)
}

type fakeAssetLoader struct {
	pending  []assetLoad
	released []*asset.Handle
}

func (l *fakeAssetLoader) LoadTexture(pkg, name, ext string, done func(*asset.Handle)) {
	l.pending = append(l.pending, assetLoad{pkg: pkg, name: name, ext: ext, kind: asset.KindTexture, done: done})
}

func (l *fakeAssetLoader) LoadAudio(pkg, name, ext string, done func(*asset.Handle)) {
	l.pending = append(l.pending, assetLoad{pkg: pkg, name: name, ext: ext, kind: asset.KindAudio, done: done})
}

func (l *fakeAssetLoader) ReleaseTexture(h *asset.Handle) { l.released = append(l.released, h) }
func (l *fakeAssetLoader) ReleaseAudio(h *asset.Handle)   { l.released = append(l.released, h) }

// finish resolves the oldest parked asset load. A nil-kind result (fail set)
// delivers nil; otherwise a fresh handle is created and returned.
func (l *fakeAssetLoader) finish(t *testing.T, fail bool) *asset.Handle {
	t.Helper()
	require.NotEmpty(t, l.pending, "no pending asset load")
	p := l.pending[0]
	l.pending = l.pending[1:]
	if fail {
		p.done(nil)
		return nil
	}
	h := asset.NewHandle(p.kind, p.name, []byte(p.name))
	p.done(h)
	return h
}

type bridgeFixture struct {
	reg    *Registry
	loader *fakeLoader
	assets *fakeAssetLoader
	bridge *RefBridge
}

// newBridgeFixture registers "UI" with one reference and completes its load.
func newBridgeFixture(t *testing.T) *bridgeFixture {
	t.Helper()
	reg, loader, _ := newTestRegistry(nil)
	assets := &fakeAssetLoader{}
	f := &bridgeFixture{
		reg:    reg,
		loader: loader,
		assets: assets,
		bridge: NewRefBridge(reg, assets, nil),
	}
	reg.AddPackage("UI", nil, true)
	loader.complete(t, "UI", []byte("ok"))
	return f
}

func (f *bridgeFixture) load(t *testing.T, kind asset.Kind) (*asset.Handle, []*asset.Handle) {
	t.Helper()
	var delivered []*asset.Handle
	err := f.bridge.LoadAsset(AssetRequest{Package: "UI", Name: "atlas0", Ext: ".png", Kind: kind}, func(h *asset.Handle) {
		delivered = append(delivered, h)
	})
	require.NoError(t, err)
	assert.Equal(t, 2, refCount(t, f.reg, "UI"), "package is pinned while the asset loads")
	h := f.assets.finish(t, false)
	return h, delivered
}

func TestOrphanAssetRequestIsDropped(t *testing.T) {
	f := newBridgeFixture(t)
	bus := event.NewBus()
	f.reg.WithBus(bus)
	var orphans []event.OrphanAssetRequest
	event.Subscribe(bus, func(e event.OrphanAssetRequest) { orphans = append(orphans, e) })

	called := false
	err := f.bridge.LoadAsset(AssetRequest{Package: "Gone", Name: "bg", Kind: asset.KindTexture}, func(*asset.Handle) {
		called = true
	})
	assert.ErrorIs(t, err, ErrUnknownPackage)
	assert.False(t, called)
	assert.Empty(t, f.assets.pending)

	bus.Flush()
	require.Len(t, orphans, 1)
	assert.Equal(t, "Gone", orphans[0].Package)
}

func TestUnsupportedKindTakesNoReference(t *testing.T) {
	f := newBridgeFixture(t)
	err := f.bridge.LoadAsset(AssetRequest{Package: "UI", Name: "font", Kind: asset.Kind(7)}, nil)
	assert.ErrorIs(t, err, ErrUnsupportedKind)
	assert.Equal(t, 1, refCount(t, f.reg, "UI"))
}

func TestLoadedAssetReturnsPin(t *testing.T) {
	f := newBridgeFixture(t)
	h, delivered := f.load(t, asset.KindTexture)

	require.Equal(t, []*asset.Handle{h}, delivered)
	assert.Equal(t, 1, refCount(t, f.reg, "UI"))
	assert.Equal(t, 1, f.bridge.Len())
}

func TestAcquireReleaseHooksFollowUseCount(t *testing.T) {
	f := newBridgeFixture(t)
	h, _ := f.load(t, asset.KindAudio)

	h.AddRef()
	assert.Equal(t, 2, refCount(t, f.reg, "UI"))
	h.AddRef()
	assert.Equal(t, 2, refCount(t, f.reg, "UI"), "only the 0→1 transition adds a reference")

	h.ReleaseRef()
	assert.Equal(t, 2, refCount(t, f.reg, "UI"))
	h.ReleaseRef()
	assert.Equal(t, 1, refCount(t, f.reg, "UI"))
}

func TestAssetKeepsPackageAlive(t *testing.T) {
	f := newBridgeFixture(t)
	h, _ := f.load(t, asset.KindTexture)
	h.AddRef()

	require.NoError(t, f.reg.ReleaseRef("UI"))
	assert.Equal(t, 1, refCount(t, f.reg, "UI"), "the in-use asset still holds its package")

	h.ReleaseRef()
	assert.Zero(t, f.reg.Len())
}

func TestDisposeBalancesReferences(t *testing.T) {
	tests := []struct {
		name     string
		acquires int
		releases int
	}{
		{name: "balanced", acquires: 1, releases: 1},
		{name: "still in use", acquires: 3, releases: 1},
		{name: "never used", acquires: 0, releases: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newBridgeFixture(t)
			h, _ := f.load(t, asset.KindTexture)

			for i := 0; i < tt.acquires; i++ {
				h.AddRef()
			}
			for i := 0; i < tt.releases; i++ {
				h.ReleaseRef()
			}
			h.Dispose()

			assert.Equal(t, 1, refCount(t, f.reg, "UI"), "dispose leaves a net-zero change")
			assert.Zero(t, f.bridge.Len())
			assert.Equal(t, []*asset.Handle{h}, f.assets.released)

			h.AddRef()
			h.ReleaseRef()
			assert.Equal(t, 1, refCount(t, f.reg, "UI"), "disposed handles are unbound")
		})
	}
}

func TestHandleInUseAtLoadKeepsPin(t *testing.T) {
	f := newBridgeFixture(t)
	err := f.bridge.LoadAsset(AssetRequest{Package: "UI", Name: "clip", Kind: asset.KindAudio}, nil)
	require.NoError(t, err)

	p := f.assets.pending[0]
	f.assets.pending = nil
	h := asset.NewHandle(asset.KindAudio, "clip", nil)
	h.AddRef() // taken before any hooks are bound
	p.done(h)

	assert.Equal(t, 2, refCount(t, f.reg, "UI"), "pin stands in for the acquire reference")
	h.ReleaseRef()
	assert.Equal(t, 1, refCount(t, f.reg, "UI"))
}

func TestReceiverAcquireInsideDone(t *testing.T) {
	f := newBridgeFixture(t)
	err := f.bridge.LoadAsset(AssetRequest{Package: "UI", Name: "icon", Kind: asset.KindTexture}, func(h *asset.Handle) {
		h.AddRef()
	})
	require.NoError(t, err)
	h := f.assets.finish(t, false)

	assert.Equal(t, 2, refCount(t, f.reg, "UI"))
	h.ReleaseRef()
	assert.Equal(t, 1, refCount(t, f.reg, "UI"))
}

func TestFailedAssetLoadReturnsPin(t *testing.T) {
	f := newBridgeFixture(t)
	var delivered []*asset.Handle
	err := f.bridge.LoadAsset(AssetRequest{Package: "UI", Name: "missing", Kind: asset.KindTexture}, func(h *asset.Handle) {
		delivered = append(delivered, h)
	})
	require.NoError(t, err)
	f.assets.finish(t, true)

	assert.Equal(t, []*asset.Handle{nil}, delivered)
	assert.Equal(t, 1, refCount(t, f.reg, "UI"))
	assert.Zero(t, f.bridge.Len())
}

func TestStaleAssetLoadIsReleased(t *testing.T) {
	f := newBridgeFixture(t)
	called := false
	err := f.bridge.LoadAsset(AssetRequest{Package: "UI", Name: "bg", Kind: asset.KindTexture}, func(*asset.Handle) {
		called = true
	})
	require.NoError(t, err)

	require.True(t, f.reg.ForceUnload("UI"))
	f.reg.AddPackage("UI", nil, true)
	h := f.assets.finish(t, false)

	assert.False(t, called)
	assert.Equal(t, []*asset.Handle{h}, f.assets.released)
	assert.Zero(t, f.bridge.Len())
	assert.Equal(t, 1, refCount(t, f.reg, "UI"))
}

func TestHooksIgnoreReloadedPackage(t *testing.T) {
	f := newBridgeFixture(t)
	h, _ := f.load(t, asset.KindTexture)
	h.AddRef()

	require.True(t, f.reg.ForceUnload("UI"))
	f.reg.AddPackage("UI", nil, true)

	h.ReleaseRef()
	h.AddRef()
	assert.Equal(t, 1, refCount(t, f.reg, "UI"))
	h.Dispose()
	assert.Equal(t, 1, refCount(t, f.reg, "UI"))
}

func TestPinReleaseCanUnloadPackage(t *testing.T) {
	f := newBridgeFixture(t)
	var delivered *asset.Handle
	err := f.bridge.LoadAsset(AssetRequest{Package: "UI", Name: "bg", Kind: asset.KindTexture}, func(h *asset.Handle) {
		delivered = h
	})
	require.NoError(t, err)
	require.NoError(t, f.reg.ReleaseRef("UI"))
	assert.Equal(t, 1, refCount(t, f.reg, "UI"))

	h := f.assets.finish(t, false)
	assert.Same(t, h, delivered)
	assert.Zero(t, f.reg.Len())

	h.AddRef()
	h.Dispose()
	assert.Zero(t, f.reg.Len())
}

func TestCloseDisposesLiveHandles(t *testing.T) {
	f := newBridgeFixture(t)
	a, _ := f.load(t, asset.KindTexture)
	b, _ := f.load(t, asset.KindAudio)
	a.AddRef()
	assert.Equal(t, []*asset.Handle{a, b}, f.bridge.Live())

	f.bridge.Close()
	assert.True(t, a.Disposed())
	assert.True(t, b.Disposed())
	assert.Zero(t, f.bridge.Len())
	assert.Equal(t, 1, refCount(t, f.reg, "UI"))
	assert.Len(t, f.assets.released, 2)
}

func TestClipKeepsPackageThroughFrames(t *testing.T) {
	f := newBridgeFixture(t)
	tex, _ := f.load(t, asset.KindTexture)

	clip := asset.NewClip(0.1, 0, false, []asset.Frame{{Texture: tex}, {Texture: tex}})
	assert.Equal(t, 2, refCount(t, f.reg, "UI"))

	clip.Dispose()
	assert.Equal(t, 1, refCount(t, f.reg, "UI"))
}
