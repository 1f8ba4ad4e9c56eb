package asset

import (
	"fmt"
	"sync/atomic"
)

// Kind is the closed set of loadable asset kinds.
type Kind int

const (
	KindTexture Kind = iota
	KindAudio

	kindCount
)

// Kinds lists every loadable kind in dispatch order.
var Kinds = [...]Kind{KindTexture, KindAudio}

func (k Kind) String() string {
	switch k {
	case KindTexture:
		return "texture"
	case KindAudio:
		return "audio"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool { return k >= 0 && k < kindCount }

// Hooks receives a handle's use-count transitions.
type Hooks interface {
	// OnAcquire fires when the use-count goes 0→1.
	OnAcquire(h *Handle)
	// OnRelease fires when the use-count goes 1→0.
	OnRelease(h *Handle)
	// OnDispose fires once, before the native payload is destroyed.
	OnDispose(h *Handle)
}

var lastID atomic.Uint64

// Handle is a loaded texture or audio clip with its own use-count.
// Handles are touched from the game loop only; only ID allocation is atomic
// because loaders create handles on their own goroutines.
type Handle struct {
	id       uint64
	kind     Kind
	name     string
	native   any
	refCount int
	disposed bool

	hooks   Hooks
	destroy func(*Handle)
}

// NewHandle wraps a decoded payload. name is the asset name inside its package.
func NewHandle(kind Kind, name string, native any) *Handle {
	return &Handle{
		id:     lastID.Add(1),
		kind:   kind,
		name:   name,
		native: native,
	}
}

func (h *Handle) ID() uint64     { return h.id }
func (h *Handle) Kind() Kind     { return h.kind }
func (h *Handle) Name() string   { return h.name }
func (h *Handle) Native() any    { return h.native }
func (h *Handle) RefCount() int  { return h.refCount }
func (h *Handle) Disposed() bool { return h.disposed }

// Bind attaches transition hooks and the function that destroys the native
// payload on Dispose. Rebinding replaces the previous hooks.
func (h *Handle) Bind(hooks Hooks, destroy func(*Handle)) {
	h.hooks = hooks
	h.destroy = destroy
}

// AddRef increments the use-count; the 0→1 transition fires OnAcquire.
func (h *Handle) AddRef() {
	if h.disposed {
		return
	}
	h.refCount++
	if h.refCount == 1 && h.hooks != nil {
		h.hooks.OnAcquire(h)
	}
}

// ReleaseRef decrements the use-count; the 1→0 transition fires OnRelease.
// Releasing at zero is ignored.
func (h *Handle) ReleaseRef() {
	if h.disposed || h.refCount == 0 {
		return
	}
	h.refCount--
	if h.refCount == 0 && h.hooks != nil {
		h.hooks.OnRelease(h)
	}
}

// Dispose fires OnDispose, destroys the native payload and detaches all hooks.
// Only the first call has any effect.
func (h *Handle) Dispose() {
	if h.disposed {
		return
	}
	h.disposed = true
	if h.hooks != nil {
		h.hooks.OnDispose(h)
	}
	if h.destroy != nil {
		h.destroy(h)
	}
	h.native = nil
	h.hooks = nil
	h.destroy = nil
}
