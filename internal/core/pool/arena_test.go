package pool

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type slot struct {
	name string
	refs int
}

func resetSlot(s *slot) { *s = slot{} }

func TestArenaReusesFreedSlots(t *testing.T) {
	a := NewArena(resetSlot)

	h1, s1 := a.Alloc()
	s1.name = "Common"
	s1.refs = 3
	h2, _ := a.Alloc()
	assert.Equal(t, 2, a.Len())

	a.Free(h1)
	assert.False(t, a.Alive(h1))
	assert.Equal(t, 1, a.Len())
	assert.Empty(t, s1.name, "freed slot must be reset")
	assert.Zero(t, s1.refs)

	h3, s3 := a.Alloc()
	assert.Same(t, s1, s3)
	assert.Equal(t, h1.Index(), h3.Index())
	assert.Equal(t, h1.Generation()+1, h3.Generation())
	assert.Equal(t, 2, a.Cap())

	_, ok := a.Get(h1)
	assert.False(t, ok, "stale handle must miss after reuse")
	got, ok := a.Get(h3)
	require.True(t, ok)
	assert.Same(t, s3, got)
	assert.True(t, a.Alive(h2))
}

func TestArenaFreeStaleHandleIsNoop(t *testing.T) {
	a := NewArena[slot](nil)
	h, _ := a.Alloc()
	a.Free(h)
	a.Free(h)
	assert.Equal(t, 0, a.Len())

	h2, _ := a.Alloc()
	a.Free(h)
	assert.True(t, a.Alive(h2))
	assert.Equal(t, 1, a.Len())
}

func TestHandleEncoding(t *testing.T) {
	h := NewHandle(7, 42)
	assert.Equal(t, uint32(7), h.Index())
	assert.Equal(t, uint32(42), h.Generation())
	assert.False(t, NewArena[slot](nil).Alive(h))
}
