package asset

// Frame is one image of a Clip.
type Frame struct {
	Texture  *Handle
	AddDelay float32
}

// Clip is a frame sequence. It holds one use-count on every frame texture for
// its whole lifetime, so the textures (and through them their package) stay
// acquired while the clip exists.
type Clip struct {
	Interval    float32
	RepeatDelay float32
	Swing       bool

	frames   []Frame
	refCount int

	OnAcquire func(*Clip)
	OnRelease func(*Clip)
}

func NewClip(interval, repeatDelay float32, swing bool, frames []Frame) *Clip {
	c := &Clip{
		Interval:    interval,
		RepeatDelay: repeatDelay,
		Swing:       swing,
		frames:      frames,
	}
	for _, f := range frames {
		if f.Texture != nil {
			f.Texture.AddRef()
		}
	}
	return c
}

func (c *Clip) Frames() []Frame { return c.frames }
func (c *Clip) RefCount() int   { return c.refCount }
func (c *Clip) Disposed() bool  { return c.frames == nil }

func (c *Clip) AddRef() {
	if c.frames == nil {
		return // already disposed
	}
	c.refCount++
	if c.refCount == 1 && c.OnAcquire != nil {
		c.OnAcquire(c)
	}
}

func (c *Clip) ReleaseRef() {
	if c.frames == nil || c.refCount == 0 {
		return
	}
	c.refCount--
	if c.refCount == 0 && c.OnRelease != nil {
		c.OnRelease(c)
	}
}

// Dispose drops the frame texture use-counts taken at construction.
func (c *Clip) Dispose() {
	for _, f := range c.frames {
		if f.Texture != nil {
			f.Texture.ReleaseRef()
		}
	}
	c.frames = nil
}
