package uipkg

import (
	"fmt"

	"github.com/l1jgo/uiasset/internal/core/pool"
)

// State is the lifecycle position of a package entry.
type State int

const (
	StateUncreated State = iota
	StatePending
	StateLoaded
	StateFailed
	StateRemoved
)

func (s State) String() string {
	switch s {
	case StateUncreated:
		return "Uncreated"
	case StatePending:
		return "Pending"
	case StateLoaded:
		return "Loaded"
	case StateFailed:
		return "Failed"
	case StateRemoved:
		return "Removed"
	default:
		return fmt.Sprintf("Unknown(%d)", int(s))
	}
}

// depRef is one reference held on a dependency, pinned to the entry version
// that received it.
type depRef struct {
	name    string
	version uint64
}

type packageInfo struct {
	slot      pool.Handle
	name      string
	version   uint64
	refCount  int
	pkg       Package
	state     State
	callbacks []Callback
	deps      []depRef
}

func resetInfo(info *packageInfo) {
	*info = packageInfo{}
}

// Stat is a read-only view of one entry.
type Stat struct {
	Name         string
	Version      uint64
	RefCount     int
	State        State
	Waiting      int // queued callbacks
	Dependencies []string
}

func (info *packageInfo) stat() Stat {
	st := Stat{
		Name:     info.name,
		Version:  info.version,
		RefCount: info.refCount,
		State:    info.state,
		Waiting:  len(info.callbacks),
	}
	if len(info.deps) > 0 {
		st.Dependencies = make([]string, len(info.deps))
		for i, d := range info.deps {
			st.Dependencies[i] = d.name
		}
	}
	return st
}
