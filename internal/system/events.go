package system

import (
	"time"

	"github.com/l1jgo/uiasset/internal/core/event"
	coresys "github.com/l1jgo/uiasset/internal/core/system"
)

// EventDispatchSystem 派送上一個 tick 產生的生命週期事件。
// Phase 1 (PreUpdate).
type EventDispatchSystem struct {
	bus *event.Bus
}

func NewEventDispatchSystem(bus *event.Bus) *EventDispatchSystem {
	return &EventDispatchSystem{bus: bus}
}

func (s *EventDispatchSystem) Phase() coresys.Phase { return coresys.PhasePreUpdate }

func (s *EventDispatchSystem) Update(_ time.Duration) {
	s.bus.Flush()
}
