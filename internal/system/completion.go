package system

import (
	"time"

	coresys "github.com/l1jgo/uiasset/internal/core/system"
)

type pumper interface {
	Pump() int
}

type pumpObserver interface {
	ObservePump(n int)
}

// CompletionSystem 在每個 tick 開頭套用佇列中的載入完成通知。
// Phase 0 (Input).
type CompletionSystem struct {
	mgr pumper
	obs pumpObserver
}

// NewCompletionSystem 建立系統；obs 可為 nil。
func NewCompletionSystem(mgr pumper, obs pumpObserver) *CompletionSystem {
	return &CompletionSystem{mgr: mgr, obs: obs}
}

func (s *CompletionSystem) Phase() coresys.Phase { return coresys.PhaseInput }

func (s *CompletionSystem) Update(_ time.Duration) {
	n := s.mgr.Pump()
	if s.obs != nil {
		s.obs.ObservePump(n)
	}
}
