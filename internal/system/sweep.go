package system

import (
	"time"

	coresys "github.com/l1jgo/uiasset/internal/core/system"
	"go.uber.org/zap"
)

type sweeper interface {
	UnloadUnused() int
}

// SweepSystem 每 N 個 tick 卸載引用數歸零的 UI 包。
// Phase 4 (Cleanup).
type SweepSystem struct {
	mgr       sweeper
	log       *zap.Logger
	tickCount int
	interval  int // 0 = 停用
}

func NewSweepSystem(mgr sweeper, intervalTicks int, log *zap.Logger) *SweepSystem {
	if log == nil {
		log = zap.NewNop()
	}
	return &SweepSystem{mgr: mgr, log: log, interval: intervalTicks}
}

func (s *SweepSystem) Phase() coresys.Phase { return coresys.PhaseCleanup }

func (s *SweepSystem) Update(_ time.Duration) {
	if s.interval <= 0 {
		return
	}
	s.tickCount++
	if s.tickCount < s.interval {
		return
	}
	s.tickCount = 0
	// 連鎖依賴由 UnloadUnused 一次清完
	if n := s.mgr.UnloadUnused(); n > 0 {
		s.log.Debug("swept unused packages", zap.Int("removed", n))
	}
}
