package system

import (
	"time"

	coresys "github.com/l1jgo/uiasset/internal/core/system"
	"go.uber.org/zap"
)

type ticker interface {
	Tick(n uint64) error
}

// ScriptSystem 每個 tick 呼叫情境腳本的 on_tick。Phase 2 (Update).
type ScriptSystem struct {
	script ticker
	log    *zap.Logger
	tick   uint64
}

func NewScriptSystem(script ticker, log *zap.Logger) *ScriptSystem {
	if log == nil {
		log = zap.NewNop()
	}
	return &ScriptSystem{script: script, log: log}
}

func (s *ScriptSystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (s *ScriptSystem) Update(_ time.Duration) {
	s.tick++
	if err := s.script.Tick(s.tick); err != nil {
		s.log.Error("scenario tick", zap.Uint64("tick", s.tick), zap.Error(err))
	}
}
