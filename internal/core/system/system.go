package system

import "time"

// Phase defines execution ordering within a single tick.
type Phase int

const (
	PhaseInput      Phase = iota // 0: 收取載入完成通知
	PhasePreUpdate               // 1: 派送上個 tick 的生命週期事件
	PhaseUpdate                  // 2: 宿主邏輯（情境腳本）
	PhasePostUpdate              // 3: 指標、診斷
	PhaseCleanup                 // 4: 延後清除未使用的包
)

func (p Phase) String() string {
	switch p {
	case PhaseInput:
		return "Input"
	case PhasePreUpdate:
		return "PreUpdate"
	case PhaseUpdate:
		return "Update"
	case PhasePostUpdate:
		return "PostUpdate"
	case PhaseCleanup:
		return "Cleanup"
	default:
		return "Unknown"
	}
}

// System is the interface every loop system implements.
type System interface {
	Phase() Phase
	Update(dt time.Duration)
}
