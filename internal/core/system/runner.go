package system

import (
	"sort"
	"time"

	"go.uber.org/zap"
)

// Runner 依 Phase 順序執行已註冊的 System。
// 只能在迴圈 goroutine 上呼叫。
type Runner struct {
	systems []System
	sorted  bool
	ticks   uint64

	budget time.Duration // 0 = 不檢查
	log    *zap.Logger
}

func NewRunner() *Runner {
	return &Runner{
		systems: make([]System, 0, 8),
		log:     zap.NewNop(),
	}
}

// WithBudget 設定單次 tick 的時間上限；超過時記錄警告。
// 通常等於 tick_rate：載入完成通知堆積時會先反映在這裡。
func (r *Runner) WithBudget(budget time.Duration, log *zap.Logger) *Runner {
	r.budget = budget
	if log != nil {
		r.log = log.Named("runner")
	}
	return r
}

func (r *Runner) Register(s System) {
	r.systems = append(r.systems, s)
	r.sorted = false
}

// Len 回傳已註冊的 System 數量。
func (r *Runner) Len() int { return len(r.systems) }

// Ticks 回傳已執行的完整 tick 數。
func (r *Runner) Ticks() uint64 { return r.ticks }

func (r *Runner) Tick(dt time.Duration) {
	r.ensureSorted()
	start := time.Now()
	for _, s := range r.systems {
		s.Update(dt)
	}
	r.ticks++

	if r.budget > 0 {
		if elapsed := time.Since(start); elapsed > r.budget {
			r.log.Warn("tick over budget",
				zap.Uint64("tick", r.ticks),
				zap.Duration("elapsed", elapsed),
				zap.Duration("budget", r.budget),
			)
		}
	}
}

// TickPhase 只執行指定 Phase 的 System，不計入 tick 數。
// 用於在兩次完整 tick 之間（或關閉時）只收取載入完成通知。
func (r *Runner) TickPhase(phase Phase, dt time.Duration) {
	r.ensureSorted()
	for _, s := range r.systems {
		if s.Phase() == phase {
			s.Update(dt)
		}
	}
}

func (r *Runner) ensureSorted() {
	if !r.sorted {
		sort.SliceStable(r.systems, func(i, j int) bool {
			return r.systems[i].Phase() < r.systems[j].Phase()
		})
		r.sorted = true
	}
}
