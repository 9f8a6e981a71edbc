package system

import (
	"cmp"
	"slices"
	"time"
)

// Runner executes systems in phase order each tick. It is the owning
// goroutine for every cache and generator it drives.
type Runner struct {
	systems []System
	sorted  bool

	ticks   uint64
	slowest time.Duration
}

func NewRunner() *Runner {
	return &Runner{
		systems: make([]System, 0, 8),
	}
}

func (r *Runner) Register(s System) {
	r.systems = append(r.systems, s)
	r.sorted = false
}

// Tick runs every system once. Systems of one phase keep registration order.
func (r *Runner) Tick(dt time.Duration) {
	r.ensureSorted()
	start := time.Now()
	for _, s := range r.systems {
		s.Update(dt)
	}
	r.ticks++
	if d := time.Since(start); d > r.slowest {
		r.slowest = d
	}
}

// TickPhase runs only the systems of one phase. Used between full ticks to
// pick up finished jobs with less latency; not counted as a tick.
func (r *Runner) TickPhase(phase Phase, dt time.Duration) {
	r.ensureSorted()
	for _, s := range r.systems {
		if s.Phase() == phase {
			s.Update(dt)
		}
	}
}

// Len returns the number of registered systems.
func (r *Runner) Len() int {
	return len(r.systems)
}

// Ticks counts full ticks run.
func (r *Runner) Ticks() uint64 { return r.ticks }

// Slowest is the longest full tick so far.
func (r *Runner) Slowest() time.Duration { return r.slowest }

func (r *Runner) ensureSorted() {
	if r.sorted {
		return
	}
	slices.SortStableFunc(r.systems, func(a, b System) int {
		return cmp.Compare(a.Phase(), b.Phase())
	})
	r.sorted = true
}
