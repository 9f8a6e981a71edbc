package system

import "time"

// Phase defines execution ordering within a single tick.
type Phase int

const (
	PhaseInput      Phase = iota // 0: drain finished generation jobs
	PhasePreUpdate               // 1: dispatch last tick's events
	PhaseUpdate                  // 2: lookahead and consumer requests
	PhasePostUpdate              // 3: derived bookkeeping
	PhaseOutput                  // 4: reports, dumps
	PhasePersist                 // 5: periodic save
	PhaseCleanup                 // 6: drop dead cache entries
)

func (p Phase) String() string {
	switch p {
	case PhaseInput:
		return "input"
	case PhasePreUpdate:
		return "pre_update"
	case PhaseUpdate:
		return "update"
	case PhasePostUpdate:
		return "post_update"
	case PhaseOutput:
		return "output"
	case PhasePersist:
		return "persist"
	case PhaseCleanup:
		return "cleanup"
	}
	return "unknown"
}

// System is anything the owning goroutine runs once per tick.
type System interface {
	Phase() Phase
	Update(dt time.Duration)
}
