package system

import (
	"time"

	"github.com/stellarcache/galaxy/internal/core/job"
	coresys "github.com/stellarcache/galaxy/internal/core/system"
)

// JobFinishSystem runs the finish step of every generation job the workers
// completed since the last tick. Phase 0 (Input).
type JobFinishSystem struct {
	queue *job.Queue
	done  int
}

func NewJobFinishSystem(queue *job.Queue) *JobFinishSystem {
	return &JobFinishSystem{queue: queue}
}

func (s *JobFinishSystem) Phase() coresys.Phase { return coresys.PhaseInput }

func (s *JobFinishSystem) Update(_ time.Duration) {
	s.done += s.queue.FinishJobs()
}

// Finished counts jobs finished through this system.
func (s *JobFinishSystem) Finished() int { return s.done }
