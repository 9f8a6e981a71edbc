// Package job runs generation work off the owning goroutine and hands the
// results back to it.
package job

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ID identifies an enqueued job for the lifetime of its queue.
type ID uint64

// Job is split by goroutine affinity. Run executes on a worker and must not
// touch state shared with the owning goroutine. Finish executes on the owning
// goroutine, from FinishJobs or Flush.
type Job interface {
	Run(ctx context.Context)
	Finish()
}

// ErrClosed is returned by Flush once the queue has been closed.
var ErrClosed = errors.New("job queue closed")

type entry struct {
	id  ID
	job Job
}

// Queue is a worker pool with a completion channel. Enqueue, FinishJobs,
// Flush and Outstanding belong to the owning goroutine.
type Queue struct {
	in     chan entry
	work   chan entry
	done   chan entry
	ctx    context.Context
	cancel context.CancelFunc
	g      *errgroup.Group
	log    *zap.Logger

	nextID      ID
	outstanding int
	orphans     []entry
}

// NewQueue starts workers goroutines plus one dispatcher.
func NewQueue(parent context.Context, workers int, log *zap.Logger) *Queue {
	if workers < 1 {
		workers = 1
	}
	ctx, cancel := context.WithCancel(parent)
	g, gctx := errgroup.WithContext(ctx)
	q := &Queue{
		in:     make(chan entry, 64),
		work:   make(chan entry),
		done:   make(chan entry, 256),
		ctx:    ctx,
		cancel: cancel,
		g:      g,
		log:    log,
	}
	g.Go(func() error {
		q.dispatch(gctx)
		return nil
	})
	for i := 0; i < workers; i++ {
		g.Go(func() error {
			q.worker(gctx)
			return nil
		})
	}
	return q
}

// Enqueue schedules j and returns its ID. It never blocks on workers.
// On a closed queue the job skips Run and is finished on the next drain.
func (q *Queue) Enqueue(j Job) ID {
	q.nextID++
	e := entry{id: q.nextID, job: j}
	q.outstanding++
	if q.ctx.Err() != nil {
		q.orphans = append(q.orphans, e)
		return e.id
	}
	select {
	case q.in <- e:
	case <-q.ctx.Done():
		q.orphans = append(q.orphans, e)
	}
	return e.id
}

// Outstanding counts jobs enqueued but not yet finished.
func (q *Queue) Outstanding() int {
	return q.outstanding
}

// FinishJobs runs Finish for every completed job without blocking.
func (q *Queue) FinishJobs() int {
	n := q.finishOrphans()
	for {
		select {
		case e := <-q.done:
			q.finish(e)
			n++
		default:
			return n
		}
	}
}

// Flush blocks until every outstanding job, including ones enqueued by
// Finish callbacks during the flush, has finished.
func (q *Queue) Flush(ctx context.Context) error {
	q.finishOrphans()
	for q.outstanding > 0 {
		select {
		case e := <-q.done:
			q.finish(e)
		case <-ctx.Done():
			return fmt.Errorf("flush jobs: %w", ctx.Err())
		case <-q.ctx.Done():
			q.finishOrphans()
			if q.outstanding > 0 {
				return ErrClosed
			}
		}
	}
	return nil
}

// Close stops the workers. Jobs still in flight are dropped.
func (q *Queue) Close() error {
	q.cancel()
	return q.g.Wait()
}

func (q *Queue) finish(e entry) {
	q.outstanding--
	e.job.Finish()
}

func (q *Queue) finishOrphans() int {
	n := 0
	for len(q.orphans) > 0 {
		e := q.orphans[0]
		q.orphans = q.orphans[1:]
		q.finish(e)
		n++
	}
	return n
}

// dispatch keeps an unbounded backlog so Enqueue never waits on a busy pool.
func (q *Queue) dispatch(ctx context.Context) {
	var backlog []entry
	for {
		var out chan entry
		var next entry
		if len(backlog) > 0 {
			out = q.work
			next = backlog[0]
		}
		select {
		case e := <-q.in:
			backlog = append(backlog, e)
		case out <- next:
			backlog[0] = entry{}
			backlog = backlog[1:]
		case <-ctx.Done():
			return
		}
	}
}

func (q *Queue) worker(ctx context.Context) {
	for {
		select {
		case e := <-q.work:
			q.run(ctx, e)
			select {
			case q.done <- e:
			case <-ctx.Done():
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

func (q *Queue) run(ctx context.Context, e entry) {
	defer func() {
		if r := recover(); r != nil {
			q.log.Error("job panicked", zap.Uint64("job", uint64(e.id)), zap.Any("panic", r))
		}
	}()
	e.job.Run(ctx)
}
