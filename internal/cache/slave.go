package cache

import (
	"context"
	"slices"

	"github.com/google/uuid"
	"github.com/stellarcache/galaxy/internal/core/job"
	"github.com/stellarcache/galaxy/internal/syspath"
)

// Slave is a consumer cache holding strong references. All methods belong
// to the owning goroutine.
type Slave[T any] struct {
	id       uuid.UUID
	master   *Master[T]
	strategy Strategy
	cache    map[syspath.Path]*T
	jobs     map[job.ID]struct{}
	epoch    uint64

	onComplete func()
}

func newSlave[T any](m *Master[T]) *Slave[T] {
	return &Slave[T]{
		id:       uuid.New(),
		master:   m,
		strategy: m.strategy,
		cache:    make(map[syspath.Path]*T),
		jobs:     make(map[job.ID]struct{}),
	}
}

func (s *Slave[T]) ID() uuid.UUID { return s.id }

// Attached reports whether the slave still has a master.
func (s *Slave[T]) Attached() bool { return s.master != nil }

// Len counts held objects.
func (s *Slave[T]) Len() int { return len(s.cache) }

// Outstanding counts fill jobs not yet finished.
func (s *Slave[T]) Outstanding() int { return len(s.jobs) }

// GetCached returns the object for p, asking the master on a local miss.
// A detached slave returns nil on a miss.
func (s *Slave[T]) GetCached(p syspath.Path) *T {
	key := s.strategy.Key(p)
	if obj, ok := s.cache[key]; ok {
		if s.master != nil {
			s.master.stats.SlaveHits++
		}
		return obj
	}
	if s.master == nil {
		return nil
	}
	obj := s.master.GetCached(key)
	if obj != nil {
		s.cache[key] = obj
	}
	return obj
}

// GetIfCached is GetCached without generation.
func (s *Slave[T]) GetIfCached(p syspath.Path) *T {
	key := s.strategy.Key(p)
	if obj, ok := s.cache[key]; ok {
		return obj
	}
	if s.master == nil {
		return nil
	}
	obj := s.master.GetIfCached(key)
	if obj != nil {
		s.cache[key] = obj
	}
	return obj
}

// FillCache makes every path available from this slave. Paths the master
// already holds are taken at once; the rest are generated by background jobs
// of at most the master's job size. onComplete replaces any earlier callback
// and runs once the slave has no outstanding jobs, immediately if none were
// needed.
func (s *Slave[T]) FillCache(paths []syspath.Path, onComplete func()) {
	s.onComplete = onComplete
	m := s.master
	if m == nil {
		s.complete()
		return
	}

	keys := make([]syspath.Path, 0, len(paths))
	for _, p := range paths {
		keys = append(keys, s.strategy.Key(p))
	}
	slices.SortFunc(keys, func(a, b syspath.Path) int {
		if s.strategy.Less(a, b) {
			return -1
		}
		if s.strategy.Less(b, a) {
			return 1
		}
		return 0
	})
	keys = slices.Compact(keys)

	missing := keys[:0]
	for _, key := range keys {
		if _, ok := s.cache[key]; ok {
			continue
		}
		if obj := m.lookup(key); obj != nil {
			m.stats.MasterHits++
			s.cache[key] = obj
			continue
		}
		missing = append(missing, key)
	}

	for start := 0; start < len(missing); start += m.jobSize {
		end := min(start+m.jobSize, len(missing))
		chunk := slices.Clone(missing[start:end])
		j := &fillJob[T]{
			master:   m,
			slave:    s,
			epoch:    s.epoch,
			mepoch:   m.epoch,
			paths:    chunk,
			builders: make([]func() *T, len(chunk)),
		}
		for i, key := range chunk {
			j.builders[i] = m.source.Prepare(key)
		}
		j.id = m.jobs.Enqueue(j)
		s.jobs[j.id] = struct{}{}
	}

	if len(s.jobs) == 0 {
		s.complete()
	}
}

func (s *Slave[T]) complete() {
	if s.onComplete != nil {
		s.onComplete()
	}
}

// ClearCache drops every strong reference and forgets outstanding jobs;
// their results still reach the master but no longer this slave.
func (s *Slave[T]) ClearCache() {
	s.cache = make(map[syspath.Path]*T)
	s.jobs = make(map[job.ID]struct{})
	s.onComplete = nil
	s.epoch++
}

// Close deregisters the slave from its master and drops everything it holds.
func (s *Slave[T]) Close() {
	if s.master != nil {
		s.master.removeSlave(s)
		s.master = nil
	}
	s.ClearCache()
}

// fillJob generates a chunk of keys off the owning goroutine.
type fillJob[T any] struct {
	id       job.ID
	master   *Master[T]
	slave    *Slave[T]
	epoch    uint64
	mepoch   uint64
	paths    []syspath.Path
	builders []func() *T
	results  []*T
}

func (j *fillJob[T]) Run(ctx context.Context) {
	j.results = make([]*T, 0, len(j.builders))
	for _, build := range j.builders {
		if ctx.Err() != nil {
			return
		}
		j.results = append(j.results, build())
	}
}

func (j *fillJob[T]) Finish() {
	m, s := j.master, j.slave
	if j.mepoch != m.epoch {
		m.stats.Discarded += uint64(len(j.results))
		return
	}
	attached := s.master == m && m.hasSlave(s) && s.epoch == j.epoch

	for i, obj := range j.results {
		m.stats.Generated++
		obj = m.add(j.paths[i], obj)
		if attached && obj != nil {
			s.cache[j.paths[i]] = obj
		}
	}

	if !attached {
		return
	}
	delete(s.jobs, j.id)
	if len(s.jobs) == 0 {
		s.complete()
	}
}
