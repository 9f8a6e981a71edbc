package cache

import (
	"runtime"
	"weak"

	"github.com/stellarcache/galaxy/internal/core/job"
	"github.com/stellarcache/galaxy/internal/syspath"
	"go.uber.org/zap"
)

// Stats counts cache traffic since the last reset.
type Stats struct {
	SlaveHits  uint64
	MasterHits uint64
	Misses     uint64
	Generated  uint64
	Discarded  uint64
	Evicted    uint64
}

// Master is the process-wide deduplicating tier. Its attic holds weak
// pointers only. All methods belong to the owning goroutine.
type Master[T any] struct {
	name     string
	strategy Strategy
	source   Source[T]
	jobs     *job.Queue
	jobSize  int
	log      *zap.Logger

	attic  map[syspath.Path]weak.Pointer[T]
	slaves map[*Slave[T]]struct{}
	dead   chan syspath.Path
	stats  Stats
	epoch  uint64
	closed bool
}

func NewMaster[T any](name string, strategy Strategy, source Source[T], jobs *job.Queue, log *zap.Logger) *Master[T] {
	return &Master[T]{
		name:     name,
		strategy: strategy,
		source:   source,
		jobs:     jobs,
		jobSize:  DefaultJobSize,
		log:      log,
		attic:    make(map[syspath.Path]weak.Pointer[T]),
		slaves:   make(map[*Slave[T]]struct{}),
		dead:     make(chan syspath.Path, 1024),
	}
}

// SetJobSize changes how many paths a fill job covers.
func (m *Master[T]) SetJobSize(n int) {
	if n < 1 {
		n = 1
	}
	m.jobSize = n
}

func (m *Master[T]) Name() string { return m.name }

// GetCached returns the live object for p, generating it synchronously on a miss.
func (m *Master[T]) GetCached(p syspath.Path) *T {
	key := m.strategy.Key(p)
	if obj := m.lookup(key); obj != nil {
		m.stats.MasterHits++
		return obj
	}
	m.stats.Misses++
	obj := m.source.Generate(key)
	m.stats.Generated++
	return m.add(key, obj)
}

// GetIfCached returns the live object for p or nil. It never generates.
func (m *Master[T]) GetIfCached(p syspath.Path) *T {
	return m.lookup(m.strategy.Key(p))
}

// Len counts attic entries, including dead ones not yet processed.
func (m *Master[T]) Len() int {
	return len(m.attic)
}

// Slaves counts registered slaves.
func (m *Master[T]) Slaves() int {
	return len(m.slaves)
}

func (m *Master[T]) lookup(key syspath.Path) *T {
	w, ok := m.attic[key]
	if !ok {
		return nil
	}
	obj := w.Value()
	if obj == nil {
		delete(m.attic, key)
		m.stats.Evicted++
	}
	return obj
}

// add publishes obj under key. If a live object already exists the first
// one wins and is returned in place of obj.
func (m *Master[T]) add(key syspath.Path, obj *T) *T {
	if obj == nil {
		return nil
	}
	if existing := m.lookup(key); existing != nil {
		if existing != obj {
			m.stats.Discarded++
		}
		return existing
	}
	m.attic[key] = weak.Make(obj)
	runtime.AddCleanup(obj, m.notifyDead, key)
	return obj
}

// notifyDead runs on the runtime's cleanup goroutine. It only posts the key;
// the attic is touched by ProcessDead on the owning goroutine.
func (m *Master[T]) notifyDead(key syspath.Path) {
	select {
	case m.dead <- key:
	default:
	}
}

// RemoveFromAttic drops key if its object has been collected and reports
// whether an entry went away.
func (m *Master[T]) RemoveFromAttic(key syspath.Path) bool {
	w, ok := m.attic[key]
	if !ok || w.Value() != nil {
		return false
	}
	delete(m.attic, key)
	m.stats.Evicted++
	return true
}

// ProcessDead drains deregistration messages from collected objects and
// returns how many entries it removed. Messages for keys a Sweep already
// dropped, or that were refilled since, count for nothing.
func (m *Master[T]) ProcessDead() int {
	n := 0
	for {
		select {
		case key := <-m.dead:
			if m.RemoveFromAttic(key) {
				n++
			}
		default:
			return n
		}
	}
}

// Sweep drops every dead entry, covering messages lost to a full channel.
func (m *Master[T]) Sweep() int {
	n := 0
	for key, w := range m.attic {
		if w.Value() == nil {
			delete(m.attic, key)
			m.stats.Evicted++
			n++
		}
	}
	return n
}

// NewSlave registers a consumer cache.
func (m *Master[T]) NewSlave() *Slave[T] {
	s := newSlave(m)
	if !m.closed {
		m.slaves[s] = struct{}{}
	} else {
		s.master = nil
	}
	return s
}

func (m *Master[T]) removeSlave(s *Slave[T]) {
	delete(m.slaves, s)
}

func (m *Master[T]) hasSlave(s *Slave[T]) bool {
	_, ok := m.slaves[s]
	return ok
}

// ClearCache empties every slave and forgets every attic entry, so the next
// request regenerates even if an old object is still referenced elsewhere.
// Jobs queued before the clear finish without publishing their results.
func (m *Master[T]) ClearCache() {
	for s := range m.slaves {
		s.ClearCache()
	}
	clear(m.attic)
	m.epoch++
}

// Stats returns the counters.
func (m *Master[T]) Stats() Stats {
	return m.stats
}

// LogStatistics writes the counters and optionally resets them.
func (m *Master[T]) LogStatistics(reset bool) {
	m.log.Info("cache statistics",
		zap.String("cache", m.name),
		zap.Int("entries", len(m.attic)),
		zap.Int("slaves", len(m.slaves)),
		zap.Uint64("slave_hits", m.stats.SlaveHits),
		zap.Uint64("master_hits", m.stats.MasterHits),
		zap.Uint64("misses", m.stats.Misses),
		zap.Uint64("generated", m.stats.Generated),
		zap.Uint64("discarded", m.stats.Discarded),
		zap.Uint64("evicted", m.stats.Evicted),
	)
	for s := range m.slaves {
		m.log.Debug("slave cache",
			zap.String("cache", m.name),
			zap.String("slave", s.id.String()),
			zap.Int("entries", len(s.cache)),
			zap.Int("jobs", len(s.jobs)),
		)
	}
	if reset {
		m.stats = Stats{}
	}
}

// Close detaches every slave. Detached slaves keep what they hold but return
// nil on a miss.
func (m *Master[T]) Close() {
	for s := range m.slaves {
		s.master = nil
	}
	clear(m.slaves)
	m.closed = true
}
