package cache

import (
	"context"
	"runtime"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stellarcache/galaxy/internal/core/job"
	"github.com/stellarcache/galaxy/internal/syspath"
	"go.uber.org/zap"
)

type testObj struct {
	path   syspath.Path
	serial int64
	name   string
}

type countingSource struct {
	serial    atomic.Int64
	generated atomic.Int64
	prepared  int
}

func (c *countingSource) build(key syspath.Path) *testObj {
	c.generated.Add(1)
	return &testObj{path: key, serial: c.serial.Add(1), name: key.String()}
}

func (c *countingSource) Generate(key syspath.Path) *testObj {
	return c.build(key)
}

func (c *countingSource) Prepare(key syspath.Path) func() *testObj {
	c.prepared++
	return func() *testObj { return c.build(key) }
}

func newTestMaster(t *testing.T, strategy Strategy) (*Master[testObj], *countingSource, *job.Queue) {
	t.Helper()
	q := job.NewQueue(context.Background(), 4, zap.NewNop())
	t.Cleanup(func() { q.Close() })
	src := &countingSource{}
	return NewMaster[testObj]("test", strategy, src, q, zap.NewNop()), src, q
}

func flush(t *testing.T, q *job.Queue) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := q.Flush(ctx); err != nil {
		t.Fatalf("Flush: %v", err)
	}
}

func TestMasterDeduplicatesAcrossSlaves(t *testing.T) {
	m, src, _ := newTestMaster(t, SectorStrategy{})
	a := m.NewSlave()
	b := m.NewSlave()

	x := a.GetCached(syspath.System(1, 2, 3, 4))
	y := b.GetCached(syspath.Sector(1, 2, 3))
	if x != y {
		t.Fatalf("two slaves got different instances for the same sector")
	}
	if src.generated.Load() != 1 {
		t.Fatalf("generated %d times, want 1", src.generated.Load())
	}
	if x.path != syspath.Sector(1, 2, 3) {
		t.Fatalf("key = %s, want sector-only", x.path)
	}

	a.GetCached(syspath.Sector(1, 2, 3))
	st := m.Stats()
	if st.SlaveHits != 1 || st.MasterHits != 1 || st.Misses != 1 {
		t.Fatalf("stats = %+v", st)
	}
}

func TestConcurrentFillsYieldOneInstance(t *testing.T) {
	m, _, q := newTestMaster(t, SystemStrategy{})
	a := m.NewSlave()
	b := m.NewSlave()
	p := syspath.System(0, 0, 0, 0)

	doneA, doneB := false, false
	a.FillCache([]syspath.Path{p}, func() { doneA = true })
	b.FillCache([]syspath.Path{p}, func() { doneB = true })
	flush(t, q)

	if !doneA || !doneB {
		t.Fatalf("callbacks: a=%v b=%v", doneA, doneB)
	}
	x, y := a.GetIfCached(p), b.GetIfCached(p)
	if x == nil || x != y {
		t.Fatalf("slaves hold %p and %p", x, y)
	}
	if m.Stats().Discarded != 1 {
		t.Fatalf("Discarded = %d, want 1", m.Stats().Discarded)
	}
}

func TestFillCacheChunksAndCompletesOnce(t *testing.T) {
	m, src, q := newTestMaster(t, SystemStrategy{})
	m.SetJobSize(3)
	s := m.NewSlave()

	var paths []syspath.Path
	for i := uint32(0); i < 10; i++ {
		paths = append(paths, syspath.System(0, 0, int32(i%2), i))
	}
	paths = append(paths, paths[0], syspath.Body(0, 0, 0, 0, 5))

	calls := 0
	s.FillCache(paths, func() { calls++ })
	if s.Outstanding() != 4 {
		t.Fatalf("Outstanding = %d, want 4 jobs for 10 keys", s.Outstanding())
	}
	if calls != 0 {
		t.Fatalf("callback fired before jobs finished")
	}
	flush(t, q)

	if calls != 1 {
		t.Fatalf("callback fired %d times", calls)
	}
	if s.Len() != 10 || src.prepared != 10 {
		t.Fatalf("Len = %d prepared = %d", s.Len(), src.prepared)
	}
}

func TestFillCacheWithEverythingPresentCompletesImmediately(t *testing.T) {
	m, _, _ := newTestMaster(t, SectorStrategy{})
	keep := m.GetCached(syspath.Sector(5, 5, 5))
	s := m.NewSlave()

	called := false
	s.FillCache([]syspath.Path{syspath.Sector(5, 5, 5)}, func() { called = true })
	if !called {
		t.Fatalf("callback not fired for a fully resolved request")
	}
	if s.GetIfCached(syspath.Sector(5, 5, 5)) != keep {
		t.Fatalf("slave did not take the master's instance")
	}
}

func TestClosedSlaveSkipsMergeButMasterKeepsResult(t *testing.T) {
	m, _, q := newTestMaster(t, SectorStrategy{})
	s := m.NewSlave()
	holder := m.NewSlave()
	p := syspath.Sector(9, 9, 9)

	fired := false
	s.FillCache([]syspath.Path{p}, func() { fired = true })
	s.Close()
	flush(t, q)

	if fired {
		t.Fatalf("callback fired for a closed slave")
	}
	if m.Slaves() != 1 {
		t.Fatalf("Slaves = %d after close", m.Slaves())
	}
	if s.GetCached(p) != nil {
		t.Fatalf("closed slave generated on a miss")
	}
	if m.Len() != 1 || m.Stats().Generated != 1 {
		t.Fatalf("master did not merge the job's result: len=%d stats=%+v", m.Len(), m.Stats())
	}
	if holder.Len() != 0 {
		t.Fatalf("result leaked into an unrelated slave")
	}
}

func TestMasterCloseDetachesSlaves(t *testing.T) {
	m, src, _ := newTestMaster(t, SectorStrategy{})
	s := m.NewSlave()
	held := s.GetCached(syspath.Sector(1, 1, 1))

	m.Close()
	if s.Attached() {
		t.Fatalf("slave still attached")
	}
	if s.GetCached(syspath.Sector(1, 1, 1)) != held {
		t.Fatalf("detached slave lost its own entry")
	}
	if s.GetCached(syspath.Sector(2, 2, 2)) != nil {
		t.Fatalf("detached slave generated an object")
	}
	if src.generated.Load() != 1 {
		t.Fatalf("generated %d", src.generated.Load())
	}
	called := false
	s.FillCache([]syspath.Path{syspath.Sector(3, 3, 3)}, func() { called = true })
	if !called {
		t.Fatalf("detached fill should complete at once")
	}
}

func TestClearCacheDropsStaleJobResults(t *testing.T) {
	m, _, q := newTestMaster(t, SectorStrategy{})
	s := m.NewSlave()
	s.FillCache([]syspath.Path{syspath.Sector(4, 4, 4)}, nil)
	s.ClearCache()
	flush(t, q)
	if s.Len() != 0 {
		t.Fatalf("cleared slave picked up a stale result")
	}
	if s.Outstanding() != 0 {
		t.Fatalf("Outstanding = %d", s.Outstanding())
	}
}

func TestMasterClearDropsInFlightResults(t *testing.T) {
	m, _, q := newTestMaster(t, SectorStrategy{})
	s := m.NewSlave()
	s.FillCache([]syspath.Path{syspath.Sector(5, 5, 5), syspath.Sector(6, 6, 6)}, nil)
	m.ClearCache()
	flush(t, q)
	if m.Len() != 0 {
		t.Fatalf("attic holds %d results generated before the clear", m.Len())
	}
	if m.Stats().Discarded != 2 {
		t.Fatalf("Discarded = %d, want 2", m.Stats().Discarded)
	}
}

func fetchAndDrop(s *Slave[testObj], p syspath.Path) int64 {
	return s.GetCached(p).serial
}

func TestMasterDoesNotKeepObjectsAlive(t *testing.T) {
	m, src, _ := newTestMaster(t, SectorStrategy{})
	s := m.NewSlave()
	p := syspath.Sector(7, -7, 7)

	first := fetchAndDrop(s, p)
	s.ClearCache()

	deadline := time.Now().Add(5 * time.Second)
	for m.GetIfCached(p) != nil {
		if time.Now().After(deadline) {
			t.Fatalf("object still alive after all strong references were dropped")
		}
		runtime.GC()
		time.Sleep(time.Millisecond)
	}
	for m.Len() != 0 && time.Now().Before(deadline) {
		runtime.GC()
		m.ProcessDead()
		m.Sweep()
	}
	if m.Len() != 0 {
		t.Fatalf("attic still holds %d entries", m.Len())
	}

	second := fetchAndDrop(s, p)
	if second == first {
		t.Fatalf("got the collected instance back")
	}
	if src.generated.Load() != 2 {
		t.Fatalf("generated %d times, want 2", src.generated.Load())
	}
}

func TestSweepDropsEntriesWithoutCleanupMessages(t *testing.T) {
	m, _, _ := newTestMaster(t, SectorStrategy{})
	live := m.GetCached(syspath.Sector(1, 0, 0))
	dead := syspath.Sector(2, 0, 0)
	m.GetCached(dead)

	// read the weak pointer directly; GetIfCached would drop the entry itself
	deadline := time.Now().Add(5 * time.Second)
	for m.attic[dead].Value() != nil {
		if time.Now().After(deadline) {
			t.Fatal("object still alive after all strong references were dropped")
		}
		runtime.GC()
		time.Sleep(time.Millisecond)
	}

	if n := m.Sweep(); n != 1 {
		t.Fatalf("Sweep removed %d entries, want 1", n)
	}
	if m.Len() != 1 || m.GetIfCached(syspath.Sector(1, 0, 0)) != live {
		t.Fatalf("Sweep touched the live entry: len=%d", m.Len())
	}
	if n := m.ProcessDead(); n != 0 {
		t.Fatalf("ProcessDead counted %d removals for an already swept key", n)
	}
	if m.Stats().Evicted != 1 {
		t.Fatalf("Evicted = %d, want 1", m.Stats().Evicted)
	}
	runtime.KeepAlive(live)
}

func TestClearCacheForcesRegeneration(t *testing.T) {
	m, src, _ := newTestMaster(t, SectorStrategy{})
	s := m.NewSlave()
	old := s.GetCached(syspath.Sector(0, 0, 0))
	m.ClearCache()
	if s.Len() != 0 || m.Len() != 0 {
		t.Fatalf("ClearCache left slave=%d attic=%d", s.Len(), m.Len())
	}
	if s.GetCached(syspath.Sector(0, 0, 0)) == old {
		t.Fatalf("stale instance returned after ClearCache")
	}
	if src.generated.Load() != 2 {
		t.Fatalf("generated %d", src.generated.Load())
	}
	m.LogStatistics(true)
	if m.Stats() != (Stats{}) {
		t.Fatalf("stats not reset")
	}
}

func TestStrategies(t *testing.T) {
	p := syspath.Body(1, 2, 3, 4, 5)
	if (SectorStrategy{}).Key(p) != syspath.Sector(1, 2, 3) {
		t.Fatalf("sector key")
	}
	if (SystemStrategy{}).Key(p) != syspath.System(1, 2, 3, 4) {
		t.Fatalf("system key")
	}
	if (SectorStrategy{}).Less(syspath.System(0, 0, 0, 9), syspath.System(0, 0, 0, 1)) {
		t.Fatalf("sector order must ignore the system index")
	}
	if !(SystemStrategy{}).Less(syspath.System(0, 0, 0, 1), syspath.System(0, 0, 0, 9)) {
		t.Fatalf("system order must use the system index")
	}
}
