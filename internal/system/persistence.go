package system

import (
	"context"
	"time"

	"github.com/stellarcache/galaxy/internal/apperr"
	coresys "github.com/stellarcache/galaxy/internal/core/system"
	"github.com/stellarcache/galaxy/internal/galaxy"
	"github.com/stellarcache/galaxy/internal/persist"
	"go.uber.org/zap"
)

// PersistenceSystem periodically saves the active generator's state, which
// carries the exploration records, into one save slot. Phase 5 (Persist).
type PersistenceSystem struct {
	galaxy    *galaxy.Galaxy
	store     persist.Store
	slot      string
	log       *zap.Logger
	tickCount int
	interval  int // save every N ticks, 0 = only on demand
	timeout   time.Duration
}

func NewPersistenceSystem(g *galaxy.Galaxy, store persist.Store, slot string, intervalTicks int, log *zap.Logger) *PersistenceSystem {
	return &PersistenceSystem{
		galaxy:   g,
		store:    store,
		slot:     slot,
		log:      log,
		interval: intervalTicks,
		timeout:  5 * time.Second,
	}
}

func (s *PersistenceSystem) Phase() coresys.Phase { return coresys.PhasePersist }

func (s *PersistenceSystem) Update(_ time.Duration) {
	if s.interval <= 0 {
		return
	}
	s.tickCount++
	if s.tickCount < s.interval {
		return
	}
	s.tickCount = 0

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	if err := s.Save(ctx); err != nil {
		s.log.Error("periodic galaxy save failed", zap.String("slot", s.slot), zap.Error(err))
	}
}

// Save writes the generator state now. Called for graceful shutdown.
func (s *PersistenceSystem) Save(ctx context.Context) error {
	state, err := s.galaxy.GeneratorState()
	if err != nil {
		return err
	}
	gen := s.galaxy.Generator()
	rec := persist.SaveRecord{
		Slot:             s.slot,
		GeneratorName:    gen.Name(),
		GeneratorVersion: gen.Version(),
		State:            state,
		SavedAt:          time.Now(),
	}
	if err := s.store.SaveGalaxy(ctx, rec); err != nil {
		return err
	}
	s.log.Debug("galaxy saved",
		zap.String("slot", s.slot),
		zap.String("generator", gen.String()),
		zap.Int("bytes", len(state)),
	)
	return nil
}

// Restore loads the slot into the galaxy. A missing slot is not an error;
// a save from an unknown generator or one that fails verification is.
func (s *PersistenceSystem) Restore(ctx context.Context) (bool, error) {
	rec, err := s.store.LoadGalaxy(ctx, s.slot)
	if err != nil {
		if apperr.Is(err, apperr.ErrorTypeNotFound) {
			s.log.Info("no saved galaxy, starting fresh", zap.String("slot", s.slot))
			return false, nil
		}
		return false, err
	}
	if err := s.galaxy.LoadGeneratorState(rec.State); err != nil {
		return false, err
	}
	s.log.Info("galaxy restored",
		zap.String("slot", s.slot),
		zap.String("generator", s.galaxy.Generator().String()),
		zap.Time("saved_at", rec.SavedAt),
	)
	return true, nil
}
