// Package world assembles a running galaxy from configuration: the job
// queue, the event bus, the density map, and every definition table.
package world

import (
	"context"
	"fmt"
	"runtime"

	"github.com/stellarcache/galaxy/internal/config"
	"github.com/stellarcache/galaxy/internal/core/event"
	"github.com/stellarcache/galaxy/internal/core/job"
	"github.com/stellarcache/galaxy/internal/data"
	"github.com/stellarcache/galaxy/internal/galaxy"
	"github.com/stellarcache/galaxy/internal/scripting"
	"go.uber.org/zap"
)

// State is the assembled galaxy and the machinery it runs on. Accessed only
// from the owning goroutine.
type State struct {
	Galaxy *galaxy.Galaxy
	Jobs   *job.Queue
	Bus    *event.Bus

	// Counts of definitions loaded, for the startup summary.
	CustomSystems int
	Factions      int
	Missing       []string // faction names referenced but never defined
}

// Build loads every definition table and creates the galaxy. Custom systems
// load before factions, YAML before scripts.
func Build(ctx context.Context, cfg *config.Config, log *zap.Logger) (*State, error) {
	density, err := buildDensity(cfg.Galaxy)
	if err != nil {
		return nil, err
	}

	custom := galaxy.NewCustomSystems()
	factions := galaxy.NewFactions(cfg.Galaxy.StartYear, log)
	if err := loadDefinitions(cfg.Data, custom, factions, log); err != nil {
		return nil, err
	}

	workers := cfg.Jobs.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	jobs := job.NewQueue(ctx, workers, log)
	bus := event.NewBus()

	g, err := galaxy.New(galaxy.Config{
		Seed:    cfg.Galaxy.UniverseSeed,
		Density: density,
		DensityParams: galaxy.DensityParams{
			Radius:     cfg.Galaxy.Radius,
			SolOffsetX: cfg.Galaxy.SolOffsetX,
			SolOffsetY: cfg.Galaxy.SolOffsetY,
		},
		GeneratorName:    cfg.Generator.Name,
		GeneratorVersion: cfg.Generator.Version,
		JobSize:          cfg.Cache.JobSize,
	}, custom, factions, jobs, bus, log)
	if err != nil {
		jobs.Close()
		return nil, err
	}

	missing := g.FinishInit()
	for _, name := range missing {
		log.Warn("custom system names an undefined faction", zap.String("faction", name))
	}
	return &State{
		Galaxy:        g,
		Jobs:          jobs,
		Bus:           bus,
		CustomSystems: custom.Count(),
		Factions:      factions.Count(),
		Missing:       missing,
	}, nil
}

func buildDensity(cfg config.GalaxyConfig) (*galaxy.DensityMap, error) {
	if cfg.DensityImage != "" {
		d, err := galaxy.LoadDensityImage(cfg.DensityImage)
		if err != nil {
			return nil, fmt.Errorf("density image: %w", err)
		}
		return d, nil
	}
	size := cfg.NoiseSize
	if size <= 0 {
		size = 512
	}
	return galaxy.NoiseDensityMap(cfg.NoiseSeed, size), nil
}

func loadDefinitions(cfg config.DataConfig, custom *galaxy.CustomSystems, factions *galaxy.Factions, log *zap.Logger) error {
	if cfg.CustomSystems != "" {
		n, err := data.LoadCustomSystems(cfg.CustomSystems, custom, factions)
		if err != nil {
			return fmt.Errorf("load custom systems: %w", err)
		}
		log.Info("custom systems loaded", zap.String("path", cfg.CustomSystems), zap.Int("count", n))
	}
	if cfg.Factions != "" {
		n, err := data.LoadFactions(cfg.Factions, factions)
		if err != nil {
			return fmt.Errorf("load factions: %w", err)
		}
		log.Info("factions loaded", zap.String("path", cfg.Factions), zap.Int("count", n))
	}
	if cfg.ScriptsDir != "" {
		engine, err := scripting.NewEngine(cfg.ScriptsDir, custom, factions, log)
		if err != nil {
			return err
		}
		engine.Close()
	}
	return nil
}

// Close releases the galaxy, then stops the workers.
func (s *State) Close() {
	s.Galaxy.Close()
	s.Jobs.Close()
}
