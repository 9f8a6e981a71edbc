package galaxy

import (
	"encoding/json"
	"fmt"
	"slices"

	"github.com/stellarcache/galaxy/internal/apperr"
	"github.com/stellarcache/galaxy/internal/random"
	"github.com/stellarcache/galaxy/internal/syspath"
)

const (
	// DefaultGeneratorName and DefaultGeneratorVersion select the newest pipeline.
	DefaultGeneratorName    = "legacy"
	DefaultGeneratorVersion = 1

	// CustomOnlyRadius in sectors around the origin where only authored
	// systems exist.
	CustomOnlyRadius = 4

	// UniverseSeed is mixed into every random stream unless configured otherwise.
	UniverseSeed uint32 = 0xabcd1234
)

// Env is what stages read besides their own state. Everything in it is
// read-only while generation workers run.
type Env struct {
	Seed          uint32
	Custom        *CustomSystems
	Factions      *Factions
	Density       *DensityMap
	DensityParams DensityParams

	// Initialized reports whether the owning galaxy finished booting.
	Initialized func() bool
}

func (e *Env) initialized() bool {
	return e.Initialized != nil && e.Initialized()
}

// SectorDensity is the 0..127 system density at a sector.
func (e *Env) SectorDensity(sx, sy, sz int32) int32 {
	return e.Density.sectorDensity(e.DensityParams, sx, sy, sz)
}

// SectorConfig is threaded through the sector stages of one generation.
type SectorConfig struct {
	IsCustomOnly bool
}

// SystemConfig is threaded through the system stages of one generation.
type SystemConfig struct {
	IsCustomOnly bool
}

// SectorStage adds to a sector. Returning false ends the chain.
type SectorStage interface {
	ApplySector(env *Env, rng *random.Random, sec *Sector, cfg *SectorConfig) bool
}

// SystemStage adds to a star system. Returning false ends the chain.
type SystemStage interface {
	ApplySystem(env *Env, rng *random.Random, sys *StarSystem, cfg *SystemConfig) bool
}

// StageState is implemented by stages that carry save-game state.
type StageState interface {
	Name() string
	MarshalState() (json.RawMessage, error)
	UnmarshalState(data json.RawMessage) error
}

// Generator is a fixed, versioned list of stages.
type Generator struct {
	name         string
	version      int
	sectorStages []SectorStage
	systemStages []SystemStage
}

type generatorFactory func(version int) *Generator

var generators = map[string]struct {
	versions []int
	build    generatorFactory
}{
	"legacy": {versions: []int{0, 1}, build: newLegacyGenerator},
}

func newLegacyGenerator(version int) *Generator {
	return &Generator{
		name:    "legacy",
		version: version,
		sectorStages: []SectorStage{
			&customSectorStage{},
			&randomSectorStage{},
			newPersistenceStage(version),
		},
		systemStages: []SystemStage{
			&fromSectorStage{},
			&customSystemStage{},
			&randomSystemStage{},
			&populateStage{},
		},
	}
}

// NewGenerator builds the named pipeline. An unknown name or version is a
// wrong_version error.
func NewGenerator(name string, version int) (*Generator, error) {
	def, ok := generators[name]
	if !ok {
		return nil, apperr.WrongVersionf("unknown galaxy generator %q", name)
	}
	if !slices.Contains(def.versions, version) {
		return nil, apperr.WrongVersionf("galaxy generator %q has no version %d", name, version)
	}
	return def.build(version), nil
}

// Generators lists every known name with its versions.
func Generators() map[string][]int {
	out := make(map[string][]int, len(generators))
	for name, def := range generators {
		out[name] = slices.Clone(def.versions)
	}
	return out
}

func (g *Generator) Name() string   { return g.name }
func (g *Generator) Version() int   { return g.version }
func (g *Generator) String() string { return fmt.Sprintf("%s/%d", g.name, g.version) }

// Is reports whether g is the named version.
func (g *Generator) Is(name string, version int) bool {
	return g.name == name && g.version == version
}

// GenerateSector runs the sector stages for p. Safe on any goroutine as long
// as env is not modified.
func (g *Generator) GenerateSector(env *Env, p syspath.Path) *Sector {
	p = p.SectorOnly()
	rng := random.New(uint32(p.SectorX), uint32(p.SectorY), uint32(p.SectorZ), env.Seed)
	sec := newSector(p)
	cfg := &SectorConfig{}
	for _, st := range g.sectorStages {
		if !st.ApplySector(env, rng, sec, cfg) {
			break
		}
	}
	return sec
}

// GenerateStarSystem expands system p of sec. p must name a system of sec.
func (g *Generator) GenerateStarSystem(env *Env, sec *Sector, p syspath.Path) *StarSystem {
	p = p.SystemOnly()
	secSys := sec.System(p.SystemIndex)
	rng := random.New(secSys.Seed, uint32(p.SectorX), uint32(p.SectorY), uint32(p.SectorZ), env.Seed)
	sys := newStarSystem(p, sec)
	cfg := &SystemConfig{}
	for _, st := range g.systemStages {
		if !st.ApplySystem(env, rng, sys, cfg) {
			break
		}
	}
	return sys
}

// persistence returns the stage that records exploration, if any.
func (g *Generator) persistence() *persistenceStage {
	for _, st := range g.sectorStages {
		if ps, ok := st.(*persistenceStage); ok {
			return ps
		}
	}
	return nil
}

type generatorState struct {
	Name            string            `json:"name"`
	Version         int               `json:"version"`
	SectorStage     []json.RawMessage `json:"sector_stage"`
	StarSystemStage []json.RawMessage `json:"star_system_stage"`
}

// MarshalJSON writes the name, version and every stage's state in order.
// Stages without state are written as null.
func (g *Generator) MarshalJSON() ([]byte, error) {
	st := generatorState{
		Name:            g.name,
		Version:         g.version,
		SectorStage:     make([]json.RawMessage, len(g.sectorStages)),
		StarSystemStage: make([]json.RawMessage, len(g.systemStages)),
	}
	for i, s := range g.sectorStages {
		raw, err := marshalStage(s)
		if err != nil {
			return nil, err
		}
		st.SectorStage[i] = raw
	}
	for i, s := range g.systemStages {
		raw, err := marshalStage(s)
		if err != nil {
			return nil, err
		}
		st.StarSystemStage[i] = raw
	}
	return json.Marshal(st)
}

func marshalStage(s any) (json.RawMessage, error) {
	ss, ok := s.(StageState)
	if !ok {
		return json.RawMessage("null"), nil
	}
	raw, err := ss.MarshalState()
	if err != nil {
		return nil, fmt.Errorf("marshal stage %s: %w", ss.Name(), err)
	}
	return raw, nil
}

// parseGeneratorState decodes the envelope without touching any generator.
func parseGeneratorState(data []byte) (*generatorState, error) {
	var st generatorState
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, apperr.WrapCorruptSave("decode generator state", err)
	}
	if st.Name == "" {
		return nil, apperr.CorruptSavef("generator state has no name")
	}
	return &st, nil
}

// applyState replays saved stage state. The stage arrays must match the
// pipeline exactly.
func (g *Generator) applyState(st *generatorState) error {
	if !g.Is(st.Name, st.Version) {
		return apperr.WrongVersionf("generator state is %s/%d, pipeline is %s", st.Name, st.Version, g)
	}
	if len(st.SectorStage) != len(g.sectorStages) {
		return apperr.CorruptSavef("generator %s: %d sector stages saved, pipeline has %d", g, len(st.SectorStage), len(g.sectorStages))
	}
	if len(st.StarSystemStage) != len(g.systemStages) {
		return apperr.CorruptSavef("generator %s: %d system stages saved, pipeline has %d", g, len(st.StarSystemStage), len(g.systemStages))
	}
	for i, s := range g.sectorStages {
		if err := unmarshalStage(s, st.SectorStage[i]); err != nil {
			return err
		}
	}
	for i, s := range g.systemStages {
		if err := unmarshalStage(s, st.StarSystemStage[i]); err != nil {
			return err
		}
	}
	return nil
}

func unmarshalStage(s any, raw json.RawMessage) error {
	ss, ok := s.(StageState)
	if !ok {
		return nil
	}
	if err := ss.UnmarshalState(raw); err != nil {
		return apperr.WrapCorruptSave("stage "+ss.Name(), err)
	}
	return nil
}

// FromJSON builds the generator a save names and restores its stage state.
func FromJSON(data []byte) (*Generator, error) {
	st, err := parseGeneratorState(data)
	if err != nil {
		return nil, err
	}
	g, err := NewGenerator(st.Name, st.Version)
	if err != nil {
		return nil, err
	}
	if err := g.applyState(st); err != nil {
		return nil, err
	}
	return g, nil
}
