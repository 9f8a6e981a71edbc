package galaxy

import (
	"encoding/json"
	"sync"

	"github.com/stellarcache/galaxy/internal/random"
	"github.com/stellarcache/galaxy/internal/syspath"
)

func isCustomOnlySector(sx, sy, sz int32) bool {
	in := func(v int32) bool { return v >= -CustomOnlyRadius && v <= CustomOnlyRadius-1 }
	return in(sx) && in(sy) && in(sz)
}

// exploredAtStart rolls whether a system starts charted. Everything within
// about 500ly of the origin is, nothing beyond about 700ly is, with a
// gradient between. Home systems are always charted.
func exploredAtStart(env *Env, rng *random.Random, p syspath.Path) ExplorationState {
	sx, sy, sz := int64(p.SectorX), int64(p.SectorY), int64(p.SectorZ)
	dist := int32(isqrt(1 + sx*sx + sy*sy + sz*sz))
	if (dist <= 90 && (dist <= 65 || rng.Int32n(dist) <= 40)) || env.Factions.IsHomeSystem(p) {
		return ExploredAtStart
	}
	return Unexplored
}

// customSectorStage places the authored systems of a sector first, so they
// take the lowest system indices.
type customSectorStage struct{}

func (customSectorStage) ApplySector(env *Env, rng *random.Random, sec *Sector, cfg *SectorConfig) bool {
	p := sec.Path()
	if isCustomOnlySector(p.SectorX, p.SectorY, p.SectorZ) {
		cfg.IsCustomOnly = true
	}
	if env.Custom == nil {
		return true
	}
	for _, cs := range env.Custom.ForSector(p.SectorX, p.SectorY, p.SectorZ) {
		sys := newSectorSystem()
		sys.Pos = cs.Pos.Scale(SectorSize)
		sys.Name = cs.Name
		for sys.NumStars < cs.NumStars && cs.PrimaryType[sys.NumStars] != TypeGravpoint {
			sys.StarType[sys.NumStars] = cs.PrimaryType[sys.NumStars]
			sys.NumStars++
		}
		sys.Custom = cs
		sys.Seed = cs.Seed
		sec.add(sys)

		switch {
		case cs.WantRandExplored:
			sys.setExplored(exploredAtStart(env, rng, sys.Path()), 0)
		case cs.Explored:
			sys.setExplored(ExploredAtStart, 0)
		default:
			sys.setExplored(Unexplored, 0)
		}
	}
	return true
}

// randomSectorStage fills sectors outside the custom-only core.
type randomSectorStage struct{}

func (randomSectorStage) ApplySector(env *Env, rng *random.Random, sec *Sector, cfg *SectorConfig) bool {
	if cfg.IsCustomOnly {
		return true
	}
	p := sec.Path()
	sx, sy, sz := p.SectorX, p.SectorY, p.SectorZ
	numSystems := (rng.Int32Range(4, 20) * env.SectorDensity(sx, sy, sz)) >> 8

	for i := int32(0); i < numSystems; i++ {
		sys := newSectorSystem()
		switch rng.Int32n(15) {
		case 0:
			sys.NumStars = 4
		case 1, 2:
			sys.NumStars = 3
		case 3, 4, 5, 6:
			sys.NumStars = 2
		default:
			sys.NumStars = 1
		}

		sys.Pos.X = rng.Float64n(SectorSize)
		sys.Pos.Y = rng.Float64n(SectorSize)
		sys.Pos.Z = rng.Float64n(SectorSize)
		sec.add(sys)

		sys.setExplored(exploredAtStart(env, rng, sys.Path()), 0)

		far := isqrt(1+int64(sx)*int64(sx)+int64(sy)*int64(sy)) > 10
		sys.StarType[0] = pickPrimaryType(rng.Int32n(1000000), far)

		if sys.NumStars > 1 {
			sys.StarType[1] = BodyType(rng.Int32Range(int32(TypeStarMin), int32(sys.StarType[0])))
			if sys.NumStars > 2 {
				sys.StarType[2] = BodyType(rng.Int32Range(int32(TypeStarMin), int32(sys.StarType[0])))
				sys.StarType[3] = BodyType(rng.Int32Range(int32(TypeStarMin), int32(sys.StarType[2])))
			}
		}

		// at most one giant per system, and always the primary
		if sys.StarType[0] <= TypeStarA && rng.Int32n(10) == 0 {
			switch {
			case far:
				sys.StarType[0] = pickGiantType(rng.Int32n(1000))
			case isqrt(1+int64(sx)*int64(sx)+int64(sy)*int64(sy)) > 5:
				sys.StarType[0] = TypeStarMGiant
			default:
				sys.StarType[0] = TypeStarM
			}
		}

		sys.Name = genSystemName(rng, sx, sy, sz, sys.StarType[0], env.Factions.IsHomeSystem(sys.Path()))
	}
	return true
}

type weightedType struct {
	below int32
	t     BodyType
}

// Far from the core the exotic types appear. These frequencies are made up.
var farPrimaryTypes = []weightedType{
	{1, TypeStarIMBlackHole},
	{3, TypeStarSBlackHole},
	{5, TypeStarOWolfRayet},
	{8, TypeStarBWolfRayet},
	{12, TypeStarMWolfRayet},
	{15, TypeStarKHyperGiant},
	{18, TypeStarGHyperGiant},
	{23, TypeStarOHyperGiant},
	{28, TypeStarAHyperGiant},
	{33, TypeStarFHyperGiant},
	{41, TypeStarBHyperGiant},
	{48, TypeStarMHyperGiant},
	{58, TypeStarKSuperGiant},
	{68, TypeStarGSuperGiant},
	{78, TypeStarOSuperGiant},
	{88, TypeStarASuperGiant},
	{98, TypeStarFSuperGiant},
	{108, TypeStarBSuperGiant},
	{158, TypeStarMSuperGiant},
	{208, TypeStarKGiant},
	{250, TypeStarGGiant},
	{300, TypeStarOGiant},
	{350, TypeStarAGiant},
	{400, TypeStarFGiant},
	{500, TypeStarBGiant},
	{700, TypeStarMGiant},
	{800, TypeStarO},
	{2000, TypeStarB},
	{8000, TypeStarA},
	{37300, TypeStarF},
	{113300, TypeStarG},
	{234300, TypeStarK},
	{250000, TypeWhiteDwarf},
	{900000, TypeStarM},
}

var nearPrimaryTypes = []weightedType{
	{100, TypeStarO},
	{1300, TypeStarB},
	{7300, TypeStarA},
	{37300, TypeStarF},
	{113300, TypeStarG},
	{234300, TypeStarK},
	{250000, TypeWhiteDwarf},
	{900000, TypeStarM},
}

// pickPrimaryType maps a roll in [0,1000000) to a star type.
func pickPrimaryType(weight int32, far bool) BodyType {
	table := nearPrimaryTypes
	if far {
		table = farPrimaryTypes
	}
	for _, w := range table {
		if weight < w.below {
			return w.t
		}
	}
	return TypeBrownDwarf
}

var giantTypes = []weightedType{
	{999, TypeStarBHyperGiant},
	{998, TypeStarOHyperGiant},
	{997, TypeStarKHyperGiant},
	{995, TypeStarBSuperGiant},
	{993, TypeStarOSuperGiant},
	{990, TypeStarKSuperGiant},
	{985, TypeStarBGiant},
	{980, TypeStarOGiant},
	{975, TypeStarKGiant},
	{950, TypeStarMHyperGiant},
	{875, TypeStarMSuperGiant},
}

// pickGiantType maps a roll in [0,1000) to a giant; the table is read as
// "at least".
func pickGiantType(weight int32) BodyType {
	for _, w := range giantTypes {
		if weight >= w.below {
			return w.t
		}
	}
	return TypeStarMGiant
}

// persistenceStage carries exploration facts across saves. Dates are packed
// with PackDate; zero means explored at start.
type persistenceStage struct {
	version int

	mu       sync.RWMutex
	explored map[syspath.Path]int32
}

func newPersistenceStage(version int) *persistenceStage {
	return &persistenceStage{version: version, explored: make(map[syspath.Path]int32)}
}

func (ps *persistenceStage) Name() string { return "persistence" }

func (ps *persistenceStage) ApplySector(env *Env, rng *random.Random, sec *Sector, cfg *SectorConfig) bool {
	if !env.initialized() {
		return true
	}
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	if len(ps.explored) == 0 {
		return true
	}
	for _, sys := range sec.Systems {
		date, ok := ps.explored[sys.Path()]
		switch {
		case !ok:
		case date < 0:
			sys.setExplored(Unexplored, 0)
		case date == 0:
			sys.setExplored(ExploredAtStart, 0)
		default:
			sys.setExplored(ExploredByPlayer, UnpackDate(date))
		}
	}
	return true
}

// Record stores a change of exploration state for p.
func (ps *persistenceStage) Record(p syspath.Path, e ExplorationState, when float64) {
	date := int32(-1)
	switch e {
	case ExploredAtStart:
		date = 0
	case ExploredByPlayer:
		date = PackDate(when)
	}
	ps.mu.Lock()
	ps.explored[p.SystemOnly()] = date
	ps.mu.Unlock()
}

// RecordPacked stores an already packed date.
func (ps *persistenceStage) RecordPacked(p syspath.Path, date int32) {
	ps.mu.Lock()
	ps.explored[p.SystemOnly()] = date
	ps.mu.Unlock()
}

func (ps *persistenceStage) Len() int {
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	return len(ps.explored)
}

type persistenceState struct {
	Explored map[syspath.Path]int32 `json:"explored_systems"`
}

func (ps *persistenceStage) MarshalState() (json.RawMessage, error) {
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	return json.Marshal(persistenceState{Explored: ps.explored})
}

// UnmarshalState replaces the recorded facts. Version 0 saves did not carry
// usable exploration data and load as empty.
func (ps *persistenceStage) UnmarshalState(data json.RawMessage) error {
	st := persistenceState{Explored: make(map[syspath.Path]int32)}
	if ps.version >= 1 && len(data) > 0 && string(data) != "null" {
		if err := json.Unmarshal(data, &st); err != nil {
			return err
		}
		if st.Explored == nil {
			st.Explored = make(map[syspath.Path]int32)
		}
	}
	ps.mu.Lock()
	ps.explored = st.Explored
	ps.mu.Unlock()
	return nil
}
