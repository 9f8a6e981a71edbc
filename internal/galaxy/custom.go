package galaxy

import (
	"fmt"

	"github.com/stellarcache/galaxy/internal/random"
	"github.com/stellarcache/galaxy/internal/syspath"
)

// CustomSystemBody is one authored body. Radius and mass are in solar units
// for stars and earth units otherwise.
type CustomSystemBody struct {
	Name           string
	Type           BodyType
	Radius         float64
	Mass           float64
	AverageTemp    int32
	SemiMajorAxis  float64
	Eccentricity   float64
	OrbitalOffset  float64
	WantRandOffset bool
	Latitude       float64 // inclination for orbiting bodies
	Longitude      float64
	RotationPeriod float64
	AxialTilt      float64
	Metallicity    float64
	Volcanicity    float64
	AtmosDensity   float64
	AtmosOxidizing float64
	OceanCover     float64
	IceCover       float64
	Life           float64
	Seed           uint32
	WantRandSeed   bool

	Children []*CustomSystemBody
}

// NewCustomSystemBody starts a body with a random seed and orbital offset.
func NewCustomSystemBody(name string, t BodyType) *CustomSystemBody {
	return &CustomSystemBody{
		Name:           name,
		Type:           t,
		Radius:         1,
		Mass:           1,
		WantRandOffset: true,
		WantRandSeed:   true,
	}
}

// CustomSystem is a hand-authored system definition.
type CustomSystem struct {
	Name             string
	path             syspath.Path
	Pos              Vector3 // fraction of the sector per axis, 0..1
	NumStars         int
	PrimaryType      [4]BodyType
	Seed             uint32
	WantRandSeed     bool
	Explored         bool
	WantRandExplored bool
	FactionName      string
	Faction          *Faction
	GovType          GovType
	ShortDesc        string
	LongDesc         string
	Body             *CustomSystemBody
}

// NewCustomSystem starts a definition whose exploration state is rolled like
// a procedural system's.
func NewCustomSystem(name string, stars ...BodyType) *CustomSystem {
	cs := &CustomSystem{
		Name:             name,
		WantRandExplored: true,
		GovType:          GovInvalid,
	}
	for i, t := range stars {
		if i >= len(cs.PrimaryType) || t == TypeGravpoint {
			break
		}
		cs.PrimaryType[i] = t
		cs.NumStars++
	}
	return cs
}

// Path is assigned when the system is added to the registry.
func (cs *CustomSystem) Path() syspath.Path { return cs.path }

// IsRandom is true when no body tree was authored, so the bodies are
// generated procedurally.
func (cs *CustomSystem) IsRandom() bool { return cs.Body == nil }

// SetBodies attaches the body tree rooted at primary.
func (cs *CustomSystem) SetBodies(primary *CustomSystemBody) { cs.Body = primary }

// CountStars counts star bodies in the authored tree.
func (cs *CustomSystem) CountStars() int {
	if cs.Body == nil {
		return 0
	}
	n := 0
	var walk func(b *CustomSystemBody)
	walk = func(b *CustomSystemBody) {
		if b.Type.IsStar() {
			n++
		}
		for _, c := range b.Children {
			walk(c)
		}
	}
	walk(cs.Body)
	return n
}

// CustomSystems indexes authored systems by sector. It is built before the
// galaxy starts generating and read-only afterwards.
type CustomSystems struct {
	bySector map[syspath.Path][]*CustomSystem
	byName   map[string]*CustomSystem
	count    int
}

func NewCustomSystems() *CustomSystems {
	return &CustomSystems{
		bySector: make(map[syspath.Path][]*CustomSystem),
		byName:   make(map[string]*CustomSystem),
	}
}

// Add files cs in sector (x,y,z) and assigns the next system index there.
// The name must be unique and the authored star count must match the tree.
func (db *CustomSystems) Add(cs *CustomSystem, x, y, z int32) (syspath.Path, error) {
	if cs.Name == "" {
		return syspath.Path{}, fmt.Errorf("add custom system: empty name")
	}
	if _, dup := db.byName[cs.Name]; dup {
		return syspath.Path{}, fmt.Errorf("add custom system %q: duplicate name", cs.Name)
	}
	if cs.NumStars < 1 || cs.NumStars > 4 {
		return syspath.Path{}, fmt.Errorf("add custom system %q: %d stars, want 1..4", cs.Name, cs.NumStars)
	}
	if !cs.IsRandom() {
		if n := cs.CountStars(); n != cs.NumStars {
			return syspath.Path{}, fmt.Errorf("add custom system %q: body tree has %d stars, declared %d", cs.Name, n, cs.NumStars)
		}
	}
	sec := syspath.Sector(x, y, z)
	idx := uint32(len(db.bySector[sec]))
	cs.path = sec.WithSystem(idx)
	if cs.WantRandSeed {
		cs.Seed = random.New(uint32(x), uint32(y), uint32(z), idx).Uint32()
	}
	db.bySector[sec] = append(db.bySector[sec], cs)
	db.byName[cs.Name] = cs
	db.count++
	return cs.path, nil
}

// ForSector returns the systems of sector (x,y,z) in index order.
func (db *CustomSystems) ForSector(x, y, z int32) []*CustomSystem {
	return db.bySector[syspath.Sector(x, y, z)]
}

// Find looks a system up by name.
func (db *CustomSystems) Find(name string) *CustomSystem { return db.byName[name] }

func (db *CustomSystems) Count() int { return db.count }
