package galaxy

import (
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/stellarcache/galaxy/internal/syspath"
)

// StarSystem is the expanded body tree and economy of one system. It keeps
// its parent sector alive for as long as it lives.
type StarSystem struct {
	path    syspath.Path
	sector  *Sector
	name    string
	seed    uint32
	faction *Faction
	custom  *CustomSystem

	root     *Body
	bodies   []*Body
	stars    []*Body
	stations []*Body
	numStars int

	unexplored      bool
	exploredTime    float64
	isCustom        bool
	hasCustomBodies bool
	shortDesc       string
	longDesc        string

	metallicity  float64
	industrial   float64
	agricultural float64
	humanProx    float64
	totalPop     float64
	econType     EconType

	tradeLevel     [CommodityCount]int32
	commodityLegal [CommodityCount]bool
	polit          SysPolit
}

func newStarSystem(p syspath.Path, sec *Sector) *StarSystem {
	s := &StarSystem{path: p.SystemOnly(), sector: sec}
	for i := range s.commodityLegal {
		s.commodityLegal[i] = true
	}
	return s
}

func (s *StarSystem) Path() syspath.Path    { return s.path }
func (s *StarSystem) Sector() *Sector       { return s.sector }
func (s *StarSystem) Name() string          { return s.name }
func (s *StarSystem) Seed() uint32          { return s.seed }
func (s *StarSystem) Faction() *Faction     { return s.faction }
func (s *StarSystem) Custom() *CustomSystem { return s.custom }
func (s *StarSystem) Root() *Body           { return s.root }

// Bodies lists every body; the slice index is the body index.
func (s *StarSystem) Bodies() []*Body        { return s.bodies }
func (s *StarSystem) Stars() []*Body         { return s.stars }
func (s *StarSystem) SpaceStations() []*Body { return s.stations }
func (s *StarSystem) NumStars() int          { return s.numStars }

func (s *StarSystem) Unexplored() bool      { return s.unexplored }
func (s *StarSystem) ExploredTime() float64 { return s.exploredTime }
func (s *StarSystem) IsCustom() bool        { return s.isCustom }
func (s *StarSystem) HasCustomBodies() bool { return s.hasCustomBodies }
func (s *StarSystem) ShortDesc() string     { return s.shortDesc }
func (s *StarSystem) LongDesc() string      { return s.longDesc }

func (s *StarSystem) Metallicity() float64  { return s.metallicity }
func (s *StarSystem) Industrial() float64   { return s.industrial }
func (s *StarSystem) Agricultural() float64 { return s.agricultural }
func (s *StarSystem) HumanProx() float64    { return s.humanProx }

// TotalPop in billions.
func (s *StarSystem) TotalPop() float64  { return s.totalPop }
func (s *StarSystem) EconType() EconType { return s.econType }
func (s *StarSystem) Polit() SysPolit    { return s.polit }

// TradeLevel is the percent price adjustment for c.
func (s *StarSystem) TradeLevel(c Commodity) int32 {
	if c <= CommodityNone || c >= CommodityCount {
		return 0
	}
	return s.tradeLevel[c]
}

func (s *StarSystem) IsCommodityLegal(c Commodity) bool {
	if c <= CommodityNone || c >= CommodityCount {
		return true
	}
	return s.commodityLegal[c]
}

// Body returns the body p names, or nil when p points elsewhere or past the
// end of the body list.
func (s *StarSystem) Body(p syspath.Path) *Body {
	if !p.HasValidBody() || !p.IsSameSystem(s.path) || int(p.BodyIndex) >= len(s.bodies) {
		return nil
	}
	return s.bodies[p.BodyIndex]
}

// newBody appends a body and gives it the next body index.
func (s *StarSystem) newBody() *Body {
	b := &Body{
		Path:        s.path.WithBody(uint32(len(s.bodies))),
		AspectRatio: 1,
	}
	s.bodies = append(s.bodies, b)
	return b
}

func (s *StarSystem) addTradeLevel(c Commodity, delta int32) {
	if c > CommodityNone && c < CommodityCount {
		s.tradeLevel[c] += delta
	}
}

func (s *StarSystem) hasStationNamed(name string) bool {
	for _, st := range s.stations {
		if st.Name == name {
			return true
		}
	}
	return false
}

// Dump writes the body tree and economy summary.
func (s *StarSystem) Dump(w io.Writer) {
	fmt.Fprintf(w, "system %s %q stars=%d bodies=%d\n", s.path, s.name, s.numStars, len(s.bodies))
	if s.faction != nil {
		fmt.Fprintf(w, "  faction: %s\n", s.faction.Name)
	}
	fmt.Fprintf(w, "  government: %s\n", s.polit)
	fmt.Fprintf(w, "  economy: %s population=%s\n", s.econType, formatPopulation(s.totalPop))
	if s.shortDesc != "" {
		fmt.Fprintf(w, "  %s\n", s.shortDesc)
	}
	if s.root != nil {
		dumpBody(w, s.root, 1)
	}
	var trade []string
	for c := CommodityNone + 1; c < CommodityCount; c++ {
		if s.tradeLevel[c] != 0 {
			trade = append(trade, fmt.Sprintf("%s %+d%%", c, s.tradeLevel[c]))
		}
	}
	if len(trade) > 0 {
		fmt.Fprintf(w, "  trade: %s\n", strings.Join(trade, ", "))
	}
}

func dumpBody(w io.Writer, b *Body, depth int) {
	indent := strings.Repeat("  ", depth)
	fmt.Fprintf(w, "%s[%d] %s (%s) mass=%.4g radius=%.4g temp=%dK",
		indent, b.Path.BodyIndex, b.Name, b.Type, b.Mass, b.Radius, b.AverageTemp)
	if b.Parent != nil && b.Type != TypeStarportSurface {
		fmt.Fprintf(w, " a=%.4gAU e=%.3f", b.SemiMajorAxis, b.Eccentricity)
	}
	if b.Population > 0 {
		fmt.Fprintf(w, " pop=%s", humanize.SIWithDigits(b.Population*1e9, 2, ""))
	}
	fmt.Fprintln(w)
	for _, c := range b.Children {
		dumpBody(w, c, depth+1)
	}
}
