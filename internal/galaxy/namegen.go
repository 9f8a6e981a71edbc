package galaxy

import (
	"fmt"
	"strings"

	"github.com/stellarcache/galaxy/internal/random"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var nameFragments = [...]string{
	"en", "la", "can", "be", "and", "phi", "eth", "ol", "ve", "ho", "a",
	"lia", "an", "ar", "ur", "mi", "in", "ti", "qu", "so", "ed", "ess",
	"ex", "io", "ce", "ze", "fa", "ay", "wa", "da", "ack", "gre",
}

// nameChance is the upper bound of the naming roll. Bright and giant stars
// near the core get pronounceable names, dim far ones catalogue numbers.
func nameChance(primary BodyType, dist int32) int32 {
	chance := int32(100)
	switch primary {
	case TypeStarO, TypeStarB:
	case TypeStarA:
		chance += dist
	case TypeStarF:
		chance += 2 * dist
	case TypeStarG:
		chance += 4 * dist
	case TypeStarK:
		chance += 8 * dist
	case TypeStarOGiant, TypeStarBGiant:
		chance = 50
	case TypeStarAGiant:
		chance = int32(0.2 * float64(dist))
	case TypeStarFGiant:
		chance = int32(0.4 * float64(dist))
	case TypeStarGGiant:
		chance = int32(0.5 * float64(dist))
	case TypeStarKGiant, TypeStarMGiant:
		chance = dist
	case TypeStarOSuperGiant, TypeStarBSuperGiant:
		chance = 10
	case TypeStarASuperGiant, TypeStarFSuperGiant, TypeStarGSuperGiant, TypeStarKSuperGiant:
		chance = 15
	case TypeStarMSuperGiant:
		chance = 20
	case TypeStarOHyperGiant, TypeStarBHyperGiant, TypeStarAHyperGiant, TypeStarFHyperGiant,
		TypeStarGHyperGiant, TypeStarKHyperGiant, TypeStarMHyperGiant:
		chance = 1
	default:
		chance += 16 * dist
	}
	return chance
}

// genSystemName names a procedural system. Home systems always get a real name.
func genSystemName(rng *random.Random, sx, sy, sz int32, primary BodyType, home bool) string {
	dist := max(abs32(sx), abs32(sy), abs32(sz))
	weight := rng.Int32n(nameChance(primary, dist))
	switch {
	case weight < 500 || home:
		n := rng.Int32Range(2, 3)
		var b strings.Builder
		for i := int32(0); i < n; i++ {
			b.WriteString(nameFragments[rng.Int32Range(0, int32(len(nameFragments))-1)])
		}
		return cases.Title(language.English).String(b.String())
	case weight < 800:
		return fmt.Sprintf("MJBN %d%+d%+d", rng.Int32Range(10, 999), sx, sy)
	case weight < 1200:
		return fmt.Sprintf("SC %d%+d%+d", rng.Int32Range(1000, 9999), sx, sy)
	default:
		return fmt.Sprintf("DSC %d%+d%+d", rng.Int32Range(1000, 9999), sx, sy)
	}
}

// stationNames are combined with the parent body's name for starports.
var stationSuffixes = [...]string{
	"Station", "Port", "Outpost", "Hub", "Dock", "Terminal", "Relay", "Gateway",
}

var settlementPrefixes = [...]string{
	"New", "Port", "Fort", "Camp", "Mount", "Lake", "Cape", "Haven",
}

// genStationName names a starport on or around parent.
func genStationName(rng *random.Random, parent *Body, t BodyType) string {
	if t == TypeStarportSurface {
		base := strings.Fields(parent.Name)
		root := parent.Name
		if len(base) > 0 {
			root = base[0]
		}
		return settlementPrefixes[rng.Int32n(int32(len(settlementPrefixes)))] + " " + root
	}
	return parent.Name + " " + stationSuffixes[rng.Int32n(int32(len(stationSuffixes)))]
}

// genBodyName names a populated procedural planet.
func genBodyName(rng *random.Random) string {
	n := rng.Int32Range(2, 3)
	var b strings.Builder
	for i := int32(0); i < n; i++ {
		b.WriteString(nameFragments[rng.Int32n(int32(len(nameFragments)))])
	}
	return cases.Title(language.English).String(b.String())
}
