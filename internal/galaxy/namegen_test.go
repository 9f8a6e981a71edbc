package galaxy

import (
	"strings"
	"testing"
	"unicode"

	"github.com/stellarcache/galaxy/internal/random"
)

func TestGenSystemNameDeterministic(t *testing.T) {
	for i := uint32(0); i < 50; i++ {
		a := genSystemName(random.New(i), 20, -3, 1, TypeStarM, false)
		b := genSystemName(random.New(i), 20, -3, 1, TypeStarM, false)
		if a != b {
			t.Fatalf("seed %d: %q vs %q", i, a, b)
		}
		if a == "" {
			t.Fatalf("seed %d: empty name", i)
		}
	}
}

func TestHomeSystemsGetRealNames(t *testing.T) {
	for i := uint32(0); i < 50; i++ {
		name := genSystemName(random.New(i), 300, 300, 0, TypeStarM, true)
		if strings.ContainsAny(name, " +-0123456789") {
			t.Fatalf("home system got catalogue name %q", name)
		}
		if r := []rune(name)[0]; !unicode.IsUpper(r) {
			t.Fatalf("%q is not capitalised", name)
		}
	}
}

func TestFarDimStarsGetCatalogueNames(t *testing.T) {
	catalogue := 0
	for i := uint32(0); i < 200; i++ {
		name := genSystemName(random.New(i), 400, 0, 0, TypeStarM, false)
		if strings.HasPrefix(name, "MJBN ") || strings.HasPrefix(name, "SC ") || strings.HasPrefix(name, "DSC ") {
			catalogue++
		}
	}
	if catalogue < 150 {
		t.Fatalf("only %d/200 far M stars got catalogue names", catalogue)
	}
}

func TestStationNames(t *testing.T) {
	parent := &Body{Name: "New Hope b"}
	rng := random.New(3)
	orbital := genStationName(rng, parent, TypeStarportOrbital)
	if !strings.HasPrefix(orbital, "New Hope b ") {
		t.Fatalf("orbital name %q", orbital)
	}
	surface := genStationName(rng, parent, TypeStarportSurface)
	if !strings.HasSuffix(surface, " New") {
		t.Fatalf("surface name %q", surface)
	}
}
