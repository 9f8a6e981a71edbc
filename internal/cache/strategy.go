// Package cache holds generated galaxy objects in two tiers: one master per
// object kind that only deduplicates (it never keeps anything alive), and any
// number of consumer-owned slaves that hold strong references.
package cache

import "github.com/stellarcache/galaxy/internal/syspath"

// DefaultJobSize is how many paths one background fill job generates.
const DefaultJobSize = 100

// Strategy decides the cache key for a path and the order in which missing
// keys are batched into jobs.
type Strategy interface {
	Key(p syspath.Path) syspath.Path
	Less(a, b syspath.Path) bool
}

// SectorStrategy keys on the sector alone.
type SectorStrategy struct{}

func (SectorStrategy) Key(p syspath.Path) syspath.Path { return p.SectorOnly() }

func (SectorStrategy) Less(a, b syspath.Path) bool {
	return a.SectorOnly().Less(b.SectorOnly())
}

// SystemStrategy keys on the system and orders by parent sector first, so a
// job chunk tends to cover the systems of one sector.
type SystemStrategy struct{}

func (SystemStrategy) Key(p syspath.Path) syspath.Path { return p.SystemOnly() }

func (SystemStrategy) Less(a, b syspath.Path) bool {
	return a.SystemOnly().Less(b.SystemOnly())
}

// Source produces cached objects.
type Source[T any] interface {
	// Generate builds the object for key on the owning goroutine.
	Generate(key syspath.Path) *T
	// Prepare runs on the owning goroutine and captures everything needed to
	// build key. The returned function must be safe on any goroutine.
	Prepare(key syspath.Path) func() *T
}
