package event

import "github.com/stellarcache/galaxy/internal/syspath"

// SystemExplored reports a change to a system's exploration record.
// Date is the packed day/month/year of exploration, 0 for explored at start
// and -1 for unexplored.
type SystemExplored struct {
	Path syspath.Path
	Date int32
}

// GeneratorChanged reports that the galaxy switched or reloaded its generator.
type GeneratorChanged struct {
	Name    string
	Version int
	Reused  bool
}
