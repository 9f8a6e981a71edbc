package galaxy

import "github.com/stellarcache/galaxy/internal/syspath"

// Octsapling splits space into the eight octants around the origin by the
// sign of each coordinate. A faction is filed in every octant touched by the
// cube around its homeworld, so a sphere that crosses a boundary only
// diagonally can be missed. Generated content depends on that.
type Octsapling struct {
	box [2][2][2][]*Faction
}

func boxIndex(v int32) int {
	if v < 0 {
		return 0
	}
	return 1
}

// Add files f using its radius at year. Factions without a resolved
// homeworld go everywhere.
func (o *Octsapling) Add(f *Faction, year float64) {
	if !f.HasHomeworld || f.homeSector == nil {
		for x := 0; x < 2; x++ {
			for y := 0; y < 2; y++ {
				for z := 0; z < 2; z++ {
					o.push(x, y, z, f)
				}
			}
		}
		return
	}

	r := f.Radius(year)
	pos := f.homePos
	xs := [2]int{boxIndex(int32(pos.X - r)), boxIndex(int32(pos.X + r))}
	ys := [2]int{boxIndex(int32(pos.Y - r)), boxIndex(int32(pos.Y + r))}
	zs := [2]int{boxIndex(int32(pos.Z - r)), boxIndex(int32(pos.Z + r))}
	for _, x := range xs {
		for _, y := range ys {
			for _, z := range zs {
				o.push(x, y, z, f)
			}
		}
	}
}

// push appends f unless it is already the last entry of the cell. Factions
// are added one at a time, so that is enough to keep cells free of duplicates.
func (o *Octsapling) push(x, y, z int, f *Faction) {
	cell := o.box[x][y][z]
	if n := len(cell); n > 0 && cell[n-1] == f {
		return
	}
	o.box[x][y][z] = append(cell, f)
}

// Candidates returns the factions filed in the octant of p's sector.
func (o *Octsapling) Candidates(p syspath.Path) []*Faction {
	return o.box[boxIndex(p.SectorX)][boxIndex(p.SectorY)][boxIndex(p.SectorZ)]
}

// Clear empties every octant.
func (o *Octsapling) Clear() {
	o.box = [2][2][2][]*Faction{}
}
