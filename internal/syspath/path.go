// Package syspath defines the address of a sector, a star system within a
// sector, or a body within a star system.
package syspath

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"

	"github.com/stellarcache/galaxy/internal/apperr"
	"lukechampine.com/blake3"
)

// Invalid marks an absent system or body index.
const Invalid = ^uint32(0)

// BlobSize is the length of the binary form: five little-endian 32-bit fields.
const BlobSize = 20

// Path is an immutable galaxy address. Compare with == or Compare.
type Path struct {
	SectorX     int32
	SectorY     int32
	SectorZ     int32
	SystemIndex uint32
	BodyIndex   uint32
}

func Sector(x, y, z int32) Path {
	return Path{SectorX: x, SectorY: y, SectorZ: z, SystemIndex: Invalid, BodyIndex: Invalid}
}

func System(x, y, z int32, si uint32) Path {
	return Path{SectorX: x, SectorY: y, SectorZ: z, SystemIndex: si, BodyIndex: Invalid}
}

func Body(x, y, z int32, si, bi uint32) Path {
	return Path{SectorX: x, SectorY: y, SectorZ: z, SystemIndex: si, BodyIndex: bi}
}

func (p Path) HasValidSystem() bool { return p.SystemIndex != Invalid }

// HasValidBody reports whether p names a body. A body index without a
// system index is never valid.
func (p Path) HasValidBody() bool { return p.HasValidSystem() && p.BodyIndex != Invalid }

func (p Path) IsSectorPath() bool { return !p.HasValidSystem() }
func (p Path) IsSystemPath() bool { return p.HasValidSystem() && p.BodyIndex == Invalid }
func (p Path) IsBodyPath() bool   { return p.HasValidBody() }

// SectorOnly strips system and body.
func (p Path) SectorOnly() Path {
	return Sector(p.SectorX, p.SectorY, p.SectorZ)
}

// SystemOnly strips the body. Panics if p has no system; check HasValidSystem first.
func (p Path) SystemOnly() Path {
	if !p.HasValidSystem() {
		panic(fmt.Sprintf("syspath: SystemOnly on sector path %s", p))
	}
	return System(p.SectorX, p.SectorY, p.SectorZ, p.SystemIndex)
}

// WithSystem returns the system path si inside p's sector.
func (p Path) WithSystem(si uint32) Path {
	return System(p.SectorX, p.SectorY, p.SectorZ, si)
}

// WithBody returns the body path bi inside p's system. Panics if p has no system.
func (p Path) WithBody(bi uint32) Path {
	if !p.HasValidSystem() {
		panic(fmt.Sprintf("syspath: WithBody on sector path %s", p))
	}
	return Body(p.SectorX, p.SectorY, p.SectorZ, p.SystemIndex, bi)
}

func (p Path) IsSameSector(o Path) bool {
	return p.SectorX == o.SectorX && p.SectorY == o.SectorY && p.SectorZ == o.SectorZ
}

// IsSameSystem panics unless both paths name a system.
func (p Path) IsSameSystem(o Path) bool {
	if !p.HasValidSystem() || !o.HasValidSystem() {
		panic(fmt.Sprintf("syspath: IsSameSystem on %s and %s", p, o))
	}
	return p.IsSameSector(o) && p.SystemIndex == o.SystemIndex
}

// Compare orders lexicographically over (x, y, z, system, body). Indices
// compare unsigned, so an absent component sorts after any present one.
func (p Path) Compare(o Path) int {
	switch {
	case p.SectorX != o.SectorX:
		return cmp32(p.SectorX, o.SectorX)
	case p.SectorY != o.SectorY:
		return cmp32(p.SectorY, o.SectorY)
	case p.SectorZ != o.SectorZ:
		return cmp32(p.SectorZ, o.SectorZ)
	case p.SystemIndex != o.SystemIndex:
		return cmpU32(p.SystemIndex, o.SystemIndex)
	default:
		return cmpU32(p.BodyIndex, o.BodyIndex)
	}
}

func (p Path) Less(o Path) bool { return p.Compare(o) < 0 }

func cmp32(a, b int32) int {
	if a < b {
		return -1
	}
	if a > b {
		return 1
	}
	return 0
}

func cmpU32(a, b uint32) int {
	if a < b {
		return -1
	}
	if a > b {
		return 1
	}
	return 0
}

// String renders x,y,z[,system[,body]].
func (p Path) String() string {
	var b strings.Builder
	b.Grow(32)
	b.WriteString(strconv.FormatInt(int64(p.SectorX), 10))
	b.WriteByte(',')
	b.WriteString(strconv.FormatInt(int64(p.SectorY), 10))
	b.WriteByte(',')
	b.WriteString(strconv.FormatInt(int64(p.SectorZ), 10))
	if p.HasValidSystem() {
		b.WriteByte(',')
		b.WriteString(strconv.FormatUint(uint64(p.SystemIndex), 10))
		if p.BodyIndex != Invalid {
			b.WriteByte(',')
			b.WriteString(strconv.FormatUint(uint64(p.BodyIndex), 10))
		}
	}
	return b.String()
}

// Parse reads 3 to 5 comma separated integers, optionally wrapped in
// parentheses. Malformed input is an apperr parse error.
func Parse(s string) (Path, error) {
	str := strings.TrimSpace(s)
	if strings.HasPrefix(str, "(") {
		if !strings.HasSuffix(str, ")") {
			return Path{}, apperr.Parsef("parse path %q: unbalanced parenthesis", s)
		}
		str = str[1 : len(str)-1]
	}
	tokens := strings.Split(str, ",")
	if len(tokens) < 3 || len(tokens) > 5 {
		return Path{}, apperr.Parsef("parse path %q: want 3 to 5 components, got %d", s, len(tokens))
	}

	var coords [3]int32
	for i := 0; i < 3; i++ {
		v, err := strconv.ParseInt(strings.TrimSpace(tokens[i]), 10, 32)
		if err != nil {
			return Path{}, apperr.WrapParse(fmt.Sprintf("parse path %q: component %d", s, i), err)
		}
		coords[i] = int32(v)
	}
	p := Sector(coords[0], coords[1], coords[2])

	for i := 3; i < len(tokens); i++ {
		v, err := strconv.ParseInt(strings.TrimSpace(tokens[i]), 10, 64)
		if err != nil {
			return Path{}, apperr.WrapParse(fmt.Sprintf("parse path %q: component %d", s, i), err)
		}
		if v < 0 || v >= int64(Invalid) {
			return Path{}, apperr.Parsef("parse path %q: index %d out of range", s, v)
		}
		if i == 3 {
			p.SystemIndex = uint32(v)
		} else {
			p.BodyIndex = uint32(v)
		}
	}
	return p, nil
}

// MustParse is Parse for literals in tests and tables.
func MustParse(s string) Path {
	p, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return p
}

// Blob returns the fixed little-endian binary form.
func (p Path) Blob() [BlobSize]byte {
	var b [BlobSize]byte
	binary.LittleEndian.PutUint32(b[0:], uint32(p.SectorX))
	binary.LittleEndian.PutUint32(b[4:], uint32(p.SectorY))
	binary.LittleEndian.PutUint32(b[8:], uint32(p.SectorZ))
	binary.LittleEndian.PutUint32(b[12:], p.SystemIndex)
	binary.LittleEndian.PutUint32(b[16:], p.BodyIndex)
	return b
}

// FromBlob decodes the output of Blob.
func FromBlob(b []byte) (Path, error) {
	if len(b) != BlobSize {
		return Path{}, apperr.Parsef("path blob: want %d bytes, got %d", BlobSize, len(b))
	}
	p := Path{
		SectorX:     int32(binary.LittleEndian.Uint32(b[0:])),
		SectorY:     int32(binary.LittleEndian.Uint32(b[4:])),
		SectorZ:     int32(binary.LittleEndian.Uint32(b[8:])),
		SystemIndex: binary.LittleEndian.Uint32(b[12:]),
		BodyIndex:   binary.LittleEndian.Uint32(b[16:]),
	}
	if p.SystemIndex == Invalid && p.BodyIndex != Invalid {
		return Path{}, apperr.Parsef("path blob: body index %d without system", p.BodyIndex)
	}
	return p, nil
}

// Hash is stable across processes and platforms.
func (p Path) Hash() uint64 {
	blob := p.Blob()
	sum := blake3.Sum256(blob[:])
	return binary.LittleEndian.Uint64(sum[:8])
}

// MarshalText implements encoding.TextMarshaler so paths can key JSON maps.
func (p Path) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Path) UnmarshalText(text []byte) error {
	v, err := Parse(string(text))
	if err != nil {
		return err
	}
	*p = v
	return nil
}
