// Package random provides the deterministic stream every generation stage
// draws from. The same seed material always yields the same sequence.
package random

import (
	"encoding/binary"
	"math/rand/v2"

	"lukechampine.com/blake3"
)

// Random is not safe for concurrent use; each generation call owns its own.
type Random struct {
	r *rand.Rand
}

// New seeds a stream from the given words.
func New(seed ...uint32) *Random {
	buf := make([]byte, 4*len(seed))
	for i, s := range seed {
		binary.LittleEndian.PutUint32(buf[4*i:], s)
	}
	sum := blake3.Sum256(buf)
	src := rand.NewPCG(binary.LittleEndian.Uint64(sum[0:8]), binary.LittleEndian.Uint64(sum[8:16]))
	return &Random{r: rand.New(src)}
}

func (r *Random) Uint32() uint32 { return r.r.Uint32() }

// Int32n returns a value in [0,n). A non-positive n yields 0.
func (r *Random) Int32n(n int32) int32 {
	if n <= 0 {
		return 0
	}
	return r.r.Int32N(n)
}

// Int32Range returns a value in [lo,hi], both inclusive.
func (r *Random) Int32Range(lo, hi int32) int32 {
	if hi <= lo {
		return lo
	}
	return lo + int32(r.r.Int64N(int64(hi)-int64(lo)+1))
}

// Float64 returns a value in [0,1).
func (r *Random) Float64() float64 { return r.r.Float64() }

// Float64n returns a value in [0,max).
func (r *Random) Float64n(max float64) float64 { return r.r.Float64() * max }

// Float64Range returns a value in [lo,hi).
func (r *Random) Float64Range(lo, hi float64) float64 { return lo + r.r.Float64()*(hi-lo) }

// NFloat64 multiplies n uniform draws, skewing the result towards zero.
func (r *Random) NFloat64(n int) float64 {
	v := r.r.Float64()
	for i := 1; i < n; i++ {
		v *= r.r.Float64()
	}
	return v
}
