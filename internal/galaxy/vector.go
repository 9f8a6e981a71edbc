package galaxy

import (
	"fmt"
	"math"
)

// Vector3 is a position in light years.
type Vector3 struct {
	X, Y, Z float64
}

func V(x, y, z float64) Vector3 { return Vector3{x, y, z} }

func (v Vector3) Add(o Vector3) Vector3 { return Vector3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }

func (v Vector3) Sub(o Vector3) Vector3 { return Vector3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }

func (v Vector3) Scale(f float64) Vector3 { return Vector3{v.X * f, v.Y * f, v.Z * f} }

func (v Vector3) Length() float64 { return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z) }

func (v Vector3) String() string { return fmt.Sprintf("(%.3f, %.3f, %.3f)", v.X, v.Y, v.Z) }

// isqrt is the integer square root, floor(sqrt(n)) for n >= 0.
func isqrt(n int64) int64 {
	if n <= 0 {
		return 0
	}
	r := int64(math.Sqrt(float64(n)))
	for r*r > n {
		r--
	}
	for (r+1)*(r+1) <= n {
		r++
	}
	return r
}

func abs32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}
