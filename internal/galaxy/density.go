package galaxy

import (
	"fmt"
	"image"
	"image/color"
	_ "image/png"
	"math"
	"os"

	opensimplex "github.com/ojrac/opensimplex-go"
)

// DensityMap is a greyscale top-down picture of the galaxy. Brighter pixels
// hold more systems per sector.
type DensityMap struct {
	w, h int
	pix  []byte
}

// NewDensityMap wraps a row-major w*h byte grid.
func NewDensityMap(w, h int, pix []byte) (*DensityMap, error) {
	if w <= 0 || h <= 0 || len(pix) != w*h {
		return nil, fmt.Errorf("density map: %dx%d needs %d bytes, got %d", w, h, w*h, len(pix))
	}
	return &DensityMap{w: w, h: h, pix: pix}, nil
}

// LoadDensityImage decodes a PNG and converts it to grey.
func LoadDensityImage(path string) (*DensityMap, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open density image: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode density image %s: %w", path, err)
	}
	b := img.Bounds()
	pix := make([]byte, b.Dx()*b.Dy())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			g := color.GrayModel.Convert(img.At(x, y)).(color.Gray)
			pix[(y-b.Min.Y)*b.Dx()+(x-b.Min.X)] = g.Y
		}
	}
	return NewDensityMap(b.Dx(), b.Dy(), pix)
}

// NoiseDensityMap draws a bright core fading to a soft edge, with two
// spiral arms and fractal noise on top.
func NoiseDensityMap(seed int64, size int) *DensityMap {
	if size < 16 {
		size = 16
	}
	noise := opensimplex.NewNormalized(seed)
	pix := make([]byte, size*size)
	half := float64(size) / 2
	for py := 0; py < size; py++ {
		for px := 0; px < size; px++ {
			u := (float64(px) + 0.5 - half) / half
			v := (float64(py) + 0.5 - half) / half
			r := math.Sqrt(u*u + v*v)
			if r >= 1 {
				continue
			}
			theta := math.Atan2(v, u)
			base := math.Pow(1-r, 0.6)
			arm := 0.5 + 0.5*math.Cos(2*(theta-4*r))
			n := octaveNoise(noise, u*8, v*8, 4, 1, 0.5)
			val := 255 * base * (0.35 + 0.4*arm + 0.25*n)
			pix[py*size+px] = byte(clamp(val, 0, 255))
		}
	}
	return &DensityMap{w: size, h: size, pix: pix}
}

// octaveNoise layers frequencies of normalized noise into 0..1.
func octaveNoise(noise opensimplex.Noise, x, y float64, octaves int, frequency, persistence float64) float64 {
	total, amplitude, maxVal := 0.0, 1.0, 0.0
	for i := 0; i < octaves; i++ {
		total += noise.Eval2(x*frequency, y*frequency) * amplitude
		maxVal += amplitude
		amplitude *= persistence
		frequency *= 2
	}
	return total / maxVal
}

func (d *DensityMap) Width() int  { return d.w }
func (d *DensityMap) Height() int { return d.h }

// At returns the pixel at (x,y), zero outside the image.
func (d *DensityMap) At(x, y int) byte {
	if x < 0 || y < 0 || x >= d.w || y >= d.h {
		return 0
	}
	return d.pix[y*d.w+x]
}

// DensityParams places the density image in galactic coordinates.
type DensityParams struct {
	Radius     float64 // light years from the image centre to its edge
	SolOffsetX float64 // light years from the galactic centre to sector 0,0,0
	SolOffsetY float64
}

// DefaultDensityParams matches the stock galaxy.
var DefaultDensityParams = DensityParams{Radius: 50000, SolOffsetX: 25000, SolOffsetY: 0}

// sectorDensity returns 0..127: the pixel under the sector, faded with
// distance from the galactic plane, then halved.
func (d *DensityMap) sectorDensity(p DensityParams, sx, sy, sz int32) int32 {
	if d == nil {
		return 0
	}
	x := (float64(sx)*SectorSize + p.SolOffsetX) / p.Radius
	y := (float64(-sy)*SectorSize + p.SolOffsetY) / p.Radius
	px := int(math.Floor((x + 1) / 2 * float64(d.w)))
	py := int(math.Floor((y + 1) / 2 * float64(d.h)))
	val := int32(d.At(px, py))
	fade := min(abs32(sz), 256)
	val = val * (256 - fade) / 256
	return val / 2
}
