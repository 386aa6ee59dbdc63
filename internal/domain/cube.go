package domain

import "math"

// Cube is a dense width x height x bands raster array in row-major,
// band-interleaved-by-pixel order. It is the in-memory currency of the
// pipeline: reflectance data, aligned ancillary data and model inputs
// are all Cubes on the observation grid.
type Cube struct {
	Width  int
	Height int
	Bands  int
	Data   []float32
}

func NewCube(width, height, bands int) Cube {
	return Cube{
		Width:  width,
		Height: height,
		Bands:  bands,
		Data:   make([]float32, width*height*bands),
	}
}

func (c Cube) index(x, y, band int) int {
	return (y*c.Width+x)*c.Bands + band
}

func (c Cube) At(x, y, band int) float32 {
	return c.Data[c.index(x, y, band)]
}

func (c Cube) Set(x, y, band int, v float32) {
	c.Data[c.index(x, y, band)] = v
}

// Clone returns a deep copy. Models receive clones so one model can never
// observe mutations made by another.
func (c Cube) Clone() Cube {
	out := c
	out.Data = make([]float32, len(c.Data))
	copy(out.Data, c.Data)
	return out
}

// NaNFraction reports the fraction of values that are NaN.
func (c Cube) NaNFraction() float64 {
	if len(c.Data) == 0 {
		return 0
	}
	n := 0
	for _, v := range c.Data {
		if math.IsNaN(float64(v)) {
			n++
		}
	}
	return float64(n) / float64(len(c.Data))
}
