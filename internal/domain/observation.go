package domain

import "time"

// Bands is the fixed, ordered reflectance band list of an observation
// package. Band indexes in the reflectance cube follow this order.
var Bands = []string{"B02", "B03", "B04", "B05", "B06", "B07", "B08", "B8A", "B11", "B12"}

// Validity mask categories as stored in the package's FMASK raster.
const (
	MaskNoData uint8 = 0
	MaskClear  uint8 = 1
)

// ReflectanceScale converts digital numbers to physical reflectance.
const ReflectanceScale = 10000.0

// ObservationPackage is a fully resolved satellite observation: its
// geometry, validity mask and scaled reflectance data.
//
// Mask and Reflectance share the same Width x Height; reflectance values
// are NaN wherever the mask is MaskNoData.
type ObservationPackage struct {
	Locator      string
	AcquiredAt   time.Time
	FootprintWKT string
	Transform    [6]float64
	Projection   string
	Width        int
	Height       int
	Reflectance  Cube
	Mask         []uint8
}

// MaskFraction reports the fraction of mask pixels in the given category.
func (o ObservationPackage) MaskFraction(category uint8) float64 {
	if len(o.Mask) == 0 {
		return 0
	}
	n := 0
	for _, v := range o.Mask {
		if v == category {
			n++
		}
	}
	return float64(n) / float64(len(o.Mask))
}
