// Package geom computes ground-space footprints from affine raster
// geometry.
package geom

import (
	"regexp"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"
)

// Apply evaluates the affine pixel to world mapping at a pixel
// coordinate. The transform is the usual 6-coefficient form: origin x,
// pixel width, row rotation, origin y, column rotation, pixel height.
func Apply(gt [6]float64, col, row float64) (x, y float64) {
	x = gt[0] + col*gt[1] + row*gt[2]
	y = gt[3] + col*gt[4] + row*gt[5]
	return x, y
}

// Footprint returns the closed ground-space polygon bounding a grid of
// width x height pixels under the given transform. The ring visits the
// pixel corners (0,0), (width,0), (width,height), (0,height) and closes
// with the first corner, so it always has exactly 5 points.
func Footprint(gt [6]float64, width, height int) orb.Polygon {
	w := float64(width)
	h := float64(height)
	corners := [][2]float64{
		{0, 0},
		{w, 0},
		{w, h},
		{0, h},
		{0, 0},
	}

	ring := make(orb.Ring, 0, len(corners))
	for _, c := range corners {
		x, y := Apply(gt, c[0], c[1])
		ring = append(ring, orb.Point{x, y})
	}
	return orb.Polygon{ring}
}

// FootprintWKT returns the footprint encoded as WKT in the grid's native
// spatial reference.
func FootprintWKT(gt [6]float64, width, height int) string {
	return wkt.MarshalString(Footprint(gt, width, height))
}

var wktDecimals = regexp.MustCompile(`([+-]?\d*\.\d{4})\d*`)

// RoundWKT truncates coordinate text in a WKT string to 4 decimal
// places. Used when footprints are logged or persisted.
func RoundWKT(s string) string {
	return wktDecimals.ReplaceAllString(s, "$1")
}
