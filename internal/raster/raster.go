// Package raster defines the raster/vector I/O collaborator used by the
// pipeline. Implementations decode and encode pixels; the pipeline only
// sequences reads, warps and writes through this interface.
package raster

import (
	"context"

	"github.com/nrt-labs/nrtpredict-go/internal/domain"
)

// Grid is a target pixel grid: affine transform, spatial reference and
// dimensions.
type Grid struct {
	Transform  [6]float64
	Projection string
	Width      int
	Height     int
}

// Raster is the decoded content of one raster dataset.
type Raster struct {
	Grid   Grid
	Cube   domain.Cube
	NoData *float64
}

// WarpOptions describe a reproject+crop+resample operation onto a target
// grid.
type WarpOptions struct {
	CutlinePath   string
	CropToCutline bool
	TargetGrid    Grid
}

// IO is the raster/vector collaborator. All operations are synchronous
// and honor context cancellation where the backing library allows it.
type IO interface {
	// Open reads a raster by path or URL into memory.
	Open(ctx context.Context, path string) (Raster, error)

	// Probe checks that a raster dataset is readable without decoding
	// its pixels. Used for eager configuration validation.
	Probe(ctx context.Context, path string) error

	// ReadFootprintWKT reads the first feature geometry of a vector
	// dataset and returns it as WKT.
	ReadFootprintWKT(ctx context.Context, path string) (string, error)

	// RegisterMem makes an in-memory buffer addressable by path for
	// subsequent Open/ReadFootprintWKT calls.
	RegisterMem(path string, data []byte) error

	// WriteCutline persists a polygon as a single-feature vector dataset
	// in the given spatial reference, suitable as a warp cutline.
	WriteCutline(ctx context.Context, path, polygonWKT, projection string) error

	// Warp reprojects and crops src onto the target grid, writing the
	// result to dst and returning its decoded content.
	Warp(ctx context.Context, dst, src string, opts WarpOptions) (Raster, error)

	// Create writes a multi-band raster with the given driver, grid and
	// declared no-data value.
	Create(ctx context.Context, path, driver string, grid Grid, cube domain.Cube, noData float64) error

	// Remove deletes a dataset previously created through this
	// collaborator.
	Remove(path string) error

	// HasDriver reports whether the named output driver is available.
	HasDriver(name string) bool
}
