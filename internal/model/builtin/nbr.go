// Package builtin holds the in-process model registry entries shipped
// with the pipeline.
package builtin

import (
	"context"
	"fmt"
	"math"

	"github.com/nrt-labs/nrtpredict-go/internal/domain"
	"github.com/nrt-labs/nrtpredict-go/internal/model"
	"github.com/nrt-labs/nrtpredict-go/internal/raster"
)

const outputNoData = -9999

// Register adds the built-in models to a registry. They persist output
// through the raster collaborator.
func Register(reg *model.Registry, rio raster.IO) {
	reg.Register("nbr", func(params map[string]any) (model.Model, error) {
		return newNBR(rio, params)
	})
}

// nbr computes a normalized burn ratio from the observation's
// reflectance bands: (B08 - B12) / (B08 + B12).
type nbr struct {
	io     raster.IO
	driver string
	grid   raster.Grid
}

func newNBR(rio raster.IO, params map[string]any) (model.Model, error) {
	if rio == nil {
		return nil, fmt.Errorf("nbr: raster collaborator is required")
	}
	driver, _ := params["driver"].(string)
	if driver == "" {
		driver = "GTiff"
	}
	grid, err := gridFromParams(params)
	if err != nil {
		return nil, fmt.Errorf("nbr: %w", err)
	}
	return &nbr{io: rio, driver: driver, grid: grid}, nil
}

func (m *nbr) PredictAndSave(ctx context.Context, inputs []domain.Cube, outputPath string) error {
	if len(inputs) == 0 {
		return fmt.Errorf("nbr: no inputs")
	}
	refl := inputs[len(inputs)-1]
	if refl.Bands != len(domain.Bands) {
		return fmt.Errorf("nbr: want %d reflectance bands, got %d", len(domain.Bands), refl.Bands)
	}

	b08 := bandIndex("B08")
	b12 := bandIndex("B12")

	out := domain.NewCube(refl.Width, refl.Height, 1)
	for y := 0; y < refl.Height; y++ {
		for x := 0; x < refl.Width; x++ {
			nir := float64(refl.At(x, y, b08))
			swir := float64(refl.At(x, y, b12))
			sum := nir + swir
			if math.IsNaN(nir) || math.IsNaN(swir) || sum == 0 {
				out.Set(x, y, 0, outputNoData)
				continue
			}
			out.Set(x, y, 0, float32((nir-swir)/sum))
		}
	}

	return m.io.Create(ctx, outputPath, m.driver, m.grid, out, outputNoData)
}

func bandIndex(name string) int {
	for i, b := range domain.Bands {
		if b == name {
			return i
		}
	}
	return -1
}

func gridFromParams(params map[string]any) (raster.Grid, error) {
	grid := raster.Grid{}
	gt, ok := params["geo"].([6]float64)
	if !ok {
		return grid, fmt.Errorf("missing geotransform parameter")
	}
	grid.Transform = gt
	grid.Projection, _ = params["prj"].(string)
	grid.Width, ok = params["xsize"].(int)
	if !ok {
		return grid, fmt.Errorf("missing xsize parameter")
	}
	grid.Height, ok = params["ysize"].(int)
	if !ok {
		return grid, fmt.Errorf("missing ysize parameter")
	}
	return grid, nil
}
