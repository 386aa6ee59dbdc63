package builtin

import (
	"context"
	"math"
	"testing"

	"github.com/nrt-labs/nrtpredict-go/internal/domain"
	"github.com/nrt-labs/nrtpredict-go/internal/model"
	"github.com/nrt-labs/nrtpredict-go/internal/raster"
)

type captureIO struct {
	path   string
	driver string
	grid   raster.Grid
	cube   domain.Cube
	noData float64
}

func (c *captureIO) Open(ctx context.Context, path string) (raster.Raster, error) {
	return raster.Raster{}, nil
}

func (c *captureIO) Probe(ctx context.Context, path string) error { return nil }

func (c *captureIO) ReadFootprintWKT(ctx context.Context, path string) (string, error) {
	return "", nil
}

func (c *captureIO) RegisterMem(path string, data []byte) error { return nil }

func (c *captureIO) WriteCutline(ctx context.Context, path, wkt, projection string) error {
	return nil
}

func (c *captureIO) Warp(ctx context.Context, dst, src string, opts raster.WarpOptions) (raster.Raster, error) {
	return raster.Raster{}, nil
}

func (c *captureIO) Create(ctx context.Context, path, driver string, grid raster.Grid, cube domain.Cube, noData float64) error {
	c.path = path
	c.driver = driver
	c.grid = grid
	c.cube = cube
	c.noData = noData
	return nil
}

func (c *captureIO) Remove(path string) error { return nil }

func (c *captureIO) HasDriver(name string) bool { return true }

func nbrParams() map[string]any {
	return map[string]any{
		"geo":   [6]float64{0, 1, 0, 0, 0, -1},
		"prj":   "WKT",
		"xsize": 2,
		"ysize": 1,
	}
}

func reflectanceCube(width, height int) domain.Cube {
	cube := domain.NewCube(width, height, len(domain.Bands))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			for b := range domain.Bands {
				cube.Set(x, y, b, 0.1)
			}
		}
	}
	return cube
}

func TestNBRComputesRatio(t *testing.T) {
	cio := &captureIO{}
	reg := model.NewRegistry()
	Register(reg, cio)

	factory, err := reg.Lookup("nbr")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	m, err := factory(nbrParams())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	refl := reflectanceCube(2, 1)
	b08, b12 := bandIndex("B08"), bandIndex("B12")
	refl.Set(0, 0, b08, 0.6)
	refl.Set(0, 0, b12, 0.2)
	refl.Set(1, 0, b08, float32(math.NaN()))

	if err := m.PredictAndSave(context.Background(), []domain.Cube{refl}, "/out/nbr.tif"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cio.path != "/out/nbr.tif" || cio.driver != "GTiff" {
		t.Fatalf("unexpected persist target %q driver %q", cio.path, cio.driver)
	}
	if cio.noData != outputNoData {
		t.Fatalf("unexpected nodata %v", cio.noData)
	}

	got := cio.cube.At(0, 0, 0)
	want := float32((0.6 - 0.2) / (0.6 + 0.2))
	if math.Abs(float64(got-want)) > 1e-6 {
		t.Fatalf("got %v, want %v", got, want)
	}
	if cio.cube.At(1, 0, 0) != outputNoData {
		t.Fatalf("masked pixel not set to nodata: %v", cio.cube.At(1, 0, 0))
	}
}

func TestNBRRejectsMissingGrid(t *testing.T) {
	cio := &captureIO{}
	if _, err := newNBR(cio, map[string]any{"prj": "WKT"}); err == nil {
		t.Fatalf("expected error for missing grid parameters")
	}
}

func TestNBRRejectsWrongBandCount(t *testing.T) {
	cio := &captureIO{}
	m, err := newNBR(cio, nbrParams())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	narrow := domain.NewCube(2, 1, 3)
	if err := m.PredictAndSave(context.Background(), []domain.Cube{narrow}, "/out/nbr.tif"); err == nil {
		t.Fatalf("expected band count error")
	}
}
