// Package gdalio implements the raster collaborator on top of GDAL via
// the godal bindings. Driver configuration is carried as explicit
// per-call options, never process-global state.
package gdalio

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strconv"
	"sync"

	"github.com/airbusgeo/godal"

	"github.com/nrt-labs/nrtpredict-go/internal/domain"
	"github.com/nrt-labs/nrtpredict-go/internal/raster"
)

type IO struct {
	options []string

	mu  sync.Mutex
	mem map[string]string
}

var registerOnce sync.Once

// New builds a collaborator carrying the given driver options
// (KEY=VALUE) on every GDAL call.
func New(driverOptions map[string]string) *IO {
	registerOnce.Do(godal.RegisterAll)

	opts := make([]string, 0, len(driverOptions))
	for k, v := range driverOptions {
		opts = append(opts, k+"="+v)
	}
	sort.Strings(opts)
	return &IO{options: opts, mem: map[string]string{}}
}

func (o *IO) Open(ctx context.Context, path string) (raster.Raster, error) {
	if err := ctx.Err(); err != nil {
		return raster.Raster{}, err
	}
	ds, err := godal.Open(o.resolve(path), godal.ConfigOption(o.options...))
	if err != nil {
		return raster.Raster{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer ds.Close()
	return o.readDataset(ds, path)
}

func (o *IO) Probe(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	ds, err := godal.Open(o.resolve(path), godal.ConfigOption(o.options...))
	if err != nil {
		return err
	}
	return ds.Close()
}

func (o *IO) ReadFootprintWKT(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	ds, err := godal.Open(o.resolve(path), godal.VectorOnly(), godal.ConfigOption(o.options...))
	if err != nil {
		return "", fmt.Errorf("open vector %s: %w", path, err)
	}
	defer ds.Close()

	layers := ds.Layers()
	if len(layers) == 0 {
		return "", fmt.Errorf("vector %s has no layers", path)
	}
	feature := layers[0].NextFeature()
	if feature == nil {
		return "", fmt.Errorf("vector %s has no features", path)
	}
	geom := feature.Geometry()
	if geom == nil {
		return "", fmt.Errorf("vector %s feature has no geometry", path)
	}
	wkt, err := geom.WKT()
	if err != nil {
		return "", fmt.Errorf("export %s geometry: %w", path, err)
	}
	return wkt, nil
}

// RegisterMem spills a fetched buffer to a scratch file and makes it
// addressable under the requested path for later reads.
func (o *IO) RegisterMem(path string, data []byte) error {
	f, err := os.CreateTemp("", "nrtpredict-mem-*")
	if err != nil {
		return fmt.Errorf("register %s: %w", path, err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("register %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("register %s: %w", path, err)
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if old, ok := o.mem[path]; ok {
		_ = os.Remove(old)
	}
	o.mem[path] = f.Name()
	return nil
}

func (o *IO) WriteCutline(ctx context.Context, path, polygonWKT, projection string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	srs, err := godal.NewSpatialRefFromWKT(projection)
	if err != nil {
		return fmt.Errorf("parse projection: %w", err)
	}
	defer srs.Close()

	geom, err := godal.NewGeometryFromWKT(polygonWKT, srs)
	if err != nil {
		return fmt.Errorf("parse cutline polygon: %w", err)
	}
	defer geom.Close()

	ds, err := godal.CreateVector(godal.GeoJSON, path)
	if err != nil {
		return fmt.Errorf("create cutline %s: %w", path, err)
	}
	defer ds.Close()

	layer, err := ds.CreateLayer("obs", srs, godal.GTPolygon)
	if err != nil {
		return fmt.Errorf("create cutline layer: %w", err)
	}
	if _, err := layer.NewFeature(geom); err != nil {
		return fmt.Errorf("write cutline feature: %w", err)
	}
	return nil
}

func (o *IO) Warp(ctx context.Context, dst, src string, opts raster.WarpOptions) (raster.Raster, error) {
	if err := ctx.Err(); err != nil {
		return raster.Raster{}, err
	}
	srcDS, err := godal.Open(o.resolve(src), godal.ConfigOption(o.options...))
	if err != nil {
		return raster.Raster{}, fmt.Errorf("open %s: %w", src, err)
	}
	defer srcDS.Close()

	switches := []string{
		"-of", "GTiff",
		"-ot", "Float32",
		"-t_srs", opts.TargetGrid.Projection,
		"-ts", strconv.Itoa(opts.TargetGrid.Width), strconv.Itoa(opts.TargetGrid.Height),
	}
	if opts.CutlinePath != "" {
		switches = append(switches, "-cutline", opts.CutlinePath)
	}
	if opts.CropToCutline {
		switches = append(switches, "-crop_to_cutline")
	}

	warped, err := godal.Warp(dst, []*godal.Dataset{srcDS}, switches, godal.ConfigOption(o.options...))
	if err != nil {
		return raster.Raster{}, fmt.Errorf("warp %s: %w", src, err)
	}
	defer warped.Close()
	return o.readDataset(warped, dst)
}

func (o *IO) Create(ctx context.Context, path, driver string, grid raster.Grid, cube domain.Cube, noData float64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	ds, err := godal.Create(godal.DriverName(driver), path, cube.Bands, godal.Float32,
		grid.Width, grid.Height, godal.ConfigOption(o.options...))
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer ds.Close()

	if err := ds.SetGeoTransform(grid.Transform); err != nil {
		return fmt.Errorf("set geotransform on %s: %w", path, err)
	}
	if err := ds.SetProjection(grid.Projection); err != nil {
		return fmt.Errorf("set projection on %s: %w", path, err)
	}

	buf := make([]float32, grid.Width*grid.Height)
	for b, band := range ds.Bands() {
		if err := band.SetNoData(noData); err != nil {
			return fmt.Errorf("set nodata on %s: %w", path, err)
		}
		for y := 0; y < grid.Height; y++ {
			for x := 0; x < grid.Width; x++ {
				buf[y*grid.Width+x] = cube.At(x, y, b)
			}
		}
		if err := band.Write(0, 0, buf, grid.Width, grid.Height); err != nil {
			return fmt.Errorf("write band %d of %s: %w", b+1, path, err)
		}
	}
	return nil
}

func (o *IO) Remove(path string) error {
	o.mu.Lock()
	if backing, ok := o.mem[path]; ok {
		delete(o.mem, path)
		o.mu.Unlock()
		return os.Remove(backing)
	}
	o.mu.Unlock()
	return os.Remove(path)
}

func (o *IO) HasDriver(name string) bool {
	return godal.RegisterRaster(godal.DriverName(name)) == nil
}

func (o *IO) resolve(path string) string {
	o.mu.Lock()
	defer o.mu.Unlock()
	if backing, ok := o.mem[path]; ok {
		return backing
	}
	return path
}

func (o *IO) readDataset(ds *godal.Dataset, path string) (raster.Raster, error) {
	structure := ds.Structure()
	width, height, bands := structure.SizeX, structure.SizeY, structure.NBands

	gt, err := ds.GeoTransform()
	if err != nil {
		return raster.Raster{}, fmt.Errorf("geotransform of %s: %w", path, err)
	}

	out := raster.Raster{
		Grid: raster.Grid{
			Transform:  gt,
			Projection: ds.Projection(),
			Width:      width,
			Height:     height,
		},
		Cube: domain.NewCube(width, height, bands),
	}

	buf := make([]float32, width*height)
	for b, band := range ds.Bands() {
		if err := band.Read(0, 0, buf, width, height); err != nil {
			return raster.Raster{}, fmt.Errorf("read band %d of %s: %w", b+1, path, err)
		}
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				out.Cube.Set(x, y, b, buf[y*width+x])
			}
		}
		if b == 0 {
			if nd, ok := band.NoData(); ok {
				out.NoData = &nd
			}
		}
	}
	return out, nil
}
