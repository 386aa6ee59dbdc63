// Package observation retrieves and prepares satellite observation
// packages: validity mask, scaled reflectance bands, footprint and
// acquisition time.
package observation

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"strings"

	"github.com/nrt-labs/nrtpredict-go/internal/domain"
	"github.com/nrt-labs/nrtpredict-go/internal/raster"
)

const boundsMemPath = "/vsimem/bounds.geojson"

// Resolver loads observation packages through the raster collaborator,
// with a plain HTTP fallback for the published footprint.
type Resolver struct {
	io      raster.IO
	http    *http.Client
	log     *slog.Logger
	product string
}

func NewResolver(rio raster.IO, httpClient *http.Client, log *slog.Logger, product string) (*Resolver, error) {
	if rio == nil {
		return nil, fmt.Errorf("raster collaborator is required")
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if log == nil {
		log = slog.Default()
	}
	if strings.TrimSpace(product) == "" {
		product = "NBAR"
	}
	return &Resolver{io: rio, http: httpClient, log: log, product: product}, nil
}

// Resolve retrieves the observation at locator: FMASK mask, the fixed
// reflectance band list scaled to physical reflectance with NaN where
// the mask marks no-data, the package footprint and acquisition time.
func (r *Resolver) Resolve(ctx context.Context, locator string) (domain.ObservationPackage, error) {
	pkg := PackageName(locator)
	stripped := strings.Replace(locator, "/vsicurl/", "", 1)

	maskRaster, err := r.io.Open(ctx, fmt.Sprintf("%s/QA/%s_FMASK.TIF", locator, pkg))
	if err != nil {
		return domain.ObservationPackage{}, fmt.Errorf("open mask: %w", err)
	}

	width := maskRaster.Grid.Width
	height := maskRaster.Grid.Height
	mask := make([]uint8, width*height)
	for i, v := range maskRaster.Cube.Data[:width*height] {
		mask[i] = uint8(v)
	}

	obs := domain.ObservationPackage{
		Locator:    locator,
		Transform:  maskRaster.Grid.Transform,
		Projection: maskRaster.Grid.Projection,
		Width:      width,
		Height:     height,
		Mask:       mask,
	}

	r.log.Info("observation package",
		"package", pkg,
		"thumbnail", fmt.Sprintf("%s/%s/%s_THUMBNAIL.JPG", stripped, r.product, r.product),
		"location", stripped+"/map.html",
		"pixels", fmt.Sprintf("%dx%d", width, height),
		"nodata_fraction", obs.MaskFraction(domain.MaskNoData),
		"clear_fraction", obs.MaskFraction(domain.MaskClear),
	)

	obs.AcquiredAt, err = ParseAcquisition(locator)
	if err != nil {
		return domain.ObservationPackage{}, err
	}

	obs.FootprintWKT, err = r.Bounds(ctx, locator)
	if err != nil {
		return domain.ObservationPackage{}, err
	}

	r.log.Info("loading reflectance data", "bands", len(domain.Bands))
	data := domain.NewCube(width, height, len(domain.Bands))
	for i, band := range domain.Bands {
		r.log.Info("loading band", "band", band)
		bandRaster, err := r.io.Open(ctx, fmt.Sprintf("%s/%s/%s_%s.TIF", locator, r.product, r.product, band))
		if err != nil {
			return domain.ObservationPackage{}, fmt.Errorf("open band %s: %w", band, err)
		}
		if bandRaster.Grid.Width != width || bandRaster.Grid.Height != height {
			return domain.ObservationPackage{}, fmt.Errorf(
				"band %s grid %dx%d does not match mask %dx%d",
				band, bandRaster.Grid.Width, bandRaster.Grid.Height, width, height)
		}
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				data.Set(x, y, i, bandRaster.Cube.At(x, y, 0))
			}
		}
	}

	nan := float32(math.NaN())
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if mask[y*width+x] == domain.MaskNoData {
				for b := 0; b < data.Bands; b++ {
					data.Set(x, y, b, nan)
				}
				continue
			}
			for b := 0; b < data.Bands; b++ {
				data.Set(x, y, b, data.At(x, y, b)/domain.ReflectanceScale)
			}
		}
	}
	obs.Reflectance = data

	return obs, nil
}

// Bounds returns the package footprint as WKT. It prefers the published
// bounds.geojson through the raster collaborator; if that access path
// fails it retries exactly once via a plain HTTP fetch into an
// in-memory buffer and re-parses.
func (r *Resolver) Bounds(ctx context.Context, locator string) (string, error) {
	fn := locator + "/bounds.geojson"

	wkt, err := r.io.ReadFootprintWKT(ctx, fn)
	if err == nil {
		return wkt, nil
	}

	r.log.Info("opening footprint failed, trying alternative", "path", fn, "error", err)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.Replace(fn, "/vsicurl/", "", 1), nil)
	if err != nil {
		return "", fmt.Errorf("footprint request: %w", err)
	}
	resp, err := r.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch footprint: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch footprint: unexpected status %s", resp.Status)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read footprint body: %w", err)
	}

	if err := r.io.RegisterMem(boundsMemPath, body); err != nil {
		return "", fmt.Errorf("register footprint buffer: %w", err)
	}
	return r.io.ReadFootprintWKT(ctx, boundsMemPath)
}
