// Package align warps ancillary rasters onto an observation grid,
// computing each distinct source exactly once per run.
package align

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/nrt-labs/nrtpredict-go/internal/domain"
	"github.com/nrt-labs/nrtpredict-go/internal/raster"
)

// noDataAdvisoryThreshold is the NaN fraction above which a warped input
// is flagged as mostly empty. Strictly greater-than: exactly the
// threshold does not trigger.
const noDataAdvisoryThreshold = 0.9

// ExcessiveNoData reports whether a no-data fraction warrants the
// advisory.
func ExcessiveNoData(fraction float64) bool {
	return fraction > noDataAdvisoryThreshold
}

// Cache aligns ancillary sources onto an observation grid and serves
// private copies by source identifier.
type Cache struct {
	io      raster.IO
	log     *slog.Logger
	grid    raster.Grid
	cutline string
	tmpDir  string
	inputs  map[string]domain.AlignedInput
}

func NewCache(rio raster.IO, log *slog.Logger, grid raster.Grid, cutlinePath, tmpDir string) (*Cache, error) {
	if rio == nil {
		return nil, fmt.Errorf("raster collaborator is required")
	}
	if log == nil {
		log = slog.Default()
	}
	if cutlinePath == "" {
		return nil, fmt.Errorf("cutline path is required")
	}
	return &Cache{
		io:      rio,
		log:     log,
		grid:    grid,
		cutline: cutlinePath,
		tmpDir:  tmpDir,
		inputs:  map[string]domain.AlignedInput{},
	}, nil
}

// Sources returns the union of ancillary source identifiers referenced
// by any model, deduplicated and in first-reference order.
func Sources(models []domain.ModelSpec) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, m := range models {
		for _, input := range m.Inputs {
			if _, ok := seen[input.Filename]; ok {
				continue
			}
			seen[input.Filename] = struct{}{}
			out = append(out, input.Filename)
		}
	}
	return out
}

// Build warps every source onto the observation grid. Each source is
// aligned exactly once regardless of how many models reference it.
func (c *Cache) Build(ctx context.Context, sources []string) error {
	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, ok := c.inputs[src]; ok {
			continue
		}
		aligned, err := c.align(ctx, src)
		if err != nil {
			return fmt.Errorf("align %q: %w", src, err)
		}
		c.inputs[src] = aligned
	}
	return nil
}

// Get returns a private copy of an aligned input.
func (c *Cache) Get(source string) (domain.AlignedInput, bool) {
	input, ok := c.inputs[source]
	if !ok {
		return domain.AlignedInput{}, false
	}
	return input.Clone(), true
}

func (c *Cache) align(ctx context.Context, src string) (domain.AlignedInput, error) {
	c.log.Info("clipping and warping input", "source", src)

	scratch := filepath.Join(c.tmpDir, uuid.NewString())
	warped, err := c.io.Warp(ctx, scratch, src, raster.WarpOptions{
		CutlinePath:   c.cutline,
		CropToCutline: true,
		TargetGrid:    c.grid,
	})
	if err != nil {
		return domain.AlignedInput{}, err
	}
	defer func() {
		if err := c.io.Remove(scratch); err != nil {
			c.log.Warn("removing scratch raster failed", "path", scratch, "error", err)
		}
	}()

	cube := warped.Cube
	if warped.NoData != nil {
		nodata := float32(*warped.NoData)
		nan := float32(math.NaN())
		for i, v := range cube.Data {
			if v == nodata {
				cube.Data[i] = nan
			}
		}
	}

	fraction := cube.NaNFraction()
	if ExcessiveNoData(fraction) {
		c.log.Warn("clipped input has more than 90% no data", "source", src, "fraction", fraction)
	}

	return domain.AlignedInput{Source: src, Data: cube, NoDataFraction: fraction}, nil
}
