// Package pipeline sequences one prediction run: resolve the
// observation, build its footprint and alignment cache, then resolve,
// invoke and persist each requested model in declaration order.
// Failure policy is fail-fast at run granularity.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/nrt-labs/nrtpredict-go/internal/align"
	"github.com/nrt-labs/nrtpredict-go/internal/config"
	"github.com/nrt-labs/nrtpredict-go/internal/domain"
	"github.com/nrt-labs/nrtpredict-go/internal/geom"
	"github.com/nrt-labs/nrtpredict-go/internal/model"
	"github.com/nrt-labs/nrtpredict-go/internal/observation"
	"github.com/nrt-labs/nrtpredict-go/internal/raster"
)

// State names the orchestrator's linear phases. Transitions only move
// forward; there are no back-edges.
type State string

const (
	StateResolveObservation State = "resolve_observation"
	StateBuildFootprint     State = "build_footprint"
	StateBuildCache         State = "build_alignment_cache"
	StateResolveModel       State = "resolve_model"
	StateAssembleInputs     State = "assemble_inputs"
	StateInvoke             State = "invoke"
	StatePersist            State = "persist"
	StateDone               State = "done"
)

// Ledger records run progress. A nil ledger disables recording.
type Ledger interface {
	StartRun(ctx context.Context, locator string) error
	ModelCompleted(ctx context.Context, name, output string) error
	FinishRun(ctx context.Context, status string) error
}

// Pipeline wires the collaborators for one or more runs.
type Pipeline struct {
	io     raster.IO
	obs    *observation.Resolver
	models *model.Resolver
	ledger Ledger
	log    *slog.Logger
	cfg    config.Config
}

func New(rio raster.IO, obs *observation.Resolver, models *model.Resolver, ledger Ledger, log *slog.Logger, cfg config.Config) (*Pipeline, error) {
	if rio == nil {
		return nil, fmt.Errorf("raster collaborator is required")
	}
	if obs == nil {
		return nil, fmt.Errorf("observation resolver is required")
	}
	if models == nil {
		return nil, fmt.Errorf("model resolver is required")
	}
	if log == nil {
		log = slog.Default()
	}
	return &Pipeline{io: rio, obs: obs, models: models, ledger: ledger, log: log, cfg: cfg}, nil
}

// Run executes the full pipeline for one observation locator. The first
// unrecoverable failure terminates the run; remaining models are not
// attempted.
func (p *Pipeline) Run(ctx context.Context, locator string) error {
	locator, err := p.checkedLocator(locator)
	if err != nil {
		return err
	}

	if p.ledger != nil {
		if err := p.ledger.StartRun(ctx, locator); err != nil {
			p.log.Warn("ledger start failed", "error", err)
		}
	}

	err = p.run(ctx, locator)

	if p.ledger != nil {
		status := "completed"
		if err != nil {
			status = "failed"
		}
		if lerr := p.ledger.FinishRun(ctx, status); lerr != nil {
			p.log.Warn("ledger finish failed", "error", lerr)
		}
	}
	return err
}

func (p *Pipeline) run(ctx context.Context, locator string) error {
	p.enter(StateResolveObservation)
	obs, err := p.obs.Resolve(ctx, locator)
	if err != nil {
		return fmt.Errorf("resolve observation: %w", err)
	}
	p.log.Info("observation resolved",
		"acquired", obs.AcquiredAt,
		"footprint", geom.RoundWKT(obs.FootprintWKT),
	)

	p.enter(StateBuildFootprint)
	grid := raster.Grid{
		Transform:  obs.Transform,
		Projection: obs.Projection,
		Width:      obs.Width,
		Height:     obs.Height,
	}
	if err := p.writeScratchObservation(ctx, grid, obs); err != nil {
		return err
	}
	cutline := p.cfg.ClipShp
	if cutline == "" {
		cutline = filepath.Join(p.cfg.TmpDir, "obsclip.geojson")
	}
	nativeWKT := geom.FootprintWKT(obs.Transform, obs.Width, obs.Height)
	if err := p.io.WriteCutline(ctx, cutline, nativeWKT, obs.Projection); err != nil {
		return fmt.Errorf("write cutline: %w", err)
	}

	p.enter(StateBuildCache)
	cache, err := align.NewCache(p.io, p.log, grid, cutline, p.cfg.TmpDir)
	if err != nil {
		return err
	}
	sources := align.Sources(p.cfg.Models)
	p.log.Info("preparing ancillary data", "sources", sources)
	if err := cache.Build(ctx, sources); err != nil {
		return err
	}

	for _, spec := range p.cfg.Models {
		if err := p.runModel(ctx, spec, obs, cache); err != nil {
			return err
		}
	}

	p.enter(StateDone)
	return nil
}

func (p *Pipeline) runModel(ctx context.Context, spec domain.ModelSpec, obs domain.ObservationPackage, cache *align.Cache) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.log.Info("model", "name", spec.Name, "output", spec.Output)

	p.enter(StateResolveModel)
	resolved, err := p.models.Resolve(ctx, spec.Name, contextualParams(spec, obs))
	if err != nil {
		var checksumErr *model.ChecksumError
		if errors.As(err, &checksumErr) {
			return fmt.Errorf("model %q has an incorrect SHA256 checksum: %w", spec.Name, err)
		}
		return fmt.Errorf("resolve model %q: %w", spec.Name, err)
	}

	p.enter(StateAssembleInputs)
	inputs := make([]domain.Cube, 0, len(spec.Inputs)+1)
	for _, input := range spec.Inputs {
		aligned, ok := cache.Get(input.Filename)
		if !ok {
			return fmt.Errorf("model %q requires unaligned input %q", spec.Name, input.Filename)
		}
		inputs = append(inputs, aligned.Data)
	}
	inputs = append(inputs, obs.Reflectance.Clone())

	p.enter(StateInvoke)
	if err := resolved.PredictAndSave(ctx, inputs, spec.Output); err != nil {
		return fmt.Errorf("error in model %q: %w", spec.Name, err)
	}

	p.enter(StatePersist)
	p.log.Info("model output persisted", "name", spec.Name, "output", spec.Output)
	if p.ledger != nil {
		if err := p.ledger.ModelCompleted(ctx, spec.Name, spec.Output); err != nil {
			p.log.Warn("ledger model record failed", "error", err)
		}
	}
	return nil
}

// checkedLocator validates the observation locator and applies the
// configured prefix. A locator that looks like a local path is a
// non-fatal advisory when the path actually exists.
func (p *Pipeline) checkedLocator(locator string) (string, error) {
	err := observation.CheckLocator(locator)
	switch {
	case err == nil:
		if p.cfg.URLPrefix != "" {
			return p.cfg.URLPrefix + "/" + locator, nil
		}
		return locator, nil
	case errors.Is(err, observation.ErrMaybeLocalFile):
		if _, statErr := os.Stat(locator); statErr == nil {
			p.log.Info("observation url seems to be a local file, continuing anyway", "locator", locator)
			return locator, nil
		}
		return "", fmt.Errorf("%w: %q is neither a url nor an existing path", observation.ErrBadURL, locator)
	default:
		return "", err
	}
}

func (p *Pipeline) writeScratchObservation(ctx context.Context, grid raster.Grid, obs domain.ObservationPackage) error {
	p.log.Info("creating scratch observation", "path", p.cfg.ObsTmp)
	if err := p.io.Create(ctx, p.cfg.ObsTmp, "GTiff", grid, obs.Reflectance, 0); err != nil {
		return fmt.Errorf("create scratch observation: %w", err)
	}
	return nil
}

// contextualParams layers the observation context over the model's own
// parameters, mirroring what models expect alongside their inputs.
func contextualParams(spec domain.ModelSpec, obs domain.ObservationPackage) map[string]any {
	params := make(map[string]any, len(spec.Params)+7)
	for k, v := range spec.Params {
		params[k] = v
	}
	params["obswkt"] = obs.FootprintWKT
	params["obsdate"] = obs.AcquiredAt
	params["geo"] = obs.Transform
	params["prj"] = obs.Projection
	params["xsize"] = obs.Width
	params["ysize"] = obs.Height
	params["driver"] = spec.Driver
	return params
}

func (p *Pipeline) enter(s State) {
	p.log.Debug("pipeline state", "state", string(s))
}
