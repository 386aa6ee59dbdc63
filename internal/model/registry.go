package model

import (
	"context"
	"fmt"
	"sort"

	"github.com/nrt-labs/nrtpredict-go/internal/domain"
)

// Model is the single capability the pipeline requires: consume the
// assembled input cubes and persist a prediction to the output path.
// How the prediction is computed and encoded is the model's business.
type Model interface {
	PredictAndSave(ctx context.Context, inputs []domain.Cube, outputPath string) error
}

// Factory instantiates a registered model with its parameters.
type Factory func(params map[string]any) (Model, error)

// Registry is the fixed namespace of in-process models, the analogue of
// a local model directory.
type Registry struct {
	factories map[string]Factory
}

func NewRegistry() *Registry {
	return &Registry{factories: map[string]Factory{}}
}

func (r *Registry) Register(name string, f Factory) {
	r.factories[name] = f
}

// Lookup resolves a registered model name. Unknown names fail with a
// lookup error listing what is available.
func (r *Registry) Lookup(name string) (Factory, error) {
	f, ok := r.factories[name]
	if !ok {
		return nil, fmt.Errorf("unknown model %q (registered: %v)", name, r.Names())
	}
	return f, nil
}

func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
