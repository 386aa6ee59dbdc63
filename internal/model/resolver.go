package model

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
)

// Fetcher retrieves an object from a public bucket into memory.
type Fetcher interface {
	Fetch(ctx context.Context, bucket, key string) ([]byte, error)
}

// Resolver turns a model locator plus parameters into an executable
// Model. Externally sourced models (file://, s3://) are checksum-gated;
// registered models are instantiated directly.
type Resolver struct {
	registry *Registry
	store    Fetcher
	log      *slog.Logger
}

func NewResolver(registry *Registry, store Fetcher, log *slog.Logger) (*Resolver, error) {
	if registry == nil {
		return nil, fmt.Errorf("model registry is required")
	}
	if log == nil {
		log = slog.Default()
	}
	return &Resolver{registry: registry, store: store, log: log}, nil
}

// Resolve selects the strategy for name and returns the instantiated
// model. A *ChecksumError from either packaged strategy means the model
// bytes were never decoded.
func (r *Resolver) Resolve(ctx context.Context, name string, params map[string]any) (Model, error) {
	src, err := ParseLocator(name)
	if err != nil {
		return nil, err
	}

	switch s := src.(type) {
	case LocalFile:
		r.log.Info("loading packaged model", "path", s.Path)
		data, err := os.ReadFile(s.Path)
		if err != nil {
			return nil, fmt.Errorf("read model %s: %w", s.Path, err)
		}
		return r.verified(data, s.Checksum, params)

	case RemoteStore:
		if r.store == nil {
			return nil, fmt.Errorf("no object store configured for model %q", name)
		}
		r.log.Info("loading packaged model", "bucket", s.Bucket, "key", s.Key)
		data, err := r.store.Fetch(ctx, s.Bucket, s.Key)
		if err != nil {
			return nil, fmt.Errorf("fetch model s3://%s/%s: %w", s.Bucket, s.Key, err)
		}
		return r.verified(data, s.Checksum, params)

	case Registered:
		factory, err := r.registry.Lookup(s.Name)
		if err != nil {
			return nil, err
		}
		return factory(params)

	default:
		return nil, fmt.Errorf("unhandled model source %T", src)
	}
}

func (r *Resolver) verified(data []byte, checksum string, params map[string]any) (Model, error) {
	r.log.Info("expected sha256 checksum", "checksum", checksum)
	if err := VerifySHA256(bytes.NewReader(data), checksum); err != nil {
		return nil, err
	}
	r.log.Info("checksum matches")

	manifest, err := decodeManifest(data)
	if err != nil {
		return nil, err
	}
	factory, err := r.registry.Lookup(manifest.Impl)
	if err != nil {
		return nil, err
	}
	return factory(manifest.mergedParams(params))
}
