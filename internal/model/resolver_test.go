package model

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/nrt-labs/nrtpredict-go/internal/domain"
)

type stubModel struct {
	params map[string]any
}

func (m *stubModel) PredictAndSave(ctx context.Context, inputs []domain.Cube, outputPath string) error {
	return nil
}

type stubFetcher struct {
	data   []byte
	err    error
	bucket string
	key    string
}

func (f *stubFetcher) Fetch(ctx context.Context, bucket, key string) ([]byte, error) {
	f.bucket = bucket
	f.key = key
	return f.data, f.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func registryWithStub(t *testing.T, name string) (*Registry, *int) {
	t.Helper()
	reg := NewRegistry()
	calls := 0
	reg.Register(name, func(params map[string]any) (Model, error) {
		calls++
		return &stubModel{params: params}, nil
	})
	return reg, &calls
}

func TestResolveLocalFileVerified(t *testing.T) {
	payload := []byte(`{"impl":"stub","params":{"alpha":0.5}}`)
	path := filepath.Join(t.TempDir(), "model.json")
	if err := os.WriteFile(path, payload, 0o600); err != nil {
		t.Fatalf("write payload: %v", err)
	}

	reg, calls := registryWithStub(t, "stub")
	r, err := NewResolver(reg, nil, testLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	locator := fmt.Sprintf("file://%s:%s", path, digestOf(payload))
	m, err := r.Resolve(context.Background(), locator, map[string]any{"beta": 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if *calls != 1 {
		t.Fatalf("expected 1 instantiation, got %d", *calls)
	}

	stub := m.(*stubModel)
	if stub.params["alpha"] != 0.5 {
		t.Fatalf("manifest params not applied: %v", stub.params)
	}
	if stub.params["beta"] != 2 {
		t.Fatalf("run params not applied: %v", stub.params)
	}
}

func TestResolveLocalFileChecksumMismatchNeverInstantiates(t *testing.T) {
	payload := []byte(`{"impl":"stub"}`)
	path := filepath.Join(t.TempDir(), "model.json")
	if err := os.WriteFile(path, payload, 0o600); err != nil {
		t.Fatalf("write payload: %v", err)
	}

	reg, calls := registryWithStub(t, "stub")
	r, _ := NewResolver(reg, nil, testLogger())

	locator := fmt.Sprintf("file://%s:%s", path, digestOf([]byte("other bytes")))
	_, err := r.Resolve(context.Background(), locator, nil)

	var checksumErr *ChecksumError
	if !errors.As(err, &checksumErr) {
		t.Fatalf("expected ChecksumError, got %v", err)
	}
	if *calls != 0 {
		t.Fatalf("model was instantiated despite checksum mismatch")
	}
}

func TestResolveRemoteStoreVerified(t *testing.T) {
	payload := []byte(`{"impl":"stub"}`)
	fetcher := &stubFetcher{data: payload}

	reg, calls := registryWithStub(t, "stub")
	r, _ := NewResolver(reg, fetcher, testLogger())

	locator := fmt.Sprintf("s3://models-bucket/v1/model.json:%s", digestOf(payload))
	if _, err := r.Resolve(context.Background(), locator, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fetcher.bucket != "models-bucket" || fetcher.key != "v1/model.json" {
		t.Fatalf("unexpected fetch target %s/%s", fetcher.bucket, fetcher.key)
	}
	if *calls != 1 {
		t.Fatalf("expected 1 instantiation, got %d", *calls)
	}
}

func TestResolveRemoteStoreChecksumMismatch(t *testing.T) {
	fetcher := &stubFetcher{data: []byte(`{"impl":"stub"}`)}
	reg, calls := registryWithStub(t, "stub")
	r, _ := NewResolver(reg, fetcher, testLogger())

	locator := "s3://models-bucket/v1/model.json:" + digestOf([]byte("tampered"))
	_, err := r.Resolve(context.Background(), locator, nil)
	var checksumErr *ChecksumError
	if !errors.As(err, &checksumErr) {
		t.Fatalf("expected ChecksumError, got %v", err)
	}
	if *calls != 0 {
		t.Fatalf("model was instantiated despite checksum mismatch")
	}
}

func TestResolveRegistered(t *testing.T) {
	reg, calls := registryWithStub(t, "burnscars")
	r, _ := NewResolver(reg, nil, testLogger())

	if _, err := r.Resolve(context.Background(), "burnscars", map[string]any{"k": "v"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if *calls != 1 {
		t.Fatalf("expected 1 instantiation, got %d", *calls)
	}
}

func TestResolveRegisteredUnknown(t *testing.T) {
	reg := NewRegistry()
	r, _ := NewResolver(reg, nil, testLogger())
	if _, err := r.Resolve(context.Background(), "nosuchmodel", nil); err == nil {
		t.Fatalf("expected lookup error")
	}
}
