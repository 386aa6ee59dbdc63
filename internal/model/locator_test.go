package model

import "testing"

func TestParseLocatorLocalFile(t *testing.T) {
	src, err := ParseLocator("file:///models/burn.json:abc123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	local, ok := src.(LocalFile)
	if !ok {
		t.Fatalf("expected LocalFile, got %T", src)
	}
	if local.Path != "/models/burn.json" || local.Checksum != "abc123" {
		t.Fatalf("unexpected parse: %+v", local)
	}
}

func TestParseLocatorRemoteStore(t *testing.T) {
	src, err := ParseLocator("s3://mybucket/models/v2/burn.json:deadbeef")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	remote, ok := src.(RemoteStore)
	if !ok {
		t.Fatalf("expected RemoteStore, got %T", src)
	}
	if remote.Bucket != "mybucket" || remote.Key != "models/v2/burn.json" || remote.Checksum != "deadbeef" {
		t.Fatalf("unexpected parse: %+v", remote)
	}
}

func TestParseLocatorRegistered(t *testing.T) {
	src, err := ParseLocator("nbr")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	reg, ok := src.(Registered)
	if !ok {
		t.Fatalf("expected Registered, got %T", src)
	}
	if reg.Name != "nbr" {
		t.Fatalf("unexpected name %q", reg.Name)
	}
}

func TestParseLocatorMissingChecksum(t *testing.T) {
	for _, locator := range []string{
		"file:///models/burn.json",
		"s3://mybucket/models/burn.json",
		"file://:abc",
		"s3://bucketonly:abc",
	} {
		if _, err := ParseLocator(locator); err == nil {
			t.Fatalf("expected error for %q", locator)
		}
	}
}

func TestParseLocatorEmpty(t *testing.T) {
	if _, err := ParseLocator(""); err == nil {
		t.Fatalf("expected error for empty locator")
	}
}
