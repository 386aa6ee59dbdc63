package model

import (
	"fmt"
	"strings"
)

// Source is the closed set of model resolution strategies. The variant
// is selected from the locator text alone, before any I/O occurs.
type Source interface {
	source()
}

// LocalFile is a packaged model on the local filesystem, gated by a
// SHA-256 checksum.
type LocalFile struct {
	Path     string
	Checksum string
}

// RemoteStore is a packaged model in a public object-store bucket, gated
// by a SHA-256 checksum.
type RemoteStore struct {
	Bucket   string
	Key      string
	Checksum string
}

// Registered is an in-process model instantiated from the registry.
type Registered struct {
	Name string
}

func (LocalFile) source()   {}
func (RemoteStore) source() {}
func (Registered) source()  {}

const (
	localPrefix  = "file://"
	remotePrefix = "s3://"
)

// ParseLocator maps a model locator onto its resolution strategy.
//
// Grammar:
//
//	file://<path>:<sha256-hex>
//	s3://<bucket>/<key-path>:<sha256-hex>
//	<bare-name>
//
// A file:// or s3:// locator without the checksum delimiter is a
// configuration error.
func ParseLocator(name string) (Source, error) {
	switch {
	case strings.HasPrefix(name, localPrefix):
		rest := name[len(localPrefix):]
		path, checksum, ok := splitChecksum(rest)
		if !ok {
			return nil, fmt.Errorf("incorrect model locator %q: want file://filename:sha256checksum", name)
		}
		return LocalFile{Path: path, Checksum: checksum}, nil

	case strings.HasPrefix(name, remotePrefix):
		rest := name[len(remotePrefix):]
		loc, checksum, ok := splitChecksum(rest)
		if !ok {
			return nil, fmt.Errorf("incorrect model locator %q: want s3://bucket/key:sha256checksum", name)
		}
		bucket, key, ok := strings.Cut(loc, "/")
		if !ok || bucket == "" || key == "" {
			return nil, fmt.Errorf("incorrect model locator %q: missing bucket or key", name)
		}
		return RemoteStore{Bucket: bucket, Key: key, Checksum: checksum}, nil

	default:
		if strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("empty model locator")
		}
		return Registered{Name: name}, nil
	}
}

func splitChecksum(s string) (string, string, bool) {
	i := strings.LastIndex(s, ":")
	if i <= 0 || i == len(s)-1 {
		return "", "", false
	}
	return s[:i], s[i+1:], true
}
