package observation

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// ErrBadURL means the observation locator is not a usable URL.
var ErrBadURL = errors.New("incorrect observation url")

// ErrMaybeLocalFile means the locator looks like a local path rather
// than a URL. Advisory: the caller may continue if the path exists.
var ErrMaybeLocalFile = errors.New("observation url may be a local file")

// CheckLocator validates an observation locator. An empty scheme or a
// file scheme yields ErrMaybeLocalFile; a non-empty scheme with an empty
// path yields ErrBadURL.
func CheckLocator(locator string) error {
	u, err := url.Parse(locator)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrBadURL, locator)
	}
	if u.Scheme == "" || u.Scheme == "file" {
		return ErrMaybeLocalFile
	}
	if len(u.Path) == 0 {
		return fmt.Errorf("%w: %q has no path", ErrBadURL, locator)
	}
	return nil
}

// PackageName returns the final non-empty path segment of a locator.
func PackageName(locator string) string {
	segments := splitNonEmpty(locator)
	if len(segments) == 0 {
		return ""
	}
	return segments[len(segments)-1]
}

const acquisitionLayout = "20060102T150405"

// ParseAcquisition extracts the acquisition timestamp from the package
// name: the seventh underscore-separated token of the final path
// segment.
func ParseAcquisition(locator string) (time.Time, error) {
	pkg := PackageName(locator)
	tokens := strings.Split(pkg, "_")
	if len(tokens) < 7 {
		return time.Time{}, fmt.Errorf("package name %q has no acquisition token", pkg)
	}
	t, err := time.Parse(acquisitionLayout, tokens[6])
	if err != nil {
		return time.Time{}, fmt.Errorf("parse acquisition time from %q: %w", pkg, err)
	}
	return t, nil
}

func splitNonEmpty(locator string) []string {
	var out []string
	for _, s := range strings.Split(locator, "/") {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
