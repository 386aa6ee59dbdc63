// Package config loads and validates the run configuration document.
// Precedence is layered: built-in defaults, then the configuration file,
// then directly supplied arguments. Validation is eager: every issue is
// reported before the pipeline starts.
package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/nrt-labs/nrtpredict-go/internal/domain"
	"github.com/nrt-labs/nrtpredict-go/internal/model"
)

// DefaultFile is the configuration file read when none is given.
const DefaultFile = "nrtpredict.yaml"

type Config struct {
	URL        string             `yaml:"url"`
	Quiet      bool               `yaml:"quiet"`
	Product    string             `yaml:"product"`
	ObsTmp     string             `yaml:"obstmp"`
	URLPrefix  string             `yaml:"urlprefix"`
	TmpDir     string             `yaml:"tmpdir"`
	ClipShp    string             `yaml:"clipshp"`
	LedgerDSN  string             `yaml:"ledger"`
	GDALConfig map[string]any     `yaml:"gdalconfig"`
	Models     []domain.ModelSpec `yaml:"models"`
}

// Default returns the built-in configuration layer.
func Default() Config {
	return Config{
		Product: "NBAR",
		ObsTmp:  "/vsimem/obs.tif",
		TmpDir:  os.TempDir(),
	}
}

// Load reads a configuration file over the default layer. Errors are
// classified by the caller as non-fatal: an unreadable or malformed file
// means the run continues on directly supplied arguments only.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Default(), fmt.Errorf("configuration file %q has incorrect YAML syntax: %w", path, err)
	}
	cfg.Normalize()
	return cfg, nil
}

// Normalize applies per-model defaults and parses tuple-shaped strings,
// so validation always sees a fully defaulted document.
func (c *Config) Normalize() {
	if strings.TrimSpace(c.Product) == "" {
		c.Product = "NBAR"
	}
	if strings.TrimSpace(c.ObsTmp) == "" {
		c.ObsTmp = "/vsimem/obs.tif"
	}
	if strings.TrimSpace(c.TmpDir) == "" {
		c.TmpDir = os.TempDir()
	}
	for i := range c.Models {
		m := &c.Models[i]
		if strings.TrimSpace(m.Driver) == "" {
			m.Driver = "GTiff"
		}
		if m.Inputs == nil {
			m.Inputs = []domain.ModelInput{}
		}
		parseTuples(m.Params)
	}
}

// DriverOptions returns gdalconfig as driver option strings, with
// booleans normalized to YES/NO.
func (c Config) DriverOptions() map[string]string {
	out := make(map[string]string, len(c.GDALConfig))
	for k, v := range c.GDALConfig {
		switch val := v.(type) {
		case bool:
			if val {
				out[k] = "YES"
			} else {
				out[k] = "NO"
			}
		default:
			out[k] = fmt.Sprintf("%v", val)
		}
	}
	return out
}

// Validate checks the fully layered configuration. driverAvailable and
// probeInput are supplied by the raster collaborator so the checks match
// what the run will actually use.
func (c Config) Validate(ctx context.Context, driverAvailable func(string) bool, probeInput func(context.Context, string) error) error {
	issues := &ValidationError{}

	if strings.TrimSpace(c.URL) == "" {
		issues.Add("observation url is required")
	}
	if len(c.Models) == 0 {
		issues.Add("'models' should be set in the configuration")
	}

	for _, m := range c.Models {
		if _, err := model.ParseLocator(m.Name); err != nil {
			issues.Add(err.Error())
		}
		if strings.TrimSpace(m.Output) == "" {
			issues.Add(fmt.Sprintf("model %q has no output path", m.Name))
		}
		if driverAvailable != nil && !driverAvailable(m.Driver) {
			issues.Add(fmt.Sprintf("driver %q for model %q is not available", m.Driver, m.Name))
		}
		if probeInput != nil {
			for _, input := range m.Inputs {
				if err := probeInput(ctx, input.Filename); err != nil {
					issues.Add(fmt.Sprintf("input file error for %q: %v", input.Filename, err))
				}
			}
		}
	}

	return issues.OrNil()
}

// parseTuples rewrites string values shaped "(n1,n2,...)" inside nested
// parameter maps into []float64, the form models consume.
func parseTuples(params map[string]any) {
	for _, v := range params {
		nested, ok := v.(map[string]any)
		if !ok {
			continue
		}
		for k, vv := range nested {
			s, ok := vv.(string)
			if !ok {
				continue
			}
			if tuple, ok := ParseTuple(s); ok {
				nested[k] = tuple
			}
		}
	}
}

// ParseTuple parses "(n1,n2,...)" into a numeric slice. The second
// return is false when s is not tuple-shaped or any element fails to
// parse.
func ParseTuple(s string) ([]float64, bool) {
	if !strings.HasPrefix(s, "(") || !strings.HasSuffix(s, ")") {
		return nil, false
	}
	parts := strings.Split(s[1:len(s)-1], ",")
	out := make([]float64, 0, len(parts))
	for _, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, false
		}
		out = append(out, f)
	}
	return out, true
}
