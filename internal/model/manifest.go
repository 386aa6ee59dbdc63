package model

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Manifest is the payload of a packaged model: the registered
// implementation it stands for plus its frozen parameters. Checksum
// verification gates decoding, so a manifest is only ever read from
// verified bytes.
type Manifest struct {
	Impl   string         `json:"impl"`
	Params map[string]any `json:"params,omitempty"`
}

func decodeManifest(data []byte) (Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return Manifest{}, fmt.Errorf("decode model manifest: %w", err)
	}
	if strings.TrimSpace(m.Impl) == "" {
		return Manifest{}, fmt.Errorf("model manifest missing impl")
	}
	return m, nil
}

// mergedParams layers run-supplied parameters over the manifest's frozen
// ones; run parameters win.
func (m Manifest) mergedParams(params map[string]any) map[string]any {
	out := make(map[string]any, len(m.Params)+len(params))
	for k, v := range m.Params {
		out[k] = v
	}
	for k, v := range params {
		out[k] = v
	}
	return out
}
