package domain

// ModelInput identifies one ancillary raster required by a model.
type ModelInput struct {
	Filename string `yaml:"filename"`
}

// ModelSpec describes one model requested for a run: its locator, output
// raster driver and path, required ancillary inputs and free-form
// model-specific parameters.
type ModelSpec struct {
	Name   string         `yaml:"name"`
	Driver string         `yaml:"driver"`
	Inputs []ModelInput   `yaml:"inputs"`
	Output string         `yaml:"output"`
	Params map[string]any `yaml:",inline"`
}

// AlignedInput is one ancillary source warped onto the observation grid.
// Instances are created once per distinct source and are immutable after
// construction; consumers receive deep copies.
type AlignedInput struct {
	Source         string
	Data           Cube
	NoDataFraction float64
}

// Clone returns a private copy safe to hand to a model.
func (a AlignedInput) Clone() AlignedInput {
	out := a
	out.Data = a.Data.Clone()
	return out
}
