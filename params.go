package connections

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

/*
Params for initializing a connections graph and for the learning step
callers usually drive against it. Loaded from YAML or built in code.
*/
type Params struct {
	//Number of cells that may own segments.
	NumCells int `yaml:"num_cells"`
	//If the permanence value for a synapse is greater than or equal to this
	//value, it is said to be connected.
	ConnectedPermanence float64 `yaml:"connected_permanence"`
	//Segment capacity per cell. Creating a segment on a full cell evicts the
	//least recently adapted one.
	MaxSegmentsPerCell int `yaml:"max_segments_per_cell"`
	PermanenceIncrement float64 `yaml:"permanence_increment"`
	PermanenceDecrement float64 `yaml:"permanence_decrement"`
	//Destroy segments left without synapses by adaptation.
	DestroyWeakSegments bool `yaml:"destroy_weak_segments"`
	//Payload codec for Save: "none", "lz4" or "zstd".
	Compression string `yaml:"compression"`
	//Goroutines used by ComputeActivityParallel.
	Workers int `yaml:"workers"`
	//"info", "debug" or "trace".
	LogLevel string `yaml:"log_level"`
}

//Create default params
func NewParams() *Params {
	return &Params{
		NumCells:            2048 * 32,
		ConnectedPermanence: 0.5,
		MaxSegmentsPerCell:  255,
		PermanenceIncrement: 0.1,
		PermanenceDecrement: 0.1,
		DestroyWeakSegments: true,
		Compression:         "none",
		Workers:             1,
		LogLevel:            "info",
	}
}

// ParseParams decodes YAML on top of the defaults and validates the result.
func ParseParams(data []byte) (*Params, error) {
	p := NewParams()
	if err := yaml.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("parse params: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// LoadParams reads a YAML params file.
func LoadParams(path string) (*Params, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load params: %w", err)
	}
	return ParseParams(data)
}

// Validate checks every field and reports the first offending one.
func (p *Params) Validate() error {
	if p.NumCells <= 0 || int64(p.NumCells) > math.MaxUint32 {
		return fmt.Errorf("%w: num_cells %d", ErrInvalidArgument, p.NumCells)
	}
	if !validPermanence(p.ConnectedPermanence) {
		return fmt.Errorf("%w: connected_permanence %v", ErrInvalidPermanence, p.ConnectedPermanence)
	}
	if p.MaxSegmentsPerCell <= 0 {
		return fmt.Errorf("%w: max_segments_per_cell %d", ErrInvalidArgument, p.MaxSegmentsPerCell)
	}
	if !validPermanence(p.PermanenceIncrement) {
		return fmt.Errorf("%w: permanence_increment %v", ErrInvalidPermanence, p.PermanenceIncrement)
	}
	if !validPermanence(p.PermanenceDecrement) {
		return fmt.Errorf("%w: permanence_decrement %v", ErrInvalidPermanence, p.PermanenceDecrement)
	}
	if _, err := ParseCompression(p.Compression); err != nil {
		return err
	}
	if p.Workers < 1 {
		return fmt.Errorf("%w: workers %d", ErrInvalidArgument, p.Workers)
	}
	return nil
}

// Options translates the runtime knobs into constructor options.
func (p *Params) Options() []Option {
	codec, _ := ParseCompression(p.Compression)
	return []Option{
		WithCompression(codec),
		WithWorkers(p.Workers),
	}
}

func validPermanence(p float64) bool {
	return !math.IsNaN(p) && p >= MinPermanence && p <= MaxPermanence
}
