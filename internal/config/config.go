package config

import (
	"fmt"
	"math"
	"os"
	"runtime"

	"github.com/san-kum/rockweather/internal/dynamo"
	"github.com/san-kum/rockweather/internal/grid"
	"gopkg.in/yaml.v3"
)

// Physical constants of the published model (see paper supplement).
const (
	DefaultMuMax = 1.4
	DefaultKm1   = 1e-6
	DefaultKm2   = 1e-2
	DefaultK     = DefaultKm1
	DefaultYFe   = 1.2e-5
	DefaultYGlc  = 1.2
	DefaultYSid  = 10
	DefaultR     = 30e-6
	DefaultG0    = 0.9
)

const (
	DefaultOracle     = "chemostat"
	DefaultGridSize   = 200
	DefaultDMin       = 0.01
	DefaultDMax       = 1.3
	DefaultMMin       = 0.01
	DefaultMMax       = 1.0
	DefaultFDStep     = 1e-3
	DefaultScanPoints = 64
	DefaultOutputDir  = "./fig"
	DefaultDPI        = 200
	DefaultFigureSize = 8.0
)

type Config struct {
	Oracle string       `yaml:"oracle"`
	Params Params       `yaml:"params"`
	Grid   GridConfig   `yaml:"grid"`
	Solver SolverConfig `yaml:"solver"`
	Output OutputConfig `yaml:"output"`
}

// Params are the fixed physical constants handed to the model oracle.
type Params struct {
	MuMax float64 `yaml:"mu_max"` // maximum specific growth rate (1/hr)
	Km1   float64 `yaml:"k_m1"`   // iron half-saturation
	Km2   float64 `yaml:"k_m2"`   // glucose half-saturation
	K     float64 `yaml:"k"`      // siderophore half-saturation for dissolution
	YFe   float64 `yaml:"y_fe"`   // iron consumed per unit biomass
	YGlc  float64 `yaml:"y_glc"`  // glucose consumed per unit biomass
	YSid  float64 `yaml:"y_sid"`
	R     float64 `yaml:"r"`  // dissolution rate per gram of rock
	G0    float64 `yaml:"g0"` // feed glucose
}

type GridConfig struct {
	DMin        float64 `yaml:"d_min"`
	DMax        float64 `yaml:"d_max"`
	MMin        float64 `yaml:"m_min"`
	MMax        float64 `yaml:"m_max"`
	Size        int     `yaml:"size"`
	Orientation string  `yaml:"orientation"`
}

type SolverConfig struct {
	FDStep     float64 `yaml:"fd_step"`
	ScanPoints int     `yaml:"scan_points"`
	// Workers bounds parallel oracle evaluation; 0 uses GOMAXPROCS.
	Workers int `yaml:"workers"`
}

type OutputConfig struct {
	Dir    string  `yaml:"dir"`
	DPI    float64 `yaml:"dpi"`
	Width  float64 `yaml:"width_in"`
	Height float64 `yaml:"height_in"`
	HTML   bool    `yaml:"html"`
}

func DefaultParams() Params {
	return Params{
		MuMax: DefaultMuMax,
		Km1:   DefaultKm1,
		Km2:   DefaultKm2,
		K:     DefaultK,
		YFe:   DefaultYFe,
		YGlc:  DefaultYGlc,
		YSid:  DefaultYSid,
		R:     DefaultR,
		G0:    DefaultG0,
	}
}

func DefaultConfig() *Config {
	return &Config{
		Oracle: DefaultOracle,
		Params: DefaultParams(),
		Grid: GridConfig{
			DMin:        DefaultDMin,
			DMax:        DefaultDMax,
			MMin:        DefaultMMin,
			MMax:        DefaultMMax,
			Size:        DefaultGridSize,
			Orientation: grid.RowsAlongM.String(),
		},
		Solver: SolverConfig{
			FDStep:     DefaultFDStep,
			ScanPoints: DefaultScanPoints,
		},
		Output: OutputConfig{
			Dir:    DefaultOutputDir,
			DPI:    DefaultDPI,
			Width:  DefaultFigureSize,
			Height: DefaultFigureSize,
		},
	}
}

// Load reads a YAML file over DefaultConfig, so omitted keys keep their
// defaults.
func Load(path string) (*Config, error) {
	return LoadOver(path, DefaultConfig())
}

// LoadOver reads a YAML file over base, which is modified in place.
func LoadOver(path string, base *Config) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, base); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return base, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return &dynamo.IOError{Path: path, Wrapped: err}
	}
	return nil
}

func (c *Config) Validate() error {
	if err := c.Params.Validate(); err != nil {
		return err
	}
	if c.Grid.Size <= 0 {
		return &dynamo.InvalidInputError{Param: "grid.size", Reason: fmt.Sprintf("must be positive, got %d", c.Grid.Size)}
	}
	if c.Grid.DMin <= 0 {
		return &dynamo.InvalidInputError{Param: "grid.d_min", Reason: "dilution rate must be positive"}
	}
	if c.Grid.MMin < 0 {
		return &dynamo.InvalidInputError{Param: "grid.m_min", Reason: "mass must be non-negative"}
	}
	if _, err := grid.ParseOrientation(c.Grid.Orientation); err != nil {
		return err
	}
	if !(c.Solver.FDStep > 0) {
		return &dynamo.InvalidInputError{Param: "solver.fd_step", Reason: "must be positive"}
	}
	// The mixed-partial stencil samples up to two steps from each grid point
	// along either axis.
	reach := 2 * c.Solver.FDStep
	if !(c.Grid.DMin > reach) {
		return &dynamo.InvalidInputError{Param: "grid.d_min", Reason: fmt.Sprintf("must exceed 2*solver.fd_step = %g, got %g", reach, c.Grid.DMin)}
	}
	if c.Grid.MMin < reach {
		return &dynamo.InvalidInputError{Param: "grid.m_min", Reason: fmt.Sprintf("must be at least 2*solver.fd_step = %g, got %g", reach, c.Grid.MMin)}
	}
	if c.Solver.ScanPoints < 2 {
		return &dynamo.InvalidInputError{Param: "solver.scan_points", Reason: "need at least 2"}
	}
	if c.Output.Dir == "" {
		return &dynamo.InvalidInputError{Param: "output.dir", Reason: "empty"}
	}
	if !(c.Output.DPI > 0) || !(c.Output.Width > 0) || !(c.Output.Height > 0) {
		return &dynamo.InvalidInputError{Param: "output", Reason: "dpi and figure size must be positive"}
	}
	return nil
}

func (p Params) Validate() error {
	fields := []struct {
		name string
		v    float64
	}{
		{"mu_max", p.MuMax}, {"k_m1", p.Km1}, {"k_m2", p.Km2}, {"k", p.K},
		{"y_fe", p.YFe}, {"y_glc", p.YGlc}, {"y_sid", p.YSid}, {"r", p.R}, {"g0", p.G0},
	}
	for _, f := range fields {
		if !(f.v > 0) || math.IsInf(f.v, 0) {
			return &dynamo.InvalidInputError{Param: "params." + f.name, Reason: fmt.Sprintf("must be positive and finite, got %g", f.v)}
		}
	}
	return nil
}

// BuildGrid constructs the sample grid described by c.Grid.
func (c *Config) BuildGrid() (*grid.Grid, error) {
	o, err := grid.ParseOrientation(c.Grid.Orientation)
	if err != nil {
		return nil, err
	}
	return grid.New(
		grid.Interval{Min: c.Grid.DMin, Max: c.Grid.DMax},
		grid.Interval{Min: c.Grid.MMin, Max: c.Grid.MMax},
		c.Grid.Size,
		o,
	)
}

// EffectiveWorkers resolves the zero value of Solver.Workers.
func (c *Config) EffectiveWorkers() int {
	if c.Solver.Workers > 0 {
		return c.Solver.Workers
	}
	return runtime.GOMAXPROCS(0)
}
