package reusedistance

import (
	"math"
	"math/bits"

	"github.com/cockroachdb/errors"
)

// DMax is the saturated reuse distance. It marks cold references as well as
// reuses whose distance reaches it, and the probability model treats it as
// infinitely far.
const DMax = 1 << 20

// Config holds the accelerator and calibration parameters of an Engine. A
// Config is fixed once an Engine is built.
type Config struct {
	// ArrayHeight and ArrayWidth describe the PE grid. The estimator itself
	// does not use them; trace preparation does.
	ArrayHeight int `yaml:"array_height"`
	ArrayWidth  int `yaml:"array_width"`

	// LineSize is the number of bytes in a cache line.
	LineSize int `yaml:"line_size"`

	// UBKB is the capacity of the unified buffer in KiB.
	UBKB float64 `yaml:"ub_kb"`

	LambdaSpatial float64 `yaml:"lambda_spatial"`
	Beta          float64 `yaml:"beta"`
	DeltaFlow     float64 `yaml:"delta_flow"`

	// TSRAM and TDRAM are access latencies in cycles.
	TSRAM float64 `yaml:"t_sram"`
	TDRAM float64 `yaml:"t_dram"`

	// InterfaceBW is the DRAM interface bandwidth in words per cycle.
	InterfaceBW float64 `yaml:"interface_bw"`
}

// DefaultConfig returns the Eyeriss-like calibration with a weight-stationary
// dataflow.
func DefaultConfig() Config {
	return Config{
		ArrayHeight:   12,
		ArrayWidth:    14,
		LineSize:      16,
		UBKB:          36,
		LambdaSpatial: 0.5,
		Beta:          5.0,
		DeltaFlow:     0.8,
		TSRAM:         2,
		TDRAM:         100,
		InterfaceBW:   10,
	}
}

// Validate reports the first invalid field of the config.
func (c Config) Validate() error {
	switch {
	case c.ArrayHeight <= 0 || c.ArrayWidth <= 0:
		return errors.Newf("array dimensions must be positive, got %dx%d",
			c.ArrayHeight, c.ArrayWidth)
	case c.LineSize <= 0 || bits.OnesCount(uint(c.LineSize)) != 1:
		return errors.Newf("line size must be a positive power of two, got %d",
			c.LineSize)
	case !(c.UBKB >= 0) || math.IsInf(c.UBKB, 0):
		return errors.Newf("unified buffer size must be non-negative, got %v",
			c.UBKB)
	case !(c.LambdaSpatial >= 0):
		return errors.Newf("lambda_spatial must be non-negative, got %v",
			c.LambdaSpatial)
	case !(c.Beta > 0):
		return errors.Newf("beta must be positive, got %v", c.Beta)
	case !(c.DeltaFlow > 0):
		return errors.Newf("delta_flow must be positive, got %v", c.DeltaFlow)
	case !(c.TSRAM >= 0) || !(c.TDRAM >= 0):
		return errors.Newf("latencies must be non-negative, got sram %v dram %v",
			c.TSRAM, c.TDRAM)
	case !(c.InterfaceBW > 0):
		return errors.Newf("interface bandwidth must be positive, got %v",
			c.InterfaceBW)
	}

	return nil
}

// CapacityLines is the number of whole lines that fit into the unified
// buffer.
func (c Config) CapacityLines() float64 {
	return math.Floor(c.UBKB * 1024 / float64(c.LineSize))
}

// BusWidth is the number of bytes the DRAM interface delivers per cycle.
func (c Config) BusWidth() float64 {
	return c.InterfaceBW * float64(c.LineSize)
}

// LineBits is log2 of the line size.
func (c Config) LineBits() int {
	return bits.TrailingZeros(uint(c.LineSize))
}
