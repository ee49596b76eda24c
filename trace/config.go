// Package trace turns per-operand DRAM traces of a systolic array into the
// row-interleaved line access sequences that the reuse-distance engine
// consumes.
package trace

import (
	"fmt"
	"math/bits"

	"github.com/cockroachdb/errors"
)

// Operand identifies which tensor a trace belongs to.
type Operand byte

// Operands of a convolution or GEMM layer.
const (
	Ifmap  Operand = 'I'
	Filter Operand = 'F'
	Ofmap  Operand = 'O'
)

func (o Operand) String() string {
	return string(rune(o))
}

// ParseOperand converts a one-letter operand tag.
func ParseOperand(tag string) (Operand, error) {
	switch tag {
	case "I":
		return Ifmap, nil
	case "F":
		return Filter, nil
	case "O":
		return Ofmap, nil
	}

	return 0, errors.Newf("unknown operand %q", tag)
}

// IsWrite tells if the operand is written back to DRAM.
func (o Operand) IsWrite() bool {
	return o == Ofmap
}

// FileName returns the name of the DRAM trace file of the operand.
func (o Operand) FileName() string {
	switch o {
	case Ifmap:
		return "IFMAP_DRAM_TRACE.csv"
	case Filter:
		return "FILTER_DRAM_TRACE.csv"
	case Ofmap:
		return "OFMAP_DRAM_TRACE.csv"
	}

	panic(fmt.Sprintf("unknown operand %d", o))
}

// Operands lists the operands in the order their streams are merged.
var Operands = []Operand{Ifmap, Filter, Ofmap}

// Config describes the accelerator the traces were captured from.
type Config struct {
	ArrayHeight int `yaml:"array_height"`
	ArrayWidth  int `yaml:"array_width"`
	LineSize    int `yaml:"line_size"`

	// Operand address offsets used by the trace generator.
	IfmapOffset  int64 `yaml:"ifmap_offset"`
	FilterOffset int64 `yaml:"filter_offset"`
	OfmapOffset  int64 `yaml:"ofmap_offset"`
}

// DefaultConfig returns the Eyeriss-like setup.
func DefaultConfig() Config {
	return Config{
		ArrayHeight:  12,
		ArrayWidth:   14,
		LineSize:     16,
		IfmapOffset:  0,
		FilterOffset: 10_000_000,
		OfmapOffset:  20_000_000,
	}
}

// Validate reports the first invalid field of the config.
func (c Config) Validate() error {
	if c.ArrayHeight <= 0 || c.ArrayWidth <= 0 {
		return errors.Newf("array dimensions must be positive, got %dx%d",
			c.ArrayHeight, c.ArrayWidth)
	}

	if c.LineSize <= 0 || bits.OnesCount(uint(c.LineSize)) != 1 {
		return errors.Newf("line size must be a positive power of two, got %d",
			c.LineSize)
	}

	return nil
}

// Offset returns the address offset of an operand.
func (c Config) Offset(o Operand) int64 {
	switch o {
	case Ifmap:
		return c.IfmapOffset
	case Filter:
		return c.FilterOffset
	default:
		return c.OfmapOffset
	}
}

// LineBits is the shift that turns a byte address into a line index.
func (c Config) LineBits() int {
	return bits.TrailingZeros(uint(c.LineSize))
}

// MapPE maps the column index of a trace cell to PE coordinates. Ifmap cells
// feed rows, filter cells feed columns, and ofmap cells cover the grid in
// row-major order.
func (c Config) MapPE(o Operand, idx int64) (row, col int64) {
	switch o {
	case Ifmap:
		return idx, 0
	case Filter:
		return 0, idx
	default:
		width := int64(c.ArrayWidth)
		return idx / width, idx % width
	}
}
