package trace

import (
	"bufio"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/op/go-logging"
)

// File names produced for every layer.
const (
	UnifiedCSVName = "UNIFIED_TRACE.csv"
	UnifiedNpyName = "UNIFIED_TRACE.npy"
)

// ErrMissingTrace marks errors caused by a layer without one of its operand
// traces.
var ErrMissingTrace = errors.New("missing DRAM trace")

// A Processor prepares the layers of a trace directory.
type Processor struct {
	config Config
	log    *logging.Logger
}

// NewProcessor creates a Processor. It panics if the config is invalid.
func NewProcessor(c Config, log *logging.Logger) *Processor {
	if err := c.Validate(); err != nil {
		panic(err)
	}

	return &Processor{config: c, log: log}
}

// Run prepares every "layer*" directory under parent in lexical order and
// returns the access tables it wrote. A layer that fails is logged and
// skipped.
func (p *Processor) Run(parent string) ([]string, error) {
	info, err := os.Stat(parent)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", parent)
	}

	if !info.IsDir() {
		return nil, errors.Newf("provided path is not a directory: %s", parent)
	}

	layers, err := LayerDirs(parent)
	if err != nil {
		return nil, err
	}

	if len(layers) == 0 {
		p.log.Warningf("no layer directories under %s", parent)
		return nil, nil
	}

	var outputs []string

	for _, layer := range layers {
		p.log.Infof("processing layer directory %s", layer)

		out, err := p.ProcessLayer(layer)
		if err != nil {
			p.log.Errorf("skipping %s: %v", layer, err)
			continue
		}

		outputs = append(outputs, out)
	}

	return outputs, nil
}

// LayerDirs lists the "layer*" directories under parent in lexical order.
func LayerDirs(parent string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(parent, "layer*"))
	if err != nil {
		return nil, err
	}

	var dirs []string

	for _, m := range matches {
		if info, err := os.Stat(m); err == nil && info.IsDir() {
			dirs = append(dirs, m)
		}
	}

	sort.Strings(dirs)

	return dirs, nil
}

// ProcessLayer merges the operand traces of a layer and writes both the
// unified trace and the interleaved access table. It returns the path of the
// access table.
func (p *Processor) ProcessLayer(dir string) (string, error) {
	unified, err := p.MergeLayer(dir)
	if err != nil {
		return "", errors.Wrap(err, "merge")
	}

	out, err := p.InterleaveUnified(unified)
	if err != nil {
		return "", errors.Wrap(err, "interleave")
	}

	return out, nil
}

// MergeLayer merges the operand traces of a layer by cycle into
// UNIFIED_TRACE.csv and returns its path. Stale outputs are removed first.
func (p *Processor) MergeLayer(dir string) (string, error) {
	outCSV := filepath.Join(dir, UnifiedCSVName)

	for _, stale := range []string{outCSV, filepath.Join(dir, UnifiedNpyName)} {
		if err := os.Remove(stale); err != nil && !os.IsNotExist(err) {
			return "", err
		}
	}

	streams := make([][]Event, 0, len(Operands))
	for _, op := range Operands {
		events, err := p.readOperand(dir, op)
		if err != nil {
			return "", err
		}

		streams = append(streams, events)
	}

	merged := Merge(streams...)

	if err := writeFile(outCSV, func(w *bufio.Writer) error {
		return WriteUnified(w, merged)
	}); err != nil {
		return "", err
	}

	p.log.Debugf("merged %d DRAM accesses into %s", len(merged), outCSV)

	return outCSV, nil
}

func (p *Processor) readOperand(dir string, op Operand) ([]Event, error) {
	path := filepath.Join(dir, op.FileName())

	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, errors.Mark(
			errors.Newf("missing expected trace: %s", path), ErrMissingTrace)
	}

	if err != nil {
		return nil, err
	}
	defer f.Close()

	return ReadDRAMTrace(bufio.NewReader(f), op, p.config)
}

// InterleaveUnified reads a unified trace, interleaves it by PE row, and
// writes the access table next to it.
func (p *Processor) InterleaveUnified(unifiedCSV string) (string, error) {
	f, err := os.Open(unifiedCSV)
	if err != nil {
		return "", err
	}

	events, err := ReadUnified(bufio.NewReader(f))
	f.Close()

	if err != nil {
		return "", err
	}

	accesses := Interleave(events, p.config.ArrayHeight)
	out := strings.TrimSuffix(unifiedCSV, ".csv") + ".npy"

	if err := SaveAccesses(out, accesses); err != nil {
		return "", err
	}

	p.log.Debugf("wrote %d interleaved accesses to %s", len(accesses), out)

	return out, nil
}

func writeFile(path string, write func(w *bufio.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}

	w := bufio.NewWriter(f)

	err = write(w)
	if err == nil {
		err = w.Flush()
	}

	if closeErr := f.Close(); err == nil {
		err = closeErr
	}

	return err
}
