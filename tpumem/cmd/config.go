package cmd

import (
	"os"
	"strings"

	"github.com/azaharalam/PPT-TPU-MEM/reusedistance"
	"github.com/azaharalam/PPT-TPU-MEM/trace"
	"github.com/cockroachdb/errors"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

const envPrefix = "TPUMEM_"

// settings is everything the engine and the trace processor are configured
// with.
type settings struct {
	Engine   reusedistance.Config `yaml:"engine"`
	Trace    trace.Config         `yaml:"trace"`
	Strategy string               `yaml:"strategy"`
}

func defaultSettings() settings {
	return settings{
		Engine:   reusedistance.DefaultConfig(),
		Trace:    trace.DefaultConfig(),
		Strategy: reusedistance.StrategyOrderStatistics.String(),
	}
}

// A settingFlag binds a command-line flag to a field of the settings.
type settingFlag struct {
	name  string
	usage string
	add   func(fs *pflag.FlagSet, name, usage string, d settings)
	apply func(fs *pflag.FlagSet, name string, s *settings) error
}

func intFlag(
	name, usage string,
	field func(s *settings) *int,
) settingFlag {
	return settingFlag{
		name:  name,
		usage: usage,
		add: func(fs *pflag.FlagSet, name, usage string, d settings) {
			fs.Int(name, *field(&d), usage)
		},
		apply: func(fs *pflag.FlagSet, name string, s *settings) error {
			v, err := fs.GetInt(name)
			*field(s) = v

			return err
		},
	}
}

func int64Flag(
	name, usage string,
	field func(s *settings) *int64,
) settingFlag {
	return settingFlag{
		name:  name,
		usage: usage,
		add: func(fs *pflag.FlagSet, name, usage string, d settings) {
			fs.Int64(name, *field(&d), usage)
		},
		apply: func(fs *pflag.FlagSet, name string, s *settings) error {
			v, err := fs.GetInt64(name)
			*field(s) = v

			return err
		},
	}
}

func floatFlag(
	name, usage string,
	field func(s *settings) *float64,
) settingFlag {
	return settingFlag{
		name:  name,
		usage: usage,
		add: func(fs *pflag.FlagSet, name, usage string, d settings) {
			fs.Float64(name, *field(&d), usage)
		},
		apply: func(fs *pflag.FlagSet, name string, s *settings) error {
			v, err := fs.GetFloat64(name)
			*field(s) = v

			return err
		},
	}
}

func stringFlag(
	name, usage string,
	field func(s *settings) *string,
) settingFlag {
	return settingFlag{
		name:  name,
		usage: usage,
		add: func(fs *pflag.FlagSet, name, usage string, d settings) {
			fs.String(name, *field(&d), usage)
		},
		apply: func(fs *pflag.FlagSet, name string, s *settings) error {
			v, err := fs.GetString(name)
			*field(s) = v

			return err
		},
	}
}

var arrayFlags = []settingFlag{
	intFlag("array-height", "Number of PE rows.",
		func(s *settings) *int { return &s.Engine.ArrayHeight }),
	intFlag("array-width", "Number of PE columns.",
		func(s *settings) *int { return &s.Engine.ArrayWidth }),
	intFlag("line-size", "Cache line size in bytes.",
		func(s *settings) *int { return &s.Engine.LineSize }),
}

var traceFlags = []settingFlag{
	int64Flag("ifmap-offset", "Address offset of the ifmap operand.",
		func(s *settings) *int64 { return &s.Trace.IfmapOffset }),
	int64Flag("filter-offset", "Address offset of the filter operand.",
		func(s *settings) *int64 { return &s.Trace.FilterOffset }),
	int64Flag("ofmap-offset", "Address offset of the ofmap operand.",
		func(s *settings) *int64 { return &s.Trace.OfmapOffset }),
}

var engineFlags = []settingFlag{
	floatFlag("ub-kb", "Unified buffer capacity in KiB.",
		func(s *settings) *float64 { return &s.Engine.UBKB }),
	floatFlag("lambda", "Weight of spatial interference.",
		func(s *settings) *float64 { return &s.Engine.LambdaSpatial }),
	floatFlag("beta", "Steepness of the hit-probability curve.",
		func(s *settings) *float64 { return &s.Engine.Beta }),
	floatFlag("delta-flow", "Dataflow reuse factor.",
		func(s *settings) *float64 { return &s.Engine.DeltaFlow }),
	floatFlag("t-sram", "On-chip access latency in cycles.",
		func(s *settings) *float64 { return &s.Engine.TSRAM }),
	floatFlag("t-dram", "DRAM access latency in cycles.",
		func(s *settings) *float64 { return &s.Engine.TDRAM }),
	floatFlag("interface-bw", "DRAM interface bandwidth in words per cycle.",
		func(s *settings) *float64 { return &s.Engine.InterfaceBW }),
	stringFlag("strategy",
		"Stack distance strategy: order-statistics or linear-scan.",
		func(s *settings) *string { return &s.Strategy }),
}

func addSettingFlags(fs *pflag.FlagSet, groups ...[]settingFlag) {
	d := defaultSettings()

	for _, group := range groups {
		for _, f := range group {
			f.add(fs, f.name, f.usage, d)
		}
	}
}

// envName returns the environment variable that can set a flag.
func envName(flag string) string {
	return envPrefix + strings.ToUpper(strings.ReplaceAll(flag, "-", "_"))
}

// resolveSettings combines, from lowest to highest priority, the defaults,
// the environment, the YAML file given by --config, and the flags set on the
// command line.
func resolveSettings(fs *pflag.FlagSet, groups ...[]settingFlag) (
	settings, error,
) {
	var (
		s        = defaultSettings()
		explicit []settingFlag
		fromEnv  []settingFlag
	)

	for _, group := range groups {
		for _, f := range group {
			if fs.Changed(f.name) {
				explicit = append(explicit, f)
				continue
			}

			value, ok := os.LookupEnv(envName(f.name))
			if !ok {
				continue
			}

			if err := fs.Set(f.name, value); err != nil {
				return s, errors.Wrapf(err, "environment %s", envName(f.name))
			}

			fromEnv = append(fromEnv, f)
		}
	}

	if err := applyFlags(fs, fromEnv, &s); err != nil {
		return s, err
	}

	// The array shape and line size belong to the engine section. The trace
	// section may only repeat them.
	s.Trace.ArrayHeight, s.Trace.ArrayWidth, s.Trace.LineSize = 0, 0, 0

	if err := applyConfigFile(fs, &s); err != nil {
		return s, err
	}

	if err := applyFlags(fs, explicit, &s); err != nil {
		return s, err
	}

	if err := s.shareArrayShape(); err != nil {
		return s, err
	}

	if err := s.Engine.Validate(); err != nil {
		return s, err
	}

	return s, nil
}

// shareArrayShape copies the engine's array shape and line size into the
// trace config, rejecting trace values that disagree.
func (s *settings) shareArrayShape() error {
	shared := []struct {
		name          string
		trace, engine *int
	}{
		{"array_height", &s.Trace.ArrayHeight, &s.Engine.ArrayHeight},
		{"array_width", &s.Trace.ArrayWidth, &s.Engine.ArrayWidth},
		{"line_size", &s.Trace.LineSize, &s.Engine.LineSize},
	}

	for _, f := range shared {
		if *f.trace != 0 && *f.trace != *f.engine {
			return errors.Newf("trace.%s is %d but engine.%s is %d",
				f.name, *f.trace, f.name, *f.engine)
		}

		*f.trace = *f.engine
	}

	return nil
}

func applyFlags(fs *pflag.FlagSet, flags []settingFlag, s *settings) error {
	for _, f := range flags {
		if err := f.apply(fs, f.name, s); err != nil {
			return errors.Wrapf(err, "flag --%s", f.name)
		}
	}

	return nil
}

func applyConfigFile(fs *pflag.FlagSet, s *settings) error {
	path, err := fs.GetString("config")
	if err != nil || path == "" {
		path = os.Getenv(envName("config"))
	}

	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, "reading config file")
	}

	if err := yaml.Unmarshal(data, s); err != nil {
		return errors.Wrapf(err, "parsing config file %s", path)
	}

	return nil
}

func (s settings) strategy() (reusedistance.Strategy, error) {
	return reusedistance.ParseStrategy(s.Strategy)
}
