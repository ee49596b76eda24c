package reusedistance

// Builder can build Engines.
type Builder struct {
	config   Config
	strategy Strategy
}

// MakeBuilder returns a Builder with the default calibration.
func MakeBuilder() Builder {
	return Builder{
		config:   DefaultConfig(),
		strategy: StrategyOrderStatistics,
	}
}

// WithConfig replaces the whole configuration.
func (b Builder) WithConfig(c Config) Builder {
	b.config = c
	return b
}

// WithArrayHeight sets the number of PE rows.
func (b Builder) WithArrayHeight(h int) Builder {
	b.config.ArrayHeight = h
	return b
}

// WithArrayWidth sets the number of PE columns.
func (b Builder) WithArrayWidth(w int) Builder {
	b.config.ArrayWidth = w
	return b
}

// WithLineSize sets the cache line size in bytes.
func (b Builder) WithLineSize(lineSize int) Builder {
	b.config.LineSize = lineSize
	return b
}

// WithUBKB sets the unified buffer capacity in KiB.
func (b Builder) WithUBKB(kb float64) Builder {
	b.config.UBKB = kb
	return b
}

// WithLambdaSpatial sets the spatial discount factor.
func (b Builder) WithLambdaSpatial(lambda float64) Builder {
	b.config.LambdaSpatial = lambda
	return b
}

// WithBeta sets the sharpness of the hit/miss transition.
func (b Builder) WithBeta(beta float64) Builder {
	b.config.Beta = beta
	return b
}

// WithDeltaFlow sets the dataflow calibration factor.
func (b Builder) WithDeltaFlow(delta float64) Builder {
	b.config.DeltaFlow = delta
	return b
}

// WithTSRAM sets the on-chip latency in cycles.
func (b Builder) WithTSRAM(cycles float64) Builder {
	b.config.TSRAM = cycles
	return b
}

// WithTDRAM sets the DRAM latency in cycles.
func (b Builder) WithTDRAM(cycles float64) Builder {
	b.config.TDRAM = cycles
	return b
}

// WithInterfaceBW sets the DRAM interface bandwidth in words per cycle.
func (b Builder) WithInterfaceBW(bw float64) Builder {
	b.config.InterfaceBW = bw
	return b
}

// WithStrategy sets how temporal distances are computed.
func (b Builder) WithStrategy(s Strategy) Builder {
	b.strategy = s
	return b
}

// Build creates an Engine. It panics if the configuration is invalid.
func (b Builder) Build() *Engine {
	if err := b.config.Validate(); err != nil {
		panic(err)
	}

	return &Engine{
		config:   b.config,
		model:    NewHitModel(b.config),
		strategy: b.strategy,
	}
}
