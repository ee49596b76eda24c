package reusedistance

import "math"

// logisticLimit bounds the exponent of the logistic function. Beyond it the
// hit probability is clamped to 0 or 1.
const logisticLimit = 50.0

// HitModel turns temporal and spatial distances into a hit probability with a
// logistic curve centered at the buffer capacity.
type HitModel struct {
	capacityLines float64
	lambdaSpatial float64
	beta          float64
	deltaFlow     float64
}

// NewHitModel creates a HitModel from the calibration in c.
func NewHitModel(c Config) HitModel {
	return HitModel{
		capacityLines: c.CapacityLines(),
		lambdaSpatial: c.LambdaSpatial,
		beta:          c.Beta,
		deltaFlow:     c.DeltaFlow,
	}
}

// CapacityLines returns the capacity the curve is centered at.
func (m HitModel) CapacityLines() float64 {
	return m.capacityLines
}

// EffectiveDistance discounts the temporal distance by spatial interleaving
// and scales it by the dataflow factor. The second return value is false for
// saturated distances, whose effective distance is infinite.
func (m HitModel) EffectiveDistance(temporal, spatial uint64) (float64, bool) {
	if temporal >= DMax {
		return math.Inf(1), false
	}

	discount := 1 + m.lambdaSpatial*float64(spatial)
	rdEff := float64(temporal) / discount * m.deltaFlow

	return rdEff, true
}

// HitProbability returns the probability in [0, 1] that an access with the
// given distances hits.
func (m HitModel) HitProbability(temporal, spatial uint64) float64 {
	rdEff, finite := m.EffectiveDistance(temporal, spatial)
	if !finite {
		return 0
	}

	return m.probabilityAt(rdEff)
}

func (m HitModel) probabilityAt(rdEff float64) float64 {
	z := -m.beta * (m.capacityLines - rdEff)

	switch {
	case z > logisticLimit:
		return 0
	case z < -logisticLimit:
		return 1
	default:
		return 1 / (1 + math.Exp(z))
	}
}
