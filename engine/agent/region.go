// Package agent holds the Agent and Region types (§3) and the Map provider
// interface (§6) that the rest of the engine consumes by reference.
package agent

import "fmt"

// Region is an axis-aligned rectangle in continuous space, one [Low, High]
// pair per declared continuous dimension, in the agent's state-def order. A
// dimension with Low == High represents a point (SPEC_FULL's "non-2D
// degenerate init regions": a single concrete state verified as a
// zero-width box is valid, not an error).
type Region struct {
	Low  []float64
	High []float64
}

// NewPointRegion builds a zero-width Region from a single concrete point,
// the promotion original_source/scenario.py:96-108 performs when a verify()
// init has fewer than two rows.
func NewPointRegion(point []float64) Region {
	low := make([]float64, len(point))
	high := make([]float64, len(point))
	copy(low, point)
	copy(high, point)
	return Region{Low: low, High: high}
}

// Dims returns the number of continuous dimensions.
func (r Region) Dims() int { return len(r.Low) }

// Validate checks that Low and High have matching length and that every
// dimension is non-inverted (Low[i] <= High[i]).
func (r Region) Validate() error {
	if len(r.Low) != len(r.High) {
		return fmt.Errorf("region low/high length mismatch: %d vs %d", len(r.Low), len(r.High))
	}
	for i := range r.Low {
		if r.Low[i] > r.High[i] {
			return fmt.Errorf("region dimension %d is inverted: low %v > high %v", i, r.Low[i], r.High[i])
		}
	}
	return nil
}

// IsPoint reports whether every dimension is zero-width.
func (r Region) IsPoint() bool {
	for i := range r.Low {
		if r.Low[i] != r.High[i] {
			return false
		}
	}
	return true
}

// Clone returns an independent copy of r.
func (r Region) Clone() Region {
	low := make([]float64, len(r.Low))
	high := make([]float64, len(r.High))
	copy(low, r.Low)
	copy(high, r.High)
	return Region{Low: low, High: high}
}

// Union returns the componentwise union (min of lows, max of highs) of r and
// other, used to combine per-hit-index successor rects for the same
// (agent, dest mode) in the verification transition engine (§4.5 step 5).
func (r Region) Union(other Region) Region {
	if len(r.Low) == 0 {
		return other.Clone()
	}
	if len(other.Low) == 0 {
		return r.Clone()
	}
	out := r.Clone()
	for i := range out.Low {
		if other.Low[i] < out.Low[i] {
			out.Low[i] = other.Low[i]
		}
		if other.High[i] > out.High[i] {
			out.High[i] = other.High[i]
		}
	}
	return out
}

// WithDim returns a copy of r with dimension i replaced by [low, high].
func (r Region) WithDim(i int, low, high float64) Region {
	out := r.Clone()
	out.Low[i] = low
	out.High[i] = high
	return out
}
