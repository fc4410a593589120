package attributes

import (
	"errors"
	"fmt"
	"math"
)

// ErrShapeMismatch means the classifier output does not line up with the vocabularies.
var ErrShapeMismatch = errors.New("distribution shape does not match label vocabulary")

// sumTolerance absorbs float32 rounding from the runtime softmax.
const sumTolerance = 1e-3

// Vector is the decoded result of one classification call. It is immutable.
type Vector struct {
	labels       [5]string
	distribution [5][]float64
}

// Label returns the arg-max label of d.
func (v Vector) Label(d Dimension) string {
	return v.labels[d]
}

// Confidence returns a copy of the probability distribution of d.
func (v Vector) Confidence(d Dimension) []float64 {
	return append([]float64(nil), v.distribution[d]...)
}

// Score is the probability of the selected label of d.
func (v Vector) Score(d Dimension) float64 {
	dist := v.distribution[d]
	if len(dist) == 0 {
		return 0
	}
	return dist[ArgMax(dist)]
}

func (v Vector) Tone() string      { return v.labels[Tone] }
func (v Vector) Type() string      { return v.labels[Type] }
func (v Vector) Concern() string   { return v.labels[Concern] }
func (v Vector) Texture() string   { return v.labels[Texture] }
func (v Vector) Undertone() string { return v.labels[Undertone] }

// IsZero reports whether v was never decoded.
func (v Vector) IsZero() bool {
	return v.labels[Tone] == ""
}

// Tuple returns the labels in head order: tone, type, concern, texture, undertone.
func (v Vector) Tuple() [5]string {
	return v.labels
}

// ArgMax returns the index of the largest value. Ties resolve to the first index.
func ArgMax(values []float64) int {
	best := 0
	for i := 1; i < len(values); i++ {
		if values[i] > values[best] {
			best = i
		}
	}
	return best
}

// Decode maps five distributions, in Dimensions order, to a Vector.
func Decode(dists [][]float64) (Vector, error) {
	if len(dists) != len(Dimensions) {
		return Vector{}, fmt.Errorf("%w: got %d distributions, want %d", ErrShapeMismatch, len(dists), len(Dimensions))
	}
	var v Vector
	for i, d := range Dimensions {
		if err := v.set(d, dists[i]); err != nil {
			return Vector{}, err
		}
	}
	return v, nil
}

// DecodeLegacy decodes the output of a four-head model and reports DefaultUndertone
// with full confidence.
//
// Deprecated: retained for artifacts trained before the undertone head existed.
func DecodeLegacy(dists [][]float64) (Vector, error) {
	if len(dists) != len(LegacyDimensions) {
		return Vector{}, fmt.Errorf("%w: got %d distributions, want %d", ErrShapeMismatch, len(dists), len(LegacyDimensions))
	}
	var v Vector
	for i, d := range LegacyDimensions {
		if err := v.set(d, dists[i]); err != nil {
			return Vector{}, err
		}
	}
	if err := v.set(Undertone, OneHot(Undertone, DefaultUndertone)); err != nil {
		return Vector{}, err
	}
	return v, nil
}

// OneHot builds a distribution of d with all mass on label.
func OneHot(d Dimension, label string) []float64 {
	dist := make([]float64, d.Size())
	for i, l := range d.Labels() {
		if l == label {
			dist[i] = 1
		}
	}
	return dist
}

func (v *Vector) set(d Dimension, dist []float64) error {
	labels := d.Labels()
	if len(dist) != len(labels) {
		return fmt.Errorf("%w: %s has %d values, want %d", ErrShapeMismatch, d, len(dist), len(labels))
	}
	var sum float64
	for _, p := range dist {
		if math.IsNaN(p) || p < 0 {
			return fmt.Errorf("%w: %s contains invalid probability %v", ErrShapeMismatch, d, p)
		}
		sum += p
	}
	if math.Abs(sum-1) > sumTolerance {
		return fmt.Errorf("%w: %s sums to %.4f", ErrShapeMismatch, d, sum)
	}
	v.labels[d] = labels[ArgMax(dist)]
	v.distribution[d] = append([]float64(nil), dist...)
	return nil
}
