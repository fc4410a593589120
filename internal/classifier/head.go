package classifier

import (
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/anime-shed/skin-advisor-go/internal/attributes"
)

// Head is a dense layer followed by softmax for one attribute dimension.
// Weights has one row per label.
type Head struct {
	Dimension attributes.Dimension
	Weights   *mat.Dense
	Bias      *mat.VecDense
}

// newHead initializes weights with Glorot uniform and zero bias.
func newHead(d attributes.Dimension, in int, rng *rand.Rand) Head {
	out := d.Size()
	limit := math.Sqrt(6 / float64(in+out))
	w := make([]float64, out*in)
	for i := range w {
		w[i] = (rng.Float64()*2 - 1) * limit
	}
	return Head{
		Dimension: d,
		Weights:   mat.NewDense(out, in, w),
		Bias:      mat.NewVecDense(out, nil),
	}
}

func (h Head) validate(in int) error {
	r, c := h.Weights.Dims()
	if r != h.Dimension.Size() || c != in {
		return fmt.Errorf("head %s has weights %dx%d, want %dx%d", h.Dimension, r, c, h.Dimension.Size(), in)
	}
	if h.Bias.Len() != r {
		return fmt.Errorf("head %s has bias of length %d, want %d", h.Dimension, h.Bias.Len(), r)
	}
	return nil
}

// Forward returns the label distribution for a feature vector.
func (h Head) Forward(features *mat.VecDense) []float64 {
	var z mat.VecDense
	z.MulVec(h.Weights, features)
	z.AddVec(&z, h.Bias)
	return softmax(z.RawVector().Data)
}

// softmax is numerically stabilized by subtracting the maximum logit.
func softmax(logits []float64) []float64 {
	out := make([]float64, len(logits))
	if len(logits) == 0 {
		return out
	}
	maxLogit := floats.Max(logits)
	for i, v := range logits {
		out[i] = math.Exp(v - maxLogit)
	}
	floats.Scale(1/floats.Sum(out), out)
	return out
}
