package attributes

import (
	"errors"
	"testing"
)

func uniform(n int) []float64 {
	d := make([]float64, n)
	for i := range d {
		d[i] = 1 / float64(n)
	}
	return d
}

func peaked(n, at int) []float64 {
	d := make([]float64, n)
	for i := range d {
		d[i] = 0.5 / float64(n-1)
	}
	d[at] = 0.5
	return d
}

func TestVocabularySizes(t *testing.T) {
	want := map[Dimension]int{Tone: 3, Type: 5, Concern: 15, Texture: 13, Undertone: 3}
	for d, n := range want {
		if d.Size() != n {
			t.Errorf("%s size = %d, want %d", d, d.Size(), n)
		}
	}
}

func TestArgMax_FirstIndexWinsTies(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		want   int
	}{
		{"single peak", []float64{0.1, 0.7, 0.2}, 1},
		{"two-way tie", []float64{0.4, 0.4, 0.2}, 0},
		{"tie after first", []float64{0.2, 0.4, 0.4}, 1},
		{"uniform", uniform(5), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ArgMax(tt.values); got != tt.want {
				t.Errorf("ArgMax(%v) = %d, want %d", tt.values, got, tt.want)
			}
		})
	}
}

func TestDecode(t *testing.T) {
	dists := [][]float64{
		peaked(3, 0),  // Fair
		peaked(5, 2),  // Oily
		peaked(15, 8), // Aging
		peaked(13, 2), // Smooth
		peaked(3, 2),  // Warm
	}
	v, err := Decode(dists)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	want := [5]string{"Fair", "Oily", "Aging", "Smooth", "Warm"}
	if v.Tuple() != want {
		t.Errorf("Tuple() = %v, want %v", v.Tuple(), want)
	}
	if v.Score(Concern) != 0.5 {
		t.Errorf("Score(Concern) = %v, want 0.5", v.Score(Concern))
	}

	// The vector must not alias caller memory.
	dists[0][0] = 0
	if v.Confidence(Tone)[0] != 0.5 {
		t.Error("Vector aliases the input distribution")
	}
	c := v.Confidence(Tone)
	c[0] = 42
	if v.Confidence(Tone)[0] != 0.5 {
		t.Error("Confidence returned internal storage")
	}
}

func TestDecode_UniformPicksFirstLabel(t *testing.T) {
	var dists [][]float64
	for _, d := range Dimensions {
		dists = append(dists, uniform(d.Size()))
	}
	v, err := Decode(dists)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	for _, d := range Dimensions {
		if v.Label(d) != d.Labels()[0] {
			t.Errorf("%s = %q, want %q", d, v.Label(d), d.Labels()[0])
		}
	}
}

func TestDecode_ShapeMismatch(t *testing.T) {
	tests := []struct {
		name  string
		dists [][]float64
	}{
		{"too few heads", [][]float64{uniform(3)}},
		{"wrong width", [][]float64{uniform(4), uniform(5), uniform(15), uniform(13), uniform(3)}},
		{"not normalized", [][]float64{{0.5, 0.5, 0.5}, uniform(5), uniform(15), uniform(13), uniform(3)}},
		{"negative", [][]float64{{1.5, -0.5, 0}, uniform(5), uniform(15), uniform(13), uniform(3)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.dists)
			if !errors.Is(err, ErrShapeMismatch) {
				t.Errorf("Decode() error = %v, want ErrShapeMismatch", err)
			}
		})
	}
}

func TestDecodeLegacy_SynthesizesNeutralUndertone(t *testing.T) {
	v, err := DecodeLegacy([][]float64{peaked(3, 1), peaked(5, 1), peaked(15, 0), peaked(13, 5)})
	if err != nil {
		t.Fatalf("DecodeLegacy() error = %v", err)
	}
	if v.Undertone() != DefaultUndertone {
		t.Errorf("Undertone() = %q, want %q", v.Undertone(), DefaultUndertone)
	}
	if v.Score(Undertone) != 1 {
		t.Errorf("Score(Undertone) = %v, want 1", v.Score(Undertone))
	}
	if v.Tone() != "Medium" || v.Type() != "Dry" || v.Concern() != "Cystic Acne" || v.Texture() != "Rough" {
		t.Errorf("unexpected labels %v", v.Tuple())
	}
}

func TestParse(t *testing.T) {
	got, err := Parse(Concern, "  dark spots ")
	if err != nil || got != "Dark Spots" {
		t.Errorf("Parse() = %q, %v; want Dark Spots", got, err)
	}
	if _, err := Parse(Tone, "Olive"); err == nil {
		t.Error("expected error for unknown tone")
	}
}
