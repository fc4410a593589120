// Package attributes holds the fixed skin label vocabularies and turns classifier
// probability distributions into discrete labels.
package attributes

import (
	"fmt"
	"strings"
)

// Dimension is one independent classification axis.
type Dimension int

const (
	Tone Dimension = iota
	Type
	Concern
	Texture
	Undertone
)

// Dimensions lists every axis in classifier head order.
var Dimensions = []Dimension{Tone, Type, Concern, Texture, Undertone}

// LegacyDimensions is the head order of four-output models that predate undertone.
var LegacyDimensions = []Dimension{Tone, Type, Concern, Texture}

// Label vocabularies. Order matters: index i of a head's output maps to entry i.
var (
	ToneLabels = []string{"Fair", "Medium", "Dark"}

	TypeLabels = []string{"Normal", "Dry", "Oily", "Combination", "Sensitive"}

	ConcernLabels = []string{
		"Cystic Acne", "Blackheads", "Whiteheads",
		"Hyperpigmentation", "Melasma", "Dark Spots",
		"Fine Lines", "Wrinkles", "Aging",
		"Dullness", "Dehydration",
		"Redness", "Rosacea", "Irritation", "Sunburn",
	}

	TextureLabels = []string{
		"Velvety", "Soft", "Smooth",
		"Flaky", "Harsh", "Rough",
		"Patchy", "Uneven", "Bumpy",
		"Large Pores",
		"Peeling", "Tight", "Scaly",
	}

	UndertoneLabels = []string{"Cool", "Neutral", "Warm"}
)

// DefaultUndertone is reported by models that do not predict undertone.
const DefaultUndertone = "Neutral"

var dimensionNames = map[Dimension]string{
	Tone:      "skin_tone",
	Type:      "skin_type",
	Concern:   "skin_concern",
	Texture:   "skin_texture",
	Undertone: "undertone",
}

// String returns the catalog field name of the dimension.
func (d Dimension) String() string {
	if name, ok := dimensionNames[d]; ok {
		return name
	}
	return fmt.Sprintf("dimension(%d)", int(d))
}

// Labels returns the vocabulary of d. The returned slice must not be modified.
func (d Dimension) Labels() []string {
	switch d {
	case Tone:
		return ToneLabels
	case Type:
		return TypeLabels
	case Concern:
		return ConcernLabels
	case Texture:
		return TextureLabels
	case Undertone:
		return UndertoneLabels
	}
	return nil
}

// Size is the number of labels of d, i.e. the width of its classifier head.
func (d Dimension) Size() int {
	return len(d.Labels())
}

// Parse resolves a caller supplied label case-insensitively to its canonical spelling.
func Parse(d Dimension, value string) (string, error) {
	value = strings.TrimSpace(value)
	for _, label := range d.Labels() {
		if strings.EqualFold(label, value) {
			return label, nil
		}
	}
	return "", fmt.Errorf("unknown %s %q", d, value)
}
