package classifier

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"time"

	"gonum.org/v1/gonum/mat"
	"gopkg.in/yaml.v3"

	"github.com/anime-shed/skin-advisor-go/internal/attributes"
)

const manifestFile = "manifest.yaml"

// ErrNoArtifact means the artifact directory has no manifest.
var ErrNoArtifact = errors.New("no model artifact")

type manifest struct {
	Backbone   Backbone       `yaml:"backbone"`
	FeatureDim int            `yaml:"feature_dim"`
	SavedAt    time.Time      `yaml:"saved_at"`
	Heads      []manifestHead `yaml:"heads"`
}

type manifestHead struct {
	Name    string   `yaml:"name"`
	Labels  []string `yaml:"labels"`
	Weights string   `yaml:"weights"`
	Bias    string   `yaml:"bias"`
}

// SaveArtifact writes the model's heads to dir as manifest.yaml plus binary matrices.
func SaveArtifact(dir string, m *Model) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create artifact dir: %w", err)
	}
	man := manifest{
		Backbone:   m.Backbone(),
		FeatureDim: m.Backbone().FeatureDim(),
		SavedAt:    time.Now().UTC(),
	}
	for _, h := range m.heads {
		name := h.Dimension.String()
		entry := manifestHead{
			Name:    name,
			Labels:  h.Dimension.Labels(),
			Weights: name + ".weights",
			Bias:    name + ".bias",
		}
		w, err := h.Weights.MarshalBinary()
		if err != nil {
			return fmt.Errorf("marshal %s weights: %w", name, err)
		}
		b, err := h.Bias.MarshalBinary()
		if err != nil {
			return fmt.Errorf("marshal %s bias: %w", name, err)
		}
		if err := os.WriteFile(filepath.Join(dir, entry.Weights), w, 0o644); err != nil {
			return err
		}
		if err := os.WriteFile(filepath.Join(dir, entry.Bias), b, 0o644); err != nil {
			return err
		}
		man.Heads = append(man.Heads, entry)
	}
	data, err := yaml.Marshal(&man)
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	// The manifest goes last so a partial write is never mistaken for an artifact.
	return os.WriteFile(filepath.Join(dir, manifestFile), data, 0o644)
}

// LoadArtifact reads heads from dir and binds them to ex. ErrNoArtifact is returned
// when dir has no manifest.
func LoadArtifact(dir string, ex Extractor) (*Model, error) {
	data, err := os.ReadFile(filepath.Join(dir, manifestFile))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNoArtifact
	}
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var man manifest
	if err := yaml.Unmarshal(data, &man); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	if man.Backbone != ex.Backbone() {
		return nil, fmt.Errorf("artifact was trained on %s, extractor is %s", man.Backbone, ex.Backbone())
	}

	heads := make([]Head, 0, len(man.Heads))
	for i, entry := range man.Heads {
		if i >= len(attributes.Dimensions) {
			return nil, fmt.Errorf("artifact has %d heads", len(man.Heads))
		}
		d := attributes.Dimensions[i]
		if entry.Name != d.String() {
			return nil, fmt.Errorf("artifact head %d is %q, want %q", i, entry.Name, d)
		}
		if !slices.Equal(entry.Labels, d.Labels()) {
			return nil, fmt.Errorf("artifact head %s has a different label vocabulary", d)
		}
		h := Head{Dimension: d, Weights: &mat.Dense{}, Bias: &mat.VecDense{}}
		if err := readBinary(filepath.Join(dir, entry.Weights), h.Weights.UnmarshalBinary); err != nil {
			return nil, fmt.Errorf("load %s weights: %w", d, err)
		}
		if err := readBinary(filepath.Join(dir, entry.Bias), h.Bias.UnmarshalBinary); err != nil {
			return nil, fmt.Errorf("load %s bias: %w", d, err)
		}
		heads = append(heads, h)
	}
	return NewModel(ex, heads, OriginArtifact)
}

func readBinary(path string, unmarshal func([]byte) error) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return unmarshal(data)
}
