// Package onnx runs exported backbones through ONNX Runtime.
package onnx

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/anime-shed/skin-advisor-go/internal/classifier"
	"github.com/anime-shed/skin-advisor-go/internal/logger"
	"github.com/anime-shed/skin-advisor-go/internal/preprocess"
)

var (
	envOnce sync.Once
	envErr  error
)

func initEnvironment(libPath string) error {
	envOnce.Do(func() {
		if libPath != "" {
			ort.SetSharedLibraryPath(libPath)
		}
		envErr = ort.InitializeEnvironment()
		if envErr == nil {
			logger.Component("onnx").WithField("library", libPath).Info("ONNX Runtime initialized")
		}
	})
	return envErr
}

// Factory loads <Dir>/<backbone>.onnx for each requested backbone.
type Factory struct {
	Dir        string
	RuntimeLib string
}

// NewFactory returns a factory reading models from dir.
func NewFactory(dir, runtimeLib string) *Factory {
	return &Factory{Dir: dir, RuntimeLib: runtimeLib}
}

// CreateExtractor implements classifier.ExtractorFactory.
func (f *Factory) CreateExtractor(b classifier.Backbone) (classifier.Extractor, error) {
	path := filepath.Join(f.Dir, b.String()+".onnx")
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("backbone model %s: %w", path, err)
	}
	if err := initEnvironment(f.RuntimeLib); err != nil {
		return nil, fmt.Errorf("initialize onnxruntime: %w", err)
	}
	return newExtractor(path, b)
}

// Extractor owns one session with preallocated input and output tensors. Runs are
// serialized because the tensors are reused.
type Extractor struct {
	mu       sync.Mutex
	backbone classifier.Backbone
	session  *ort.AdvancedSession
	input    *ort.Tensor[float32]
	output   *ort.Tensor[float32]
}

func newExtractor(path string, b classifier.Backbone) (*Extractor, error) {
	inputs, outputs, err := ort.GetInputOutputInfo(path)
	if err != nil {
		return nil, fmt.Errorf("inspect %s: %w", path, err)
	}
	if len(inputs) == 0 || len(outputs) == 0 {
		return nil, fmt.Errorf("%s declares no inputs or outputs", path)
	}

	size := int64(preprocess.InputSize)
	input, err := ort.NewEmptyTensor[float32](ort.NewShape(1, size, size, 3))
	if err != nil {
		return nil, err
	}
	output, err := ort.NewEmptyTensor[float32](ort.NewShape(1, int64(b.FeatureDim())))
	if err != nil {
		input.Destroy()
		return nil, err
	}
	session, err := ort.NewAdvancedSession(path,
		[]string{inputs[0].Name}, []string{outputs[0].Name},
		[]ort.Value{input}, []ort.Value{output}, nil)
	if err != nil {
		input.Destroy()
		output.Destroy()
		return nil, fmt.Errorf("create session for %s: %w", path, err)
	}
	return &Extractor{backbone: b, session: session, input: input, output: output}, nil
}

func (e *Extractor) Backbone() classifier.Backbone { return e.backbone }

// Extract runs the backbone and returns the pooled features.
func (e *Extractor) Extract(ctx context.Context, t preprocess.Tensor) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if t.Width != preprocess.InputSize || t.Height != preprocess.InputSize || t.Channels != 3 {
		return nil, fmt.Errorf("tensor is %dx%dx%d, backbone expects %dx%dx3", t.Width, t.Height, t.Channels, preprocess.InputSize, preprocess.InputSize)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	copy(e.input.GetData(), t.Data)
	if err := e.session.Run(); err != nil {
		return nil, fmt.Errorf("run %s: %w", e.backbone, err)
	}
	raw := e.output.GetData()
	features := make([]float64, len(raw))
	for i, v := range raw {
		features[i] = float64(v)
	}
	return features, nil
}

// Close destroys the session and its tensors.
func (e *Extractor) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	err := e.session.Destroy()
	e.input.Destroy()
	e.output.Destroy()
	return err
}
