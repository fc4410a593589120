package preprocess

import (
	"errors"
	"image"

	"golang.org/x/image/draw"
)

// InputSize is the square edge the classifier backbones are trained on.
const InputSize = 224

// ErrEmptyImage is returned for rasters with no pixels.
var ErrEmptyImage = errors.New("image has no pixels")

// Tensor is a single NHWC float32 sample with values in [0,1].
type Tensor struct {
	Data     []float32
	Width    int
	Height   int
	Channels int
}

// Shape returns the NHWC shape with a batch dimension of one.
func (t Tensor) Shape() []int64 {
	return []int64{1, int64(t.Height), int64(t.Width), int64(t.Channels)}
}

// Valid reports whether Data matches the declared dimensions.
func (t Tensor) Valid() bool {
	return t.Width > 0 && t.Height > 0 && t.Channels > 0 && len(t.Data) == t.Width*t.Height*t.Channels
}

// Float64 copies the data into a float64 slice.
func (t Tensor) Float64() []float64 {
	out := make([]float64, len(t.Data))
	for i, v := range t.Data {
		out[i] = float64(v)
	}
	return out
}

// Pipeline applies an Adjustment then resizes to Size x Size.
type Pipeline struct {
	Adjustment Adjustment
	Size       int
}

// NewPipeline returns a pipeline targeting InputSize.
func NewPipeline(adj Adjustment) Pipeline {
	return Pipeline{Adjustment: adj, Size: InputSize}
}

// Run converts img to a classifier tensor.
func (p Pipeline) Run(img image.Image) (Tensor, error) {
	if img == nil || img.Bounds().Empty() {
		return Tensor{}, ErrEmptyImage
	}
	size := p.Size
	if size <= 0 {
		size = InputSize
	}
	return ToTensor(p.Adjustment.Apply(img), size)
}

// ToTensor resizes img to size x size with Catmull-Rom interpolation and scales
// RGB values to [0,1].
func ToTensor(img image.Image, size int) (Tensor, error) {
	if img == nil || img.Bounds().Empty() {
		return Tensor{}, ErrEmptyImage
	}
	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)

	data := make([]float32, 0, size*size*3)
	for i := 0; i+3 < len(dst.Pix); i += 4 {
		data = append(data,
			float32(dst.Pix[i])/255,
			float32(dst.Pix[i+1])/255,
			float32(dst.Pix[i+2])/255,
		)
	}
	return Tensor{Data: data, Width: size, Height: size, Channels: 3}, nil
}
