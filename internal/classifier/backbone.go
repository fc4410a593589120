// Package classifier maps a preprocessed face tensor to one probability distribution
// per attribute dimension: a frozen backbone followed by dense softmax heads.
package classifier

import (
	"context"
	"fmt"
	"strings"

	"github.com/anime-shed/skin-advisor-go/internal/preprocess"
)

// Backbone identifies a supported pretrained feature network.
type Backbone string

const (
	MobileNetV2    Backbone = "mobilenet_v2"
	ResNet50       Backbone = "resnet50"
	EfficientNetB0 Backbone = "efficientnet_b0"
	VGG16          Backbone = "vgg16"
	InceptionV3    Backbone = "inception_v3"
	DenseNet121    Backbone = "densenet121"
	Xception       Backbone = "xception"
)

// DefaultBackbone is used when none is configured.
const DefaultBackbone = MobileNetV2

// Pooled output width of each backbone.
var featureDims = map[Backbone]int{
	MobileNetV2:    1280,
	ResNet50:       2048,
	EfficientNetB0: 1280,
	VGG16:          512,
	InceptionV3:    2048,
	DenseNet121:    1024,
	Xception:       2048,
}

// Backbones lists every supported backbone.
func Backbones() []Backbone {
	return []Backbone{MobileNetV2, ResNet50, EfficientNetB0, VGG16, InceptionV3, DenseNet121, Xception}
}

// ParseBackbone resolves a backbone name. Unknown names are rejected.
func ParseBackbone(s string) (Backbone, error) {
	b := Backbone(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := featureDims[b]; !ok {
		return "", fmt.Errorf("unsupported backbone: %q", s)
	}
	return b, nil
}

func (b Backbone) String() string { return string(b) }

// FeatureDim is the length of the pooled feature vector, or 0 for unknown backbones.
func (b Backbone) FeatureDim() int {
	return featureDims[b]
}

// Extractor runs a frozen backbone and returns its pooled features.
type Extractor interface {
	Backbone() Backbone
	Extract(ctx context.Context, t preprocess.Tensor) ([]float64, error)
	Close() error
}

// ExtractorFactory creates extractors for a backbone.
type ExtractorFactory interface {
	CreateExtractor(b Backbone) (Extractor, error)
}
