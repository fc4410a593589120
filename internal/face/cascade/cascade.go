// Package cascade adapts an OpenCV Haar cascade to the face.Detector interface.
package cascade

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"

	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"github.com/anime-shed/skin-advisor-go/internal/logger"
)

// Options mirror the detectMultiScale parameters.
type Options struct {
	ScaleFactor  float64
	MinNeighbors int
	MinSize      int
}

// DefaultOptions are the frontal face settings used in production.
func DefaultOptions() Options {
	return Options{ScaleFactor: 1.1, MinNeighbors: 5, MinSize: 100}
}

// Detector runs a Haar cascade. CascadeClassifier is not safe for concurrent use,
// so detections are serialized.
type Detector struct {
	mu         sync.Mutex
	classifier gocv.CascadeClassifier
	opts       Options
	closed     bool
}

// New loads the cascade XML at path.
func New(path string, opts Options) (*Detector, error) {
	if opts.ScaleFactor <= 1 {
		return nil, fmt.Errorf("scale factor must be greater than 1, got %v", opts.ScaleFactor)
	}
	classifier := gocv.NewCascadeClassifier()
	if !classifier.Load(path) {
		classifier.Close()
		return nil, fmt.Errorf("failed to load face cascade classifier from %s", path)
	}
	logger.Component("face").WithFields(logrus.Fields{
		"cascade":       path,
		"scale_factor":  opts.ScaleFactor,
		"min_neighbors": opts.MinNeighbors,
		"min_size":      opts.MinSize,
	}).Info("Face detector initialized")
	return &Detector{classifier: classifier, opts: opts}, nil
}

// Detect returns candidate boxes at least MinSize on each side.
func (d *Detector) Detect(ctx context.Context, img image.Image) ([]image.Rectangle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	mat, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return nil, fmt.Errorf("convert image: %w", err)
	}
	defer mat.Close()

	gray := gocv.NewMat()
	defer gray.Close()
	// ImageToMatRGB yields BGR channel order.
	gocv.CvtColor(mat, &gray, gocv.ColorBGRToGray)

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil, errors.New("detector closed")
	}
	faces := d.classifier.DetectMultiScaleWithParams(
		gray,
		d.opts.ScaleFactor,
		d.opts.MinNeighbors,
		0,
		image.Pt(d.opts.MinSize, d.opts.MinSize),
		image.Pt(0, 0),
	)
	// Offset to the source image's coordinate space.
	origin := img.Bounds().Min
	for i := range faces {
		faces[i] = faces[i].Add(origin)
	}
	return faces, nil
}

// Close releases the native classifier.
func (d *Detector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true
	return d.classifier.Close()
}
