package analyzer

import (
	"fmt"
	"strings"
)

// Options configures face image quality assessment.
type Options struct {
	FastMode bool

	// Quality thresholds, on normalized [0,1] luminance and saturation.
	BlurThreshold           float64
	OverexposureThreshold   float64
	OversaturationThreshold float64

	SkipWhiteBalance bool

	// FastMaxSide bounds the longest side of the crop measured in fast mode.
	FastMaxSide int
	MaxWorkers  int
}

// DefaultOptions returns default analysis options
func DefaultOptions() Options {
	return Options{
		BlurThreshold:           60.0,
		OverexposureThreshold:   0.92,
		OversaturationThreshold: 0.85,
		FastMaxSide:             256,
		MaxWorkers:              0, // Use default CPU count
	}
}

// FastOptions measures a downscaled crop and skips white balance.
func FastOptions() Options {
	return DefaultOptions().WithFastMode()
}

// StrictOptions tightens thresholds for enrolment-quality photos.
func StrictOptions() Options {
	opts := DefaultOptions()
	opts.BlurThreshold = 150.0
	opts.OverexposureThreshold = 0.85
	opts.OversaturationThreshold = 0.75
	return opts
}

// WithCustomThresholds allows setting custom quality thresholds
func (opts Options) WithCustomThresholds(blur, overexposure, oversaturation float64) Options {
	opts.BlurThreshold = blur
	opts.OverexposureThreshold = overexposure
	opts.OversaturationThreshold = oversaturation
	return opts
}

// WithFastMode enables fast analysis mode
func (opts Options) WithFastMode() Options {
	opts.FastMode = true
	opts.SkipWhiteBalance = true
	if opts.FastMaxSide <= 0 {
		opts.FastMaxSide = 256
	}
	return opts
}

// ProfileOptions resolves a named quality profile: default, strict or fast.
func ProfileOptions(name string) (Options, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "default":
		return DefaultOptions(), nil
	case "strict":
		return StrictOptions(), nil
	case "fast":
		return FastOptions(), nil
	}
	return Options{}, fmt.Errorf("unknown quality profile %q", name)
}
