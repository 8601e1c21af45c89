package processor

import (
	"errors"
	"fmt"
)

// ScaleFactor is the fixed upscale ratio applied to both sides.
const ScaleFactor = 2

var ErrUnsupportedFormat = errors.New("unsupported image format")

type Options struct {
	JPEGQuality int
	WebPQuality int
}

// DefaultOptions are the encoder qualities used when none are configured.
var DefaultOptions = Options{
	JPEGQuality: 75,
	WebPQuality: 80,
}

type ImageProcessor struct {
	options Options
}

func NewImageProcessor(opts ...Options) *ImageProcessor {
	options := DefaultOptions
	if len(opts) > 0 {
		options = opts[0]
	}

	options.JPEGQuality = clampQuality(options.JPEGQuality, DefaultOptions.JPEGQuality)
	options.WebPQuality = clampQuality(options.WebPQuality, DefaultOptions.WebPQuality)

	return &ImageProcessor{options: options}
}

func clampQuality(quality, fallback int) int {
	if quality <= 0 {
		return fallback
	}
	return min(100, quality)
}

func unsupported(format Format) error {
	return fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
}
