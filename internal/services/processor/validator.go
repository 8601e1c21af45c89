package processor

import (
	"errors"
	"fmt"
)

var ErrRasterTooLarge = errors.New("image raster exceeds limit")

// ValidateBounds checks the source dimensions before decoding. A small,
// highly compressed file can still expand into a huge raster, and the
// upscaled output is four times the source.
func ValidateBounds(width, height, maxDimension int, maxPixels int64) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("invalid image bounds %dx%d", width, height)
	}

	if width > maxDimension || height > maxDimension {
		return fmt.Errorf("%w: %dx%d exceeds %d per side", ErrRasterTooLarge, width, height, maxDimension)
	}

	outputPixels := int64(width*ScaleFactor) * int64(height*ScaleFactor)
	if outputPixels > maxPixels {
		return fmt.Errorf("%w: output of %d pixels exceeds %d", ErrRasterTooLarge, outputPixels, maxPixels)
	}

	return nil
}
