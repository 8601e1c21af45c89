package processor

import (
	"fmt"
	"image"
	"io"

	"github.com/disintegration/imaging"
	"github.com/kolesa-team/go-webp/encoder"
	gowebp "github.com/kolesa-team/go-webp/webp"
)

// Encode writes img in the given format. There is no fallback encoder:
// an unknown format is an error.
func (p *ImageProcessor) Encode(w io.Writer, img image.Image, format Format) error {
	switch format {
	case FormatJPEG:
		return imaging.Encode(w, img, imaging.JPEG, imaging.JPEGQuality(p.options.JPEGQuality))
	case FormatPNG:
		return imaging.Encode(w, img, imaging.PNG)
	case FormatWebP:
		return p.encodeWebP(w, img)
	case FormatBMP:
		return imaging.Encode(w, img, imaging.BMP)
	case FormatTIFF:
		return imaging.Encode(w, img, imaging.TIFF)
	default:
		return unsupported(format)
	}
}

func (p *ImageProcessor) encodeWebP(w io.Writer, img image.Image) error {
	options, err := encoder.NewLossyEncoderOptions(encoder.PresetDefault, float32(p.options.WebPQuality))
	if err != nil {
		return fmt.Errorf("failed to create webp encoder options: %w", err)
	}

	// libwebp only imports RGBA layouts; lossy WebP stores YUV either way.
	switch img.(type) {
	case *image.RGBA, *image.NRGBA:
	default:
		img = imaging.Clone(img)
	}
	return gowebp.Encode(w, img, options)
}
