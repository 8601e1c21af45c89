package processor

import (
	"bytes"
	"image"
	"image/jpeg"
	"image/png"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	"golang.org/x/image/webp"
)

// DecodeConfig reads only the header of data to learn its dimensions.
func (p *ImageProcessor) DecodeConfig(data []byte, format Format) (image.Config, error) {
	r := bytes.NewReader(data)

	switch format {
	case FormatJPEG:
		return jpeg.DecodeConfig(r)
	case FormatPNG:
		return png.DecodeConfig(r)
	case FormatWebP:
		return webp.DecodeConfig(r)
	case FormatBMP:
		return bmp.DecodeConfig(r)
	case FormatTIFF:
		return tiff.DecodeConfig(r)
	default:
		return image.Config{}, unsupported(format)
	}
}

func (p *ImageProcessor) Decode(data []byte, format Format) (image.Image, error) {
	r := bytes.NewReader(data)

	switch format {
	case FormatJPEG:
		return jpeg.Decode(r)
	case FormatPNG:
		return png.Decode(r)
	case FormatWebP:
		return webp.Decode(r)
	case FormatBMP:
		return bmp.Decode(r)
	case FormatTIFF:
		return tiff.Decode(r)
	default:
		return nil, unsupported(format)
	}
}
