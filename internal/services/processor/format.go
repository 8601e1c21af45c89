package processor

import "github.com/gabriel-vasile/mimetype"

// Format is an image encoding the upscaler accepts. It is always derived
// from the byte content, never from client metadata.
type Format int

const (
	FormatUnknown Format = iota
	FormatJPEG
	FormatPNG
	FormatWebP
	FormatBMP
	FormatTIFF
)

func (f Format) String() string {
	switch f {
	case FormatJPEG:
		return "jpeg"
	case FormatPNG:
		return "png"
	case FormatWebP:
		return "webp"
	case FormatBMP:
		return "bmp"
	case FormatTIFF:
		return "tiff"
	default:
		return "unknown"
	}
}

// MIME returns the canonical media type of the format.
func (f Format) MIME() string {
	switch f {
	case FormatJPEG:
		return "image/jpeg"
	case FormatPNG:
		return "image/png"
	case FormatWebP:
		return "image/webp"
	case FormatBMP:
		return "image/bmp"
	case FormatTIFF:
		return "image/tiff"
	default:
		return "application/octet-stream"
	}
}

func (f Format) Supported() bool {
	return f != FormatUnknown
}

// DetectFormat inspects the magic header of data.
func DetectFormat(data []byte) Format {
	mtype := mimetype.Detect(data)

	switch {
	case mtype.Is("image/jpeg"):
		return FormatJPEG
	case mtype.Is("image/png"):
		return FormatPNG
	case mtype.Is("image/webp"):
		return FormatWebP
	case mtype.Is("image/bmp"):
		return FormatBMP
	case mtype.Is("image/tiff"):
		return FormatTIFF
	default:
		return FormatUnknown
	}
}
