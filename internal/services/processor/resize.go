package processor

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	"golang.org/x/image/draw"
)

// Upscale doubles both sides of img using Lanczos resampling. The result
// keeps the pixel layout of img.
func (p *ImageProcessor) Upscale(img image.Image) image.Image {
	bounds := img.Bounds()
	resized := imaging.Resize(img, bounds.Dx()*ScaleFactor, bounds.Dy()*ScaleFactor, imaging.Lanczos)
	return toSourceModel(img, resized)
}

// toSourceModel converts the NRGBA raster produced by the resampler back to
// the layout of src. Unknown layouts stay NRGBA.
func toSourceModel(src image.Image, resized *image.NRGBA) image.Image {
	rect := resized.Bounds()

	var dst draw.Image
	switch s := src.(type) {
	case *image.NRGBA:
		return resized
	case *image.RGBA:
		dst = image.NewRGBA(rect)
	case *image.NRGBA64:
		dst = image.NewNRGBA64(rect)
	case *image.RGBA64:
		dst = image.NewRGBA64(rect)
	case *image.Gray:
		dst = image.NewGray(rect)
	case *image.Gray16:
		dst = image.NewGray16(rect)
	case *image.CMYK:
		dst = image.NewCMYK(rect)
	case *image.Paletted:
		if len(s.Palette) == 0 {
			return resized
		}
		dst = image.NewPaletted(rect, s.Palette)
	case *image.YCbCr:
		return toYCbCr(resized, s.SubsampleRatio)
	case *image.NYCbCrA:
		return toNYCbCrA(resized, s.SubsampleRatio)
	default:
		return resized
	}

	draw.Draw(dst, rect, resized, rect.Min, draw.Src)
	return dst
}

// toYCbCr fills the chroma planes from the last pixel of each subsampling
// block. draw has no YCbCr destination.
func toYCbCr(src *image.NRGBA, ratio image.YCbCrSubsampleRatio) *image.YCbCr {
	b := src.Bounds()
	dst := image.NewYCbCr(b, ratio)

	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := src.NRGBAAt(x, y)
			yy, cb, cr := color.RGBToYCbCr(c.R, c.G, c.B)

			dst.Y[dst.YOffset(x, y)] = yy
			ci := dst.COffset(x, y)
			dst.Cb[ci] = cb
			dst.Cr[ci] = cr
		}
	}
	return dst
}

func toNYCbCrA(src *image.NRGBA, ratio image.YCbCrSubsampleRatio) *image.NYCbCrA {
	b := src.Bounds()
	dst := image.NewNYCbCrA(b, ratio)

	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := src.NRGBAAt(x, y)
			yy, cb, cr := color.RGBToYCbCr(c.R, c.G, c.B)

			dst.Y[dst.YOffset(x, y)] = yy
			ci := dst.COffset(x, y)
			dst.Cb[ci] = cb
			dst.Cr[ci] = cr
			dst.A[dst.AOffset(x, y)] = c.A
		}
	}
	return dst
}
