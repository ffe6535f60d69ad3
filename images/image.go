// Package images - Image definition and acquisition utilities.
package images

import (
	"image"
	"image/draw"

	"github.com/pkg/errors"
)

// ImageFormat represents supported image formats.
type ImageFormat string

// ImageFormat constants.
const (
	// FormatJPEG is the JPEG image format.
	FormatJPEG ImageFormat = "jpeg"
	// FormatWebP is the WebP image format.
	FormatWebP ImageFormat = "webp"
	// FormatPNG is the PNG image format.
	FormatPNG ImageFormat = "png"
	// FormatGIF is the GIF image format.
	FormatGIF ImageFormat = "gif"
)

// Channels is the number of interleaved channels in Image.Pix.
const Channels = 3

// Image is a dense RGB pixel array, 8 bits per channel, laid out height x width x channel.
type Image struct {
	// The format the image was decoded from, empty for synthesized images.
	Format ImageFormat `json:"format" yaml:"format"`
	// The width of the image.
	Width int `json:"width" yaml:"width"`
	// The height of the image.
	Height int `json:"height" yaml:"height"`
	// Pix holds Width*Height*Channels bytes, row-major RGB.
	Pix []uint8 `json:"-" yaml:"-"`
}

// NewImage allocates a zeroed image of the given size.
func NewImage(width, height int) Image {
	return Image{Width: width, Height: height, Pix: make([]uint8, width*height*Channels)}
}

// Validate checks the pixel buffer matches the declared dimensions.
func (i Image) Validate() error {
	if i.Width <= 0 || i.Height <= 0 {
		return errors.Errorf("invalid dimensions: width=%d, height=%d", i.Width, i.Height)
	}
	if len(i.Pix) != i.Width*i.Height*Channels {
		return errors.Errorf("pixel buffer has %d bytes, want %d", len(i.Pix), i.Width*i.Height*Channels)
	}
	return nil
}

// At returns the RGB triple at (x, y).
func (i Image) At(x, y int) (r, g, b uint8) {
	o := (y*i.Width + x) * Channels
	return i.Pix[o], i.Pix[o+1], i.Pix[o+2]
}

// FromStd converts any image.Image into a dense RGB Image, dropping alpha.
//
// Arguments:
//   - src: The source image.
//   - format: The format src was decoded from.
//
// Returns:
//   - Image: The converted image.
func FromStd(src image.Image, format ImageFormat) Image {
	b := src.Bounds()
	rgba, ok := src.(*image.RGBA)
	if !ok || b.Min != (image.Point{}) {
		rgba = image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(rgba, rgba.Bounds(), src, b.Min, draw.Src)
	}

	out := NewImage(b.Dx(), b.Dy())
	out.Format = format
	for y := 0; y < out.Height; y++ {
		row := rgba.Pix[y*rgba.Stride:]
		for x := 0; x < out.Width; x++ {
			o := (y*out.Width + x) * Channels
			out.Pix[o] = row[x*4]
			out.Pix[o+1] = row[x*4+1]
			out.Pix[o+2] = row[x*4+2]
		}
	}
	return out
}

// ToStd converts the image into an opaque *image.RGBA.
func (i Image) ToStd() *image.RGBA {
	rgba := image.NewRGBA(image.Rect(0, 0, i.Width, i.Height))
	for p, o := 0, 0; p < i.Width*i.Height; p, o = p+1, o+Channels {
		rgba.Pix[p*4] = i.Pix[o]
		rgba.Pix[p*4+1] = i.Pix[o+1]
		rgba.Pix[p*4+2] = i.Pix[o+2]
		rgba.Pix[p*4+3] = 0xff
	}
	return rgba
}
