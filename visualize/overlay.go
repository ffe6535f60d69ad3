// Package visualize - Draw predictions over the display image.
package visualize

import (
	"image/color"

	"github.com/chewxy/math32"

	"github.com/nvr-ai/detect-demo/images"
	"github.com/nvr-ai/detect-demo/models/postprocess"
)

// MaskAlpha is the opacity of an instance mask overlay.
const MaskAlpha float32 = 0.45

// palette holds the per-class colors, indexed by class id modulo its length.
var palette = []color.RGBA{
	{R: 230, G: 25, B: 75, A: 255},
	{R: 60, G: 180, B: 75, A: 255},
	{R: 255, G: 225, B: 25, A: 255},
	{R: 0, G: 130, B: 200, A: 255},
	{R: 245, G: 130, B: 48, A: 255},
	{R: 145, G: 30, B: 180, A: 255},
	{R: 70, G: 240, B: 240, A: 255},
	{R: 240, G: 50, B: 230, A: 255},
	{R: 210, G: 245, B: 60, A: 255},
	{R: 250, G: 190, B: 212, A: 255},
	{R: 0, G: 128, B: 128, A: 255},
	{R: 170, G: 110, B: 40, A: 255},
}

// ColorFor returns the color of a class id. The same id always gets the same color.
func ColorFor(class int) color.RGBA {
	if class < 0 {
		class = -class
	}
	return palette[class%len(palette)]
}

// BlendMask tints every foreground pixel of mask in img with c at opacity alpha.
//
// img is modified in place. Masks whose dimensions differ from img are ignored.
//
// Arguments:
//   - img: The image to draw on.
//   - mask: The binary instance mask.
//   - c: The overlay color.
//   - alpha: The overlay opacity in [0, 1].
//
// Returns:
//   - The number of pixels tinted.
func BlendMask(img images.Image, mask *postprocess.BinaryMask, c color.RGBA, alpha float32) int {
	if mask == nil || mask.Width != img.Width || mask.Height != img.Height {
		return 0
	}
	alpha = math32.Max(0, math32.Min(1, alpha))
	tint := [images.Channels]float32{float32(c.R), float32(c.G), float32(c.B)}

	n := 0
	for i, on := range mask.Bits {
		if !on {
			continue
		}
		px := img.Pix[i*images.Channels : i*images.Channels+images.Channels]
		for ch := range px {
			v := (1-alpha)*float32(px[ch]) + alpha*tint[ch]
			px[ch] = uint8(math32.Round(math32.Min(255, v)))
		}
		n++
	}
	return n
}
