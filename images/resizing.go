package images

import (
	"github.com/nfnt/resize"
)

// ResizeToFit downsizes img so its longest side is at most maxSide, keeping the aspect ratio.
//
// Arguments:
//   - img: The image to resize.
//   - maxSide: The maximum side length. Zero or negative disables resizing.
//
// Returns:
//   - Image: img itself when it already fits, otherwise a Lanczos3 resampled copy.
func ResizeToFit(img Image, maxSide int) Image {
	if maxSide <= 0 || (img.Width <= maxSide && img.Height <= maxSide) {
		return img
	}

	w, h := maxSide, maxSide
	if img.Width >= img.Height {
		h = max(1, img.Height*maxSide/img.Width)
	} else {
		w = max(1, img.Width*maxSide/img.Height)
	}

	return Resize(img, w, h)
}

// Resize resamples img to exactly width x height with Lanczos3, ignoring the aspect ratio.
func Resize(img Image, width, height int) Image {
	if img.Width == width && img.Height == height {
		return img
	}
	resized := resize.Resize(uint(width), uint(height), img.ToStd(), resize.Lanczos3)
	return FromStd(resized, img.Format)
}
