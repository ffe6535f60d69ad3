package visualize

import (
	"image"
	"image/color"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"

	"github.com/nvr-ai/detect-demo/images"
	"github.com/nvr-ai/detect-demo/models"
	"github.com/nvr-ai/detect-demo/models/postprocess"
)

const (
	boxThickness  = 2
	fontFace      = gocv.FontHersheySimplex
	fontScale     = 0.5
	fontThickness = 1
	captionPad    = 3
)

var captionColor = color.RGBA{R: 255, G: 255, B: 255, A: 255}

// Overlay returns a copy of display with every instance mask blended in its class color.
//
// display is not modified. With boxesOnly the copy is returned untouched.
func Overlay(display images.Image, pred postprocess.Prediction, boxesOnly bool) images.Image {
	out := display
	out.Pix = append([]uint8(nil), display.Pix...)
	if boxesOnly || !pred.HasMasks {
		return out
	}
	for _, inst := range pred.Instances {
		BlendMask(out, inst.Mask, ColorFor(inst.Class), MaskAlpha)
	}
	return out
}

// Render draws pred over display and encodes the result as PNG.
//
// Arguments:
//   - display: The display image the prediction refers to.
//   - pred: The filtered prediction.
//   - classMap: Labels the instances.
//   - boxesOnly: Skip mask overlays.
//
// Returns:
//   - []byte: The PNG encoded raster.
//   - error: An error if the image is invalid or encoding fails.
func Render(display images.Image, pred postprocess.Prediction, classMap *models.ClassMap, boxesOnly bool) ([]byte, error) {
	if err := display.Validate(); err != nil {
		return nil, errors.Wrap(err, "render")
	}
	if classMap == nil {
		return nil, errors.New("render: no class map")
	}

	mat, err := gocv.ImageToMatRGB(Overlay(display, pred, boxesOnly).ToStd())
	if err != nil {
		return nil, errors.Wrap(err, "convert display image")
	}
	defer mat.Close()

	bounds := image.Rect(0, 0, display.Width, display.Height)
	for _, box := range classMap.Annotate(pred) {
		r := box.ClampTo(bounds)
		if r.Empty() {
			continue
		}
		c := ColorFor(box.ClassID)
		gocv.Rectangle(&mat, r, c, boxThickness)
		drawCaption(&mat, box.Caption(), r.Min, c)
	}

	buf, err := gocv.IMEncode(gocv.PNGFileExt, mat)
	if err != nil {
		return nil, errors.Wrap(err, "encode png")
	}
	defer buf.Close()

	// The native buffer is released on Close.
	return append([]byte(nil), buf.GetBytes()...), nil
}

// drawCaption writes text on a filled band above origin, or inside the box at the top edge.
func drawCaption(mat *gocv.Mat, text string, origin image.Point, c color.RGBA) {
	size := gocv.GetTextSize(text, fontFace, fontScale, fontThickness)
	top := origin.Y - size.Y - 2*captionPad
	if top < 0 {
		top = origin.Y
	}
	band := image.Rect(origin.X, top, origin.X+size.X+2*captionPad, top+size.Y+2*captionPad)
	gocv.Rectangle(mat, band, c, -1)
	gocv.PutText(mat, text, image.Pt(band.Min.X+captionPad, band.Max.Y-captionPad), fontFace, fontScale, captionColor, fontThickness)
}
