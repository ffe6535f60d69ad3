package common

import (
	"fmt"
	"image"
)

// BoundingBox is a labelled detection in image pixel coordinates.
type BoundingBox struct {
	Label      string  `json:"label"`
	ClassID    int     `json:"class_id"`
	Confidence float32 `json:"confidence"`
	X1         float32 `json:"x1"`
	Y1         float32 `json:"y1"`
	X2         float32 `json:"x2"`
	Y2         float32 `json:"y2"`
}

// String formats the bounding box information for display.
//
// Returns:
//   - A formatted string containing the label, confidence and coordinates.
func (b *BoundingBox) String() string {
	return fmt.Sprintf("%s (confidence %.3f): (%.1f, %.1f), (%.1f, %.1f)",
		b.Label, b.Confidence, b.X1, b.Y1, b.X2, b.Y2)
}

// Caption is the text drawn next to the box: "<label> <score>".
func (b *BoundingBox) Caption() string {
	return fmt.Sprintf("%s %.2f", b.Label, b.Confidence)
}

// ToRect converts the bounding box to an image.Rectangle.
//
// Floating-point coordinates are truncated, then the rectangle is canonicalized.
//
// Returns:
//   - An image.Rectangle with canonicalized coordinates.
func (b *BoundingBox) ToRect() image.Rectangle {
	return image.Rect(int(b.X1), int(b.Y1), int(b.X2), int(b.Y2)).Canon()
}

// ClampTo returns the rectangle of the box clipped to bounds.
func (b *BoundingBox) ClampTo(bounds image.Rectangle) image.Rectangle {
	return b.ToRect().Intersect(bounds)
}
