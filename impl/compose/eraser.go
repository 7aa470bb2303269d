package compose

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/fogleman/gg"
)

// Eraser removes the original text inside rect before the translation is drawn over it.
// Implementations paint on the context's backing image and return the context for the next step.
type Eraser interface {
	Erase(dc *gg.Context, rect image.Rectangle) *gg.Context
}

// SolidEraser covers the rectangle with a uniform color. Pixels outside the rectangle are untouched.
type SolidEraser struct {
	Color color.Color
}

func (e SolidEraser) Erase(dc *gg.Context, rect image.Rectangle) *gg.Context {
	dst, ok := dc.Image().(draw.Image)
	if !ok {
		return dc
	}
	rect = rect.Intersect(dst.Bounds())
	if rect.Empty() {
		return dc
	}
	draw.Draw(dst, rect, image.NewUniform(e.Color), image.Point{}, draw.Src)
	return dc
}
