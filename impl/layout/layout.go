// Package layout holds the geometry of recognized text and groups fragments into paragraphs.
package layout

import (
	"image"
	"strings"

	"github.com/visionex-project/imagetranslator/pkg/utils"
)

// Represents an axis-aligned box in source image pixels.
// E.g., {Top: 10, Left: 20, Width: 100, Height: 30} covers x in [20, 120) and y in [10, 40).
type BoundingBox struct {
	Top    int `json:"top"`
	Left   int `json:"left"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

func (b BoundingBox) Bottom() int { return b.Top + b.Height }

func (b BoundingBox) Right() int { return b.Left + b.Width }

// Valid reports whether the box has a positive area.
func (b BoundingBox) Valid() bool { return b.Width > 0 && b.Height > 0 }

// Rect converts the box to an image rectangle.
func (b BoundingBox) Rect() image.Rectangle {
	return image.Rect(b.Left, b.Top, b.Right(), b.Bottom())
}

// Union returns the smallest box covering both boxes.
func (b BoundingBox) Union(other BoundingBox) BoundingBox {
	top := min(b.Top, other.Top)
	left := min(b.Left, other.Left)
	return BoundingBox{
		Top:    top,
		Left:   left,
		Width:  max(b.Right(), other.Right()) - left,
		Height: max(b.Bottom(), other.Bottom()) - top,
	}
}

// UnionAll returns the smallest box covering every box. An empty list yields the zero box.
func UnionAll(boxes []BoundingBox) BoundingBox {
	if len(boxes) == 0 {
		return BoundingBox{}
	}
	return utils.Reduce(boxes[1:], BoundingBox.Union, boxes[0])
}

// One recognized text span. E.g., {Box: {0, 0, 50, 20}, Text: "Hello"}
type TextFragment struct {
	Box  BoundingBox `json:"location"`
	Text string      `json:"words"`
}

// Fragments believed to form one reading unit, in the order they were appended.
type Paragraph struct {
	Fragments []TextFragment
}

// CombinedText joins the member texts, each followed by a line break.
// E.g., ["Hello", "World"] -> "Hello\nWorld\n"
func (p Paragraph) CombinedText() string {
	var builder strings.Builder
	for _, fragment := range p.Fragments {
		builder.WriteString(fragment.Text)
		builder.WriteString("\n")
	}
	return builder.String()
}

// BoundingBox covers every member fragment.
func (p Paragraph) BoundingBox() BoundingBox {
	return UnionAll(utils.Map(p.Fragments, func(fragment TextFragment) BoundingBox {
		return fragment.Box
	}))
}

// Unit is anything the compositor can replace: a single fragment or a whole paragraph.
type Unit interface {
	// The region erased and written over.
	Bounds() BoundingBox
	// The fragments making up the unit, first one drives the font size.
	Members() []TextFragment
	// The original text sent for translation.
	SourceText() string
}

func (f TextFragment) Bounds() BoundingBox { return f.Box }

func (f TextFragment) Members() []TextFragment { return []TextFragment{f} }

func (f TextFragment) SourceText() string { return f.Text }

func (p Paragraph) Bounds() BoundingBox { return p.BoundingBox() }

func (p Paragraph) Members() []TextFragment { return p.Fragments }

func (p Paragraph) SourceText() string { return p.CombinedText() }

func FragmentUnits(fragments []TextFragment) []Unit {
	return utils.Map(fragments, func(fragment TextFragment) Unit { return fragment })
}

func ParagraphUnits(paragraphs []Paragraph) []Unit {
	return utils.Map(paragraphs, func(paragraph Paragraph) Unit { return paragraph })
}

// Texts returns the source text of each unit, index aligned.
func Texts(units []Unit) []string {
	return utils.Map(units, Unit.SourceText)
}
