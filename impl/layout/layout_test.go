package layout

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBoundingBox_Union(t *testing.T) {
	left := BoundingBox{Top: 0, Left: 0, Width: 10, Height: 10}
	right := BoundingBox{Top: 0, Left: 20, Width: 10, Height: 10}

	union := left.Union(right)

	assert.Equal(t, BoundingBox{Top: 0, Left: 0, Width: 30, Height: 10}, union)
	assert.Equal(t, image.Rect(0, 0, 30, 10), union.Rect())
	assert.Equal(t, 30, union.Right())
	assert.Equal(t, 10, union.Bottom())
}

func TestUnionAll(t *testing.T) {
	assert.Equal(t, BoundingBox{}, UnionAll(nil))
	assert.Equal(t,
		BoundingBox{Top: 5, Left: 2, Width: 48, Height: 45},
		UnionAll([]BoundingBox{
			{Top: 10, Left: 2, Width: 8, Height: 8},
			{Top: 5, Left: 30, Width: 20, Height: 10},
			{Top: 40, Left: 10, Width: 5, Height: 10},
		}),
	)
}

func TestBoundingBox_Valid(t *testing.T) {
	assert.True(t, BoundingBox{Width: 1, Height: 1}.Valid())
	assert.False(t, BoundingBox{Width: 0, Height: 1}.Valid())
	assert.False(t, BoundingBox{Width: 3, Height: -1}.Valid())
}

func TestParagraph_Derived(t *testing.T) {
	paragraph := Paragraph{Fragments: []TextFragment{
		{Box: BoundingBox{Top: 0, Left: 0, Width: 10, Height: 10}, Text: "Hello"},
		{Box: BoundingBox{Top: 0, Left: 20, Width: 10, Height: 10}, Text: "World"},
	}}

	assert.Equal(t, "Hello\nWorld\n", paragraph.CombinedText())
	assert.Equal(t, BoundingBox{Top: 0, Left: 0, Width: 30, Height: 10}, paragraph.BoundingBox())
}

func TestUnits(t *testing.T) {
	hello := TextFragment{Box: BoundingBox{Top: 1, Left: 2, Width: 3, Height: 4}, Text: "Hello"}
	paragraph := Paragraph{Fragments: []TextFragment{hello, {Box: BoundingBox{Top: 5, Left: 2, Width: 3, Height: 4}, Text: "World"}}}

	fragmentUnits := FragmentUnits([]TextFragment{hello})
	paragraphUnits := ParagraphUnits([]Paragraph{paragraph})

	assert.Equal(t, hello.Box, fragmentUnits[0].Bounds())
	assert.Equal(t, []TextFragment{hello}, fragmentUnits[0].Members())
	assert.Equal(t, []string{"Hello"}, Texts(fragmentUnits))

	assert.Equal(t, BoundingBox{Top: 1, Left: 2, Width: 3, Height: 8}, paragraphUnits[0].Bounds())
	assert.Equal(t, hello, paragraphUnits[0].Members()[0])
	assert.Equal(t, []string{"Hello\nWorld\n"}, Texts(paragraphUnits))
}
