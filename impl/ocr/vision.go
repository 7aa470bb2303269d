package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"math"
	"sort"
	"strings"
	"unicode"

	"cloud.google.com/go/vision/v2/apiv1/visionpb"
	"github.com/disintegration/imaging"
	gax "github.com/googleapis/gax-go/v2"

	"github.com/visionex-project/imagetranslator/impl/layout"
	"github.com/visionex-project/imagetranslator/pkg/utils"
)

// VisionClient is an interface for the vision.ImageAnnotatorClient
// Ref: https://pkg.go.dev/cloud.google.com/go/vision/apiv1
// This interface is used for mocking the vision.ImageAnnotatorClient in unit tests.
type VisionClient interface {
	DetectDocumentText(ctx context.Context, image *visionpb.Image, imageContext *visionpb.ImageContext, opts ...gax.CallOption) (*visionpb.TextAnnotation, error)
}

// Bands taller than this without any paragraph are split points for long images.
const maxParagraphGap = 200

// Vision recognizes text with Google Cloud Vision and reports one fragment per detected line.
type Vision struct {
	client VisionClient
}

func NewVision(client VisionClient) *Vision {
	return &Vision{client: client}
}

func (v *Vision) Name() string {
	return "vision"
}

func (v *Vision) Recognize(ctx context.Context, byteImage []byte) ([]layout.TextFragment, error) {
	img, _, err := image.Decode(bytes.NewReader(byteImage))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	annotation, err := v.ocrResult(ctx, byteImage, img)
	if err != nil {
		return nil, err
	}
	return toLineFragments(annotationWords(annotation)), nil
}

// Splits long images into segments and processes OCR individually
// to improve text detection accuracy, as performing OCR on very long images
// can sometimes miss text. Results are merged back into a single annotation.
func (v *Vision) ocrResult(ctx context.Context, byteImage []byte, img image.Image) (*visionpb.TextAnnotation, error) {
	textAnnotation, err := v.client.DetectDocumentText(ctx, &visionpb.Image{Content: byteImage}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to detect text: %w", err)
	}

	points := splitPoints(textAnnotation, img.Bounds().Dy())

	// [0, imageHeight] means the entire image is processed in one go.
	if len(points) == 2 {
		return textAnnotation, nil
	}

	type result struct {
		annotation *visionpb.TextAnnotation
		err        error
		index      int
	}

	resultChan := make(chan result, len(points)-1)
	for i := 0; i < len(points)-1; i++ {
		go func(i int, start int, end int) {
			var buf bytes.Buffer
			if err := png.Encode(&buf, band(img, start, end)); err != nil {
				resultChan <- result{nil, err, i}
				return
			}

			subTextAnnotations, err := v.client.DetectDocumentText(ctx, &visionpb.Image{Content: buf.Bytes()}, nil)
			if err != nil {
				resultChan <- result{nil, err, i}
				return
			}

			adjustVerticalPositions(subTextAnnotations, int32(start))
			resultChan <- result{subTextAnnotations, nil, i}
		}(i, points[i], points[i+1])
	}

	textAnnotations := make([]*visionpb.TextAnnotation, len(points)-1)
	var firstErr error
	for i := 0; i < len(points)-1; i++ {
		result := <-resultChan
		if result.err != nil && firstErr == nil {
			firstErr = result.err
		}
		textAnnotations[result.index] = result.annotation
	}
	if firstErr != nil {
		return nil, fmt.Errorf("failed to process segment: %w", firstErr)
	}

	return utils.Reduce(textAnnotations, func(merged *visionpb.TextAnnotation, textAnnotation *visionpb.TextAnnotation) *visionpb.TextAnnotation {
		merged.Pages = append(merged.Pages, textAnnotation.GetPages()...)
		return merged
	}, &visionpb.TextAnnotation{}), nil
}

func band(img image.Image, start int, end int) image.Image {
	bounds := img.Bounds()
	return imaging.Crop(img, image.Rect(bounds.Min.X, bounds.Min.Y+start, bounds.Max.X, bounds.Min.Y+end))
}

func splitPoints(textAnnotations *visionpb.TextAnnotation, imageHeight int) []int {
	currentHeight := 0
	points := utils.Reduce(annotationParagraphs(textAnnotations), func(points []int, paragraph *visionpb.Paragraph) []int {
		bottom := utils.Reduce(paragraph.GetBoundingBox().GetVertices(), func(currentHeight int, vertex *visionpb.Vertex) int {
			return max(currentHeight, int(vertex.GetY()))
		}, 0)
		if bottom-currentHeight > maxParagraphGap {
			points = append(points, currentHeight)
		}
		currentHeight = bottom
		return points
	}, []int{0})

	if points[len(points)-1] != imageHeight {
		points = append(points, imageHeight)
	}
	return points
}

func adjustVerticalPositions(textAnnotations *visionpb.TextAnnotation, offset int32) {
	shift := func(poly *visionpb.BoundingPoly) {
		for _, vertex := range poly.GetVertices() {
			vertex.Y += offset
		}
	}
	for _, page := range textAnnotations.GetPages() {
		for _, block := range page.GetBlocks() {
			shift(block.GetBoundingBox())
			for _, paragraph := range block.GetParagraphs() {
				shift(paragraph.GetBoundingBox())
				for _, word := range paragraph.GetWords() {
					shift(word.GetBoundingBox())
					for _, symbol := range word.GetSymbols() {
						shift(symbol.GetBoundingBox())
					}
				}
			}
		}
	}
}

func annotationParagraphs(annotation *visionpb.TextAnnotation) []*visionpb.Paragraph {
	blocks := utils.FlatMap(annotation.GetPages(), func(page *visionpb.Page) []*visionpb.Block {
		return page.GetBlocks()
	})
	return utils.FlatMap(blocks, func(block *visionpb.Block) []*visionpb.Paragraph {
		return block.GetParagraphs()
	})
}

func annotationWords(annotation *visionpb.TextAnnotation) []layout.TextFragment {
	words := utils.FlatMap(annotationParagraphs(annotation), func(paragraph *visionpb.Paragraph) []*visionpb.Word {
		return paragraph.GetWords()
	})
	return utils.Map(words, func(word *visionpb.Word) layout.TextFragment {
		return layout.TextFragment{
			Box: boxFromVertices(utils.Map(word.GetBoundingBox().GetVertices(), func(v *visionpb.Vertex) vertex {
				return vertex{x: int(v.GetX()), y: int(v.GetY())}
			})),
			Text: utils.Reduce(word.GetSymbols(), func(text string, symbol *visionpb.Symbol) string {
				return text + symbol.GetText()
			}, ""),
		}
	})
}

// Joins consecutive words that sit on the same line into one fragment per line, ordered top to bottom.
func toLineFragments(words []layout.TextFragment) []layout.TextFragment {
	lines := utils.Reduce(words, func(lines [][]layout.TextFragment, word layout.TextFragment) [][]layout.TextFragment {
		if len(lines) > 0 {
			lastLine := lines[len(lines)-1]
			if isSameLine(lastLine[len(lastLine)-1], word) {
				lines[len(lines)-1] = append(lastLine, word)
				return lines
			}
		}
		return append(lines, []layout.TextFragment{word})
	}, [][]layout.TextFragment{})

	fragments := utils.Map(lines, func(line []layout.TextFragment) layout.TextFragment {
		return layout.TextFragment{
			Box: layout.UnionAll(utils.Map(line, func(word layout.TextFragment) layout.BoundingBox {
				return word.Box
			})),
			Text: joinWords(line),
		}
	})
	sort.SliceStable(fragments, func(i int, j int) bool {
		return fragments[i].Box.Top < fragments[j].Box.Top
	})
	return fragments
}

// Words of scripts without spaces (CJK) are concatenated, everything else is space separated.
func joinWords(words []layout.TextFragment) string {
	var builder strings.Builder
	for i, word := range words {
		if i > 0 && !(isUnspaced(lastRune(words[i-1].Text)) && isUnspaced(firstRune(word.Text))) {
			builder.WriteString(" ")
		}
		builder.WriteString(word.Text)
	}
	return builder.String()
}

func isUnspaced(r rune) bool {
	return unicode.In(r, unicode.Han, unicode.Hiragana, unicode.Katakana, unicode.Hangul)
}

func firstRune(s string) rune {
	for _, r := range s {
		return r
	}
	return 0
}

func lastRune(s string) rune {
	runes := []rune(s)
	if len(runes) == 0 {
		return 0
	}
	return runes[len(runes)-1]
}

func isSameLine(previous layout.TextFragment, current layout.TextFragment) bool {
	if previous.Box.Left > current.Box.Left {
		return false
	}
	middleOfHeight := (current.Box.Top + current.Box.Bottom()) / 2
	return middleOfHeight > previous.Box.Top &&
		middleOfHeight < previous.Box.Bottom() &&
		previous.Box.Right() >= current.Box.Left-int(math.Max(float64(charWidth(previous)), float64(charWidth(current)))*1.5)
}

func charWidth(word layout.TextFragment) int {
	return word.Box.Width / max(utils.Reduce([]rune(word.Text), func(charCount int, char rune) int {
		if unicode.IsLetter(char) {
			return charCount + 1
		}
		return charCount
	}, 0), 1)
}
