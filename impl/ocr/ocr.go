// Package ocr turns image bytes into recognized text fragments with pixel bounding boxes.
package ocr

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/visionex-project/imagetranslator/impl/layout"
	"github.com/visionex-project/imagetranslator/pkg/utils"
)

var ErrTesseractNotEnabled = errors.New("tesseract support is not compiled in, rebuild with -tags ocr")

// Recognizer is implemented by every text-recognition backend.
type Recognizer interface {
	Recognize(ctx context.Context, image []byte) ([]layout.TextFragment, error)
	Name() string
}

// BackendError carries the error code and message reported by a recognition backend.
type BackendError struct {
	Backend string
	Code    string
	Message string
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("%s recognition failed [%s]: %s", e.Backend, e.Code, e.Message)
}

// Normalize drops fragments without text and fragments with a degenerate box.
func Normalize(fragments []layout.TextFragment) []layout.TextFragment {
	return utils.Filter(fragments, func(fragment layout.TextFragment) bool {
		return strings.TrimSpace(fragment.Text) != "" && fragment.Box.Valid()
	})
}

// Used by backends that report polygons.
type vertex struct {
	x int
	y int
}

func boxFromVertices(vertices []vertex) layout.BoundingBox {
	if len(vertices) == 0 {
		return layout.BoundingBox{}
	}
	bounds := utils.Reduce(vertices, func(bounds [4]int, v vertex) [4]int {
		return [4]int{min(bounds[0], v.y), min(bounds[1], v.x), max(bounds[2], v.y), max(bounds[3], v.x)}
	}, [4]int{math.MaxInt32, math.MaxInt32, math.MinInt32, math.MinInt32})
	return layout.BoundingBox{
		Top:    bounds[0],
		Left:   bounds[1],
		Width:  bounds[3] - bounds[1],
		Height: bounds[2] - bounds[0],
	}
}
