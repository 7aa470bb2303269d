//go:build ocr

package ocr

import (
	"context"
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"github.com/visionex-project/imagetranslator/impl/layout"
	"github.com/visionex-project/imagetranslator/pkg/utils"
)

// Tesseract recognizes text locally. It needs the tesseract and leptonica libraries and the "ocr" build tag.
type Tesseract struct {
	languages []string
}

func NewTesseract(languages ...string) (*Tesseract, error) {
	if len(languages) == 0 {
		languages = []string{"eng"}
	}
	return &Tesseract{languages: languages}, nil
}

func (t *Tesseract) Name() string {
	return "tesseract"
}

// Recognize creates a client per call since gosseract clients are not safe for concurrent use.
func (t *Tesseract) Recognize(ctx context.Context, image []byte) ([]layout.TextFragment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(t.languages...); err != nil {
		return nil, fmt.Errorf("failed to set tesseract languages %s: %w", strings.Join(t.languages, "+"), err)
	}
	if err := client.SetImageFromBytes(image); err != nil {
		return nil, fmt.Errorf("failed to load image into tesseract: %w", err)
	}
	boxes, err := client.GetBoundingBoxes(gosseract.RIL_TEXTLINE)
	if err != nil {
		return nil, &BackendError{Backend: t.Name(), Code: "recognize", Message: err.Error()}
	}

	return utils.Map(boxes, func(box gosseract.BoundingBox) layout.TextFragment {
		return layout.TextFragment{
			Box: layout.BoundingBox{
				Top:    box.Box.Min.Y,
				Left:   box.Box.Min.X,
				Width:  box.Box.Dx(),
				Height: box.Box.Dy(),
			},
			Text: strings.TrimSpace(box.Word),
		}
	}), nil
}
