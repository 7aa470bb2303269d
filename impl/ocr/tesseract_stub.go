//go:build !ocr

package ocr

import (
	"context"

	"github.com/visionex-project/imagetranslator/impl/layout"
)

type Tesseract struct{}

func NewTesseract(languages ...string) (*Tesseract, error) {
	return nil, ErrTesseractNotEnabled
}

func (t *Tesseract) Name() string {
	return "tesseract"
}

func (t *Tesseract) Recognize(ctx context.Context, image []byte) ([]layout.TextFragment, error) {
	return nil, ErrTesseractNotEnabled
}
