package impl

import (
	"golang.org/x/text/language"

	"github.com/visionex-project/imagetranslator/impl/layout"
)

type TranslateImageRequest struct {
	// Encoded image (PNG, JPEG, GIF, BMP or TIFF).
	Image          []byte
	TargetLanguage language.Tag
	// Group lines into paragraphs before translating.
	Cluster bool
}

type TranslateImageResponse struct {
	// The translated image as a PNG data URI.
	UriImage  string     `json:"uri_image"`
	Sentences []Sentence `json:"sentences"`
}

type TranslateTextRequest struct {
	Image          []byte
	TargetLanguage language.Tag
	Cluster        bool
}

type TranslateTextResponse struct {
	// Recognized text, one unit per line.
	OriginalText string `json:"original_text"`
	// Translations, one unit per line.
	TranslatedText string     `json:"translated_text"`
	Sentences      []Sentence `json:"sentences"`
}

// A translated layout unit.
type Sentence struct {
	Original   string             `json:"original"`
	Translated string             `json:"translated"`
	Box        layout.BoundingBox `json:"box"`
}
