package translation

import (
	"context"
	"log"
	"strings"

	"golang.org/x/text/language"

	"github.com/visionex-project/imagetranslator/pkg/utils"
)

type unitOptions struct {
	batchSize int
}

type UnitOption func(*unitOptions)

// WithBatchSize bounds how many units share one request. Zero or less sends all units together.
func WithBatchSize(size int) UnitOption {
	return func(o *unitOptions) { o.batchSize = size }
}

// TranslateUnits translates one text per layout unit and returns the translations in the same order.
//
// Every unit is flattened to a single line and the units of a batch are sent as one newline separated
// request. When the reply does not have one line per unit the batch is translated again one unit at a time.
func TranslateUnits(ctx context.Context, translator Translator, texts []string, target language.Tag, opts ...UnitOption) ([]string, error) {
	o := unitOptions{}
	for _, opt := range opts {
		opt(&o)
	}

	translations := make([]string, 0, len(texts))
	for _, batch := range utils.Chunk(utils.Map(texts, Flatten), o.batchSize) {
		if len(batch) == 0 {
			continue
		}
		translated, err := translator.Translate(ctx, strings.Join(batch, "\n"), target)
		if err != nil {
			return nil, err
		}

		lines := SplitLines(translated)
		if len(lines) == len(batch) {
			translations = append(translations, lines...)
			continue
		}

		log.Printf("Translation returned %d lines for %d units, translating them one by one", len(lines), len(batch))
		for _, text := range batch {
			if text == "" {
				translations = append(translations, "")
				continue
			}
			translated, err := translator.Translate(ctx, text, target)
			if err != nil {
				return nil, err
			}
			translations = append(translations, Flatten(translated))
		}
	}
	return translations, nil
}

// Flatten joins the lines of text with single spaces.
func Flatten(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// SplitLines returns the non-blank lines of text, trimmed.
func SplitLines(text string) []string {
	lines := utils.Map(strings.Split(text, "\n"), strings.TrimSpace)
	return utils.Filter(lines, func(line string) bool {
		return line != ""
	})
}
