package impl

import (
	"bytes"
	"context"
	"image"
	"log"
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/visionex-project/imagetranslator/impl/layout"
	"github.com/visionex-project/imagetranslator/pkg/utils"
)

// TranslateText recognizes and translates the text of an image without drawing anything.
func (s *server) TranslateText(ctx context.Context, request *TranslateTextRequest) (*TranslateTextResponse, error) {
	if _, _, err := image.DecodeConfig(bytes.NewReader(request.Image)); err != nil {
		log.Printf("Failed to decode image: %v", err)
		return nil, status.Error(codes.InvalidArgument, codes.InvalidArgument.String())
	}

	units, translations, err := s.recognizeAndTranslate(ctx, request.Image, request.TargetLanguage, request.Cluster)
	if err != nil {
		return nil, toStatus(err)
	}
	return toTextResponse(units, translations), nil
}

func toTextResponse(units []layout.Unit, translations []string) *TranslateTextResponse {
	sentences := toSentences(units, translations)
	return &TranslateTextResponse{
		OriginalText: strings.Join(utils.Map(sentences, func(sentence Sentence) string {
			return sentence.Original
		}), "\n"),
		TranslatedText: strings.Join(utils.Map(sentences, func(sentence Sentence) string {
			return sentence.Translated
		}), "\n"),
		Sentences: sentences,
	}
}
