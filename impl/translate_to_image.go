package impl

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"log"
	"os"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	"golang.org/x/text/language"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/visionex-project/imagetranslator/impl/layout"
	"github.com/visionex-project/imagetranslator/impl/ocr"
	"github.com/visionex-project/imagetranslator/impl/storage"
	"github.com/visionex-project/imagetranslator/impl/translation"
)

var ErrComposeFailed = errors.New("failed to write the translated image")

func (s *server) TranslateImage(ctx context.Context, request *TranslateImageRequest) (*TranslateImageResponse, error) {
	img, format, err := image.Decode(bytes.NewReader(request.Image))
	if err != nil {
		log.Printf("Failed to decode image: %v", err)
		return nil, status.Error(codes.InvalidArgument, codes.InvalidArgument.String())
	}

	id := uuid.NewString()
	currentTimestamp := time.Now()
	s.archive(ctx, storage.ObjectName(currentTimestamp, id, storage.StageBefore, format), request.Image, "image/"+format)

	units, translations, err := s.recognizeAndTranslate(ctx, request.Image, request.TargetLanguage, request.Cluster)
	if err != nil {
		return nil, toStatus(err)
	}

	renderStart := time.Now()
	translatedImage, err := s.compositor.Render(img, units, translations)
	if err != nil {
		log.Printf("Failed to draw texts: %v", err)
		return nil, status.Error(codes.Internal, codes.Internal.String())
	}
	buffer := new(bytes.Buffer)
	if err := png.Encode(buffer, translatedImage); err != nil {
		log.Printf("Failed to encode image: %v", err)
		return nil, status.Error(codes.Internal, codes.Internal.String())
	}
	s.metrics.observe("render", renderStart)

	s.archive(ctx, storage.ObjectName(currentTimestamp, id, storage.StageAfter, "png"), buffer.Bytes(), "image/png")
	return &TranslateImageResponse{
		UriImage:  "data:image/png;base64," + base64.StdEncoding.EncodeToString(buffer.Bytes()),
		Sentences: toSentences(units, translations),
	}, nil
}

// TranslateFile translates the image at inputPath and writes the result to outputPath, in the format of its extension.
// Errors keep the collaborator's description since they are shown to a person at a terminal.
func (s *server) TranslateFile(ctx context.Context, inputPath string, outputPath string, target language.Tag, cluster bool) (*TranslateTextResponse, error) {
	byteImage, err := os.ReadFile(inputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}

	units, translations, err := s.recognizeAndTranslate(ctx, byteImage, target, cluster)
	if err != nil {
		return nil, err
	}

	if !s.compositor.Compose(inputPath, outputPath, units, translations) {
		return nil, ErrComposeFailed
	}
	return toTextResponse(units, translations), nil
}

func (s *server) recognizeAndTranslate(ctx context.Context, byteImage []byte, target language.Tag, cluster bool) ([]layout.Unit, []string, error) {
	if target == language.Und {
		target = s.options.DefaultTarget
	}

	fragments, err := s.recognize(ctx, byteImage)
	if err != nil {
		return nil, nil, err
	}
	units := s.toUnits(fragments, cluster)

	translations, err := s.translate(ctx, layout.Texts(units), target)
	if err != nil {
		return nil, nil, err
	}
	return units, translations, nil
}

func (s *server) recognize(ctx context.Context, byteImage []byte) ([]layout.TextFragment, error) {
	defer s.metrics.observe("recognize", time.Now())

	fragments, err := backoff.RetryWithData(func() ([]layout.TextFragment, error) {
		fragments, err := s.recognizer.Recognize(ctx, byteImage)
		if err != nil {
			log.Printf("Failed to recognize text with %s: %v", s.recognizer.Name(), err)
			return nil, retryable(err)
		}
		return fragments, nil
	}, s.backOff(ctx))
	if err != nil {
		return nil, fmt.Errorf("text recognition failed: %w", err)
	}
	return ocr.Normalize(fragments), nil
}

func (s *server) toUnits(fragments []layout.TextFragment, cluster bool) []layout.Unit {
	if !cluster {
		return layout.FragmentUnits(fragments)
	}
	return layout.ParagraphUnits(layout.Cluster(fragments, s.options.ClusterOptions...))
}

func (s *server) translate(ctx context.Context, texts []string, target language.Tag) ([]string, error) {
	if len(texts) == 0 {
		return []string{}, nil
	}
	defer s.metrics.observe("translate", time.Now())

	return backoff.RetryWithData(func() ([]string, error) {
		translations, err := translation.TranslateUnits(ctx, s.translator, texts, target, translation.WithBatchSize(s.options.BatchSize))
		if err != nil {
			log.Printf("Failed to translate %d units: %v", len(texts), err)
			return nil, retryable(err)
		}
		return translations, nil
	}, s.backOff(ctx))
}

// Archiving is best effort. Failures are logged.
func (s *server) archive(ctx context.Context, objectName string, data []byte, contentType string) {
	if s.storage.Client == nil {
		return
	}
	if err := s.storage.Client.SaveBytes(ctx, s.storage.ImageBucket, objectName, data, contentType); err != nil {
		log.Printf("Failed to archive %s: %v", objectName, err)
	}
}

// Collaborator failures become gRPC status errors carrying only the generic code text.
func toStatus(err error) error {
	log.Printf("Failed to translate image: %v", err)
	switch {
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, codes.Canceled.String())
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, translation.ErrTimeout):
		return status.Error(codes.DeadlineExceeded, codes.DeadlineExceeded.String())
	case isTransient(err):
		return status.Error(codes.Unavailable, codes.Unavailable.String())
	default:
		return status.Error(codes.Internal, codes.Internal.String())
	}
}

func toSentences(units []layout.Unit, translations []string) []Sentence {
	sentences := []Sentence{}
	for i := 0; i < min(len(units), len(translations)); i++ {
		sentences = append(sentences, Sentence{
			Original:   translation.Flatten(units[i].SourceText()),
			Translated: translations[i],
			Box:        units[i].Bounds(),
		})
	}
	return sentences
}
