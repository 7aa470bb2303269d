package impl

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/visionex-project/imagetranslator/impl/compose"
	"github.com/visionex-project/imagetranslator/impl/font"
	"github.com/visionex-project/imagetranslator/impl/layout"
	"github.com/visionex-project/imagetranslator/impl/ocr"
	"github.com/visionex-project/imagetranslator/impl/translation"
)

type fakeRecognizer struct {
	mu        sync.Mutex
	calls     int
	fragments []layout.TextFragment
	// Returned by the first len(errs) calls, in order.
	errs []error
}

func (f *fakeRecognizer) Name() string {
	return "fake"
}

func (f *fakeRecognizer) Recognize(ctx context.Context, image []byte) ([]layout.TextFragment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.calls <= len(f.errs) {
		return nil, f.errs[f.calls-1]
	}
	return f.fragments, nil
}

// Upper-cases every line and remembers the requested targets.
type fakeTranslator struct {
	mu      sync.Mutex
	targets []language.Tag
	err     error
}

func (f *fakeTranslator) Translate(ctx context.Context, text string, target language.Tag) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.targets = append(f.targets, target)
	if f.err != nil {
		return "", f.err
	}
	return strings.ToUpper(text), nil
}

type savedObject struct {
	bucket      string
	name        string
	contentType string
}

type fakeStorage struct {
	mu      sync.Mutex
	objects []savedObject
	err     error
}

func (f *fakeStorage) SaveBytes(ctx context.Context, bucketName string, objectName string, data []byte, contentType string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects = append(f.objects, savedObject{bucket: bucketName, name: objectName, contentType: contentType})
	return f.err
}

func testImage(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 160, 120))
	for y := 0; y < 120; y++ {
		for x := 0; x < 160; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 220, B: 240, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func testFragments() []layout.TextFragment {
	return []layout.TextFragment{
		{Box: layout.BoundingBox{Top: 10, Left: 10, Width: 60, Height: 20}, Text: "hello"},
		{Box: layout.BoundingBox{Top: 32, Left: 10, Width: 60, Height: 20}, Text: "world"},
		{Box: layout.BoundingBox{Top: 90, Left: 10, Width: 60, Height: 20}, Text: "bye"},
		{Box: layout.BoundingBox{Top: 90, Left: 100, Width: 0, Height: 20}, Text: "degenerate"},
	}
}

func testOptions() Options {
	options := DefaultOptions()
	options.BackoffDuration = time.Millisecond
	options.MaxRetries = 2
	return options
}

func newTestServer(recognizer ocr.Recognizer, translator translation.Translator, archive *fakeStorage) *server {
	storage := Storage{ImageBucket: "images"}
	if archive != nil {
		storage.Client = archive
	}
	return New(recognizer, translator, compose.New(font.Builtin(), compose.DefaultOptions()), storage, testOptions())
}

func TestTranslateImage(t *testing.T) {
	archive := &fakeStorage{}
	translator := &fakeTranslator{}
	s := newTestServer(&fakeRecognizer{fragments: testFragments()}, translator, archive)

	response, err := s.TranslateImage(context.Background(), &TranslateImageRequest{Image: testImage(t), TargetLanguage: language.Korean, Cluster: true})
	require.NoError(t, err)

	assert.Equal(t, []Sentence{
		{Original: "hello world", Translated: "HELLO WORLD", Box: layout.BoundingBox{Top: 10, Left: 10, Width: 60, Height: 42}},
		{Original: "bye", Translated: "BYE", Box: layout.BoundingBox{Top: 90, Left: 10, Width: 60, Height: 20}},
	}, response.Sentences)
	assert.Equal(t, []language.Tag{language.Korean}, translator.targets)

	require.True(t, strings.HasPrefix(response.UriImage, "data:image/png;base64,"))
	decoded, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(response.UriImage, "data:image/png;base64,"))
	require.NoError(t, err)
	rendered, err := png.Decode(bytes.NewReader(decoded))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 160, 120), rendered.Bounds())

	require.Len(t, archive.objects, 2)
	assert.Equal(t, "images", archive.objects[0].bucket)
	assert.True(t, strings.HasSuffix(archive.objects[0].name, "-before.png"))
	assert.True(t, strings.HasSuffix(archive.objects[1].name, "-after.png"))
	assert.Equal(t, strings.TrimSuffix(archive.objects[0].name, "-before.png"), strings.TrimSuffix(archive.objects[1].name, "-after.png"))
	assert.Equal(t, "image/png", archive.objects[1].contentType)
}

func TestTranslateImage_WithoutClustering(t *testing.T) {
	s := newTestServer(&fakeRecognizer{fragments: testFragments()}, &fakeTranslator{}, nil)

	response, err := s.TranslateImage(context.Background(), &TranslateImageRequest{Image: testImage(t)})
	require.NoError(t, err)

	assert.Equal(t, []string{"HELLO", "WORLD", "BYE"}, sentenceTexts(response.Sentences))
}

func TestTranslateImage_NoText(t *testing.T) {
	translator := &fakeTranslator{}
	s := newTestServer(&fakeRecognizer{}, translator, nil)

	response, err := s.TranslateImage(context.Background(), &TranslateImageRequest{Image: testImage(t), Cluster: true})

	require.NoError(t, err)
	assert.Empty(t, response.Sentences)
	assert.Empty(t, translator.targets)
}

func TestTranslateImage_InvalidImage(t *testing.T) {
	recognizer := &fakeRecognizer{}
	s := newTestServer(recognizer, &fakeTranslator{}, nil)

	_, err := s.TranslateImage(context.Background(), &TranslateImageRequest{Image: []byte("not an image")})

	assert.Equal(t, codes.InvalidArgument, status.Code(err))
	assert.Zero(t, recognizer.calls)
}

func TestTranslateImage_Retries(t *testing.T) {
	tests := []struct {
		name          string
		errs          []error
		expectedCalls int
		expectedCode  codes.Code
	}{
		{
			name:          "transient errors are retried",
			errs:          []error{status.Error(codes.Unavailable, "busy"), &ocr.BackendError{Backend: "baidu", Code: "18", Message: "qps limit"}},
			expectedCalls: 3,
			expectedCode:  codes.OK,
		},
		{
			name:          "permanent error is not retried",
			errs:          []error{&ocr.BackendError{Backend: "baidu", Code: "17", Message: "daily limit"}},
			expectedCalls: 1,
			expectedCode:  codes.Internal,
		},
		{
			name:          "retries are bounded",
			errs:          []error{status.Error(codes.Unavailable, "1"), status.Error(codes.Unavailable, "2"), status.Error(codes.Unavailable, "3"), status.Error(codes.Unavailable, "4")},
			expectedCalls: 3,
			expectedCode:  codes.Unavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recognizer := &fakeRecognizer{fragments: testFragments(), errs: tt.errs}
			s := newTestServer(recognizer, &fakeTranslator{}, nil)

			_, err := s.TranslateImage(context.Background(), &TranslateImageRequest{Image: testImage(t)})

			assert.Equal(t, tt.expectedCode, status.Code(err))
			assert.Equal(t, tt.expectedCalls, recognizer.calls)
		})
	}
}

func TestTranslateImage_TranslationFailure(t *testing.T) {
	translator := &fakeTranslator{err: &translation.Error{Code: "401", Message: "Authentication Fails"}}
	s := newTestServer(&fakeRecognizer{fragments: testFragments()}, translator, nil)

	_, err := s.TranslateImage(context.Background(), &TranslateImageRequest{Image: testImage(t)})

	assert.Equal(t, codes.Internal, status.Code(err))
	assert.Len(t, translator.targets, 1)
}

func TestTranslateImage_ArchiveFailureIsNotFatal(t *testing.T) {
	s := newTestServer(&fakeRecognizer{fragments: testFragments()}, &fakeTranslator{}, &fakeStorage{err: errors.New("denied")})

	_, err := s.TranslateImage(context.Background(), &TranslateImageRequest{Image: testImage(t)})

	assert.NoError(t, err)
}

func TestTranslateText(t *testing.T) {
	s := newTestServer(&fakeRecognizer{fragments: testFragments()}, &fakeTranslator{}, nil)

	response, err := s.TranslateText(context.Background(), &TranslateTextRequest{Image: testImage(t), Cluster: true})

	require.NoError(t, err)
	assert.Equal(t, "hello world\nbye", response.OriginalText)
	assert.Equal(t, "HELLO WORLD\nBYE", response.TranslatedText)
}

func TestTranslateFile(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "menu.png")
	require.NoError(t, os.WriteFile(input, testImage(t), 0o600))
	translator := &fakeTranslator{}
	s := newTestServer(&fakeRecognizer{fragments: testFragments()}, translator, nil)

	t.Run("writes output", func(t *testing.T) {
		output := filepath.Join(dir, "menu_translated.jpg")

		response, err := s.TranslateFile(context.Background(), input, output, language.Und, true)

		require.NoError(t, err)
		assert.FileExists(t, output)
		assert.Equal(t, "HELLO WORLD\nBYE", response.TranslatedText)
		assert.Equal(t, translation.DefaultTarget, translator.targets[len(translator.targets)-1])
	})

	t.Run("unsupported output format", func(t *testing.T) {
		output := filepath.Join(dir, "menu_translated.xyz")

		_, err := s.TranslateFile(context.Background(), input, output, language.Japanese, true)

		assert.ErrorIs(t, err, ErrComposeFailed)
		assert.NoFileExists(t, output)
	})

	t.Run("missing input", func(t *testing.T) {
		_, err := s.TranslateFile(context.Background(), filepath.Join(dir, "missing.png"), filepath.Join(dir, "out.png"), language.Japanese, true)

		assert.ErrorIs(t, err, os.ErrNotExist)
	})
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{name: "unavailable", err: status.Error(codes.Unavailable, "x"), expected: true},
		{name: "invalid argument", err: status.Error(codes.InvalidArgument, "x"), expected: false},
		{name: "baidu qps", err: &ocr.BackendError{Code: "18"}, expected: true},
		{name: "baidu http 503", err: &ocr.BackendError{Code: "503"}, expected: true},
		{name: "baidu bad token", err: &ocr.BackendError{Code: "110"}, expected: false},
		{name: "translation rate limited", err: &translation.Error{Code: "429"}, expected: true},
		{name: "translation unauthorized", err: &translation.Error{Code: "invalid_request_error"}, expected: false},
		{name: "translation timeout", err: translation.ErrTimeout, expected: true},
		{name: "canceled", err: context.Canceled, expected: false},
		{name: "plain", err: errors.New("x"), expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, isTransient(tt.err))
		})
	}
}

func sentenceTexts(sentences []Sentence) []string {
	texts := []string{}
	for _, sentence := range sentences {
		texts = append(texts, sentence.Translated)
	}
	return texts
}
