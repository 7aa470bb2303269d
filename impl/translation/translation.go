package translation

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"golang.org/x/text/language"

	pkgopenai "github.com/visionex-project/imagetranslator/pkg/openai"
)

// Translator maps source text to the target language. Line breaks in text are kept in the result.
type Translator interface {
	Translate(ctx context.Context, text string, target language.Tag) (string, error)
}

// ChatCompleter is implemented by the OpenAI-compatible adapter and the Gemini adapter.
type ChatCompleter interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

const (
	DeepSeekBaseURL = "https://api.deepseek.com/v1"
	DeepSeekModel   = "deepseek-chat"
)

var ErrTimeout = errors.New("translation request timed out, please retry")

// Error is a failure reported by the translation backend.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("translation failed [%s]: %s", e.Code, e.Message)
}

type Config struct {
	Model       string
	Temperature float32
	MaxTokens   int
	// Per request, on top of the caller's context.
	Timeout time.Duration
}

func DeepSeekConfig() Config {
	return Config{
		Model:       DeepSeekModel,
		Temperature: 0.1,
		MaxTokens:   4000,
		Timeout:     30 * time.Second,
	}
}

// ChatTranslator translates with a single-turn chat completion.
type ChatTranslator struct {
	client ChatCompleter
	config Config
}

func NewChatTranslator(client ChatCompleter, config Config) *ChatTranslator {
	return &ChatTranslator{client: client, config: config}
}

func (t *ChatTranslator) Translate(ctx context.Context, text string, target language.Tag) (string, error) {
	if t.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.config.Timeout)
		defer cancel()
	}

	request := openai.ChatCompletionRequest{
		Model: t.config.Model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt(text, target),
			},
		},
		Temperature: t.config.Temperature,
		MaxTokens:   t.config.MaxTokens,
	}

	response, err := t.client.CreateChatCompletion(ctx, request)
	if err != nil {
		return "", toTranslationError(ctx, err)
	}
	content, err := pkgopenai.GetCompletionContent(response)
	if err != nil {
		return "", &Error{Code: "empty_response", Message: err.Error()}
	}
	return strings.TrimSpace(content), nil
}

func prompt(text string, target language.Tag) string {
	return fmt.Sprintf(`Translate the following text into %s accurately, keeping the original formatting and line breaks.
Text:

%s

Requirements:
1. Return only the translation, without any additional explanation.
2. Keep exactly one output line for every input line.`, LanguageName(target), text)
}

func toTranslationError(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		code := fmt.Sprint(apiErr.Code)
		if apiErr.Code == nil {
			code = strconv.Itoa(apiErr.HTTPStatusCode)
		}
		return &Error{Code: code, Message: apiErr.Message}
	}
	var requestErr *openai.RequestError
	if errors.As(err, &requestErr) {
		return &Error{Code: strconv.Itoa(requestErr.HTTPStatusCode), Message: requestErr.Error()}
	}
	return fmt.Errorf("translation failed: %w", err)
}
