package genai

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/sashabaranov/go-openai"
)

// Client answers OpenAI shaped chat completion requests with Gemini.
type Client interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

type client struct {
	genaiClient *genai.Client
}

func New(genaiClient *genai.Client) Client {
	return &client{genaiClient: genaiClient}
}

type GenaiModel string

const (
	GenaiModelFlash GenaiModel = "gemini-1.5-flash"
)

var ErrInvalidModel = errors.New("invalid model")

func (c *client) CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	if err := validateModel(request.Model); err != nil {
		return openai.ChatCompletionResponse{}, err
	}
	if len(request.Messages) == 0 {
		return openai.ChatCompletionResponse{}, errors.New("no messages in request")
	}

	genaiModel := c.genaiClient.GenerativeModel(request.Model)
	if request.Temperature > 0 {
		genaiModel.SetTemperature(request.Temperature)
	}
	if request.MaxTokens > 0 {
		genaiModel.SetMaxOutputTokens(int32(request.MaxTokens))
	}

	history, err := toHistory(request.Messages[:len(request.Messages)-1])
	if err != nil {
		return openai.ChatCompletionResponse{}, err
	}
	chatSession := genaiModel.StartChat()
	chatSession.History = history

	parts, err := toGenaiParts(request.Messages[len(request.Messages)-1])
	if err != nil {
		return openai.ChatCompletionResponse{}, err
	}

	resp, err := chatSession.SendMessage(ctx, parts...)
	if err != nil {
		return openai.ChatCompletionResponse{}, err
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return openai.ChatCompletionResponse{}, errors.New("no response from model")
	}

	return openai.ChatCompletionResponse{
		Model: request.Model,
		Choices: []openai.ChatCompletionChoice{
			{
				Message: openai.ChatCompletionMessage{
					Role:    openai.ChatMessageRoleAssistant,
					Content: joinTextParts(resp.Candidates[0].Content.Parts),
				},
			},
		},
	}, nil
}

func toHistory(messages []openai.ChatCompletionMessage) ([]*genai.Content, error) {
	history := []*genai.Content{}
	for _, message := range messages {
		if message.Role == openai.ChatMessageRoleSystem {
			// System messages are sent as user turns with a marker.
			history = append(history, &genai.Content{
				Parts: []genai.Part{genai.Text("System: " + message.Content)},
				Role:  "user",
			})
			continue
		}
		content, err := toGenaiContent(message)
		if err != nil {
			return nil, err
		}
		history = append(history, content)
	}
	return history, nil
}

func joinTextParts(parts []genai.Part) string {
	texts := []string{}
	for _, part := range parts {
		if text, ok := part.(genai.Text); ok {
			texts = append(texts, string(text))
			continue
		}
		texts = append(texts, fmt.Sprintf("%v", part))
	}
	return strings.Join(texts, "")
}

func toGenaiContent(message openai.ChatCompletionMessage) (*genai.Content, error) {
	parts, err := toGenaiParts(message)
	if err != nil {
		return &genai.Content{}, err
	}

	return &genai.Content{
		Parts: parts,
		Role:  toGenaiRole(message.Role),
	}, nil
}

func toGenaiParts(message openai.ChatCompletionMessage) ([]genai.Part, error) {
	var parts []genai.Part
	if message.MultiContent != nil {
		for _, content := range message.MultiContent {
			if content.Type == openai.ChatMessagePartTypeImageURL && content.ImageURL != nil {
				decodedImage, mimeType, err := decodeImageURL(content.ImageURL.URL)
				if err != nil {
					return nil, err
				}
				parts = append(parts, genai.Blob{
					MIMEType: mimeType,
					Data:     decodedImage,
				})
			} else {
				parts = append(parts, genai.Text(content.Text))
			}
		}
	} else if message.Content != "" {
		parts = append(parts, genai.Text(message.Content))
	}
	return parts, nil
}

func toGenaiRole(role string) string {
	switch role {
	case openai.ChatMessageRoleAssistant:
		return "model"
	default:
		return "user"
	}
}

func decodeImageURL(dataURI string) ([]byte, string, error) {
	if !strings.HasPrefix(dataURI, "data:") {
		return nil, "", errors.New("invalid data URI format")
	}

	parts := strings.SplitN(dataURI, ",", 2)
	if len(parts) != 2 {
		return nil, "", errors.New("invalid data URI format")
	}

	mimeType := strings.TrimSuffix(strings.TrimPrefix(parts[0], "data:"), ";base64")

	decodedData, err := base64.StdEncoding.DecodeString(parts[1])
	if err != nil {
		return nil, "", err
	}

	return decodedData, mimeType, nil
}

// Any Gemini model name is accepted.
func validateModel(model string) error {
	if !strings.HasPrefix(model, "gemini-") {
		return fmt.Errorf("%w: %q", ErrInvalidModel, model)
	}
	return nil
}
