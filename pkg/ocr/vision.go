// Package ocr extracts text from screenshot images.
package ocr

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const (
	// DefaultModel is a vision-capable model that is cheap enough for OCR.
	DefaultModel = "gpt-4o-mini"
	// DefaultLanguage follows the three-letter codes OCR engines use.
	DefaultLanguage = "eng"

	defaultMaxTokens = 4096
)

// Recognizer turns an image file into text.
type Recognizer interface {
	Recognize(ctx context.Context, imagePath, language string) (string, error)
	Close() error
}

// VisionRecognizer reads text with an OpenAI-compatible vision model.
type VisionRecognizer struct {
	client    openai.Client
	model     string
	baseURL   string
	maxTokens int64
}

// Option configures a VisionRecognizer.
type Option func(*VisionRecognizer)

// WithModel sets the model used for recognition.
func WithModel(model string) Option {
	return func(r *VisionRecognizer) {
		if model != "" {
			r.model = model
		}
	}
}

// WithBaseURL points the recognizer at another OpenAI-compatible endpoint.
func WithBaseURL(baseURL string) Option {
	return func(r *VisionRecognizer) {
		r.baseURL = baseURL
	}
}

// WithMaxTokens caps the length of the recognised text.
func WithMaxTokens(n int) Option {
	return func(r *VisionRecognizer) {
		if n > 0 {
			r.maxTokens = int64(n)
		}
	}
}

// NewVisionRecognizer creates a recognizer. An empty apiKey falls back to
// OPENAI_API_KEY, and an unset base URL to OPENAI_BASE_URL.
func NewVisionRecognizer(apiKey string, opts ...Option) (*VisionRecognizer, error) {
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("text recognition needs an API key (set ocr.api_key_env or OPENAI_API_KEY)")
	}

	r := &VisionRecognizer{
		model:     DefaultModel,
		baseURL:   os.Getenv("OPENAI_BASE_URL"),
		maxTokens: defaultMaxTokens,
	}
	for _, opt := range opts {
		opt(r)
	}

	reqOpts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if r.baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(r.baseURL))
	}
	r.client = openai.NewClient(reqOpts...)
	return r, nil
}

// Recognize sends the image to the model and returns the transcribed text.
func (r *VisionRecognizer) Recognize(ctx context.Context, imagePath, language string) (string, error) {
	dataURI, err := DataURI(imagePath)
	if err != nil {
		return "", err
	}
	if language == "" {
		language = DefaultLanguage
	}

	resp, err := r.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:     openai.ChatModel(r.model),
		MaxTokens: openai.Int(r.maxTokens),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(prompt(language)),
			openai.UserMessage([]openai.ChatCompletionContentPartUnionParam{
				openai.TextContentPart("Transcribe the text in this screenshot."),
				openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
					URL:    dataURI,
					Detail: "high",
				}),
			}),
		},
	})
	if err != nil {
		return "", fmt.Errorf("text recognition request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("text recognition returned no choices")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// Close is a no-op; the HTTP client holds no dedicated resources.
func (r *VisionRecognizer) Close() error {
	return nil
}

func prompt(language string) string {
	return "You are an OCR engine. Return only the text visible in the image, " +
		"preserving line breaks and reading order. Do not describe the image or add commentary. " +
		fmt.Sprintf("The expected language is %q (ISO 639-2). ", language) +
		"If there is no text, return an empty response."
}

// DataURI reads an image file and encodes it as a base64 data URI.
func DataURI(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read image %s: %w", path, err)
	}
	return "data:" + MIMEType(path) + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}

// MIMEType maps a screenshot file name to its content type.
func MIMEType(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".png") {
		return "image/png"
	}
	return "image/jpeg"
}
