package ocr

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/doeshing/formatapi/internal/domain"
	"github.com/doeshing/formatapi/internal/infrastructure/extract"
	"github.com/doeshing/formatapi/internal/ports"
)

// ModeAI selects an OpenAI-compatible vision model.
const ModeAI = "ai"

// OpenAIVision asks an OpenAI-compatible chat completion endpoint to read
// model names off the image.
type OpenAIVision struct {
	settings domain.VisionSettings
	prompt   string
}

func NewOpenAIVision(settings domain.VisionSettings, prompt string) *OpenAIVision {
	return &OpenAIVision{settings: settings, prompt: prompt}
}

func (v *OpenAIVision) Name() string { return ModeAI }

// Fingerprint identifies the endpoint, model and prompt used for a reply.
func (v *OpenAIVision) Fingerprint() string {
	return visionFingerprint(v.settings, v.prompt)
}

func (v *OpenAIVision) Available() error {
	return visionAvailable(v.settings)
}

func (v *OpenAIVision) Recognize(ctx context.Context, image ports.Image) ([]string, error) {
	prompt, err := RenderPrompt(v.prompt, image)
	if err != nil {
		return nil, &domain.OCRError{Kind: domain.OCREngine, Err: err}
	}

	cfg := openai.DefaultConfig(v.settings.ResolveKey())
	if v.settings.BaseURL != "" {
		cfg.BaseURL = strings.TrimRight(v.settings.BaseURL, "/")
	}
	cfg.HTTPClient = &http.Client{Timeout: domain.DefaultHTTPClientTimeout}
	client := openai.NewClientWithConfig(cfg)

	dataURL := "data:" + image.MIMEType + ";base64," + base64.StdEncoding.EncodeToString(image.Data)
	resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     v.settings.Model,
		MaxTokens: maxTokens(v.settings),
		Messages: []openai.ChatCompletionMessage{{
			Role: openai.ChatMessageRoleUser,
			MultiContent: []openai.ChatMessagePart{
				{Type: openai.ChatMessagePartTypeText, Text: prompt},
				{Type: openai.ChatMessagePartTypeImageURL, ImageURL: &openai.ChatMessageImageURL{
					URL:    dataURL,
					Detail: openai.ImageURLDetailHigh,
				}},
			},
		}},
	})
	if err != nil {
		return nil, &domain.OCRError{Kind: domain.OCREngine, Err: err}
	}
	if len(resp.Choices) == 0 {
		return nil, &domain.OCRError{Kind: domain.OCREngine, Err: errors.New("no choices in response")}
	}
	return replyModels(resp.Choices[0].Message.Content)
}

func visionAvailable(settings domain.VisionSettings) error {
	if strings.TrimSpace(settings.Model) == "" {
		return errors.New("no vision model configured")
	}
	if settings.ResolveKey() == "" {
		if settings.AuthEnvVar != "" {
			return fmt.Errorf("no API key: set %s", settings.AuthEnvVar)
		}
		return errors.New("no API key configured")
	}
	return nil
}

func visionFingerprint(settings domain.VisionSettings, prompt string) string {
	return strings.Join([]string{settings.BaseURL, settings.Model, strconv.Itoa(settings.MaxTokens), prompt}, "\x00")
}

func maxTokens(settings domain.VisionSettings) int {
	if settings.MaxTokens > 0 {
		return settings.MaxTokens
	}
	return domain.DefaultVisionMaxTokens
}

// replyModels treats a blank reply as "no text" and otherwise reads one
// model name per line.
func replyModels(reply string) ([]string, error) {
	if strings.TrimSpace(reply) == "" {
		return nil, &domain.OCRError{Kind: domain.OCRNoText}
	}
	return extract.ModelLines(reply), nil
}
