package ocr

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"google.golang.org/genai"

	"github.com/doeshing/formatapi/internal/domain"
	"github.com/doeshing/formatapi/internal/ports"
)

// ModeGemini selects a Gemini vision model.
const ModeGemini = "gemini"

// GeminiVision reads model names off the image with Gemini GenerateContent.
type GeminiVision struct {
	settings domain.VisionSettings
	prompt   string
}

func NewGeminiVision(settings domain.VisionSettings, prompt string) *GeminiVision {
	return &GeminiVision{settings: settings, prompt: prompt}
}

func (g *GeminiVision) Name() string { return ModeGemini }

// Fingerprint identifies the model and prompt used for a reply.
func (g *GeminiVision) Fingerprint() string {
	return visionFingerprint(g.settings, g.prompt)
}

func (g *GeminiVision) Available() error {
	return visionAvailable(g.settings)
}

func (g *GeminiVision) Recognize(ctx context.Context, image ports.Image) ([]string, error) {
	prompt, err := RenderPrompt(g.prompt, image)
	if err != nil {
		return nil, &domain.OCRError{Kind: domain.OCREngine, Err: err}
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     g.settings.ResolveKey(),
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Timeout: domain.DefaultHTTPClientTimeout},
		HTTPOptions: genai.HTTPOptions{
			BaseURL: g.settings.BaseURL,
		},
	})
	if err != nil {
		return nil, &domain.OCRError{Kind: domain.OCRUnavailable, Err: err}
	}

	contents := []*genai.Content{{
		Role: genai.RoleUser,
		Parts: []*genai.Part{
			{Text: prompt},
			genai.NewPartFromBytes(image.Data, image.MIMEType),
		},
	}}
	config := &genai.GenerateContentConfig{MaxOutputTokens: int32(maxTokens(g.settings))}

	resp, err := client.Models.GenerateContent(ctx, g.settings.Model, contents, config)
	if err != nil {
		return nil, &domain.OCRError{Kind: domain.OCREngine, Err: err}
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, &domain.OCRError{Kind: domain.OCREngine, Err: errors.New("no candidates in response")}
	}

	var reply strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil && part.Text != "" {
			reply.WriteString(part.Text)
			reply.WriteByte('\n')
		}
	}
	return replyModels(reply.String())
}
