package ocr

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doeshing/formatapi/internal/domain"
)

func TestRenderPrompt(t *testing.T) {
	img, err := LoadImage(writePNG(t, t.TempDir(), "console.png"))
	require.NoError(t, err)

	prompt, err := RenderPrompt("", img)
	require.NoError(t, err)
	assert.Contains(t, prompt, "image/png, console.png")

	prompt, err = RenderPrompt("names in {{ filename }}{% if mime == 'image/png' %} (png){% endif %}", img)
	require.NoError(t, err)
	assert.Equal(t, "names in console.png (png)", prompt)
}

func TestVisionAvailable(t *testing.T) {
	t.Setenv("FORMATAPI_TEST_KEY", "")
	v := NewOpenAIVision(domain.VisionSettings{Model: "gpt-4o", AuthEnvVar: "FORMATAPI_TEST_KEY"}, "")
	err := v.Available()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "FORMATAPI_TEST_KEY")

	t.Setenv("FORMATAPI_TEST_KEY", "secret")
	assert.NoError(t, v.Available())

	assert.Error(t, NewGeminiVision(domain.VisionSettings{APIKey: "k"}, "").Available())
}

func TestOpenAIVisionRecognize(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"1","object":"chat.completion","model":"gpt-4o",
			"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"gpt-4o\n- gpt-4o-mini\n"}}]}`)
	}))
	defer srv.Close()

	img, err := LoadImage(writePNG(t, t.TempDir(), "shot.png"))
	require.NoError(t, err)

	v := NewOpenAIVision(domain.VisionSettings{BaseURL: srv.URL + "/v1/", Model: "gpt-4o", APIKey: "test-key"}, "")
	models, err := v.Recognize(context.Background(), img)
	require.NoError(t, err)
	assert.Equal(t, []string{"gpt-4o", "gpt-4o-mini"}, models)

	assert.EqualValues(t, domain.DefaultVisionMaxTokens, body["max_tokens"])
	raw, _ := json.Marshal(body["messages"])
	assert.Contains(t, string(raw), "data:image/png;base64,")
}

func TestOpenAIVisionEmptyReply(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"choices":[{"index":0,"message":{"role":"assistant","content":"  "}}]}`)
	}))
	defer srv.Close()

	img, err := LoadImage(writePNG(t, t.TempDir(), "shot.png"))
	require.NoError(t, err)

	v := NewOpenAIVision(domain.VisionSettings{BaseURL: srv.URL, Model: "gpt-4o", APIKey: "k"}, "")
	_, err = v.Recognize(context.Background(), img)
	assert.True(t, domain.IsOCRKind(err, domain.OCRNoText))
}

func TestGeminiVisionRecognize(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "models/gemini-1.5-flash:generateContent"), r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"candidates":[{"content":{"role":"model","parts":[{"text":"gemini-1.5-pro\ngemini-1.5-flash"}]}}]}`)
	}))
	defer srv.Close()

	img, err := LoadImage(writePNG(t, t.TempDir(), "shot.png"))
	require.NoError(t, err)

	g := NewGeminiVision(domain.VisionSettings{BaseURL: srv.URL + "/", Model: "gemini-1.5-flash", APIKey: "k"}, "")
	models, err := g.Recognize(context.Background(), img)
	require.NoError(t, err)
	assert.Equal(t, []string{"gemini-1.5-pro", "gemini-1.5-flash"}, models)
}
