package ocr

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/tyler-sommer/stick"

	"github.com/doeshing/formatapi/internal/ports"
)

// DefaultPrompt is the Twig template sent to vision models.
const DefaultPrompt = `You are reading a screenshot ({{ mime }}{% if filename %}, {{ filename }}{% endif %}) from an AI provider console.
List every model identifier visible in the image, such as gpt-4o or claude-3-5-sonnet-20241022.
Reply with one model identifier per line, exactly as written, with no numbering and no other text.
If there are no model identifiers, reply with an empty message.`

// RenderPrompt executes a Twig prompt template for image.
func RenderPrompt(tpl string, image ports.Image) (string, error) {
	if strings.TrimSpace(tpl) == "" {
		tpl = DefaultPrompt
	}
	vars := map[string]stick.Value{
		"mime":     image.MIMEType,
		"filename": filepath.Base(image.Path),
	}
	var out strings.Builder
	if err := stick.New(nil).Execute(tpl, &out, vars); err != nil {
		return "", fmt.Errorf("render prompt: %w", err)
	}
	return out.String(), nil
}
