package content

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/octobees/hero-savings/api/internal/entity"
)

const generateTimeout = 20 * time.Second

var errIncompleteContent = errors.New("model returned incomplete content")

// ModelClient is the slice of the genai models service used here.
type ModelClient interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiGenerator asks a Gemini model to fill the templates and falls back to
// Render on any failure.
type GeminiGenerator struct {
	models ModelClient
	model  string
	logger *zap.Logger
}

// NewGeminiGenerator wraps a genai models client.
func NewGeminiGenerator(models ModelClient, model string, logger *zap.Logger) *GeminiGenerator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GeminiGenerator{models: models, model: model, logger: logger}
}

// Generate implements Generator.
func (g *GeminiGenerator) Generate(ctx context.Context, lead entity.Lead, estimate entity.SavingsEstimate) entity.GeneratedContent {
	fallback := Render(lead, estimate)

	generated, err := g.generate(ctx, fallback)
	if err != nil {
		g.logger.Warn("content generation failed, using template content",
			zap.String("model", g.model), zap.Error(err))
		return fallback
	}
	return generated
}

func (g *GeminiGenerator) generate(ctx context.Context, template entity.GeneratedContent) (entity.GeneratedContent, error) {
	ctx, cancel := context.WithTimeout(ctx, generateTimeout)
	defer cancel()

	resp, err := g.models.GenerateContent(ctx, g.model, genai.Text(buildPrompt(template)), &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   responseSchema(),
	})
	if err != nil {
		return entity.GeneratedContent{}, fmt.Errorf("generate content: %w", err)
	}
	if resp == nil {
		return entity.GeneratedContent{}, errIncompleteContent
	}

	var out entity.GeneratedContent
	if err := json.Unmarshal([]byte(strings.TrimSpace(resp.Text())), &out); err != nil {
		return entity.GeneratedContent{}, fmt.Errorf("decode generated content: %w", err)
	}
	if strings.TrimSpace(out.Email.Subject) == "" || strings.TrimSpace(out.Email.Body) == "" || strings.TrimSpace(out.SMS.Body) == "" {
		return entity.GeneratedContent{}, errIncompleteContent
	}
	return out, nil
}

func buildPrompt(template entity.GeneratedContent) string {
	var b strings.Builder
	b.WriteString("You write notifications for \"Downtown Financial Group\" announcing a user's Hero Savings Report.\n\n")
	b.WriteString("Rewrite the email and SMS below. Keep every number, link and disclaimer exactly as given, ")
	b.WriteString("keep the line structure, and do not add any extra text.\n")
	fmt.Fprintf(&b, "The email subject must be exactly %q.\n\n", EmailSubject)
	b.WriteString("EMAIL BODY:\n")
	b.WriteString(template.Email.Body)
	b.WriteString("\n\nSMS BODY:\n")
	b.WriteString(template.SMS.Body)
	b.WriteString("\n\nRespond with JSON in the requested schema.")
	return b.String()
}

func responseSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"email": {
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"subject": {Type: genai.TypeString},
					"body":    {Type: genai.TypeString},
				},
				Required: []string{"subject", "body"},
			},
			"sms": {
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"body": {Type: genai.TypeString},
				},
				Required: []string{"body"},
			},
		},
		Required: []string{"email", "sms"},
	}
}
