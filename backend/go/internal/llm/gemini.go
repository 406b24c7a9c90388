package llm

import (
	"Recall_1.0/backend/go/internal/models"
	"context"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// Gemini is a stateless client for the Gemini API. Every call is a single turn.
type Gemini struct {
	client *genai.Client
	name   string
}

// NewGemini creates a Gemini client for model.
func NewGemini(ctx context.Context, model, apiKey string) (*Gemini, error) {
	if model == "" {
		model = "gemini-1.5-flash"
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return &Gemini{client: client, name: model}, nil
}

// GenerateContent sends the request as one GenerateContent call.
func (g *Gemini) GenerateContent(ctx context.Context, req *models.GenerateContentRequest) (*models.GenerateContentResponse, error) {
	model := g.client.GenerativeModel(g.name)
	if req.SystemInstruction != nil {
		model.SystemInstruction = genai.NewUserContent(toGenaiParts([]models.Content{*req.SystemInstruction})...)
	}

	resp, err := model.GenerateContent(ctx, toGenaiParts(req.Content)...)
	if err != nil {
		return nil, fmt.Errorf("failed to generate content with gemini: %w", err)
	}
	out := fromGenaiResponse(resp)
	if out == nil || len(out.Content) == 0 {
		return nil, ErrNoChoices
	}
	return out, nil
}

// Close releases the underlying client.
func (g *Gemini) Close() error {
	return g.client.Close()
}

func toGenaiParts(content []models.Content) []genai.Part {
	var parts []genai.Part
	for _, c := range content {
		for _, p := range c.Parts {
			if p != nil && p.Text != "" {
				parts = append(parts, genai.Text(p.Text))
			}
		}
	}
	return parts
}

// fromGenaiResponse keeps only the text parts of each candidate.
func fromGenaiResponse(resp *genai.GenerateContentResponse) *models.GenerateContentResponse {
	if resp == nil {
		return nil
	}
	var content []models.Content
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		c := models.Content{Role: models.SpeakerModel}
		for _, p := range cand.Content.Parts {
			if t, ok := p.(genai.Text); ok {
				c.Parts = append(c.Parts, &models.Part{Text: string(t)})
			}
		}
		content = append(content, c)
	}
	return &models.GenerateContentResponse{Content: content}
}
