package llm

import (
	"Recall_1.0/backend/go/internal/models"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	olla "github.com/ollama/ollama/api"
)

// Ollama is a client for a local Ollama server.
type Ollama struct {
	client *olla.Client
	model  string
}

// NewOllama creates an Ollama client. baseURL defaults to http://localhost:11434.
func NewOllama(model, baseURL string) (*Ollama, error) {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if model == "" {
		model = "llama3"
	}

	parsedURL, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}

	hc := &http.Client{
		Timeout: 120 * time.Second,
	}
	return &Ollama{client: olla.NewClient(parsedURL, hc), model: model}, nil
}

// GenerateContent runs a non-streaming generate call.
func (o *Ollama) GenerateContent(ctx context.Context, req *models.GenerateContentRequest) (*models.GenerateContentResponse, error) {
	genReq := &olla.GenerateRequest{
		Model:  o.model,
		Prompt: o.toOllamaPrompt(req),
		Stream: &[]bool{false}[0],
	}
	if req.SystemInstruction != nil {
		genReq.System = joinParts(req.SystemInstruction.Parts)
	}

	var result *olla.GenerateResponse
	err := o.client.Generate(ctx, genReq, func(resp olla.GenerateResponse) error {
		result = &resp
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate content with ollama: %w", err)
	}
	if result == nil {
		return nil, ErrNoChoices
	}

	return &models.GenerateContentResponse{
		Content:      []models.Content{models.NewTextContent(models.SpeakerModel, result.Response)},
		CreateTime:   result.CreatedAt,
		ModelVersion: result.Model,
	}, nil
}

func (o *Ollama) toOllamaPrompt(req *models.GenerateContentRequest) string {
	var sb strings.Builder
	for _, content := range req.Content {
		sb.WriteString(joinParts(content.Parts))
	}
	return sb.String()
}

func joinParts(parts []*models.Part) string {
	var sb strings.Builder
	for _, p := range parts {
		if p != nil {
			sb.WriteString(p.Text)
		}
	}
	return sb.String()
}
