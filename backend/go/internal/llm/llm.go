// Package llm talks to chat completion providers behind one small interface.
package llm

import (
	"Recall_1.0/backend/go/internal/config"
	"Recall_1.0/backend/go/internal/models"
	"context"
	"errors"
	"fmt"
)

var (
	// ErrNoChoices is returned when a provider answers without any candidate.
	ErrNoChoices = errors.New("llm response has no choices")
	// ErrNotConfigured is returned by NewClient when the provider has no credentials.
	ErrNotConfigured = errors.New("llm provider is not configured")
)

// LLM is implemented by every completion client.
type LLM interface {
	GenerateContent(ctx context.Context, req *models.GenerateContentRequest) (*models.GenerateContentResponse, error)
}

// NewClient builds the configured provider. Groq is reached through its
// OpenAI compatible endpoint.
func NewClient(cfg config.LLMConfig) (LLM, error) {
	switch cfg.Provider {
	case "groq":
		if cfg.Groq.APIKey == "" {
			return nil, fmt.Errorf("%w: groq api key is empty", ErrNotConfigured)
		}
		return NewOpenAI(cfg.Groq.Model, cfg.Groq.APIKey, cfg.Groq.BaseURL)
	case "openai":
		if cfg.OpenAI.APIKey == "" {
			return nil, fmt.Errorf("%w: openai api key is empty", ErrNotConfigured)
		}
		return NewOpenAI(cfg.OpenAI.Model, cfg.OpenAI.APIKey, cfg.OpenAI.BaseURL)
	case "ollama":
		return NewOllama(cfg.Ollama.Model, cfg.Ollama.BaseURL)
	case "gemini":
		if cfg.Gemini.APIKey == "" {
			return nil, fmt.Errorf("%w: gemini api key is empty", ErrNotConfigured)
		}
		return NewGemini(context.Background(), cfg.Gemini.Model, cfg.Gemini.APIKey)
	case "", "none":
		return nil, ErrNotConfigured
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
}
