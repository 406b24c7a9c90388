package embedding

import (
	"Recall_1.0/backend/go/internal/config"
	"fmt"
)

// NewEmdModel builds the configured embedding provider and wraps it in an LRU
// cache when cfg.CacheSize is positive.
func NewEmdModel(cfg config.EmbeddingConfig) (Embedding, error) {
	var (
		model Embedding
		err   error
	)
	switch ModelType(cfg.Provider) {
	case Google:
		model, err = NewGoogleModel(cfg.Gemini.APIKey, cfg.Gemini.Model)
	case OpenAI:
		model, err = NewOpenAIModel(cfg.OpenAI.APIKey, cfg.OpenAI.Model, cfg.OpenAI.BaseURL)
	case Ollama:
		model, err = NewOllamaModel(cfg.Ollama.Model, cfg.Ollama.BaseURL)
	case Hash, "":
		model = NewHashModel(cfg.Dimension)
	default:
		return nil, fmt.Errorf("unsupported provider: %s", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}
	if cfg.CacheSize > 0 {
		return NewCached(model, cfg.CacheSize)
	}
	return model, nil
}
