package embedding

import (
	"context"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GoogleModel calls the Google GenAI embedding API.
type GoogleModel struct {
	client *genai.Client
	model  *genai.EmbeddingModel
}

// NewGoogleModel creates a GoogleModel for modelName.
func NewGoogleModel(apiKey string, modelName string) (*GoogleModel, error) {
	if modelName == "" {
		modelName = "text-embedding-004"
	}
	client, err := genai.NewClient(context.Background(), option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return &GoogleModel{
		client: client,
		model:  client.EmbeddingModel(modelName),
	}, nil
}

// Embed generates the vector for a single text.
func (m *GoogleModel) Embed(ctx context.Context, text string) ([]float32, error) {
	res, err := m.model.EmbedContent(ctx, genai.Text(text))
	if err != nil {
		return nil, fmt.Errorf("failed to embed content: %w", err)
	}
	if res.Embedding == nil {
		return nil, fmt.Errorf("no embeddings returned")
	}
	return res.Embedding.Values, nil
}

// EmbedBatch generates vectors for texts in one batch call.
func (m *GoogleModel) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	batch := m.model.NewBatch()
	for _, text := range texts {
		batch.AddContent(genai.Text(text))
	}

	res, err := m.model.BatchEmbedContents(ctx, batch)
	if err != nil {
		return nil, fmt.Errorf("failed to batch embed contents: %w", err)
	}

	embeddings := make([][]float32, 0, len(res.Embeddings))
	for _, emb := range res.Embeddings {
		embeddings = append(embeddings, emb.Values)
	}
	return embeddings, nil
}

// Close releases the underlying client.
func (m *GoogleModel) Close() error {
	return m.client.Close()
}
