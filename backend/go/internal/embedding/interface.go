package embedding

import "context"

// Embedding turns text into vectors.
type Embedding interface {
	// Embed returns the vector for one text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch returns one vector per text, in input order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// ModelType names an embedding provider.
type ModelType string

const (
	OpenAI ModelType = "openai" // OpenAI compatible /embeddings endpoint.
	Google ModelType = "gemini" // Google GenAI embedding models.
	Ollama ModelType = "ollama" // Local Ollama server.
	Hash   ModelType = "hash"   // Deterministic in-process vectors, no network.
)
