package llm

import (
	"Recall_1.0/backend/go/internal/models"
	"Recall_1.0/backend/go/pkg/circuitbreaker"
	"context"
)

// Guarded fails fast while the breaker is open. It never retries.
type Guarded struct {
	next    LLM
	breaker *circuitbreaker.Breaker
}

// NewGuarded wraps next with breaker.
func NewGuarded(next LLM, breaker *circuitbreaker.Breaker) *Guarded {
	return &Guarded{next: next, breaker: breaker}
}

func (g *Guarded) GenerateContent(ctx context.Context, req *models.GenerateContentRequest) (*models.GenerateContentResponse, error) {
	return circuitbreaker.Call(g.breaker, func() (*models.GenerateContentResponse, error) {
		return g.next.GenerateContent(ctx, req)
	})
}
