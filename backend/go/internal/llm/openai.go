package llm

import (
	"Recall_1.0/backend/go/internal/models"
	"context"
	"fmt"

	openai "github.com/meguminnnnnnnnn/go-openai"
)

// OpenAI is a client for OpenAI compatible chat completion APIs (OpenAI, Groq).
type OpenAI struct {
	client *openai.Client
	model  string
}

// NewOpenAI creates an OpenAI client. An empty baseURL keeps the OpenAI default.
func NewOpenAI(model, apiKey, baseURL string) (*OpenAI, error) {
	if model == "" {
		return nil, fmt.Errorf("openai model name is empty")
	}
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return &OpenAI{
		client: openai.NewClientWithConfig(config),
		model:  model,
	}, nil
}

// GenerateContent sends one chat completion request.
func (o *OpenAI) GenerateContent(ctx context.Context, req *models.GenerateContentRequest) (*models.GenerateContentResponse, error) {
	resp, err := o.client.CreateChatCompletion(ctx, o.toOpenAIRequest(req))
	if err != nil {
		return nil, fmt.Errorf("failed to create chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, ErrNoChoices
	}
	return o.toGenerateContentResponse(&resp), nil
}

// toOpenAIRequest puts the system instruction first, then every text part.
func (o *OpenAI) toOpenAIRequest(req *models.GenerateContentRequest) openai.ChatCompletionRequest {
	var messages []openai.ChatCompletionMessage
	if req.SystemInstruction != nil {
		for _, part := range req.SystemInstruction.Parts {
			messages = append(messages, openai.ChatCompletionMessage{
				Role:    openai.ChatMessageRoleSystem,
				Content: part.Text,
			})
		}
	}
	for _, content := range req.Content {
		role := string(content.Role)
		if role == "" {
			role = openai.ChatMessageRoleUser
		}
		for _, part := range content.Parts {
			messages = append(messages, openai.ChatCompletionMessage{
				Role:    role,
				Content: part.Text,
			})
		}
	}

	return openai.ChatCompletionRequest{
		Model:    o.model,
		Messages: messages,
	}
}

func (o *OpenAI) toGenerateContentResponse(resp *openai.ChatCompletionResponse) *models.GenerateContentResponse {
	var content []models.Content
	for _, choice := range resp.Choices {
		content = append(content, models.NewTextContent(models.SpeakerModel, choice.Message.Content))
	}
	return &models.GenerateContentResponse{
		Content:      content,
		ResponseID:   resp.ID,
		ModelVersion: resp.Model,
	}
}
