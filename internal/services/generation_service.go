// internal/services/generation_service.go
package services

import (
	"context"

	"github.com/MYMGG/storysmith-mvp/internal/llm"
)

// ChatClient is the chat-completion surface services depend on.
type ChatClient interface {
	CompleteText(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error)
}

// ImageClient is the image-generation surface services depend on.
type ImageClient interface {
	GenerateImage(ctx context.Context, req llm.ImageRequest) (*llm.ImageResponse, error)
}

// GenerationService fronts the configured AI provider. Requests may carry
// their own API key; otherwise the configured default is applied.
type GenerationService struct {
	provider      llm.Provider
	defaultAPIKey string
}

// NewGenerationService creates a generation service over a provider.
func NewGenerationService(provider llm.Provider, defaultAPIKey string) *GenerationService {
	return &GenerationService{provider: provider, defaultAPIKey: defaultAPIKey}
}

// CompleteText runs a chat completion through the provider.
func (s *GenerationService) CompleteText(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	if req.APIKey == "" {
		req.APIKey = s.defaultAPIKey
	}
	return s.provider.CompleteText(ctx, req)
}

// GenerateImage renders one image through the provider.
func (s *GenerationService) GenerateImage(ctx context.Context, req llm.ImageRequest) (*llm.ImageResponse, error) {
	if req.APIKey == "" {
		req.APIKey = s.defaultAPIKey
	}
	return s.provider.GenerateImage(ctx, req)
}
