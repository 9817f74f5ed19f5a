package integration

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"

	"github.com/Imtihan-Edutech/Swanirbhar/internal/config"
	"github.com/Imtihan-Edutech/Swanirbhar/internal/models"
)

var ErrAssistantDisabled = errors.New("assistant is not configured")

// Assistant produces the next reply for a conversation.
type Assistant interface {
	Reply(ctx context.Context, history []models.ChatMessage) (string, error)
}

type openAIAssistant struct {
	client       *openai.Client
	model        string
	systemPrompt string
	temperature  float32
	maxTokens    int
	logger       zerolog.Logger
}

// NewOpenAIAssistant talks to any OpenAI-compatible chat completions endpoint.
func NewOpenAIAssistant(cfg config.AssistantConfig, logger zerolog.Logger) Assistant {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	}

	return &openAIAssistant{
		client:       openai.NewClientWithConfig(clientConfig),
		model:        cfg.Model,
		systemPrompt: cfg.SystemPrompt,
		temperature:  float32(cfg.Temperature),
		maxTokens:    cfg.MaxTokens,
		logger:       logger,
	}
}

func (a *openAIAssistant) Reply(ctx context.Context, history []models.ChatMessage) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(history)+1)
	if a.systemPrompt != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: a.systemPrompt,
		})
	}
	for _, m := range history {
		role := openai.ChatMessageRoleUser
		if m.Role == models.ChatRoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		messages = append(messages, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}

	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       a.model,
		Messages:    messages,
		Temperature: a.temperature,
		MaxTokens:   a.maxTokens,
	})
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			a.logger.Error().
				Int("status", apiErr.HTTPStatusCode).
				Str("type", apiErr.Type).
				Msg("Assistant API error")
		}
		return "", fmt.Errorf("chat completion failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", errors.New("chat completion returned no choices")
	}

	a.logger.Debug().
		Str("model", a.model).
		Int("prompt_tokens", resp.Usage.PromptTokens).
		Int("completion_tokens", resp.Usage.CompletionTokens).
		Msg("Assistant replied")

	return resp.Choices[0].Message.Content, nil
}

type disabledAssistant struct{}

func NewDisabledAssistant() Assistant {
	return disabledAssistant{}
}

func (disabledAssistant) Reply(context.Context, []models.ChatMessage) (string, error) {
	return "", ErrAssistantDisabled
}
