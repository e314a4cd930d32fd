package llm

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	ollama "github.com/ollama/ollama/api"

	"github.com/llmpc/llmpc/pkg/config"
	"github.com/llmpc/llmpc/pkg/prompts"
)

// OllamaClient runs chat completions against a local Ollama server.
type OllamaClient struct {
	client      *ollama.Client
	model       string
	temperature float64
	maxTokens   int
}

// NewOllamaClient connects to the configured server URL, or to the
// OLLAMA_HOST environment default when none is configured.
func NewOllamaClient(cfg *config.Config) (*OllamaClient, error) {
	var client *ollama.Client
	if cfg.OllamaServerURL != "" {
		base, err := url.Parse(cfg.OllamaServerURL)
		if err != nil {
			return nil, fmt.Errorf("invalid ollama server URL %q: %w", cfg.OllamaServerURL, err)
		}
		client = ollama.NewClient(base, http.DefaultClient)
	} else {
		var err error
		client, err = ollama.ClientFromEnvironment()
		if err != nil {
			return nil, fmt.Errorf("could not create ollama client: %w", err)
		}
	}

	return &OllamaClient{
		client:      client,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
	}, nil
}

// Chat sends one non-streaming chat request and returns the full response
// text.
func (c *OllamaClient) Chat(ctx context.Context, messages []prompts.Message) (string, error) {
	ollamaMessages := make([]ollama.Message, len(messages))
	for i, msg := range messages {
		ollamaMessages[i] = ollama.Message{
			Role:    msg.Role,
			Content: msg.Content,
		}
	}

	stream := false
	req := &ollama.ChatRequest{
		Model:    c.model,
		Messages: ollamaMessages,
		Stream:   &stream,
		Options: map[string]interface{}{
			"temperature": c.temperature,
			"num_predict": c.maxTokens,
		},
	}

	var content strings.Builder
	respFunc := func(res ollama.ChatResponse) error {
		content.WriteString(res.Message.Content)
		return nil
	}

	if err := c.client.Chat(ctx, req, respFunc); err != nil {
		return "", fmt.Errorf("ollama chat failed: %w", err)
	}
	return content.String(), nil
}
