package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// OpenAIModel implements domain.ChatModel on any OpenAI-compatible endpoint.
// Pointing BaseURL at an Ollama server covers local models too.
type OpenAIModel struct {
	llm         *openai.LLM
	temperature float64
	timeout     time.Duration
}

func NewOpenAIModel(apiKey, baseURL, modelName string, temperature float64, timeout time.Duration) (*OpenAIModel, error) {
	if modelName == "" {
		modelName = "gpt-4o"
	}

	opts := []openai.Option{openai.WithModel(modelName)}
	if apiKey != "" {
		opts = append(opts, openai.WithToken(apiKey))
	}
	if baseURL != "" {
		opts = append(opts, openai.WithBaseURL(baseURL))
	}

	client, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("creating openai client: %w", err)
	}

	return &OpenAIModel{llm: client, temperature: temperature, timeout: timeout}, nil
}

func (o *OpenAIModel) Generate(ctx context.Context, prompt string) (string, error) {
	if o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}

	text, err := llms.GenerateFromSinglePrompt(ctx, o.llm, prompt,
		llms.WithTemperature(o.temperature))
	if err != nil {
		return "", fmt.Errorf("openai generate: %w", err)
	}
	return text, nil
}
