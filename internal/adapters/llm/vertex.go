package llm

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/genai"
)

// VertexModel implements domain.ChatModel on Vertex AI (Gemini).
type VertexModel struct {
	client      *genai.Client
	modelName   string
	temperature float32
	timeout     time.Duration
}

// NewVertexModel creates a Vertex AI chat model client.
func NewVertexModel(ctx context.Context, projectID, location, modelName string, temperature float64, timeout time.Duration) (*VertexModel, error) {
	if projectID == "" || location == "" {
		return nil, fmt.Errorf("project and location are required for the vertex provider")
	}
	if modelName == "" {
		modelName = "gemini-2.5-flash"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		Project:  projectID,
		Location: location,
		Backend:  genai.BackendVertexAI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating Vertex AI client: %w", err)
	}

	return &VertexModel{
		client:      client,
		modelName:   modelName,
		temperature: float32(temperature),
		timeout:     timeout,
	}, nil
}

// Generate sends one prompt and returns the completion text. The timeout
// lives here, not in the core: the engine never retries.
func (v *VertexModel) Generate(ctx context.Context, prompt string) (string, error) {
	if v.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, v.timeout)
		defer cancel()
	}

	temp := v.temperature
	contents := []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}

	cfg := &genai.GenerateContentConfig{
		Temperature: &temp,
	}

	res, err := v.client.Models.GenerateContent(ctx, v.modelName, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("vertex generate content: %w", err)
	}

	text := res.Text()
	if text == "" {
		return "", fmt.Errorf("vertex returned empty text")
	}
	return text, nil
}
