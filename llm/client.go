// Package llm is the gateway to the external language model: a black-box
// request/response collaborator with a mandatory timeout, whose JSON output
// is schema-checked before anything downstream trusts it.
package llm

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// Client produces a structured plan response for a prompt. The returned
// bytes are raw JSON; callers run them through ValidateResponse/DecodePlan.
// Implementations must honor ctx cancellation; the caller owns the timeout.
type Client interface {
	GeneratePlan(ctx context.Context, prompt string) ([]byte, error)
}

// GenAIClient is the production client over Google's genai SDK, asking for
// JSON-mode output.
type GenAIClient struct {
	client *genai.Client
	model  string
}

func NewGenAIClient(ctx context.Context, apiKey, model string) (*GenAIClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("genai API key is required")
	}
	if model == "" {
		model = "gemini-2.5-flash"
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &GenAIClient{client: client, model: model}, nil
}

// Unavailable returns a client that fails every request. Used when no API
// key is configured so the commander degrades to fallback plans instead of
// dereferencing a nil client.
func Unavailable() Client { return unavailable{} }

type unavailable struct{}

func (unavailable) GeneratePlan(context.Context, string) ([]byte, error) {
	return nil, fmt.Errorf("no LLM client configured")
}

func (g *GenAIClient) GeneratePlan(ctx context.Context, prompt string) ([]byte, error) {
	result, err := g.client.Models.GenerateContent(ctx,
		g.model,
		genai.Text(prompt),
		&genai.GenerateContentConfig{
			ResponseMIMEType: "application/json",
		},
	)
	if err != nil {
		return nil, fmt.Errorf("generate plan: %w", err)
	}
	text := result.Text()
	if text == "" {
		return nil, fmt.Errorf("generate plan: empty response")
	}
	return []byte(text), nil
}
