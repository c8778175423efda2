package llm

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/hammamikhairi/grocery/internal/logger"
)

// DefaultGeminiModel is used when no model is configured.
const DefaultGeminiModel = "gemini-2.5-flash"

// GeminiOption configures the GeminiClient.
type GeminiOption func(*geminiSettings)

type geminiSettings struct {
	model       string
	temperature float32
	maxTokens   int32
	baseURL     string
}

// WithGeminiModel overrides DefaultGeminiModel.
func WithGeminiModel(model string) GeminiOption {
	return func(s *geminiSettings) {
		if model != "" {
			s.model = model
		}
	}
}

// WithGeminiTemperature sets the sampling temperature.
func WithGeminiTemperature(t float64) GeminiOption {
	return func(s *geminiSettings) { s.temperature = float32(t) }
}

// WithGeminiMaxTokens sets the output token limit.
func WithGeminiMaxTokens(n int) GeminiOption {
	return func(s *geminiSettings) {
		if n > 0 {
			s.maxTokens = int32(n)
		}
	}
}

// WithGeminiBaseURL points the client at a different API host.
func WithGeminiBaseURL(u string) GeminiOption {
	return func(s *geminiSettings) { s.baseURL = u }
}

// GeminiClient answers prompts through the Gemini API.
type GeminiClient struct {
	client   *genai.Client
	model    string
	settings geminiSettings
	log      *logger.Logger
}

// NewGeminiClient creates a Gemini-backed language model.
func NewGeminiClient(ctx context.Context, apiKey string, log *logger.Logger, opts ...GeminiOption) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("llm: gemini API key is required")
	}

	s := geminiSettings{
		model:       DefaultGeminiModel,
		temperature: 0.2,
		maxTokens:   4096,
	}
	for _, o := range opts {
		o(&s)
	}

	cc := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if s.baseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: s.baseURL}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("llm: create gemini client: %w", err)
	}

	return &GeminiClient{
		client:   client,
		model:    s.model,
		settings: s,
		log:      log.Named("gemini"),
	}, nil
}

// Complete sends one system + user exchange and returns the reply text.
func (g *GeminiClient) Complete(ctx context.Context, system, user string) (string, error) {
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
		Temperature:       genai.Ptr(g.settings.temperature),
		MaxOutputTokens:   g.settings.maxTokens,
	}

	g.log.Debug("generateContent model=%s (%d chars)", g.model, len(user))

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(user), cfg)
	if err != nil {
		return "", fmt.Errorf("llm: gemini generate: %w", err)
	}

	reply := resp.Text()
	if reply == "" {
		return "", fmt.Errorf("llm: empty response (no candidates)")
	}
	g.log.Debug("reply (%d chars): %s", len(reply), truncate(reply, 120))
	return reply, nil
}
