package openai

import (
	"context"
	"log/slog"
	"strings"

	"github.com/poiesic/conceptrag/ai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// Generator implements ai.Generator using OpenAI-compatible chat APIs.
type Generator struct {
	client      llms.Model
	temperature float64
	limiter     *limiter
	logger      *slog.Logger
}

func newGenerator(config *ai.Config, limit *limiter) (*Generator, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	// Use "none" as token for local OpenAI-compatible services that don't require authentication
	client, err := openai.New(
		openai.WithBaseURL(config.GenerationHost),
		openai.WithToken("none"),
		openai.WithModel(config.GenerationModel),
	)
	if err != nil {
		return nil, err
	}

	return &Generator{
		client:      client,
		temperature: config.Temperature,
		limiter:     limit,
		logger:      slog.Default().With("component", "openai-generator"),
	}, nil
}

// NewGenerator creates a new answer generator using the provided configuration.
func NewGenerator(config *ai.Config) (ai.Generator, error) {
	return newGenerator(config, newLimiter(config))
}

// Generate sends prompt as a single user message and returns the completion.
func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	if err := g.limiter.wait(ctx); err != nil {
		return "", err
	}

	g.logger.Debug("generating answer", "prompt_length", len(prompt))
	out, err := llms.GenerateFromSinglePrompt(ctx, g.client, prompt, llms.WithTemperature(g.temperature))
	if err != nil {
		g.logger.Error("failed to generate answer", "err", err)
		return "", err
	}
	return strings.TrimSpace(out), nil
}
