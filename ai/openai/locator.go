package openai

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/poiesic/conceptrag/ai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// LocationExtractor implements ai.LocationExtractor using an LLM in JSON mode.
type LocationExtractor struct {
	client  llms.Model
	limiter *limiter
	logger  *slog.Logger
}

// locationAnswer is the wrapper structure for the LLM's JSON response.
type locationAnswer struct {
	Location string `json:"location"`
}

func newLocationExtractor(config *ai.Config, limit *limiter) (*LocationExtractor, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	client, err := openai.New(
		openai.WithBaseURL(config.GenerationHost),
		openai.WithToken("none"),
		openai.WithModel(config.GenerationModel),
	)
	if err != nil {
		return nil, err
	}

	return &LocationExtractor{
		client:  client,
		limiter: limit,
		logger:  slog.Default().With("component", "openai-locator"),
	}, nil
}

// NewLocationExtractor creates a new LLM-backed location extractor.
func NewLocationExtractor(config *ai.Config) (ai.LocationExtractor, error) {
	return newLocationExtractor(config, newLimiter(config))
}

// ExtractLocation asks the model for the place named in text.
func (e *LocationExtractor) ExtractLocation(ctx context.Context, text string) (string, bool, error) {
	text = scrubString(text)
	if text == "" {
		return "", false, nil
	}

	content := []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextPart(buildLocationPrompt())},
		},
		{
			Role:  llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextPart(text)},
		},
	}

	// Try up to 3 times in case of malformed JSON
	var result locationAnswer
	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		if err := e.limiter.wait(ctx); err != nil {
			return "", false, err
		}
		response, err := e.client.GenerateContent(ctx, content, llms.WithTemperature(0.0), llms.WithJSONMode())
		if err != nil {
			e.logger.Error("failed to generate content", "attempt", attempt+1, "err", err)
			return "", false, err
		}

		if len(response.Choices) < 1 {
			e.logger.Debug("no choices returned from model")
			return "", false, nil
		}

		if lastErr = parseLocationAnswer(response.Choices[0].Content, &result); lastErr != nil {
			e.logger.Warn("error parsing locator response",
				"attempt", attempt+1,
				"response", response.Choices[0].Content,
				"err", lastErr)
			continue
		}
		break
	}

	if lastErr != nil {
		e.logger.Error("failed to parse locator response after retries", "err", lastErr)
		return "", false, lastErr
	}

	location := strings.TrimSpace(result.Location)
	return location, location != "", nil
}

// parseLocationAnswer repairs common JSON issues and decodes.
func parseLocationAnswer(raw string, out *locationAnswer) error {
	return json.Unmarshal([]byte(repairJSON(raw)), out)
}
