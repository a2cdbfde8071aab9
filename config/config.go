// Package config loads engine configuration from YAML files.
//
// Every field has a default; a file only needs the keys it changes. Unknown
// keys are rejected so typos surface at startup.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/poiesic/conceptrag/ai"
	"github.com/poiesic/conceptrag/extract"
	"github.com/poiesic/conceptrag/ingestion"
	"github.com/poiesic/conceptrag/search"
	"github.com/poiesic/conceptrag/selector"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is returned when a configuration fails validation.
var ErrInvalidConfig = errors.New("invalid configuration")

// Tokenizers accepted by Context.Tokenizer.
const (
	TokenizerChars    = "chars"
	TokenizerTiktoken = "tiktoken"
)

// Config is the complete engine configuration.
type Config struct {
	Storage    Storage    `yaml:"storage"`
	AI         AI         `yaml:"ai"`
	Extraction Extraction `yaml:"extraction"`
	Chunking   Chunking   `yaml:"chunking"`
	Retrieval  Retrieval  `yaml:"retrieval"`
	Selector   Selector   `yaml:"selector"`
	Context    Context    `yaml:"context"`
	Ingestion  Ingestion  `yaml:"ingestion"`
}

type Storage struct {
	Path     string `yaml:"path"`
	InMemory bool   `yaml:"in_memory"`
}

type AI struct {
	EmbeddingHost     string  `yaml:"embedding_host"`
	GenerationHost    string  `yaml:"generation_host"`
	EmbeddingModel    string  `yaml:"embedding_model"`
	GenerationModel   string  `yaml:"generation_model"`
	Temperature       float64 `yaml:"temperature"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
}

type Extraction struct {
	MinWeight float64 `yaml:"min_weight"`
	Blend     float64 `yaml:"blend"`
}

type Chunking struct {
	Size    int `yaml:"size"`
	Overlap int `yaml:"overlap"`
	Min     int `yaml:"min"`
}

type Weights struct {
	Overlap   float64 `yaml:"overlap"`
	Semantic  float64 `yaml:"semantic"`
	Coherence float64 `yaml:"coherence"`
}

type Retrieval struct {
	Weights           Weights       `yaml:"weights"`
	MinRelevance      float64       `yaml:"min_relevance"`
	Concurrency       int           `yaml:"concurrency"`
	SimilarityTimeout time.Duration `yaml:"similarity_timeout"`
	NeighborK         int           `yaml:"neighbor_k"`
	NeighborMinScore  float64       `yaml:"neighbor_min_score"`
	ScanLimit         int           `yaml:"scan_limit"`
	CategoryLimit     int           `yaml:"category_limit"`
	TopK              int           `yaml:"top_k"`
}

type Selector struct {
	GreetingMaxLength int     `yaml:"greeting_max_length"`
	GreetingMaxWords  int     `yaml:"greeting_max_words"`
	ConceptFloor      float64 `yaml:"concept_floor"`
	WeatherThreshold  float64 `yaml:"weather_threshold"`
	ConceptThreshold  float64 `yaml:"concept_threshold"`
	// LLMLocator switches location extraction from patterns to the generation model.
	LLMLocator bool `yaml:"llm_locator"`
}

type Context struct {
	Window      int    `yaml:"window"`
	TokenBudget int    `yaml:"token_budget"`
	Tokenizer   string `yaml:"tokenizer"`
	Encoding    string `yaml:"encoding"`
}

type Ingestion struct {
	PoolSize int `yaml:"pool_size"`
}

// Default returns the built-in configuration.
func Default() *Config {
	aiDefaults := ai.DefaultConfig()
	weights := search.DefaultWeights()
	thresholds := selector.DefaultThresholds()
	return &Config{
		Storage: Storage{Path: "conceptrag.db"},
		AI: AI{
			EmbeddingHost:     aiDefaults.EmbeddingHost,
			GenerationHost:    aiDefaults.GenerationHost,
			EmbeddingModel:    aiDefaults.EmbeddingModel,
			GenerationModel:   aiDefaults.GenerationModel,
			Temperature:       aiDefaults.Temperature,
			RequestsPerSecond: aiDefaults.RequestsPerSecond,
			Burst:             aiDefaults.Burst,
		},
		Extraction: Extraction{MinWeight: extract.DefaultMinWeight, Blend: extract.DefaultBlend},
		Chunking: Chunking{
			Size:    ingestion.DefaultChunkSize,
			Overlap: ingestion.DefaultChunkOverlap,
			Min:     ingestion.DefaultMinChunkSize,
		},
		Retrieval: Retrieval{
			Weights:           Weights(weights),
			MinRelevance:      0.15,
			Concurrency:       8,
			SimilarityTimeout: 5 * time.Second,
			NeighborK:         20,
			NeighborMinScore:  0.3,
			ScanLimit:         512,
			CategoryLimit:     256,
			TopK:              5,
		},
		Selector: Selector{
			GreetingMaxLength: thresholds.GreetingMaxLength,
			GreetingMaxWords:  thresholds.GreetingMaxWords,
			ConceptFloor:      thresholds.ConceptFloor,
			WeatherThreshold:  thresholds.WeatherThreshold,
			ConceptThreshold:  thresholds.ConceptThreshold,
		},
		Context: Context{
			Window:      1,
			TokenBudget: 1500,
			Tokenizer:   TokenizerChars,
			Encoding:    "cl100k_base",
		},
		Ingestion: Ingestion{PoolSize: 2},
	}
}

// Load reads path over the defaults and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML over the defaults and validates the result.
// An empty document yields the defaults.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks every section.
func (c *Config) Validate() error {
	if !c.Storage.InMemory && c.Storage.Path == "" {
		return fmt.Errorf("%w: storage path is required unless in_memory is set", ErrInvalidConfig)
	}
	if err := c.AIConfig().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if c.Extraction.MinWeight < 0 || c.Extraction.MinWeight > 1 {
		return fmt.Errorf("%w: extraction min_weight %f outside [0,1]", ErrInvalidConfig, c.Extraction.MinWeight)
	}
	if c.Extraction.Blend < 0 || c.Extraction.Blend > 1 {
		return fmt.Errorf("%w: extraction blend %f outside [0,1]", ErrInvalidConfig, c.Extraction.Blend)
	}
	if _, err := c.Chunker(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := c.SearchWeights().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	r := c.Retrieval
	if r.MinRelevance < 0 || r.MinRelevance > 1 || r.NeighborMinScore < 0 || r.NeighborMinScore > 1 {
		return fmt.Errorf("%w: retrieval scores must be within [0,1]", ErrInvalidConfig)
	}
	if r.Concurrency < 1 || r.TopK < 1 || r.NeighborK < 0 || r.ScanLimit < 0 || r.CategoryLimit < 0 {
		return fmt.Errorf("%w: retrieval concurrency and top_k must be positive, neighbor_k, scan_limit and category_limit non-negative", ErrInvalidConfig)
	}
	if r.SimilarityTimeout <= 0 {
		return fmt.Errorf("%w: similarity_timeout must be positive", ErrInvalidConfig)
	}
	if err := c.Thresholds().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if c.Context.Window < 0 || c.Context.TokenBudget < 0 {
		return fmt.Errorf("%w: context window and token_budget must not be negative", ErrInvalidConfig)
	}
	switch c.Context.Tokenizer {
	case TokenizerChars:
	case TokenizerTiktoken:
		if c.Context.Encoding == "" {
			return fmt.Errorf("%w: tiktoken tokenizer needs an encoding", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown tokenizer %q", ErrInvalidConfig, c.Context.Tokenizer)
	}
	if c.Ingestion.PoolSize < 1 {
		return fmt.Errorf("%w: ingestion pool_size must be positive", ErrInvalidConfig)
	}
	return nil
}

// AIConfig converts the AI section.
func (c *Config) AIConfig() *ai.Config {
	return &ai.Config{
		EmbeddingHost:     c.AI.EmbeddingHost,
		GenerationHost:    c.AI.GenerationHost,
		EmbeddingModel:    c.AI.EmbeddingModel,
		GenerationModel:   c.AI.GenerationModel,
		Temperature:       c.AI.Temperature,
		RequestsPerSecond: c.AI.RequestsPerSecond,
		Burst:             c.AI.Burst,
	}
}

// SearchWeights converts the retrieval weights.
func (c *Config) SearchWeights() search.Weights {
	return search.Weights(c.Retrieval.Weights)
}

// Thresholds converts the selector section.
func (c *Config) Thresholds() selector.Thresholds {
	return selector.Thresholds{
		GreetingMaxLength: c.Selector.GreetingMaxLength,
		GreetingMaxWords:  c.Selector.GreetingMaxWords,
		ConceptFloor:      c.Selector.ConceptFloor,
		WeatherThreshold:  c.Selector.WeatherThreshold,
		ConceptThreshold:  c.Selector.ConceptThreshold,
	}
}

// Chunker builds the configured chunker.
func (c *Config) Chunker() (*ingestion.Chunker, error) {
	return ingestion.NewChunker(c.Chunking.Size, c.Chunking.Overlap, c.Chunking.Min)
}
