// Package embeddings provides the embedding provider used to fingerprint
// notes and search queries.
//
// The provider wraps langchaingo's OpenAI-compatible embedding client. It is
// deliberately tri-state: an unconfigured provider (no API key) reports
// Available() == false and callers fall back to lexical search; a configured
// provider that fails returns an error wrapping ErrEmbeddingFailed. The two
// conditions must never be conflated.
//
// Example:
//
//	svc, err := embeddings.NewService(embeddings.Config{
//	    BaseURL: "https://api.openai.com/v1",
//	    Model:   "text-embedding-3-small",
//	    APIKey:  os.Getenv("OPENAI_API_KEY"),
//	}, logger, metrics)
//	if svc.Available() {
//	    vec, err := svc.Embed(ctx, "hello world")
//	}
package embeddings

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
	"go.uber.org/zap"
)

var (
	// ErrEmptyInput indicates an empty input text.
	ErrEmptyInput = errors.New("empty input text")

	// ErrInvalidConfig indicates invalid configuration.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrUnavailable indicates the provider is not configured. This is an
	// expected condition, not a failure; callers use the lexical fallback.
	ErrUnavailable = errors.New("embedding provider not configured")

	// ErrEmbeddingFailed indicates the configured provider failed.
	ErrEmbeddingFailed = errors.New("embedding generation failed")
)

// Provider generates a fixed-length vector for a text.
//
// Implementations must invoke the upstream model at most once per call and
// must not retry internally.
type Provider interface {
	// Available reports whether the provider is configured. Callers decide
	// between semantic and lexical search on this before embedding.
	Available() bool

	// Embed maps text to its embedding vector. Returns ErrUnavailable when
	// the provider is not configured, or an ErrEmbeddingFailed-wrapped error
	// when the configured provider fails.
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Config holds configuration for the embedding service.
type Config struct {
	// BaseURL is the OpenAI-compatible API base URL.
	BaseURL string

	// Model is the embedding model name.
	Model string

	// APIKey authenticates against the API. Empty means not configured.
	APIKey string
}

// Validate validates the configuration.
func (c Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("%w: base URL required", ErrInvalidConfig)
	}
	if c.Model == "" {
		return fmt.Errorf("%w: model required", ErrInvalidConfig)
	}
	return nil
}

// Service implements Provider on top of langchaingo.
//
// The underlying client is constructed lazily on first use and never mutated
// afterwards; the sync.Once guard makes concurrent first use safe.
type Service struct {
	config  Config
	logger  *zap.Logger
	metrics *Metrics

	initOnce sync.Once
	embedder embeddings.Embedder
	initErr  error
}

// NewService creates an embedding service. An empty API key yields a valid
// but unavailable service.
func NewService(config Config, logger *zap.Logger, metrics *Metrics) (*Service, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	return &Service{
		config:  config,
		logger:  logger,
		metrics: metrics,
	}, nil
}

// Available reports whether an API key is configured.
func (s *Service) Available() bool {
	return s.config.APIKey != ""
}

// Embed generates the embedding vector for a single text.
func (s *Service) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyInput
	}
	if !s.Available() {
		return nil, ErrUnavailable
	}

	s.initOnce.Do(s.init)
	if s.initErr != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmbeddingFailed, s.initErr)
	}

	start := time.Now()
	vector, err := s.embedder.EmbedQuery(ctx, text)
	s.metrics.Observe(s.config.Model, "embed_query", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmbeddingFailed, err)
	}
	if len(vector) == 0 {
		return nil, fmt.Errorf("%w: empty vector returned", ErrEmbeddingFailed)
	}

	return vector, nil
}

// init builds the langchaingo client. Called once, under the initOnce guard.
func (s *Service) init() {
	llm, err := openai.New(
		openai.WithBaseURL(s.config.BaseURL),
		openai.WithEmbeddingModel(s.config.Model),
		openai.WithToken(s.config.APIKey),
	)
	if err != nil {
		s.initErr = fmt.Errorf("creating OpenAI client: %w", err)
		return
	}

	embedder, err := embeddings.NewEmbedder(llm)
	if err != nil {
		s.initErr = fmt.Errorf("creating embedder: %w", err)
		return
	}

	s.embedder = embedder
	s.logger.Info("embedding client initialized",
		zap.String("base_url", s.config.BaseURL),
		zap.String("model", s.config.Model))
}
