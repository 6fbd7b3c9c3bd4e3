package llms

import (
	"fmt"

	"github.com/eduintel/grader/config"
	"github.com/eduintel/grader/internal"
	"github.com/eduintel/grader/pkg/models"
)

var log = internal.GetLogger()

const (
	EmbeddingsServiceLocal  = "local"
	EmbeddingsServiceOpenAI = "openai"
)

type EmbeddingsClientError struct {
	message       string
	originalError error
}

func (e *EmbeddingsClientError) Error() string {
	if e.originalError == nil {
		return "embeddings client error: " + e.message
	}
	return fmt.Sprintf("embeddings client error: %s (original error: %v)", e.message, e.originalError)
}

func (e *EmbeddingsClientError) Unwrap() error {
	return e.originalError
}

func NewEmbeddingsClientError(message string, originalError error) *EmbeddingsClientError {
	return &EmbeddingsClientError{message: message, originalError: originalError}
}

// NewEmbedder creates the process-wide embedder selected by embeddings.service.
func NewEmbedder(cfg *config.Config) (models.Embedder, error) {
	switch cfg.Embeddings.Service {
	case EmbeddingsServiceLocal, "":
		return NewLocalEmbedder(cfg)
	case EmbeddingsServiceOpenAI:
		return NewOpenAIEmbedder(cfg)
	default:
		return nil, fmt.Errorf("invalid embeddings service: %s", cfg.Embeddings.Service)
	}
}

// GetEmbeddingModel describes the configured model. Vectors from different models are not
// comparable.
func GetEmbeddingModel(cfg *config.Config) *models.EmbeddingModel {
	service := cfg.Embeddings.Service
	if service == "" {
		service = EmbeddingsServiceLocal
	}
	return &models.EmbeddingModel{
		Service:    service,
		Name:       cfg.Embeddings.Model,
		Dimensions: cfg.Embeddings.Dimensions,
	}
}

// validateEmbeddings checks that there is one non-empty vector per text and that all vectors
// share a dimension, which must equal dimensions when it is non-zero.
func validateEmbeddings(embeddings [][]float32, texts int, dimensions int) error {
	if len(embeddings) != texts {
		return fmt.Errorf(
			"%w: got %d vectors for %d texts",
			models.ErrMalformedEmbeddings,
			len(embeddings),
			texts,
		)
	}
	expected := dimensions
	for i, v := range embeddings {
		if len(v) == 0 {
			return fmt.Errorf("%w: vector %d is empty", models.ErrMalformedEmbeddings, i)
		}
		if expected == 0 {
			expected = len(v)
		}
		if len(v) != expected {
			return models.NewDimensionMismatchError(expected, len(v))
		}
	}
	return nil
}
