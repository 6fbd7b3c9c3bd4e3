package scoring

import (
	"context"
	"fmt"
	"math"

	"github.com/shopspring/decimal"
	"github.com/viterin/vek/vek32"

	"github.com/eduintel/grader/pkg/models"
)

const (
	// NoiseFloor suppresses chance similarity between unrelated answers.
	NoiseFloor = 0.20

	StrongThreshold  = 75.0
	PartialThreshold = 45.0
)

// NewAnswerKey embeds the teacher's answers in a single batch.
func NewAnswerKey(
	ctx context.Context,
	embedder models.Embedder,
	answers models.AnswerSequence,
) (*models.AnswerKey, error) {
	key := &models.AnswerKey{Answers: answers}
	if len(answers) == 0 {
		return key, nil
	}

	embeddings, err := embed(ctx, embedder, answers)
	if err != nil {
		return nil, fmt.Errorf("failed to embed teacher answers: %w", err)
	}
	key.Embeddings = embeddings

	return key, nil
}

// Scorer compares a student's answers with an AnswerKey.
type Scorer struct {
	embedder models.Embedder
}

func NewScorer(embedder models.Embedder) *Scorer {
	return &Scorer{embedder: embedder}
}

// Score pairs teacher and student answers by position. Answers without a counterpart on the
// other side are ignored. Embedding failures and dimension mismatches are returned as errors;
// an empty answer sequence on either side is a valid zero score.
func (s *Scorer) Score(
	ctx context.Context,
	name string,
	key *models.AnswerKey,
	answers models.AnswerSequence,
) (models.StudentResult, error) {
	result := models.StudentResult{
		PDFName:   name,
		Questions: []models.QuestionResult{},
	}

	pairs := min(key.Len(), len(answers))
	if pairs == 0 {
		return result, nil
	}

	if len(key.Embeddings) < pairs {
		return result, fmt.Errorf(
			"%w: answer key has %d vectors for %d answers",
			models.ErrMalformedEmbeddings,
			len(key.Embeddings),
			key.Len(),
		)
	}

	studentEmbeddings, err := embed(ctx, s.embedder, answers)
	if err != nil {
		return result, fmt.Errorf("failed to embed answers for %s: %w", name, err)
	}

	similarities := make([]float64, 0, pairs)
	for i := 0; i < pairs; i++ {
		similarity, err := CosineSimilarity(key.Embeddings[i], studentEmbeddings[i])
		if err != nil {
			return result, fmt.Errorf("question %d of %s: %w", i+1, name, err)
		}
		similarity = ApplyNoiseFloor(similarity)
		similarities = append(similarities, similarity)

		percent := similarity * 100
		result.Questions = append(result.Questions, models.QuestionResult{
			QuestionNumber:    i + 1,
			SimilarityPercent: Round(percent),
			Status:            Classify(percent),
		})
	}

	result.PerformanceScore = Round(mean(similarities) * 100)

	return result, nil
}

func embed(
	ctx context.Context,
	embedder models.Embedder,
	texts models.AnswerSequence,
) ([][]float32, error) {
	embeddings, err := embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return nil, err
	}
	if len(embeddings) != len(texts) {
		return nil, fmt.Errorf(
			"%w: got %d vectors for %d texts",
			models.ErrMalformedEmbeddings,
			len(embeddings),
			len(texts),
		)
	}
	return embeddings, nil
}

// CosineSimilarity returns the cosine of the angle between a and b, clamped to [-1, 1].
// Zero vectors have no direction and score 0.
func CosineSimilarity(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, models.NewDimensionMismatchError(len(a), len(b))
	}
	if len(a) == 0 {
		return 0, fmt.Errorf("%w: empty vector", models.ErrMalformedEmbeddings)
	}

	similarity := float64(vek32.CosineSimilarity(a, b))
	switch {
	case math.IsNaN(similarity):
		return 0, nil
	case similarity > 1:
		return 1, nil
	case similarity < -1:
		return -1, nil
	}
	return similarity, nil
}

// ApplyNoiseFloor maps anything below NoiseFloor, including negative similarity, to 0.
func ApplyNoiseFloor(similarity float64) float64 {
	if similarity < NoiseFloor {
		return 0
	}
	return similarity
}

// Classify maps an unrounded similarity percentage to a Status. First match wins.
func Classify(percent float64) models.Status {
	switch {
	case percent >= StrongThreshold:
		return models.StatusStrong
	case percent >= PartialThreshold:
		return models.StatusPartial
	case percent > 0:
		return models.StatusWeak
	default:
		return models.StatusNotRelated
	}
}

// Round rounds to two decimal places, half away from zero.
func Round(value float64) float64 {
	return decimal.NewFromFloat(value).Round(2).InexactFloat64()
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
