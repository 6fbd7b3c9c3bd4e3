package grading

import (
	"context"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/eduintel/grader/config"
	"github.com/eduintel/grader/internal"
	"github.com/eduintel/grader/pkg/extract"
	"github.com/eduintel/grader/pkg/models"
	"github.com/eduintel/grader/pkg/scoring"
	"github.com/eduintel/grader/pkg/segment"
)

var log = internal.GetLogger()

const (
	DefaultWorkers        = 4
	DefaultRequestTimeout = 5 * time.Minute
)

var _ models.Grader = &Grader{}

// Grader runs extraction, segmentation and scoring for one teacher document and a batch of
// student documents.
type Grader struct {
	extractor models.TextExtractor
	segmenter models.Segmenter
	embedder  models.Embedder
	scorer    *scoring.Scorer
	workers   int
	timeout   time.Duration
}

type Option func(*Grader)

func WithExtractor(extractor models.TextExtractor) Option {
	return func(g *Grader) {
		g.extractor = extractor
	}
}

func WithSegmenter(segmenter models.Segmenter) Option {
	return func(g *Grader) {
		g.segmenter = segmenter
	}
}

func WithWorkers(n int) Option {
	return func(g *Grader) {
		if n > 0 {
			g.workers = n
		}
	}
}

// WithTimeout bounds a single Grade call. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(g *Grader) {
		if d >= 0 {
			g.timeout = d
		}
	}
}

func NewGrader(embedder models.Embedder, opts ...Option) *Grader {
	g := &Grader{
		extractor: extract.NewExtractor(),
		segmenter: segment.NewSegmenter(segment.DefaultMinAnswerLength),
		embedder:  embedder,
		scorer:    scoring.NewScorer(embedder),
		workers:   DefaultWorkers,
		timeout:   DefaultRequestTimeout,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func NewGraderFromConfig(cfg *config.Config, embedder models.Embedder) *Grader {
	return NewGrader(
		embedder,
		WithExtractor(extract.NewExtractorFromConfig(cfg)),
		WithSegmenter(segment.NewSegmenter(cfg.Grading.MinAnswerLength)),
		WithWorkers(cfg.Grading.Workers),
		WithTimeout(cfg.Grading.RequestTimeout),
	)
}

// Grade returns one result per student in upload order. A teacher document without any
// answers fails with models.ErrNoTeacherAnswers. Embedding failures abort the whole batch.
func (g *Grader) Grade(
	ctx context.Context,
	teacher models.Document,
	students []models.Document,
) (*models.GradingReport, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	report := &models.GradingReport{
		ID:          uuid.New(),
		TeacherName: teacher.Name,
		Results:     make([]models.StudentResult, len(students)),
	}
	logger := log.WithField("report", report.ID)
	start := time.Now()

	teacherText := g.extractor.Extract(ctx, teacher)
	// extraction degrades to empty text on cancellation; that must not read as a blank document
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("failed to extract %s: %w", teacher.Name, err)
	}
	teacherAnswers := g.segmenter.Segment(teacherText)
	if len(teacherAnswers) == 0 {
		return nil, fmt.Errorf("%s: %w", teacher.Name, models.ErrNoTeacherAnswers)
	}
	logger.WithFields(logrus.Fields{
		"teacher": teacher.Name,
		"size":    humanize.Bytes(uint64(teacher.Size)),
		"answers": len(teacherAnswers),
	}).Info("answer key extracted")

	key, err := scoring.NewAnswerKey(ctx, g.embedder, teacherAnswers)
	if err != nil {
		return nil, err
	}

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(g.workers)
	for i, student := range students {
		i, student := i, student
		eg.Go(func() error {
			result, err := g.gradeStudent(egCtx, key, student)
			if err != nil {
				return fmt.Errorf("failed to grade %s: %w", student.Name, err)
			}
			report.Results[i] = result
			logger.WithFields(logrus.Fields{
				"student":   student.Name,
				"questions": len(result.Questions),
				"score":     result.PerformanceScore,
			}).Debug("student graded")
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	logger.WithFields(logrus.Fields{
		"students": len(students),
		"duration": time.Since(start),
	}).Info("grading complete")

	return report, nil
}

func (g *Grader) gradeStudent(
	ctx context.Context,
	key *models.AnswerKey,
	student models.Document,
) (models.StudentResult, error) {
	text := g.extractor.Extract(ctx, student)
	if err := ctx.Err(); err != nil {
		return models.StudentResult{}, err
	}
	answers := g.segmenter.Segment(text)
	return g.scorer.Score(ctx, student.Name, key, answers)
}
