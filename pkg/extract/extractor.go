package extract

import (
	"context"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/eduintel/grader/config"
	"github.com/eduintel/grader/internal"
	"github.com/eduintel/grader/pkg/models"
)

var log = internal.GetLogger()

const (
	// DefaultMinTextLength is the trimmed length structured text must exceed before the
	// recognition fallback is skipped. Shorter output usually means a scanned document with
	// no text layer.
	DefaultMinTextLength = 50
	DefaultConcurrency   = 4
)

// StructuredExtractor reads a document's embedded text layer.
type StructuredExtractor func(doc models.Document) (string, error)

var _ models.TextExtractor = &Extractor{}

// Extractor reads the text layer of a document and falls back to page-by-page text
// recognition when the text layer is missing or too short.
type Extractor struct {
	structured    StructuredExtractor
	rasterizer    models.Rasterizer
	recognizer    models.Recognizer
	minTextLength int
	concurrency   int
}

type Option func(*Extractor)

// WithStructuredExtractor replaces the PDF text-layer reader.
func WithStructuredExtractor(fn StructuredExtractor) Option {
	return func(e *Extractor) {
		if fn != nil {
			e.structured = fn
		}
	}
}

// WithOCR enables the recognition fallback. Either argument being nil disables it.
func WithOCR(rasterizer models.Rasterizer, recognizer models.Recognizer) Option {
	return func(e *Extractor) {
		e.rasterizer = rasterizer
		e.recognizer = recognizer
	}
}

func WithMinTextLength(n int) Option {
	return func(e *Extractor) {
		if n >= 0 {
			e.minTextLength = n
		}
	}
}

// WithConcurrency bounds the number of pages recognized at once.
func WithConcurrency(n int) Option {
	return func(e *Extractor) {
		if n > 0 {
			e.concurrency = n
		}
	}
}

func NewExtractor(opts ...Option) *Extractor {
	e := &Extractor{
		structured:    ExtractPDFText,
		minTextLength: DefaultMinTextLength,
		concurrency:   DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// NewExtractorFromConfig wires pdftoppm and tesseract when OCR is enabled.
func NewExtractorFromConfig(cfg *config.Config) *Extractor {
	opts := []Option{
		WithMinTextLength(cfg.Extractor.MinTextLength),
		WithConcurrency(cfg.Extractor.OCR.Concurrency),
	}
	ocr := cfg.Extractor.OCR
	if ocr.Enabled {
		opts = append(opts, WithOCR(
			NewPopplerRasterizer(ocr.PdftoppmCmd, ocr.DPI),
			NewTesseractRecognizer(ocr.TesseractCmd, ocr.Language),
		))
	}
	return NewExtractor(opts...)
}

// Extract never fails: parse errors fall through to recognition and recognition errors
// degrade to empty text.
func (e *Extractor) Extract(ctx context.Context, doc models.Document) string {
	logger := log.WithField("document", doc.Name)

	text, err := e.structured(doc)
	if err != nil {
		logger.Warnf("structured extraction failed: %v", err)
	} else if len(strings.TrimSpace(text)) > e.minTextLength {
		return text
	}

	if e.rasterizer == nil || e.recognizer == nil {
		logger.Warn("text layer missing or too short and OCR is disabled")
		return ""
	}

	logger.Info("text layer missing or too short, switching to OCR")
	return e.recognize(ctx, doc, logger)
}

func (e *Extractor) recognize(ctx context.Context, doc models.Document, logger *logrus.Entry) string {
	start := time.Now()

	pages, err := e.rasterizer.Rasterize(ctx, doc)
	if err != nil {
		logger.Errorf("failed to rasterize document: %v", err)
		return ""
	}

	texts := make([]string, len(pages))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)
	for i, page := range pages {
		i, page := i, page
		g.Go(func() error {
			pageText, err := e.recognizer.Recognize(gctx, page.Image)
			if err != nil {
				logger.Errorf("failed to recognize page %d: %v", page.Number, err)
				return nil
			}
			texts[i] = pageText
			return nil
		})
	}
	_ = g.Wait()

	var b strings.Builder
	for _, pageText := range texts {
		b.WriteString(pageText)
		b.WriteString("\n")
	}

	logger.WithFields(logrus.Fields{
		"pages":    len(pages),
		"duration": time.Since(start),
	}).Debug("OCR complete")

	return b.String()
}
