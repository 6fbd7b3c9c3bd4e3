package models

import (
	"context"
)

// TextExtractor turns one document into raw text. Implementations never fail; they
// degrade to an empty string.
type TextExtractor interface {
	Extract(ctx context.Context, doc Document) string
}

// PageImage is one rasterized page. Number is 1-based.
type PageImage struct {
	Number int
	Image  []byte
}

// Rasterizer renders every page of a document to an image, in page order.
type Rasterizer interface {
	Rasterize(ctx context.Context, doc Document) ([]PageImage, error)
}

// Recognizer runs text recognition over a single page image.
type Recognizer interface {
	Recognize(ctx context.Context, image []byte) (string, error)
}

// Segmenter splits raw text into answers.
type Segmenter interface {
	Segment(text string) AnswerSequence
}
