package segment

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/eduintel/grader/pkg/models"
)

// DefaultMinAnswerLength is the number of characters an answer must exceed to be kept.
// Shorter fragments are stray headers, page numbers or trailing matter.
const DefaultMinAnswerLength = 20

// markerPattern matches question markers such as "1.", "13." or "Q2.".
var markerPattern = regexp.MustCompile(`\bQ?\d+\.`)

var _ models.Segmenter = &Segmenter{}

// Segmenter splits raw text into an ordered AnswerSequence on numbered question markers.
type Segmenter struct {
	minLength int
}

// NewSegmenter returns a Segmenter keeping answers longer than minLength characters.
// A negative minLength selects DefaultMinAnswerLength.
func NewSegmenter(minLength int) *Segmenter {
	if minLength < 0 {
		minLength = DefaultMinAnswerLength
	}
	return &Segmenter{minLength: minLength}
}

// Segment never fails. Text without markers is treated as a single candidate answer.
func (s *Segmenter) Segment(text string) models.AnswerSequence {
	parts := markerPattern.Split(text, -1)

	answers := make(models.AnswerSequence, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if utf8.RuneCountInString(part) > s.minLength {
			answers = append(answers, part)
		}
	}

	return answers
}

// Segment splits text using DefaultMinAnswerLength.
func Segment(text string) models.AnswerSequence {
	return NewSegmenter(DefaultMinAnswerLength).Segment(text)
}
