package models

import (
	"bytes"
	"io"
)

// Document is an uploaded answer sheet. Content is read through io.ReaderAt so the structured
// extractor and the recognition fallback can both read it from the start without a rewind.
// A Document is owned by a single grading request and never mutated.
type Document struct {
	Name    string
	Content io.ReaderAt
	Size    int64
}

// NewDocument wraps an in-memory payload.
func NewDocument(name string, data []byte) Document {
	return Document{
		Name:    name,
		Content: bytes.NewReader(data),
		Size:    int64(len(data)),
	}
}

// Reader returns a fresh reader positioned at the start of the document.
func (d Document) Reader() io.Reader {
	if d.Content == nil {
		return bytes.NewReader(nil)
	}
	return io.NewSectionReader(d.Content, 0, d.Size)
}

// AnswerSequence is the ordered list of answers found in one document. The position of an
// answer, not the number printed next to it, identifies the question.
type AnswerSequence []string

// AnswerKey holds the teacher's answers and their embeddings. It is computed once per
// request and shared read-only by every student.
type AnswerKey struct {
	Answers    AnswerSequence
	Embeddings [][]float32
}

// Len returns the number of answers in the key.
func (k *AnswerKey) Len() int {
	if k == nil {
		return 0
	}
	return len(k.Answers)
}
