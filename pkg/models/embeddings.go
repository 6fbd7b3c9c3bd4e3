package models

import "context"

// Embedder computes one fixed-length vector per input text. An Embedder is created once per
// process and must be safe for concurrent use. Vectors produced by different models must
// never be compared.
type Embedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

type EmbeddingModel struct {
	Service    string `json:"service"`
	Name       string `json:"name"`
	Dimensions int    `json:"dimensions"`
}

// Embedding is a single text/vector pair as exchanged with the NLP server.
type Embedding struct {
	Text      string    `json:"text"`
	Embedding []float32 `json:"embedding,omitempty"`
	Language  string    `json:"language,omitempty"`
}

type EmbeddingCollection struct {
	Name       string      `json:"name,omitempty"`
	Embeddings []Embedding `json:"embeddings"`
}
