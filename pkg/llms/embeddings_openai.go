package llms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"

	"github.com/eduintel/grader/config"
	"github.com/eduintel/grader/pkg/models"
)

const (
	EmbeddingsOpenAIAPIKeyNotSetError = "GRADER_OPENAI_API_KEY is not set" //nolint:gosec
	DefaultOpenAIEmbeddingModel       = "text-embedding-3-small"
	openAIEmbeddingsPath              = "/embeddings"
)

type openAIEmbeddingRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type openAIEmbeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
	Model string `json:"model"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

var _ models.Embedder = &OpenAIEmbedder{}

// OpenAIEmbedder calls an OpenAI compatible /embeddings endpoint.
type OpenAIEmbedder struct {
	url        string
	apiKey     string
	model      string
	dimensions int
	client     *http.Client
}

func NewOpenAIEmbedder(cfg *config.Config) (*OpenAIEmbedder, error) {
	if cfg.Embeddings.OpenAIAPIKey == "" {
		return nil, NewEmbeddingsClientError(EmbeddingsOpenAIAPIKeyNotSetError, nil)
	}

	model := cfg.Embeddings.Model
	if model == "" {
		model = DefaultOpenAIEmbeddingModel
	}

	maxRetries := cfg.Embeddings.MaxRetries
	if maxRetries < 0 {
		maxRetries = DefaultRetryMax
	}

	return &OpenAIEmbedder{
		url:        strings.TrimRight(cfg.Embeddings.OpenAIBaseURL, "/") + openAIEmbeddingsPath,
		apiKey:     cfg.Embeddings.OpenAIAPIKey,
		model:      model,
		dimensions: cfg.Embeddings.Dimensions,
		client:     NewRetryableHTTPClient(maxRetries, cfg.Embeddings.Timeout),
	}, nil
}

// EmbedTexts embeds all texts in a single batch. Vectors are returned in input order.
func (e *OpenAIEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	reqBody, err := json.Marshal(openAIEmbeddingRequest{Model: e.model, Input: texts})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal embeddings request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.url, bytes.NewReader(reqBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.apiKey)

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, NewEmbeddingsClientError("openai embeddings request failed", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read embeddings response: %w", err)
	}

	var embeddingResp openAIEmbeddingResponse
	decodeErr := json.Unmarshal(data, &embeddingResp)

	if resp.StatusCode != http.StatusOK {
		if decodeErr == nil && embeddingResp.Error != nil && embeddingResp.Error.Message != "" {
			return nil, NewEmbeddingsClientError(
				fmt.Sprintf("API error (%s): %s", embeddingResp.Error.Type, embeddingResp.Error.Message),
				nil,
			)
		}
		return nil, NewEmbeddingsClientError(fmt.Sprintf("API error: %s", resp.Status), nil)
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrMalformedEmbeddings, decodeErr)
	}

	sort.SliceStable(embeddingResp.Data, func(i, j int) bool {
		return embeddingResp.Data[i].Index < embeddingResp.Data[j].Index
	})

	out := make([][]float32, len(embeddingResp.Data))
	for i := range embeddingResp.Data {
		out[i] = embeddingResp.Data[i].Embedding
	}

	if err := validateEmbeddings(out, len(texts), e.dimensions); err != nil {
		return nil, err
	}

	return out, nil
}
