package llms

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/retrypolicy"

	"github.com/eduintel/grader/config"
	"github.com/eduintel/grader/pkg/models"
)

const localEmbeddingsPath = "/embeddings/document"

var errRetryable = errors.New("retryable embeddings request failure")

var _ models.Embedder = &LocalEmbedder{}

// LocalEmbedder calls a sentence-transformers NLP server. The server loads the model once
// and is shared by every request.
type LocalEmbedder struct {
	url         string
	dimensions  int
	client      *http.Client
	retryPolicy retrypolicy.RetryPolicy[[]byte]
}

func NewLocalEmbedder(cfg *config.Config) (*LocalEmbedder, error) {
	serverURL := strings.TrimRight(cfg.Embeddings.ServerURL, "/")
	if serverURL == "" {
		return nil, NewEmbeddingsClientError("embeddings.server_url is not set", nil)
	}

	maxRetries := cfg.Embeddings.MaxRetries
	if maxRetries < 0 {
		maxRetries = DefaultRetryMax
	}

	return &LocalEmbedder{
		url:        serverURL + localEmbeddingsPath,
		dimensions: cfg.Embeddings.Dimensions,
		client:     NewHTTPClient(cfg.Embeddings.Timeout),
		retryPolicy: retrypolicy.Builder[[]byte]().
			HandleErrors(errRetryable).
			WithBackoff(200*time.Millisecond, 2*time.Second).
			WithMaxRetries(maxRetries).
			Build(),
	}, nil
}

// EmbedTexts embeds all texts in a single batch.
func (e *LocalEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	documents := make([]models.Embedding, len(texts))
	for i, text := range texts {
		documents[i] = models.Embedding{Text: text}
	}
	jsonBody, err := json.Marshal(models.EmbeddingCollection{Embeddings: documents})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal embeddings request: %w", err)
	}

	bodyBytes, err := failsafe.Get(func() ([]byte, error) {
		return e.makeEmbedRequest(ctx, jsonBody)
	}, e.retryPolicy)
	if err != nil {
		return nil, NewEmbeddingsClientError("local embeddings request failed", err)
	}

	var collection models.EmbeddingCollection
	if err := json.Unmarshal(bodyBytes, &collection); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrMalformedEmbeddings, err)
	}

	m := make([][]float32, len(collection.Embeddings))
	for i := range collection.Embeddings {
		m[i] = collection.Embeddings[i].Embedding
	}

	if err := validateEmbeddings(m, len(texts), e.dimensions); err != nil {
		return nil, err
	}

	return m, nil
}

func (e *LocalEmbedder) makeEmbedRequest(ctx context.Context, jsonBody []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.url, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		log.Warnf("local embeddings request failed, retrying: %v", err)
		return nil, fmt.Errorf("%w: %v", errRetryable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		err := fmt.Errorf(
			"error making POST request: %d - %s",
			resp.StatusCode,
			strings.TrimSpace(string(body)),
		)
		if resp.StatusCode >= http.StatusInternalServerError || resp.StatusCode == http.StatusTooManyRequests {
			log.Warnf("local embeddings request failed, retrying: %v", err)
			return nil, fmt.Errorf("%w: %v", errRetryable, err)
		}
		return nil, err
	}

	return io.ReadAll(resp.Body)
}
