package handlertools

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eduintel/grader/pkg/models"
)

func TestRenderError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		status   int
		expected int
		message  string
	}{
		{
			name:     "no teacher answers",
			err:      fmt.Errorf("key.pdf: %w", models.ErrNoTeacherAnswers),
			status:   http.StatusInternalServerError,
			expected: http.StatusUnprocessableEntity,
			message:  "key.pdf: no answers found in teacher document",
		},
		{
			name:     "bad request",
			err:      fmt.Errorf("%w: Teacher key missing", models.ErrBadRequest),
			status:   http.StatusInternalServerError,
			expected: http.StatusBadRequest,
			message:  "bad request: Teacher key missing",
		},
		{
			name:     "body too large",
			err:      &http.MaxBytesError{Limit: 10},
			status:   http.StatusBadRequest,
			expected: http.StatusRequestEntityTooLarge,
			message:  errRequestTooLarge.Error(),
		},
		{
			name:     "wrapped body too large",
			err:      errors.New("multipart: NextPart: http: request body too large"),
			status:   http.StatusBadRequest,
			expected: http.StatusRequestEntityTooLarge,
			message:  errRequestTooLarge.Error(),
		},
		{
			name:     "internal",
			err:      errors.New("embedding service unavailable"),
			status:   http.StatusInternalServerError,
			expected: http.StatusInternalServerError,
			message:  "embedding service unavailable",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res := httptest.NewRecorder()

			RenderError(res, tc.err, tc.status)

			assert.Equal(t, tc.expected, res.Code)
			assert.Equal(t, "application/json; charset=utf-8", res.Header().Get("Content-Type"))
			var body models.ErrorResponse
			require.NoError(t, json.Unmarshal(res.Body.Bytes(), &body))
			assert.False(t, body.Success)
			assert.Equal(t, tc.message, body.Error)
		})
	}
}

func TestRenderJSON(t *testing.T) {
	res := httptest.NewRecorder()

	RenderJSON(res, models.NewAnalyzeResponse(nil), http.StatusOK)

	assert.Equal(t, http.StatusOK, res.Code)
	assert.JSONEq(t, `{"success":true,"data":[]}`, res.Body.String())
}
