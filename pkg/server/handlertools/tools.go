package handlertools

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/eduintel/grader/internal"
	"github.com/eduintel/grader/pkg/models"
)

var log = internal.GetLogger()

var errRequestTooLarge = errors.New("request body too large. upload fewer or smaller documents")

// EncodeJSON encodes data into JSON and writes it to the response writer.
func EncodeJSON(w http.ResponseWriter, data any) error {
	return json.NewEncoder(w).Encode(data)
}

// RenderJSON writes data with the given status code.
func RenderJSON(w http.ResponseWriter, data any, status int) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	if err := EncodeJSON(w, data); err != nil {
		log.Errorf("error encoding response: %v", err)
	}
}

// RenderError maps err to a status code and renders an ErrorResponse. The status passed in is
// used when no more specific mapping applies.
func RenderError(w http.ResponseWriter, err error, status int) {
	if isRequestTooLarge(err) {
		status = http.StatusRequestEntityTooLarge
		err = errRequestTooLarge
	}

	switch {
	case errors.Is(err, models.ErrNoTeacherAnswers):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, models.ErrBadRequest):
		status = http.StatusBadRequest
	}

	// log errors from 500 onwards (inclusive)
	if status >= http.StatusInternalServerError {
		log.Error(err)
	} else {
		log.Debug(err)
	}

	RenderJSON(w, models.NewErrorResponse(err), status)
}

func isRequestTooLarge(err error) bool {
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		return true
	}
	return strings.Contains(err.Error(), "http: request body too large")
}
