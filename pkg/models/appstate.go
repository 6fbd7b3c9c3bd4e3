package models

import (
	"context"

	"github.com/eduintel/grader/config"
)

// Grader runs the full grading pipeline for one request.
type Grader interface {
	Grade(ctx context.Context, teacher Document, students []Document) (*GradingReport, error)
}

// AppState is a struct that holds the state of the application
// Use cmd.NewAppState to create a new instance
type AppState struct {
	Embedder Embedder
	Grader   Grader
	Config   *config.Config
}
