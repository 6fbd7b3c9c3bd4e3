package models

import "github.com/google/uuid"

// Status classifies how well a student answer matches the teacher answer.
type Status string

const (
	StatusStrong     Status = "Strong Understanding"
	StatusPartial    Status = "Partial Understanding"
	StatusWeak       Status = "Weak Understanding"
	StatusNotRelated Status = "Not Related"
)

type QuestionResult struct {
	QuestionNumber    int     `json:"question_number"`
	SimilarityPercent float64 `json:"similarity_percent"`
	Status            Status  `json:"status"`
}

type StudentResult struct {
	PDFName          string           `json:"pdf_name"`
	PerformanceScore float64          `json:"performance_score"`
	Questions        []QuestionResult `json:"questions"`
}

// GradingReport is built fresh for every request and never persisted.
type GradingReport struct {
	ID          uuid.UUID       `json:"-"`
	TeacherName string          `json:"-"`
	Results     []StudentResult `json:"-"`
}

// AnalyzeResponse is the success envelope returned to API clients.
type AnalyzeResponse struct {
	Success bool            `json:"success"`
	Data    []StudentResult `json:"data"`
}

// ErrorResponse is returned for request-level failures.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// NewAnalyzeResponse wraps a report in a success envelope. Data is always an array,
// even when empty.
func NewAnalyzeResponse(report *GradingReport) AnalyzeResponse {
	data := []StudentResult{}
	if report != nil && report.Results != nil {
		data = report.Results
	}
	return AnalyzeResponse{Success: true, Data: data}
}

func NewErrorResponse(err error) ErrorResponse {
	return ErrorResponse{Success: false, Error: err.Error()}
}
