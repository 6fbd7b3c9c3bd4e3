package server

import (
	"fmt"
	"mime/multipart"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/eduintel/grader/pkg/models"
	"github.com/eduintel/grader/pkg/server/handlertools"
)

const (
	teacherField  = "teacher"
	studentsField = "students"
)

type StatusResponse struct {
	Status string `json:"status"`
}

// StatusHandler reports that the service is up.
func StatusHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		handlertools.RenderJSON(w, StatusResponse{Status: "Backend running"}, http.StatusOK)
	}
}

// AnalyzeHandler grades the uploaded student documents against the teacher document.
// The request is multipart: one file in "teacher" and one or more files in "students".
func AnalyzeHandler(appState *models.AppState) http.HandlerFunc {
	maxMemory, err := parseSize(appState.Config.Server.MaxMemory, DefaultMaxMemory)
	if err != nil {
		log.Warnf("invalid server.max_memory, using default: %v", err)
		maxMemory = DefaultMaxMemory
	}

	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.WithField("request_id", middleware.GetReqID(r.Context()))

		if err := r.ParseMultipartForm(int64(maxMemory)); err != nil {
			handlertools.RenderError(w, fmt.Errorf("%w: %v", models.ErrBadRequest, err), http.StatusBadRequest)
			return
		}
		defer func() {
			if err := r.MultipartForm.RemoveAll(); err != nil {
				logger.Warnf("failed to remove multipart temp files: %v", err)
			}
		}()

		teacherFiles := r.MultipartForm.File[teacherField]
		if len(teacherFiles) == 0 {
			handlertools.RenderError(w, fmt.Errorf("%w: Teacher key missing", models.ErrBadRequest), http.StatusBadRequest)
			return
		}
		studentFiles := r.MultipartForm.File[studentsField]
		if len(studentFiles) == 0 {
			handlertools.RenderError(w, fmt.Errorf("%w: No student files", models.ErrBadRequest), http.StatusBadRequest)
			return
		}

		var opened []multipart.File
		defer func() {
			for _, f := range opened {
				_ = f.Close()
			}
		}()
		open := func(fh *multipart.FileHeader) (models.Document, error) {
			f, err := fh.Open()
			if err != nil {
				return models.Document{}, fmt.Errorf("failed to open %s: %w", fh.Filename, err)
			}
			opened = append(opened, f)
			return models.Document{Name: fh.Filename, Content: f, Size: fh.Size}, nil
		}

		teacher, err := open(teacherFiles[0])
		if err != nil {
			handlertools.RenderError(w, err, http.StatusInternalServerError)
			return
		}
		students := make([]models.Document, 0, len(studentFiles))
		for _, fh := range studentFiles {
			doc, err := open(fh)
			if err != nil {
				handlertools.RenderError(w, err, http.StatusInternalServerError)
				return
			}
			students = append(students, doc)
		}

		logger.WithFields(logrus.Fields{
			"teacher":  teacher.Name,
			"students": len(students),
		}).Info("grading request received")

		report, err := appState.Grader.Grade(r.Context(), teacher, students)
		if err != nil {
			handlertools.RenderError(w, err, http.StatusInternalServerError)
			return
		}

		handlertools.RenderJSON(w, models.NewAnalyzeResponse(report), http.StatusOK)
	}
}
