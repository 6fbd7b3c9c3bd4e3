package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eduintel/grader/config"
	"github.com/eduintel/grader/pkg/auth"
	"github.com/eduintel/grader/pkg/models"
)

// stubGrader records the documents it receives and returns a canned report.
type stubGrader struct {
	teacher  string
	students []string
	contents map[string]string
	err      error
}

func (s *stubGrader) Grade(
	_ context.Context,
	teacher models.Document,
	students []models.Document,
) (*models.GradingReport, error) {
	s.contents = map[string]string{}
	read := func(doc models.Document) {
		data, _ := io.ReadAll(doc.Reader())
		s.contents[doc.Name] = string(data)
	}
	s.teacher = teacher.Name
	read(teacher)
	for _, student := range students {
		s.students = append(s.students, student.Name)
		read(student)
	}
	if s.err != nil {
		return nil, s.err
	}

	report := &models.GradingReport{TeacherName: teacher.Name}
	for _, student := range students {
		report.Results = append(report.Results, models.StudentResult{
			PDFName:          student.Name,
			PerformanceScore: 86,
			Questions: []models.QuestionResult{
				{QuestionNumber: 1, SimilarityPercent: 86, Status: models.StatusStrong},
			},
		})
	}
	return report, nil
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Port:           8000,
			MaxRequestSize: "1 MB",
			MaxMemory:      "1 KB",
			AllowedOrigins: []string{"http://localhost:3000"},
		},
	}
}

func newTestServer(t *testing.T, cfg *config.Config, grader models.Grader) *httptest.Server {
	t.Helper()
	router, err := setupRouter(&models.AppState{Config: cfg, Grader: grader})
	require.NoError(t, err)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

type upload struct {
	field, name, content string
}

func multipartBody(t *testing.T, uploads ...upload) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	for _, u := range uploads {
		part, err := mw.CreateFormFile(u.field, u.name)
		require.NoError(t, err)
		_, err = part.Write([]byte(u.content))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return body, mw.FormDataContentType()
}

func postAnalyze(t *testing.T, srv *httptest.Server, token string, uploads ...upload) *http.Response {
	t.Helper()
	body, contentType := multipartBody(t, uploads...)
	req, err := http.NewRequest(http.MethodPost, srv.URL+"/analyze", body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", contentType)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { res.Body.Close() })
	return res
}

func decodeError(t *testing.T, res *http.Response) models.ErrorResponse {
	t.Helper()
	var body models.ErrorResponse
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	return body
}

func TestStatusHandler(t *testing.T) {
	srv := newTestServer(t, testConfig(), &stubGrader{})

	res, err := http.Get(srv.URL + "/")
	require.NoError(t, err)
	defer res.Body.Close()

	assert.Equal(t, http.StatusOK, res.StatusCode)
	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"Backend running"}`, string(body))
	assert.Equal(t, config.VersionString, res.Header.Get(versionHeader))
}

func TestAnalyzeHandler(t *testing.T) {
	grader := &stubGrader{}
	srv := newTestServer(t, testConfig(), grader)
	// larger than max_memory so the part is spooled to disk
	large := strings.Repeat("x", 4096)

	res := postAnalyze(t, srv, "",
		upload{teacherField, "key.pdf", "teacher pdf"},
		upload{studentsField, "alice.pdf", large},
		upload{studentsField, "bob.pdf", "bob pdf"},
	)

	require.Equal(t, http.StatusOK, res.StatusCode)
	var body models.AnalyzeResponse
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	assert.True(t, body.Success)
	require.Len(t, body.Data, 2)
	assert.Equal(t, "alice.pdf", body.Data[0].PDFName)
	assert.Equal(t, "bob.pdf", body.Data[1].PDFName)
	assert.Equal(t, models.StatusStrong, body.Data[0].Questions[0].Status)

	assert.Equal(t, "key.pdf", grader.teacher)
	assert.Equal(t, []string{"alice.pdf", "bob.pdf"}, grader.students)
	assert.Equal(t, "teacher pdf", grader.contents["key.pdf"])
	assert.Equal(t, large, grader.contents["alice.pdf"])
}

func TestAnalyzeHandlerBadRequests(t *testing.T) {
	srv := newTestServer(t, testConfig(), &stubGrader{})

	t.Run("teacher missing", func(t *testing.T) {
		res := postAnalyze(t, srv, "", upload{studentsField, "alice.pdf", "pdf"})
		assert.Equal(t, http.StatusBadRequest, res.StatusCode)
		assert.Contains(t, decodeError(t, res).Error, "Teacher key missing")
	})

	t.Run("students missing", func(t *testing.T) {
		res := postAnalyze(t, srv, "", upload{teacherField, "key.pdf", "pdf"})
		assert.Equal(t, http.StatusBadRequest, res.StatusCode)
		assert.Contains(t, decodeError(t, res).Error, "No student files")
	})

	t.Run("not multipart", func(t *testing.T) {
		res, err := http.Post(srv.URL+"/analyze", "application/json", strings.NewReader("{}"))
		require.NoError(t, err)
		defer res.Body.Close()
		assert.Equal(t, http.StatusBadRequest, res.StatusCode)
		assert.False(t, decodeError(t, res).Success)
	})

	t.Run("body too large", func(t *testing.T) {
		router, err := setupRouter(&models.AppState{Config: testConfig(), Grader: &stubGrader{}})
		require.NoError(t, err)
		body, contentType := multipartBody(t,
			upload{teacherField, "key.pdf", "pdf"},
			upload{studentsField, "huge.pdf", strings.Repeat("x", 2<<20)},
		)
		req := httptest.NewRequest(http.MethodPost, "/analyze", body)
		req.Header.Set("Content-Type", contentType)
		res := httptest.NewRecorder()

		router.ServeHTTP(res, req)

		assert.Equal(t, http.StatusRequestEntityTooLarge, res.Code)
	})
}

func TestAnalyzeHandlerGradingErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"no teacher answers", fmt.Errorf("key.pdf: %w", models.ErrNoTeacherAnswers), http.StatusUnprocessableEntity},
		{"embedding failure", fmt.Errorf("failed to embed: %w", models.ErrMalformedEmbeddings), http.StatusInternalServerError},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := newTestServer(t, testConfig(), &stubGrader{err: tc.err})

			res := postAnalyze(t, srv, "",
				upload{teacherField, "key.pdf", "pdf"},
				upload{studentsField, "alice.pdf", "pdf"},
			)

			assert.Equal(t, tc.status, res.StatusCode)
			body := decodeError(t, res)
			assert.False(t, body.Success)
			assert.Equal(t, tc.err.Error(), body.Error)
		})
	}
}

func TestCORS(t *testing.T) {
	srv := newTestServer(t, testConfig(), &stubGrader{})

	preflight := func(origin string) *http.Response {
		req, err := http.NewRequest(http.MethodOptions, srv.URL+"/analyze", nil)
		require.NoError(t, err)
		req.Header.Set("Origin", origin)
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		res, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		t.Cleanup(func() { res.Body.Close() })
		return res
	}

	res := preflight("http://localhost:3000")
	assert.Equal(t, "http://localhost:3000", res.Header.Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", res.Header.Get("Access-Control-Allow-Credentials"))

	res = preflight("https://evil.example.com")
	assert.Empty(t, res.Header.Get("Access-Control-Allow-Origin"))
}

func TestAuthMiddleware(t *testing.T) {
	cfg := testConfig()
	cfg.Auth = config.AuthConfig{Secret: "test-secret", Required: true}
	srv := newTestServer(t, cfg, &stubGrader{})
	uploads := []upload{
		{teacherField, "key.pdf", "pdf"},
		{studentsField, "alice.pdf", "pdf"},
	}

	t.Run("auth required", func(t *testing.T) {
		res := postAnalyze(t, srv, "", uploads...)
		require.Equal(t, http.StatusUnauthorized, res.StatusCode)
	})

	t.Run("valid token", func(t *testing.T) {
		token, err := auth.GenerateJWT(cfg, 0)
		require.NoError(t, err)

		res := postAnalyze(t, srv, token, uploads...)
		require.Equal(t, http.StatusOK, res.StatusCode)
	})

	t.Run("status route stays public", func(t *testing.T) {
		res, err := http.Get(srv.URL + "/")
		require.NoError(t, err)
		defer res.Body.Close()
		require.Equal(t, http.StatusOK, res.StatusCode)
	})
}

func TestSetupRouterInvalidSize(t *testing.T) {
	cfg := testConfig()
	cfg.Server.MaxRequestSize = "lots"

	_, err := setupRouter(&models.AppState{Config: cfg})
	assert.Error(t, err)
}

func TestSendVersion(t *testing.T) {
	nextHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})

	handler := SendVersion(nextHandler)

	req, err := http.NewRequest("GET", "/", nil)
	if err != nil {
		t.Fatal(err)
	}

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Header().Get(versionHeader) != config.VersionString {
		t.Errorf("handler returned wrong version header: got %v want %v",
			rr.Header().Get(versionHeader), config.VersionString)
	}
}
