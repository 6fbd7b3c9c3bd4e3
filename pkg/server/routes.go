package server

import (
	"fmt"
	"net/http"
	"time"

	httpLogger "github.com/chi-middleware/logrus-logger"
	"github.com/dustin/go-humanize"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/jwtauth/v5"
	"github.com/riandyrn/otelchi"

	"github.com/eduintel/grader/internal"
	"github.com/eduintel/grader/pkg/auth"
	"github.com/eduintel/grader/pkg/models"
)

var log = internal.GetLogger()

const (
	ReadHeaderTimeout = 5 * time.Second
	RouterName        = "grader-api"
	DefaultMaxMemory  = 16 << 20
)

// Create creates a new HTTP server with the given app state
func Create(appState *models.AppState) (*http.Server, error) {
	router, err := setupRouter(appState)
	if err != nil {
		return nil, err
	}
	return &http.Server{
		Addr:              fmt.Sprintf("%s:%d", appState.Config.Server.Host, appState.Config.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: ReadHeaderTimeout,
	}, nil
}

func setupRouter(appState *models.AppState) (*chi.Mux, error) {
	maxRequestSize, err := parseSize(appState.Config.Server.MaxRequestSize, 0)
	if err != nil {
		return nil, fmt.Errorf("invalid server.max_request_size: %w", err)
	}

	router := chi.NewRouter()
	router.Use(httpLogger.Logger("router", log))
	router.Use(middleware.Recoverer)
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(SendVersion)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   appState.Config.Server.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	router.Use(middleware.Heartbeat("/healthz"))
	router.Use(otelchi.Middleware(
		RouterName,
		otelchi.WithChiRoutes(router),
		otelchi.WithRequestMethodInSpanName(true),
	))

	router.Get("/", StatusHandler())

	router.Group(func(r chi.Router) {
		if appState.Config.Auth.Required {
			log.Info("JWT authentication required")
			r.Use(auth.JWTVerifier(appState.Config))
			r.Use(jwtauth.Authenticator)
		}
		if maxRequestSize > 0 {
			r.Use(middleware.RequestSize(int64(maxRequestSize)))
		}
		r.Post("/analyze", AnalyzeHandler(appState))
	})

	return router, nil
}

// parseSize parses a human readable size such as "64 MB". Empty values yield fallback.
func parseSize(size string, fallback uint64) (uint64, error) {
	if size == "" {
		return fallback, nil
	}
	return humanize.ParseBytes(size)
}
