package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/eduintel/grader/config"
	"github.com/eduintel/grader/pkg/auth"
	"github.com/eduintel/grader/pkg/grading"
	"github.com/eduintel/grader/pkg/llms"
	"github.com/eduintel/grader/pkg/models"
	"github.com/eduintel/grader/pkg/server"
)

const shutdownTimeout = 30 * time.Second

// run is the entrypoint for the grader server
func run() {
	cfg := loadConfig()

	handleCLIOptions(cfg)

	log.Infof("Starting grader server version %s", config.VersionString)

	appState, err := NewAppState(cfg)
	if err != nil {
		log.Fatal(err)
	}

	srv, err := server.Create(appState)
	if err != nil {
		log.Fatal(err)
	}
	setupSignalHandler(srv)

	log.Infof("Listening on: %s", srv.Addr)
	err = srv.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
}

func loadConfig() *config.Config {
	cfg, err := config.LoadConfig(cfgFile)
	if err != nil {
		log.Fatalf("Error configuring grader: %s", err)
	}
	config.SetLogLevel(cfg)
	return cfg
}

// NewAppState creates the process-wide embedder and the grading pipeline.
func NewAppState(cfg *config.Config) (*models.AppState, error) {
	embedder, err := llms.NewEmbedder(cfg)
	if err != nil {
		return nil, err
	}

	model := llms.GetEmbeddingModel(cfg)
	log.Infof("Using embeddings service %s with model %s", model.Service, model.Name)

	return &models.AppState{
		Embedder: embedder,
		Grader:   grading.NewGraderFromConfig(cfg, embedder),
		Config:   cfg,
	}, nil
}

// handleCLIOptions handles CLI options that don't require the server to run
func handleCLIOptions(cfg *config.Config) {
	if showVersion {
		fmt.Println(config.VersionString)
		os.Exit(0)
	}
	if dumpConfig {
		out, err := config.Dump(cfg)
		if err != nil {
			log.Fatal(err)
		}
		fmt.Print(string(out))
		os.Exit(0)
	}
	if generateKey {
		token, err := auth.GenerateJWT(cfg, tokenTTL)
		if err != nil {
			log.Fatal(err)
		}
		fmt.Println(token)
		os.Exit(0)
	}
}

// setupSignalHandler drains in-flight requests on termination
func setupSignalHandler(srv *http.Server) {
	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-signalCh
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Errorf("Error shutting down server: %v", err)
		}
	}()
}
