package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/clintriage/triage/internal/config"
	"github.com/clintriage/triage/internal/domain/explain"
	"github.com/clintriage/triage/internal/domain/intake"
	"github.com/clintriage/triage/internal/domain/narrative"
	"github.com/clintriage/triage/internal/domain/triage"
	"github.com/clintriage/triage/internal/domain/worklist"
	"github.com/clintriage/triage/internal/platform/llm"
	"github.com/clintriage/triage/internal/platform/middleware"
	"github.com/clintriage/triage/internal/platform/mlmodel"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "triage-server",
		Short: "Clinical triage decision API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(batchCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the triage API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func batchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "batch [files...]",
		Short: "Triage clinical documents from disk and print the board",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(args)
		},
	}
}

// buildPipeline wires the decision pipeline from loaded artifacts. Shared by
// the server and the batch command.
func buildPipeline(cfg *config.Config, logger zerolog.Logger) (*intake.Service, *worklist.Board, error) {
	forest, err := mlmodel.LoadForest(cfg.ModelPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load risk model: %w", err)
	}
	encoder, err := mlmodel.LoadEncoder(cfg.EncoderPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load label encoder: %w", err)
	}

	engine, err := triage.NewEngine(forest, encoder)
	if err != nil {
		return nil, nil, fmt.Errorf("build triage engine: %w", err)
	}
	explainer := explain.NewExplainer(forest, encoder)

	client := llm.NewClient(cfg.LLMURL, cfg.LLMModel, cfg.LLMTimeout(), logger)
	bridge := narrative.NewBridge(client, logger)

	history := worklist.NewMemoryHistory()
	board := worklist.NewBoard()

	svc := intake.NewService(
		engine,
		explainer,
		bridge,
		history,
		board,
		triage.NewActiveSet(cfg.ActiveFeatures),
		logger,
	)
	return svc, board, nil
}

func runServer() error {
	// Logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	// Config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	svc, board, err := buildPipeline(cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build pipeline")
	}
	logger.Info().
		Str("model", cfg.ModelPath).
		Str("llm", cfg.LLMURL).
		Strs("active_features", cfg.ActiveFeatures).
		Msg("pipeline ready")

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.SecurityHeaders())
	e.Use(middleware.BodyLimit("256K", "4M"))
	// Document intake waits on the narrative backend, so the server deadline
	// sits above the LLM timeout.
	e.Use(middleware.RequestTimeout(cfg.LLMTimeout() + 30*time.Second))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost},
		AllowHeaders: []string{"Content-Type", "X-Request-ID"},
	}))

	// API group
	apiV1 := e.Group("/api/v1")

	// Rate limiting middleware
	rateLimitCfg := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}
	if rateLimitCfg.RequestsPerSecond <= 0 {
		rateLimitCfg = middleware.DefaultRateLimitConfig()
	}
	apiV1.Use(middleware.RateLimit(rateLimitCfg))

	// Health check
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": "0.1.0",
		})
	})

	// Routes
	intake.NewHandler(svc).RegisterRoutes(apiV1)
	worklist.NewHandler(board).RegisterRoutes(apiV1)

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}

// runBatch triages each document file in order and prints the sorted board
// as JSON. A file that fails to read or triage is reported and skipped; it
// never aborts the rest of the batch.
func runBatch(paths []string) error {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	svc, board, err := buildPipeline(cfg, logger)
	if err != nil {
		return err
	}

	ctx := context.Background()
	failed := 0
	for _, path := range paths {
		patientID := patientIDFromPath(path)

		data, err := os.ReadFile(path)
		if err != nil {
			logger.Error().Err(err).Str("file", path).Msg("skipping unreadable file")
			failed++
			continue
		}

		if _, err := svc.ProcessDocument(ctx, patientID, string(data)); err != nil {
			logger.Error().Err(err).Str("file", path).Msg("triage failed")
			failed++
		}
	}

	out, err := json.MarshalIndent(board.Entries(), "", "  ")
	if err != nil {
		return fmt.Errorf("encode board: %w", err)
	}
	fmt.Println(string(out))

	if failed > 0 {
		return fmt.Errorf("%d of %d document(s) failed", failed, len(paths))
	}
	return nil
}

// patientIDFromPath derives a patient identity from the document file name,
// so repeat runs against the same file update the same board row.
func patientIDFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
