package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/finnut/finnut/internal/api/handlers"
	"github.com/finnut/finnut/internal/api/middleware"
	"github.com/finnut/finnut/internal/fhi"
	"github.com/finnut/finnut/internal/gcsstore"
	infraBQ "github.com/finnut/finnut/internal/infra/bigquery"
	"github.com/finnut/finnut/internal/jobs"
	"github.com/finnut/finnut/internal/jobs/inmemory"
	"github.com/finnut/finnut/internal/logger"
	"github.com/finnut/finnut/internal/mlmodel"
	"github.com/finnut/finnut/internal/parser"
	"github.com/finnut/finnut/internal/scoring"
	"github.com/finnut/finnut/internal/session"
)

func main() {
	// Parse command-line flags
	var (
		port      = flag.String("port", "8080", "HTTP server port")
		modelPath = flag.String("model", os.Getenv("FINNUT_MODEL"), "FHI model artifact: local path or gs:// URI (or set FINNUT_MODEL env)")
	)
	flag.Parse()

	// Initialize logger
	log := logger.New()

	ctx := context.Background()

	// Load the scoring model if configured. Without it the API still serves
	// rule-based scoring; only mode=ml is unavailable.
	var predictor fhi.Predictor
	if *modelPath == "" {
		log.Warn().Msg("No model artifact configured - ml scoring mode will be unavailable")
	} else {
		var (
			model *mlmodel.Model
			err   error
		)
		if strings.HasPrefix(*modelPath, "gs://") {
			model, err = mlmodel.LoadFromGCS(ctx, gcsstore.NewClient(), *modelPath)
		} else {
			model, err = mlmodel.Load(*modelPath)
		}
		if err != nil {
			log.Fatal().Err(err).Str("model", *modelPath).Msg("Failed to load model artifact")
		}
		predictor = model
		log.Info().Str("model_version", model.Version()).Msg("Loaded FHI scoring model")
	}

	// Initialize repositories
	repo, err := infraBQ.NewRepository(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create BigQuery repository")
	}
	defer repo.Close()

	// Initialize scoring pipeline
	sessions := session.NewRegistry()
	svc := scoring.New(parser.New(log), sessions, predictor, repo, log)

	// Initialize job infrastructure
	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(100, jobStore)

	// Start worker in background to process jobs
	workerCtx, cancelWorker := context.WithCancel(ctx)
	defer cancelWorker()

	// Create job handler for processing push-scoring jobs
	jobHandler := func(ctx context.Context, job jobs.Job) error {
		scoreJob, ok := job.(*jobs.ScorePushJob)
		if !ok {
			return fmt.Errorf("unexpected job type: %T", job)
		}

		log.Info().
			Str("job_id", scoreJob.JobID).
			Str("user_id", scoreJob.UserID).
			Msg("Processing push-scoring job")

		mode := fhi.ModeRule
		if scoreJob.Mode != "" {
			mode = fhi.Mode(scoreJob.Mode)
		}

		result, _, err := svc.ScorePush(ctx, scoreJob.UserID, []string{scoreJob.RawText}, mode)
		if err != nil {
			log.Error().
				Err(err).
				Str("job_id", scoreJob.JobID).
				Str("user_id", scoreJob.UserID).
				Msg("Push scoring failed")
			return err
		}

		scoreJob.FHI = result.FHI

		log.Info().
			Str("job_id", scoreJob.JobID).
			Str("user_id", scoreJob.UserID).
			Float64("fhi", result.FHI).
			Msg("Push-scoring job completed successfully")

		return nil
	}

	// Start job consumer in background
	go func() {
		log.Info().Msg("Starting job worker")
		if err := jobQueue.Start(workerCtx, jobHandler); err != nil {
			log.Error().Err(err).Msg("Job worker stopped with error")
		}
	}()

	// Initialize handlers
	scoresHandler := handlers.NewScoresHandler(svc, jobQueue, log)
	jobsHandler := handlers.NewJobsHandler(jobStore, log)
	scholarshipsHandler := handlers.NewScholarshipsHandler(repo, log)

	// Create router
	mux := http.NewServeMux()

	// Scoring endpoints
	mux.HandleFunc("/api/score", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			scoresHandler.Score(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/push", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			scoresHandler.EnqueuePush(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	// Jobs endpoints
	mux.HandleFunc("/api/jobs", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			jobsHandler.ListJobs(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/jobs/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			// Extract job ID from path
			jobID := strings.TrimPrefix(r.URL.Path, "/api/jobs/")
			if jobID == "" {
				middleware.WriteError(w, http.StatusBadRequest, "Job ID is required")
				return
			}
			jobsHandler.GetJob(w, r, jobID)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	// Scholarships endpoints
	mux.HandleFunc("/api/scholarships", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			scholarshipsHandler.ListScholarships(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/scholarships/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			scholarshipID := strings.TrimPrefix(r.URL.Path, "/api/scholarships/")
			if scholarshipID == "" {
				middleware.WriteError(w, http.StatusBadRequest, "Scholarship ID is required")
				return
			}
			scholarshipsHandler.GetScholarship(w, r, scholarshipID)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	// Health check endpoint
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	// Apply middleware
	handler := middleware.Recovery(log)(
		middleware.Logger(log)(
			middleware.RequestID(
				middleware.CORS(mux),
			),
		),
	)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + *port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Str("port", *port).Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Cancel worker context
	cancelWorker()

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	// Stop job queue and wait for in-flight jobs
	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error stopping job queue")
	}

	// Close job queue
	if err := jobQueue.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to close job queue")
	}

	log.Info().Msg("Server exited")
}
