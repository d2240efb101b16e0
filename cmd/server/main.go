package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"alcyxob/coach-orchestrator/internal/api"
	"alcyxob/coach-orchestrator/internal/config"
	"alcyxob/coach-orchestrator/internal/llm"
	mongorepo "alcyxob/coach-orchestrator/internal/repository/mongo"
	"alcyxob/coach-orchestrator/internal/service"
	"alcyxob/coach-orchestrator/internal/storage"
	"alcyxob/coach-orchestrator/internal/workoutapi"

	"github.com/gin-gonic/gin"
)

func main() {
	log.Println("Starting Coach Orchestrator Server...")

	// --- Configuration ---
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("FATAL: Could not load config: %v", err)
	}
	log.Println("Configuration loaded.")

	// --- Database Connection ---
	dbClient, err := mongorepo.ConnectDB(cfg.Database.URI)
	if err != nil {
		log.Fatalf("FATAL: Could not connect to MongoDB: %v", err)
	}
	defer func() {
		log.Println("Disconnecting MongoDB...")
		if err := mongorepo.DisconnectDB(dbClient); err != nil {
			log.Printf("ERROR: Failed to disconnect MongoDB: %v", err)
		}
	}()
	appDB := dbClient.Database(cfg.Database.Name)
	log.Println("Database connection established.")

	// --- Ensure Indexes ---
	log.Println("Ensuring database indexes...")
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
		defer cancel()
		mongorepo.EnsureSessionIndexes(ctx, appDB.Collection("conversation_sessions"))
		log.Println("Index creation process completed.")
	}()

	// --- Initialize Session Archive ---
	var archive storage.SessionArchive = storage.NoopArchive{}
	if cfg.Archive.Enabled {
		log.Println("Initializing session archive...")
		archive, err = storage.NewS3Archive(cfg.Archive)
		if err != nil {
			log.Fatalf("FATAL: Failed to initialize S3 session archive: %v", err)
		}
	}

	// --- Initialize External Clients ---
	log.Println("Initializing external clients...")
	llmClient := llm.NewClient(cfg.LLM)
	workoutClient := workoutapi.NewClient(cfg.WorkoutAPI)

	// --- Initialize Repositories ---
	log.Println("Initializing repositories...")
	sessionRepo := mongorepo.NewMongoSessionRepository(appDB)

	// --- Initialize Services ---
	log.Println("Initializing services...")
	library := service.NewCachedLibrary(workoutClient)
	resolver := service.NewExerciseResolver()
	extractor := service.NewRequirementExtractor(llmClient)
	synthesizer := service.NewPlanSynthesizer(llmClient, resolver, library)
	committer := service.NewCommitOrchestrator(workoutClient)
	conversationService := service.NewConversationService(sessionRepo, extractor, synthesizer, committer, archive)

	// --- Initialize Gin Engine ---
	// gin.SetMode(gin.ReleaseMode) // Uncomment for production
	router := gin.Default() // Includes Logger and Recovery middleware

	// --- Setup Routes ---
	log.Println("Setting up API routes...")
	api.SetupRoutes(router, cfg.JWT.Secret, conversationService)

	// --- Start HTTP Server ---
	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 120 * time.Second, // plan generation waits on the model
		IdleTimeout:  120 * time.Second,
	}

	log.Printf("Server starting on %s", cfg.Server.Address)

	// --- Graceful Shutdown ---
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("FATAL: ListenAndServe Error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Fatalf("FATAL: Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting.")
}
