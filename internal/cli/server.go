package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"adaptive-quiz-service/internal/adaptive"
	"adaptive-quiz-service/internal/app"
	"adaptive-quiz-service/internal/coldstart"
	"adaptive-quiz-service/internal/config"
	"adaptive-quiz-service/internal/domain"
	"adaptive-quiz-service/internal/infra/memory"
	pgstore "adaptive-quiz-service/internal/infra/postgres"
	redisstore "adaptive-quiz-service/internal/infra/redis"
	transport "adaptive-quiz-service/internal/transport/http"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the adaptive quiz engine server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}
	redisTTL := config.TTLDuration(cfg.Redis.TTL, 10*time.Minute)

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
	}

	var profiles coldstart.ProfileStore = memory.NewProfileStore()
	if pool != nil {
		profiles = pgstore.NewProfileStore(pool)
	}
	if redisClient != nil {
		profiles = redisstore.NewProfileStore(redisClient, profiles, redisTTL)
	}

	var loader memory.DocumentLoader = memory.NewStaticDocumentLoader(sampleDocuments())
	if pool != nil {
		loader = pgstore.NewDocumentLoader(pool)
	}
	documentsTTL := config.TTLDuration(cfg.Documents.TTL, 10*time.Minute)
	documents := memory.NewDocumentRepository(loader, documentsTTL)

	var models app.ModelStore = memory.NewModelStore()
	if redisClient != nil {
		modelTTL := config.TTLDuration(cfg.Model.TTL, 24*time.Hour)
		models = redisstore.NewModelStore(redisClient, modelTTL)
	}

	history := memory.NewHistoryStore()

	trainCfg := adaptive.DefaultTrainConfig()
	if cfg.Model.Epochs > 0 {
		trainCfg.Epochs = cfg.Model.Epochs
	}
	if cfg.Model.LearningRate > 0 {
		trainCfg.LearningRate = cfg.Model.LearningRate
	}
	if cfg.Model.Dropout > 0 {
		trainCfg.Dropout = cfg.Model.Dropout
	}
	trainer := app.NewTrainer(history, models, trainCfg)
	trainer.OnError = func(userID, topic string, err error) {
		log.Printf("background training failed for user %s topic %s: %v", userID, topic, err)
	}

	profiler := coldstart.NewProfiler(profiles)
	service := app.NewLearningService(profiles, profiler, documents, history, models, trainer)
	wsHandler := transport.NewWSHandler(service)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", wsHandler.ServeWS)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting adaptive quiz engine on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// sampleDocuments provides a minimal catalog; swap the loader with the
// Postgres-backed one in production.
func sampleDocuments() []domain.Document {
	return []domain.Document{
		{
			ID:         "doc-1",
			Title:      "Linear Equations Walkthrough",
			Topic:      "algebra",
			Tags:       []string{"mathematics", "algebra"},
			Difficulty: domain.DifficultyIntermediate,
		},
		{
			ID:         "doc-2",
			Title:      "Mechanics Problem Set",
			Topic:      "physics",
			Tags:       []string{"science", "physics"},
			Difficulty: domain.DifficultyAdvanced,
		},
		{
			ID:         "doc-3",
			Title:      "Intro to Programming",
			Topic:      "programming",
			Tags:       []string{"technology"},
			Difficulty: domain.DifficultyBeginner,
		},
	}
}
