package integration

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"adaptive-quiz-service/internal/adaptive"
	"adaptive-quiz-service/internal/app"
	"adaptive-quiz-service/internal/coldstart"
	"adaptive-quiz-service/internal/domain"
	"adaptive-quiz-service/internal/infra/memory"
	pgstore "adaptive-quiz-service/internal/infra/postgres"
	pgmigrations "adaptive-quiz-service/internal/infra/postgres/migrations"
	infraredis "adaptive-quiz-service/internal/infra/redis"

	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"
)

func TestAdaptiveFlowEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	migrateAndSeed(t, ctx, pgURL, sampleDocuments())

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}

	profiles := infraredis.NewProfileStore(redisClient, pgstore.NewProfileStore(pool), 5*time.Minute)
	documents := memory.NewDocumentRepository(pgstore.NewDocumentLoader(pool), 5*time.Minute)
	models := infraredis.NewModelStore(redisClient, time.Hour)
	history := memory.NewHistoryStore()
	trainer := app.NewTrainer(history, models, adaptive.DefaultTrainConfig())
	profiler := coldstart.NewProfiler(profiles)
	service := app.NewLearningService(profiles, profiler, documents, history, models, trainer)

	profile, err := service.Onboard(ctx, "u1", domain.Background{
		EducationLevel: "undergraduate",
		Interests:      []string{"algebra"},
	})
	if err != nil {
		t.Fatalf("onboard: %v", err)
	}
	if profile.DomainDifficulties["mathematics"] != domain.DifficultyIntermediate {
		t.Fatalf("initial mathematics level = %s, want intermediate", profile.DomainDifficulties["mathematics"])
	}

	profile, err = service.CompleteQuiz(ctx, "u1", coldstart.QuizResult{
		QuizID:     "quiz-1",
		Topic:      "algebra",
		Score:      85,
		Difficulty: domain.DifficultyIntermediate,
	})
	if err != nil {
		t.Fatalf("complete quiz: %v", err)
	}
	if profile.DomainDifficulties["mathematics"] != domain.DifficultyAdvanced {
		t.Fatalf("mathematics level = %s, want advanced after strong quiz", profile.DomainDifficulties["mathematics"])
	}

	question := domain.Question{
		ID:            "q1",
		Topic:         "algebra",
		Type:          domain.MultipleChoice,
		Difficulty:    domain.DifficultyIntermediate,
		CorrectAnswer: "B",
	}
	result, err := service.SubmitAnswer(ctx, "u1", question, "B", 12)
	if err != nil {
		t.Fatalf("submit answer: %v", err)
	}
	if !result.Record.Correct {
		t.Fatalf("expected correct record, got %+v", result.Record)
	}
	if result.Proficiency < 0 || result.Proficiency > 1 {
		t.Fatalf("proficiency %f out of range", result.Proficiency)
	}

	docs, err := service.Recommendations(ctx, "u1", 2)
	if err != nil {
		t.Fatalf("recommendations: %v", err)
	}
	if len(docs) == 0 || docs[0].ID != "doc-math" {
		t.Fatalf("recommendations = %+v, want doc-math first", docs)
	}

	// The cache-aside store must serve the same profile Postgres holds.
	fromPG, err := pgstore.NewProfileStore(pool).Load(ctx, "u1")
	if err != nil {
		t.Fatalf("load from pg: %v", err)
	}
	fromCache, err := profiles.Load(ctx, "u1")
	if err != nil {
		t.Fatalf("load from cache: %v", err)
	}
	if fromPG.DomainDifficulties["mathematics"] != fromCache.DomainDifficulties["mathematics"] {
		t.Fatalf("cache diverged from source: pg=%s cache=%s",
			fromPG.DomainDifficulties["mathematics"], fromCache.DomainDifficulties["mathematics"])
	}
}

func migrateAndSeed(t *testing.T, ctx context.Context, dsn string, docs []domain.Document) {
	t.Helper()
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	for _, doc := range docs {
		data, err := json.Marshal(doc)
		if err != nil {
			t.Fatalf("marshal document: %v", err)
		}
		if _, err := db.ExecContext(ctx,
			`INSERT INTO documents (id, data) VALUES (?, ?::jsonb) ON CONFLICT (id) DO UPDATE SET data=EXCLUDED.data`,
			doc.ID, string(data)); err != nil {
			t.Fatalf("insert document: %v", err)
		}
	}
}

func sampleDocuments() []domain.Document {
	return []domain.Document{
		{ID: "doc-math", Topic: "algebra", Tags: []string{"mathematics"}, Difficulty: domain.DifficultyAdvanced, Title: "Advanced Algebra"},
		{ID: "doc-history", Topic: "history", Tags: []string{"humanities"}, Difficulty: domain.DifficultyBeginner, Title: "World History Primer"},
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "quiz", "POSTGRES_PASSWORD": "quizpass", "POSTGRES_DB": "quizdb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://quiz:quizpass@%s:%s/quizdb?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	}), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
