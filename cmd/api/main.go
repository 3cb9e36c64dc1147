package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/skillduels/backend/internal/config"
	"github.com/skillduels/backend/internal/repository/postgres"
	"github.com/skillduels/backend/internal/repository/redis"
	"github.com/skillduels/backend/internal/service/cleanup"
	"github.com/skillduels/backend/internal/service/duel"
	"github.com/skillduels/backend/internal/service/matchmaking"
	transportHttp "github.com/skillduels/backend/internal/transport/http"
	"github.com/skillduels/backend/internal/transport/websocket"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// gateway bundles the per-entity repositories into the orchestrator's
// persistence gateway.
type gateway struct {
	*postgres.DuelRepo
	*postgres.QuestionRepo
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	cfg := config.LoadConfig()
	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()

	db.SetMaxOpenConns(cfg.DBMaxOpenConns)
	db.SetMaxIdleConns(cfg.DBMaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.DBConnMaxLifetimeMin) * time.Minute)

	// Persistence must be reachable at startup; live duels tolerate later
	// failures, process start does not.
	if err := db.Ping(); err != nil {
		log.Fatal("Database unreachable:", err)
	}

	log.Println("Running database migrations...")
	if err := postgres.RunMigrations(db); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	duelRepo := postgres.NewDuelRepo(db)
	questionRepo := postgres.NewQuestionRepo(db)

	if err := redis.InitRedis(); err != nil {
		log.Printf("Failed to initialize Redis: %v", err)
	}
	defer redis.CloseRedis()

	var duelCache transportHttp.DuelCache
	if redis.IsRedisEnabled() && redis.RedisClient != nil {
		duelCache = redis.NewDuelCache(redis.RedisClient)
	}

	connManager := websocket.NewConnectionManager()
	registry := duel.NewRegistry()
	orchestrator := duel.NewOrchestrator(
		matchmaking.NewQueue(),
		matchmaking.NewFallbackScheduler(),
		registry,
		gateway{duelRepo, questionRepo},
		connManager,
		duel.Options{
			FallbackDelay:    cfg.MatchFallbackDelay,
			BotTickInterval:  cfg.BotTickInterval,
			QuestionsPerDuel: cfg.QuestionsPerDuel,
		},
	)

	cleanupWorker := cleanup.NewWorker(registry, cfg.CompletedSessionTTL)
	cleanupWorker.Start()

	wsHandler := websocket.NewHandler(connManager, orchestrator)
	statsHandler := transportHttp.NewStatsHandler(duelRepo, duelCache)

	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/api/duels/latest", statsHandler.GetLatestDuel)
	router.GET("/ws", wsHandler.HandleWebSocket)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Printf("Server starting on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	log.Println("Server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited gracefully")
}
