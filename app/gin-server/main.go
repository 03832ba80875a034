package main

import (
	"context"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/cliniqa/intake/config"
	"github.com/cliniqa/intake/internal/api/handlers"
	"github.com/cliniqa/intake/internal/api/middleware"
	"github.com/cliniqa/intake/internal/api/routes"
	"github.com/cliniqa/intake/internal/cache"
	"github.com/cliniqa/intake/internal/interview"
	"github.com/cliniqa/intake/internal/logger"
	"github.com/cliniqa/intake/internal/models"
	"github.com/cliniqa/intake/internal/providers/llm"
	"github.com/cliniqa/intake/internal/ratelimit"
	mongorepo "github.com/cliniqa/intake/internal/repositories/mongo"
	pgrepo "github.com/cliniqa/intake/internal/repositories/postgres"
	"github.com/cliniqa/intake/internal/services"
)

func main() {
	_ = godotenv.Load()

	l := logger.New()

	if err := config.InitPostgres(); err != nil {
		log.Fatalf("PostgreSQL init error: %v", err)
	}
	l.Info("PostgreSQL connected")

	if err := config.PostgresDB.AutoMigrate(&models.Invitation{}); err != nil {
		log.Fatalf("PostgreSQL migration error: %v", err)
	}

	if err := config.InitRedis(); err != nil {
		log.Fatalf("Redis init error: %v", err)
	}
	l.Info("Redis connected")

	if err := config.InitMongo(); err != nil {
		log.Fatalf("MongoDB init error: %v", err)
	}
	if err := config.EnsureMongoIndexes(); err != nil {
		log.Fatalf("MongoDB index error: %v", err)
	}
	l.Info("MongoDB connected")

	completer, err := llm.FromEnv(context.Background())
	if err != nil {
		log.Fatalf("LLM provider init error: %v", err)
	}
	defer completer.Close()

	auditDB := config.MongoClient.Database(config.MongoDBName())

	invitationRepo := pgrepo.NewInvitationRepo(config.PostgresDB)
	auditRepo := mongorepo.NewAuditRepo(auditDB)
	redisCache := cache.NewRedisCache(config.RedisClient)

	invitationSvc := services.NewInvitationService(invitationRepo, auditRepo, redisCache, l)
	interviewSvc := services.NewInterviewService(invitationSvc, completer, interview.DefaultTuning(), l)

	limiter := ratelimit.NewRedisLimiter(config.RedisClient, envInt("RATE_LIMIT_MAX", 120),
		time.Duration(envInt("RATE_LIMIT_WINDOW_SECONDS", 900))*time.Second)

	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(l))

	routes.RegisterRoutes(r, routes.Deps{
		Interview:  handlers.NewInterviewHandler(interviewSvc, invitationSvc),
		Invitation: handlers.NewInvitationHandler(invitationSvc),
		Limiter:    limiter,
		Logger:     l,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	if err := r.Run(":" + port); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func envInt(key string, def int) int {
	if s := os.Getenv(key); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return def
}
