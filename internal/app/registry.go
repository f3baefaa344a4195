package app

import (
	"database/sql"
	"time"

	"go-hr-portal/internal/absence"
	"go-hr-portal/internal/audit"
	"go-hr-portal/internal/auth"
	"go-hr-portal/internal/messaging/kafka"
	"go-hr-portal/internal/middleware"
	"go-hr-portal/internal/shared/counter"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func registerModules(
	router *gin.Engine,
	db *sql.DB,
	gormDB *gorm.DB,
	rdb *redis.Client,
) error {
	// --- Repositories ---
	authRepo := auth.NewRepository(gormDB)
	absenceRepo := absence.NewRepository(db)
	outboxRepo := kafka.NewOutboxRepository(db)

	// --- Shared infrastructure ---
	auditRecorder := audit.NewOutboxRecorder(outboxRepo)
	attemptStore := counter.NewRedisAttemptStore(rdb, 15*time.Minute, nil)

	// --- Services ---
	authService := auth.NewService(authRepo, attemptStore, auditRecorder)
	absenceService := absence.NewService(db, absenceRepo, auditRecorder, rdb)

	// --- Handlers ---
	authHandler := auth.NewHandler(authService)
	absenceHandler := absence.NewHandlerWithRedis(absenceService, rdb)

	// --- Global middleware ---
	router.Use(middleware.RequestID())
	router.Use(middleware.ContextLogger(zap.L()))

	// --- Routes Registration ---
	api := router.Group("/api/v1")
	{
		auth.RegisterRoutes(api, authHandler)
		absence.RegisterRoutes(api, absenceHandler, rdb)
	}

	return nil
}
