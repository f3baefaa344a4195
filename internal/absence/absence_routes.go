package absence

import (
	"go-hr-portal/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func RegisterRoutes(
	r *gin.RouterGroup,
	handler *Handler,
	rdb *redis.Client,
) {
	absences := r.Group("/absences")
	absences.Use(middleware.AuthMiddleware())
	{
		absences.POST("", middleware.Idempotency(rdb), handler.Create)
		absences.GET("/mine", handler.ListMine)
		absences.GET("", handler.ListAll)
		absences.GET("/stats", handler.GetStats)
		absences.PATCH("/:id/status", handler.Decide)
		absences.POST("/bulk-approve", handler.BulkApprove)
		absences.DELETE("/:id", handler.Delete)
	}
}
