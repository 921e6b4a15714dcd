package handler

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/yourusername/jobhunt-api/internal/middleware"
	"github.com/yourusername/jobhunt-api/internal/safejson"
	"github.com/yourusername/jobhunt-api/internal/service"
)

// RouterDeps holds everything the HTTP layer needs
type RouterDeps struct {
	Jobs           *service.JobService
	Parser         *safejson.Parser
	DB             Pinger
	RateLimiter    *middleware.RateLimiter
	AllowedOrigins []string
}

// NewRouter builds the gin engine with middleware and all routes
func NewRouter(d RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     d.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", middleware.HeaderRequestID},
		ExposeHeaders:    []string{"Content-Length", middleware.HeaderRequestID},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Health check (not rate limited)
	r.GET("/health", Health(d.DB))

	jobHandler := NewJobHandler(d.Jobs)
	validateHandler := NewValidateHandler(d.Parser)

	api := r.Group("/")
	if d.RateLimiter != nil {
		api.Use(d.RateLimiter.Limit())
	}
	{
		// Jobs
		api.GET("/jobs", jobHandler.ListJobs)
		api.POST("/jobs", jobHandler.CreateJob)
		api.GET("/jobs/:id", jobHandler.GetJob)
		api.PUT("/jobs/:id", jobHandler.UpdateJob)
		api.DELETE("/jobs/:id", jobHandler.DeleteJob)

		// Stored data debugging
		api.POST("/json/validate", validateHandler.Validate)
		api.POST("/admin/repair", jobHandler.RepairJobs)
	}

	return r
}
