package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/oazco/profiler-backend/internal/config"
	"github.com/oazco/profiler-backend/internal/handler"
	"github.com/oazco/profiler-backend/internal/middleware"
	"github.com/oazco/profiler-backend/internal/response"
	"github.com/oazco/profiler-backend/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Session    *handler.SessionHandler
	ProgressWS *handler.ProgressWSHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	tokens *service.TokenService,
	handlers *Handlers,
	cfg *config.Config,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	// Apply brotli middleware globally.
	router.Use(middleware.Brotli())

	// Health check.
	router.GET("/healthz", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// Rate limiter for session creation (20 new sessions per minute per IP).
	startLimiter := middleware.NewRateLimiter(20, time.Minute)

	// ─── 1. Session Start (Public, Rate Limited) ───────────────────────
	sessions := router.Group("/api/v1/sessions")
	{
		sessions.POST("", startLimiter.Middleware(), handlers.Session.StartSession)
	}

	// ─── 2. Session Operations (Session Token) ─────────────────────────
	sessionAPI := sessions.Group("/:id")
	sessionAPI.Use(middleware.RequireSessionToken(tokens))
	{
		sessionAPI.GET("/next", handlers.Session.NextItem)
		sessionAPI.POST("/responses", handlers.Session.SubmitResponse)
		sessionAPI.POST("/finalize", handlers.Session.Finalize)
		sessionAPI.GET("/results", handlers.Session.Results)
	}

	// ─── 3. WebSocket Group (Session WS Auth) ──────────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(middleware.RequireSessionWSAuth(tokens))
	{
		ws.GET("/sessions/:id/progress", handlers.ProgressWS.SessionProgressStream)
	}

	return router
}
