package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	googleauth "resume-studio/internal/auth"
	"resume-studio/internal/chats"
	"resume-studio/internal/export"
	"resume-studio/internal/resume"
	"resume-studio/internal/shared/config"
	"resume-studio/internal/shared/metrics"
	"resume-studio/internal/shared/server/middleware"
	"resume-studio/internal/shared/server/respond"
	"resume-studio/internal/uploads"
	"resume-studio/internal/users"
)

// RouterDeps carries the handlers mounted on the API. Nil handlers are skipped.
type RouterDeps struct {
	Config      config.Config
	Resumes     *resume.Handler
	Chats       *chats.Handler
	Uploads     *uploads.Handler
	Export      *export.Handler
	Users       *users.Handler
	GoogleAuth  *googleauth.GoogleService
	ChatLimiter *middleware.RateLimiter
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	if deps.Config.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
	)
	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api/v1")
	api.Use(middleware.Auth(deps.Config.AllowGuests))
	api.GET("/health", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, gin.H{"ok": true})
	})

	if deps.GoogleAuth != nil {
		deps.GoogleAuth.RegisterRoutes(api)
	}
	if deps.Users != nil {
		deps.Users.RegisterRoutes(api)
	}
	if deps.Resumes != nil {
		deps.Resumes.RegisterRoutes(api)
	}
	if deps.Chats != nil {
		rule := middleware.RateLimitRule{Rate: deps.Config.ChatRatePerSecond, Burst: deps.Config.ChatRateBurst}
		deps.Chats.RegisterRoutes(api, middleware.RateLimit("CHAT", rule, deps.ChatLimiter))
	}
	if deps.Uploads != nil {
		deps.Uploads.RegisterRoutes(api)
	}
	if deps.Export != nil {
		deps.Export.RegisterRoutes(api)
	}
	return r
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
