// Package server は HTTP ルーターの組み立てを行います。
package server

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/task-manager/internal/apperr"
	"github.com/yourusername/task-manager/internal/auth"
	"github.com/yourusername/task-manager/internal/config"
	"github.com/yourusername/task-manager/internal/logging"
	"github.com/yourusername/task-manager/internal/metrics"
	"github.com/yourusername/task-manager/internal/tasks"
)

const (
	serviceName    = "task-manager-api"
	serviceVersion = "1.0.0"
)

// Dependencies はルーターが必要とする依存関係です。
type Dependencies struct {
	Config  *config.Config
	Logger  *logrus.Logger
	Users   auth.UserRepository
	Tasks   tasks.Repository
	Limiter auth.LoginLimiter // nil の場合は試行制限なし
	Metrics *metrics.Metrics  // nil の場合は /metrics を公開しない
}

// NewRouter はミドルウェアとルーティングを設定した gin.Engine を返します。
func NewRouter(deps Dependencies) *gin.Engine {
	cfg := deps.Config

	router := gin.New()
	router.Use(logging.Middleware(deps.Logger))
	router.Use(gin.CustomRecovery(func(c *gin.Context, recovered any) {
		logging.FromContext(c).WithField("panic", recovered).Error("panic recovered")
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"code":    apperr.CodeInternal,
			"message": apperr.InternalMessage,
		})
	}))
	if deps.Metrics != nil {
		router.Use(deps.Metrics.Middleware())
	}
	router.Use(securityHeaders(cfg.IsProduction()))

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.AllowedOrigins()
	corsConfig.AllowMethods = []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete}
	corsConfig.AllowHeaders = []string{
		"Origin",
		"Content-Type",
		"Accept",
		"Authorization",
		logging.RequestIDHeader,
	}
	corsConfig.ExposeHeaders = []string{logging.RequestIDHeader}
	corsConfig.AllowCredentials = true
	corsConfig.OptionsResponseStatusCode = http.StatusOK
	router.Use(cors.New(corsConfig))

	setupRoutes(router, deps)
	return router
}

// handleHealth はヘルスチェックエンドポイントのハンドラーです。
func handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": serviceName,
		"version": serviceVersion,
	})
}

// setupRoutes は API グループと認証周りの配線を行います。
func setupRoutes(router *gin.Engine, deps Dependencies) {
	cfg := deps.Config

	router.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "Server Running")
	})
	router.GET("/health", handleHealth)
	if deps.Metrics != nil {
		router.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}

	codec := auth.NewTokenCodec(cfg.JWTSecret, cfg.TokenTTL())
	authManager := auth.NewManager(deps.Users, codec, auth.Options{
		Limiter:      deps.Limiter,
		SecureCookie: cfg.IsProduction(),
	})
	requireLogin := auth.RequireLogin(codec)

	taskHandler := tasks.NewHandler(tasks.NewService(deps.Tasks))

	api := router.Group("/api")
	{
		authRoutes := api.Group("/auth")
		{
			authRoutes.POST("/register", authManager.Register)
			authRoutes.POST("/login", authManager.Login)
			authRoutes.POST("/logout", authManager.Logout)
			authRoutes.POST("/protectedCheck", requireLogin, authManager.ProtectedCheck)
			authRoutes.POST("/getProfile", requireLogin, authManager.Profile)
			authRoutes.GET("/profile", requireLogin, authManager.Profile)
		}

		taskRoutes := api.Group("/task")
		taskRoutes.Use(requireLogin)
		{
			taskRoutes.GET("/", taskHandler.List)
			taskRoutes.POST("/", taskHandler.Create)
			taskRoutes.GET("/filter", taskHandler.Filter)
			taskRoutes.PUT("/:id", taskHandler.Update)
			taskRoutes.DELETE("/:id", taskHandler.Delete)
			taskRoutes.PUT("/:id/due-date", taskHandler.UpdateDueDate)
			taskRoutes.PUT("/:id/priority", taskHandler.UpdatePriority)
			taskRoutes.PUT("/:id/toggle-complete", taskHandler.ToggleComplete)
		}
	}
}
