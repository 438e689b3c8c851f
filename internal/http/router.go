package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yuehanlin/biblegraph-backend/internal/http/handlers"
	httpMW "github.com/yuehanlin/biblegraph-backend/internal/http/middleware"
	"github.com/yuehanlin/biblegraph-backend/internal/pkg/logger"
)

type RouterConfig struct {
	Log *logger.Logger

	AuthHandler    *httpH.AuthHandler
	AuthMiddleware *httpMW.AuthMiddleware
	UserHandler    *httpH.UserHandler
	VerseHandler   *httpH.VerseHandler
	CardHandler    *httpH.CardHandler

	HealthHandler *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware("biblegraph-api"))
	r.Use(httpMW.AttachRequestContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.CORS())

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
		r.GET("/", cfg.HealthHandler.ApiRoot)
	}

	api := r.Group("/api")
	{
		// Auth (public)
		if cfg.AuthHandler != nil {
			api.POST("/register", cfg.AuthHandler.Register)
			api.POST("/login", cfg.AuthHandler.Login)
		}

		// Verse graph (public)
		if cfg.VerseHandler != nil {
			api.GET("/verses/:book/:chapter/:verse", cfg.VerseHandler.GetVerse)
			api.GET("/cross-references/:book/:chapter/:verse", cfg.VerseHandler.CrossReferences)
			api.GET("/graph-data", cfg.VerseHandler.GraphData)
		}
	}

	shared := api.Group("/")
	{
		// Middleware
		if cfg.AuthMiddleware != nil {
			shared.Use(cfg.AuthMiddleware.OptionalAuth())
		}

		// Cards on a verse: public ones plus the caller's own when a
		// token accompanies the request.
		if cfg.CardHandler != nil {
			shared.GET("/verses/:book/:chapter/:verse/cards", cfg.CardHandler.ListByVerse)
		}
	}

	protected := api.Group("/")
	{
		// Middleware
		if cfg.AuthMiddleware != nil {
			protected.Use(cfg.AuthMiddleware.RequireAuth())
		}

		// User (Me)
		if cfg.UserHandler != nil {
			protected.GET("/me", cfg.UserHandler.GetMe)
		}

		// Knowledge cards
		if cfg.CardHandler != nil {
			protected.POST("/cards", cfg.CardHandler.Create)
			protected.GET("/cards", cfg.CardHandler.ListOwn)
			protected.GET("/cards/:id", cfg.CardHandler.Get)
			protected.PUT("/cards/:id", cfg.CardHandler.Update)
			protected.DELETE("/cards/:id", cfg.CardHandler.Delete)
		}
	}

	return r
}
