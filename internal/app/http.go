package app

import (
	"github.com/gin-gonic/gin"

	"github.com/yuehanlin/biblegraph-backend/internal/http"
	httpH "github.com/yuehanlin/biblegraph-backend/internal/http/handlers"
	httpMW "github.com/yuehanlin/biblegraph-backend/internal/http/middleware"
	"github.com/yuehanlin/biblegraph-backend/internal/pkg/logger"
)

type Middleware struct {
	Auth *httpMW.AuthMiddleware
}

type Handlers struct {
	Health *httpH.HealthHandler
	Auth   *httpH.AuthHandler
	User   *httpH.UserHandler
	Verse  *httpH.VerseHandler
	Card   *httpH.CardHandler
}

func wireHandlers(log *logger.Logger, serviceset Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health: httpH.NewHealthHandler(),
		Auth:   httpH.NewAuthHandler(serviceset.Auth),
		User:   httpH.NewUserHandler(serviceset.Auth),
		Verse:  httpH.NewVerseHandler(serviceset.Verse),
		Card:   httpH.NewCardHandler(serviceset.Card),
	}
}

func wireMiddleware(log *logger.Logger, serviceset Services) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{
		Auth: httpMW.NewAuthMiddleware(log, serviceset.Auth),
	}
}

func wireRouter(log *logger.Logger, handlerset Handlers, middlewareset Middleware) *gin.Engine {
	return http.NewRouter(http.RouterConfig{
		Log:            log,
		HealthHandler:  handlerset.Health,
		AuthHandler:    handlerset.Auth,
		AuthMiddleware: middlewareset.Auth,
		UserHandler:    handlerset.User,
		VerseHandler:   handlerset.Verse,
		CardHandler:    handlerset.Card,
	})
}
