package app

import (
	"github.com/yuehanlin/biblegraph-backend/internal/pkg/logger"
	"github.com/yuehanlin/biblegraph-backend/internal/services"
)

type Services struct {
	Auth  services.AuthService
	Verse services.VerseService
	Card  services.CardService
}

func wireServices(log *logger.Logger, cfg Config, reposet Repos, clients Clients) Services {
	log.Info("Wiring services...")

	// Assign the cache interface only when a client exists, so the
	// service's nil check still works.
	var cache services.GraphCache
	if clients.Cache != nil {
		cache = clients.Cache
	}

	return Services{
		Auth:  services.NewAuthService(log, reposet.User, cfg.JWTSecretKey, cfg.AccessTokenTTL),
		Verse: services.NewVerseService(log, reposet.Verse, cache),
		Card:  services.NewCardService(log, reposet.Card, reposet.Verse),
	}
}
