package app

import (
	"github.com/yuehanlin/biblegraph-backend/internal/graph"
	"github.com/yuehanlin/biblegraph-backend/internal/pkg/logger"
)

type Repos struct {
	Verse graph.VerseRepo
	User  graph.UserRepo
	Card  graph.CardRepo
}

func wireRepos(store *graph.Store, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Verse: graph.NewVerseRepo(store, log),
		User:  graph.NewUserRepo(store, log),
		Card:  graph.NewCardRepo(store, log),
	}
}
