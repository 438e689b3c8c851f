package app

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/yuehanlin/biblegraph-backend/internal/pkg/logger"
	"github.com/yuehanlin/biblegraph-backend/internal/platform/neo4jdb"
	"github.com/yuehanlin/biblegraph-backend/internal/platform/rediscache"
)

type Clients struct {
	Graph *neo4jdb.Client
	Cache *rediscache.Client
}

// wireClients connects the external stores. Neo4j backs every operation
// and is required; the Redis result cache only joins when REDIS_ADDR is
// set.
func wireClients(log *logger.Logger) (Clients, error) {
	log.Info("Wiring clients...")

	graphClient, err := neo4jdb.NewFromEnv(log)
	if err != nil {
		return Clients{}, fmt.Errorf("init neo4j client: %w", err)
	}

	var cache *rediscache.Client
	if strings.TrimSpace(os.Getenv("REDIS_ADDR")) != "" {
		c, err := rediscache.NewFromEnv(log)
		if err != nil {
			_ = graphClient.Close(context.Background())
			return Clients{}, fmt.Errorf("init redis cache: %w", err)
		}
		cache = c
	}

	return Clients{Graph: graphClient, Cache: cache}, nil
}

func (c *Clients) Close() {
	if c == nil {
		return
	}
	if c.Cache != nil {
		_ = c.Cache.Close()
	}
	if c.Graph != nil {
		_ = c.Graph.Close(context.Background())
	}
}
