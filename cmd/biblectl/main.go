// Package main provides the biblectl binary, the maintenance companion
// to the API server. It talks straight to Neo4j and never goes through
// the HTTP layer, so it works while the server is down.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/spf13/cobra"

	"github.com/yuehanlin/biblegraph-backend/internal/graph"
	"github.com/yuehanlin/biblegraph-backend/internal/importer"
	"github.com/yuehanlin/biblegraph-backend/internal/pkg/logger"
	"github.com/yuehanlin/biblegraph-backend/internal/platform/neo4jdb"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "biblectl",
		Short: "Maintain the Bible Graph verse store",
		Long: `Biblectl maintains the verse graph behind the Bible Graph API.

Subcommands:
  schema  - Create the graph uniqueness constraints
  seed    - Seed a starter graph when the store is empty
  import  - Import a Zefania XML bible into the graph

Connection settings come from the same NEO4J_* environment variables
the server uses; a .env file in the working directory is honored.`,
	}
	cmd.AddCommand(schemaCmd(), seedCmd(), importCmd())
	return cmd
}

func importCmd() *cobra.Command {
	var (
		file    string
		workers int
	)
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import a Zefania XML bible into the graph",
		Long: `Import materializes every verse of the document, then links them
with REFERENCES edges in reading order. Both passes merge by key, so
re-running an import is safe and never overwrites existing text.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := importer.ParseFile(file)
			if err != nil {
				return err
			}
			env, err := openGraph()
			if err != nil {
				return err
			}
			defer env.close()

			pipeline := importer.NewPipeline(env.verses, env.log, workers)
			stats, err := pipeline.Run(cmd.Context(), doc)
			if err != nil {
				return err
			}
			fmt.Printf("Imported %d books (%d skipped)\n", stats.Books, stats.BooksSkipped)
			fmt.Printf("  verses:           %d\n", stats.Verses)
			fmt.Printf("  edges created:    %d\n", stats.EdgesCreated)
			fmt.Printf("  edges existing:   %d\n", stats.EdgesExisting)
			fmt.Printf("  edge failures:    %d\n", stats.EdgeFailures)
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "Zefania XML document to import")
	cmd.Flags().IntVar(&workers, "workers", 4, "Books imported concurrently per pass")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Seed a starter graph when the store is empty",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := openGraph()
			if err != nil {
				return err
			}
			defer env.close()

			if err := env.verses.InitSchema(cmd.Context()); err != nil {
				return err
			}
			seeded, err := env.verses.SeedIfEmpty(cmd.Context())
			if err != nil {
				return err
			}
			if seeded {
				fmt.Println("Seeded starter verses")
			} else {
				fmt.Println("Graph already holds verses; nothing to do")
			}
			return nil
		},
	}
}

func schemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Create the graph uniqueness constraints",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := openGraph()
			if err != nil {
				return err
			}
			defer env.close()

			if err := env.verses.InitSchema(cmd.Context()); err != nil {
				return err
			}
			fmt.Println("Graph schema is in place")
			return nil
		},
	}
}

// graphEnv is the minimal wiring a maintenance command needs: a logger,
// the Neo4j client, and the verse repo over it.
type graphEnv struct {
	log    *logger.Logger
	client *neo4jdb.Client
	verses graph.VerseRepo
}

func openGraph() (*graphEnv, error) {
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	client, err := neo4jdb.NewFromEnv(log)
	if err != nil {
		log.Sync()
		return nil, err
	}
	store := graph.NewStore(client, log)
	return &graphEnv{
		log:    log,
		client: client,
		verses: graph.NewVerseRepo(store, log),
	}, nil
}

func (e *graphEnv) close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	_ = e.client.Close(ctx)
	cancel()
	e.log.Sync()
}
