// Command sync runs one reconciliation pass against the vector index and
// exits. Meant for cron and for manual runs during operations; the server
// binary triggers the same job through the message queue.
package main

import (
	"context"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/iliyamo/event-search/internal/config"
	"github.com/iliyamo/event-search/internal/database"
	"github.com/iliyamo/event-search/internal/index"
	"github.com/iliyamo/event-search/internal/repository"
	"github.com/iliyamo/event-search/internal/syncer"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}

	emb := index.NewEmbedder(cfg.EmbeddingBaseURL, cfg.EmbeddingAPIKey, cfg.EmbeddingModel, cfg.EmbeddingDim)
	idx, err := index.NewClient(cfg.QdrantHost, cfg.QdrantPort, cfg.QdrantAPIKey, cfg.QdrantUseTLS, cfg.Collection, emb)
	if err != nil {
		log.Fatalf("index: %v", err)
	}

	sum, err := syncer.New(repository.NewEventRepo(db), idx).Run(context.Background())
	if err != nil {
		log.Fatalf("sync: %v", err)
	}
	for _, e := range sum.Errors {
		log.Printf("sync: load failure: %v", e)
	}
	if sum.Failed > 0 {
		os.Exit(1)
	}
}
