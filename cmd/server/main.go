package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-search/internal/cache"
	"github.com/iliyamo/event-search/internal/config"
	"github.com/iliyamo/event-search/internal/database"
	"github.com/iliyamo/event-search/internal/handler"
	"github.com/iliyamo/event-search/internal/index"
	"github.com/iliyamo/event-search/internal/middleware"
	"github.com/iliyamo/event-search/internal/queue"
	"github.com/iliyamo/event-search/internal/repository"
	"github.com/iliyamo/event-search/internal/router"
	"github.com/iliyamo/event-search/internal/search"
	"github.com/iliyamo/event-search/internal/syncer"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable; caching and rate limiting disabled")
	}

	emb := index.NewEmbedder(cfg.EmbeddingBaseURL, cfg.EmbeddingAPIKey, cfg.EmbeddingModel, cfg.EmbeddingDim)
	idx, err := index.NewClient(cfg.QdrantHost, cfg.QdrantPort, cfg.QdrantAPIKey, cfg.QdrantUseTLS, cfg.Collection, emb)
	if err != nil {
		log.Fatalf("index: %v", err)
	}

	eventRepo := repository.NewEventRepo(db)
	interestRepo := repository.NewInterestRepo(db)
	metadataRepo := repository.NewMetadataRepo(db)

	rc := cache.New(rdb, cfg.CacheTTL)
	searcher := search.New(idx, rc, interestRepo, metadataRepo, cfg.Collection, cfg.Location())
	reconciler := syncer.New(eventRepo, idx)

	// Sync runs arrive over the queue; the consumer reconnects on its own.
	go func() {
		if err := queue.StartSyncConsumer(reconciler); err != nil {
			log.Printf("sync consumer stopped: %v", err)
		}
	}()

	e := echo.New()
	router.RegisterRoutes(e)
	router.RegisterSearch(e,
		&handler.SearchHandler{Searcher: searcher, Loc: cfg.Location()},
		&handler.MetadataHandler{Repo: metadataRepo},
		cfg.JWTSecret,
		middleware.RateLimit(config.LoadRateLimitConfig(), rdb),
	)
	router.RegisterAdmin(e, &handler.AdminHandler{}, cfg.JWTSecret)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
