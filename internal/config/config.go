// Package config loads application configuration from environment variables.
package config

import (
	"log"
	"os"
	"strconv"
	"time"
)

// Config holds all runtime configuration values. Each field corresponds to an
// environment variable. Connection parameters for the relational store, the
// vector index and the embedding endpoint are all owned by deployment
// configuration; nothing here is hard-coded beyond defaults.
type Config struct {
	Env  string // application environment (e.g. "dev", "prod")
	Port string // HTTP port to listen on

	DBUser string // database username
	DBPass string // database password (optional)
	DBHost string // database host address
	DBPort string // database port number
	DBName string // database name

	QdrantHost   string // vector index host
	QdrantPort   int    // vector index gRPC port
	QdrantAPIKey string // vector index API key (optional)
	QdrantUseTLS bool   // talk TLS to the vector index
	Collection   string // target collection name

	EmbeddingBaseURL string // OpenAI-compatible embeddings endpoint (optional)
	EmbeddingAPIKey  string // embeddings API key
	EmbeddingModel   string // embedding model identifier
	EmbeddingDim     int    // embedding vector dimension

	JWTSecret string        // secret used to verify bearer tokens
	CacheTTL  time.Duration // lifetime of cached search results

	// LocalUTCOffset anchors date-only search bounds: a bare "2006-01-02"
	// is read as civil time at this fixed offset, in hours east of UTC.
	LocalUTCOffset int
}

// Load reads configuration values from environment variables and returns a
// Config. Required variables are enforced by must(); missing values cause the
// program to exit with a fatal log message.
func Load() Config {
	return Config{
		Env:  getenv("APP_ENV", "dev"),
		Port: must("APP_PORT"),

		DBUser: must("DB_USER"),
		DBPass: os.Getenv("DB_PASS"),
		DBHost: must("DB_HOST"),
		DBPort: must("DB_PORT"),
		DBName: must("DB_NAME"),

		QdrantHost:   must("QDRANT_HOST"),
		QdrantPort:   atoi(getenv("QDRANT_PORT", "6334")),
		QdrantAPIKey: os.Getenv("QDRANT_API_KEY"),
		QdrantUseTLS: getenv("QDRANT_TLS", "false") == "true",
		Collection:   getenv("QDRANT_COLLECTION", "events"),

		EmbeddingBaseURL: os.Getenv("EMBEDDING_BASE_URL"),
		EmbeddingAPIKey:  os.Getenv("EMBEDDING_API_KEY"),
		EmbeddingModel:   getenv("EMBEDDING_MODEL", "sentence-transformers/all-MiniLM-L6-v2"),
		EmbeddingDim:     atoi(getenv("EMBEDDING_DIM", "384")),

		JWTSecret: must("JWT_SECRET"),
		CacheTTL:  parseDur(getenv("CACHE_TTL", "5m")),

		LocalUTCOffset: atoi(getenv("LOCAL_UTC_OFFSET", "7")),
	}
}

// Location returns the fixed local zone used to interpret date-only bounds.
func (c Config) Location() *time.Location {
	return time.FixedZone("local", c.LocalUTCOffset*3600)
}

// must retrieves the value of a required environment variable. If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func atoi(s string) int {
	i, _ := strconv.Atoi(s)
	return i
}

func parseDur(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 5 * time.Minute
	}
	return d
}
