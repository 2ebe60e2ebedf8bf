// Package config loads service configuration from defaults, an optional
// .env file, and NEWSBOT_* environment variables, in that order.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig
	Storage   StorageConfig
	Redis     RedisConfig
	Qdrant    QdrantConfig
	Embedding EmbeddingConfig
	Gemini    GeminiConfig
	MySQL     MySQLConfig
	Retrieval RetrievalConfig
	Log       LogConfig
}

type ServerConfig struct {
	Port int
}

type StorageConfig struct {
	DataDir string // PID file location
}

type RedisConfig struct {
	URL        string
	TTLSeconds int // session idle lifetime
}

type QdrantConfig struct {
	Host       string
	Port       int
	APIKey     string
	Collection string
	VectorSize int
}

type EmbeddingConfig struct {
	BaseURL string
	APIKey  string
	Model   string
}

type GeminiConfig struct {
	APIKey string
	Model  string
}

type MySQLConfig struct {
	DSN string
}

type RetrievalConfig struct {
	TopK int
}

type LogConfig struct {
	Level string
}

func defaults() Config {
	return Config{
		Server: ServerConfig{
			Port: 3000,
		},
		Storage: StorageConfig{
			DataDir: defaultDataDir(),
		},
		Redis: RedisConfig{
			URL:        "redis://localhost:6379",
			TTLSeconds: 86400,
		},
		Qdrant: QdrantConfig{
			Host:       "localhost",
			Port:       6334,
			Collection: "news",
			VectorSize: 512,
		},
		Embedding: EmbeddingConfig{
			BaseURL: "https://api.jina.ai",
			Model:   "jina-embeddings-v3",
		},
		Gemini: GeminiConfig{
			Model: "gemini-1.5-flash",
		},
		Retrieval: RetrievalConfig{
			TopK: 3,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

func defaultDataDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, "newsbot")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "newsbot-data"
	}
	return filepath.Join(home, ".local", "share", "newsbot")
}

// Load reads configuration: defaults, then a .env file in the working
// directory if present, then NEWSBOT_* environment variables. Missing
// secrets fail fast here rather than on the first request.
func Load() (Config, error) {
	// Best-effort: a missing .env file is the normal production case.
	_ = godotenv.Load()

	cfg := defaults()
	applyEnvOverrides(&cfg)

	if cfg.Embedding.APIKey == "" {
		return Config{}, fmt.Errorf("missing required config: embedding API key (set NEWSBOT_EMBEDDING_API_KEY)")
	}
	if cfg.Gemini.APIKey == "" {
		return Config{}, fmt.Errorf("missing required config: Gemini API key (set NEWSBOT_GEMINI_API_KEY)")
	}
	if cfg.MySQL.DSN == "" {
		return Config{}, fmt.Errorf("missing required config: MySQL DSN (set NEWSBOT_MYSQL_DSN)")
	}
	if cfg.Qdrant.VectorSize <= 0 {
		return Config{}, fmt.Errorf("invalid config: qdrant vector size must be positive")
	}

	return cfg, nil
}
