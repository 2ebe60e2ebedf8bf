package config

import (
	"log/slog"
	"os"
	"strconv"
)

type keyType int

const (
	kString keyType = iota
	kInt
)

type keySpec struct {
	env   string
	typ   keyType
	apply func(cfg *Config, v any)
}

var specs = []keySpec{
	{
		env: "NEWSBOT_SERVER_PORT", typ: kInt,
		apply: func(cfg *Config, v any) { cfg.Server.Port = v.(int) },
	},
	{
		env: "NEWSBOT_STORAGE_DATA_DIR", typ: kString,
		apply: func(cfg *Config, v any) { cfg.Storage.DataDir = v.(string) },
	},
	{
		env: "NEWSBOT_REDIS_URL", typ: kString,
		apply: func(cfg *Config, v any) { cfg.Redis.URL = v.(string) },
	},
	{
		env: "NEWSBOT_SESSION_TTL_SECONDS", typ: kInt,
		apply: func(cfg *Config, v any) { cfg.Redis.TTLSeconds = v.(int) },
	},
	{
		env: "NEWSBOT_QDRANT_HOST", typ: kString,
		apply: func(cfg *Config, v any) { cfg.Qdrant.Host = v.(string) },
	},
	{
		env: "NEWSBOT_QDRANT_PORT", typ: kInt,
		apply: func(cfg *Config, v any) { cfg.Qdrant.Port = v.(int) },
	},
	{
		env: "NEWSBOT_QDRANT_API_KEY", typ: kString,
		apply: func(cfg *Config, v any) { cfg.Qdrant.APIKey = v.(string) },
	},
	{
		env: "NEWSBOT_QDRANT_COLLECTION", typ: kString,
		apply: func(cfg *Config, v any) { cfg.Qdrant.Collection = v.(string) },
	},
	{
		env: "NEWSBOT_QDRANT_VECTOR_SIZE", typ: kInt,
		apply: func(cfg *Config, v any) { cfg.Qdrant.VectorSize = v.(int) },
	},
	{
		env: "NEWSBOT_EMBEDDING_BASE_URL", typ: kString,
		apply: func(cfg *Config, v any) { cfg.Embedding.BaseURL = v.(string) },
	},
	{
		env: "NEWSBOT_EMBEDDING_API_KEY", typ: kString,
		apply: func(cfg *Config, v any) { cfg.Embedding.APIKey = v.(string) },
	},
	{
		env: "NEWSBOT_EMBEDDING_MODEL", typ: kString,
		apply: func(cfg *Config, v any) { cfg.Embedding.Model = v.(string) },
	},
	{
		env: "NEWSBOT_GEMINI_API_KEY", typ: kString,
		apply: func(cfg *Config, v any) { cfg.Gemini.APIKey = v.(string) },
	},
	{
		env: "NEWSBOT_GEMINI_MODEL", typ: kString,
		apply: func(cfg *Config, v any) { cfg.Gemini.Model = v.(string) },
	},
	{
		env: "NEWSBOT_MYSQL_DSN", typ: kString,
		apply: func(cfg *Config, v any) { cfg.MySQL.DSN = v.(string) },
	},
	{
		env: "NEWSBOT_RETRIEVAL_TOP_K", typ: kInt,
		apply: func(cfg *Config, v any) { cfg.Retrieval.TopK = v.(int) },
	},
	{
		env: "NEWSBOT_LOG_LEVEL", typ: kString,
		apply: func(cfg *Config, v any) { cfg.Log.Level = v.(string) },
	},
}

func applyEnvOverrides(cfg *Config) {
	for _, s := range specs {
		raw := os.Getenv(s.env)
		if raw == "" {
			continue
		}
		switch s.typ {
		case kString:
			s.apply(cfg, raw)
		case kInt:
			if i, err := strconv.Atoi(raw); err == nil {
				s.apply(cfg, i)
			} else {
				slog.Warn("ignoring unparseable integer env override", "var", s.env, "value", raw, "error", err)
			}
		}
	}
}
