package config

import (
	"testing"
)

func TestDefaults(t *testing.T) {
	cfg := defaultConfig()

	if cfg.App.Port != 8080 {
		t.Fatalf("default port = %d, want 8080", cfg.App.Port)
	}
	if cfg.OpenAI.EmbeddingModel != "text-embedding-3-small" {
		t.Fatalf("default embedding model = %q", cfg.OpenAI.EmbeddingModel)
	}
	if cfg.OpenAI.EmbeddingDimensions != 1536 {
		t.Fatalf("default embedding dimensions = %d, want 1536", cfg.OpenAI.EmbeddingDimensions)
	}
	if cfg.Chunking.MinTokens != 500 || cfg.Chunking.MaxTokens != 800 || cfg.Chunking.OverlapTokens != 100 {
		t.Fatalf("default chunking budgets = %+v", cfg.Chunking)
	}
	if cfg.Limits.MaxUploadBytes != 10<<20 {
		t.Fatalf("default max upload = %d, want %d", cfg.Limits.MaxUploadBytes, 10<<20)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("APP_PORT", "9090")
	t.Setenv("POSTGRES_HOST", "db.internal")
	t.Setenv("OPENAI_EMBEDDING_DIMENSIONS", "3072")
	t.Setenv("CHUNKING_MAX_TOKENS", "1200")

	cfg := defaultConfig()
	overrideByEnv(cfg)

	if cfg.App.Port != 9090 {
		t.Fatalf("port = %d, want 9090", cfg.App.Port)
	}
	if cfg.Postgres.Host != "db.internal" {
		t.Fatalf("postgres host = %q", cfg.Postgres.Host)
	}
	if cfg.OpenAI.EmbeddingDimensions != 3072 {
		t.Fatalf("embedding dimensions = %d, want 3072", cfg.OpenAI.EmbeddingDimensions)
	}
	if cfg.Chunking.MaxTokens != 1200 {
		t.Fatalf("max tokens = %d, want 1200", cfg.Chunking.MaxTokens)
	}
}

func TestEnvOverrideBadInt(t *testing.T) {
	t.Setenv("APP_PORT", "not-a-number")

	cfg := defaultConfig()
	overrideByEnv(cfg)

	if cfg.App.Port != 8080 {
		t.Fatalf("port = %d, want the default 8080 on a bad value", cfg.App.Port)
	}
}

func TestPostgresDSN(t *testing.T) {
	cfg := defaultConfig()
	cfg.Postgres.Host = "h"
	cfg.Postgres.Port = 5433
	cfg.Postgres.User = "u"
	cfg.Postgres.Password = "p"
	cfg.Postgres.DB = "d"
	cfg.Postgres.SSLMode = "require"

	want := "host=h port=5433 user=u password=p dbname=d sslmode=require"
	if got := cfg.PostgresDSN(); got != want {
		t.Fatalf("PostgresDSN() = %q, want %q", got, want)
	}
}
