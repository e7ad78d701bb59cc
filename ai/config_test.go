package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.NotNil(t, cfg)
	assert.Equal(t, "http://localhost:11434/v1", cfg.EmbeddingHost)
	assert.Equal(t, "all-minilm", cfg.EmbeddingModel)
	assert.Equal(t, 384, cfg.EmbeddingDimensions)
	assert.Equal(t, VectorBackendLocal, cfg.VectorBackend)
	assert.Equal(t, "documents", cfg.Collection)
}

func TestNewConfig(t *testing.T) {
	t.Run("with no options", func(t *testing.T) {
		cfg := NewConfig()
		assert.Equal(t, DefaultConfig(), cfg)
	})

	t.Run("with custom embedding settings", func(t *testing.T) {
		cfg := NewConfig(
			WithEmbeddingHost("http://embed:8080/v1"),
			WithEmbeddingModel("text-embedding-3-small"),
			WithEmbeddingDimensions(1536),
		)

		assert.Equal(t, "http://embed:8080/v1", cfg.EmbeddingHost)
		assert.Equal(t, "text-embedding-3-small", cfg.EmbeddingModel)
		assert.Equal(t, 1536, cfg.EmbeddingDimensions)
	})

	t.Run("with qdrant", func(t *testing.T) {
		cfg := NewConfig(WithQdrant("http://qdrant:6333", "secret"), WithCollection("documents1"))

		assert.Equal(t, VectorBackendQdrant, cfg.VectorBackend)
		assert.Equal(t, "http://qdrant:6333", cfg.QdrantURL)
		assert.Equal(t, "secret", cfg.QdrantAPIKey)
		assert.Equal(t, "documents1", cfg.Collection)
	})
}

func TestConfigNormalize(t *testing.T) {
	tests := []struct {
		name     string
		host     string
		expected string
	}{
		{name: "already has /v1", host: "http://localhost:11434/v1", expected: "http://localhost:11434/v1"},
		{name: "missing /v1", host: "http://localhost:11434", expected: "http://localhost:11434/v1"},
		{name: "has trailing slash", host: "http://localhost:11434/", expected: "http://localhost:11434/v1"},
		{name: "empty host", host: "", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{EmbeddingHost: tt.host}
			cfg.Normalize()
			assert.Equal(t, tt.expected, cfg.EmbeddingHost)
		})
	}

	t.Run("backend and qdrant url", func(t *testing.T) {
		cfg := &Config{VectorBackend: " Qdrant ", QdrantURL: "http://q:6333/"}
		cfg.Normalize()
		assert.Equal(t, VectorBackendQdrant, cfg.VectorBackend)
		assert.Equal(t, "http://q:6333", cfg.QdrantURL)
	})
}

func TestConfigValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			EmbeddingHost:       "http://localhost:11434",
			EmbeddingModel:      "all-minilm",
			EmbeddingDimensions: 384,
			VectorBackend:       VectorBackendLocal,
		}
	}

	t.Run("valid local config", func(t *testing.T) {
		cfg := valid()
		require.NoError(t, cfg.Validate())
		assert.Equal(t, "http://localhost:11434/v1", cfg.EmbeddingHost)
	})

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantMsg string
	}{
		{name: "missing embedding host", mutate: func(c *Config) { c.EmbeddingHost = "" }, wantMsg: "EmbeddingHost"},
		{name: "missing embedding model", mutate: func(c *Config) { c.EmbeddingModel = "" }, wantMsg: "EmbeddingModel"},
		{name: "zero dimensions", mutate: func(c *Config) { c.EmbeddingDimensions = 0 }, wantMsg: "EmbeddingDimensions"},
		{name: "unknown backend", mutate: func(c *Config) { c.VectorBackend = "faiss" }, wantMsg: "VectorBackend"},
		{
			name:    "qdrant without url",
			mutate:  func(c *Config) { c.VectorBackend = VectorBackendQdrant; c.Collection = "docs" },
			wantMsg: "QdrantURL",
		},
		{
			name: "qdrant with relative url",
			mutate: func(c *Config) {
				c.VectorBackend = VectorBackendQdrant
				c.QdrantURL = "localhost:6333"
				c.Collection = "docs"
			},
			wantMsg: "QdrantURL",
		},
		{
			name: "qdrant without collection",
			mutate: func(c *Config) {
				c.VectorBackend = VectorBackendQdrant
				c.QdrantURL = "http://localhost:6333"
			},
			wantMsg: "Collection",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}

	t.Run("valid qdrant config", func(t *testing.T) {
		cfg := valid()
		cfg.VectorBackend = VectorBackendQdrant
		cfg.QdrantURL = "http://localhost:6333"
		cfg.Collection = "documents"
		assert.NoError(t, cfg.Validate())
	})
}

func TestConfigValidate_Integration(t *testing.T) {
	require.NoError(t, NewConfig().Validate())
	require.NoError(t, NewConfig(WithQdrant("http://localhost:6333", "")).Validate())
}
