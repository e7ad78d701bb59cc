// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package ai

import (
	"errors"
	"net/url"
	"strings"
)

const (
	// VectorBackendLocal keeps chunk embeddings in the local Badger database.
	VectorBackendLocal = "local"
	// VectorBackendQdrant keeps chunk embeddings in a Qdrant collection.
	VectorBackendQdrant = "qdrant"
)

// Config holds configuration for the embedding service and the vector store.
type Config struct {
	// EmbeddingHost is the base URL for the embedding service API.
	// Example: "http://localhost:11434/v1" for local OpenAI-compatible server
	EmbeddingHost string `toml:"embedding_host"`

	// EmbeddingModel is the model identifier to use for text embeddings.
	// Example: "all-minilm", "text-embedding-3-small"
	EmbeddingModel string `toml:"embedding_model"`

	// EmbeddingAPIKey is the bearer token for the embedding service.
	// Local servers usually need none.
	EmbeddingAPIKey string `toml:"embedding_api_key"`

	// EmbeddingDimensions is the length of the vectors the model produces.
	// Used when creating a Qdrant collection.
	// Default: 384
	EmbeddingDimensions int `toml:"embedding_dimensions"`

	// VectorBackend selects where chunk embeddings live: "local" or "qdrant".
	VectorBackend string `toml:"vector_backend"`

	// QdrantURL is the REST endpoint of the Qdrant server.
	QdrantURL string `toml:"qdrant_url"`

	// QdrantAPIKey is sent as the api-key header when set.
	QdrantAPIKey string `toml:"qdrant_api_key"`

	// Collection is the Qdrant collection holding chunk embeddings.
	Collection string `toml:"collection"`
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithEmbeddingHost sets the embedding service host URL.
func WithEmbeddingHost(host string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingHost = host
	}
}

// WithEmbeddingModel sets the embedding model identifier.
func WithEmbeddingModel(model string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingModel = model
	}
}

// WithEmbeddingAPIKey sets the embedding service token.
func WithEmbeddingAPIKey(key string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingAPIKey = key
	}
}

// WithEmbeddingDimensions sets the embedding vector length.
func WithEmbeddingDimensions(dims int) ConfigOption {
	return func(c *Config) {
		c.EmbeddingDimensions = dims
	}
}

// WithVectorBackend selects the vector store implementation.
func WithVectorBackend(backend string) ConfigOption {
	return func(c *Config) {
		c.VectorBackend = backend
	}
}

// WithQdrant points the vector store at a Qdrant server and selects the qdrant backend.
func WithQdrant(rawURL, apiKey string) ConfigOption {
	return func(c *Config) {
		c.VectorBackend = VectorBackendQdrant
		c.QdrantURL = rawURL
		c.QdrantAPIKey = apiKey
	}
}

// WithCollection sets the Qdrant collection name.
func WithCollection(name string) ConfigOption {
	return func(c *Config) {
		c.Collection = name
	}
}

// DefaultConfig returns a Config with sensible defaults for a local
// OpenAI-compatible embedding service and the embedded vector store.
func DefaultConfig() *Config {
	return &Config{
		EmbeddingHost:       "http://localhost:11434/v1",
		EmbeddingModel:      "all-minilm",
		EmbeddingDimensions: 384,
		VectorBackend:       VectorBackendLocal,
		QdrantURL:           "http://localhost:6333",
		Collection:          "documents",
	}
}

// NewConfig creates a Config with the default values and applies the provided options.
//
// Example:
//
//	cfg := NewConfig(
//	    WithEmbeddingHost("http://localhost:11434/v1"),
//	    WithQdrant("http://localhost:6333", ""),
//	)
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Normalize ensures the configuration is in a canonical form.
// It automatically adds the /v1 suffix to the embedding host if missing, which is
// required by most OpenAI-compatible APIs (Ollama, LocalAI, vLLM, etc).
func (c *Config) Normalize() {
	if c.EmbeddingHost != "" && !strings.HasSuffix(c.EmbeddingHost, "/v1") {
		c.EmbeddingHost = strings.TrimSuffix(c.EmbeddingHost, "/")
		c.EmbeddingHost = c.EmbeddingHost + "/v1"
	}
	c.QdrantURL = strings.TrimSuffix(c.QdrantURL, "/")
	c.VectorBackend = strings.ToLower(strings.TrimSpace(c.VectorBackend))
}

// Validate checks that the configuration is valid and complete.
// It automatically normalizes the configuration before validation.
func (c *Config) Validate() error {
	c.Normalize()

	if c.EmbeddingHost == "" {
		return errors.New("ai config: EmbeddingHost is required")
	}
	if c.EmbeddingModel == "" {
		return errors.New("ai config: EmbeddingModel is required")
	}
	if c.EmbeddingDimensions < 1 {
		return errors.New("ai config: EmbeddingDimensions must be positive")
	}
	switch c.VectorBackend {
	case VectorBackendLocal:
	case VectorBackendQdrant:
		if c.QdrantURL == "" {
			return errors.New("ai config: QdrantURL is required for the qdrant backend")
		}
		if u, err := url.Parse(c.QdrantURL); err != nil || u.Scheme == "" || u.Host == "" {
			return errors.New("ai config: QdrantURL must be an absolute URL")
		}
		if c.Collection == "" {
			return errors.New("ai config: Collection is required for the qdrant backend")
		}
	default:
		return errors.New("ai config: VectorBackend must be \"local\" or \"qdrant\"")
	}
	return nil
}
