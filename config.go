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


package crawlsearch

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/poiesic/crawlsearch/ai"
	"github.com/poiesic/crawlsearch/chunker"
	"github.com/poiesic/crawlsearch/ingestion"
	"github.com/poiesic/crawlsearch/rank"
)

// Duration is a time.Duration written as a string ("1s", "250ms") in config files.
type Duration time.Duration

// UnmarshalText parses a duration string.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// MarshalText formats the duration as a string.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// IngestionConfig controls the ingestion pipeline and reembedding.
type IngestionConfig struct {
	ChunkSize    int      `toml:"chunk_size"`
	ChunkOverlap int      `toml:"chunk_overlap"`
	PoolSize     int      `toml:"pool_size"`
	BatchSize    int      `toml:"batch_size"`
	MaxRetries   int      `toml:"max_retries"`
	RetryDelay   Duration `toml:"retry_delay"`
}

// SearchConfig controls ranking and query execution.
type SearchConfig struct {
	K1        float64  `toml:"k1"`
	B         float64  `toml:"b"`
	Epsilon   float64  `toml:"epsilon"`
	Timeout   Duration `toml:"timeout"`
	CacheSize int      `toml:"cache_size"`
}

// Config is the complete engine configuration.
type Config struct {
	// Path is the database directory. Ignored when InMemory is set.
	Path      string          `toml:"path"`
	InMemory  bool            `toml:"in_memory"`
	AI        *ai.Config      `toml:"ai"`
	Ingestion IngestionConfig `toml:"ingestion"`
	Search    SearchConfig    `toml:"search"`
}

// DefaultConfig returns a Config with the stock defaults and no database path.
func DefaultConfig() *Config {
	return &Config{
		AI: ai.DefaultConfig(),
		Ingestion: IngestionConfig{
			ChunkSize:    chunker.DefaultChunkSize,
			ChunkOverlap: chunker.DefaultChunkOverlap,
			BatchSize:    ingestion.DefaultBatchSize,
			MaxRetries:   ingestion.DefaultMaxRetries,
			RetryDelay:   Duration(ingestion.DefaultRetryDelay),
		},
		Search: SearchConfig{
			K1:        rank.DefaultK1,
			B:         rank.DefaultB,
			Epsilon:   rank.DefaultEpsilon,
			CacheSize: 256,
		},
	}
}

// ParseConfig decodes TOML over the defaults and validates the result.
func ParseConfig(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadConfig reads and parses the TOML file at path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseConfig(data)
}

// Validate checks that the configuration is complete and consistent.
func (c *Config) Validate() error {
	if !c.InMemory && c.Path == "" {
		return errors.New("config: path is required unless in_memory is set")
	}
	if c.AI == nil {
		c.AI = ai.DefaultConfig()
	}
	if err := c.AI.Validate(); err != nil {
		return err
	}
	if c.Ingestion.ChunkSize < 1 || c.Ingestion.ChunkOverlap < 0 || c.Ingestion.ChunkOverlap >= c.Ingestion.ChunkSize {
		return fmt.Errorf("config: chunk_overlap must be in [0, chunk_size), got %d and %d",
			c.Ingestion.ChunkOverlap, c.Ingestion.ChunkSize)
	}
	if c.Search.CacheSize < 0 {
		return errors.New("config: cache_size must not be negative")
	}
	if c.Search.Timeout < 0 {
		return errors.New("config: timeout must not be negative")
	}
	return nil
}
