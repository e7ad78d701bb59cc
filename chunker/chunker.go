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


package chunker

import (
	"fmt"
	"strings"

	"github.com/poiesic/crawlsearch/core"
	"github.com/tmc/langchaingo/textsplitter"
)

const (
	// DefaultChunkSize is the maximum chunk length in characters.
	DefaultChunkSize = 200
	// DefaultChunkOverlap is the number of characters shared by adjacent chunks.
	DefaultChunkOverlap = 50
)

// Chunker splits document text into overlapping windows for embedding.
type Chunker struct {
	size     int
	overlap  int
	splitter textsplitter.TextSplitter
}

// Option configures a Chunker.
type Option func(*Chunker) error

// WithChunkSize sets the maximum chunk length.
func WithChunkSize(size int) Option {
	return func(c *Chunker) error {
		if size < 1 {
			return ErrInvalidChunkSize
		}
		c.size = size
		return nil
	}
}

// WithChunkOverlap sets how many characters adjacent chunks share.
func WithChunkOverlap(overlap int) Option {
	return func(c *Chunker) error {
		if overlap < 0 {
			return ErrInvalidChunkOverlap
		}
		c.overlap = overlap
		return nil
	}
}

// New creates a Chunker. The overlap must be smaller than the chunk size.
func New(opts ...Option) (*Chunker, error) {
	c := &Chunker{
		size:    DefaultChunkSize,
		overlap: DefaultChunkOverlap,
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	if c.overlap >= c.size {
		return nil, fmt.Errorf("%w: overlap %d, size %d", ErrInvalidChunkOverlap, c.overlap, c.size)
	}

	c.splitter = textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(c.size),
		textsplitter.WithChunkOverlap(c.overlap),
	)
	return c, nil
}

// Split returns the chunks of text in order. Whitespace-only text yields no chunks.
func (c *Chunker) Split(text string) ([]string, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	parts, err := c.splitter.SplitText(text)
	if err != nil {
		return nil, err
	}

	chunks := parts[:0]
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			chunks = append(chunks, p)
		}
	}
	return chunks, nil
}

// ChunkDocument splits the full text of doc into chunks tagged with its URL.
// Chunk IDs are derived from URL, position and text so re-chunking unchanged
// content yields the same IDs.
func (c *Chunker) ChunkDocument(doc *core.Document) ([]*core.Chunk, error) {
	parts, err := c.Split(doc.FullText())
	if err != nil {
		return nil, err
	}

	chunks := make([]*core.Chunk, len(parts))
	for i, text := range parts {
		chunks[i] = &core.Chunk{
			Id:    core.IDFromContent(fmt.Sprintf("%s\x00%d\x00%s", doc.URL, i, text)),
			URL:   doc.URL,
			Index: i,
			Text:  text,
		}
	}
	return chunks, nil
}
