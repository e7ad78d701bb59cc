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


package core

//go:generate go run ../cmd/musgen

import (
	"encoding/binary"
	"encoding/hex"
	"strings"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a stable numeric identifier for documents and chunks.
// Document IDs come from a database sequence; chunk IDs are content-derived.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// ContentFingerprint returns a hex BLAKE2b-256 digest of text.
// Used as the content hash for records that arrive without one.
func ContentFingerprint(text string) string {
	sum := blake2b.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// Document is a crawled page as held by the document store.
type Document struct {
	Id            ID
	URL           string
	Title         string
	Description   string
	VisibleText   string
	Keywords      []string
	ImageURLs     []string
	InternalLinks []string
	CrawledAt     string
	Depth         int
	ContentHash   string
	Tokens        []string // Normalized token sequence; duplicates are kept for term frequency
	InsertedAt    time.Time
	UpdatedAt     time.Time
}

// FullText returns the text the normalizer and the embedder see for this document.
func (d *Document) FullText() string {
	return FullText(d.Title, d.Description, d.Keywords, d.VisibleText)
}

// FullText concatenates title, description, keywords and visible text with single spaces.
func FullText(title, description string, keywords []string, visibleText string) string {
	return title + " " + description + " " + strings.Join(keywords, " ") + " " + visibleText
}

// IngestRecord is one line of crawler output.
// Only URL is mandatory; everything else defaults to its zero value.
type IngestRecord struct {
	URL           string   `json:"url"`
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	Keywords      []string `json:"keywords"`
	VisibleText   string   `json:"visible_text"`
	ImageURLs     []string `json:"image_urls"`
	ContentHash   string   `json:"content_hash"`
	CrawledAt     string   `json:"crawled_at"`
	Depth         int      `json:"depth"`
	InternalLinks []string `json:"internal_links"`
}

// FullText returns the concatenated indexable text of the record.
func (r *IngestRecord) FullText() string {
	return FullText(r.Title, r.Description, r.Keywords, r.VisibleText)
}

// Fingerprint returns the record's content hash, deriving one from the full text
// when the crawler did not supply it.
func (r *IngestRecord) Fingerprint() string {
	if r.ContentHash != "" {
		return r.ContentHash
	}
	return ContentFingerprint(r.FullText())
}

// Chunk is a window of a document's text handed to the vector store.
type Chunk struct {
	Id     ID
	URL    string
	Index  int
	Text   string
	Vector []float32 // Populated by the vector store that embeds the chunk
}

// Point is a nearest-neighbour hit returned by a vector store.
// Points are ordered by descending Score.
type Point struct {
	URL   string
	Text  string
	Score float64
}

// Method selects the retrieval path for a query.
type Method string

const (
	// MethodLexical ranks inverted-index candidates with BM25.
	MethodLexical Method = "lexical"
	// MethodSemantic runs a nearest-neighbour lookup over chunk embeddings.
	MethodSemantic Method = "semantic"
)

// SearchResult is one ranked hit returned to callers.
// DocID is zero for semantic hits, which are keyed by URL only.
type SearchResult struct {
	DocID       ID      `json:"doc_id,omitempty"`
	URL         string  `json:"url"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	VisibleText string  `json:"visible_text"`
	Score       float64 `json:"score"`
}
