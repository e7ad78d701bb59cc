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


package rank

import (
	"cmp"
	"math"
	"slices"

	"github.com/poiesic/crawlsearch/core"
)

const (
	// DefaultK1 controls term frequency saturation.
	DefaultK1 = 1.5
	// DefaultB controls document length normalization.
	DefaultB = 0.75
	// DefaultEpsilon scales the floor applied to negative idf values.
	DefaultEpsilon = 0.25
)

// Option configures a BM25 ranker.
type Option func(*BM25) error

// WithK1 sets the term frequency saturation constant.
func WithK1(k1 float64) Option {
	return func(r *BM25) error {
		if k1 < 0 || math.IsNaN(k1) {
			return ErrInvalidK1
		}
		r.k1 = k1
		return nil
	}
}

// WithB sets the length normalization constant. Must be within [0, 1].
func WithB(b float64) Option {
	return func(r *BM25) error {
		if b < 0 || b > 1 || math.IsNaN(b) {
			return ErrInvalidB
		}
		r.b = b
		return nil
	}
}

// WithEpsilon sets the negative idf floor factor.
func WithEpsilon(epsilon float64) Option {
	return func(r *BM25) error {
		if epsilon < 0 || math.IsNaN(epsilon) {
			return ErrInvalidEpsilon
		}
		r.epsilon = epsilon
		return nil
	}
}

// Scored pairs a document with its BM25 score.
type Scored struct {
	Doc   *core.Document
	Score float64
}

// BM25 scores documents against a token bag with the Okapi BM25 function.
// Statistics (document frequency, idf, mean length) come from the candidate
// set passed to each call, not from the whole corpus.
type BM25 struct {
	k1      float64
	b       float64
	epsilon float64
}

// New creates a BM25 ranker with the default constants.
func New(opts ...Option) (*BM25, error) {
	r := &BM25{
		k1:      DefaultK1,
		b:       DefaultB,
		epsilon: DefaultEpsilon,
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Rank scores candidates against queryTokens and returns the best topK,
// ordered by descending score with ties broken by ascending document ID.
// A non-positive topK keeps every candidate. Empty queries and empty
// candidate sets yield an empty result without scoring.
func (r *BM25) Rank(queryTokens []string, candidates []*core.Document, topK int) []Scored {
	if len(queryTokens) == 0 || len(candidates) == 0 {
		return nil
	}

	scores := r.Scores(queryTokens, candidates)
	ranked := make([]Scored, len(candidates))
	for i, doc := range candidates {
		ranked[i] = Scored{Doc: doc, Score: scores[i]}
	}

	slices.SortFunc(ranked, func(a, b Scored) int {
		if a.Score > b.Score {
			return -1
		}
		if a.Score < b.Score {
			return 1
		}
		return cmp.Compare(a.Doc.Id, b.Doc.Id)
	})

	if topK > 0 && len(ranked) > topK {
		ranked = ranked[:topK]
	}
	return ranked
}

// Scores returns the BM25 score of every candidate, index-aligned with candidates.
// Every occurrence of a repeated query token contributes again.
func (r *BM25) Scores(queryTokens []string, candidates []*core.Document) []float64 {
	scores := make([]float64, len(candidates))
	if len(queryTokens) == 0 || len(candidates) == 0 {
		return scores
	}

	stats := newCorpusStats(candidates)
	idf := stats.idf(r.epsilon)

	for i, doc := range candidates {
		lengthNorm := 1 - r.b
		if stats.avgLen > 0 {
			lengthNorm += r.b * float64(len(doc.Tokens)) / stats.avgLen
		}
		for _, q := range queryTokens {
			tf := float64(stats.termFreqs[i][q])
			if tf == 0 {
				continue
			}
			scores[i] += idf[q] * (tf * (r.k1 + 1)) / (tf + r.k1*lengthNorm)
		}
	}
	return scores
}

// corpusStats holds the frequency tables of one candidate set.
type corpusStats struct {
	size      int
	avgLen    float64
	docFreqs  map[string]int
	termFreqs []map[string]int
}

func newCorpusStats(docs []*core.Document) *corpusStats {
	s := &corpusStats{
		size:      len(docs),
		docFreqs:  make(map[string]int),
		termFreqs: make([]map[string]int, len(docs)),
	}

	total := 0
	for i, doc := range docs {
		total += len(doc.Tokens)
		freqs := make(map[string]int, len(doc.Tokens))
		for _, tok := range doc.Tokens {
			freqs[tok]++
		}
		for tok := range freqs {
			s.docFreqs[tok]++
		}
		s.termFreqs[i] = freqs
	}
	s.avgLen = float64(total) / float64(len(docs))
	return s
}

// idf computes log((N-n+0.5)/(n+0.5)) for every term in the candidate set.
// Terms present in more than half the set score negative; those are replaced
// by epsilon times the mean idf so common terms still rank by frequency.
func (s *corpusStats) idf(epsilon float64) map[string]float64 {
	idf := make(map[string]float64, len(s.docFreqs))
	if len(s.docFreqs) == 0 {
		return idf
	}

	// Terms are visited in sorted order so the floating point sum is reproducible.
	terms := make([]string, 0, len(s.docFreqs))
	for term := range s.docFreqs {
		terms = append(terms, term)
	}
	slices.Sort(terms)

	n := float64(s.size)
	sum := 0.0
	var negative []string
	for _, term := range terms {
		df := float64(s.docFreqs[term])
		v := math.Log(n-df+0.5) - math.Log(df+0.5)
		idf[term] = v
		sum += v
		if v < 0 {
			negative = append(negative, term)
		}
	}

	floor := epsilon * sum / float64(len(terms))
	for _, term := range negative {
		idf[term] = floor
	}
	return idf
}
