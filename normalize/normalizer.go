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


package normalize

import (
	"strings"

	"github.com/kljensen/snowball"
)

const (
	// DefaultMinLength is the shortest token kept. Shorter tokens carry too
	// little signal and are mostly residue of contractions.
	DefaultMinLength = 3

	defaultLanguage = "english"
)

// Normalizer turns raw text into the ordered token sequence used by the
// inverted index and the BM25 ranker. Implementations must be pure and
// deterministic: identical input yields identical output across processes.
type Normalizer interface {
	Normalize(text string) []string
}

// Option configures a Stemmer.
type Option func(*Stemmer) error

// WithMinLength sets the shortest token kept.
func WithMinLength(n int) Option {
	return func(s *Stemmer) error {
		if n < 1 {
			return ErrInvalidMinLength
		}
		s.minLength = n
		return nil
	}
}

// WithStopWords replaces the stopword list.
func WithStopWords(words ...string) Option {
	return func(s *Stemmer) error {
		s.stopWords = make(map[string]struct{}, len(words))
		for _, w := range words {
			s.stopWords[strings.ToLower(w)] = struct{}{}
		}
		return nil
	}
}

// Stemmer is the default Normalizer: lowercase, letters only, stopwords and
// short words dropped, remaining words reduced with the Snowball english stemmer.
type Stemmer struct {
	minLength int
	stopWords map[string]struct{}
}

var _ Normalizer = (*Stemmer)(nil)

// New creates a Stemmer with the english stopword list.
func New(opts ...Option) (*Stemmer, error) {
	s := &Stemmer{
		minLength: DefaultMinLength,
		stopWords: englishStopWords(),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Normalize returns the normalized tokens of text in order of appearance.
// Duplicates are kept.
func (s *Stemmer) Normalize(text string) []string {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return r < 'a' || r > 'z'
	})

	tokens := make([]string, 0, len(words))
	for _, word := range words {
		if len(word) < s.minLength {
			continue
		}
		if _, ok := s.stopWords[word]; ok {
			continue
		}
		stem := s.stem(word)
		if len(stem) < s.minLength {
			continue
		}
		tokens = append(tokens, stem)
	}
	return tokens
}

func (s *Stemmer) stem(word string) string {
	stemmed, err := snowball.Stem(word, defaultLanguage, true)
	if err != nil || stemmed == "" {
		return word
	}
	return stemmed
}
