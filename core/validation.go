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

import (
	"fmt"
	"strings"
)

// ValidateRecord validates an IngestRecord according to domain rules.
//
// Validation rules:
//   - URL must not be empty after trimming whitespace
//
// NOT validated (defaults apply):
//   - every other field, including ContentHash (see IngestRecord.Fingerprint)
func ValidateRecord(record *IngestRecord) error {
	if record == nil {
		return fmt.Errorf("%w: %w: record is nil", ErrInvalidArgument, ErrMissingURL)
	}
	if strings.TrimSpace(record.URL) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidArgument, ErrMissingURL)
	}
	return nil
}

// ParseMethod maps a method name onto a Method.
// Matching is case-insensitive; "bm25" and "vector" are accepted as aliases
// for lexical and semantic.
func ParseMethod(name string) (Method, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case string(MethodLexical), "bm25":
		return MethodLexical, nil
	case string(MethodSemantic), "vector":
		return MethodSemantic, nil
	default:
		return "", fmt.Errorf("%w: %w: %q", ErrInvalidArgument, ErrInvalidMethod, name)
	}
}

// ValidateSearch checks the parameters of a search request.
func ValidateSearch(topK int, method Method) error {
	if topK < 1 {
		return fmt.Errorf("%w: %w: got %d", ErrInvalidArgument, ErrInvalidTopK, topK)
	}
	if method != MethodLexical && method != MethodSemantic {
		return fmt.Errorf("%w: %w: %q", ErrInvalidArgument, ErrInvalidMethod, method)
	}
	return nil
}
