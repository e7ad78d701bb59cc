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

import "errors"

// Error taxonomy shared by ingestion and search.
var (
	// ErrInvalidArgument indicates a caller supplied an unusable parameter.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrUpstreamUnavailable indicates a collaborator (embedder, vector store,
	// document store) failed while serving a request.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")

	// ErrTimeout indicates the caller's deadline expired before a query completed.
	ErrTimeout = errors.New("query deadline exceeded")
)

// Specific invalid-argument conditions. Each is reported wrapped with ErrInvalidArgument.
var (
	// ErrInvalidMethod indicates an unrecognized search method.
	ErrInvalidMethod = errors.New("unrecognized search method")

	// ErrInvalidTopK indicates a non-positive result count.
	ErrInvalidTopK = errors.New("top_k must be at least 1")

	// ErrMissingURL indicates an ingestion record without a url.
	ErrMissingURL = errors.New("record url is required")
)
