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


// Package reembed resubmits the whole document store to the vector store.
//
// Documents are paged in ID order, chunked the same way ingestion chunks them,
// and submitted by a fixed number of workers per page. Each submission is
// retried with exponential backoff; a document that keeps failing stops the run.
// Progress is printed as a single updating line.
package reembed
