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


package ingestion

import (
	"sync"

	"github.com/google/uuid"
)

// Report tallies the outcome of an ingestion run.
type Report struct {
	RunID     string
	Inserted  int
	Updated   int
	Unchanged int
	Skipped   int
	Failed    int
	Errors    []error

	mu sync.Mutex
}

func newReport() *Report {
	return &Report{RunID: uuid.NewString()}
}

// Total returns the number of records seen.
func (r *Report) Total() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.Inserted + r.Updated + r.Unchanged + r.Skipped + r.Failed
}

func (r *Report) record(o outcome, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch o {
	case outcomeInserted:
		r.Inserted++
	case outcomeUpdated:
		r.Updated++
	case outcomeUnchanged:
		r.Unchanged++
	case outcomeSkipped:
		r.Skipped++
	case outcomeFailed:
		r.Failed++
	}
	if err != nil {
		r.Errors = append(r.Errors, err)
	}
}

type outcome int

const (
	outcomeInserted outcome = iota
	outcomeUpdated
	outcomeUnchanged
	outcomeSkipped
	outcomeFailed
)

func (o outcome) String() string {
	switch o {
	case outcomeInserted:
		return "inserted"
	case outcomeUpdated:
		return "updated"
	case outcomeUnchanged:
		return "unchanged"
	case outcomeSkipped:
		return "skipped"
	default:
		return "failed"
	}
}
