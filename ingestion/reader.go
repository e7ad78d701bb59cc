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
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/poiesic/crawlsearch/core"
	"golang.org/x/sync/errgroup"
)

const maxLineSize = 64 << 20

// IngestReader ingests newline-delimited JSON records from r.
// Records are routed by URL onto one lane per pool worker and each lane applies
// its batches in input order, so repeated URLs resolve to their last line.
// Blank lines are ignored; malformed lines are recorded as skipped.
func (p *Pipeline) IngestReader(ctx context.Context, r io.Reader) (*Report, error) {
	report := newReport()
	logger := p.logger.With("run", report.RunID)

	g, gctx := errgroup.WithContext(ctx)
	lanes := make([]chan []*core.IngestRecord, p.poolSize)
	for i := range lanes {
		lane := make(chan []*core.IngestRecord, 1)
		lanes[i] = lane
		g.Go(func() error {
			for records := range lane {
				if err := p.ingestInto(gctx, report, records); err != nil {
					return err
				}
			}
			return nil
		})
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	batches := make([][]*core.IngestRecord, len(lanes))
	flush := func(i int) bool {
		if len(batches[i]) == 0 {
			return true
		}
		select {
		case lanes[i] <- batches[i]:
			batches[i] = nil
			return true
		case <-gctx.Done():
			return false
		}
	}

	line := 0
	stopped := false
	for !stopped && scanner.Scan() {
		line++
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}

		var record core.IngestRecord
		if err := json.Unmarshal(raw, &record); err != nil {
			report.record(outcomeSkipped, fmt.Errorf("%w: line %d: %w", ErrMalformedRecord, line, err))
			continue
		}
		i := laneFor(record.URL, len(lanes))
		batches[i] = append(batches[i], &record)
		if len(batches[i]) >= p.batchSize {
			stopped = !flush(i)
		}
	}
	for i := range lanes {
		if !stopped {
			stopped = !flush(i)
		}
		close(lanes[i])
	}

	err := g.Wait()
	if err == nil && stopped {
		err = ctx.Err()
	}
	if scanErr := scanner.Err(); scanErr != nil && err == nil {
		err = scanErr
	}

	logger.Info("ingested input",
		"lines", line,
		"inserted", report.Inserted,
		"updated", report.Updated,
		"unchanged", report.Unchanged,
		"skipped", report.Skipped,
		"failed", report.Failed)
	return report, err
}

// laneFor picks the lane for a record URL. Equal URLs share a lane.
func laneFor(url string, lanes int) int {
	return int(xxhash.Sum64String(strings.TrimSpace(url)) % uint64(lanes))
}
