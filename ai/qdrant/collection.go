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


package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

type vectorParams struct {
	Size     int    `json:"size"`
	Distance string `json:"distance"`
}

type createCollectionRequest struct {
	Vectors vectorParams `json:"vectors"`
}

// ensureCollection creates the collection unless it already exists.
func ensureCollection(ctx context.Context, client *http.Client, base *url.URL, apiKey, name string, dims int) (bool, error) {
	endpoint := base.JoinPath("collections", name).String()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrCollectionSetup, err)
	}
	setAPIKey(req, apiKey)

	resp, err := client.Do(req)
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrCollectionSetup, err)
	}
	drain(resp)

	switch resp.StatusCode {
	case http.StatusOK:
		return false, nil
	case http.StatusNotFound:
	default:
		return false, fmt.Errorf("%w: unexpected status %d checking %q", ErrCollectionSetup, resp.StatusCode, name)
	}

	body, err := json.Marshal(createCollectionRequest{
		Vectors: vectorParams{Size: dims, Distance: "Cosine"},
	})
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrCollectionSetup, err)
	}

	req, err = http.NewRequestWithContext(ctx, http.MethodPut, endpoint, bytes.NewReader(body))
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrCollectionSetup, err)
	}
	req.Header.Set("Content-Type", "application/json")
	setAPIKey(req, apiKey)

	resp, err = client.Do(req)
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrCollectionSetup, err)
	}
	drain(resp)

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("%w: unexpected status %d creating %q", ErrCollectionSetup, resp.StatusCode, name)
	}
	return true, nil
}

func setAPIKey(req *http.Request, apiKey string) {
	if apiKey != "" {
		req.Header.Set("api-key", apiKey)
	}
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}
