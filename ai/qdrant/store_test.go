package qdrant

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/poiesic/crawlsearch/ai"
	"github.com/poiesic/crawlsearch/ai/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeQdrant answers the collection endpoints of the Qdrant REST API.
type fakeQdrant struct {
	mu      sync.Mutex
	exists  bool
	created *createCollectionRequest
	apiKeys []string
}

func (f *fakeQdrant) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.apiKeys = append(f.apiKeys, r.Header.Get("api-key"))

	if r.URL.Path != "/collections/documents" {
		http.NotFound(w, r)
		return
	}
	switch r.Method {
	case http.MethodGet:
		if !f.exists {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`{"status":"ok","result":{}}`))
	case http.MethodPut:
		var req createCollectionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.created = &req
		f.exists = true
		_, _ = w.Write([]byte(`{"status":"ok","result":true}`))
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func TestEnsureCollection_Creates(t *testing.T) {
	fake := &fakeQdrant{}
	server := httptest.NewServer(fake)
	defer server.Close()

	base, err := url.Parse(server.URL)
	require.NoError(t, err)

	created, err := ensureCollection(context.Background(), server.Client(), base, "secret", "documents", 384)
	require.NoError(t, err)
	assert.True(t, created)

	require.NotNil(t, fake.created)
	assert.Equal(t, 384, fake.created.Vectors.Size)
	assert.Equal(t, "Cosine", fake.created.Vectors.Distance)
	for _, key := range fake.apiKeys {
		assert.Equal(t, "secret", key)
	}
}

func TestEnsureCollection_Exists(t *testing.T) {
	fake := &fakeQdrant{exists: true}
	server := httptest.NewServer(fake)
	defer server.Close()

	base, err := url.Parse(server.URL)
	require.NoError(t, err)

	created, err := ensureCollection(context.Background(), server.Client(), base, "", "documents", 384)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Nil(t, fake.created)
}

func TestEnsureCollection_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	base, err := url.Parse(server.URL)
	require.NoError(t, err)

	_, err = ensureCollection(context.Background(), server.Client(), base, "", "documents", 384)
	assert.ErrorIs(t, err, ErrCollectionSetup)
}

func TestNew(t *testing.T) {
	fake := &fakeQdrant{}
	server := httptest.NewServer(fake)
	defer server.Close()

	cfg := ai.NewConfig(
		ai.WithVectorBackend(ai.VectorBackendQdrant),
		ai.WithQdrant(server.URL, ""),
		ai.WithCollection("documents"),
	)
	store, err := New(context.Background(), cfg, mock.NewMockEmbedder(), WithHTTPClient(server.Client()))
	require.NoError(t, err)
	assert.NotNil(t, store)
	assert.True(t, fake.exists)
	assert.NoError(t, store.Close())
}

func TestNew_NilEmbedder(t *testing.T) {
	_, err := New(context.Background(), ai.DefaultConfig(), nil)
	assert.ErrorIs(t, err, ErrNilEmbedder)
}

func TestPointURL(t *testing.T) {
	tests := []struct {
		name    string
		payload map[string]any
		want    string
	}{
		{"top level", map[string]any{"url": "https://a"}, "https://a"},
		{"trimmed", map[string]any{"url": "  https://a \n"}, "https://a"},
		{"nested", map[string]any{"metadata": map[string]any{"url": "https://b"}}, "https://b"},
		{"blank falls through to nested", map[string]any{"url": " ", "metadata": map[string]any{"url": "https://c"}}, "https://c"},
		{"missing", map[string]any{"title": "x"}, ""},
		{"wrong type", map[string]any{"url": 42}, ""},
		{"nil", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, pointURL(tt.payload))
		})
	}
}
