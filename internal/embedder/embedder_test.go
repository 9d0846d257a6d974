package embedder

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEmbedServer(t *testing.T, dim int, calls *atomic.Int32) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/embedding", func(w http.ResponseWriter, r *http.Request) {
		if calls != nil {
			calls.Add(1)
		}
		var req localEmbedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		resp := localEmbedResponse{Embeddings: make([][]float32, len(req.Texts))}
		for i, text := range req.Texts {
			vec := make([]float32, dim)
			vec[0] = float32(len(text))
			resp.Embeddings[i] = vec
		}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	})
	return httptest.NewServer(mux)
}

func TestLocalProvider_Embed(t *testing.T) {
	srv := newEmbedServer(t, 4, nil)
	defer srv.Close()

	p, err := NewLocalProvider(srv.URL, nil)
	require.NoError(t, err)
	defer func() { _ = p.Close() }()

	vectors, err := p.Embed(context.Background(), []string{"alpha", "beta"})
	require.NoError(t, err)
	require.Len(t, vectors, 2)
	assert.Equal(t, float32(5), vectors[0][0])
	assert.Equal(t, float32(4), vectors[1][0])
}

func TestLocalProvider_EmptyInput(t *testing.T) {
	var calls atomic.Int32
	srv := newEmbedServer(t, 4, &calls)
	defer srv.Close()

	p, err := NewLocalProvider(srv.URL, nil)
	require.NoError(t, err)

	vectors, err := p.Embed(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, vectors)
	assert.Equal(t, int32(0), calls.Load(), "empty input must not hit the network")
}

func TestLocalProvider_EmptyText(t *testing.T) {
	srv := newEmbedServer(t, 4, nil)
	defer srv.Close()

	p, err := NewLocalProvider(srv.URL, nil)
	require.NoError(t, err)

	_, err = p.Embed(context.Background(), []string{"ok", ""})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestLocalProvider_CacheHit(t *testing.T) {
	var calls atomic.Int32
	srv := newEmbedServer(t, 4, &calls)
	defer srv.Close()

	p, err := NewLocalProvider(srv.URL, NewCache(100))
	require.NoError(t, err)

	_, err = p.Embed(context.Background(), []string{"repeated"})
	require.NoError(t, err)
	_, err = p.Embed(context.Background(), []string{"repeated"})
	require.NoError(t, err)

	assert.Equal(t, int32(1), calls.Load(), "second call should be served from cache")
}

func TestLocalProvider_PartialCacheMiss(t *testing.T) {
	var calls atomic.Int32
	srv := newEmbedServer(t, 4, &calls)
	defer srv.Close()

	p, err := NewLocalProvider(srv.URL, NewCache(100))
	require.NoError(t, err)

	_, err = p.Embed(context.Background(), []string{"cached"})
	require.NoError(t, err)

	vectors, err := p.Embed(context.Background(), []string{"cached", "fresh"})
	require.NoError(t, err)
	require.Len(t, vectors, 2)
	assert.Equal(t, float32(6), vectors[0][0])
	assert.Equal(t, float32(5), vectors[1][0])
	assert.Equal(t, int32(2), calls.Load())
}

func TestLocalProvider_Healthy(t *testing.T) {
	srv := newEmbedServer(t, 4, nil)
	p, err := NewLocalProvider(srv.URL, nil)
	require.NoError(t, err)

	assert.True(t, p.Healthy(context.Background()))

	srv.Close()
	assert.False(t, p.Healthy(context.Background()))
}

func TestLocalProvider_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	}))
	defer srv.Close()

	p, err := NewLocalProvider(srv.URL, nil)
	require.NoError(t, err)
	p.retry = RetryConfig{MaxAttempts: 2, Delay: 0}

	_, err = p.Embed(context.Background(), []string{"text"})
	assert.ErrorIs(t, err, ErrProviderFailed)
}

func TestLocalProvider_RetriesThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		_ = json.NewEncoder(w).Encode(localEmbedResponse{
			Embeddings: [][]float32{{1, 2, 3}},
		})
	}))
	defer srv.Close()

	p, err := NewLocalProvider(srv.URL, nil)
	require.NoError(t, err)
	p.retry = RetryConfig{MaxAttempts: 3, Delay: 0}

	vectors, err := p.Embed(context.Background(), []string{"text"})
	require.NoError(t, err)
	require.Len(t, vectors, 1)
	assert.Equal(t, int32(3), calls.Load())
}

func TestOpenAIProvider_Embed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req openAIEmbedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		resp := openAIEmbedResponse{}
		for i := range req.Input {
			resp.Data = append(resp.Data, struct {
				Embedding []float32 `json:"embedding"`
				Index     int       `json:"index"`
			}{Embedding: []float32{float32(i)}, Index: i})
		}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer srv.Close()

	p, err := NewOpenAIProvider("test-key", nil)
	require.NoError(t, err)
	p.baseURL = srv.URL

	vectors, err := p.Embed(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	require.Len(t, vectors, 2)
	assert.Equal(t, float32(0), vectors[0][0])
	assert.Equal(t, float32(1), vectors[1][0])
}

func TestOpenAIProvider_RequiresKey(t *testing.T) {
	_, err := NewOpenAIProvider("", nil)
	assert.ErrorIs(t, err, ErrNoProviderEnabled)
}

func TestCache(t *testing.T) {
	c := NewCache(2)

	c.Set("a", []float32{1})
	c.Set("b", []float32{2})

	vec, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, []float32{1}, vec)

	// Mutating the returned slice must not affect the cached value
	vec[0] = 99
	vec2, _ := c.Get("a")
	assert.Equal(t, float32(1), vec2[0])

	c.Set("c", []float32{3})
	assert.Equal(t, 2, c.Size())
}

func TestComputeHash(t *testing.T) {
	h1 := ComputeHash("same text")
	h2 := ComputeHash("same text")
	h3 := ComputeHash("different text")

	assert.Equal(t, h1, h2)
	assert.NotEqual(t, h1, h3)
	assert.Len(t, h1, 64)
}
