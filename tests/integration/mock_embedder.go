package integration

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"sync/atomic"
)

const mockDimension = 256

// MockEmbedder produces deterministic bag-of-words vectors so that
// texts sharing vocabulary land close together under cosine distance.
// No network calls, suitable for integration tests.
type MockEmbedder struct {
	healthy  atomic.Bool
	embedded atomic.Int64
}

// NewMockEmbedder creates a healthy mock embedder
func NewMockEmbedder() *MockEmbedder {
	m := &MockEmbedder{}
	m.healthy.Store(true)
	return m
}

// SetHealthy toggles the health probe result
func (m *MockEmbedder) SetHealthy(healthy bool) {
	m.healthy.Store(healthy)
}

// EmbedCount reports how many texts have been embedded
func (m *MockEmbedder) EmbedCount() int64 {
	return m.embedded.Load()
}

func (m *MockEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i] = bagOfWordsVector(text)
	}
	m.embedded.Add(int64(len(texts)))
	return vectors, nil
}

func (m *MockEmbedder) Healthy(ctx context.Context) bool { return m.healthy.Load() }
func (m *MockEmbedder) Dimension() int                   { return mockDimension }
func (m *MockEmbedder) Provider() string                 { return "mock" }
func (m *MockEmbedder) Model() string                    { return "bag-of-words-v1" }
func (m *MockEmbedder) Close() error                     { return nil }

// bagOfWordsVector hashes each token into a fixed-size histogram and
// L2-normalizes the result
func bagOfWordsVector(text string) []float32 {
	vector := make([]float32, mockDimension)
	for _, token := range strings.Fields(strings.ToLower(text)) {
		token = strings.Trim(token, ".,;:!?()[]\"'")
		if token == "" {
			continue
		}
		h := fnv.New32a()
		h.Write([]byte(token))
		vector[h.Sum32()%mockDimension]++
	}

	var norm float64
	for _, v := range vector {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		return vector
	}
	scale := float32(1 / math.Sqrt(norm))
	for i := range vector {
		vector[i] *= scale
	}
	return vector
}
