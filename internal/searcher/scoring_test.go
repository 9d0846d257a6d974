package searcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistanceCutoff(t *testing.T) {
	assert.InDelta(t, 0.985, DistanceCutoff(5), 1e-9)
	assert.InDelta(t, 0.94, DistanceCutoff(20), 1e-9)
	assert.InDelta(t, 1.0, DistanceCutoff(0), 1e-9)
	assert.InDelta(t, 0.7, DistanceCutoff(100), 1e-9)
}

func TestScorePercent(t *testing.T) {
	tests := []struct {
		name     string
		distance float64
		expected float64
	}{
		{"perfect match", 0.0, 100},
		{"strong match", 0.7, 100},
		{"mid range", 0.85, 50},
		{"at floor", 1.0, 0},
		{"beyond floor", 1.5, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, ScorePercent(tt.distance), 1e-9)
		})
	}
}

func TestLexicalToDistance(t *testing.T) {
	// Strong lexical hits land at distance zero
	assert.Equal(t, 0.0, lexicalToDistance(1.0))
	assert.Equal(t, 0.0, lexicalToDistance(0.5))
	// Weaker hits fall off linearly
	assert.InDelta(t, 0.2, lexicalToDistance(0.4), 1e-9)
	assert.InDelta(t, 0.8, lexicalToDistance(0.1), 1e-9)
	// Monotonic: better rank never yields a worse distance
	prev := lexicalToDistance(0.01)
	for rank := 0.02; rank <= 1.0; rank += 0.01 {
		d := lexicalToDistance(rank)
		assert.LessOrEqual(t, d, prev)
		prev = d
	}
}
