package searcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractKeywords(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		expected string
	}{
		{
			name:     "question form",
			query:    "what is the attention mechanism",
			expected: "attention mechanism",
		},
		{
			name:     "keeps proper nouns",
			query:    "show papers from Adam Stewart",
			expected: "papers Adam Stewart",
		},
		{
			name:     "content nouns survive",
			query:    "show results from the experiments",
			expected: "results experiments",
		},
		{
			name:     "already keywords",
			query:    "gradient descent convergence",
			expected: "gradient descent convergence",
		},
		{
			name:     "all stopwords",
			query:    "what is this",
			expected: "",
		},
		{
			name:     "mixed case stopwords removed",
			query:    "What does the Table show",
			expected: "Table",
		},
		{
			name:     "empty",
			query:    "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ExtractKeywords(tt.query))
		})
	}
}

func TestTruncateText(t *testing.T) {
	assert.Equal(t, "short", TruncateText("short", 100))
	assert.Equal(t, "", TruncateText("", 10))

	long := "the quick brown fox jumps over the lazy dog"
	got := TruncateText(long, 20)
	assert.LessOrEqual(t, len(got), 20)
	assert.Contains(t, got, "...")
	// Cut lands on a word boundary
	assert.Equal(t, "the quick brown...", got)
}
