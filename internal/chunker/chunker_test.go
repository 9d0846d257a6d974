package chunker

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paperstack/doclibrary/pkg/types"
)

func TestNew(t *testing.T) {
	c, err := New(800, 200)
	require.NoError(t, err)
	assert.NotNil(t, c)
	assert.True(t, c.RespectSentences)
}

func TestNew_InvalidParams(t *testing.T) {
	tests := []struct {
		name      string
		chunkSize int
		overlap   int
	}{
		{"zero chunk size", 0, 0},
		{"negative chunk size", -100, 0},
		{"negative overlap", 100, -1},
		{"overlap equals chunk size", 100, 100},
		{"overlap exceeds chunk size", 100, 150},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.chunkSize, tt.overlap)
			assert.ErrorIs(t, err, types.ErrInvalidChunkParams)
		})
	}
}

func TestChunkText_Empty(t *testing.T) {
	c, err := New(100, 20)
	require.NoError(t, err)

	assert.Empty(t, c.ChunkText(""))
	assert.Empty(t, c.ChunkText("   \n\t  "))
}

func TestChunkText_ShortText(t *testing.T) {
	c, err := New(100, 20)
	require.NoError(t, err)

	chunks := c.ChunkText("Short text.")

	require.Len(t, chunks, 1)
	assert.Equal(t, "Short text.", chunks[0].Content)
	assert.Equal(t, 0, chunks[0].ChunkIndex)
	assert.Equal(t, 0, chunks[0].StartChar)
	assert.Equal(t, 11, chunks[0].EndChar)
}

func TestChunkText_ShortTextTrimmed(t *testing.T) {
	c, err := New(100, 20)
	require.NoError(t, err)

	chunks := c.ChunkText("  Short text.  \n")

	require.Len(t, chunks, 1)
	assert.Equal(t, "Short text.", chunks[0].Content)
}

func TestChunkText_LongText(t *testing.T) {
	c, err := New(200, 50)
	require.NoError(t, err)

	text := strings.TrimSpace(strings.Repeat("Word ", 1000))
	chunks := c.ChunkText(text)

	require.Greater(t, len(chunks), 1)
	for i, chunk := range chunks {
		assert.Equal(t, i, chunk.ChunkIndex, "indices must be sequential")
		if i < len(chunks)-1 {
			assert.LessOrEqual(t, len(chunk.Content), 200)
		}
	}
}

func TestChunkText_Overlap(t *testing.T) {
	c, err := New(200, 50)
	require.NoError(t, err)

	text := strings.TrimSpace(strings.Repeat("Word ", 1000))
	chunks := c.ChunkText(text)
	require.Greater(t, len(chunks), 1)

	for i := 1; i < len(chunks); i++ {
		prev, cur := chunks[i-1], chunks[i]
		// Next chunk's start never exceeds the previous chunk's end
		assert.LessOrEqual(t, cur.StartChar, prev.EndChar)
		// Retained overlap is bounded by the configured width
		assert.LessOrEqual(t, prev.EndChar-cur.StartChar, 50)
	}
}

func TestChunkText_Terminates(t *testing.T) {
	// Text with no break characters at all forces the tier-5 fallback
	c, err := New(50, 49)
	require.NoError(t, err)

	text := strings.Repeat("x", 5000)
	chunks := c.ChunkText(text)

	assert.NotEmpty(t, chunks)
	for i, chunk := range chunks {
		assert.Equal(t, i, chunk.ChunkIndex)
	}
}

func TestChunkText_MultibyteRuneSafety(t *testing.T) {
	// Unbroken CJK text forces the tier-5 fallback onto byte offsets
	// that sit inside 3-byte runes
	c, err := New(100, 20)
	require.NoError(t, err)

	text := strings.Repeat("你好世界", 200)
	chunks := c.ChunkText(text)

	require.NotEmpty(t, chunks)
	for i, chunk := range chunks {
		assert.Equal(t, i, chunk.ChunkIndex)
		assert.True(t, utf8.ValidString(chunk.Content),
			"chunk %d contains a split rune", i)
	}
	assert.Equal(t, len(text), chunks[len(chunks)-1].EndChar)
}

func TestChunkText_TinyChunkSizeMultibyte(t *testing.T) {
	// Chunk size smaller than one rune still makes progress, one whole
	// rune at a time
	c, err := New(2, 1)
	require.NoError(t, err)

	chunks := c.ChunkText("你好世界你好")

	require.NotEmpty(t, chunks)
	for i, chunk := range chunks {
		assert.Equal(t, i, chunk.ChunkIndex)
		assert.True(t, utf8.ValidString(chunk.Content))
	}
}

func TestChunkText_LastChunkTakesRemainder(t *testing.T) {
	c, err := New(100, 10)
	require.NoError(t, err)

	text := strings.TrimSpace(strings.Repeat("Word ", 50))
	chunks := c.ChunkText(text)
	require.NotEmpty(t, chunks)

	last := chunks[len(chunks)-1]
	assert.Equal(t, len(text), last.EndChar)
}

func TestFindBreakPoint_ParagraphBreak(t *testing.T) {
	text := "First paragraph.\n\nSecond paragraph. More text here."

	// Window covers the double newline; cut lands immediately after it
	end := findBreakPoint(text, 0, 40, 120)
	assert.Equal(t, strings.Index(text, "\n\n")+2, end)
}

func TestFindBreakPoint_SentenceBreak(t *testing.T) {
	text := "One sentence here. Another sentence follows without paragraph breaks at all."

	end := findBreakPoint(text, 0, 30, 120)
	assert.Equal(t, strings.Index(text, ". ")+2, end)
}

func TestFindBreakPoint_ClauseBreak(t *testing.T) {
	text := "alpha beta gamma, delta epsilon zeta eta theta iota kappa"

	end := findBreakPoint(text, 0, 30, 120)
	assert.Equal(t, strings.Index(text, ", ")+2, end)
}

func TestFindBreakPoint_WordBoundary(t *testing.T) {
	text := "alphabetagamma deltaepsilonzeta etathetaiota"

	end := findBreakPoint(text, 0, 40, 120)
	assert.Equal(t, strings.LastIndex(text[:40], " ")+1, end)
}

func TestFindBreakPoint_NoMatch(t *testing.T) {
	text := strings.Repeat("x", 100)

	end := findBreakPoint(text, 0, 50, 120)
	assert.Equal(t, 50, end)
}

func TestChunkPages(t *testing.T) {
	c, err := New(100, 20)
	require.NoError(t, err)

	pages := []types.Page{
		{PageNumber: 1, Text: strings.TrimSpace(strings.Repeat("First page words. ", 20))},
		{PageNumber: 2, Text: ""},
		{PageNumber: 3, Text: "Short third page."},
	}

	chunks := c.ChunkPages(pages)
	require.NotEmpty(t, chunks)

	// Indices are globally sequential across pages
	for i, chunk := range chunks {
		assert.Equal(t, i, chunk.ChunkIndex)
	}

	// Page numbers preserved; the empty page contributed nothing
	assert.Equal(t, 1, chunks[0].PageNumber)
	last := chunks[len(chunks)-1]
	assert.Equal(t, 3, last.PageNumber)
	assert.Equal(t, "Short third page.", last.Content)
}

func TestCleanText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"windows line endings", "a\r\nb", "a\nb"},
		{"bare carriage returns", "a\rb", "a\nb"},
		{"space runs collapse", "a   b\t\tc", "a b c"},
		{"newlines untouched by space collapse", "a \n b", "a\nb"},
		{"excess newlines collapse", "a\n\n\n\n\nb", "a\n\nb"},
		{"lines trimmed", "  a  \n  b  ", "a\nb"},
		{"overall trim", "\n\n  text  \n\n", "text"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanText(tt.input))
		})
	}
}

func TestChunkText_RespectSentencesDisabled(t *testing.T) {
	c, err := New(50, 10)
	require.NoError(t, err)
	c.RespectSentences = false

	text := strings.TrimSpace(strings.Repeat("Some words here. ", 30))
	chunks := c.ChunkText(text)
	require.Greater(t, len(chunks), 1)

	// Without boundary search every non-final cut lands on the budget
	for _, chunk := range chunks[:len(chunks)-1] {
		assert.Equal(t, 50, chunk.EndChar-chunk.StartChar)
	}
}
