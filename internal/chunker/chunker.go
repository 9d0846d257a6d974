package chunker

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/paperstack/doclibrary/pkg/types"
)

// Chunker splits cleaned page text into overlapping passages
type Chunker struct {
	chunkSize int
	overlap   int

	// RespectSentences enables the break-point search that moves chunk
	// boundaries to paragraph/sentence/clause/word breaks
	RespectSentences bool
}

// New creates a Chunker. chunkSize must be positive and overlap must be
// in [0, chunkSize); an overlap >= chunkSize would stall forward progress.
func New(chunkSize, overlap int) (*Chunker, error) {
	if chunkSize <= 0 {
		return nil, types.ErrInvalidChunkParams
	}
	if overlap < 0 || overlap >= chunkSize {
		return nil, types.ErrInvalidChunkParams
	}

	return &Chunker{
		chunkSize:        chunkSize,
		overlap:          overlap,
		RespectSentences: true,
	}, nil
}

// ChunkText splits text into overlapping chunks. Empty or whitespace-only
// input yields an empty slice. Text no longer than the chunk size is
// returned as a single chunk.
func (c *Chunker) ChunkText(text string) []types.Chunk {
	text = strings.TrimSpace(text)
	if text == "" {
		return []types.Chunk{}
	}

	if len(text) <= c.chunkSize {
		return []types.Chunk{{
			Content:    text,
			ChunkIndex: 0,
			StartChar:  0,
			EndChar:    len(text),
		}}
	}

	chunks := make([]types.Chunk, 0, len(text)/(c.chunkSize-c.overlap)+1)
	start := 0
	chunkIndex := 0

	for start < len(text) {
		end := start + c.chunkSize

		if end >= len(text) {
			// Final chunk takes all remaining text
			end = len(text)
		} else {
			if c.RespectSentences {
				end = findBreakPoint(text, start, end, c.chunkSize)
			}
			end = snapToRuneStart(text, end)
			if end <= start {
				// A tiny chunk size inside a multibyte run: take one
				// whole rune rather than stalling or splitting it
				_, size := utf8.DecodeRuneInString(text[start:])
				end = start + size
			}
		}

		content := strings.TrimSpace(text[start:end])
		if content != "" {
			chunks = append(chunks, types.Chunk{
				Content:    content,
				ChunkIndex: chunkIndex,
				StartChar:  start,
				EndChar:    end,
			})
			chunkIndex++
		}

		if end >= len(text) {
			break
		}

		start = end - c.overlap
		// Guarantee forward progress
		if start >= end {
			start = end
		}
		// The overlap rewind can land mid-rune; move to the next rune
		// start so the chunk begins on a full character
		for start < len(text) && !utf8.RuneStart(text[start]) {
			start++
		}
	}

	return chunks
}

// ChunkPages chunks each page's text and renumbers chunk indices globally
// across pages in encounter order. Pages with empty text are skipped.
func (c *Chunker) ChunkPages(pages []types.Page) []types.Chunk {
	var all []types.Chunk
	globalIndex := 0

	for _, page := range pages {
		if page.Text == "" {
			continue
		}

		for _, chunk := range c.ChunkText(page.Text) {
			chunk.PageNumber = page.PageNumber
			chunk.ChunkIndex = globalIndex
			all = append(all, chunk)
			globalIndex++
		}
	}

	return all
}

// sentenceBreaks and clauseBreaks are two-character cut patterns; the cut
// lands immediately after the pattern.
var (
	sentenceBreaks = []string{". ", ".\n", "! ", "!\n", "? ", "?\n"}
	clauseBreaks   = []string{", ", "; ", ": "}
)

// findBreakPoint searches backward from the candidate end for a better
// boundary, in strict priority order: paragraph break, sentence break,
// clause break, word boundary. Returns the original end if nothing in the
// window matches.
func findBreakPoint(text string, start, end, chunkSize int) int {
	// Look back up to 20% of the chunk size
	searchStart := end - chunkSize/5
	if searchStart < start {
		searchStart = start
	}
	window := text[searchStart:end]

	if pos := strings.LastIndex(window, "\n\n"); pos != -1 {
		return searchStart + pos + 2
	}

	best := -1
	for _, pattern := range sentenceBreaks {
		if pos := strings.LastIndex(window, pattern); pos > best {
			best = pos
		}
	}
	if best != -1 {
		return searchStart + best + 2
	}

	for _, pattern := range clauseBreaks {
		if pos := strings.LastIndex(window, pattern); pos != -1 {
			return searchStart + pos + 2
		}
	}

	if pos := strings.LastIndex(window, " "); pos != -1 {
		return searchStart + pos + 1
	}

	return end
}

// snapToRuneStart walks a byte offset back to the nearest rune start so
// a cut never splits a multibyte character. Break patterns are ASCII, so
// this only moves when the tier-5 fallback landed mid-rune.
func snapToRuneStart(text string, pos int) int {
	for pos > 0 && pos < len(text) && !utf8.RuneStart(text[pos]) {
		pos--
	}
	return pos
}

var (
	spaceRuns   = regexp.MustCompile(`[ \t]+`)
	newlineRuns = regexp.MustCompile(`\n{3,}`)
)

// CleanText normalizes text before chunking: line endings become \n, runs
// of spaces and tabs collapse to one space (newlines untouched), 3+
// consecutive newlines collapse to a paragraph break, and every line is
// trimmed. Keeps paragraph structure intact.
func CleanText(text string) string {
	if text == "" {
		return ""
	}

	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	text = spaceRuns.ReplaceAllString(text, " ")
	text = newlineRuns.ReplaceAllString(text, "\n\n")

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}

	return strings.TrimSpace(strings.Join(lines, "\n"))
}
