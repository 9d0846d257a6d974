// Package chunker splits cleaned document page text into overlapping
// passages for embedding and retrieval.
//
// Scientific papers mix paragraphs, equations, and references, so chunk
// boundaries matter: a chunk cut mid-sentence embeds poorly. The chunker
// targets a fixed character budget and then moves each cut backward to
// the best natural boundary it can find.
//
// # Basic Usage
//
//	c, err := chunker.New(800, 200)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	chunks := c.ChunkText(chunker.CleanText(pageText))
//	for _, chunk := range chunks {
//	    fmt.Printf("chunk %d: chars %d-%d\n",
//	        chunk.ChunkIndex, chunk.StartChar, chunk.EndChar)
//	}
//
// # Boundary Selection
//
// Within a backward window of chunkSize/5 characters ending at the
// candidate cut, boundaries are tried in strict priority order:
//
//  1. Paragraph break (double newline)
//  2. Sentence break (". ", ".\n", "! ", "!\n", "? ", "?\n")
//  3. Clause break (", ", "; ", ": ")
//  4. Word boundary (space)
//  5. No match: the original character-budget cut
//
// # Overlap and Progress
//
// Consecutive chunks retain up to the configured overlap so context
// spanning a cut is not lost. The next chunk's start never exceeds the
// previous chunk's end, and the loop always advances, so chunking
// terminates for any valid (chunkSize, overlap) pair. New rejects
// overlap >= chunkSize up front.
//
// # Multi-Page Input
//
// ChunkPages applies ChunkText per page, skips empty pages, and renumbers
// chunk indices globally while preserving each chunk's page number.
// Within a run, chunks[i].ChunkIndex == i.
package chunker
