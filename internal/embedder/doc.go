// Package embedder generates vector embeddings for text via pluggable
// providers.
//
// Two providers are supported:
//   - local: a local embedding HTTP server (batched POST /embedding,
//     liveness probe on GET /health)
//   - openai: any OpenAI-compatible embeddings API
//
// # Basic Usage
//
//	emb, err := embedder.NewFromEnv()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer emb.Close()
//
//	if !emb.Healthy(ctx) {
//	    // fail fast: search cannot rank without embeddings
//	}
//
//	vectors, err := emb.Embed(ctx, []string{"first text", "second text"})
//
// # Contract
//
// Embed returns one vector per input text, in input order. An empty input
// slice returns an empty result without touching the network. Transient
// failures are retried up to MaxAttempts times with a fixed delay; the
// inter-attempt wait is cancellable, so a caller's deadline is honored
// even mid-backoff.
//
// # Caching
//
// Providers share an LRU cache keyed by SHA-256 content hash. Batch calls
// resolve cached entries first and only send cache misses to the provider.
package embedder
