package embedder

import (
	"fmt"
	"os"
	"strings"
)

// Environment variables recognized by NewFromEnv
const (
	EnvProvider  = "DOCLIBRARY_EMBEDDING_PROVIDER"
	EnvEmbedURL  = "DOCLIBRARY_EMBED_URL"
	EnvOpenAIKey = "OPENAI_API_KEY"
)

// Config holds embedder configuration
type Config struct {
	Provider  string
	BaseURL   string
	APIKey    string
	CacheSize int
}

// NewFromEnv creates an embedder based on environment variables.
// Priority:
//  1. DOCLIBRARY_EMBEDDING_PROVIDER (local, openai)
//  2. OPENAI_API_KEY present -> openai
//  3. Default to the local embedding server
func NewFromEnv() (Embedder, error) {
	provider := os.Getenv(EnvProvider)
	openaiKey := os.Getenv(EnvOpenAIKey)

	cache := NewCache(10000) // Default cache size

	if provider != "" {
		provider = strings.ToLower(provider)
		switch provider {
		case ProviderLocal:
			return NewLocalProvider(os.Getenv(EnvEmbedURL), cache)
		case ProviderOpenAI:
			return NewOpenAIProvider(openaiKey, cache)
		default:
			return nil, fmt.Errorf("%w: unknown provider %s", ErrNoProviderEnabled, provider)
		}
	}

	if openaiKey != "" {
		return NewOpenAIProvider(openaiKey, cache)
	}

	return NewLocalProvider(os.Getenv(EnvEmbedURL), cache)
}

// New creates an embedder with explicit configuration
func New(cfg Config) (Embedder, error) {
	var cache *Cache
	if cfg.CacheSize > 0 {
		cache = NewCache(cfg.CacheSize)
	}

	provider := strings.ToLower(cfg.Provider)
	switch provider {
	case ProviderLocal, "":
		return NewLocalProvider(cfg.BaseURL, cache)
	case ProviderOpenAI:
		return NewOpenAIProvider(cfg.APIKey, cache)
	default:
		return nil, fmt.Errorf("%w: unknown provider %s", ErrNoProviderEnabled, cfg.Provider)
	}
}

// DetectProvider returns the provider that would be used based on the
// current environment
func DetectProvider() string {
	provider := os.Getenv(EnvProvider)
	if provider != "" {
		return strings.ToLower(provider)
	}

	if os.Getenv(EnvOpenAIKey) != "" {
		return ProviderOpenAI
	}

	return ProviderLocal
}
