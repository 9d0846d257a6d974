package embedder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Provider configuration
const (
	ProviderLocal  = "local"
	ProviderOpenAI = "openai"

	// Local embedding server defaults
	DefaultLocalURL   = "http://localhost:8094"
	localEmbedPath    = "/embedding"
	localHealthPath   = "/health"
	DefaultLocalModel = "local-embeddings"
	LocalDimension    = 1024

	// OpenAI defaults
	DefaultOpenAIURL   = "https://api.openai.com/v1"
	DefaultOpenAIModel = "text-embedding-3-small"
	OpenAIDimension    = 1536

	// Retry configuration: fixed-delay, bounded attempts
	MaxAttempts  = 3
	RetryDelayMs = 500

	// Request limits
	requestTimeout = 30 * time.Second
	healthTimeout  = 2 * time.Second
)

// LocalProvider talks to a local embedding HTTP server (one batched
// POST to /embedding, liveness probe on /health).
type LocalProvider struct {
	baseURL    string
	model      string
	dimension  int
	httpClient *http.Client
	cache      *Cache
	retry      RetryConfig
}

// NewLocalProvider creates an embedder backed by the local embedding server
func NewLocalProvider(baseURL string, cache *Cache) (*LocalProvider, error) {
	if baseURL == "" {
		baseURL = DefaultLocalURL
	}
	baseURL = strings.TrimRight(baseURL, "/")

	return &LocalProvider{
		baseURL:   baseURL,
		model:     DefaultLocalModel,
		dimension: LocalDimension,
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
		cache: cache,
		retry: DefaultRetryConfig(),
	}, nil
}

type localEmbedRequest struct {
	Texts []string `json:"texts"`
}

type localEmbedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
	Error      string      `json:"error,omitempty"`
}

func (p *LocalProvider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	if err := ValidateTexts(texts); err != nil {
		return nil, err
	}

	// Resolve cached entries first; only misses go over the wire
	results := make([][]float32, len(texts))
	var missIdx []int
	var missTexts []string
	for i, text := range texts {
		if p.cache != nil {
			if vec, ok := p.cache.Get(ComputeHash(text)); ok {
				results[i] = vec
				continue
			}
		}
		missIdx = append(missIdx, i)
		missTexts = append(missTexts, text)
	}

	if len(missTexts) == 0 {
		return results, nil
	}

	vectors, err := retryFixed(ctx, p.retry, func() ([][]float32, error) {
		return p.doEmbed(ctx, missTexts)
	})
	if err != nil {
		return nil, err
	}

	if len(vectors) != len(missTexts) {
		return nil, fmt.Errorf("%w: got %d embeddings for %d texts",
			ErrProviderFailed, len(vectors), len(missTexts))
	}

	for j, vec := range vectors {
		results[missIdx[j]] = vec
		if p.cache != nil {
			p.cache.Set(ComputeHash(missTexts[j]), vec)
		}
	}

	return results, nil
}

func (p *LocalProvider) doEmbed(ctx context.Context, texts []string) ([][]float32, error) {
	body, err := json.Marshal(localEmbedRequest{Texts: texts})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.baseURL+localEmbedPath, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: status %d: %s", ErrProviderFailed, resp.StatusCode, string(data))
	}

	var parsed localEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrProviderFailed, err)
	}
	if parsed.Error != "" {
		return nil, fmt.Errorf("%w: %s", ErrProviderFailed, parsed.Error)
	}

	return parsed.Embeddings, nil
}

// Healthy probes the embedding server's /health endpoint
func (p *LocalProvider) Healthy(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+localHealthPath, nil)
	if err != nil {
		return false
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer func() { _ = resp.Body.Close() }()

	return resp.StatusCode == http.StatusOK
}

func (p *LocalProvider) Dimension() int {
	return p.dimension
}

func (p *LocalProvider) Provider() string {
	return ProviderLocal
}

func (p *LocalProvider) Model() string {
	return p.model
}

func (p *LocalProvider) Close() error {
	p.httpClient.CloseIdleConnections()
	return nil
}

// OpenAIProvider implements Embedder against an OpenAI-compatible
// embeddings API.
type OpenAIProvider struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
	cache      *Cache
	retry      RetryConfig
}

// NewOpenAIProvider creates an OpenAI-compatible embedder
func NewOpenAIProvider(apiKey string, cache *Cache) (*OpenAIProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: OpenAI API key not set", ErrNoProviderEnabled)
	}

	return &OpenAIProvider{
		apiKey:  apiKey,
		baseURL: DefaultOpenAIURL,
		model:   DefaultOpenAIModel,
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
		cache: cache,
		retry: DefaultRetryConfig(),
	}, nil
}

type openAIEmbedRequest struct {
	Input []string `json:"input"`
	Model string   `json:"model"`
}

type openAIEmbedResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (p *OpenAIProvider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	if err := ValidateTexts(texts); err != nil {
		return nil, err
	}

	results := make([][]float32, len(texts))
	var missIdx []int
	var missTexts []string
	for i, text := range texts {
		if p.cache != nil {
			if vec, ok := p.cache.Get(ComputeHash(text)); ok {
				results[i] = vec
				continue
			}
		}
		missIdx = append(missIdx, i)
		missTexts = append(missTexts, text)
	}

	if len(missTexts) == 0 {
		return results, nil
	}

	vectors, err := retryFixed(ctx, p.retry, func() ([][]float32, error) {
		return p.doEmbed(ctx, missTexts)
	})
	if err != nil {
		return nil, err
	}

	for j, vec := range vectors {
		results[missIdx[j]] = vec
		if p.cache != nil {
			p.cache.Set(ComputeHash(missTexts[j]), vec)
		}
	}

	return results, nil
}

func (p *OpenAIProvider) doEmbed(ctx context.Context, texts []string) ([][]float32, error) {
	body, err := json.Marshal(openAIEmbedRequest{
		Input: texts,
		Model: p.model,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.baseURL+"/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: status %d: %s", ErrProviderFailed, resp.StatusCode, string(data))
	}

	var parsed openAIEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrProviderFailed, err)
	}
	if parsed.Error != nil {
		return nil, fmt.Errorf("%w: %s", ErrProviderFailed, parsed.Error.Message)
	}
	if len(parsed.Data) != len(texts) {
		return nil, fmt.Errorf("%w: got %d embeddings for %d texts",
			ErrProviderFailed, len(parsed.Data), len(texts))
	}

	// Data items may arrive out of order; place by index
	vectors := make([][]float32, len(texts))
	for _, item := range parsed.Data {
		if item.Index < 0 || item.Index >= len(vectors) {
			return nil, fmt.Errorf("%w: embedding index %d out of range", ErrProviderFailed, item.Index)
		}
		vectors[item.Index] = item.Embedding
	}

	return vectors, nil
}

// Healthy verifies the API is reachable by listing models. A failed probe
// gates search the same way a dead local server does.
func (p *OpenAIProvider) Healthy(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/models", nil)
	if err != nil {
		return false
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer func() { _ = resp.Body.Close() }()

	return resp.StatusCode == http.StatusOK
}

func (p *OpenAIProvider) Dimension() int {
	return OpenAIDimension
}

func (p *OpenAIProvider) Provider() string {
	return ProviderOpenAI
}

func (p *OpenAIProvider) Model() string {
	return p.model
}

func (p *OpenAIProvider) Close() error {
	p.httpClient.CloseIdleConnections()
	return nil
}
