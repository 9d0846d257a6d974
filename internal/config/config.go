package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/pelletier/go-toml/v2"
)

// Config holds all runtime settings for the document library.
// Values load from a TOML file with DOCLIBRARY_* environment variables
// taking priority.
type Config struct {
	// Paths
	DBPath  string `toml:"db_path"`
	DataDir string `toml:"data_dir"`

	// Embedding server
	EmbedProvider string `toml:"embed_provider"`
	EmbedURL      string `toml:"embed_url"`
	EmbedDim      int    `toml:"embed_dim"`

	// Chunking
	ChunkSize    int `toml:"chunk_size"`
	ChunkOverlap int `toml:"chunk_overlap"`

	// Search
	SearchLimit        int     `toml:"search_limit"`
	LowBarPct          float64 `toml:"low_bar_pct"`
	ConfidenceFloorPct float64 `toml:"confidence_floor_pct"`

	// Source records where the configuration came from
	Source string `toml:"-"`
}

// Default returns the baseline configuration
func Default() Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return Config{
		DBPath:             filepath.Join(home, ".doclibrary", "library.db"),
		DataDir:            "db/data",
		EmbedProvider:      "local",
		EmbedURL:           "http://localhost:8094",
		EmbedDim:           1024,
		ChunkSize:          800,
		ChunkOverlap:       200,
		SearchLimit:        10,
		LowBarPct:          5,
		ConfidenceFloorPct: 20,
		Source:             "defaults",
	}
}

// findConfigFile checks the standard locations in priority order
func findConfigFile() string {
	locations := []string{
		"config.local.toml",
		"config.toml",
	}
	if home, err := os.UserHomeDir(); err == nil {
		locations = append(locations,
			filepath.Join(home, ".config", "doclibrary", "config.toml"))
	}

	for _, path := range locations {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// Load builds the effective configuration: defaults, then the first
// config file found, then environment overrides
func Load() (Config, error) {
	cfg := Default()

	if path := findConfigFile(); path != "" {
		if err := loadFile(&cfg, path); err != nil {
			return cfg, err
		}
		cfg.Source = path
	}

	applyEnv(&cfg)
	return cfg, cfg.Validate()
}

// LoadFile builds the configuration from a specific TOML file plus
// environment overrides
func LoadFile(path string) (Config, error) {
	cfg := Default()
	if err := loadFile(&cfg, path); err != nil {
		return cfg, err
	}
	cfg.Source = path
	applyEnv(&cfg)
	return cfg, cfg.Validate()
}

func loadFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// applyEnv overrides config values from DOCLIBRARY_* variables
func applyEnv(cfg *Config) {
	setString := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setInt := func(key string, dst *int) {
		if v := os.Getenv(key); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}
	setFloat := func(key string, dst *float64) {
		if v := os.Getenv(key); v != "" {
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				*dst = f
			}
		}
	}

	setString("DOCLIBRARY_DB_PATH", &cfg.DBPath)
	setString("DOCLIBRARY_DATA_DIR", &cfg.DataDir)
	setString("DOCLIBRARY_EMBEDDING_PROVIDER", &cfg.EmbedProvider)
	setString("DOCLIBRARY_EMBED_URL", &cfg.EmbedURL)
	setInt("DOCLIBRARY_EMBED_DIM", &cfg.EmbedDim)
	setInt("DOCLIBRARY_CHUNK_SIZE", &cfg.ChunkSize)
	setInt("DOCLIBRARY_CHUNK_OVERLAP", &cfg.ChunkOverlap)
	setInt("DOCLIBRARY_SEARCH_LIMIT", &cfg.SearchLimit)
	setFloat("DOCLIBRARY_LOW_BAR_PCT", &cfg.LowBarPct)
	setFloat("DOCLIBRARY_CONFIDENCE_FLOOR_PCT", &cfg.ConfidenceFloorPct)
}

// Validate rejects configurations that cannot work
func (c Config) Validate() error {
	if c.ChunkSize <= 0 {
		return fmt.Errorf("chunk_size must be positive, got %d", c.ChunkSize)
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("chunk_overlap must be in [0, chunk_size), got %d", c.ChunkOverlap)
	}
	if c.SearchLimit <= 0 {
		return fmt.Errorf("search_limit must be positive, got %d", c.SearchLimit)
	}
	if c.LowBarPct < 0 || c.LowBarPct > 100 {
		return fmt.Errorf("low_bar_pct must be in [0, 100], got %v", c.LowBarPct)
	}
	if c.ConfidenceFloorPct < 0 || c.ConfidenceFloorPct > 100 {
		return fmt.Errorf("confidence_floor_pct must be in [0, 100], got %v", c.ConfidenceFloorPct)
	}
	return nil
}
