// Package config loads the per-project configuration: a required
// config.hx.json next to schema.hx and the project's *.hx query files,
// optionally layered with a project-wide defaults.yaml and environment
// variable overrides. File defaults apply first, then environment
// variables take precedence.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/helixdb/helix/internal/herr"
)

const (
	maxDBSizeGB     = 9998
	defaultDBSizeGB = 100
)

// VectorConfig mirrors the vector_config block, plus an optional Dims map
// resolving the one thing the HQL grammar (internal/hql/parser's
// VectorDef) leaves undeclared: the dimensionality
// of each vector-indexed label's embeddings, needed up front to construct
// its HNSW internal/vector.Index. Keyed by the V::Label name; a label
// absent here has no index built for it at pkg/helixdb.Open time and
// SearchV/InsertV against it fail with herr.ErrLabelNotFound, matching how
// an undeclared label already behaves.
type VectorConfig struct {
	M              int         `json:"m" yaml:"m"`
	EfConstruction int         `json:"ef_construction" yaml:"ef_construction"`
	EfSearch       int         `json:"ef_search" yaml:"ef_search"`
	Dims           map[string]int `json:"dims" yaml:"dims"`
}

// BM25Config mirrors the bm25 block.
type BM25Config struct {
	K1 float32 `json:"k1" yaml:"k1"`
	B  float32 `json:"b" yaml:"b"`
}

// Config is the full set of recognized project configuration options.
type Config struct {
	DBMaxSizeGB      int          `json:"db_max_size_gb" yaml:"db_max_size_gb"`
	SecondaryIndices []string     `json:"secondary_indices" yaml:"secondary_indices"`
	VectorConfig     VectorConfig `json:"vector_config" yaml:"vector_config"`
	BM25             BM25Config   `json:"bm25" yaml:"bm25"`
}

// Default returns the documented defaults: db_max_size_gb=100,
// bm25.k1=1.2, bm25.b=0.75, no secondary indices, and vector index
// defaults m=16 and ef_construction=200 (as in internal/vector's
// DefaultConfig) with ef_search=64 (internal/vector's DefaultConfig uses
// 100).
func Default() Config {
	return Config{
		DBMaxSizeGB: defaultDBSizeGB,
		VectorConfig: VectorConfig{
			M:              16,
			EfConstruction: 200,
			EfSearch:       64,
		},
		BM25: BM25Config{K1: 1.2, B: 0.75},
	}
}

// Load reads config.hx.json from dir (required), then layers any
// defaults.yaml found alongside it, then
// applies HELIX_-prefixed environment variable overrides. File layers
// start from Default() so a config.hx.json naming only a subset of
// options still gets sane values for the rest.
func Load(dir string) (Config, error) {
	cfg := Default()

	jsonPath := filepath.Join(dir, "config.hx.json")
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		if os.IsNotExist(err) {
			return Config{}, herr.ErrConfigFileNotFound
		}
		return Config{}, err
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, herr.Decode(err)
	}

	if yamlData, err := os.ReadFile(filepath.Join(dir, "defaults.yaml")); err == nil {
		if err := yaml.Unmarshal(yamlData, &cfg); err != nil {
			return Config{}, herr.Decode(err)
		}
	}

	applyEnvOverrides(&cfg)

	if cfg.DBMaxSizeGB > maxDBSizeGB {
		cfg.DBMaxSizeGB = maxDBSizeGB
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("HELIX_DB_MAX_SIZE_GB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.DBMaxSizeGB = n
		}
	}
	if v := os.Getenv("HELIX_VECTOR_EF_SEARCH"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.VectorConfig.EfSearch = n
		}
	}
	if v := os.Getenv("HELIX_BM25_K1"); v != "" {
		if f, err := strconv.ParseFloat(v, 32); err == nil {
			cfg.BM25.K1 = float32(f)
		}
	}
	if v := os.Getenv("HELIX_BM25_B"); v != "" {
		if f, err := strconv.ParseFloat(v, 32); err == nil {
			cfg.BM25.B = float32(f)
		}
	}
}
