// Package config loads and validates MAESTRO's research, writing, RAG, and
// provider configuration from a YAML file, following the same
// load-then-validate shape as the rest of the ecosystem: every field has a
// documented default, and Validate fails fast with a field-scoped message
// rather than letting a bad value surface later as a confusing runtime
// error deep in a mission.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ResearchConfig bounds the planning and structured-research phases.
type ResearchConfig struct {
	InitialResearchMaxDepth         int  `yaml:"initial_research_max_depth"`
	InitialResearchMaxQuestions     int  `yaml:"initial_research_max_questions"`
	StructuredResearchRounds        int  `yaml:"structured_research_rounds"`
	WritingPasses                   int  `yaml:"writing_passes"`
	InitialExplorationDocResults    int  `yaml:"initial_exploration_doc_results"`
	InitialExplorationWebResults    int  `yaml:"initial_exploration_web_results"`
	MainResearchDocResults          int  `yaml:"main_research_doc_results"`
	MainResearchWebResults          int  `yaml:"main_research_web_results"`
	MaxResearchCyclesPerSection     int  `yaml:"max_research_cycles_per_section"`
	MaxTotalIterations              int  `yaml:"max_total_iterations"`
	MaxTotalDepth                   int  `yaml:"max_total_depth"`
	MaxDecomposedQueries            int  `yaml:"max_decomposed_queries"`
	MaxNotesForAssignmentReranking  int  `yaml:"max_notes_for_assignment_reranking"`
	MinNotesPerSectionAssignment    int  `yaml:"min_notes_per_section_assignment"`
	MaxNotesPerSectionAssignment    int  `yaml:"max_notes_per_section_assignment"`
	ThoughtPadContextLimit          int  `yaml:"thought_pad_context_limit"`
	MaxConcurrentRequests           int  `yaml:"max_concurrent_requests"`
	SkipFinalReplanning             bool `yaml:"skip_final_replanning"`
	AutoOptimizeParams              bool `yaml:"auto_optimize_params"`
	GracefulShutdownSeconds         int  `yaml:"graceful_shutdown_seconds"`
}

// WritingConfig bounds context windows used by the Writing Agent.
type WritingConfig struct {
	WritingPreviousContentPreviewChars int `yaml:"writing_previous_content_preview_chars"`
	WritingAgentMaxContextChars        int `yaml:"writing_agent_max_context_chars"`
	ResearchNoteContentLimit           int `yaml:"research_note_content_limit"`
	MaxPlanningContextChars            int `yaml:"max_planning_context_chars"`
}

// HybridWeights are the dense/sparse fusion weights for retrieval; they
// must sum to 1.
type HybridWeights struct {
	DenseWeight  float64 `yaml:"dense_w"`
	SparseWeight float64 `yaml:"sparse_w"`
}

// ANNParams configures the approximate nearest-neighbor index.
type ANNParams struct {
	M             int `yaml:"m"`
	EFConstruction int `yaml:"ef_construction"`
}

// RAGConfig configures chunking, embedding dimension, and retrieval
// weighting.
type RAGConfig struct {
	DenseDim        int           `yaml:"dense_dim"`
	SparseVocabSize int           `yaml:"sparse_vocab_size"`
	HybridWeights   HybridWeights `yaml:"hybrid_weights"`
	ANN             ANNParams     `yaml:"ann"`
	ChunkWindow     int           `yaml:"chunk_window"`
	ChunkStride     int           `yaml:"chunk_stride"`
	MaxDocumentSizeBytes int64    `yaml:"max_document_size_bytes"`
	EmbeddingBatchSize   int      `yaml:"embedding_batch_size"`
}

// LLMTierConfig configures one LLM endpoint tier (fast/mid/intelligent/verifier).
type LLMTierConfig struct {
	Model   string  `yaml:"model"`
	BaseURL string  `yaml:"base_url,omitempty"`
	APIKeyEnv string `yaml:"api_key_env"`
	Timeout   string `yaml:"timeout"`
}

// ProvidersConfig selects the concrete LLM, search, and fetch providers.
type ProvidersConfig struct {
	LLMTiers          map[string]LLMTierConfig `yaml:"llm_tiers"`
	WebSearchProvider string                   `yaml:"web_search_provider"`
	WebFetchStrategy  string                   `yaml:"web_fetch_strategy"`
}

// StoreConfig selects and configures the persistence backend.
type StoreConfig struct {
	Backend    string          `yaml:"backend"` // "memory" | "postgres"
	DSN        string          `yaml:"dsn,omitempty"`
	MigrateDir string          `yaml:"migrate_dir,omitempty"`
	DenseIndex DenseIndexConfig `yaml:"dense_index,omitempty"`
}

// DenseIndexConfig optionally routes dense chunk writes and SearchDense
// through Qdrant instead of the relational store's own cosine loop. Backend
// "" or "store" leaves dense search on the StoreConfig backend; "qdrant"
// composes it in via internal/rag/store/qdrant.Compose.
type DenseIndexConfig struct {
	Backend          string `yaml:"backend,omitempty"` // "" | "store" | "qdrant"
	URL              string `yaml:"url,omitempty"`
	CollectionName   string `yaml:"collection_name,omitempty"`
	InitializeSchema bool   `yaml:"initialize_schema,omitempty"`
}

// Config is the complete MAESTRO configuration as loaded from YAML, with
// every §6-recognized option represented and defaulted.
type Config struct {
	Research  ResearchConfig  `yaml:"research"`
	Writing   WritingConfig   `yaml:"writing"`
	RAG       RAGConfig       `yaml:"rag"`
	Providers ProvidersConfig `yaml:"providers"`
	Store     StoreConfig     `yaml:"store"`
}

// Load reads and parses a YAML configuration file at path, applies
// defaults for zero-valued fields, and validates the result.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return cfg, nil
}

// Default returns a Config populated entirely with MAESTRO's documented
// defaults, suitable for tests and the CLI demo mode.
func Default() *Config {
	return &Config{
		Research: ResearchConfig{
			InitialResearchMaxDepth:        3,
			InitialResearchMaxQuestions:    12,
			StructuredResearchRounds:       2,
			WritingPasses:                  2,
			InitialExplorationDocResults:   5,
			InitialExplorationWebResults:   5,
			MainResearchDocResults:         8,
			MainResearchWebResults:         5,
			MaxResearchCyclesPerSection:    3,
			MaxTotalIterations:             200,
			MaxTotalDepth:                  4,
			MaxDecomposedQueries:           5,
			MaxNotesForAssignmentReranking: 40,
			MinNotesPerSectionAssignment:   3,
			MaxNotesPerSectionAssignment:   15,
			ThoughtPadContextLimit:         50,
			MaxConcurrentRequests:          10,
			SkipFinalReplanning:            false,
			AutoOptimizeParams:             false,
			GracefulShutdownSeconds:        30,
		},
		Writing: WritingConfig{
			WritingPreviousContentPreviewChars: 2000,
			WritingAgentMaxContextChars:        60000,
			ResearchNoteContentLimit:           4000,
			MaxPlanningContextChars:            30000,
		},
		RAG: RAGConfig{
			DenseDim:             1024,
			SparseVocabSize:      30000,
			HybridWeights:        HybridWeights{DenseWeight: 0.5, SparseWeight: 0.5},
			ANN:                  ANNParams{M: 16, EFConstruction: 128},
			ChunkWindow:          2,
			ChunkStride:          1,
			MaxDocumentSizeBytes: 50 * 1024 * 1024,
			EmbeddingBatchSize:   32,
		},
		Providers: ProvidersConfig{
			LLMTiers: map[string]LLMTierConfig{
				"fast":         {Model: "gpt-4o-mini", APIKeyEnv: "OPENAI_API_KEY", Timeout: "30s"},
				"mid":          {Model: "gpt-4o", APIKeyEnv: "OPENAI_API_KEY", Timeout: "60s"},
				"intelligent":  {Model: "gpt-4o", APIKeyEnv: "OPENAI_API_KEY", Timeout: "120s"},
				"verifier":     {Model: "gpt-4o-mini", APIKeyEnv: "OPENAI_API_KEY", Timeout: "30s"},
			},
			WebSearchProvider: "duckduckgo",
			WebFetchStrategy:  "original_then_fallback",
		},
		Store: StoreConfig{
			Backend:    "memory",
			DenseIndex: DenseIndexConfig{Backend: "store"},
		},
	}
}
