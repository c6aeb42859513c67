package config

import "fmt"

// Validate performs fail-fast validation of every section, stopping at the
// first problem so the operator sees one actionable message rather than a
// dump of every field.
func (c *Config) Validate() error {
	if err := c.Research.validate(); err != nil {
		return fmt.Errorf("research: %w", err)
	}
	if err := c.Writing.validate(); err != nil {
		return fmt.Errorf("writing: %w", err)
	}
	if err := c.RAG.validate(); err != nil {
		return fmt.Errorf("rag: %w", err)
	}
	if err := c.Providers.validate(); err != nil {
		return fmt.Errorf("providers: %w", err)
	}
	if err := c.Store.validate(); err != nil {
		return fmt.Errorf("store: %w", err)
	}
	return nil
}

func (r ResearchConfig) validate() error {
	if r.MaxConcurrentRequests < 10 {
		return fmt.Errorf("max_concurrent_requests must be >= 10 to avoid agent-to-agent deadlock, got %d", r.MaxConcurrentRequests)
	}
	if r.StructuredResearchRounds < 1 {
		return fmt.Errorf("structured_research_rounds must be >= 1, got %d", r.StructuredResearchRounds)
	}
	if r.WritingPasses < 1 {
		return fmt.Errorf("writing_passes must be >= 1, got %d", r.WritingPasses)
	}
	if r.MinNotesPerSectionAssignment > r.MaxNotesPerSectionAssignment {
		return fmt.Errorf("min_notes_per_section_assignment (%d) exceeds max_notes_per_section_assignment (%d)",
			r.MinNotesPerSectionAssignment, r.MaxNotesPerSectionAssignment)
	}
	if r.MaxTotalDepth < 1 {
		return fmt.Errorf("max_total_depth must be >= 1, got %d", r.MaxTotalDepth)
	}
	if r.GracefulShutdownSeconds < 1 {
		return fmt.Errorf("graceful_shutdown_seconds must be >= 1, got %d", r.GracefulShutdownSeconds)
	}
	return nil
}

func (w WritingConfig) validate() error {
	if w.WritingAgentMaxContextChars <= 0 {
		return fmt.Errorf("writing_agent_max_context_chars must be > 0, got %d", w.WritingAgentMaxContextChars)
	}
	if w.ResearchNoteContentLimit <= 0 {
		return fmt.Errorf("research_note_content_limit must be > 0, got %d", w.ResearchNoteContentLimit)
	}
	return nil
}

func (r RAGConfig) validate() error {
	if r.DenseDim <= 0 {
		return fmt.Errorf("dense_dim must be > 0, got %d", r.DenseDim)
	}
	if r.SparseVocabSize <= 0 {
		return fmt.Errorf("sparse_vocab_size must be > 0, got %d", r.SparseVocabSize)
	}
	sum := r.HybridWeights.DenseWeight + r.HybridWeights.SparseWeight
	if sum < 0.999 || sum > 1.001 {
		return fmt.Errorf("hybrid_weights.dense_w + sparse_w must equal 1, got %.4f", sum)
	}
	if r.HybridWeights.DenseWeight < 0 || r.HybridWeights.SparseWeight < 0 {
		return fmt.Errorf("hybrid_weights must be non-negative, got dense_w=%.4f sparse_w=%.4f",
			r.HybridWeights.DenseWeight, r.HybridWeights.SparseWeight)
	}
	if r.ChunkWindow < 1 {
		return fmt.Errorf("chunk_window must be >= 1, got %d", r.ChunkWindow)
	}
	if r.ChunkStride < 1 || r.ChunkStride > r.ChunkWindow {
		return fmt.Errorf("chunk_stride must be in [1, chunk_window], got stride=%d window=%d", r.ChunkStride, r.ChunkWindow)
	}
	if r.EmbeddingBatchSize < 1 {
		return fmt.Errorf("embedding_batch_size must be >= 1, got %d", r.EmbeddingBatchSize)
	}
	return nil
}

func (p ProvidersConfig) validate() error {
	for _, tier := range []string{"fast", "mid", "intelligent", "verifier"} {
		t, ok := p.LLMTiers[tier]
		if !ok {
			return fmt.Errorf("missing required llm_tiers entry %q", tier)
		}
		if t.Model == "" {
			return fmt.Errorf("llm_tiers.%s.model must not be empty", tier)
		}
	}
	if p.WebFetchStrategy != "original_then_fallback" && p.WebFetchStrategy != "" {
		return fmt.Errorf("unknown web_fetch_strategy %q", p.WebFetchStrategy)
	}
	return nil
}

func (s StoreConfig) validate() error {
	switch s.Backend {
	case "memory":
	case "postgres":
		if s.DSN == "" {
			return fmt.Errorf("store.dsn is required when backend=postgres")
		}
	default:
		return fmt.Errorf("unknown store backend %q, want memory or postgres", s.Backend)
	}
	return s.DenseIndex.validate()
}

func (d DenseIndexConfig) validate() error {
	switch d.Backend {
	case "", "store":
		return nil
	case "qdrant":
		if d.URL == "" {
			return fmt.Errorf("store.dense_index.url is required when backend=qdrant")
		}
		if d.CollectionName == "" {
			return fmt.Errorf("store.dense_index.collection_name is required when backend=qdrant")
		}
		return nil
	default:
		return fmt.Errorf("unknown dense_index backend %q, want store or qdrant", d.Backend)
	}
}
