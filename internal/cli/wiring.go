// Package cli implements maestroctl's command tree, grounded on the
// teacher's internal/cmd package: a package-level rootCmd built up by each
// subcommand file's init(), and a thin Execute entrypoint called from
// cmd/maestroctl/main.go.
package cli

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"strconv"
	"time"

	qdrantclient "github.com/qdrant/go-client/qdrant"

	"github.com/murtaza-nasir/maestro/internal/agent/rerank"
	"github.com/murtaza-nasir/maestro/internal/agent/rerank/llmrerank"
	"github.com/murtaza-nasir/maestro/internal/agent/rerank/localrerank"
	"github.com/murtaza-nasir/maestro/internal/config"
	"github.com/murtaza-nasir/maestro/internal/embedding"
	embeddingopenai "github.com/murtaza-nasir/maestro/internal/embedding/openai"
	"github.com/murtaza-nasir/maestro/internal/governor"
	"github.com/murtaza-nasir/maestro/internal/llm"
	llmopenai "github.com/murtaza-nasir/maestro/internal/llm/openai"
	"github.com/murtaza-nasir/maestro/internal/mission"
	"github.com/murtaza-nasir/maestro/internal/rag/ingest"
	rdbstoreqdrant "github.com/murtaza-nasir/maestro/internal/rag/store/qdrant"
	"github.com/murtaza-nasir/maestro/internal/store"
	"github.com/murtaza-nasir/maestro/internal/store/memory"
	"github.com/murtaza-nasir/maestro/internal/store/postgres"
	"github.com/murtaza-nasir/maestro/internal/websearch"
	"github.com/murtaza-nasir/maestro/internal/websearch/fetch"
	"github.com/murtaza-nasir/maestro/internal/websearch/search/duckduckgo"
)

// app bundles everything a subcommand needs once the config has been
// loaded and every provider wired.
type app struct {
	cfg        *config.Config
	store      store.Store
	controller *mission.Controller
	ingest     *ingest.Pipeline
}

// buildApp loads cfgPath (or config.Default() when empty) and constructs
// every provider it names: one llm.Chat adapter shared across tiers, an
// embedding.Model, a web searcher/fetcher pair, an optional reranker, the
// persistence backend, and the Mission Controller and ingestion pipeline
// sitting on top of them.
func buildApp(cfgPath string) (*app, func(), error) {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		return nil, nil, err
	}

	st, closeStore, err := buildStore(cfg.Store, cfg.RAG.DenseDim)
	if err != nil {
		return nil, nil, err
	}

	gov := governor.New(cfg.Research.MaxConcurrentRequests)

	chat, err := buildChat(cfg.Providers, gov)
	if err != nil {
		closeStore()
		return nil, nil, err
	}

	embedder := buildEmbedder(cfg.Providers, cfg.RAG, gov)
	searcher := buildSearcher()
	fetcher := buildFetcher(cfg.Providers)
	reranker := buildReranker(chat, embedder)

	ctrl := mission.New(mission.Deps{
		Store:    st,
		Chat:     chat,
		Embedder: embedder,
		Governor: gov,
		Searcher: searcher,
		Fetcher:  fetcher,
		Reranker: reranker,
		Research: cfg.Research,
		Writing:  cfg.Writing,
	})

	pipeline := ingest.New(ingest.Config{
		MaxDocumentSizeBytes: cfg.RAG.MaxDocumentSizeBytes,
		EmbeddingBatchSize:   cfg.RAG.EmbeddingBatchSize,
	}, st, st, embedder, chat, nil)

	return &app{cfg: cfg, store: st, controller: ctrl, ingest: pipeline}, closeStore, nil
}

func loadConfig(cfgPath string) (*config.Config, error) {
	if cfgPath == "" {
		return config.Default(), nil
	}
	return config.Load(cfgPath)
}

func buildStore(sc config.StoreConfig, denseDim int) (store.Store, func(), error) {
	var base store.Store
	cleanup := func() {}

	switch sc.Backend {
	case "", "memory":
		base = memory.New()
	case "postgres":
		if sc.DSN == "" {
			return nil, nil, fmt.Errorf("store: postgres backend requires dsn")
		}
		pg, err := postgres.Open(context.Background(), sc.DSN)
		if err != nil {
			return nil, nil, fmt.Errorf("store: open postgres: %w", err)
		}
		base, cleanup = pg, pg.Close
	default:
		return nil, nil, fmt.Errorf("store: unknown backend %q", sc.Backend)
	}

	if sc.DenseIndex.Backend != "qdrant" {
		return base, cleanup, nil
	}

	idx, err := buildQdrantIndex(sc.DenseIndex, denseDim)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return rdbstoreqdrant.Compose(base, idx), cleanup, nil
}

// buildQdrantIndex connects to Qdrant at dense.URL ("host:port", TLS off)
// and ensures the configured collection exists when InitializeSchema is set.
func buildQdrantIndex(dense config.DenseIndexConfig, denseDim int) (*rdbstoreqdrant.Index, error) {
	if dense.URL == "" {
		return nil, fmt.Errorf("store.dense_index: qdrant backend requires url")
	}
	if dense.CollectionName == "" {
		return nil, fmt.Errorf("store.dense_index: qdrant backend requires collection_name")
	}
	host, portStr, err := net.SplitHostPort(dense.URL)
	if err != nil {
		return nil, fmt.Errorf("store.dense_index.url: %w", err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("store.dense_index.url: invalid port: %w", err)
	}

	client, err := qdrantclient.NewClient(&qdrantclient.Config{Host: host, Port: port})
	if err != nil {
		return nil, fmt.Errorf("store.dense_index: connect qdrant: %w", err)
	}
	return rdbstoreqdrant.New(context.Background(), rdbstoreqdrant.Config{
		Client:           client,
		CollectionName:   dense.CollectionName,
		Dimensions:       denseDim,
		InitializeSchema: dense.InitializeSchema,
	})
}

var tierNames = map[string]llm.Tier{
	"fast":        llm.TierFast,
	"mid":         llm.TierMid,
	"intelligent": llm.TierIntelligent,
	"verifier":    llm.TierVerifier,
}

// buildChat builds one llm/openai.Adapter shared across every configured
// tier. Each tier may point at a different model and timeout (and, in
// principle, a different OpenAI-compatible base URL); the adapter only
// takes one baseURL, so a mission that needs per-tier endpoints should run
// one maestroctl process per endpoint rather than mixing them here.
func buildChat(pc config.ProvidersConfig, gov *governor.Governor) (llm.Chat, error) {
	tiers := make(llmopenai.TierModels, len(pc.LLMTiers))
	var apiKey, baseURL string
	for name, tc := range pc.LLMTiers {
		tier, ok := tierNames[name]
		if !ok {
			return nil, fmt.Errorf("providers.llm_tiers: unknown tier %q", name)
		}
		timeout, err := time.ParseDuration(tc.Timeout)
		if err != nil {
			return nil, fmt.Errorf("providers.llm_tiers.%s.timeout: %w", name, err)
		}
		tiers[tier] = llmopenai.TierModel{Model: tc.Model, Timeout: timeout}
		if apiKey == "" {
			apiKey = envOrEmpty(tc.APIKeyEnv)
		}
		if baseURL == "" {
			baseURL = tc.BaseURL
		}
	}
	return llmopenai.New(apiKey, baseURL, tiers, gov), nil
}

func buildEmbedder(pc config.ProvidersConfig, rc config.RAGConfig, gov *governor.Governor) embedding.Model {
	tc, ok := pc.LLMTiers["fast"]
	model := "text-embedding-3-small"
	apiKey := ""
	baseURL := ""
	if ok {
		apiKey = envOrEmpty(tc.APIKeyEnv)
		baseURL = tc.BaseURL
	}
	return embeddingopenai.New(apiKey, baseURL, model, rc.DenseDim, rc.SparseVocabSize, gov)
}

// buildSearcher returns the configured web search provider. duckduckgo is
// the only Searcher implementation wired so far, so this ignores
// web_search_provider rather than rejecting an unrecognized value and
// leaving missions with UseWeb set unable to search at all.
func buildSearcher() websearch.Searcher {
	return duckduckgo.New(nil)
}

func buildFetcher(pc config.ProvidersConfig) websearch.Fetcher {
	primary := fetch.New(nil)
	if pc.WebFetchStrategy != "original_then_fallback" {
		return primary
	}
	return &fetch.Fallback{
		Primary:   primary,
		Secondary: fetch.NewReaderService(&http.Client{Timeout: 45 * time.Second}, "https://r.jina.ai/"),
	}
}

// buildReranker prefers an LLM-judged reranker over the local
// embedding-cosine reranker, since it tends to beat cosine-only reranking
// on the section-relevance task assignNotesToSection uses it for.
func buildReranker(chat llm.Chat, embedder embedding.Model) rerank.Reranker {
	if chat != nil {
		return llmrerank.New(chat)
	}
	if embedder != nil {
		return localrerank.New(embedder)
	}
	return nil
}

func envOrEmpty(key string) string {
	if key == "" {
		return ""
	}
	return os.Getenv(key)
}
