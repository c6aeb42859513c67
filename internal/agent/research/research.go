// Package research implements the Research Agent (§4.1 phases 2-3): runs
// hybrid retrieval (§4.2) over documents and the web, synthesizes cited
// notes from the results via an LLM call, and appends them to the note
// store with section assignment when researching inside a section cycle.
package research

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/murtaza-nasir/maestro/internal/agent"
	"github.com/murtaza-nasir/maestro/internal/governor"
	"github.com/murtaza-nasir/maestro/internal/llm"
	"github.com/murtaza-nasir/maestro/internal/maestro"
	"github.com/murtaza-nasir/maestro/internal/rag/retriever"
	"github.com/murtaza-nasir/maestro/internal/store"
	"github.com/murtaza-nasir/maestro/internal/websearch"
	msync "github.com/murtaza-nasir/maestro/pkg/sync"
)

// Limits configures how much an exploration or research cycle may pull.
type Limits struct {
	DocResults         int
	WebResults         int
	MaxDecomposed      int
	MaxNotesPerSection int
}

type Agent struct {
	chat      llm.Chat
	gov       *governor.Governor
	retriever *retriever.Retriever
	searcher  websearch.Searcher
	fetcher   websearch.Fetcher
	notes     store.NoteStore
	limits    Limits
}

func New(chat llm.Chat, gov *governor.Governor, ret *retriever.Retriever, searcher websearch.Searcher, fetcher websearch.Fetcher, notes store.NoteStore, limits Limits) *Agent {
	if limits.DocResults <= 0 {
		limits.DocResults = 8
	}
	if limits.WebResults <= 0 {
		limits.WebResults = 4
	}
	if limits.MaxDecomposed <= 0 {
		limits.MaxDecomposed = 3
	}
	if limits.MaxNotesPerSection <= 0 {
		limits.MaxNotesPerSection = 20
	}
	return &Agent{chat: chat, gov: gov, retriever: ret, searcher: searcher, fetcher: fetcher, notes: notes, limits: limits}
}

var _ agent.Agent = (*Agent)(nil)

func (a *Agent) Name() string { return "research" }

func (a *Agent) EstimatedCost(in agent.Input) float64 {
	return 0.01 * float64(1+len(in.Queries))
}

const decomposeSchema = `{"type":"object","properties":{"queries":{"type":"array","items":{"type":"string"}}}}`

const notesSchema = `{"type":"object","properties":{"notes":{"type":"array","items":{
	"type":"object","properties":{"content":{"type":"string"},"source_index":{"type":"integer"}}
}}}}`

type decomposeResult struct {
	Queries []string `json:"queries"`
}

type rawNote struct {
	Content     string `json:"content"`
	SourceIndex int    `json:"source_index"`
}

type notesResult struct {
	Notes []rawNote `json:"notes"`
}

// candidate is one retrieved passage, from either the document index or
// the web, normalized to a common shape for note synthesis.
type candidate struct {
	text string
	ref  maestro.SourceRef
	kind maestro.NoteSourceType
}

func (a *Agent) Run(ctx context.Context, in agent.Input) (agent.Output, error) {
	queries := in.Queries
	if len(queries) == 0 {
		queries = []string{sectionOrMissionQuery(in)}
	} else if len(queries) > a.limits.MaxDecomposed {
		queries = queries[:a.limits.MaxDecomposed]
	}

	if in.Section != nil && in.CycleIndex == 0 {
		decomposed, err := a.decompose(ctx, in)
		if err == nil && len(decomposed) > 0 {
			queries = decomposed
		}
	}

	var candidates []candidate
	for _, q := range queries {
		docHits, err := a.retrieveDocs(ctx, in, q)
		if err != nil && !maestro.Is(err, maestro.ErrRetrievalEmpty) {
			return agent.Output{}, err
		}
		candidates = append(candidates, docHits...)

		if in.Mission.Options.UseWeb && a.searcher != nil {
			webHits := a.searchWeb(ctx, q)
			candidates = append(candidates, webHits...)
		}
	}

	if len(candidates) == 0 {
		return agent.Output{Kind: agent.OutputNotes, Notes: nil}, nil
	}

	notes, err := a.synthesize(ctx, in, candidates)
	if err != nil {
		return agent.Output{}, err
	}

	limit := a.limits.MaxNotesPerSection
	if in.Section == nil {
		limit = len(notes)
	}
	stored := make([]*maestro.Note, 0, len(notes))
	for i, n := range notes {
		if in.Section != nil && i >= limit {
			break
		}
		existingID, added, err := a.notes.AddNote(ctx, n)
		if err != nil {
			return agent.Output{}, err
		}
		if added {
			stored = append(stored, n)
		} else if in.Section != nil {
			if err := a.notes.AssignNote(ctx, existingID, in.Section.ID); err != nil {
				return agent.Output{}, err
			}
		}
	}

	return agent.Output{Kind: agent.OutputNotes, Notes: stored}, nil
}

func sectionOrMissionQuery(in agent.Input) string {
	if in.Section != nil {
		return in.Section.Title + ": " + in.Section.Description
	}
	return in.Mission.RequestText
}

func (a *Agent) decompose(ctx context.Context, in agent.Input) ([]string, error) {
	var completion llm.Completion
	err := a.gov.Call(ctx, 1, func(ctx context.Context) error {
		c, err := a.chat.Chat(ctx, []llm.Message{
			{Role: llm.RoleSystem, Content: "Decompose the section into focused search queries as JSON."},
			{Role: llm.RoleUser, Content: fmt.Sprintf("Section: %s\n%s", in.Section.Title, in.Section.Description)},
		}, llm.TierFast, []byte(decomposeSchema))
		completion = c
		return err
	})
	if err != nil {
		return nil, err
	}
	var result decomposeResult
	if err := json.Unmarshal([]byte(completion.Content), &result); err != nil {
		return nil, maestro.NewError(maestro.ErrProviderContract, "research agent: unparseable decomposition", err)
	}
	if len(result.Queries) > a.limits.MaxDecomposed {
		result.Queries = result.Queries[:a.limits.MaxDecomposed]
	}
	return result.Queries, nil
}

func (a *Agent) retrieveDocs(ctx context.Context, in agent.Input, query string) ([]candidate, error) {
	filter := retriever.Filter{DocumentGroupID: in.Mission.DocumentGroupID}
	var results []retriever.Result
	err := a.gov.Call(ctx, 1, func(ctx context.Context) error {
		r, err := a.retriever.Retrieve(ctx, query, filter, a.limits.DocResults, retriever.DefaultWeights)
		results = r
		return err
	})
	if err != nil {
		return nil, err
	}
	out := make([]candidate, 0, len(results))
	for _, r := range results {
		out = append(out, candidate{
			text: r.Chunk.Text,
			ref:  maestro.SourceRef{DocumentID: r.Chunk.DocumentID, ChunkID: r.Chunk.ID},
			kind: maestro.NoteSourceDocument,
		})
	}
	return out, nil
}

func (a *Agent) searchWeb(ctx context.Context, query string) []candidate {
	var out []candidate
	_ = a.gov.Call(ctx, 1, func(ctx context.Context) error {
		results, err := a.searcher.Search(ctx, query, a.limits.WebResults)
		if err != nil {
			return nil // web search is best-effort within a research cycle
		}
		pool := websearch.FetchAll(ctx, a.fetcher, urlsOf(results), msync.PoolOfNoPool())
		for i, r := range results {
			text := r.Snippet
			if i < len(pool) && pool[i].Err == nil && pool[i].Text != "" {
				text = pool[i].Text
			}
			out = append(out, candidate{text: text, ref: maestro.SourceRef{URL: r.URL}, kind: maestro.NoteSourceWeb})
		}
		return nil
	})
	return out
}

func urlsOf(results []websearch.SearchResult) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.URL
	}
	return out
}

func (a *Agent) synthesize(ctx context.Context, in agent.Input, candidates []candidate) ([]*maestro.Note, error) {
	var sb strings.Builder
	for i, c := range candidates {
		fmt.Fprintf(&sb, "[%d] %s\n\n", i, truncate(c.text, 1500))
	}

	var completion llm.Completion
	err := a.gov.Call(ctx, 1, func(ctx context.Context) error {
		c, err := a.chat.Chat(ctx, []llm.Message{
			{Role: llm.RoleSystem, Content: "Extract atomic, cited findings from the numbered sources as JSON. Each note must cite its source_index."},
			{Role: llm.RoleUser, Content: sb.String()},
		}, llm.TierMid, []byte(notesSchema))
		completion = c
		return err
	})
	if err != nil {
		return nil, err
	}

	var result notesResult
	if err := json.Unmarshal([]byte(completion.Content), &result); err != nil {
		return nil, maestro.NewError(maestro.ErrProviderContract, "research agent: unparseable notes", err)
	}

	phase := "initial"
	sectionID := ""
	if in.Section != nil {
		phase = "structured"
		sectionID = in.Section.ID
	}

	notes := make([]*maestro.Note, 0, len(result.Notes))
	for _, n := range result.Notes {
		if n.SourceIndex < 0 || n.SourceIndex >= len(candidates) {
			continue
		}
		src := candidates[n.SourceIndex]
		notes = append(notes, &maestro.Note{
			NoteID:     uuid.NewString(),
			MissionID:  in.Mission.ID,
			Content:    n.Content,
			SourceType: src.kind,
			SourceRef:  src.ref,
			SectionID:  sectionID,
			Tags:       []string{phase},
			CreatedAt:  timeNow(),
		})
	}
	return notes, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// timeNow is indirected so tests can pin note timestamps; production
// always uses the real clock.
var timeNow = func() time.Time { return time.Now().UTC() }
