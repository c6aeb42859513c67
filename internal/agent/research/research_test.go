package research

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/murtaza-nasir/maestro/internal/agent"
	"github.com/murtaza-nasir/maestro/internal/embedding"
	"github.com/murtaza-nasir/maestro/internal/governor"
	"github.com/murtaza-nasir/maestro/internal/llm"
	"github.com/murtaza-nasir/maestro/internal/maestro"
	"github.com/murtaza-nasir/maestro/internal/rag/retriever"
	"github.com/murtaza-nasir/maestro/internal/store"
	"github.com/murtaza-nasir/maestro/internal/store/memory"
	"github.com/murtaza-nasir/maestro/internal/websearch"
)

type fixedEmbedder struct{ vector embedding.Vector }

func (f fixedEmbedder) Embed(_ context.Context, texts []string, _ embedding.Mode) ([]embedding.Vector, error) {
	out := make([]embedding.Vector, len(texts))
	for i := range texts {
		out[i] = f.vector
	}
	return out, nil
}

func (f fixedEmbedder) Dimensions() int { return len(f.vector.Dense) }

// scriptedChat returns responses in call order, looping the last one once
// exhausted, so a single agent.Run covering decompose+synthesize can be
// driven without threading call context through the fake.
type scriptedChat struct {
	responses []string
	calls     int
}

func (s *scriptedChat) Chat(context.Context, []llm.Message, llm.Tier, []byte) (llm.Completion, error) {
	i := s.calls
	if i >= len(s.responses) {
		i = len(s.responses) - 1
	}
	s.calls++
	return llm.Completion{Content: s.responses[i]}, nil
}

func newTestAgent(t *testing.T, chat llm.Chat) (*Agent, *memory.Store) {
	t.Helper()
	st := memory.New()
	require.NoError(t, st.ReplaceChunks(context.Background(), "d1", []*maestro.Chunk{
		{ID: "c1", DocumentID: "d1", Text: "finding about the topic", Dense: []float32{1, 0}, Sparse: maestro.SparseVector{1: 1.0}},
	}))
	embedder := fixedEmbedder{vector: embedding.Vector{Dense: []float32{1, 0}, Sparse: maestro.SparseVector{1: 1.0}}}
	ret := retriever.New(st, embedder)
	return New(chat, governor.New(10), ret, nil, nil, st, Limits{}), st
}

func TestRun_InitialExplorationSynthesizesAndStoresNotes(t *testing.T) {
	chat := &scriptedChat{responses: []string{
		`{"notes": [{"content": "the topic matters", "source_index": 0}]}`,
	}}
	a, st := newTestAgent(t, chat)

	out, err := a.Run(context.Background(), agent.Input{
		Mission: &maestro.Mission{ID: "m1", RequestText: "the topic"},
		Context: &maestro.MissionContext{},
	})
	require.NoError(t, err)
	require.Equal(t, agent.OutputNotes, out.Kind)
	require.Len(t, out.Notes, 1)
	assert.Equal(t, "the topic matters", out.Notes[0].Content)
	assert.Contains(t, out.Notes[0].Tags, "initial")

	count, err := st.CountNotes(context.Background(), "m1")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestRun_DuplicateNoteIsAssignedToSectionNotDuplicated(t *testing.T) {
	mission := &maestro.Mission{ID: "m1", RequestText: "the topic"}
	existing := &maestro.Note{
		NoteID:     "existing-note",
		MissionID:  "m1",
		Content:    "dup finding",
		SourceType: maestro.NoteSourceDocument,
		SourceRef:  maestro.SourceRef{DocumentID: "d1", ChunkID: "c1"},
	}

	chat := &scriptedChat{responses: []string{`{"notes": [{"content": "dup finding", "source_index": 0}]}`}}
	a, st := newTestAgent(t, chat)
	_, added, err := st.AddNote(context.Background(), existing)
	require.NoError(t, err)
	require.True(t, added)

	section := &maestro.Section{ID: "sec-1", Title: "Sec", Description: "d"}
	out, err := a.Run(context.Background(), agent.Input{
		Mission:    mission,
		Context:    &maestro.MissionContext{},
		Section:    section,
		Queries:    []string{"q1"},
		CycleIndex: 1,
	})
	require.NoError(t, err)
	assert.Empty(t, out.Notes, "duplicate content should not be returned as newly stored")

	notes, err := st.ListNotes(context.Background(), "m1", store.NoteFilter{SectionID: "sec-1"}, store.Pagination{PageSize: 10})
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, "existing-note", notes[0].NoteID)
}

func TestSearchWeb_FetchesSnippetFallback(t *testing.T) {
	searcher := stubSearcher{results: []websearch.SearchResult{{Title: "T", URL: "https://example.com", Snippet: "snippet text"}}}
	fetcher := stubFetcher{err: assert.AnError}
	a := &Agent{gov: governor.New(10), searcher: searcher, fetcher: fetcher, limits: Limits{WebResults: 4}}

	candidates := a.searchWeb(context.Background(), "q")
	require.Len(t, candidates, 1)
	assert.Equal(t, "snippet text", candidates[0].text)
	assert.True(t, strings.Contains(candidates[0].ref.URL, "example.com"))
}

type stubSearcher struct{ results []websearch.SearchResult }

func (s stubSearcher) Search(context.Context, string, int) ([]websearch.SearchResult, error) {
	return s.results, nil
}

type stubFetcher struct {
	text string
	err  error
}

func (s stubFetcher) Fetch(context.Context, string) (string, error) {
	return s.text, s.err
}
