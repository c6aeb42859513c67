package mission

import (
	"context"
	"math"
	"sort"

	"github.com/murtaza-nasir/maestro/internal/agent/rerank"
	"github.com/murtaza-nasir/maestro/internal/config"
	"github.com/murtaza-nasir/maestro/internal/embedding"
	"github.com/murtaza-nasir/maestro/internal/maestro"
	"github.com/murtaza-nasir/maestro/internal/store"
)

// assignNotesToSection runs the four-step note-assignment algorithm for
// one section: gather the candidate pool (notes unassigned or already
// assigned to this section), cosine-prefilter it down if it's larger than
// the reranking budget, rerank what remains, and enforce the configured
// max bound before committing the final assignment set.
//
// It resets the section's assignment on every call rather than adding
// incrementally, so a later research cycle that uncovers better notes can
// displace weaker ones instead of only ever growing the set.
func assignNotesToSection(ctx context.Context, st store.Store, embedder embedding.Model, reranker rerank.Reranker, missionID string, section *maestro.Section, cfg config.ResearchConfig) ([]*maestro.Note, error) {
	all, err := st.ListNotes(ctx, missionID, store.NoteFilter{}, store.Pagination{})
	if err != nil {
		return nil, maestro.NewError(maestro.ErrPersistence, "list notes for assignment", err)
	}

	var pool []*maestro.Note
	for _, n := range all {
		if n.SectionID == "" || n.SectionID == section.ID {
			pool = append(pool, n)
		}
	}
	if len(pool) == 0 {
		return nil, nil
	}

	if len(pool) > cfg.MaxNotesForAssignmentReranking && embedder != nil {
		pool, err = prefilterByCosine(ctx, embedder, section, pool, cfg.MaxNotesForAssignmentReranking)
		if err != nil {
			return nil, err
		}
	}

	ordered, err := rerankCandidates(ctx, reranker, section, pool)
	if err != nil {
		return nil, err
	}

	// MinNotesPerSectionAssignment is not padded up to: when the candidate
	// pool itself is smaller than the minimum, the assigned set is simply
	// the whole pool (see SPEC_FULL.md §9.2, item 6).
	selected := enforceBounds(ordered, cfg.MaxNotesPerSectionAssignment)

	if err := st.UnassignAllForSection(ctx, missionID, section.ID); err != nil {
		return nil, maestro.NewError(maestro.ErrPersistence, "unassign section notes", err)
	}
	for _, n := range selected {
		if err := st.AssignNote(ctx, n.NoteID, section.ID); err != nil {
			return nil, maestro.NewError(maestro.ErrPersistence, "assign note", err)
		}
	}
	return selected, nil
}

// prefilterByCosine embeds the section's description and every candidate
// note, ranks candidates by cosine similarity against the section vector
// descending, and truncates to limit. Ties keep the original pool order,
// matching the reranker's own tie-break rule.
func prefilterByCosine(ctx context.Context, embedder embedding.Model, section *maestro.Section, pool []*maestro.Note, limit int) ([]*maestro.Note, error) {
	texts := make([]string, 0, len(pool)+1)
	texts = append(texts, section.Title+"\n"+section.Description)
	for _, n := range pool {
		texts = append(texts, n.Content)
	}

	vectors, err := embedder.Embed(ctx, texts, embedding.ModeQuery)
	if err != nil {
		return nil, maestro.NewError(maestro.ErrTransientLLM, "embed assignment candidates", err)
	}
	if len(vectors) != len(texts) {
		return nil, maestro.NewError(maestro.ErrProviderContract, "embedder returned mismatched vector count", nil)
	}

	sectionVec := vectors[0].Dense
	type scored struct {
		note  *maestro.Note
		score float64
		rank  int
	}
	scoredNotes := make([]scored, len(pool))
	for i, n := range pool {
		scoredNotes[i] = scored{note: n, score: cosine(sectionVec, vectors[i+1].Dense), rank: i}
	}
	sort.SliceStable(scoredNotes, func(i, j int) bool {
		return scoredNotes[i].score > scoredNotes[j].score
	})
	if len(scoredNotes) > limit {
		scoredNotes = scoredNotes[:limit]
	}

	out := make([]*maestro.Note, len(scoredNotes))
	for i, s := range scoredNotes {
		out[i] = s.note
	}
	return out, nil
}

func cosine(a, b []float32) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// rerankCandidates orders pool by relevance to the section using reranker.
// A nil reranker (or a pool too small to matter) returns the pool
// unchanged, since this is also reached for missions where no reranking
// backend was configured.
func rerankCandidates(ctx context.Context, reranker rerank.Reranker, section *maestro.Section, pool []*maestro.Note) ([]*maestro.Note, error) {
	if reranker == nil || len(pool) <= 1 {
		return pool, nil
	}

	candidates := make([]rerank.Candidate, len(pool))
	for i, n := range pool {
		candidates[i] = rerank.Candidate{Index: i, Text: n.Content}
	}
	order, err := reranker.Rerank(ctx, section.Title+"\n"+section.Description, candidates)
	if err != nil {
		return nil, maestro.NewError(maestro.ErrTransientLLM, "rerank assignment candidates", err)
	}

	out := make([]*maestro.Note, 0, len(order))
	for _, idx := range order {
		if idx < 0 || idx >= len(pool) {
			continue
		}
		out = append(out, pool[idx])
	}
	return out, nil
}

// enforceBounds truncates ordered to at most max entries.
func enforceBounds(ordered []*maestro.Note, max int) []*maestro.Note {
	if max > 0 && len(ordered) > max {
		return ordered[:max]
	}
	return ordered
}
