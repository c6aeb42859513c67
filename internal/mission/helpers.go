package mission

import (
	"strings"

	"github.com/murtaza-nasir/maestro/internal/maestro"
)

// leavesBFS returns every leaf QuestionNode of tree, visited breadth-first
// across levels, per §4.1's "initial exploration walks the question tree
// breadth-first and retrieves for every leaf".
func leavesBFS(tree []maestro.QuestionNode) []maestro.QuestionNode {
	var out []maestro.QuestionNode
	queue := append([]maestro.QuestionNode{}, tree...)
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		if len(n.Children) == 0 {
			out = append(out, n)
			continue
		}
		queue = append(queue, n.Children...)
	}
	return out
}

// flattenSectionsPreOrder walks a hierarchical outline depth-first,
// parent before children, the order structured research and writing both
// process sections in.
func flattenSectionsPreOrder(sections []maestro.Section) []maestro.Section {
	var out []maestro.Section
	var walk func([]maestro.Section)
	walk = func(nodes []maestro.Section) {
		for _, n := range nodes {
			out = append(out, n)
			walk(n.Subsections)
		}
	}
	walk(sections)
	return out
}

// appendBounded appends t to pad, dropping the oldest entries once pad
// exceeds limit, implementing the thought_pad's bounded FIFO.
func appendBounded(pad []maestro.Thought, t maestro.Thought, limit int) []maestro.Thought {
	pad = append(pad, t)
	if limit > 0 && len(pad) > limit {
		pad = pad[len(pad)-limit:]
	}
	return pad
}

// truncateChars keeps the last n runes of s, used to bound how much of the
// preceding sections' drafts is fed forward as writing context.
func truncateChars(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[len(r)-n:])
}

// joinDrafts concatenates each section's current draft content in outline
// order, skipping sections that haven't been drafted yet (e.g. a section
// whose writer call failed and was logged rather than retried).
func joinDrafts(drafts map[string]string, order []maestro.Section) string {
	var b strings.Builder
	for _, s := range order {
		content, ok := drafts[s.ID]
		if !ok {
			continue
		}
		b.WriteString("## ")
		b.WriteString(s.Title)
		b.WriteString("\n\n")
		b.WriteString(content)
		b.WriteString("\n\n")
	}
	return b.String()
}
