// Package planning implements the Planning Agent (§4.1 phase 1): given the
// mission request and goal_pad, it produces a question tree bounded by
// initial_research_max_depth/initial_research_max_questions and a
// hierarchical outline bounded by max_total_depth, and on replanning calls
// decides whether to accept the LLM's proposed revision or keep the prior
// plan per the tie-break rule.
package planning

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/murtaza-nasir/maestro/internal/agent"
	"github.com/murtaza-nasir/maestro/internal/governor"
	"github.com/murtaza-nasir/maestro/internal/llm"
	"github.com/murtaza-nasir/maestro/internal/maestro"
)

type Limits struct {
	MaxQuestionDepth int
	MaxQuestions     int
	MaxOutlineDepth  int
}

type Agent struct {
	chat    llm.Chat
	gov     *governor.Governor
	limits  Limits
}

func New(chat llm.Chat, gov *governor.Governor, limits Limits) *Agent {
	if limits.MaxQuestionDepth <= 0 {
		limits.MaxQuestionDepth = 2
	}
	if limits.MaxQuestions <= 0 {
		limits.MaxQuestions = 12
	}
	if limits.MaxOutlineDepth <= 0 {
		limits.MaxOutlineDepth = 3
	}
	return &Agent{chat: chat, gov: gov, limits: limits}
}

var _ agent.Agent = (*Agent)(nil)

func (a *Agent) Name() string { return "planning" }

func (a *Agent) EstimatedCost(agent.Input) float64 { return 0.02 }

const planSchema = `{
	"type": "object",
	"properties": {
		"question_tree": {"type": "array", "items": {"$ref": "#/$defs/question"}},
		"outline": {"type": "array", "items": {"$ref": "#/$defs/section"}},
		"revision_notes": {"type": "string"}
	},
	"$defs": {
		"question": {
			"type": "object",
			"properties": {
				"question": {"type": "string"},
				"children": {"type": "array", "items": {"$ref": "#/$defs/question"}}
			}
		},
		"section": {
			"type": "object",
			"properties": {
				"title": {"type": "string"},
				"description": {"type": "string"},
				"research_strategy": {"type": "string"},
				"subsections": {"type": "array", "items": {"$ref": "#/$defs/section"}}
			}
		}
	}
}`

type rawQuestion struct {
	Question string        `json:"question"`
	Children []rawQuestion `json:"children,omitempty"`
}

type rawSection struct {
	Title            string       `json:"title"`
	Description      string       `json:"description"`
	ResearchStrategy string       `json:"research_strategy"`
	Subsections      []rawSection `json:"subsections,omitempty"`
}

type rawPlan struct {
	QuestionTree  []rawQuestion `json:"question_tree"`
	Outline       []rawSection  `json:"outline"`
	RevisionNotes string        `json:"revision_notes"`
}

func (a *Agent) Run(ctx context.Context, in agent.Input) (agent.Output, error) {
	isReplan := len(in.Context.Plan) > 0

	var completion llm.Completion
	err := a.gov.Call(ctx, 1, func(ctx context.Context) error {
		c, err := a.chat.Chat(ctx, a.buildMessages(in, isReplan), llm.TierIntelligent, []byte(planSchema))
		completion = c
		return err
	})
	if err != nil {
		return agent.Output{}, err
	}

	var raw rawPlan
	if err := json.Unmarshal([]byte(completion.Content), &raw); err != nil {
		return agent.Output{}, maestro.NewError(maestro.ErrProviderContract, "planning agent: unparseable plan", err)
	}

	tree := boundQuestions(toQuestionNodes(raw.QuestionTree), a.limits.MaxQuestionDepth, a.limits.MaxQuestions)
	outline := boundOutline(toSections(raw.Outline), a.limits.MaxOutlineDepth)

	result := &agent.PlanResult{
		QuestionTree:  tree,
		Outline:       outline,
		RevisionNotes: raw.RevisionNotes,
	}

	if isReplan {
		result.SectionsChanged = outlineChanged(in.Context.Plan, outline)
		if strings.TrimSpace(raw.RevisionNotes) == "" || !result.SectionsChanged {
			// §4.1's tie-break: an LLM-suggested revision is accepted only
			// when it carries non-empty revision_notes AND changes at
			// least one child section; otherwise keep the prior plan.
			result.Outline = in.Context.Plan
		}
	}

	return agent.Output{Kind: agent.OutputPlan, Plan: result}, nil
}

func (a *Agent) buildMessages(in agent.Input, isReplan bool) []llm.Message {
	var sb strings.Builder
	sb.WriteString("Research request: ")
	sb.WriteString(in.Mission.RequestText)
	if len(in.Context.GoalPad) > 0 {
		sb.WriteString("\n\nConstraints:\n")
		for _, g := range in.Context.GoalPad {
			fmt.Fprintf(&sb, "- %s\n", g.Text)
		}
	}
	if isReplan {
		sb.WriteString("\n\nThis is a replanning pass. Current outline:\n")
		for _, s := range in.Context.Plan {
			fmt.Fprintf(&sb, "- %s: %s\n", s.Title, s.Description)
		}
		sb.WriteString("\nRevise only if coverage genuinely improves; if you revise, set revision_notes explaining why and change at least one subsection.")
	}
	return []llm.Message{
		{Role: llm.RoleSystem, Content: "You are the planning stage of a research pipeline. Produce a question tree for initial exploration and a hierarchical report outline as JSON."},
		{Role: llm.RoleUser, Content: sb.String()},
	}
}

func toQuestionNodes(raw []rawQuestion) []maestro.QuestionNode {
	out := make([]maestro.QuestionNode, 0, len(raw))
	for _, r := range raw {
		out = append(out, maestro.QuestionNode{
			ID:       uuid.NewString(),
			Question: r.Question,
			Children: toQuestionNodes(r.Children),
		})
	}
	return out
}

func toSections(raw []rawSection) []maestro.Section {
	out := make([]maestro.Section, 0, len(raw))
	for _, r := range raw {
		out = append(out, maestro.Section{
			ID:               uuid.NewString(),
			Title:            r.Title,
			Description:      r.Description,
			ResearchStrategy: r.ResearchStrategy,
			Subsections:      toSections(r.Subsections),
		})
	}
	return out
}

// boundQuestions enforces initial_research_max_depth and
// initial_research_max_questions, keeping nodes in depth-first pre-order
// until the total node budget is exhausted.
func boundQuestions(nodes []maestro.QuestionNode, maxDepth, maxTotal int) []maestro.QuestionNode {
	remaining := maxTotal
	var prune func([]maestro.QuestionNode, int) []maestro.QuestionNode
	prune = func(ns []maestro.QuestionNode, depth int) []maestro.QuestionNode {
		out := make([]maestro.QuestionNode, 0, len(ns))
		for _, n := range ns {
			if remaining <= 0 {
				break
			}
			remaining--
			if depth >= maxDepth {
				n.Children = nil
			} else {
				n.Children = prune(n.Children, depth+1)
			}
			out = append(out, n)
		}
		return out
	}
	return prune(nodes, 1)
}

func boundOutline(sections []maestro.Section, maxDepth int) []maestro.Section {
	var prune func([]maestro.Section, int) []maestro.Section
	prune = func(ss []maestro.Section, depth int) []maestro.Section {
		out := make([]maestro.Section, 0, len(ss))
		for _, s := range ss {
			if depth >= maxDepth {
				s.Subsections = nil
			} else {
				s.Subsections = prune(s.Subsections, depth+1)
			}
			out = append(out, s)
		}
		return out
	}
	return prune(sections, 1)
}

func outlineChanged(prior, next []maestro.Section) bool {
	if len(prior) != len(next) {
		return true
	}
	for i := range prior {
		if prior[i].Title != next[i].Title || prior[i].Description != next[i].Description {
			return true
		}
		if outlineChanged(prior[i].Subsections, next[i].Subsections) {
			return true
		}
	}
	return false
}
