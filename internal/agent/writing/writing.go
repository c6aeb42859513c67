// Package writing implements the Writing Agent (§4.1 phase 4): drafts a
// section from its assigned notes and a bounded preview of the
// previously-written sections, then revises section-by-section against the
// Reflection Agent's critique on subsequent passes.
package writing

import (
	"context"
	"fmt"
	"strings"

	"github.com/murtaza-nasir/maestro/internal/agent"
	"github.com/murtaza-nasir/maestro/internal/governor"
	"github.com/murtaza-nasir/maestro/internal/llm"
)

type Limits struct {
	PreviousContentPreviewChars int
	MaxContextChars             int
}

type Agent struct {
	chat   llm.Chat
	gov    *governor.Governor
	limits Limits
}

func New(chat llm.Chat, gov *governor.Governor, limits Limits) *Agent {
	if limits.PreviousContentPreviewChars <= 0 {
		limits.PreviousContentPreviewChars = 2000
	}
	if limits.MaxContextChars <= 0 {
		limits.MaxContextChars = 12000
	}
	return &Agent{chat: chat, gov: gov, limits: limits}
}

var _ agent.Agent = (*Agent)(nil)

func (a *Agent) Name() string { return "writing" }

func (a *Agent) EstimatedCost(agent.Input) float64 { return 0.03 }

func (a *Agent) Run(ctx context.Context, in agent.Input) (agent.Output, error) {
	messages := a.buildMessages(in)

	var completion llm.Completion
	err := a.gov.Call(ctx, 1, func(ctx context.Context) error {
		c, err := a.chat.Chat(ctx, messages, llm.TierIntelligent, nil)
		completion = c
		return err
	})
	if err != nil {
		return agent.Output{}, err
	}

	sectionID := ""
	if in.Section != nil {
		sectionID = in.Section.ID
	}

	return agent.Output{Kind: agent.OutputDraft, Draft: &agent.DraftResult{
		SectionID: sectionID,
		ContentMD: completion.Content,
	}}, nil
}

func (a *Agent) buildMessages(in agent.Input) []llm.Message {
	var sb strings.Builder

	if in.Section != nil {
		fmt.Fprintf(&sb, "Section: %s\n%s\n\n", in.Section.Title, in.Section.Description)
	}

	if len(in.Notes) > 0 {
		sb.WriteString("Cited notes (cite by note_id or source_ref inline):\n")
		for _, n := range in.Notes {
			fmt.Fprintf(&sb, "- [%s] %s\n", n.NoteID, n.Content)
		}
		sb.WriteString("\n")
	}

	if in.PreviousDraft != "" {
		preview := in.PreviousDraft
		if len(preview) > a.limits.PreviousContentPreviewChars {
			preview = preview[len(preview)-a.limits.PreviousContentPreviewChars:]
		}
		fmt.Fprintf(&sb, "Preceding report content for continuity:\n%s\n\n", preview)
	}

	if in.Critique != "" {
		fmt.Fprintf(&sb, "Incorporate this critique:\n%s\n\n", in.Critique)
	}

	if len(in.Context.GoalPad) > 0 {
		sb.WriteString("Constraints:\n")
		for _, g := range in.Context.GoalPad {
			fmt.Fprintf(&sb, "- %s\n", g.Text)
		}
	}

	content := sb.String()
	if len(content) > a.limits.MaxContextChars {
		content = content[:a.limits.MaxContextChars]
	}

	return []llm.Message{
		{Role: llm.RoleSystem, Content: "You draft one section of a research report in markdown. Cite notes inline using their bracketed note_id. Write only the section body, no surrounding commentary."},
		{Role: llm.RoleUser, Content: content},
	}
}
