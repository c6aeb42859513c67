// Package reflection implements the Reflection Agent (§4.1 phases 3-4): it
// evaluates coverage of a section's assigned notes against the section's
// description and the mission's goal_pad, and during the writing phase
// critiques the current draft for the Writing Agent's next revision pass.
package reflection

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/murtaza-nasir/maestro/internal/agent"
	"github.com/murtaza-nasir/maestro/internal/governor"
	"github.com/murtaza-nasir/maestro/internal/llm"
	"github.com/murtaza-nasir/maestro/internal/maestro"
)

type Agent struct {
	chat llm.Chat
	gov  *governor.Governor
}

func New(chat llm.Chat, gov *governor.Governor) *Agent {
	return &Agent{chat: chat, gov: gov}
}

var _ agent.Agent = (*Agent)(nil)

func (a *Agent) Name() string { return "reflection" }

func (a *Agent) EstimatedCost(agent.Input) float64 { return 0.015 }

const critiqueSchema = `{"type":"object","properties":{
	"gaps":{"type":"array","items":{"type":"string"}},
	"has_gaps":{"type":"boolean"},
	"assessment":{"type":"string"}
}}`

type rawCritique struct {
	Gaps       []string `json:"gaps"`
	HasGaps    bool     `json:"has_gaps"`
	Assessment string   `json:"assessment"`
}

func (a *Agent) Run(ctx context.Context, in agent.Input) (agent.Output, error) {
	messages := a.buildMessages(in)

	var completion llm.Completion
	err := a.gov.Call(ctx, 1, func(ctx context.Context) error {
		c, err := a.chat.Chat(ctx, messages, llm.TierVerifier, []byte(critiqueSchema))
		completion = c
		return err
	})
	if err != nil {
		return agent.Output{}, err
	}

	var raw rawCritique
	if err := json.Unmarshal([]byte(completion.Content), &raw); err != nil {
		return agent.Output{}, maestro.NewError(maestro.ErrProviderContract, "reflection agent: unparseable critique", err)
	}

	return agent.Output{Kind: agent.OutputCritique, Critique: &agent.CritiqueResult{
		Gaps:       raw.Gaps,
		HasGaps:    raw.HasGaps,
		Assessment: raw.Assessment,
	}}, nil
}

func (a *Agent) buildMessages(in agent.Input) []llm.Message {
	var sb strings.Builder

	if in.DraftMD != "" {
		sb.WriteString("Critique this draft for gaps, unsupported claims, and coherence:\n\n")
		sb.WriteString(in.DraftMD)
	} else if in.Section != nil {
		fmt.Fprintf(&sb, "Section: %s\n%s\n\nAssigned notes:\n", in.Section.Title, in.Section.Description)
		for _, n := range in.Notes {
			fmt.Fprintf(&sb, "- %s\n", n.Content)
		}
		sb.WriteString("\nIdentify coverage gaps against the section description.")
	}

	if len(in.Context.GoalPad) > 0 {
		sb.WriteString("\n\nConstraints to satisfy:\n")
		for _, g := range in.Context.GoalPad {
			fmt.Fprintf(&sb, "- %s\n", g.Text)
		}
	}

	return []llm.Message{
		{Role: llm.RoleSystem, Content: "You are a skeptical research reviewer. Report gaps as JSON; set has_gaps=false only when coverage is genuinely sufficient."},
		{Role: llm.RoleUser, Content: sb.String()},
	}
}
