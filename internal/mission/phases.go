package mission

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/murtaza-nasir/maestro/internal/agent"
	"github.com/murtaza-nasir/maestro/internal/agent/planning"
	"github.com/murtaza-nasir/maestro/internal/agent/reflection"
	"github.com/murtaza-nasir/maestro/internal/agent/research"
	"github.com/murtaza-nasir/maestro/internal/agent/writing"
	"github.com/murtaza-nasir/maestro/internal/config"
	"github.com/murtaza-nasir/maestro/internal/events"
	"github.com/murtaza-nasir/maestro/internal/maestro"
	"github.com/murtaza-nasir/maestro/internal/rag/retriever"
	"github.com/murtaza-nasir/maestro/internal/store"
)

// runMission is the per-mission dispatch loop, grounded on the teacher's
// core/scheduler.Scheduler dispatch loop (acquire work, check whether the
// run has been cancelled, do the work, persist, repeat) generalized from
// one work unit per iteration to one pipeline phase per iteration. It
// re-reads the mission's persisted status on every iteration so a status
// change made by another call (Stop cancelling runCtx, a concurrent
// inspection) is always observed before the next phase starts.
func (c *Controller) runMission(ctx context.Context, missionID string) {
	for {
		if err := ctx.Err(); err != nil {
			c.transitionStopped(missionID)
			return
		}

		m, err := c.store.GetMission(ctx, missionID)
		if err != nil {
			return
		}
		cfg := resolveResearchConfig(c.baseResearch, m.Options.ParamOverrides)
		wcfg := resolveWritingConfig(c.baseWriting, m.Options.ParamOverrides)

		var phaseErr error
		switch m.Status {
		case maestro.MissionPlanning:
			phaseErr = c.runPlanning(ctx, m, cfg)
		case maestro.MissionRunning:
			switch m.Phase {
			case maestro.PhaseInitialExploration:
				phaseErr = c.runInitialExploration(ctx, m, cfg)
			case maestro.PhaseStructuredResearch:
				phaseErr = c.runStructuredResearch(ctx, m, cfg)
			case maestro.PhaseWriting:
				phaseErr = c.runWriting(ctx, m, cfg, wcfg)
			default:
				return
			}
		default:
			// Pending (shouldn't be driven yet), paused, stopped, completed,
			// or failed: nothing left for this loop to do.
			return
		}

		if phaseErr != nil {
			if maestro.Is(phaseErr, maestro.ErrCancelled) {
				c.transitionStopped(missionID)
			} else {
				c.transitionFailed(missionID, phaseErr)
			}
			return
		}
	}
}

func (c *Controller) transitionStopped(missionID string) {
	m, err := c.store.GetMission(context.Background(), missionID)
	if err != nil {
		return
	}
	if m.Status == maestro.MissionCompleted || m.Status == maestro.MissionFailed {
		return
	}
	m.Status = maestro.MissionStopped
	m.UpdatedAt = timeNow()
	if err := c.store.UpdateMission(context.Background(), m); err != nil {
		return
	}
	c.publish(missionID, events.TypeMissionStatus, m.Status)
}

func (c *Controller) transitionFailed(missionID string, cause error) {
	m, err := c.store.GetMission(context.Background(), missionID)
	if err != nil {
		return
	}
	m.Status = maestro.MissionFailed
	m.UpdatedAt = timeNow()
	_ = c.store.UpdateMission(context.Background(), m)
	c.logAction(context.Background(), missionID, "controller", "mission failed", maestro.LogFailure, cause.Error(), "")
	c.publish(missionID, events.TypeMissionStatus, m.Status)
	c.closeHub(missionID)
}

// runPlanning runs Phase 1: produce the initial question tree and outline,
// then advance the mission into running/initial_exploration.
func (c *Controller) runPlanning(ctx context.Context, m *maestro.Mission, cfg config.ResearchConfig) error {
	planner := planning.New(c.chat, c.gov, planning.Limits{
		MaxQuestionDepth: cfg.InitialResearchMaxDepth,
		MaxQuestions:     cfg.InitialResearchMaxQuestions,
		MaxOutlineDepth:  cfg.MaxTotalDepth,
	})

	out, err := planner.Run(ctx, agent.Input{Mission: m, Context: &m.Context})
	if err != nil {
		if maestro.Is(err, maestro.ErrCancelled) {
			return err
		}
		return maestro.NewError(maestro.ErrTransientLLM, "planning phase", err)
	}

	m.Context.QuestionTree = out.Plan.QuestionTree
	m.Context.Plan = out.Plan.Outline
	m.Status = maestro.MissionRunning
	m.Phase = maestro.PhaseInitialExploration
	m.UpdatedAt = timeNow()
	if err := c.store.UpdateMission(ctx, m); err != nil {
		return maestro.NewError(maestro.ErrPersistence, "persist plan", err)
	}

	c.publish(m.ID, events.TypePlanUpdate, out.Plan)
	c.publish(m.ID, events.TypeMissionStatus, m.Status)
	c.publish(m.ID, events.TypePhaseTransition, m.Phase)
	c.logAction(ctx, m.ID, "planning", "produce question tree and outline", maestro.LogSuccess, "", "")
	return nil
}

// runInitialExploration runs Phase 2: for every leaf of the question
// tree, visited breadth-first, retrieve and synthesize notes. A mission
// whose configured sources never produce a single note fails outright
// rather than silently entering structured research with nothing to
// assign, since every later phase assumes at least one candidate note
// exists.
func (c *Controller) runInitialExploration(ctx context.Context, m *maestro.Mission, cfg config.ResearchConfig) error {
	explorer := research.New(c.chat, c.gov, retriever.New(c.store, c.embedder), c.searcher, c.fetcher, c.store, research.Limits{
		DocResults: cfg.InitialExplorationDocResults,
		WebResults: cfg.InitialExplorationWebResults,
	})

	produced := 0
	for _, leaf := range leavesBFS(m.Context.QuestionTree) {
		if err := ctx.Err(); err != nil {
			return maestro.NewError(maestro.ErrCancelled, "initial exploration", err)
		}

		out, err := explorer.Run(ctx, agent.Input{
			Mission: m, Context: &m.Context, Queries: []string{leaf.Question},
		})
		if err != nil {
			if maestro.Is(err, maestro.ErrCancelled) {
				return err
			}
			c.logAction(ctx, m.ID, "research", "initial exploration: "+leaf.Question, maestro.LogWarning, err.Error(), "")
			continue
		}
		produced += len(out.Notes)
		for _, n := range out.Notes {
			c.publish(m.ID, events.TypeNoteAdded, n)
		}
	}

	if produced == 0 {
		c.logAction(ctx, m.ID, "research", "initial exploration", maestro.LogFailure, "no sources available", "")
		m.Status = maestro.MissionFailed
		m.UpdatedAt = timeNow()
		if err := c.store.UpdateMission(ctx, m); err != nil {
			return maestro.NewError(maestro.ErrPersistence, "persist no-sources failure", err)
		}
		c.publish(m.ID, events.TypeMissionStatus, m.Status)
		c.closeHub(m.ID)
		return nil
	}

	m.Phase = maestro.PhaseStructuredResearch
	m.UpdatedAt = timeNow()
	if err := c.store.UpdateMission(ctx, m); err != nil {
		return maestro.NewError(maestro.ErrPersistence, "persist phase transition", err)
	}
	c.publish(m.ID, events.TypePhaseTransition, m.Phase)
	return nil
}

// runStructuredResearch runs Phase 3 for structured_research_rounds rounds: walk the outline
// depth-first, running research→assign→reflect cycles per section until
// the Reflection Agent reports no gaps or the per-section cycle ceiling is
// reached, then a global reflection pass decides whether to replan before
// the next round.
func (c *Controller) runStructuredResearch(ctx context.Context, m *maestro.Mission, cfg config.ResearchConfig) error {
	sectionAgent := research.New(c.chat, c.gov, retriever.New(c.store, c.embedder), c.searcher, c.fetcher, c.store, research.Limits{
		DocResults:         cfg.MainResearchDocResults,
		WebResults:         cfg.MainResearchWebResults,
		MaxDecomposed:      cfg.MaxDecomposedQueries,
		MaxNotesPerSection: cfg.MaxNotesPerSectionAssignment,
	})
	reflector := reflection.New(c.chat, c.gov)
	iterations := 0

	for round := 0; round < cfg.StructuredResearchRounds; round++ {
		for _, section := range flattenSectionsPreOrder(m.Context.Plan) {
			if err := ctx.Err(); err != nil {
				return maestro.NewError(maestro.ErrCancelled, "structured research", err)
			}

			section := section
			sealed := false
			for cycle := 0; cycle < cfg.MaxResearchCyclesPerSection && !sealed; cycle++ {
				if err := ctx.Err(); err != nil {
					return maestro.NewError(maestro.ErrCancelled, "structured research cycle", err)
				}

				iterations++
				if cfg.MaxTotalIterations > 0 && iterations > cfg.MaxTotalIterations {
					return c.advanceToWriting(ctx, m)
				}

				out, err := sectionAgent.Run(ctx, agent.Input{
					Mission: m, Context: &m.Context, Section: &section, CycleIndex: cycle,
				})
				if err != nil {
					if maestro.Is(err, maestro.ErrCancelled) {
						return err
					}
					c.logAction(ctx, m.ID, "research", "section cycle: "+section.Title, maestro.LogWarning, err.Error(), "")
				} else {
					for _, n := range out.Notes {
						c.publish(m.ID, events.TypeNoteAdded, n)
					}
				}

				if _, err := assignNotesToSection(ctx, c.store, c.embedder, c.reranker, m.ID, &section, cfg); err != nil {
					if maestro.Is(err, maestro.ErrCancelled) {
						return err
					}
					c.logAction(ctx, m.ID, "assignment", "assign notes: "+section.Title, maestro.LogWarning, err.Error(), "")
				}

				notes, err := c.store.ListNotes(ctx, m.ID, store.NoteFilter{SectionID: section.ID}, store.Pagination{})
				if err != nil {
					return maestro.NewError(maestro.ErrPersistence, "list section notes", err)
				}

				critiqueOut, err := reflector.Run(ctx, agent.Input{Mission: m, Context: &m.Context, Section: &section, Notes: notes})
				if err != nil {
					if maestro.Is(err, maestro.ErrCancelled) {
						return err
					}
					// A flaky reviewer shouldn't loop a section forever; seal
					// it and move on.
					sealed = true
					continue
				}
				if !critiqueOut.Critique.HasGaps {
					sealed = true
				}
			}
		}

		if err := c.globalReflectionPass(ctx, m, cfg, reflector); err != nil {
			if maestro.Is(err, maestro.ErrCancelled) {
				return err
			}
			c.logAction(ctx, m.ID, "reflection", "global reflection pass", maestro.LogWarning, err.Error(), "")
		}

		m.UpdatedAt = timeNow()
		if err := c.store.UpdateMission(ctx, m); err != nil {
			return maestro.NewError(maestro.ErrPersistence, "persist structured research round", err)
		}
	}

	return c.advanceToWriting(ctx, m)
}

func (c *Controller) advanceToWriting(ctx context.Context, m *maestro.Mission) error {
	m.Phase = maestro.PhaseWriting
	m.UpdatedAt = timeNow()
	if err := c.store.UpdateMission(ctx, m); err != nil {
		return maestro.NewError(maestro.ErrPersistence, "persist phase transition", err)
	}
	c.publish(m.ID, events.TypePhaseTransition, m.Phase)
	return nil
}

// globalReflectionPass runs the Reflection Agent over the whole mission
// context (Section nil signals a mission-wide critique), records any gaps
// to the thought pad, and, unless skip_final_replanning is set, re-runs
// the Planning Agent so the outline can absorb what the round surfaced.
func (c *Controller) globalReflectionPass(ctx context.Context, m *maestro.Mission, cfg config.ResearchConfig, reflector agent.Agent) error {
	out, err := reflector.Run(ctx, agent.Input{Mission: m, Context: &m.Context})
	if err != nil {
		return err
	}
	if out.Critique == nil {
		return nil
	}
	for _, gap := range out.Critique.Gaps {
		m.Context.ThoughtPad = appendBounded(m.Context.ThoughtPad, maestro.Thought{
			ThoughtID: uuid.NewString(),
			AgentName: "reflection",
			Content:   gap,
		}, cfg.ThoughtPadContextLimit)
	}
	if !out.Critique.HasGaps || cfg.SkipFinalReplanning {
		return nil
	}

	planner := planning.New(c.chat, c.gov, planning.Limits{
		MaxQuestionDepth: cfg.InitialResearchMaxDepth,
		MaxQuestions:     cfg.InitialResearchMaxQuestions,
		MaxOutlineDepth:  cfg.MaxTotalDepth,
	})
	planOut, err := planner.Run(ctx, agent.Input{Mission: m, Context: &m.Context})
	if err != nil {
		return err
	}
	if planOut.Plan != nil && planOut.Plan.SectionsChanged {
		m.Context.Plan = planOut.Plan.Outline
	}
	return nil
}

// runWriting runs Phase 4: writing_passes drafting passes over the
// outline, each section drawing on its assigned notes and (from the
// second pass on) a reflection critique of the previous pass's draft,
// then persists a new ReportVersion per pass and marks the mission
// complete once the final pass lands.
func (c *Controller) runWriting(ctx context.Context, m *maestro.Mission, cfg config.ResearchConfig, wcfg config.WritingConfig) error {
	writer := writing.New(c.chat, c.gov, writing.Limits{
		PreviousContentPreviewChars: wcfg.WritingPreviousContentPreviewChars,
		MaxContextChars:             wcfg.WritingAgentMaxContextChars,
	})
	reflector := reflection.New(c.chat, c.gov)
	sections := flattenSectionsPreOrder(m.Context.Plan)
	drafts := map[string]string{}

	passes := cfg.WritingPasses
	if passes <= 0 {
		passes = 1
	}

	for pass := 0; pass < passes; pass++ {
		if err := ctx.Err(); err != nil {
			return maestro.NewError(maestro.ErrCancelled, "writing pass", err)
		}

		critiques := map[string]string{}
		if pass > 0 {
			for _, section := range sections {
				out, err := reflector.Run(ctx, agent.Input{Mission: m, Context: &m.Context, DraftMD: drafts[section.ID]})
				if err != nil {
					if maestro.Is(err, maestro.ErrCancelled) {
						return err
					}
					continue
				}
				if out.Critique != nil {
					critiques[section.ID] = out.Critique.Assessment
				}
			}
		}

		var previous strings.Builder
		for _, section := range sections {
			if err := ctx.Err(); err != nil {
				return maestro.NewError(maestro.ErrCancelled, "writing section", err)
			}

			notes, err := c.store.ListNotes(ctx, m.ID, store.NoteFilter{SectionID: section.ID}, store.Pagination{})
			if err != nil {
				return maestro.NewError(maestro.ErrPersistence, "list notes for writing", err)
			}

			section := section
			out, err := writer.Run(ctx, agent.Input{
				Mission:       m,
				Context:       &m.Context,
				Section:       &section,
				Notes:         notes,
				PreviousDraft: truncateChars(previous.String(), wcfg.WritingPreviousContentPreviewChars),
				Critique:      critiques[section.ID],
			})
			if err != nil {
				if maestro.Is(err, maestro.ErrCancelled) {
					return err
				}
				c.logAction(ctx, m.ID, "writing", "draft section: "+section.Title, maestro.LogWarning, err.Error(), "")
				continue
			}

			drafts[section.ID] = out.Draft.ContentMD
			previous.WriteString(out.Draft.ContentMD)
			previous.WriteString("\n\n")
			c.publish(m.ID, events.TypeDraftUpdate, out.Draft)
		}

		full := joinDrafts(drafts, sections)
		now := timeNow()
		version := &maestro.ReportVersion{MissionID: m.ID, Version: pass + 1, ContentMD: full, IsCurrent: true, CreatedAt: now}
		if err := c.store.AddReportVersion(ctx, version); err != nil {
			return maestro.NewError(maestro.ErrPersistence, "persist report version", err)
		}
		m.Context.DraftVersions = append(m.Context.DraftVersions, maestro.DraftVersion{
			Version: version.Version, ContentMD: full, CreatedAt: now,
		})
	}

	m.Status = maestro.MissionCompleted
	m.UpdatedAt = timeNow()
	if err := c.store.UpdateMission(ctx, m); err != nil {
		return maestro.NewError(maestro.ErrPersistence, "persist mission completion", err)
	}
	c.publish(m.ID, events.TypeMissionStatus, m.Status)
	c.closeHub(m.ID)
	return nil
}
