package mission

import (
	"github.com/spf13/cast"

	"github.com/murtaza-nasir/maestro/internal/config"
)

// resolveResearchConfig overlays a mission's param_overrides onto the
// process-wide ResearchConfig. Overrides arrive as map[string]any (decoded
// from JSON over the CLI/HTTP surface), so values may land as float64,
// string, or bool depending on the caller; cast.To* absorbs that instead
// of requiring the caller to send exactly-typed JSON.
func resolveResearchConfig(base config.ResearchConfig, overrides map[string]any) config.ResearchConfig {
	cfg := base
	for key, val := range overrides {
		switch key {
		case "initial_research_max_depth":
			cfg.InitialResearchMaxDepth = cast.ToInt(val)
		case "initial_research_max_questions":
			cfg.InitialResearchMaxQuestions = cast.ToInt(val)
		case "structured_research_rounds":
			cfg.StructuredResearchRounds = cast.ToInt(val)
		case "writing_passes":
			cfg.WritingPasses = cast.ToInt(val)
		case "initial_exploration_doc_results":
			cfg.InitialExplorationDocResults = cast.ToInt(val)
		case "initial_exploration_web_results":
			cfg.InitialExplorationWebResults = cast.ToInt(val)
		case "main_research_doc_results":
			cfg.MainResearchDocResults = cast.ToInt(val)
		case "main_research_web_results":
			cfg.MainResearchWebResults = cast.ToInt(val)
		case "max_research_cycles_per_section":
			cfg.MaxResearchCyclesPerSection = cast.ToInt(val)
		case "max_total_iterations":
			cfg.MaxTotalIterations = cast.ToInt(val)
		case "max_total_depth":
			cfg.MaxTotalDepth = cast.ToInt(val)
		case "max_decomposed_queries":
			cfg.MaxDecomposedQueries = cast.ToInt(val)
		case "max_notes_for_assignment_reranking":
			cfg.MaxNotesForAssignmentReranking = cast.ToInt(val)
		case "min_notes_per_section_assignment":
			cfg.MinNotesPerSectionAssignment = cast.ToInt(val)
		case "max_notes_per_section_assignment":
			cfg.MaxNotesPerSectionAssignment = cast.ToInt(val)
		case "thought_pad_context_limit":
			cfg.ThoughtPadContextLimit = cast.ToInt(val)
		case "max_concurrent_requests":
			cfg.MaxConcurrentRequests = cast.ToInt(val)
		case "skip_final_replanning":
			cfg.SkipFinalReplanning = cast.ToBool(val)
		case "auto_optimize_params":
			cfg.AutoOptimizeParams = cast.ToBool(val)
		case "graceful_shutdown_seconds":
			cfg.GracefulShutdownSeconds = cast.ToInt(val)
		}
	}
	return cfg
}

// resolveWritingConfig overlays a mission's param_overrides onto the
// process-wide WritingConfig, mirroring resolveResearchConfig.
func resolveWritingConfig(base config.WritingConfig, overrides map[string]any) config.WritingConfig {
	cfg := base
	for key, val := range overrides {
		switch key {
		case "writing_previous_content_preview_chars":
			cfg.WritingPreviousContentPreviewChars = cast.ToInt(val)
		case "writing_agent_max_context_chars":
			cfg.WritingAgentMaxContextChars = cast.ToInt(val)
		case "research_note_content_limit":
			cfg.ResearchNoteContentLimit = cast.ToInt(val)
		case "max_planning_context_chars":
			cfg.MaxPlanningContextChars = cast.ToInt(val)
		}
	}
	return cfg
}
