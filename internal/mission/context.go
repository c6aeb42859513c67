package mission

import "github.com/murtaza-nasir/maestro/internal/maestro"

// sanitizeContext backfills a MissionContext that may have been persisted
// under an older schema version before a stopped mission resumes mutating
// it, so a resume never panics on a nil map carried over from an earlier
// release.
func sanitizeContext(ctx *maestro.MissionContext) {
	if ctx.SectionAssignments == nil {
		ctx.SectionAssignments = map[string][]string{}
	}
	ctx.SchemaVersion = maestro.CurrentSchemaVersion
}
