// Package agent defines the capability interface the mission controller
// composes concrete agents against (§9 "Agent polymorphism"): a name, a
// Run that takes a context (doubling as the cancel token) and an Input,
// and a cost estimate the controller can budget against before calling
// Run. Concrete agents live in the planning, research, reflection, and
// writing subpackages; none of them is known to the controller by type.
//
// Grounded on the teacher's ai/agent/workflow.Node (Name() string plus
// flow.Node[State, State]'s Run(ctx, State) (State, error)): the same
// shape, generalized from one node in a fixed workflow graph into an open
// registry the controller dispatches against by interface alone.
package agent

import (
	"context"

	"github.com/murtaza-nasir/maestro/internal/maestro"
)

// Input is the state a phase hands its agent. Every agent reads only the
// fields it needs; the shared struct lets the controller hand the same
// value shape to any registered agent without a type switch.
type Input struct {
	Mission      *maestro.Mission
	Context      *maestro.MissionContext
	Section      *maestro.Section
	Notes        []*maestro.Note
	Queries      []string
	DraftMD      string
	PreviousDraft string
	Critique     string
	CycleIndex   int
}

// OutputKind discriminates the populated field of Output.
type OutputKind string

const (
	OutputPlan      OutputKind = "plan"
	OutputNotes     OutputKind = "notes"
	OutputCritique  OutputKind = "critique"
	OutputDraft     OutputKind = "draft"
)

// PlanResult is the Planning Agent's output: a question tree for initial
// exploration and a hierarchical outline, plus the tie-break bookkeeping
// §4.1's revision rule needs (RevisionNotes non-empty and at least one
// child section changed before a revision is preferred over the prior
// plan).
type PlanResult struct {
	QuestionTree  []maestro.QuestionNode
	Outline       []maestro.Section
	RevisionNotes string
	SectionsChanged bool
}

// CritiqueResult is the Reflection Agent's output.
type CritiqueResult struct {
	Gaps       []string
	HasGaps    bool
	Assessment string
}

// DraftResult is the Writing Agent's output for one section pass.
type DraftResult struct {
	SectionID     string
	ContentMD     string
	RevisionNotes string
}

// Output is the tagged union every agent returns. Only the field named by
// Kind is populated.
type Output struct {
	Kind     OutputKind
	Plan     *PlanResult
	Notes    []*maestro.Note
	Critique *CritiqueResult
	Draft    *DraftResult
}

// Agent is the capability the mission controller composes against. It
// never inspects a concrete agent's type.
type Agent interface {
	Name() string
	Run(ctx context.Context, in Input) (Output, error)
	// EstimatedCost is a rough pre-call budget estimate (in the same
	// decimal cost unit as governor.CostMeter). The mission controller
	// does not consult it before calling Run.
	EstimatedCost(in Input) float64
}
