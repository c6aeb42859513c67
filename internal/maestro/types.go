// Package maestro defines the core domain types shared across MAESTRO's
// mission controller, retrieval, ingestion, and agent packages: documents,
// chunks, missions, notes, execution logs, and report versions.
package maestro

import "time"

// DocumentFormat enumerates the source file formats the ingestion pipeline
// accepts.
type DocumentFormat string

const (
	FormatPDF  DocumentFormat = "pdf"
	FormatDOCX DocumentFormat = "docx"
	FormatMD   DocumentFormat = "md"
	FormatTXT  DocumentFormat = "txt"
)

// DocumentStatus tracks a Document through the ingestion pipeline.
type DocumentStatus string

const (
	DocumentPending    DocumentStatus = "pending"
	DocumentProcessing DocumentStatus = "processing"
	DocumentCompleted  DocumentStatus = "completed"
	DocumentFailed     DocumentStatus = "failed"
)

// DocumentMetadata holds fields extracted by the metadata-extraction step
// of ingestion. All fields are best-effort; missing fields are left zero.
type DocumentMetadata struct {
	Title    string   `json:"title,omitempty"`
	Authors  []string `json:"authors,omitempty"`
	Year     int      `json:"year,omitempty"`
	Abstract string   `json:"abstract,omitempty"`
	Keywords []string `json:"keywords,omitempty"`
}

// Document is an ingested source. (owner, content_hash) is unique; a
// re-upload of identical bytes is rejected as a duplicate rather than
// producing a second row.
type Document struct {
	ID              string           `json:"id"`
	Owner           string           `json:"owner"`
	Filename        string           `json:"filename"`
	Format          DocumentFormat   `json:"format"`
	ContentHash     string           `json:"content_hash"`
	Metadata        DocumentMetadata `json:"metadata"`
	Status          DocumentStatus   `json:"status"`
	ProcessingError string           `json:"processing_error,omitempty"`
	GroupID         string           `json:"group_id,omitempty"`
	RawPath         string           `json:"raw_path"`
	MarkdownPath    string           `json:"markdown_path,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// SparseVector is a bag-of-tokens weight map. Only nonzero, strictly
// positive entries are ever stored; a decoded map containing a zero or
// negative weight indicates corruption upstream.
type SparseVector map[int]float64

// Chunk is one indexed passage of a Document.
type Chunk struct {
	ID         string         `json:"id"`
	DocumentID string         `json:"document_id"`
	Index      int            `json:"chunk_index"`
	Text       string         `json:"text"`
	Dense      []float32      `json:"dense"`
	Sparse     SparseVector   `json:"sparse"`
	Metadata   ChunkMetadata  `json:"metadata"`
}

// ChunkMetadata duplicates a handful of document fields onto the chunk row
// so filtered retrieval doesn't need a join back to Document.
type ChunkMetadata struct {
	Author string `json:"author,omitempty"`
	Year   int    `json:"year,omitempty"`
	Title  string `json:"title,omitempty"`
}

// MissionStatus is the Mission Controller's state machine position.
type MissionStatus string

const (
	MissionPending   MissionStatus = "pending"
	MissionPlanning  MissionStatus = "planning"
	MissionRunning   MissionStatus = "running"
	MissionPaused    MissionStatus = "paused"
	MissionStopped   MissionStatus = "stopped"
	MissionCompleted MissionStatus = "completed"
	MissionFailed    MissionStatus = "failed"
)

// MissionPhase is the sub-state of a running Mission, meaningful only
// while Status == MissionRunning.
type MissionPhase string

const (
	PhaseInitialExploration MissionPhase = "initial_exploration"
	PhaseStructuredResearch MissionPhase = "structured_research"
	PhaseWriting            MissionPhase = "writing"
)

// MissionOptions configures a Mission at creation time.
type MissionOptions struct {
	UseWeb          bool
	DocGroupID      string
	AutoSaveSources bool
	ParamOverrides  map[string]any
}

// Mission is one end-to-end research run from request to final report.
type Mission struct {
	ID                string         `json:"id"`
	ChatID            string         `json:"chat_id"`
	Owner             string         `json:"owner"`
	RequestText       string         `json:"request_text"`
	Status            MissionStatus  `json:"status"`
	Phase             MissionPhase   `json:"phase,omitempty"`
	Options           MissionOptions `json:"options"`
	DocumentGroupID   string         `json:"document_group_id,omitempty"`
	CurrentVersion    int            `json:"current_version"`
	Context           MissionContext `json:"context"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
}

// Section is one node of a hierarchical research outline.
type Section struct {
	ID               string    `json:"id"`
	Title            string    `json:"title"`
	Description      string    `json:"description"`
	ResearchStrategy string    `json:"research_strategy"`
	Subsections      []Section `json:"subsections,omitempty"`
}

// QuestionNode is one node of the initial-exploration question tree,
// distinct from the outline: edges represent refinements of the parent
// question, not section hierarchy.
type QuestionNode struct {
	ID       string         `json:"id"`
	Question string         `json:"question"`
	Children []QuestionNode `json:"children,omitempty"`
}

// GoalStatus tracks a goal_pad entry through its lifecycle.
type GoalStatus string

const (
	GoalActive   GoalStatus = "active"
	GoalAddressed GoalStatus = "addressed"
	GoalObsolete  GoalStatus = "obsolete"
)

// Goal is a user-stated constraint or a derived sub-goal tracked on the
// mission's goal_pad.
type Goal struct {
	GoalID      string     `json:"goal_id"`
	Text        string     `json:"text"`
	Status      GoalStatus `json:"status"`
	SourceAgent string     `json:"source_agent"`
}

// Thought is one entry of the bounded thought_pad FIFO.
type Thought struct {
	ThoughtID string `json:"thought_id"`
	AgentName string `json:"agent_name"`
	Content   string `json:"content"`
}

// DraftVersion is one report snapshot recorded during the writing phase,
// distinct from the persisted ReportVersion rows: draft_versions is the
// in-context working history consulted by the Reflection Agent.
type DraftVersion struct {
	Version       int       `json:"version"`
	ContentMD     string    `json:"content_markdown"`
	RevisionNotes string    `json:"revision_notes,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// MissionContext is the persisted, monotonically-evolving working state of
// a mission. It is versioned (SchemaVersion) so older persisted blobs can
// be sanitized on load as fields are added or removed.
type MissionContext struct {
	SchemaVersion       int                 `json:"schema_version"`
	Plan                []Section           `json:"plan,omitempty"`
	QuestionTree        []QuestionNode      `json:"question_tree,omitempty"`
	GoalPad             []Goal              `json:"goal_pad,omitempty"`
	ThoughtPad          []Thought           `json:"thought_pad,omitempty"`
	AgentScratchpad     string              `json:"agent_scratchpad,omitempty"`
	SectionAssignments  map[string][]string `json:"section_assignments,omitempty"`
	DraftVersions       []DraftVersion      `json:"draft_versions,omitempty"`
}

// CurrentSchemaVersion is the MissionContext schema version produced by
// this build. Loaders compare a persisted blob's SchemaVersion against
// this to decide whether Sanitize needs to backfill or drop fields.
const CurrentSchemaVersion = 1

// NoteSourceType distinguishes a Note's provenance.
type NoteSourceType string

const (
	NoteSourceDocument NoteSourceType = "document"
	NoteSourceWeb      NoteSourceType = "web"
)

// SourceRef identifies where a Note's content was cited from. Exactly one
// of (DocumentID, ChunkID) or URL is populated, matching SourceType.
type SourceRef struct {
	DocumentID string `json:"document_id,omitempty"`
	ChunkID    string `json:"chunk_id,omitempty"`
	URL        string `json:"url,omitempty"`
}

// Note is a cited atomic finding produced by the Research Agent. Notes are
// append-only during the research phase; SectionID may be set or revised
// during assignment but the Content and SourceRef never change after
// creation.
type Note struct {
	NoteID     string         `json:"note_id"`
	MissionID  string         `json:"mission_id"`
	Content    string         `json:"content"`
	SourceType NoteSourceType `json:"source_type"`
	SourceRef  SourceRef      `json:"source_ref"`
	SectionID  string         `json:"section_id,omitempty"`
	Tags       []string       `json:"tags,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

// LogStatus is the outcome of one ExecutionLog entry.
type LogStatus string

const (
	LogSuccess LogStatus = "success"
	LogFailure LogStatus = "failure"
	LogWarning LogStatus = "warning"
	LogRunning LogStatus = "running"
)

// TokenCounts records prompt/completion token usage for one LLM call.
// Native is set only for providers that report usage in a
// provider-specific unit distinct from the normalized prompt/completion
// split (e.g. character-billed models).
type TokenCounts struct {
	Prompt     int  `json:"prompt"`
	Completion int  `json:"completion"`
	Native     *int `json:"native,omitempty"`
}

// ToolCall records one tool invocation made during an agent action, for
// post-mortem review in the execution log.
type ToolCall struct {
	Name   string `json:"name"`
	Input  string `json:"input"`
	Output string `json:"output,omitempty"`
}

// ExecutionLog is one append-only audit entry for a mission's agent
// activity.
type ExecutionLog struct {
	MissionID     string      `json:"mission_id"`
	Timestamp     time.Time   `json:"timestamp"`
	AgentName     string      `json:"agent_name"`
	Action        string      `json:"action"`
	Status        LogStatus   `json:"status"`
	InputSummary  string      `json:"input_summary"`
	OutputSummary string      `json:"output_summary"`
	ErrorMessage  string      `json:"error_message,omitempty"`
	ModelDetails  string      `json:"model_details,omitempty"`
	Tokens        TokenCounts `json:"token_counts"`
	CostDecimal   float64     `json:"cost_decimal"`
	ToolCalls     []ToolCall  `json:"tool_calls,omitempty"`
}

// ReportVersion is one persisted snapshot of a mission's report. At most
// one ReportVersion per mission has IsCurrent == true; version numbers are
// monotonically increasing with no gaps.
type ReportVersion struct {
	MissionID     string    `json:"mission_id"`
	Version       int       `json:"version"`
	Title         string    `json:"title,omitempty"`
	ContentMD     string    `json:"content_markdown"`
	IsCurrent     bool      `json:"is_current"`
	RevisionNotes string    `json:"revision_notes,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// MissionStats aggregates cost and token usage for get_stats. Invariant:
// TotalCost equals the sum of CostDecimal across the mission's
// ExecutionLogs, and TotalPromptTokens+TotalCompletionTokens equals the
// sum of their respective TokenCounts fields.
type MissionStats struct {
	TotalCost             float64 `json:"total_cost"`
	TotalPromptTokens     int     `json:"total_prompt_tokens"`
	TotalCompletionTokens int     `json:"total_completion_tokens"`
	LLMCallCount          int     `json:"llm_call_count"`
}
