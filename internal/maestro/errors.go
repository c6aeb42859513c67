package maestro

import (
	"errors"
	"fmt"
)

// ErrKind is a closed taxonomy of mission-level failure kinds. Unlike an
// exception hierarchy, a kind does not imply severity by itself — see
// Fatal for whether a kind escalates a mission to MissionFailed.
type ErrKind string

const (
	// ErrTransientLLM covers rate-limits, 5xx, and timeouts from an LLM or
	// search provider. Retried with jitter; exhausted retries degrade to a
	// warning log and the single unit of work is skipped.
	ErrTransientLLM ErrKind = "transient_llm"

	// ErrContextOverflow is recovered locally by trimming (oldest
	// thought_pad entries, note content, preview chars) and retrying once.
	ErrContextOverflow ErrKind = "context_overflow"

	// ErrProviderContract covers structured output that fails schema
	// validation. One reformat retry with a stricter prompt is attempted.
	ErrProviderContract ErrKind = "provider_contract"

	// ErrRetrievalEmpty is not a failure; it is representable as an error
	// value so callers can use the standard retry/backoff plumbing, but
	// callers MUST NOT log it as a failure.
	ErrRetrievalEmpty ErrKind = "retrieval_empty"

	// ErrIngestionFailed is per-document; it fails the Document, not the
	// mission.
	ErrIngestionFailed ErrKind = "ingestion_failed"

	// ErrCancelled is terminal-but-clean: it converts a mission to
	// MissionStopped, never MissionFailed.
	ErrCancelled ErrKind = "cancelled"

	// ErrPersistence is fatal for the mission.
	ErrPersistence ErrKind = "persistence"

	// ErrDuplicateDocument is a user-visible rejection at upload time; the
	// caller is expected to carry the existing document id in Detail.
	ErrDuplicateDocument ErrKind = "duplicate_document"
)

// Fatal reports whether an error of this kind, left unhandled, must
// escalate the owning mission to MissionFailed.
func (k ErrKind) Fatal() bool {
	return k == ErrPersistence
}

// MaestroError wraps an underlying error with a closed kind and enough
// context for execution-log post-mortems without leaking secrets.
type MaestroError struct {
	Kind   ErrKind
	Detail string
	Err    error
}

func (e *MaestroError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Detail, e.Err)
}

func (e *MaestroError) Unwrap() error {
	return e.Err
}

// NewError wraps err with kind and an optional human-readable detail.
// Passing a nil err still produces a non-nil *MaestroError carrying kind
// and detail, for kinds (e.g. ErrRetrievalEmpty) that are signalled without
// an underlying cause.
func NewError(kind ErrKind, detail string, err error) *MaestroError {
	return &MaestroError{Kind: kind, Detail: detail, Err: err}
}

// KindOf extracts the ErrKind from err if it (or something it wraps) is a
// *MaestroError, reporting ok=false otherwise.
func KindOf(err error) (kind ErrKind, ok bool) {
	var me *MaestroError
	if errors.As(err, &me) {
		return me.Kind, true
	}
	return "", false
}

// Is reports whether err is a *MaestroError of the given kind.
func Is(err error, kind ErrKind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}
