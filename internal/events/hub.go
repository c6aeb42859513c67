// Package events implements the per-mission live-progress fan-out: the
// mission controller publishes typed events as it moves through its
// pipeline, and each mission's subscribers (UI, CLI, SSE transport) receive
// them over an isolated channel so one slow subscriber cannot back-pressure
// the controller.
package events

import (
	"sync"
)

// Type enumerates the mission event kinds named in the external mission
// API.
type Type string

const (
	TypeMissionStatus   Type = "mission_status"
	TypePlanUpdate      Type = "plan_update"
	TypeNoteAdded       Type = "note_added"
	TypeLogEntry        Type = "log_entry"
	TypeDraftUpdate     Type = "draft_update"
	TypeStatsUpdate     Type = "stats_update"
	TypePhaseTransition Type = "phase_transition"
	TypeDocumentProgress Type = "document_progress"
)

// critical marks event types for which Publish evicts a subscriber's
// oldest queued event to make room when its buffer is full; for all other
// types a full buffer drops the new event and queued events are kept.
var critical = map[Type]bool{
	TypeMissionStatus:   true,
	TypePhaseTransition: true,
}

// Event is one message delivered to a mission's subscribers.
type Event struct {
	Type      Type
	MissionID string
	Payload   any
	Seq       uint64
}

// defaultBufferSize bounds each subscriber's channel. A slow consumer loses
// non-critical events once the buffer fills rather than stalling publish.
const defaultBufferSize = 256

// Hub fans out events for one mission to any number of subscribers in
// causal (publish) order. A Hub is scoped to a single mission; the
// controller owns one Hub per running mission.
type Hub struct {
	missionID string
	mu        sync.RWMutex
	subs      map[uint64]chan Event
	nextSubID uint64
	nextSeq   uint64
	closed    bool
}

// NewHub creates a Hub for missionID.
func NewHub(missionID string) *Hub {
	return &Hub{
		missionID: missionID,
		subs:      make(map[uint64]chan Event),
	}
}

// Subscribe registers a new subscriber and returns its receive channel and
// an id for later Unsubscribe. The channel is closed when the Hub is
// closed.
func (h *Hub) Subscribe() (<-chan Event, uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := h.nextSubID
	h.nextSubID++
	ch := make(chan Event, defaultBufferSize)
	if h.closed {
		close(ch)
		return ch, id
	}
	h.subs[id] = ch
	return ch, id
}

// Unsubscribe removes and closes the subscriber channel for id. Safe to
// call more than once.
func (h *Hub) Unsubscribe(id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch, ok := h.subs[id]
	if !ok {
		return
	}
	delete(h.subs, id)
	close(ch)
}

// Publish delivers an event of the given type to every current subscriber,
// stamping it with the Hub's monotonic sequence number. Publish never
// blocks. For critical event types, a full buffer has its single oldest
// queued event dropped and the send is retried once; for all other types,
// a full buffer simply drops the new event for that subscriber.
func (h *Hub) Publish(typ Type, payload any) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.nextSeq++
	ev := Event{Type: typ, MissionID: h.missionID, Payload: payload, Seq: h.nextSeq}

	for _, ch := range h.subs {
		select {
		case ch <- ev:
		default:
			if !critical[typ] {
				continue
			}
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- ev:
			default:
			}
		}
	}
}

// Close closes every subscriber channel and marks the Hub unusable for
// further Subscribe/Publish calls. Called by the controller once a mission
// reaches a terminal status.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true
	for id, ch := range h.subs {
		close(ch)
		delete(h.subs, id)
	}
}
