// Package mission implements the Mission Controller (spec §4.1): it owns
// the mission lifecycle state machine, drives the four-phase agent
// pipeline, enforces the configured iteration/cost ceilings, persists
// state after every atomic update, and publishes live-progress events.
//
// The per-mission dispatch loop is grounded on the teacher's
// core/scheduler.Scheduler: Start derives a cancellable context and
// launches the driving loop in a panic-safe goroutine (generalized from
// scheduler's fixed broker/worker dispatch to a phase-table dispatch over
// a state machine), and Stop cancels that context and waits up to a
// bounded grace period for the loop to observe it and exit, exactly as
// Scheduler.Stop waits on its WaitGroup after cancelling.
package mission

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/murtaza-nasir/maestro/internal/agent/rerank"
	"github.com/murtaza-nasir/maestro/internal/config"
	"github.com/murtaza-nasir/maestro/internal/embedding"
	"github.com/murtaza-nasir/maestro/internal/events"
	"github.com/murtaza-nasir/maestro/internal/governor"
	"github.com/murtaza-nasir/maestro/internal/llm"
	"github.com/murtaza-nasir/maestro/internal/maestro"
	"github.com/murtaza-nasir/maestro/internal/store"
	"github.com/murtaza-nasir/maestro/internal/websearch"
	msync "github.com/murtaza-nasir/maestro/pkg/sync"
)

// timeNow is indirected so tests can pin mission timestamps.
var timeNow = func() time.Time { return time.Now().UTC() }

// Deps wires the Controller's external collaborators. Reranker may be nil,
// in which case note-assignment falls back to insertion order (see
// assignNotesToSection).
type Deps struct {
	Store    store.Store
	Chat     llm.Chat
	Embedder embedding.Model
	Governor *governor.Governor
	Searcher websearch.Searcher
	Fetcher  websearch.Fetcher
	Reranker rerank.Reranker
	Research config.ResearchConfig
	Writing  config.WritingConfig
}

// runningMission tracks one mission's in-process driving goroutine.
type runningMission struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Controller owns every mission's lifecycle in this process. A single
// Controller is shared by the CLI/HTTP surface (cmd/maestroctl) and, were
// this embedded in a server, by every request handler.
type Controller struct {
	store    store.Store
	chat     llm.Chat
	embedder embedding.Model
	gov      *governor.Governor
	searcher websearch.Searcher
	fetcher  websearch.Fetcher
	reranker rerank.Reranker
	baseResearch config.ResearchConfig
	baseWriting  config.WritingConfig

	mu      sync.Mutex
	hubs    map[string]*events.Hub
	running map[string]*runningMission
}

// New builds a Controller. Agents are constructed fresh per phase call
// (see phases.go) from each mission's resolved configuration rather than
// held as long-lived fields, since param_overrides lets one mission's
// result-count and depth limits diverge from another's.
func New(d Deps) *Controller {
	return &Controller{
		store:        d.Store,
		chat:         d.Chat,
		embedder:     d.Embedder,
		gov:          d.Governor,
		searcher:     d.Searcher,
		fetcher:      d.Fetcher,
		reranker:     d.Reranker,
		baseResearch: d.Research,
		baseWriting:  d.Writing,
		hubs:         make(map[string]*events.Hub),
		running:      make(map[string]*runningMission),
	}
}

// CreateRequest is the input to CreateMission.
type CreateRequest struct {
	RequestText string
	ChatID      string
	Owner       string
	Options     maestro.MissionOptions
}

// CreateMission validates and persists a new Mission in MissionPending.
// It does not start the pipeline; call Start to do that.
func (c *Controller) CreateMission(ctx context.Context, req CreateRequest) (*maestro.Mission, error) {
	if !req.Options.UseWeb && req.Options.DocGroupID == "" {
		return nil, fmt.Errorf("create_mission: at least one of use_web or doc_group_id must be enabled")
	}

	now := timeNow()
	m := &maestro.Mission{
		ID:              uuid.NewString(),
		ChatID:          req.ChatID,
		Owner:           req.Owner,
		RequestText:     req.RequestText,
		Status:          maestro.MissionPending,
		Options:         req.Options,
		DocumentGroupID: req.Options.DocGroupID,
		Context:         maestro.MissionContext{SchemaVersion: maestro.CurrentSchemaVersion},
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := c.store.CreateMission(ctx, m); err != nil {
		return nil, err
	}
	c.ensureHub(m.ID)
	return m, nil
}

// Start transitions a pending mission into planning (or, if the driving
// loop isn't currently running in this process for a planning/running
// mission, relaunches it in place). It is idempotent while the mission is
// already being driven.
func (c *Controller) Start(ctx context.Context, missionID string) error {
	c.mu.Lock()
	if _, ok := c.running[missionID]; ok {
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	m, err := c.store.GetMission(ctx, missionID)
	if err != nil {
		return err
	}

	switch m.Status {
	case maestro.MissionPending:
		m.Status = maestro.MissionPlanning
	case maestro.MissionPlanning, maestro.MissionRunning:
		// Already past pending; relaunch the driving loop (e.g. after a
		// process restart) without changing persisted state.
	default:
		return fmt.Errorf("start: mission %s is in status %s; use resume or create a new mission", missionID, m.Status)
	}
	m.UpdatedAt = timeNow()
	if err := c.store.UpdateMission(ctx, m); err != nil {
		return err
	}

	c.launch(missionID)
	c.publish(missionID, events.TypeMissionStatus, m.Status)
	return nil
}

// Stop cooperatively cancels a mission's driving loop and waits up to its
// configured graceful_shutdown_seconds for it to settle. Timing out
// escalates the mission to MissionFailed (not fatal to the process, but
// per §4.1 "fatal=false on timeout→failed" the mission itself fails).
func (c *Controller) Stop(ctx context.Context, missionID string) error {
	c.mu.Lock()
	rm, ok := c.running[missionID]
	c.mu.Unlock()
	if !ok {
		return nil
	}

	m, err := c.store.GetMission(ctx, missionID)
	if err != nil {
		return err
	}
	cfg := resolveResearchConfig(c.baseResearch, m.Options.ParamOverrides)
	grace := time.Duration(cfg.GracefulShutdownSeconds) * time.Second
	if grace <= 0 {
		grace = 30 * time.Second
	}

	rm.cancel()
	select {
	case <-rm.done:
		return nil
	case <-time.After(grace):
		m, err := c.store.GetMission(context.Background(), missionID)
		if err != nil {
			return err
		}
		m.Status = maestro.MissionFailed
		m.UpdatedAt = timeNow()
		_ = c.store.UpdateMission(context.Background(), m)
		c.publish(missionID, events.TypeMissionStatus, m.Status)
		c.closeHub(missionID)
		return maestro.NewError(maestro.ErrPersistence, "graceful shutdown timed out", nil)
	}
}

// Resume rehydrates a stopped mission's MissionContext, recomputes its
// current phase from persisted state (defaulting to initial exploration
// if the mission never reached planning-complete), and re-enters running.
func (c *Controller) Resume(ctx context.Context, missionID string) error {
	c.mu.Lock()
	if _, ok := c.running[missionID]; ok {
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	m, err := c.store.GetMission(ctx, missionID)
	if err != nil {
		return err
	}
	if m.Status != maestro.MissionStopped {
		return fmt.Errorf("resume: mission %s is not stopped (status %s)", missionID, m.Status)
	}

	sanitizeContext(&m.Context)
	m.Status = maestro.MissionRunning
	if m.Phase == "" {
		m.Phase = maestro.PhaseInitialExploration
	}
	m.UpdatedAt = timeNow()
	if err := c.store.UpdateMission(ctx, m); err != nil {
		return err
	}

	c.launch(missionID)
	c.publish(missionID, events.TypeMissionStatus, m.Status)
	return nil
}

// launch starts missionID's driving loop in a panic-safe goroutine.
func (c *Controller) launch(missionID string) {
	runCtx, cancel := context.WithCancel(context.Background())
	rm := &runningMission{cancel: cancel, done: make(chan struct{})}
	c.mu.Lock()
	c.running[missionID] = rm
	c.mu.Unlock()

	msync.Go(func() {
		defer close(rm.done)
		defer c.forgetRunning(missionID)
		c.runMission(runCtx, missionID)
	})
}

func (c *Controller) forgetRunning(missionID string) {
	c.mu.Lock()
	delete(c.running, missionID)
	c.mu.Unlock()
}

func (c *Controller) ensureHub(missionID string) *events.Hub {
	c.mu.Lock()
	defer c.mu.Unlock()
	hub, ok := c.hubs[missionID]
	if !ok {
		hub = events.NewHub(missionID)
		c.hubs[missionID] = hub
	}
	return hub
}

func (c *Controller) closeHub(missionID string) {
	c.mu.Lock()
	hub, ok := c.hubs[missionID]
	if ok {
		delete(c.hubs, missionID)
	}
	c.mu.Unlock()
	if ok {
		hub.Close()
	}
}

func (c *Controller) publish(missionID string, typ events.Type, payload any) {
	c.ensureHub(missionID).Publish(typ, payload)
}

func (c *Controller) logAction(ctx context.Context, missionID, agentName, action string, status maestro.LogStatus, errMsg, outputSummary string) {
	_ = c.store.AppendLog(ctx, &maestro.ExecutionLog{
		MissionID:     missionID,
		Timestamp:     timeNow(),
		AgentName:     agentName,
		Action:        action,
		Status:        status,
		ErrorMessage:  errMsg,
		OutputSummary: outputSummary,
	})
}

// Subscribe registers a new live-event subscriber for missionID. The
// mission need not be running yet — a client may subscribe immediately
// after CreateMission and observe the whole pipeline from planning.
func (c *Controller) Subscribe(missionID string) (<-chan events.Event, uint64) {
	hub := c.ensureHub(missionID)
	return hub.Subscribe()
}

// Unsubscribe removes subID from missionID's subscriber set.
func (c *Controller) Unsubscribe(missionID string, subID uint64) {
	c.mu.Lock()
	hub, ok := c.hubs[missionID]
	c.mu.Unlock()
	if ok {
		hub.Unsubscribe(subID)
	}
}

// GetMission returns the persisted Mission, satisfying get_status/get_plan.
func (c *Controller) GetMission(ctx context.Context, missionID string) (*maestro.Mission, error) {
	return c.store.GetMission(ctx, missionID)
}

// ListMissions satisfies a mission-listing surface for owner.
func (c *Controller) ListMissions(ctx context.Context, owner string, page store.Pagination) ([]*maestro.Mission, error) {
	return c.store.ListMissions(ctx, owner, page)
}

// GetNotes satisfies get_notes(paged).
func (c *Controller) GetNotes(ctx context.Context, missionID string, filter store.NoteFilter, page store.Pagination) ([]*maestro.Note, error) {
	return c.store.ListNotes(ctx, missionID, filter, page)
}

// GetLogs satisfies get_logs(paged).
func (c *Controller) GetLogs(ctx context.Context, missionID string, page store.Pagination) ([]*maestro.ExecutionLog, error) {
	return c.store.ListLogs(ctx, missionID, page)
}

// GetDraft satisfies get_draft: the current ReportVersion, if any.
func (c *Controller) GetDraft(ctx context.Context, missionID string) (*maestro.ReportVersion, error) {
	return c.store.CurrentReportVersion(ctx, missionID)
}

// GetStats satisfies get_stats from the governor's cost meter.
func (c *Controller) GetStats(missionID string) maestro.MissionStats {
	return c.gov.Meter().Stats(missionID)
}
