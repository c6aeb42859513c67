package governor

import (
	"sync"

	"github.com/murtaza-nasir/maestro/internal/maestro"
)

// CallRecord is one metered LLM/search invocation.
type CallRecord struct {
	Model      string
	Tokens     maestro.TokenCounts
	CostDecimal float64
}

// CostMeter accumulates per-mission cost and token usage. A single
// process-wide Governor holds one CostMeter but tracks missions
// independently, since §8 requires sum(log.cost) == stats.total_cost per
// mission, not per process.
type CostMeter struct {
	mu       sync.Mutex
	missions map[string]*maestro.MissionStats
}

// NewCostMeter creates an empty CostMeter.
func NewCostMeter() *CostMeter {
	return &CostMeter{missions: make(map[string]*maestro.MissionStats)}
}

// Record adds one call's usage to missionID's running stats.
func (m *CostMeter) Record(missionID string, rec CallRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stats, ok := m.missions[missionID]
	if !ok {
		stats = &maestro.MissionStats{}
		m.missions[missionID] = stats
	}
	stats.TotalCost += rec.CostDecimal
	stats.TotalPromptTokens += rec.Tokens.Prompt
	stats.TotalCompletionTokens += rec.Tokens.Completion
	stats.LLMCallCount++
}

// Stats returns a copy of missionID's accumulated stats, for get_stats.
func (m *CostMeter) Stats(missionID string) maestro.MissionStats {
	m.mu.Lock()
	defer m.mu.Unlock()

	stats, ok := m.missions[missionID]
	if !ok {
		return maestro.MissionStats{}
	}
	return *stats
}

// Reset discards missionID's accumulated stats. Called when a mission is
// deleted or a test wants a clean slate.
func (m *CostMeter) Reset(missionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.missions, missionID)
}
