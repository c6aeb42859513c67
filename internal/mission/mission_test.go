package mission

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/murtaza-nasir/maestro/internal/config"
	"github.com/murtaza-nasir/maestro/internal/embedding"
	"github.com/murtaza-nasir/maestro/internal/governor"
	"github.com/murtaza-nasir/maestro/internal/llm"
	"github.com/murtaza-nasir/maestro/internal/maestro"
	"github.com/murtaza-nasir/maestro/internal/store/memory"
)

const planResponse = `{"question_tree":[{"question":"what is the topic?"}],"outline":[{"title":"Overview","description":"d"}]}`

// fixedChat always returns the same completion body, enough to drive
// planning's single call; research/writing/reflection calls are never
// reached in these tests because the store is empty and UseWeb is false,
// so the research agent never has a candidate to synthesize from.
type fixedChat struct{ body string }

func (f fixedChat) Chat(context.Context, []llm.Message, llm.Tier, []byte) (llm.Completion, error) {
	return llm.Completion{Content: f.body}, nil
}

type fixedEmbedder struct{}

func (fixedEmbedder) Embed(_ context.Context, texts []string, _ embedding.Mode) ([]embedding.Vector, error) {
	out := make([]embedding.Vector, len(texts))
	for i := range texts {
		out[i] = embedding.Vector{Dense: []float32{1, 0}}
	}
	return out, nil
}

func (fixedEmbedder) Dimensions() int { return 2 }

func newTestController() *Controller {
	return New(Deps{
		Store:    memory.New(),
		Chat:     fixedChat{body: planResponse},
		Embedder: fixedEmbedder{},
		Governor: governor.New(10),
		Research: config.Default().Research,
		Writing:  config.Default().Writing,
	})
}

func TestCreateMission_RequiresWebOrDocGroup(t *testing.T) {
	c := newTestController()
	_, err := c.CreateMission(context.Background(), CreateRequest{RequestText: "r"})
	require.Error(t, err)
}

func TestCreateMission_PersistsPendingMission(t *testing.T) {
	c := newTestController()
	m, err := c.CreateMission(context.Background(), CreateRequest{
		RequestText: "r", Options: maestro.MissionOptions{DocGroupID: "g1"},
	})
	require.NoError(t, err)
	assert.Equal(t, maestro.MissionPending, m.Status)

	stored, err := c.GetMission(context.Background(), m.ID)
	require.NoError(t, err)
	assert.Equal(t, m.ID, stored.ID)
}

func TestStart_NoSourcesAvailableFailsMission(t *testing.T) {
	c := newTestController()
	m, err := c.CreateMission(context.Background(), CreateRequest{
		RequestText: "r", Options: maestro.MissionOptions{DocGroupID: "g1"},
	})
	require.NoError(t, err)
	require.NoError(t, c.Start(context.Background(), m.ID))

	final := waitForTerminal(t, c, m.ID)
	assert.Equal(t, maestro.MissionFailed, final.Status)
}

func TestStart_IsIdempotentWhileRunning(t *testing.T) {
	c := newTestController()
	m, err := c.CreateMission(context.Background(), CreateRequest{
		RequestText: "r", Options: maestro.MissionOptions{DocGroupID: "g1"},
	})
	require.NoError(t, err)
	require.NoError(t, c.Start(context.Background(), m.ID))
	require.NoError(t, c.Start(context.Background(), m.ID))
	waitForTerminal(t, c, m.ID)
}

func TestStop_NoRunningMissionIsNoop(t *testing.T) {
	c := newTestController()
	m, err := c.CreateMission(context.Background(), CreateRequest{
		RequestText: "r", Options: maestro.MissionOptions{DocGroupID: "g1"},
	})
	require.NoError(t, err)
	require.NoError(t, c.Stop(context.Background(), m.ID))
}

func TestResume_RejectsNonStoppedMission(t *testing.T) {
	c := newTestController()
	m, err := c.CreateMission(context.Background(), CreateRequest{
		RequestText: "r", Options: maestro.MissionOptions{DocGroupID: "g1"},
	})
	require.NoError(t, err)
	err = c.Resume(context.Background(), m.ID)
	require.Error(t, err)
}

func TestSubscribe_ReceivesMissionStatusEvents(t *testing.T) {
	c := newTestController()
	m, err := c.CreateMission(context.Background(), CreateRequest{
		RequestText: "r", Options: maestro.MissionOptions{DocGroupID: "g1"},
	})
	require.NoError(t, err)

	ch, subID := c.Subscribe(m.ID)
	defer c.Unsubscribe(m.ID, subID)
	require.NoError(t, c.Start(context.Background(), m.ID))

	sawFailed := false
	deadline := time.After(2 * time.Second)
	for !sawFailed {
		select {
		case ev := <-ch:
			if ev.Type == "mission_status" && ev.Payload == maestro.MissionFailed {
				sawFailed = true
			}
		case <-deadline:
			t.Fatal("never observed a failed mission_status event")
		}
	}
}

func waitForTerminal(t *testing.T, c *Controller, missionID string) *maestro.Mission {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		m, err := c.GetMission(context.Background(), missionID)
		require.NoError(t, err)
		if m.Status == maestro.MissionCompleted || m.Status == maestro.MissionFailed || m.Status == maestro.MissionStopped {
			return m
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("mission never reached a terminal status")
	return nil
}
