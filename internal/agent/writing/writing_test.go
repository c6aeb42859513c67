package writing

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/murtaza-nasir/maestro/internal/agent"
	"github.com/murtaza-nasir/maestro/internal/governor"
	"github.com/murtaza-nasir/maestro/internal/llm"
	"github.com/murtaza-nasir/maestro/internal/maestro"
)

type capturingChat struct{ lastUser string }

func (c *capturingChat) Chat(_ context.Context, messages []llm.Message, _ llm.Tier, _ []byte) (llm.Completion, error) {
	for _, m := range messages {
		if m.Role == llm.RoleUser {
			c.lastUser = m.Content
		}
	}
	return llm.Completion{Content: "# Drafted section\nBody."}, nil
}

func TestRun_DraftsSectionWithCitedNotes(t *testing.T) {
	chat := &capturingChat{}
	a := New(chat, governor.New(10), Limits{})

	out, err := a.Run(context.Background(), agent.Input{
		Mission: &maestro.Mission{},
		Context: &maestro.MissionContext{},
		Section: &maestro.Section{ID: "sec-1", Title: "Intro", Description: "overview"},
		Notes:   []*maestro.Note{{NoteID: "n1", Content: "key finding"}},
	})
	require.NoError(t, err)
	require.Equal(t, agent.OutputDraft, out.Kind)
	assert.Equal(t, "sec-1", out.Draft.SectionID)
	assert.Equal(t, "# Drafted section\nBody.", out.Draft.ContentMD)
	assert.True(t, strings.Contains(chat.lastUser, "n1"))
}

func TestRun_TruncatesPreviousDraftPreview(t *testing.T) {
	chat := &capturingChat{}
	a := New(chat, governor.New(10), Limits{PreviousContentPreviewChars: 10})

	long := strings.Repeat("x", 100)
	_, err := a.Run(context.Background(), agent.Input{
		Mission:       &maestro.Mission{},
		Context:       &maestro.MissionContext{},
		PreviousDraft: long,
	})
	require.NoError(t, err)
	assert.LessOrEqual(t, strings.Count(chat.lastUser, "x"), 10)
}
