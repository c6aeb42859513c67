// Package llm defines MAESTRO's chat-completion capability: a tiered,
// schema-aware interface that every agent calls through instead of an SDK
// directly, so the mission controller and agents never import a provider
// package. The shape follows the teacher's ai/core/chat/message.Role and
// ai/providers/openai/chat request/response split, collapsed from the
// teacher's generic Call/Stream model down to the single structured Chat
// call the agents actually need.
package llm

import (
	"context"

	"github.com/murtaza-nasir/maestro/internal/maestro"
)

// Role mirrors the teacher's ai/core/chat/message.Role constants.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn of a chat-completion request.
type Message struct {
	Role    Role
	Content string
}

// Tier selects which configured model serves a call. Agents pick a tier by
// the cost/quality tradeoff they need, not by model name.
type Tier string

const (
	TierFast        Tier = "fast"
	TierMid         Tier = "mid"
	TierIntelligent Tier = "intelligent"
	TierVerifier    Tier = "verifier"
)

// Completion is the normalized result of a Chat call.
type Completion struct {
	Content string
	Tokens  maestro.TokenCounts
	Model   string
}

// Chat is the capability interface every LLM-backed agent depends on.
// schema, when non-nil, is a JSON Schema the provider is asked to constrain
// its output to; an adapter that can't support structured output returns
// maestro.ErrProviderContract.
type Chat interface {
	Chat(ctx context.Context, messages []Message, tier Tier, schema []byte) (Completion, error)
}
