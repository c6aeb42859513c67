// Package openai implements internal/llm.Chat against the OpenAI chat
// completions API, grounded on the teacher's ai/providers/openai/api.OpenAIApi
// wrapper (a thin context-aware facade over *openai.Client) and
// ai/providers/openai/chat's role-conversion helper, collapsed to the single
// structured completion call MAESTRO's agents need.
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/murtaza-nasir/maestro/internal/governor"
	"github.com/murtaza-nasir/maestro/internal/llm"
	"github.com/murtaza-nasir/maestro/internal/llm/tokencount"
	"github.com/murtaza-nasir/maestro/internal/maestro"
)

// TierModels maps a llm.Tier to the concrete model and timeout serving it.
type TierModels map[llm.Tier]TierModel

// TierModel is one configured model tier.
type TierModel struct {
	Model   string
	Timeout time.Duration
}

// Adapter implements llm.Chat against one OpenAI-compatible endpoint.
type Adapter struct {
	client   *openai.Client
	tiers    TierModels
	governor *governor.Governor
}

// New builds an Adapter. baseURL may be empty to use OpenAI's default
// endpoint, or set for an OpenAI-compatible self-hosted gateway.
func New(apiKey, baseURL string, tiers TierModels, gov *governor.Governor) *Adapter {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &Adapter{
		client:   openai.NewClientWithConfig(cfg),
		tiers:    tiers,
		governor: gov,
	}
}

var _ llm.Chat = (*Adapter)(nil)

func (a *Adapter) Chat(ctx context.Context, messages []llm.Message, tier llm.Tier, schema []byte) (llm.Completion, error) {
	tm, ok := a.tiers[tier]
	if !ok {
		return llm.Completion{}, maestro.NewError(maestro.ErrProviderContract, "unconfigured tier: "+string(tier), nil)
	}

	if tm.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, tm.Timeout)
		defer cancel()
	}

	req := openai.ChatCompletionRequest{
		Model:    tm.Model,
		Messages: convertMessages(messages),
	}
	if schema != nil {
		var schemaDoc map[string]any
		if err := json.Unmarshal(schema, &schemaDoc); err != nil {
			return llm.Completion{}, maestro.NewError(maestro.ErrProviderContract, "invalid schema", err)
		}
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   "maestro_output",
				Schema: schemaDoc,
				Strict: true,
			},
		}
	}

	weight := int64(1)
	var completion llm.Completion
	err := a.governor.Call(ctx, weight, func(ctx context.Context) error {
		var callErr error
		completion, callErr = llm.Retry(ctx, llm.DefaultMaxAttempts, func() (llm.Completion, error) {
			return a.call(ctx, req, tm.Model, messages)
		})
		return callErr
	})
	if err != nil {
		return llm.Completion{}, err
	}
	return completion, nil
}

// call issues one request and classifies the outcome into the ErrKind
// taxonomy: rate limits and 5xx responses are ErrTransientLLM (retryable by
// llm.Retry), everything else is a terminal ErrProviderContract.
func (a *Adapter) call(ctx context.Context, req openai.ChatCompletionRequest, model string, messages []llm.Message) (llm.Completion, error) {
	resp, err := a.client.CreateChatCompletion(ctx, req)
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) && isTransientStatus(apiErr.HTTPStatusCode) {
			return llm.Completion{}, maestro.NewError(maestro.ErrTransientLLM, "openai request failed", err)
		}
		return llm.Completion{}, maestro.NewError(maestro.ErrProviderContract, "openai request rejected", err)
	}
	if len(resp.Choices) == 0 {
		return llm.Completion{}, maestro.NewError(maestro.ErrProviderContract, "empty choices", nil)
	}

	content := resp.Choices[0].Message.Content
	tokens := maestro.TokenCounts{
		Prompt:     resp.Usage.PromptTokens,
		Completion: resp.Usage.CompletionTokens,
	}
	if resp.Usage.TotalTokens == 0 {
		tokens.Prompt = tokencount.CountMessages(contentsOf(messages))
		tokens.Completion = tokencount.Count(content)
	}

	return llm.Completion{Content: content, Tokens: tokens, Model: model}, nil
}

func contentsOf(messages []llm.Message) []string {
	out := make([]string, len(messages))
	for i, m := range messages {
		out[i] = m.Content
	}
	return out
}

func convertMessages(messages []llm.Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, len(messages))
	for i, m := range messages {
		out[i] = openai.ChatCompletionMessage{
			Role:    roleOf(m.Role),
			Content: m.Content,
		}
	}
	return out
}

func roleOf(r llm.Role) string {
	switch r {
	case llm.RoleSystem:
		return openai.ChatMessageRoleSystem
	case llm.RoleAssistant:
		return openai.ChatMessageRoleAssistant
	default:
		return openai.ChatMessageRoleUser
	}
}

func isTransientStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}
