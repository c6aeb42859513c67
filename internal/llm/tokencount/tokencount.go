// Package tokencount estimates prompt and completion token counts locally
// with pkoukk/tiktoken-go, for providers whose response omits usage and for
// the context-overflow check the writing phase runs before each LLM call.
package tokencount

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// DefaultEncoding is cl100k_base, the encoding used by the gpt-4o family
// this build's default model tiers are configured against.
const DefaultEncoding = "cl100k_base"

var (
	once sync.Once
	enc  *tiktoken.Tiktoken
	encErr error
)

func encoding() (*tiktoken.Tiktoken, error) {
	once.Do(func() {
		enc, encErr = tiktoken.GetEncoding(DefaultEncoding)
	})
	return enc, encErr
}

// Count returns the estimated token count of text. On encoder
// initialization failure it falls back to a conservative 4-characters-per-
// token heuristic rather than failing the caller.
func Count(text string) int {
	e, err := encoding()
	if err != nil {
		return len(text)/4 + 1
	}
	return len(e.Encode(text, nil, nil))
}

// CountMessages sums Count across a set of chat messages plus a small
// per-message overhead for role/formatting tokens, mirroring OpenAI's
// documented per-message token accounting.
func CountMessages(contents []string) int {
	total := 0
	for _, c := range contents {
		total += Count(c) + 4
	}
	return total
}
