// Package chunk implements the ingestion pipeline's paragraph windowing
// (spec.md §4.3 step 6): split markdown into paragraphs, window of 2
// paragraphs with stride 1, skip empty paragraphs, preserve order.
package chunk

import "strings"

const (
	windowSize = 2
	stride     = 1
)

// Split windows text's paragraphs (blank-line delimited) into overlapping
// chunks, assigning chunk_index by output position. A document with fewer
// than windowSize paragraphs produces one chunk covering all of them.
func Split(text string) []string {
	paragraphs := paragraphsOf(text)
	if len(paragraphs) == 0 {
		return nil
	}
	if len(paragraphs) <= windowSize {
		return []string{strings.Join(paragraphs, "\n\n")}
	}

	var chunks []string
	for start := 0; start < len(paragraphs); start += stride {
		end := start + windowSize
		if end > len(paragraphs) {
			end = len(paragraphs)
		}
		chunks = append(chunks, strings.Join(paragraphs[start:end], "\n\n"))
		if end == len(paragraphs) {
			break
		}
	}
	return chunks
}

func paragraphsOf(text string) []string {
	raw := strings.Split(text, "\n\n")
	out := make([]string, 0, len(raw))
	for _, p := range raw {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
