package chunk

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplit_WindowsAdjacentParagraphsWithOverlap(t *testing.T) {
	text := "p1\n\np2\n\np3\n\np4"
	chunks := Split(text)
	assert.Equal(t, []string{"p1\n\np2", "p2\n\np3", "p3\n\np4"}, chunks)
}

func TestSplit_SkipsEmptyParagraphs(t *testing.T) {
	text := "p1\n\n\n\np2\n\n   \n\np3"
	chunks := Split(text)
	assert.Equal(t, []string{"p1\n\np2", "p2\n\np3"}, chunks)
}

func TestSplit_FewerThanWindowSizeProducesOneChunk(t *testing.T) {
	chunks := Split("only one paragraph")
	assert.Equal(t, []string{"only one paragraph"}, chunks)
}

func TestSplit_EmptyTextProducesNoChunks(t *testing.T) {
	assert.Empty(t, Split("   \n\n  "))
}
