package convert

import (
	"context"
	"strings"

	"github.com/nguyenthenguyen/docx"

	"github.com/murtaza-nasir/maestro/internal/maestro"
)

// DOCXConverter extracts text from a Word document's structured content,
// grounded on go-research's DOCXReadTool, normalizing runs of blank lines to
// single paragraph breaks so the chunker's window over blank-line-delimited
// paragraphs behaves consistently with PDF and identity conversion.
type DOCXConverter struct{}

func (DOCXConverter) Convert(_ context.Context, rawPath string) (string, error) {
	r, err := docx.ReadDocxFile(rawPath)
	if err != nil {
		return "", maestro.NewError(maestro.ErrIngestionFailed, "open docx", err)
	}
	defer r.Close()

	content := r.Editable().GetContent()
	return normalizeParagraphs(content), nil
}

func normalizeParagraphs(s string) string {
	lines := strings.Split(s, "\n")
	var cleaned []string
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed != "" {
			cleaned = append(cleaned, trimmed)
		}
	}
	return strings.Join(cleaned, "\n\n")
}
