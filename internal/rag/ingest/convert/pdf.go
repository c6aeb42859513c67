package convert

import (
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/murtaza-nasir/maestro/internal/maestro"
)

// PDFConverter extracts plain text from a PDF, page by page, grounded on
// go-research's PDFReadTool. It is the fallback path when no GPU-accelerated
// PDF-to-markdown converter is configured; output is plain extracted text
// rather than true markdown, which the chunker's paragraph splitter still
// handles correctly since it only needs blank-line-delimited paragraphs.
type PDFConverter struct{}

func (PDFConverter) Convert(_ context.Context, rawPath string) (string, error) {
	f, r, err := pdf.Open(rawPath)
	if err != nil {
		return "", maestro.NewError(maestro.ErrIngestionFailed, "open pdf", err)
	}
	defer f.Close()

	var text strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		text.WriteString(content)
		text.WriteString("\n\n")
	}

	if text.Len() == 0 {
		return "", maestro.NewError(maestro.ErrIngestionFailed, fmt.Sprintf("no extractable text in %d pages", r.NumPage()), nil)
	}
	return text.String(), nil
}
