package convert

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/murtaza-nasir/maestro/internal/maestro"
)

func TestForFormat_SelectsCorrectConverter(t *testing.T) {
	pdfC, err := ForFormat(maestro.FormatPDF)
	require.NoError(t, err)
	assert.IsType(t, PDFConverter{}, pdfC)

	docxC, err := ForFormat(maestro.FormatDOCX)
	require.NoError(t, err)
	assert.IsType(t, DOCXConverter{}, docxC)

	mdC, err := ForFormat(maestro.FormatMD)
	require.NoError(t, err)
	assert.IsType(t, IdentityConverter{}, mdC)

	_, err = ForFormat("unknown")
	require.Error(t, err)
	assert.True(t, maestro.Is(err, maestro.ErrIngestionFailed))
}

func TestIdentityConverter_ReturnsFileContentsUnchanged(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.md")
	require.NoError(t, os.WriteFile(path, []byte("# Title\n\nBody text."), 0o644))

	out, err := IdentityConverter{}.Convert(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "# Title\n\nBody text.", out)
}

func TestNormalizeParagraphs_CollapsesBlankRuns(t *testing.T) {
	out := normalizeParagraphs("line one\n\n\n\nline two\n   \nline three")
	assert.Equal(t, "line one\n\nline two\n\nline three", out)
}
