// Package convert implements format-specific source-to-markdown conversion
// for the ingestion pipeline's step 4, grounded on go-research's
// internal/tools PDFReadTool and DOCXReadTool extraction helpers. Converters
// operate on the content-addressed path step 3 already wrote, since both
// ledongthuc/pdf and nguyenthenguyen/docx read from a file path rather than
// an in-memory byte slice.
package convert

import (
	"context"
	"os"

	"github.com/murtaza-nasir/maestro/internal/maestro"
)

// Converter turns a raw document file into markdown text.
type Converter interface {
	Convert(ctx context.Context, rawPath string) (markdown string, err error)
}

// ForFormat returns the Converter for a document format. PDF and DOCX
// formats go through dedicated extractors; MD and TXT are passed through
// unchanged (spec.md §4.3 step 4, "MD/TXT -> identity").
func ForFormat(format maestro.DocumentFormat) (Converter, error) {
	switch format {
	case maestro.FormatPDF:
		return PDFConverter{}, nil
	case maestro.FormatDOCX:
		return DOCXConverter{}, nil
	case maestro.FormatMD, maestro.FormatTXT:
		return IdentityConverter{}, nil
	default:
		return nil, maestro.NewError(maestro.ErrIngestionFailed, "unsupported document format: "+string(format), nil)
	}
}

// IdentityConverter returns the file contents unchanged, decoded as UTF-8
// text.
type IdentityConverter struct{}

func (IdentityConverter) Convert(_ context.Context, rawPath string) (string, error) {
	data, err := os.ReadFile(rawPath)
	if err != nil {
		return "", maestro.NewError(maestro.ErrIngestionFailed, "read source file", err)
	}
	return string(data), nil
}
