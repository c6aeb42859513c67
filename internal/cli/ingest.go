package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/murtaza-nasir/maestro/internal/maestro"
	"github.com/murtaza-nasir/maestro/internal/rag/ingest"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [file]",
	Short: "Upload and ingest a document into the hybrid RAG index",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(a *app, cmd *cobra.Command, args []string) error {
		owner, _ := cmd.Flags().GetString("owner")
		group, _ := cmd.Flags().GetString("group")

		raw, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		format, err := formatFromExtension(args[0])
		if err != nil {
			return err
		}

		doc, err := a.ingest.Ingest(context.Background(), ingest.IngestRequest{
			Owner:    owner,
			GroupID:  group,
			Filename: filepath.Base(args[0]),
			Format:   format,
			Raw:      raw,
		})
		if err != nil {
			return err
		}
		fmt.Printf("ingested document %s (group=%s)\n", doc.ID, doc.GroupID)
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(ingestCmd)
	ingestCmd.Flags().String("owner", "", "owner id recorded on the document")
	ingestCmd.Flags().String("group", "", "document group id new missions reference")
}

func formatFromExtension(path string) (maestro.DocumentFormat, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return maestro.FormatPDF, nil
	case ".docx":
		return maestro.FormatDOCX, nil
	case ".md", ".markdown":
		return maestro.FormatMD, nil
	case ".txt":
		return maestro.FormatTXT, nil
	default:
		return "", fmt.Errorf("ingest: unrecognized file extension %q", filepath.Ext(path))
	}
}
