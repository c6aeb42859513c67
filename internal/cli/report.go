package cli

import (
	"context"
	"fmt"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
)

var reportCmd = &cobra.Command{
	Use:   "report [mission-id]",
	Short: "Render a mission's current draft report to the terminal",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(a *app, cmd *cobra.Command, args []string) error {
		draft, err := a.controller.GetDraft(context.Background(), args[0])
		if err != nil {
			return err
		}
		if draft == nil {
			fmt.Println("no report has been written for this mission yet")
			return nil
		}

		renderer, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(100),
		)
		if err != nil {
			return err
		}
		rendered, err := renderer.Render(draft.ContentMD)
		if err != nil {
			return err
		}
		fmt.Printf("# version %d\n\n%s", draft.Version, rendered)
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(reportCmd)
}
