package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/murtaza-nasir/maestro/internal/maestro"
	"github.com/murtaza-nasir/maestro/internal/mission"
)

var createCmd = &cobra.Command{
	Use:   "create [request text]",
	Short: "Create a new research mission",
	Args:  cobra.ExactArgs(1),
	RunE:  runCreate,
}

func init() {
	rootCmd.AddCommand(createCmd)
	createCmd.Flags().Bool("web", false, "allow web search/fetch for this mission")
	createCmd.Flags().String("doc-group", "", "restrict document retrieval to this group id")
	createCmd.Flags().String("owner", "", "owner id recorded on the mission")
	createCmd.Flags().Bool("auto-save-sources", true, "auto-save fetched web pages as documents")
}

func runCreate(cmd *cobra.Command, args []string) error {
	a, closeApp, err := buildApp(configPath(cmd))
	if err != nil {
		return err
	}
	defer closeApp()

	useWeb, _ := cmd.Flags().GetBool("web")
	docGroup, _ := cmd.Flags().GetString("doc-group")
	owner, _ := cmd.Flags().GetString("owner")
	autoSave, _ := cmd.Flags().GetBool("auto-save-sources")

	m, err := a.controller.CreateMission(context.Background(), mission.CreateRequest{
		RequestText: args[0],
		Owner:       owner,
		Options: maestro.MissionOptions{
			UseWeb:          useWeb,
			DocGroupID:      docGroup,
			AutoSaveSources: autoSave,
		},
	})
	if err != nil {
		return err
	}
	fmt.Printf("created mission %s (status=%s)\n", m.ID, m.Status)
	return nil
}
