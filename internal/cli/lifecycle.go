package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var startCmd = &cobra.Command{
	Use:   "start [mission-id]",
	Short: "Start a pending mission's pipeline",
	Args:  cobra.ExactArgs(1),
	RunE:  withApp(func(a *app, cmd *cobra.Command, args []string) error {
		if err := a.controller.Start(context.Background(), args[0]); err != nil {
			return err
		}
		fmt.Printf("mission %s started\n", args[0])
		return nil
	}),
}

var stopCmd = &cobra.Command{
	Use:   "stop [mission-id]",
	Short: "Cooperatively stop a running mission",
	Args:  cobra.ExactArgs(1),
	RunE:  withApp(func(a *app, cmd *cobra.Command, args []string) error {
		if err := a.controller.Stop(context.Background(), args[0]); err != nil {
			return err
		}
		fmt.Printf("mission %s stopped\n", args[0])
		return nil
	}),
}

var resumeCmd = &cobra.Command{
	Use:   "resume [mission-id]",
	Short: "Resume a stopped mission",
	Args:  cobra.ExactArgs(1),
	RunE:  withApp(func(a *app, cmd *cobra.Command, args []string) error {
		if err := a.controller.Resume(context.Background(), args[0]); err != nil {
			return err
		}
		fmt.Printf("mission %s resumed\n", args[0])
		return nil
	}),
}

var statusCmd = &cobra.Command{
	Use:   "status [mission-id]",
	Short: "Print a mission's current status, phase, and cost stats",
	Args:  cobra.ExactArgs(1),
	RunE:  withApp(func(a *app, cmd *cobra.Command, args []string) error {
		m, err := a.controller.GetMission(context.Background(), args[0])
		if err != nil {
			return err
		}
		stats := a.controller.GetStats(args[0])
		fmt.Printf("id:       %s\n", m.ID)
		fmt.Printf("status:   %s\n", m.Status)
		fmt.Printf("phase:    %s\n", m.Phase)
		fmt.Printf("cost:     $%.4f (%d llm calls, %d prompt / %d completion tokens)\n",
			stats.TotalCost, stats.LLMCallCount, stats.TotalPromptTokens, stats.TotalCompletionTokens)
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(startCmd, stopCmd, resumeCmd, statusCmd)
}

// withApp loads the config and builds the app once, then runs fn, closing
// the app's resources afterward regardless of fn's outcome.
func withApp(fn func(a *app, cmd *cobra.Command, args []string) error) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, closeApp, err := buildApp(configPath(cmd))
		if err != nil {
			return err
		}
		defer closeApp()
		return fn(a, cmd, args)
	}
}
