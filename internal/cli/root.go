package cli

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "maestroctl",
	Short: "Drive MAESTRO research missions from the command line",
	Long:  `maestroctl creates, runs, and inspects MAESTRO research missions, and can serve the mission API over HTTP.`,
}

// Execute runs the command tree; cmd/maestroctl's main calls this directly.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "", "path to a maestro config YAML file (defaults to built-in defaults)")
}

func configPath(cmd *cobra.Command) string {
	p, _ := cmd.Flags().GetString("config")
	return p
}
