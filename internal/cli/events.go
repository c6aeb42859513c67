package cli

import (
	"encoding/json"
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/murtaza-nasir/maestro/internal/events"
)

var eventTypeStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14"))

var eventsCmd = &cobra.Command{
	Use:   "events [mission-id]",
	Short: "Stream a mission's live-progress events until interrupted",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(a *app, cmd *cobra.Command, args []string) error {
		missionID := args[0]
		ch, subID := a.controller.Subscribe(missionID)
		defer a.controller.Unsubscribe(missionID, subID)

		for ev := range ch {
			printEvent(ev)
		}
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(eventsCmd)
}

func printEvent(ev events.Event) {
	payload, err := json.Marshal(ev.Payload)
	if err != nil {
		payload = []byte(fmt.Sprintf("%v", ev.Payload))
	}
	fmt.Printf("[%d] %s %s\n", ev.Seq, eventTypeStyle.Render(string(ev.Type)), payload)
}
