// Command maestroctl creates and drives MAESTRO research missions, either
// directly from the command line or by serving the mission API over HTTP.
package main

import (
	"fmt"
	"os"

	"github.com/murtaza-nasir/maestro/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
