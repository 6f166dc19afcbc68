// Command airlift runs the pilot, hostess and passenger semaphore simulation.
package main

import (
	"fmt"
	"os"

	"github.com/Iron-Ham/airlift/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
