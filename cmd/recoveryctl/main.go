// Command recoveryctl drives the recovery-plan services from a terminal. Each
// --client profile is its own client installation with its own session.
package main

import (
	"os"
)

func main() {
	app := NewApp()
	rootCmd := app.CreateRootCommand()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
