package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "elisa",
	Short: "Kid-friendly AI build team",
	Long: `Elisa turns a project idea into working software with a small team
of AI helpers.

Describe what you want to build and Elisa plans the work, assigns it to
named agents (builders, testers, reviewers), keeps an eye on the token
budget, saves a snapshot after every finished task, and explains what is
happening along the way.

Start a build:
  elisa run "a dinosaur racing game"

See the plan without building:
  elisa plan "a weather station for my ESP32"`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}
