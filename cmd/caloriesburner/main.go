// Package main implements the caloriesburner CLI.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "caloriesburner",
	Short: "Track heart rate and active energy for a live workout",
	// Running without a subcommand starts the dashboard
	RunE:         runWorkout,
	SilenceUsage: true,
}

func init() {
	addRunFlags(rootCmd)
	addRunFlags(runCmd)
	rootCmd.AddCommand(runCmd)
}
