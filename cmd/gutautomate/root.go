package main

import (
	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "gutautomate",
	Short: "Turn meeting notes into ClickUp tasks without creating duplicates",
	Long: `gutautomate reads Google Meet notes emails, extracts action items with
Claude, and files them as ClickUp tasks. Before creating anything it
checks the destination lists for near-duplicate tasks and offers to
skip, update the existing task, or create anyway.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.config/gutautomate/config.yaml)")
}
