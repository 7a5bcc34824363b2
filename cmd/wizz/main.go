// Package main implements the wizz CLI for driving a wizzd server.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	// serverURL is the base URL for the wizzd HTTP server
	serverURL string
	// jsonOutput prints raw response bodies instead of the human summary
	jsonOutput bool
	// version information
	version = "dev"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "wizz",
	Short: "CLI for the wizz delegation server",
	Long: `wizz is a command-line interface for the wizzd delegation server.
It submits goals to the Senior/Junior orchestrator, runs single phases,
publishes files to the content store and reads them back.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:9191", "wizzd server URL")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "print the raw JSON response")

	runCmd.Flags().StringP("context", "c", "", "optional context passed to both personas")
	runCmd.Flags().String("context-file", "", "read context from a file")

	buildCmd.Flags().StringP("context", "c", "", "optional context passed to both personas")
	buildCmd.Flags().String("context-file", "", "read context from a file")
	buildCmd.Flags().Bool("fast", false, "single Junior pass without planning or review")
	buildCmd.Flags().Bool("publish", false, "publish the built files to the content store")
	buildCmd.Flags().Int("max-tasks", 0, "task cap (1-3, server default when unset)")
	buildCmd.Flags().String("out", "", "write the built files under this directory")

	planCmd.Flags().StringP("context", "c", "", "optional context passed to the planner")
	planCmd.Flags().Bool("build", false, "plan for a build run")
	planCmd.Flags().Int("max-tasks", 0, "task cap (1-3, server default when unset)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(publishCmd)
	rootCmd.AddCommand(readCmd)
	rootCmd.AddCommand(treeCmd)
	rootCmd.AddCommand(healthCmd)
}
