package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/aretw0/tickstory/internal/cli"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "tickstory",
	Short: "Tickstory runs goal-driven dialogue stories",
	Long: `Tickstory drives conversations from a story file: a hierarchical state
machine picks the objective, a backward-chaining solver picks the action.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().Bool("debug", false, "Log engine events to stderr")
	rootCmd.PersistentFlags().String("handlers", "", "Handlers file (default: handlers.yaml next to the story)")
	rootCmd.PersistentFlags().String("sessions-dir", filepath.Join(".tickstory", "sessions"), "Directory of stored sessions")
}

func engineOptions(cmd *cobra.Command) cli.EngineOptions {
	debug, _ := cmd.Flags().GetBool("debug")
	handlers, _ := cmd.Flags().GetString("handlers")
	return cli.EngineOptions{Debug: debug, HandlersPath: handlers}
}

func sessionsDir(cmd *cobra.Command) string {
	dir, _ := cmd.Flags().GetString("sessions-dir")
	return dir
}

func storyPath(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return "."
}
