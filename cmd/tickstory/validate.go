package main

import (
	"github.com/aretw0/tickstory/internal/cli"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate [story]",
	Short: "Check a story for consistency",
	Long: `Compiles the story, builds its state machine and reports objectives without
actions, unknown answers or handlers and preconditions nothing produces.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return cli.Validate(storyPath(args), engineOptions(cmd).HandlersPath, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
