package main

import (
	"github.com/aretw0/tickstory/internal/cli"
	"github.com/spf13/cobra"
)

var graphCmd = &cobra.Command{
	Use:   "graph [story]",
	Short: "Export the state machine as a Mermaid diagram",
	Long: `Outputs a Mermaid diagram (graph TD) of the story's state machine. With
--session the stored conversation is highlighted.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		conversation, _ := cmd.Flags().GetString("session")
		return cli.Graph(cmd.Context(), storyPath(args), sessionsDir(cmd), conversation, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().StringP("session", "s", "", "Overlay this stored conversation")
}
