package main

import (
	"context"

	"github.com/aretw0/tickstory/internal/cli"
	"github.com/spf13/cobra"
)

var chatCmd = &cobra.Command{
	Use:   "chat [story]",
	Short: "Talk to a story in the terminal",
	Long: `Starts an interactive conversation with a story file, or with the entry story
of a directory (start, main, index or the directory name).

Type "intent role=value ..." or a JSON user action. Commands: /state, /reset, /quit.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := cli.ChatOptions{
			EngineOptions: engineOptions(cmd),
			Path:          storyPath(args),
			SessionsDir:   sessionsDir(cmd),
		}
		opts.ConversationID, _ = cmd.Flags().GetString("session")
		opts.JSON, _ = cmd.Flags().GetBool("json")
		opts.Fresh, _ = cmd.Flags().GetBool("fresh")
		opts.Watch, _ = cmd.Flags().GetBool("watch")
		opts.StopOnFinal, _ = cmd.Flags().GetBool("stop-on-final")

		ctx := cli.NewSignalContext(context.Background())
		defer ctx.Cancel()
		return cli.Chat(ctx, opts, cli.StdIO())
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)

	chatCmd.Flags().StringP("session", "s", "", "Conversation id to resume (default \"cli\", or one per story with --watch)")
	chatCmd.Flags().Bool("json", false, "Read JSON user actions and write JSON turn results, one per line")
	chatCmd.Flags().Bool("fresh", false, "Discard the stored session before starting")
	chatCmd.Flags().BoolP("watch", "w", false, "Reload the story when its file changes")
	chatCmd.Flags().Bool("stop-on-final", false, "Exit once a final action ran")

	rootCmd.RunE = chatCmd.RunE
	rootCmd.Args = chatCmd.Args
	rootCmd.Flags().AddFlagSet(chatCmd.Flags())
}
