package main

import (
	"context"
	"os"

	"github.com/aretw0/tickstory/internal/cli"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve [story]",
	Short: "Start the HTTP server",
	Long: `Serves a story over HTTP. Conversations are kept in memory unless
--sessions-dir or --redis-addr is given. Metrics are exposed on /metrics.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := cli.ServeOptions{
			EngineOptions: engineOptions(cmd),
			Path:          storyPath(args),
		}
		port, _ := cmd.Flags().GetString("port")
		opts.Addr = ":" + port
		opts.LogLevel, _ = cmd.Flags().GetString("log-level")
		if cmd.Flags().Changed("sessions-dir") {
			opts.SessionsDir = sessionsDir(cmd)
		}
		opts.RedisAddr, _ = cmd.Flags().GetString("redis-addr")
		opts.RedisPassword, _ = cmd.Flags().GetString("redis-password")
		opts.RedisDB, _ = cmd.Flags().GetInt("redis-db")
		opts.SessionTTL, _ = cmd.Flags().GetDuration("session-ttl")
		opts.PIIPatterns, _ = cmd.Flags().GetStringSlice("pii-pattern")
		opts.EncryptionKey, _ = cmd.Flags().GetString("encryption-key")
		if opts.EncryptionKey == "" {
			opts.EncryptionKey = os.Getenv("TICKSTORY_ENCRYPTION_KEY")
		}

		ctx := cli.NewSignalContext(context.Background())
		defer ctx.Cancel()
		return cli.Serve(ctx, opts, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	serveCmd.Flags().String("log-level", "info", "Log level: debug, info, warn or error")
	serveCmd.Flags().String("redis-addr", "", "Store sessions in Redis at this address")
	serveCmd.Flags().String("redis-password", "", "Redis password")
	serveCmd.Flags().Int("redis-db", 0, "Redis database")
	serveCmd.Flags().Duration("session-ttl", 0, "Expire Redis sessions after this long (0 keeps them)")
	serveCmd.Flags().StringSlice("pii-pattern", nil, "Mask contexts whose name matches this regexp before storing (repeatable)")
	serveCmd.Flags().String("encryption-key", "", "Encrypt stored sessions with this AES-256 key, base64 or 32 raw bytes (env TICKSTORY_ENCRYPTION_KEY)")
}
