package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/tickstory"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of tickstory",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "tickstory version %s\n", strings.TrimSpace(tickstory.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
