package cmd

import (
	"tipwave/server"

	"github.com/spf13/cobra"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the tipwave HTTP server",
	Long:  `Start the tipwave backend: track API, tip API and the WebSocket notification endpoint.`,
	Run: func(cmd *cobra.Command, args []string) {
		server.Start()
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
}
